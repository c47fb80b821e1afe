package printer

import (
	"context"
	"fmt"
	"net"
	"time"
)

// TCPGateway sends raw ZPL to a network printer on the usual port 9100.
// Probe is a plain dial: industrial Zebras accept and buffer anything
// arriving on the raw port, so a successful connect is as much readiness
// as the protocol offers.
type TCPGateway struct {
	addr    string
	timeout time.Duration
}

// NewTCPGateway returns a gateway for the printer at addr (host:port).
func NewTCPGateway(addr string) *TCPGateway {
	return &TCPGateway{addr: addr, timeout: 5 * time.Second}
}

// Probe implements Gateway.
func (g *TCPGateway) Probe(ctx context.Context) Status {
	d := net.Dialer{Timeout: g.timeout}
	conn, err := d.DialContext(ctx, "tcp", g.addr)
	if err != nil {
		return StatusUnavailable
	}
	conn.Close()
	return StatusReady
}

// DefaultDevice implements Gateway. The configured address is the device;
// there is no enumeration on a raw socket.
func (g *TCPGateway) DefaultDevice(ctx context.Context) (Device, error) {
	if g.Probe(ctx) != StatusReady {
		return nil, fmt.Errorf("printer %s: no route", g.addr)
	}
	return &tcpDevice{gateway: g}, nil
}

type tcpDevice struct {
	gateway *TCPGateway
}

func (d *tcpDevice) Name() string { return d.gateway.addr }

// Send implements Device. One connection per label keeps the printer's
// single-session firmware happy.
func (d *tcpDevice) Send(ctx context.Context, payload []byte) error {
	dialer := net.Dialer{Timeout: d.gateway.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", d.gateway.addr)
	if err != nil {
		return fmt.Errorf("dispatch to %s: %w", d.gateway.addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	} else {
		_ = conn.SetWriteDeadline(time.Now().Add(d.gateway.timeout))
	}

	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("dispatch to %s: %w", d.gateway.addr, err)
	}
	return nil
}

// Disabled is the no-gateway capability: Probe always reports unsupported.
// Used when the station is configured without any printer, which routes
// every normal-mode transaction to the printer-missing branch.
type Disabled struct{}

// Probe implements Gateway.
func (Disabled) Probe(ctx context.Context) Status { return StatusUnsupported }

// DefaultDevice implements Gateway.
func (Disabled) DefaultDevice(ctx context.Context) (Device, error) {
	return nil, fmt.Errorf("printer gateway disabled")
}
