package scale

import (
	"context"
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Default line settings for the bench scales deployed on the line.
const (
	DefaultBaudRate = 9600
)

// SerialTransport reads from a serial port (USB-serial or rfcomm).
type SerialTransport struct {
	Device   string // e.g. /dev/ttyUSB0, COM3
	BaudRate int
}

// NewSerialTransport returns a transport for the given device.
// A zero baud rate selects the 9600 8N1 default.
func NewSerialTransport(device string, baud int) *SerialTransport {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	return &SerialTransport{Device: device, BaudRate: baud}
}

// Name implements Transport.
func (t *SerialTransport) Name() string {
	return fmt.Sprintf("serial:%s@%d", t.Device, t.BaudRate)
}

// Open implements Transport.
func (t *SerialTransport) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mode := &serial.Mode{
		BaudRate: t.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(t.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", t.Device, err)
	}
	return port, nil
}
