package printer

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/canline/labelstation/internal/types"
)

func TestAgentGateway_ProbeReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/default" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(agentDeviceInfo{Name: "ZD420", UID: "usb:0"})
	}))
	defer srv.Close()

	g := NewAgentGateway(srv.URL)
	if got := g.Probe(context.Background()); got != StatusReady {
		t.Errorf("Probe() = %v, want StatusReady", got)
	}

	dev, err := g.DefaultDevice(context.Background())
	if err != nil {
		t.Fatalf("DefaultDevice() error = %v", err)
	}
	if dev.Name() != "ZD420" {
		t.Errorf("Name() = %q, want ZD420", dev.Name())
	}
}

func TestAgentGateway_NoDeviceBound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no default device", http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewAgentGateway(srv.URL)
	if got := g.Probe(context.Background()); got != StatusUnavailable {
		t.Errorf("Probe() = %v, want StatusUnavailable", got)
	}
	if _, err := g.DefaultDevice(context.Background()); !errors.Is(err, types.ErrNoDevice) {
		t.Errorf("DefaultDevice() error = %v, want ErrNoDevice", err)
	}
}

func TestAgentGateway_AgentUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	g := NewAgentGateway(srv.URL)
	if got := g.Probe(context.Background()); got != StatusUnavailable {
		t.Errorf("Probe() = %v, want StatusUnavailable", got)
	}
}

func TestAgentDevice_Send(t *testing.T) {
	var gotPayload string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/default":
			json.NewEncoder(w).Encode(agentDeviceInfo{Name: "ZD420", UID: "usb:0"})
		case "/write":
			var body struct {
				Data string `json:"data"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			gotPayload = body.Data
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	g := NewAgentGateway(srv.URL)
	dev, err := g.DefaultDevice(context.Background())
	if err != nil {
		t.Fatalf("DefaultDevice() error = %v", err)
	}
	if err := dev.Send(context.Background(), []byte("^XA^XZ")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotPayload != "^XA^XZ" {
		t.Errorf("agent received %q, want ^XA^XZ", gotPayload)
	}
}

func TestTCPGateway_SendAndProbe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 4096)
				n, _ := c.Read(buf)
				if n > 0 {
					received <- buf[:n]
				}
			}(conn)
		}
	}()

	g := NewTCPGateway(ln.Addr().String())
	if got := g.Probe(context.Background()); got != StatusReady {
		t.Fatalf("Probe() = %v, want StatusReady", got)
	}

	dev, err := g.DefaultDevice(context.Background())
	if err != nil {
		t.Fatalf("DefaultDevice() error = %v", err)
	}
	if err := dev.Send(context.Background(), []byte("^XA^XZ")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := string(<-received); got != "^XA^XZ" {
		t.Errorf("printer received %q, want ^XA^XZ", got)
	}
}

func TestTCPGateway_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	g := NewTCPGateway(addr)
	if got := g.Probe(context.Background()); got != StatusUnavailable {
		t.Errorf("Probe() = %v, want StatusUnavailable", got)
	}
}

func TestDisabled(t *testing.T) {
	g := Disabled{}
	if got := g.Probe(context.Background()); got != StatusUnsupported {
		t.Errorf("Probe() = %v, want StatusUnsupported", got)
	}
	if _, err := g.DefaultDevice(context.Background()); err == nil {
		t.Error("DefaultDevice() error = nil, want error")
	}
}
