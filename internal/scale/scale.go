// Package scale provides the weight source: an asynchronous, restartable
// stream of readings from a connected scale.
//
// The station treats the scale as optional. A missing or failing transport
// surfaces as a status transition (scale offline), never as a blocking
// error; the operator can keep printing with manually entered weight.
package scale

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

// Transport is one way of reaching the physical scale.
// Implementations: serial port (also covers Bluetooth scales paired at OS
// level, which surface as rfcomm serial devices) and in-memory for tests.
type Transport interface {
	// Name identifies the transport in status messages.
	Name() string

	// Open connects and returns the raw reading stream.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Status is the operator-facing connection state.
type Status int

const (
	StatusOffline Status = iota
	StatusConnected
)

// Reader consumes a transport and publishes parsed readings.
// Last value wins; no smoothing or averaging is applied.
type Reader struct {
	transport Transport
	log       *slog.Logger

	// onReading receives every successfully parsed weight in grams.
	onReading func(grams int)

	// onStatus receives connection state transitions.
	onStatus func(Status)

	// retryInterval between reconnect attempts after a transport failure.
	retryInterval time.Duration
}

// NewReader wires a transport to reading and status callbacks.
// Either callback may be nil.
func NewReader(t Transport, log *slog.Logger, onReading func(int), onStatus func(Status)) *Reader {
	if log == nil {
		log = slog.Default()
	}
	return &Reader{
		transport:     t,
		log:           log,
		onReading:     onReading,
		onStatus:      onStatus,
		retryInterval: 3 * time.Second,
	}
}

// Run reads from the transport until ctx is cancelled, reconnecting with a
// fixed backoff after failures. Intended to run on its own goroutine for
// the life of a session.
func (r *Reader) Run(ctx context.Context) {
	for {
		if err := r.readOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.log.Warn("scale transport failed", "transport", r.transport.Name(), "error", err)
		}
		r.setStatus(StatusOffline)

		select {
		case <-ctx.Done():
			return
		case <-time.After(r.retryInterval):
		}
	}
}

// readOnce opens the transport and consumes chunks until EOF or cancellation.
func (r *Reader) readOnce(ctx context.Context) error {
	stream, err := r.transport.Open(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	// Close the stream when ctx ends so the blocking Read returns.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			stream.Close()
		case <-done:
		}
	}()

	r.setStatus(StatusConnected)
	r.log.Info("scale connected", "transport", r.transport.Name())

	buf := make([]byte, 256)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			if grams, ok := ParseReading(string(buf[:n])); ok && r.onReading != nil {
				r.onReading(grams)
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}

func (r *Reader) setStatus(s Status) {
	if r.onStatus != nil {
		r.onStatus(s)
	}
}
