// Package printer provides the gateway to the physical label printer.
//
// Printer absence is a first-class, expected outcome on the packing line,
// not an exception path: Probe returns a tri-state so the transaction can
// distinguish "no gateway configured at all" from "gateway reachable but no
// device bound" from "ready". Send is fire-and-forget; a nil error confirms
// hand-off to the gateway only, never physical completion.
package printer

import "context"

// Status is the capability probe result.
type Status int

const (
	// StatusUnsupported means no gateway capability is configured.
	StatusUnsupported Status = iota

	// StatusUnavailable means the gateway exists but no default device is bound.
	StatusUnavailable

	// StatusReady means a default device is bound and accepting payloads.
	StatusReady
)

// String returns the status name for logs and operator messages.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unsupported"
	}
}

// Device is a bound printer accepting formatted label payloads.
type Device interface {
	// Name identifies the device in logs and operator messages.
	Name() string

	// Send hands off one label payload. No confirmation of physical
	// completion is available; an error means the hand-off itself failed.
	Send(ctx context.Context, payload []byte) error
}

// Gateway enumerates the default printer, if any.
type Gateway interface {
	// Probe reports the capability tri-state. Probe failures map to
	// StatusUnavailable, never to errors.
	Probe(ctx context.Context) Status

	// DefaultDevice returns the bound default printer.
	// Returns types.ErrNoDevice when none is bound.
	DefaultDevice(ctx context.Context) (Device, error)
}
