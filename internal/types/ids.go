package types

import (
	"github.com/google/uuid"
)

// EventID represents a UUIDv7 print-event identifier.
// String alias enables type safety while keeping plain-text storage.
// UUIDv7 time-ordering ensures sequential inserts cluster in B-tree indexes.
type EventID string

// NewEventID generates a UUIDv7 print-event identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewEventID() EventID {
	return EventID(uuid.Must(uuid.NewV7()).String())
}

// ParseEventID validates and converts a string to EventID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseEventID(s string) (EventID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return EventID(s), nil
}
