package store

import (
	"context"
	"fmt"
	"time"

	"github.com/canline/labelstation/internal/core/db"
	"github.com/canline/labelstation/internal/types"
)

// EventStore is the append-only log of accepted print transactions.
type EventStore struct {
	queries *db.Queries
}

// NewEventStore returns an event store over the loaded queries.
func NewEventStore(queries *db.Queries) *EventStore {
	return &EventStore{queries: queries}
}

// Create appends one print event. A zero EventID or RecordedAt is filled
// in here so callers can pass a bare domain record; a caller-supplied
// EventID must be a well-formed UUID.
func (s *EventStore) Create(ctx context.Context, ev types.PrintEvent) error {
	if ev.EventID == "" {
		ev.EventID = types.NewEventID()
	} else if _, err := types.ParseEventID(string(ev.EventID)); err != nil {
		return fmt.Errorf("create print event: malformed event id %q: %w", ev.EventID, err)
	}
	if ev.RecordedAt.IsZero() {
		ev.RecordedAt = time.Now().UTC()
	}

	_, err := s.queries.Exec(ctx, "insert-print-event",
		string(ev.EventID),
		ev.CanID,
		ev.Lot,
		ev.BrandName,
		ev.ProductName,
		ev.WeightGrams,
		ev.RNE,
		ev.RNPA,
		ev.Code,
		ev.ProducedOn,
		ev.ExpiresOn,
		ev.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("create print event: %w", err)
	}
	return nil
}

// ExistsByLot reports whether any recorded event already carries the lot.
// Runs before any durable write when the uniqueness policy is enabled.
func (s *EventStore) ExistsByLot(ctx context.Context, lot string) (bool, error) {
	var count int
	if err := s.queries.Get(ctx, "count-events-by-lot", &count, lot); err != nil {
		return false, fmt.Errorf("check lot %s: %w", lot, err)
	}
	return count > 0, nil
}

// ByCanID returns the most recent event recorded under a can identifier.
// Used to re-print from recorded data after a failed physical print.
func (s *EventStore) ByCanID(ctx context.Context, canID int) (types.PrintEvent, error) {
	var ev types.PrintEvent
	if err := s.queries.Get(ctx, "get-event-by-can-id", &ev, canID); err != nil {
		return types.PrintEvent{}, fmt.Errorf("get event by can id %d: %w", canID, err)
	}
	return ev, nil
}
