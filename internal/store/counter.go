// Package store implements the durable record stores behind the station:
// the shared print counter, the append-only print-event log, and the
// product/brand reference catalog. All access goes through named queries
// so the same code serves SQLite and PostgreSQL deployments.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/canline/labelstation/internal/core/db"
	"github.com/canline/labelstation/internal/types"
)

// CounterStore holds the single mutable "next identifier" record.
type CounterStore struct {
	queries *db.Queries
}

// NewCounterStore returns a counter store over the loaded queries.
func NewCounterStore(queries *db.Queries) *CounterStore {
	return &CounterStore{queries: queries}
}

// Read fetches the current counter. Exactly one logical counter exists per
// deployment; a missing row is a provisioning error, not a zero value.
func (s *CounterStore) Read(ctx context.Context) (types.Counter, error) {
	var c types.Counter
	err := s.queries.Get(ctx, "get-counter", &c)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Counter{}, types.ErrCounterMissing
	}
	if err != nil {
		return types.Counter{}, fmt.Errorf("read counter: %w", err)
	}
	return c, nil
}

// Advance sets next_id to next, but only if the stored value still equals
// expected. A conditional update serializes concurrent terminals through
// the store itself; a lost race surfaces as ErrCounterConflict and the
// caller must re-read before retrying.
func (s *CounterStore) Advance(ctx context.Context, handle string, expected, next int) error {
	res, err := s.queries.Exec(ctx, "advance-counter", next, handle, expected)
	if err != nil {
		return fmt.Errorf("advance counter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance counter: %w", err)
	}
	if n == 0 {
		return types.ErrCounterConflict
	}
	return nil
}

// Set overwrites the counter unconditionally. Provisioning and the
// `counter set` admin command only; never used by the print transaction.
func (s *CounterStore) Set(ctx context.Context, handle string, next int) error {
	res, err := s.queries.Exec(ctx, "set-counter", next, handle)
	if err != nil {
		return fmt.Errorf("set counter: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrCounterMissing
	}
	return nil
}

// Init creates the counter record. Used once at deployment provisioning.
func (s *CounterStore) Init(ctx context.Context, handle string, next int) error {
	if _, err := s.queries.Exec(ctx, "insert-counter", handle, next); err != nil {
		return fmt.Errorf("init counter: %w", err)
	}
	return nil
}
