// Package types provides domain models shared across label station components.
//
// Zero-dependency design: types.go and errors.go use only the standard
// library. ID utilities in ids.go import uuid but are isolated so callers
// that only need the models avoid the dependency.
package types

import "time"

// OperatingMode is the session-wide print mode.
// NORMAL attempts physical printing; OFFLINE records events without
// touching the printer. Never persisted; a fresh session starts NORMAL.
type OperatingMode int

const (
	// ModeNormal probes the printer and dispatches labels.
	ModeNormal OperatingMode = iota

	// ModeOffline skips printer probe and dispatch entirely.
	// Entered via the operator secret; labels are printed later from
	// the recorded events.
	ModeOffline
)

// String returns the operator-facing mode name.
func (m OperatingMode) String() string {
	if m == ModeOffline {
		return "OFFLINE"
	}
	return "NORMAL"
}

// Field widths of the 21-digit traceability code.
// 6+5+1+3+6 = 21; any input overflowing its field is a caller error.
const (
	CanIDDigits       = 6
	LotDigits         = 5
	IndicatorDigits   = 1
	ProductCodeDigits = 3
	WeightDigits      = 6

	// CodeLength is the total width of a traceability code.
	CodeLength = CanIDDigits + LotDigits + IndicatorDigits + ProductCodeDigits + WeightDigits
)

// MaxCanID is the first can identifier that no longer fits its field.
const MaxCanID = 1_000_000

// MaxWeightGrams is the first weight that no longer fits its field.
const MaxWeightGrams = 1_000_000

// Counter is the singleton durable "next identifier" record.
// Read once at session start; advanced by exactly 1 per recorded print
// event; never decremented.
type Counter struct {
	Handle string `db:"counter_id"`
	NextID int    `db:"next_id"`
}

// Brand is reference data: a label banner name plus the single digit
// embedded in every traceability code printed under it.
type Brand struct {
	ID        string `db:"brand_id"`
	Name      string `db:"name"`
	Indicator int    `db:"indicator"`
}

// Product is reference data, immutable for the life of a session.
// BrandIDs restricts which brands the product may be labeled under.
type Product struct {
	ID          string `db:"product_id"`
	Name        string `db:"name"`
	Code        string `db:"product_code"`
	Ingredients string `db:"ingredients"`
	RNE         string `db:"rne"`
	RNPA        string `db:"rnpa"`
	BrandIDs    []string
}

// SoldUnder reports whether the product may be labeled under the brand.
// An empty link set means the product is unrestricted.
func (p Product) SoldUnder(brandID string) bool {
	if len(p.BrandIDs) == 0 {
		return true
	}
	for _, id := range p.BrandIDs {
		if id == brandID {
			return true
		}
	}
	return false
}

// LabelRequest is the ephemeral per-attempt input assembled from form
// state. Lot must be exactly five ASCII digits before a print attempt is
// permitted.
type LabelRequest struct {
	ProductID   string
	BrandID     string
	Lot         string
	ProducedOn  string // ISO date, yyyy-mm-dd
	ExpiresOn   string // ISO date, yyyy-mm-dd
	WeightGrams int
}

// PrintEvent is the durable record of one accepted transaction.
// Append-only; never mutated or deleted by this system.
type PrintEvent struct {
	EventID     EventID   `db:"event_id"`
	CanID       int       `db:"can_id"`
	Lot         string    `db:"lot"`
	BrandName   string    `db:"brand_name"`
	ProductName string    `db:"product_name"`
	WeightGrams int       `db:"weight_g"`
	RNE         string    `db:"rne"`
	RNPA        string    `db:"rnpa"`
	Code        string    `db:"code21"`
	ProducedOn  string    `db:"produced_on"`
	ExpiresOn   string    `db:"expires_on"`
	RecordedAt  time.Time `db:"recorded_at"`
}
