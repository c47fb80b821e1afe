package types

import "errors"

// Sentinel errors for label station operations.
var (
	// ErrNoBrand indicates a print attempt without a selected brand.
	ErrNoBrand = errors.New("no brand selected")

	// ErrNoProduct indicates a print attempt without a selected product.
	ErrNoProduct = errors.New("no product selected")

	// ErrBrandMismatch indicates the product is not sold under the selected brand.
	ErrBrandMismatch = errors.New("product not sold under selected brand")

	// ErrBadLot indicates a lot that is not exactly five ASCII digits.
	ErrBadLot = errors.New("lot must be exactly 5 digits")

	// ErrDuplicateLot indicates a recorded print event already carries this lot.
	ErrDuplicateLot = errors.New("lot already recorded")

	// ErrBusy indicates a print transaction is already in flight.
	ErrBusy = errors.New("print transaction already in flight")

	// ErrFieldOverflow indicates a traceability code field would not fit its width.
	ErrFieldOverflow = errors.New("value overflows traceability code field")

	// ErrCounterConflict indicates the counter moved under a concurrent session.
	ErrCounterConflict = errors.New("counter advanced by another session")

	// ErrCounterMissing indicates the deployment has no counter row.
	ErrCounterMissing = errors.New("counter record not found")

	// ErrNoDevice indicates the printer gateway found no bound device.
	ErrNoDevice = errors.New("no printer device bound")

	// ErrBadSecret indicates the typed emergency secret did not match.
	ErrBadSecret = errors.New("emergency secret mismatch")
)
