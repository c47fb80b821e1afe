// Package code renders the fixed-width 21-digit traceability code printed
// on every label, both as a barcode and as human-readable text.
//
// The code is a pure function of its five inputs: equal inputs always yield
// the identical string, which makes a retried transaction reproduce the same
// code rather than mint a new one.
package code

import (
	"fmt"

	"github.com/canline/labelstation/internal/types"
)

// Format concatenates, in order: canID zero-padded to 6 digits, lot
// zero-padded to 5, the brand indicator as exactly 1 digit, productCode
// zero-padded to 3, and weightGrams zero-padded to 6. Total width 21.
//
// Inputs that would overflow their field width are caller precondition
// violations and return ErrFieldOverflow. All padding is ASCII zero-padding;
// no rounding or locale formatting is applied.
func Format(canID int, lot string, indicator int, productCode string, weightGrams int) (string, error) {
	if canID < 0 || canID >= types.MaxCanID {
		return "", fmt.Errorf("can id %d: %w", canID, types.ErrFieldOverflow)
	}
	if indicator < 0 || indicator > 9 {
		return "", fmt.Errorf("indicator %d: %w", indicator, types.ErrFieldOverflow)
	}
	if weightGrams < 0 || weightGrams >= types.MaxWeightGrams {
		return "", fmt.Errorf("weight %d g: %w", weightGrams, types.ErrFieldOverflow)
	}
	if err := checkDigits("lot", lot, types.LotDigits); err != nil {
		return "", err
	}
	if err := checkDigits("product code", productCode, types.ProductCodeDigits); err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d%s%d%s%06d",
		canID,
		pad(lot, types.LotDigits),
		indicator,
		pad(productCode, types.ProductCodeDigits),
		weightGrams,
	), nil
}

// checkDigits rejects empty, over-width, or non-numeric field values.
func checkDigits(field, s string, width int) error {
	if s == "" || len(s) > width {
		return fmt.Errorf("%s %q: %w", field, s, types.ErrFieldOverflow)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return fmt.Errorf("%s %q: %w", field, s, types.ErrFieldOverflow)
		}
	}
	return nil
}

// pad left-pads a digit string with ASCII zeros to the given width.
func pad(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
