package inventory

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxQuantityPlaces bounds the decimal places a withdrawal may carry. Bag
// counts are whole; weight-based sizes allow one place.
const MaxQuantityPlaces int32 = 1

// Precision returns the number of decimal places in q, capped at MaxQuantityPlaces.
func Precision(q decimal.Decimal) int32 {
	s := q.String()
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return 0
	}
	return min(int32(len(s)-dot-1), MaxQuantityPlaces)
}

// Quantize truncates q to the given number of decimal places.
func Quantize(q decimal.Decimal, places int32) decimal.Decimal {
	if places < 0 {
		places = 0
	}
	return q.Truncate(places)
}

// ParseQuantity parses user input as a non-negative decimal.
func ParseQuantity(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || value.IsNegative() {
		return decimal.Zero, ErrNotANumber
	}
	return value, nil
}
