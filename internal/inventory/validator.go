package inventory

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/coldstore/internal/domain/models"
)

var (
	// ErrNotANumber indicates the input is not a non-negative number.
	ErrNotANumber = errors.New("not a number")
	// ErrNotPositive indicates a zero quantity on a path that requires a positive one.
	ErrNotPositive = errors.New("must be greater than zero")
	// ErrExceedsAvailable indicates the request is above the remaining quantity.
	ErrExceedsAvailable = errors.New("exceeds available quantity")
	// ErrUnknownEntry indicates no bag entry exists at the requested size and location.
	ErrUnknownEntry = errors.New("no bags of this size at this location")
	// ErrMalformedKey indicates an allocation key that cannot be decoded.
	ErrMalformedKey = errors.New("malformed allocation key")
	// ErrEmptyLedger indicates a submission without any allocation.
	ErrEmptyLedger = errors.New("no allocations to submit")
)

// QuantityError is a field-level validation failure for one allocation key.
type QuantityError struct {
	Err        error
	Key        string
	MaxAllowed decimal.Decimal
}

func (e *QuantityError) Error() string {
	if errors.Is(e.Err, ErrExceedsAvailable) || errors.Is(e.Err, ErrUnknownEntry) {
		return fmt.Sprintf("%s: %v (max %s)", e.Key, e.Err, e.MaxAllowed)
	}
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

func (e *QuantityError) Unwrap() error {
	return e.Err
}

// CheckAvailable validates a parsed request against the quantity available for
// key. On success it returns the request clamped to available.
func CheckAvailable(key string, requested, available decimal.Decimal) (decimal.Decimal, error) {
	if requested.IsNegative() {
		return decimal.Zero, &QuantityError{Err: ErrNotANumber, Key: key, MaxAllowed: available}
	}
	if !requested.IsPositive() {
		return decimal.Zero, &QuantityError{Err: ErrNotPositive, Key: key, MaxAllowed: available}
	}
	if requested.GreaterThan(available) {
		return decimal.Zero, &QuantityError{Err: ErrExceedsAvailable, Key: key, MaxAllowed: available}
	}
	return decimal.Min(requested, available), nil
}

// ValidateQuantity checks requested against the lot's current quantity for
// (size, locationIndex).
func ValidateQuantity(lot models.Lot, size string, locationIndex int, requested decimal.Decimal) (decimal.Decimal, error) {
	key := EncodeKey(lot.ID, size, locationIndex)
	entry, ok := EntryAt(lot, size, locationIndex)
	if !ok {
		return decimal.Zero, &QuantityError{Err: ErrUnknownEntry, Key: key, MaxAllowed: decimal.Zero}
	}
	return CheckAvailable(key, requested, entry.CurrentQuantity)
}

// Validate parses raw user input and checks it with ValidateQuantity. Callers
// run it again at submission against the freshest lot state.
func Validate(lot models.Lot, size string, locationIndex int, raw string) (decimal.Decimal, error) {
	requested, err := ParseQuantity(raw)
	if err != nil {
		key := EncodeKey(lot.ID, size, locationIndex)
		maxAllowed := decimal.Zero
		if entry, ok := EntryAt(lot, size, locationIndex); ok {
			maxAllowed = entry.CurrentQuantity
		}
		return decimal.Zero, &QuantityError{Err: err, Key: key, MaxAllowed: maxAllowed}
	}
	return ValidateQuantity(lot, size, locationIndex, requested)
}
