package inventory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_SplitLocation(t *testing.T) {
	lot := splitLot()

	got, err := Validate(lot, "50kg", 0, "20")
	require.NoError(t, err)
	assertQty(t, "20", got)

	got, err = Validate(lot, "50kg", 1, "15")
	require.NoError(t, err)
	assertQty(t, "15", got)

	_, err = Validate(lot, "50kg", 0, "21")
	require.ErrorIs(t, err, ErrExceedsAvailable)
	var qe *QuantityError
	require.True(t, errors.As(err, &qe))
	assertQty(t, "20", qe.MaxAllowed)
	assert.Equal(t, "L7::50kg::0", qe.Key)
	assert.Equal(t, "L7::50kg::0: exceeds available quantity (max 20)", err.Error())
}

func TestValidate_Errors(t *testing.T) {
	lot := splitLot()

	testCases := []struct {
		name string
		size string
		raw  string
		want error
	}{
		{"letters", "50kg", "abc", ErrNotANumber},
		{"negative", "50kg", "-3", ErrNotANumber},
		{"empty", "50kg", "", ErrNotANumber},
		{"zero", "50kg", "0", ErrNotPositive},
		{"too many", "50kg", "20.5", ErrExceedsAvailable},
		{"unknown size", "10kg", "1", ErrUnknownEntry},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Validate(lot, tc.size, 0, tc.raw)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCheckAvailable_Clamps(t *testing.T) {
	got, err := CheckAvailable("k", qty("2.5"), qty("2.5"))
	require.NoError(t, err)
	assertQty(t, "2.5", got)

	_, err = CheckAvailable("k", qty("-1"), qty("3"))
	assert.ErrorIs(t, err, ErrNotANumber)
}
