// Package inventory implements bag-lot allocation and stock aggregation for the
// cold store: allocation keys, the withdrawal ledger, quantity validation,
// lot grouping and filtering, stock summaries and their drill-down breakdowns.
package inventory

import (
	"strconv"
	"strings"
)

// KeyDelimiter separates the parts of an encoded allocation key.
const KeyDelimiter = "::"

// AllocationKey addresses one withdrawable bag entry: a lot, a size and the
// position of that size's location within the lot.
type AllocationKey struct {
	LotID         string `json:"lot_id"`
	Size          string `json:"size"`
	LocationIndex int    `json:"location_index"`
}

// EncodeKey joins the parts as {lotID}::{size}::{locationIndex}.
func EncodeKey(lotID, size string, locationIndex int) string {
	return lotID + KeyDelimiter + size + KeyDelimiter + strconv.Itoa(locationIndex)
}

// String encodes the key.
func (k AllocationKey) String() string {
	return EncodeKey(k.LotID, k.Size, k.LocationIndex)
}

// DecodeKey parses an encoded key. Legacy two-part keys and unparsable indexes
// default to location 0, and sizes containing the delimiter are rejoined from
// the middle segments. A negative index is kept; it resolves to no entry.
// The boolean is false for malformed keys.
func DecodeKey(key string) (AllocationKey, bool) {
	parts := strings.Split(key, KeyDelimiter)
	switch {
	case len(parts) < 2:
		return AllocationKey{}, false
	case len(parts) == 2:
		return AllocationKey{LotID: parts[0], Size: parts[1]}, true
	}

	last := len(parts) - 1
	index, err := strconv.Atoi(parts[last])
	if err != nil {
		index = 0
	}

	return AllocationKey{
		LotID:         parts[0],
		Size:          strings.Join(parts[1:last], KeyDelimiter),
		LocationIndex: index,
	}, true
}
