package inventory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/coldstore/internal/domain/models"
)

// Conflict describes one allocation that no longer fits the lot.
type Conflict struct {
	Key           string          `json:"key"`
	LotID         string          `json:"lot_id"`
	ReceiptNumber int             `json:"receipt_number"`
	Size          string          `json:"size"`
	Location      string          `json:"location"`
	Requested     decimal.Decimal `json:"requested"`
	Available     decimal.Decimal `json:"available"`
}

// ConflictError rejects a whole submission; nothing is committed.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		lot := c.LotID
		if c.ReceiptNumber > 0 {
			lot = fmt.Sprintf("%d", c.ReceiptNumber)
		}
		parts = append(parts, fmt.Sprintf("lot %s %s at %s (requested %s, available %s)",
			lot, c.Size, c.Location, c.Requested, c.Available))
	}
	return "allocation exceeds available quantity: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrExceedsAvailable.
func (e *ConflictError) Unwrap() error {
	return ErrExceedsAvailable
}

// Held returns the quantity a stored delivery holds per key in registry. An
// edited delivery gets these quantities back before its new version is checked.
func Held(previous *models.Delivery, registry *Registry) map[string]decimal.Decimal {
	held := make(map[string]decimal.Decimal)
	if previous == nil {
		return held
	}
	for _, alloc := range previous.Allocations {
		if !alloc.Quantity.IsPositive() {
			continue
		}
		key := registry.Bind(alloc).String()
		held[key] = held[key].Add(alloc.Quantity)
	}
	return held
}

// PrepareDelivery re-validates every ledger entry against fresh lot state and
// returns the allocations to submit. previous is the stored version when an
// existing delivery is being edited. Any conflict rejects the whole ledger.
func PrepareDelivery(l Ledger, fresh *Registry, previous *models.Delivery) ([]models.DeliveryAllocation, error) {
	held := Held(previous, fresh)

	var (
		allocations []models.DeliveryAllocation
		conflicts   []Conflict
	)
	for _, key := range l.Keys() {
		quantity := l.entries[key]
		decoded, ok := DecodeKey(key)
		if !ok || !quantity.IsPositive() {
			continue
		}

		// Withdrawal records hold no stock and cannot be drawn from.
		lot, entry, ok := fresh.Resolve(decoded)
		if !ok || !lot.Type.IsIncoming() {
			conflicts = append(conflicts, Conflict{
				Key:           key,
				LotID:         decoded.LotID,
				ReceiptNumber: lot.ReceiptNumber,
				Size:          decoded.Size,
				Location:      "-",
				Requested:     quantity,
				Available:     decimal.Zero,
			})
			continue
		}

		available := entry.CurrentQuantity.Add(held[key])
		if _, err := CheckAvailable(key, quantity, available); err != nil {
			conflicts = append(conflicts, Conflict{
				Key:           key,
				LotID:         lot.ID,
				ReceiptNumber: lot.ReceiptNumber,
				Size:          entry.Size,
				Location:      entry.Location.String(),
				Requested:     quantity,
				Available:     available,
			})
			continue
		}

		allocations = append(allocations, models.DeliveryAllocation{
			LotID:         lot.ID,
			ReceiptNumber: lot.ReceiptNumber,
			Variety:       varietyName(lot),
			Size:          entry.Size,
			Location:      entry.Location,
			LocationIndex: entry.LocationIndex,
			Quantity:      quantity,
		})
	}

	if len(conflicts) > 0 {
		return nil, &ConflictError{Conflicts: conflicts}
	}
	if len(allocations) == 0 {
		return nil, ErrEmptyLedger
	}

	sort.SliceStable(allocations, func(i, j int) bool {
		return allocations[i].ReceiptNumber < allocations[j].ReceiptNumber
	})
	return allocations, nil
}
