package mongodb

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/coldstore/internal/domain/models"
)

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func storedLot() models.Lot {
	return models.Lot{
		ID: "lot-7", Variety: "Jyoti", ReceiptNumber: 7, Date: "2026-03-01", Party: "Ramesh",
		Entries: []models.BagSizeEntry{
			{Size: "Ration", InitialQuantity: qty("50"), CurrentQuantity: qty("40"), Location: models.Location{Chamber: "2", Floor: "1", Row: "9"}},
			{Size: "Seed", InitialQuantity: qty("20.5"), CurrentQuantity: qty("20.5"), Location: models.Location{Chamber: "1", Floor: "1", Row: "1"}},
			{Size: "Ration", InitialQuantity: qty("30"), CurrentQuantity: qty("10"), Location: models.Location{Chamber: "1", Floor: "1", Row: "3"}},
		},
	}
}

func TestLotDocument_KeepsDecimalPrecision(t *testing.T) {
	doc, err := toLotDocument(storedLot(), time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "20.5", doc.Entries[1].InitialQuantity.String())

	lot, err := doc.toModel()
	require.NoError(t, err)
	assert.Equal(t, "lot-7", lot.ID)
	assert.Equal(t, "Ramesh", lot.Party)
	require.Len(t, lot.Entries, 3)
	assert.True(t, qty("20.5").Equal(lot.Entries[1].InitialQuantity))
	assert.Equal(t, "9", lot.Entries[0].Location.Row)
}

func TestEntryChanges_NewDelivery(t *testing.T) {
	// Ration index 0 is the chamber 1 stack at position 2.
	delivery := models.Delivery{Allocations: []models.DeliveryAllocation{
		{LotID: "lot-7", Size: "Ration", LocationIndex: 0, Quantity: qty("10")},
		{LotID: "lot-7", Size: "Ration", LocationIndex: 1, Quantity: qty("5")},
	}}

	changes, err := entryChanges([]models.Lot{storedLot()}, delivery, nil)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, 0, changes[0].Position)
	assert.True(t, qty("5").Equal(changes[0].Withdrawn))
	assert.Equal(t, 2, changes[1].Position)
	assert.True(t, qty("10").Equal(changes[1].Withdrawn))
}

func TestEntryChanges_EditNetsPreviousVersion(t *testing.T) {
	previous := &models.Delivery{Allocations: []models.DeliveryAllocation{
		{LotID: "lot-7", Size: "Ration", LocationIndex: 0, Location: models.Location{Chamber: "1", Floor: "1", Row: "3"}, Quantity: qty("20")},
	}}
	// The whole stack comes back and 25 leaves again: a net 5 more.
	delivery := models.Delivery{Allocations: []models.DeliveryAllocation{
		{LotID: "lot-7", Size: "Ration", LocationIndex: 0, Quantity: qty("25")},
	}}

	changes, err := entryChanges([]models.Lot{storedLot()}, delivery, previous)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, 2, changes[0].Position)
	assert.True(t, qty("5").Equal(changes[0].Withdrawn))
}

func TestEntryChanges_UnchangedEditIsNoop(t *testing.T) {
	alloc := models.DeliveryAllocation{LotID: "lot-7", Size: "Seed", LocationIndex: 0, Location: models.Location{Chamber: "1", Floor: "1", Row: "1"}, Quantity: qty("3")}
	previous := &models.Delivery{Allocations: []models.DeliveryAllocation{alloc}}
	delivery := models.Delivery{Allocations: []models.DeliveryAllocation{alloc}}

	lot := storedLot()
	lot.Entries[1].CurrentQuantity = qty("17.5")

	changes, err := entryChanges([]models.Lot{lot}, delivery, previous)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestEntryChanges_Stale(t *testing.T) {
	tests := []struct {
		name  string
		alloc models.DeliveryAllocation
	}{
		{"exceeds current", models.DeliveryAllocation{LotID: "lot-7", Size: "Ration", LocationIndex: 0, Quantity: qty("10.5")}},
		{"unknown lot", models.DeliveryAllocation{LotID: "lot-404", Size: "Ration", Quantity: qty("1")}},
		{"unknown index", models.DeliveryAllocation{LotID: "lot-7", Size: "Seed", LocationIndex: 3, Quantity: qty("1")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delivery := models.Delivery{Allocations: []models.DeliveryAllocation{tt.alloc}}
			_, err := entryChanges([]models.Lot{storedLot()}, delivery, nil)
			assert.ErrorIs(t, err, ErrStaleQuantity)
		})
	}
}

func TestLotIDs(t *testing.T) {
	delivery := models.Delivery{Allocations: []models.DeliveryAllocation{{LotID: "b"}, {LotID: "a"}, {LotID: "b"}}}
	previous := &models.Delivery{Allocations: []models.DeliveryAllocation{{LotID: "c"}, {LotID: "a"}}}
	assert.Equal(t, []string{"a", "b", "c"}, lotIDs(delivery, previous))
}
