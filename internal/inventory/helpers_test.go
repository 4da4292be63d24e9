package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/coldstore/internal/domain/models"
)

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertQty(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, qty(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func entry(size, initial, current string, loc models.Location) models.BagSizeEntry {
	return models.BagSizeEntry{
		Size:            size,
		InitialQuantity: qty(initial),
		CurrentQuantity: qty(current),
		Location:        loc,
	}
}

func at(chamber, floor, row string) models.Location {
	return models.Location{Chamber: chamber, Floor: floor, Row: row}
}

// sampleLots is a small store: two potato varieties, one unnamed lot and a
// withdrawal record that must never count as stock.
func sampleLots() []models.Lot {
	return []models.Lot{
		{
			ID: "lot-3", Variety: "Chipsona", ReceiptNumber: 3, Date: "2026-02-11",
			Entries: []models.BagSizeEntry{
				entry("Ration", "100", "30", at("1", "1", "4")),
				entry("Seed", "40", "40", at("1", "2", "1")),
			},
		},
		{
			ID: "lot-1", Variety: "Jyoti", ReceiptNumber: 1, Date: "2026-02-10",
			Entries: []models.BagSizeEntry{
				entry("Ration", "50", "50", at("2", "1", "1")),
				entry("Goli", "12.5", "2.5", at("2", "1", "2")),
			},
		},
		{
			ID: "lot-2", Variety: "Chipsona", ReceiptNumber: 2, Date: "2026-02-11",
			Entries: []models.BagSizeEntry{
				entry("Ration", "20", "0", at("1", "1", "5")),
				entry("Ration", "10", "10", at("1", "1", "6")),
				entry("Cut-tok", "5", "5", at("1", "3", "1")),
			},
		},
		{
			ID: "lot-4", ReceiptNumber: 4, Date: "2026-02-12",
			Entries: []models.BagSizeEntry{
				entry("Seed", "8", "6", at("3", "1", "1")),
			},
		},
		{
			ID: "out-1", Type: models.RecordOutgoing, Variety: "Jyoti", ReceiptNumber: 9, Date: "2026-02-12",
			Entries: []models.BagSizeEntry{
				entry("Ration", "999", "0", at("2", "1", "1")),
			},
		},
	}
}

var sampleSizes = []string{"Ration", "Seed", "Goli", "Number-12"}
