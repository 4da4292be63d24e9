package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/coldstore/internal/domain/models"
)

// Row is one ledger entry projected for display.
type Row struct {
	Key           string          `json:"key"`
	LotID         string          `json:"lot_id"`
	ReceiptNumber int             `json:"receipt_number"`
	Variety       string          `json:"variety"`
	Size          string          `json:"size"`
	LocationIndex int             `json:"location_index"`
	Location      models.Location `json:"location"`
	LocationLabel string          `json:"location_label"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// Rows projects the ledger into display rows ordered by receipt number, then by
// the size's position in sizes, then by location index. Keys that do not
// decode or resolve against registry are left out.
func Rows(l Ledger, registry *Registry, sizes []string) []Row {
	rows := make([]Row, 0, l.Len())
	for key, quantity := range l.entries {
		if !quantity.IsPositive() {
			continue
		}
		decoded, ok := DecodeKey(key)
		if !ok {
			continue
		}
		lot, entry, ok := registry.Resolve(decoded)
		if !ok {
			continue
		}
		rows = append(rows, Row{
			Key:           key,
			LotID:         lot.ID,
			ReceiptNumber: lot.ReceiptNumber,
			Variety:       varietyName(lot),
			Size:          entry.Size,
			LocationIndex: entry.LocationIndex,
			Location:      entry.Location,
			LocationLabel: entry.Location.String(),
			Quantity:      quantity,
		})
	}

	order := newSizeOrder(sizes)
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.ReceiptNumber != b.ReceiptNumber {
			return a.ReceiptNumber < b.ReceiptNumber
		}
		if a.LotID != b.LotID {
			return a.LotID < b.LotID
		}
		if c := order.compare(a.Size, b.Size); c != 0 {
			return c < 0
		}
		return a.LocationIndex < b.LocationIndex
	})
	return rows
}

// LotReview groups a lot's rows for the review-before-submit summary.
type LotReview struct {
	LotID         string          `json:"lot_id"`
	ReceiptNumber int             `json:"receipt_number"`
	Variety       string          `json:"variety"`
	Rows          []Row           `json:"rows"`
	Total         decimal.Decimal `json:"total"`
}

// Review nests already ordered rows under their lot.
func Review(rows []Row) []LotReview {
	var out []LotReview
	for _, row := range rows {
		if n := len(out); n > 0 && out[n-1].LotID == row.LotID {
			out[n-1].Rows = append(out[n-1].Rows, row)
			out[n-1].Total = out[n-1].Total.Add(row.Quantity)
			continue
		}
		out = append(out, LotReview{
			LotID:         row.LotID,
			ReceiptNumber: row.ReceiptNumber,
			Variety:       row.Variety,
			Rows:          []Row{row},
			Total:         row.Quantity,
		})
	}
	return out
}

// sizeOrder ranks size names by their position in the configured columns;
// unknown sizes sort after them by name.
type sizeOrder map[string]int

func newSizeOrder(sizes []string) sizeOrder {
	order := make(sizeOrder, len(sizes))
	for i, size := range sizes {
		if _, ok := order[size]; !ok {
			order[size] = i
		}
	}
	return order
}

func (o sizeOrder) compare(a, b string) int {
	ra, oka := o[a]
	rb, okb := o[b]
	switch {
	case oka && okb:
		return ra - rb
	case oka:
		return -1
	case okb:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
