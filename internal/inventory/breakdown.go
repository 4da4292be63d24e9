package inventory

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/coldstore/internal/domain/models"
)

// TotalLabel names the total row and column of a stock table.
const TotalLabel = "Total"

// Selector identifies a clicked cell of a stock table. With IsTotal set, a
// Variety or Size that is empty or "Total" leaves that axis unconstrained.
type Selector struct {
	Variety string `json:"variety"`
	Size    string `json:"size"`
	IsTotal bool   `json:"is_total"`
	Mode    Mode   `json:"mode"`
}

// BreakdownEntry is one lot's contribution to a cell.
type BreakdownEntry struct {
	LotID         string          `json:"lot_id"`
	ReceiptNumber int             `json:"receipt_number"`
	Variety       string          `json:"variety"`
	Date          string          `json:"date"`
	Size          string          `json:"size"`
	Location      models.Location `json:"location"`
	LocationLabel string          `json:"location_label"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// Breakdown lists the lots behind a cell and their sum.
type Breakdown struct {
	Selector Selector         `json:"selector"`
	Entries  []BreakdownEntry `json:"entries"`
	Total    decimal.Decimal  `json:"total"`
}

// Resolve reconstructs the contributions behind a cell of Aggregate(lots, sizes, sel.Mode).
// Only positive contributions are listed, ordered by receipt number. A nil
// sizes slice admits every size.
func Resolve(lots []models.Lot, sizes []string, sel Selector) Breakdown {
	if sel.Mode == "" {
		sel.Mode = ModeCurrent
	}

	variety, size := sel.Variety, sel.Size
	if sel.IsTotal {
		if isTotalLabel(variety) {
			variety = ""
		}
		if isTotalLabel(size) {
			size = ""
		}
	}

	var columns map[string]struct{}
	if sizes != nil {
		columns = make(map[string]struct{}, len(sizes))
		for _, s := range sizes {
			columns[s] = struct{}{}
		}
	}

	byVariety := groupByVariety(lots)
	varieties := []string{variety}
	if variety == "" {
		varieties = sortedVarieties(byVariety)
	}

	entries := []BreakdownEntry{}
	for _, name := range varieties {
		for _, lot := range byVariety[name] {
			for _, entry := range IndexEntries(lot) {
				if size != "" && entry.Size != size {
					continue
				}
				if columns != nil {
					if _, ok := columns[entry.Size]; !ok {
						continue
					}
				}
				quantity := sel.Mode.Quantity(entry.BagSizeEntry)
				if !quantity.IsPositive() {
					continue
				}
				entries = append(entries, BreakdownEntry{
					LotID:         lot.ID,
					ReceiptNumber: lot.ReceiptNumber,
					Variety:       name,
					Date:          lot.Date,
					Size:          entry.Size,
					Location:      entry.Location,
					LocationLabel: entry.Location.String(),
					Quantity:      quantity,
				})
			}
		}
	}

	order := newSizeOrder(sizes)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].ReceiptNumber != entries[j].ReceiptNumber {
			return entries[i].ReceiptNumber < entries[j].ReceiptNumber
		}
		return order.compare(entries[i].Size, entries[j].Size) < 0
	})

	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Quantity)
	}
	return Breakdown{Selector: sel, Entries: entries, Total: total}
}

func isTotalLabel(value string) bool {
	return value == "" || strings.EqualFold(value, TotalLabel)
}
