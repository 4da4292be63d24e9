package inventory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/coldstore/internal/domain/models"
)

// UnknownVariety buckets lots without a variety name.
const UnknownVariety = "Unknown"

// Mode selects which bag quantity a summary counts.
type Mode string

const (
	ModeCurrent  Mode = "current"
	ModeInitial  Mode = "initial"
	ModeOutgoing Mode = "outgoing"
)

// ParseMode accepts current, initial or outgoing; empty means current.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeCurrent:
		return ModeCurrent, nil
	case ModeInitial:
		return ModeInitial, nil
	case ModeOutgoing:
		return ModeOutgoing, nil
	}
	return "", fmt.Errorf("unknown stock mode %q", value)
}

// Quantity returns the entry's quantity under the mode. Outgoing is derived
// from initial and current, never stored.
func (m Mode) Quantity(entry models.BagSizeEntry) decimal.Decimal {
	switch m {
	case ModeInitial:
		return entry.InitialQuantity
	case ModeOutgoing:
		return entry.Outgoing()
	default:
		return entry.CurrentQuantity
	}
}

// StockRow holds one variety's per-size totals, aligned with StockSummary.Sizes.
type StockRow struct {
	Variety    string            `json:"variety"`
	Quantities []decimal.Decimal `json:"quantities"`
	Total      decimal.Decimal   `json:"total"`
}

// StockSummary is the variety by size table for one mode.
type StockSummary struct {
	Mode         Mode              `json:"mode"`
	Sizes        []string          `json:"sizes"`
	Rows         []StockRow        `json:"rows"`
	ColumnTotals []decimal.Decimal `json:"column_totals"`
	GrandTotal   decimal.Decimal   `json:"grand_total"`
}

// Quantity returns the cell for variety and size, zero when absent.
func (s StockSummary) Quantity(variety, size string) decimal.Decimal {
	col := indexOf(s.Sizes, size)
	if col < 0 {
		return decimal.Zero
	}
	for _, row := range s.Rows {
		if row.Variety == variety {
			return row.Quantities[col]
		}
	}
	return decimal.Zero
}

// Aggregate sums receipt lots per variety and size. Sizes are the caller's
// columns in display order; sizes outside them are not counted. Varieties
// are sorted by name. No lots yields an empty table, not an error.
func Aggregate(lots []models.Lot, sizes []string, mode Mode) StockSummary {
	columns := uniqueSizes(sizes)
	col := make(map[string]int, len(columns))
	for i, size := range columns {
		col[size] = i
	}

	summary := StockSummary{
		Mode:         mode,
		Sizes:        columns,
		Rows:         []StockRow{},
		ColumnTotals: zeros(len(columns)),
		GrandTotal:   decimal.Zero,
	}

	byVariety := groupByVariety(lots)
	for _, variety := range sortedVarieties(byVariety) {
		row := StockRow{Variety: variety, Quantities: zeros(len(columns)), Total: decimal.Zero}
		for _, lot := range byVariety[variety] {
			for _, entry := range lot.Entries {
				i, ok := col[entry.Size]
				if !ok {
					continue
				}
				row.Quantities[i] = row.Quantities[i].Add(mode.Quantity(entry))
			}
		}
		for i, q := range row.Quantities {
			row.Total = row.Total.Add(q)
			summary.ColumnTotals[i] = summary.ColumnTotals[i].Add(q)
		}
		summary.GrandTotal = summary.GrandTotal.Add(row.Total)
		summary.Rows = append(summary.Rows, row)
	}
	return summary
}

func varietyName(lot models.Lot) string {
	if name := strings.TrimSpace(lot.Variety); name != "" {
		return name
	}
	return UnknownVariety
}

// groupByVariety keeps receipt lots only; withdrawals never contribute directly.
func groupByVariety(lots []models.Lot) map[string][]models.Lot {
	out := make(map[string][]models.Lot)
	for _, lot := range lots {
		if !lot.Type.IsIncoming() {
			continue
		}
		name := varietyName(lot)
		out[name] = append(out[name], lot)
	}
	return out
}

func sortedVarieties(byVariety map[string][]models.Lot) []string {
	names := make([]string, 0, len(byVariety))
	for name := range byVariety {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func uniqueSizes(sizes []string) []string {
	seen := make(map[string]struct{}, len(sizes))
	out := make([]string, 0, len(sizes))
	for _, size := range sizes {
		if _, ok := seen[size]; ok {
			continue
		}
		seen[size] = struct{}{}
		out = append(out, size)
	}
	return out
}

func zeros(n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.Zero
	}
	return out
}

func indexOf(values []string, want string) int {
	for i, v := range values {
		if v == want {
			return i
		}
	}
	return -1
}
