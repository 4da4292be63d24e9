package reporting

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/coldstore/internal/domain/models"
	"github.com/mamadbah2/coldstore/internal/inventory"
)

// FormatQuantity renders a quantity for chat, rounded to one decimal place.
func FormatQuantity(q decimal.Decimal) string {
	return q.Round(inventory.MaxQuantityPlaces).String()
}

// FormatSummary renders a stock table as one line per variety.
func FormatSummary(summary inventory.StockSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stock (%s)\n", summary.Mode)

	if len(summary.Rows) == 0 {
		b.WriteString("No stock recorded yet.")
		return b.String()
	}

	for _, row := range summary.Rows {
		var parts []string
		for i, q := range row.Quantities {
			if q.IsZero() {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s %s", summary.Sizes[i], FormatQuantity(q)))
		}
		if len(parts) == 0 {
			parts = append(parts, "none")
		}
		fmt.Fprintf(&b, "%s: %s | total %s\n", row.Variety, strings.Join(parts, ", "), FormatQuantity(row.Total))
	}
	fmt.Fprintf(&b, "%s: %s", inventory.TotalLabel, FormatQuantity(summary.GrandTotal))
	return b.String()
}

// FormatBreakdown renders the lots behind a cell.
func FormatBreakdown(breakdown inventory.Breakdown) string {
	sel := breakdown.Selector
	variety, size := sel.Variety, sel.Size
	if variety == "" {
		variety = "All varieties"
	}
	if size == "" {
		size = "all sizes"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s, %s (%s)\n", variety, size, sel.Mode)
	if len(breakdown.Entries) == 0 {
		b.WriteString("No lots contribute to this cell.")
		return b.String()
	}
	for _, e := range breakdown.Entries {
		fmt.Fprintf(&b, "#%d %s %s @ %s: %s\n", e.ReceiptNumber, inventory.DateLabel(e.Date), e.Size, e.LocationLabel, FormatQuantity(e.Quantity))
	}
	fmt.Fprintf(&b, "%s: %s", inventory.TotalLabel, FormatQuantity(breakdown.Total))
	return b.String()
}

// FormatLotGroups renders receipts grouped by date.
func FormatLotGroups(groups []inventory.DateGroup) string {
	if len(groups) == 0 {
		return "No lots received yet."
	}

	var b strings.Builder
	for i, group := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s\n", group.Label)
		for _, lot := range group.Lots {
			current := decimal.Zero
			for _, entry := range lot.Entries {
				current = current.Add(entry.CurrentQuantity)
			}
			variety := lot.Variety
			if variety == "" {
				variety = inventory.UnknownVariety
			}
			fmt.Fprintf(&b, "#%d %s: %s bags left\n", lot.ReceiptNumber, variety, FormatQuantity(current))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatDailyReport renders the end-of-day message.
func FormatDailyReport(snapshot models.StockSnapshot, current inventory.StockSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily stock report %s\n", inventory.DateLabel(snapshot.Date.Format(dateLayout)))
	fmt.Fprintf(&b, "Received %s, delivered %s, in store %s\n\n",
		FormatQuantity(snapshot.Initial), FormatQuantity(snapshot.Outgoing), FormatQuantity(snapshot.Current))
	b.WriteString(FormatSummary(current))
	return b.String()
}

// FormatDelivery renders a committed delivery for notification.
func FormatDelivery(delivery models.Delivery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Delivery #%d on %s", delivery.Number, inventory.DateLabel(delivery.Date))
	if delivery.Party != "" {
		fmt.Fprintf(&b, " to %s", delivery.Party)
	}
	b.WriteString("\n")
	for _, a := range delivery.Allocations {
		fmt.Fprintf(&b, "#%d %s %s @ %s: %s\n", a.ReceiptNumber, a.Variety, a.Size, a.Location.String(), FormatQuantity(a.Quantity))
	}
	fmt.Fprintf(&b, "%s: %s", inventory.TotalLabel, FormatQuantity(delivery.TotalQuantity()))
	return b.String()
}
