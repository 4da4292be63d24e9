package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryAllocation binds a withdrawn quantity back to the bag entry it came from.
type DeliveryAllocation struct {
	LotID         string          `json:"lot_id"`
	ReceiptNumber int             `json:"receipt_number"`
	Variety       string          `json:"variety"`
	Size          string          `json:"size"`
	Location      Location        `json:"location"`
	LocationIndex int             `json:"location_index"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// Delivery is an outgoing withdrawal record.
type Delivery struct {
	ID          string               `json:"id"`
	Number      int                  `json:"number"`
	Date        string               `json:"date"`
	Party       string               `json:"party,omitempty"`
	Notes       string               `json:"notes,omitempty"`
	Allocations []DeliveryAllocation `json:"allocations"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// TotalQuantity sums every allocation.
func (d Delivery) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, alloc := range d.Allocations {
		total = total.Add(alloc.Quantity)
	}
	return total
}
