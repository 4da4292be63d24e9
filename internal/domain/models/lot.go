package models

import (
	"cmp"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RecordType distinguishes receipts from withdrawal records in the lot feed.
type RecordType string

const (
	RecordIncoming RecordType = "incoming"
	RecordOutgoing RecordType = "outgoing"
)

// IsIncoming reports whether the record is a receipt. Untyped records are receipts.
func (t RecordType) IsIncoming() bool {
	return t == "" || t == RecordIncoming
}

// Location is the physical address of a stack of bags inside the store.
type Location struct {
	Chamber string `json:"chamber"`
	Floor   string `json:"floor"`
	Row     string `json:"row"`
}

// IsZero reports whether no part of the address is set.
func (l Location) IsZero() bool {
	return l.Chamber == "" && l.Floor == "" && l.Row == ""
}

// Compare orders locations by chamber, then floor, then row.
func (l Location) Compare(other Location) int {
	if c := cmp.Compare(l.Chamber, other.Chamber); c != 0 {
		return c
	}
	if c := cmp.Compare(l.Floor, other.Floor); c != 0 {
		return c
	}
	return cmp.Compare(l.Row, other.Row)
}

// String renders the address for humans, e.g. "Chamber 2, Floor 1, Row 14".
func (l Location) String() string {
	parts := make([]string, 0, 3)
	if l.Chamber != "" {
		parts = append(parts, "Chamber "+l.Chamber)
	}
	if l.Floor != "" {
		parts = append(parts, "Floor "+l.Floor)
	}
	if l.Row != "" {
		parts = append(parts, "Row "+l.Row)
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

// BagSizeEntry is a quantity of one produce size stored at one location within a lot.
type BagSizeEntry struct {
	Size            string          `json:"size"`
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
	Location        Location        `json:"location"`
}

// Outgoing is the quantity withdrawn to date, never negative.
func (e BagSizeEntry) Outgoing() decimal.Decimal {
	out := e.InitialQuantity.Sub(e.CurrentQuantity)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// Validate checks 0 <= current <= initial.
func (e BagSizeEntry) Validate() error {
	if strings.TrimSpace(e.Size) == "" {
		return errors.New("size cannot be empty")
	}
	if e.InitialQuantity.IsNegative() {
		return fmt.Errorf("initial quantity cannot be negative, got %s", e.InitialQuantity)
	}
	if e.CurrentQuantity.IsNegative() {
		return fmt.Errorf("current quantity cannot be negative, got %s", e.CurrentQuantity)
	}
	if e.CurrentQuantity.GreaterThan(e.InitialQuantity) {
		return fmt.Errorf("current quantity %s exceeds initial quantity %s", e.CurrentQuantity, e.InitialQuantity)
	}
	return nil
}

// Lot is one incoming receipt of produce.
type Lot struct {
	ID            string         `json:"id"`
	Type          RecordType     `json:"type,omitempty"`
	Variety       string         `json:"variety"`
	ReceiptNumber int            `json:"receipt_number"`
	Date          string         `json:"date"`
	Party         string         `json:"party,omitempty"`
	Entries       []BagSizeEntry `json:"entries"`
}

// Validate rejects records that would break the engine's invariants.
func (l Lot) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return errors.New("lot id cannot be empty")
	}
	if l.ReceiptNumber < 0 {
		return fmt.Errorf("receipt number cannot be negative, got %d", l.ReceiptNumber)
	}
	for i, entry := range l.Entries {
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("lot %s entry %d: %w", l.ID, i, err)
		}
	}
	return nil
}
