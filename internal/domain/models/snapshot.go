package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// VarietySnapshot holds the three stock views for one variety.
type VarietySnapshot struct {
	Variety  string          `json:"variety"`
	Current  decimal.Decimal `json:"current"`
	Initial  decimal.Decimal `json:"initial"`
	Outgoing decimal.Decimal `json:"outgoing"`
}

// StockSnapshot is the end-of-day stock position stored for history.
type StockSnapshot struct {
	Date      time.Time         `json:"date"`
	Varieties []VarietySnapshot `json:"varieties"`
	Current   decimal.Decimal   `json:"current"`
	Initial   decimal.Decimal   `json:"initial"`
	Outgoing  decimal.Decimal   `json:"outgoing"`
	CreatedAt time.Time         `json:"created_at"`
}
