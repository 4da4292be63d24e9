package mongodb

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/coldstore/internal/domain/models"
)

// Quantities are stored as Decimal128 so $inc stays exact.

type locationDocument struct {
	Chamber string `bson:"chamber"`
	Floor   string `bson:"floor"`
	Row     string `bson:"row"`
}

type entryDocument struct {
	Size            string               `bson:"size"`
	InitialQuantity primitive.Decimal128 `bson:"initial_quantity"`
	CurrentQuantity primitive.Decimal128 `bson:"current_quantity"`
	Location        locationDocument     `bson:"location"`
}

type lotDocument struct {
	ID            string          `bson:"_id"`
	Type          string          `bson:"type,omitempty"`
	Variety       string          `bson:"variety"`
	ReceiptNumber int             `bson:"receipt_number"`
	Date          string          `bson:"date"`
	Party         string          `bson:"party,omitempty"`
	Entries       []entryDocument `bson:"entries"`
	CreatedAt     time.Time       `bson:"created_at"`
}

type allocationDocument struct {
	LotID         string               `bson:"lot_id"`
	ReceiptNumber int                  `bson:"receipt_number"`
	Variety       string               `bson:"variety"`
	Size          string               `bson:"size"`
	Location      locationDocument     `bson:"location"`
	LocationIndex int                  `bson:"location_index"`
	Quantity      primitive.Decimal128 `bson:"quantity"`
}

type deliveryDocument struct {
	ID          string               `bson:"_id"`
	Number      int                  `bson:"number"`
	Date        string               `bson:"date"`
	Party       string               `bson:"party,omitempty"`
	Notes       string               `bson:"notes,omitempty"`
	Allocations []allocationDocument `bson:"allocations"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

type varietySnapshotDocument struct {
	Variety  string               `bson:"variety"`
	Current  primitive.Decimal128 `bson:"current"`
	Initial  primitive.Decimal128 `bson:"initial"`
	Outgoing primitive.Decimal128 `bson:"outgoing"`
}

type snapshotDocument struct {
	Date      time.Time                 `bson:"date"`
	Varieties []varietySnapshotDocument `bson:"varieties"`
	Current   primitive.Decimal128      `bson:"current"`
	Initial   primitive.Decimal128      `bson:"initial"`
	Outgoing  primitive.Decimal128      `bson:"outgoing"`
	CreatedAt time.Time                 `bson:"created_at"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	out, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode quantity %s: %w", d, err)
	}
	return out, nil
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	out, err := decimal.NewFromString(d.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode quantity %s: %w", d, err)
	}
	return out, nil
}

func toLocationDocument(l models.Location) locationDocument {
	return locationDocument{Chamber: l.Chamber, Floor: l.Floor, Row: l.Row}
}

func (d locationDocument) toModel() models.Location {
	return models.Location{Chamber: d.Chamber, Floor: d.Floor, Row: d.Row}
}

func toLotDocument(lot models.Lot, createdAt time.Time) (lotDocument, error) {
	doc := lotDocument{
		ID:            lot.ID,
		Type:          string(lot.Type),
		Variety:       lot.Variety,
		ReceiptNumber: lot.ReceiptNumber,
		Date:          lot.Date,
		Party:         lot.Party,
		Entries:       make([]entryDocument, 0, len(lot.Entries)),
		CreatedAt:     createdAt,
	}
	for _, e := range lot.Entries {
		initial, err := toDecimal128(e.InitialQuantity)
		if err != nil {
			return lotDocument{}, err
		}
		current, err := toDecimal128(e.CurrentQuantity)
		if err != nil {
			return lotDocument{}, err
		}
		doc.Entries = append(doc.Entries, entryDocument{
			Size:            e.Size,
			InitialQuantity: initial,
			CurrentQuantity: current,
			Location:        toLocationDocument(e.Location),
		})
	}
	return doc, nil
}

func (d lotDocument) toModel() (models.Lot, error) {
	lot := models.Lot{
		ID:            d.ID,
		Type:          models.RecordType(d.Type),
		Variety:       d.Variety,
		ReceiptNumber: d.ReceiptNumber,
		Date:          d.Date,
		Party:         d.Party,
		Entries:       make([]models.BagSizeEntry, 0, len(d.Entries)),
	}
	for _, e := range d.Entries {
		initial, err := fromDecimal128(e.InitialQuantity)
		if err != nil {
			return models.Lot{}, fmt.Errorf("lot %s: %w", d.ID, err)
		}
		current, err := fromDecimal128(e.CurrentQuantity)
		if err != nil {
			return models.Lot{}, fmt.Errorf("lot %s: %w", d.ID, err)
		}
		lot.Entries = append(lot.Entries, models.BagSizeEntry{
			Size:            e.Size,
			InitialQuantity: initial,
			CurrentQuantity: current,
			Location:        e.Location.toModel(),
		})
	}
	return lot, nil
}

func toDeliveryDocument(d models.Delivery) (deliveryDocument, error) {
	doc := deliveryDocument{
		ID:          d.ID,
		Number:      d.Number,
		Date:        d.Date,
		Party:       d.Party,
		Notes:       d.Notes,
		Allocations: make([]allocationDocument, 0, len(d.Allocations)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for _, a := range d.Allocations {
		q, err := toDecimal128(a.Quantity)
		if err != nil {
			return deliveryDocument{}, err
		}
		doc.Allocations = append(doc.Allocations, allocationDocument{
			LotID:         a.LotID,
			ReceiptNumber: a.ReceiptNumber,
			Variety:       a.Variety,
			Size:          a.Size,
			Location:      toLocationDocument(a.Location),
			LocationIndex: a.LocationIndex,
			Quantity:      q,
		})
	}
	return doc, nil
}

func (d deliveryDocument) toModel() (models.Delivery, error) {
	out := models.Delivery{
		ID:          d.ID,
		Number:      d.Number,
		Date:        d.Date,
		Party:       d.Party,
		Notes:       d.Notes,
		Allocations: make([]models.DeliveryAllocation, 0, len(d.Allocations)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for _, a := range d.Allocations {
		q, err := fromDecimal128(a.Quantity)
		if err != nil {
			return models.Delivery{}, fmt.Errorf("delivery %s: %w", d.ID, err)
		}
		out.Allocations = append(out.Allocations, models.DeliveryAllocation{
			LotID:         a.LotID,
			ReceiptNumber: a.ReceiptNumber,
			Variety:       a.Variety,
			Size:          a.Size,
			Location:      a.Location.toModel(),
			LocationIndex: a.LocationIndex,
			Quantity:      q,
		})
	}
	return out, nil
}

func toSnapshotDocument(s models.StockSnapshot) (snapshotDocument, error) {
	doc := snapshotDocument{Date: s.Date, CreatedAt: s.CreatedAt}
	var err error
	if doc.Current, err = toDecimal128(s.Current); err != nil {
		return snapshotDocument{}, err
	}
	if doc.Initial, err = toDecimal128(s.Initial); err != nil {
		return snapshotDocument{}, err
	}
	if doc.Outgoing, err = toDecimal128(s.Outgoing); err != nil {
		return snapshotDocument{}, err
	}
	for _, v := range s.Varieties {
		vd := varietySnapshotDocument{Variety: v.Variety}
		if vd.Current, err = toDecimal128(v.Current); err != nil {
			return snapshotDocument{}, err
		}
		if vd.Initial, err = toDecimal128(v.Initial); err != nil {
			return snapshotDocument{}, err
		}
		if vd.Outgoing, err = toDecimal128(v.Outgoing); err != nil {
			return snapshotDocument{}, err
		}
		doc.Varieties = append(doc.Varieties, vd)
	}
	return doc, nil
}
