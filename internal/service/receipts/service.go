package receipts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/coldstore/internal/domain/models"
	"github.com/mamadbah2/coldstore/internal/inventory"
	"github.com/mamadbah2/coldstore/internal/repository/mongodb"
)

const dateLayout = "2006-01-02"

var (
	// ErrNoEntries is returned for a receipt without bags.
	ErrNoEntries = errors.New("a receipt needs at least one bag entry")
	// ErrInvalidDate is returned when a receipt date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")
)

// EntryRequest is one stack of bags in a receipt.
type EntryRequest struct {
	Size     string `json:"size" binding:"required"`
	Quantity string `json:"quantity" binding:"required"`
	Chamber  string `json:"chamber"`
	Floor    string `json:"floor"`
	Row      string `json:"row"`
}

// RegisterRequest describes produce received from a farmer.
type RegisterRequest struct {
	Variety       string         `json:"variety" binding:"required"`
	Date          string         `json:"date"`
	Party         string         `json:"party"`
	ReceiptNumber int            `json:"receipt_number"`
	Entries       []EntryRequest `json:"entries"`
}

// Service registers incoming lots.
type Service struct {
	repo   mongodb.LotRepository
	logger *zap.Logger
}

// NewService wires a new receipts service instance.
func NewService(repo mongodb.LotRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Register stores a new lot with every entry full.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (models.Lot, error) {
	if len(req.Entries) == 0 {
		return models.Lot{}, ErrNoEntries
	}

	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = time.Now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return models.Lot{}, ErrInvalidDate
	}

	lot := models.Lot{
		ID:            uuid.NewString(),
		Type:          models.RecordIncoming,
		Variety:       strings.TrimSpace(req.Variety),
		ReceiptNumber: req.ReceiptNumber,
		Date:          date,
		Party:         strings.TrimSpace(req.Party),
		Entries:       make([]models.BagSizeEntry, 0, len(req.Entries)),
	}

	for i, e := range req.Entries {
		quantity, err := inventory.ParseQuantity(e.Quantity)
		if err != nil {
			return models.Lot{}, fmt.Errorf("entry %d: %w", i, err)
		}
		quantity = inventory.Quantize(quantity, inventory.MaxQuantityPlaces)
		if !quantity.IsPositive() {
			return models.Lot{}, fmt.Errorf("entry %d: %w", i, inventory.ErrNotPositive)
		}

		lot.Entries = append(lot.Entries, models.BagSizeEntry{
			Size:            strings.TrimSpace(e.Size),
			InitialQuantity: quantity,
			CurrentQuantity: quantity,
			Location: models.Location{
				Chamber: strings.TrimSpace(e.Chamber),
				Floor:   strings.TrimSpace(e.Floor),
				Row:     strings.TrimSpace(e.Row),
			},
		})
	}

	if err := lot.Validate(); err != nil {
		return models.Lot{}, err
	}

	stored, err := s.repo.CreateLot(ctx, lot)
	if err != nil {
		return models.Lot{}, fmt.Errorf("store lot: %w", err)
	}

	s.logger.Info("receipt registered",
		zap.String("lot_id", stored.ID),
		zap.Int("receipt_number", stored.ReceiptNumber),
		zap.String("variety", stored.Variety),
	)
	return stored, nil
}

// Get returns a stored lot.
func (s *Service) Get(ctx context.Context, id string) (models.Lot, error) {
	return s.repo.GetLot(ctx, id)
}
