package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/coldstore/internal/domain/models"
	"github.com/mamadbah2/coldstore/internal/inventory"
	"github.com/mamadbah2/coldstore/internal/repository/mongodb"
)

const dateLayout = "2006-01-02"

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidDate is returned when a delivery date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")
)

// Notifier is told about every committed delivery.
type Notifier interface {
	NotifyDelivery(ctx context.Context, delivery models.Delivery) error
}

// AllocationRequest sets the quantity withdrawn from one bag entry.
type AllocationRequest struct {
	LotID         string `json:"lot_id" binding:"required"`
	Size          string `json:"size" binding:"required"`
	LocationIndex int    `json:"location_index"`
	Quantity      string `json:"quantity" binding:"required"`
}

// SubmitRequest carries the delivery header.
type SubmitRequest struct {
	Date  string `json:"date"`
	Party string `json:"party"`
	Notes string `json:"notes"`
}

// SessionView is a session projected for display.
type SessionView struct {
	ID         string                `json:"id"`
	DeliveryID string                `json:"delivery_id,omitempty"`
	Rows       []inventory.Row       `json:"rows"`
	Review     []inventory.LotReview `json:"review"`
	Total      decimal.Decimal       `json:"total"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// Service composes deliveries in editing sessions and commits them.
type Service struct {
	lots       mongodb.LotRepository
	deliveries mongodb.DeliveryRepository
	sessions   *SessionManager
	sizes      []string
	notifier   Notifier
	logger     *zap.Logger
}

// NewService wires a new withdrawal service instance.
func NewService(lots mongodb.LotRepository, deliveries mongodb.DeliveryRepository, sessions *SessionManager, sizes []string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessions == nil {
		sessions = NewSessionManager()
	}
	return &Service{
		lots:       lots,
		deliveries: deliveries,
		sessions:   sessions,
		sizes:      sizes,
		logger:     logger,
	}
}

// SetNotifier registers a notifier for committed deliveries.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Start opens a session. With a deliveryID the ledger is seeded from the
// stored delivery so it can be edited.
func (s *Service) Start(ctx context.Context, deliveryID string) (SessionView, error) {
	session := Session{ID: uuid.NewString(), Ledger: inventory.NewLedger()}

	if deliveryID != "" {
		previous, err := s.deliveries.GetDelivery(ctx, deliveryID)
		if err != nil {
			return SessionView{}, fmt.Errorf("load delivery %s: %w", deliveryID, err)
		}
		registry, err := s.registry(ctx, allocationLotIDs(previous.Allocations))
		if err != nil {
			return SessionView{}, err
		}
		session.DeliveryID = previous.ID
		session.Previous = &previous
		session.Ledger.Seed(previous, registry)
	}

	session = s.sessions.Put(session)
	s.logger.Info("withdrawal session started",
		zap.String("session_id", session.ID),
		zap.String("delivery_id", session.DeliveryID),
		zap.Int("entries", session.Ledger.Len()),
	)
	return s.view(ctx, session)
}

// View returns the session's rows and review summary.
func (s *Service) View(ctx context.Context, sessionID string) (SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return SessionView{}, ErrSessionNotFound
	}
	return s.view(ctx, session)
}

// SetQuantity validates and stores one allocation. A zero quantity removes it.
func (s *Service) SetQuantity(ctx context.Context, sessionID string, req AllocationRequest) (SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return SessionView{}, ErrSessionNotFound
	}

	lot, err := s.lots.GetLot(ctx, req.LotID)
	if err != nil {
		return SessionView{}, fmt.Errorf("load lot %s: %w", req.LotID, err)
	}

	key := inventory.EncodeKey(lot.ID, req.Size, req.LocationIndex)
	entry, ok := inventory.EntryAt(lot, req.Size, req.LocationIndex)
	if !ok || !lot.Type.IsIncoming() {
		return SessionView{}, &inventory.QuantityError{Err: inventory.ErrUnknownEntry, Key: key, MaxAllowed: decimal.Zero}
	}
	available := entry.CurrentQuantity.Add(inventory.Held(session.Previous, inventory.NewRegistry([]models.Lot{lot}))[key])

	requested, err := inventory.ParseQuantity(req.Quantity)
	if err != nil {
		return SessionView{}, &inventory.QuantityError{Err: err, Key: key, MaxAllowed: available}
	}

	if requested.IsZero() {
		session.Ledger.Remove(key)
	} else {
		quantity, err := inventory.CheckAvailable(key, requested, available)
		if err != nil {
			return SessionView{}, err
		}
		session.Ledger.Set(key, quantity, inventory.Precision(available))
	}

	session = s.sessions.Put(session)
	return s.view(ctx, session)
}

// RemoveAllocation drops a key from the session ledger.
func (s *Service) RemoveAllocation(ctx context.Context, sessionID, key string) (SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return SessionView{}, ErrSessionNotFound
	}
	if _, ok := inventory.DecodeKey(key); !ok {
		return SessionView{}, fmt.Errorf("%q: %w", key, inventory.ErrMalformedKey)
	}

	session.Ledger.Remove(key)
	session = s.sessions.Put(session)
	return s.view(ctx, session)
}

// Discard closes a session without committing anything.
func (s *Service) Discard(sessionID string) error {
	if !s.sessions.Delete(sessionID) {
		return ErrSessionNotFound
	}
	return nil
}

// Submit re-validates the ledger against fresh lot state and commits the
// delivery. Any conflict rejects the whole submission and keeps the session open.
func (s *Service) Submit(ctx context.Context, sessionID string, req SubmitRequest) (models.Delivery, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return models.Delivery{}, ErrSessionNotFound
	}
	if session.Ledger.Len() == 0 {
		return models.Delivery{}, inventory.ErrEmptyLedger
	}

	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = time.Now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return models.Delivery{}, ErrInvalidDate
	}

	ids := ledgerLotIDs(session.Ledger)
	if session.Previous != nil {
		ids = append(ids, allocationLotIDs(session.Previous.Allocations)...)
	}
	fresh, err := s.registry(ctx, ids)
	if err != nil {
		return models.Delivery{}, err
	}

	allocations, err := inventory.PrepareDelivery(session.Ledger, fresh, session.Previous)
	if err != nil {
		return models.Delivery{}, err
	}

	delivery := models.Delivery{
		ID:          session.DeliveryID,
		Date:        date,
		Party:       strings.TrimSpace(req.Party),
		Notes:       strings.TrimSpace(req.Notes),
		Allocations: allocations,
	}
	if delivery.ID == "" {
		delivery.ID = uuid.NewString()
	}

	committed, err := s.deliveries.CommitDelivery(ctx, delivery, session.Previous)
	if err != nil {
		return models.Delivery{}, fmt.Errorf("commit delivery: %w", err)
	}
	s.sessions.Delete(session.ID)

	s.logger.Info("delivery submitted",
		zap.String("session_id", session.ID),
		zap.String("delivery_id", committed.ID),
		zap.Int("number", committed.Number),
		zap.String("total", committed.TotalQuantity().String()),
	)

	if s.notifier != nil {
		if err := s.notifier.NotifyDelivery(ctx, committed); err != nil {
			s.logger.Warn("failed to notify delivery", zap.String("delivery_id", committed.ID), zap.Error(err))
		}
	}
	return committed, nil
}

// ExpireSessions drops sessions idle for longer than ttl.
func (s *Service) ExpireSessions(ttl time.Duration) int {
	dropped := s.sessions.Expire(ttl)
	if dropped > 0 {
		s.logger.Info("expired withdrawal sessions", zap.Int("count", dropped))
	}
	return dropped
}

// ListDeliveries returns recent deliveries, newest first.
func (s *Service) ListDeliveries(ctx context.Context, limit int64) ([]models.Delivery, error) {
	return s.deliveries.ListDeliveries(ctx, limit)
}

// GetDelivery returns a stored delivery.
func (s *Service) GetDelivery(ctx context.Context, id string) (models.Delivery, error) {
	return s.deliveries.GetDelivery(ctx, id)
}

func (s *Service) view(ctx context.Context, session Session) (SessionView, error) {
	registry, err := s.registry(ctx, ledgerLotIDs(session.Ledger))
	if err != nil {
		return SessionView{}, err
	}
	rows := inventory.Rows(session.Ledger, registry, s.sizes)

	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Quantity)
	}
	return SessionView{
		ID:         session.ID,
		DeliveryID: session.DeliveryID,
		Rows:       rows,
		Review:     inventory.Review(rows),
		Total:      total,
		UpdatedAt:  session.UpdatedAt,
	}, nil
}

func (s *Service) registry(ctx context.Context, ids []string) (*inventory.Registry, error) {
	lots, err := s.lots.GetLots(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load lots: %w", err)
	}
	return inventory.NewRegistry(lots), nil
}

func ledgerLotIDs(l inventory.Ledger) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, key := range l.Keys() {
		decoded, ok := inventory.DecodeKey(key)
		if !ok {
			continue
		}
		if _, dup := seen[decoded.LotID]; dup {
			continue
		}
		seen[decoded.LotID] = struct{}{}
		ids = append(ids, decoded.LotID)
	}
	return ids
}

func allocationLotIDs(allocs []models.DeliveryAllocation) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, a := range allocs {
		if _, dup := seen[a.LotID]; dup {
			continue
		}
		seen[a.LotID] = struct{}{}
		ids = append(ids, a.LotID)
	}
	return ids
}
