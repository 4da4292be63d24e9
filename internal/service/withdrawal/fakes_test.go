package withdrawal

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/coldstore/internal/domain/models"
	"github.com/mamadbah2/coldstore/internal/inventory"
	"github.com/mamadbah2/coldstore/internal/repository/mongodb"
)

// memoryStore applies commits to in-memory lots the same way the Mongo
// transaction does: previous allocations go back, new ones come out.
type memoryStore struct {
	mu         sync.Mutex
	lots       map[string]models.Lot
	deliveries map[string]models.Delivery
	commits    int
	commitErr  error
}

func newMemoryStore(lots ...models.Lot) *memoryStore {
	s := &memoryStore{lots: make(map[string]models.Lot), deliveries: make(map[string]models.Delivery)}
	for _, lot := range lots {
		s.lots[lot.ID] = lot
	}
	return s
}

func (s *memoryStore) ListLots(ctx context.Context) ([]models.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Lot, 0, len(s.lots))
	for _, lot := range s.lots {
		out = append(out, copyLot(lot))
	}
	return out, nil
}

func (s *memoryStore) GetLot(ctx context.Context, id string) (models.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lot, ok := s.lots[id]
	if !ok {
		return models.Lot{}, mongodb.ErrNotFound
	}
	return copyLot(lot), nil
}

func (s *memoryStore) GetLots(ctx context.Context, ids []string) ([]models.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Lot
	for _, id := range ids {
		if lot, ok := s.lots[id]; ok {
			out = append(out, copyLot(lot))
		}
	}
	return out, nil
}

func (s *memoryStore) CreateLot(ctx context.Context, lot models.Lot) (models.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots[lot.ID] = copyLot(lot)
	return lot, nil
}

func (s *memoryStore) ListDeliveries(ctx context.Context, limit int64) ([]models.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Delivery
	for _, d := range s.deliveries {
		out = append(out, d)
	}
	return out, nil
}

func (s *memoryStore) GetDelivery(ctx context.Context, id string) (models.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveries[id]
	if !ok {
		return models.Delivery{}, mongodb.ErrNotFound
	}
	return d, nil
}

func (s *memoryStore) CommitDelivery(ctx context.Context, delivery models.Delivery, previous *models.Delivery) (models.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commitErr != nil {
		return models.Delivery{}, s.commitErr
	}

	var lots []models.Lot
	for _, lot := range s.lots {
		lots = append(lots, copyLot(lot))
	}
	registry := inventory.NewRegistry(lots)

	move := func(key inventory.AllocationKey, q decimal.Decimal) {
		lot, entry, ok := registry.Resolve(key)
		if !ok {
			return
		}
		stored := s.lots[lot.ID]
		stored.Entries[entry.Position].CurrentQuantity = stored.Entries[entry.Position].CurrentQuantity.Sub(q)
	}
	if previous != nil {
		for _, alloc := range previous.Allocations {
			move(registry.Bind(alloc), alloc.Quantity.Neg())
		}
	}
	for _, alloc := range delivery.Allocations {
		move(inventory.AllocationKey{LotID: alloc.LotID, Size: alloc.Size, LocationIndex: alloc.LocationIndex}, alloc.Quantity)
	}

	s.commits++
	if previous != nil {
		delivery.Number = previous.Number
	}
	if delivery.Number == 0 {
		delivery.Number = s.commits
	}
	s.deliveries[delivery.ID] = delivery
	return delivery, nil
}

func (s *memoryStore) current(lotID string, position int) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lots[lotID].Entries[position].CurrentQuantity
}

func copyLot(lot models.Lot) models.Lot {
	lot.Entries = append([]models.BagSizeEntry(nil), lot.Entries...)
	return lot
}

type recordingNotifier struct {
	delivered []models.Delivery
}

func (n *recordingNotifier) NotifyDelivery(ctx context.Context, delivery models.Delivery) error {
	n.delivered = append(n.delivered, delivery)
	return nil
}
