package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/coldstore/internal/domain/models"
	"github.com/mamadbah2/coldstore/internal/inventory"
)

const deliveryCounter = "delivery"

// ListDeliveries returns the most recent deliveries, newest first. A limit of
// zero returns all of them.
func (r *MongoDBRepository) ListDeliveries(ctx context.Context, limit int64) ([]models.Delivery, error) {
	opts := options.Find().SetSort(bson.D{{Key: "number", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.db.Collection(deliveriesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []deliveryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode deliveries: %w", err)
	}

	out := make([]models.Delivery, 0, len(docs))
	for _, doc := range docs {
		d, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// GetDelivery returns a delivery by id.
func (r *MongoDBRepository) GetDelivery(ctx context.Context, id string) (models.Delivery, error) {
	var doc deliveryDocument
	err := r.db.Collection(deliveriesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Delivery{}, ErrNotFound
	}
	if err != nil {
		return models.Delivery{}, fmt.Errorf("failed to find delivery %s: %w", id, err)
	}
	return doc.toModel()
}

// CommitDelivery stores delivery and moves bag quantities in one transaction.
// When previous is set its allocations are returned to their entries first.
func (r *MongoDBRepository) CommitDelivery(ctx context.Context, delivery models.Delivery, previous *models.Delivery) (models.Delivery, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return models.Delivery{}, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return r.commitDelivery(sc, delivery, previous)
	})
	if err != nil {
		return models.Delivery{}, err
	}

	committed := result.(models.Delivery)
	r.logger.Info("delivery committed",
		zap.String("delivery_id", committed.ID),
		zap.Int("number", committed.Number),
		zap.Int("allocations", len(committed.Allocations)),
		zap.Bool("edit", previous != nil),
	)
	return committed, nil
}

func (r *MongoDBRepository) commitDelivery(ctx context.Context, delivery models.Delivery, previous *models.Delivery) (models.Delivery, error) {
	lots, err := r.GetLots(ctx, lotIDs(delivery, previous))
	if err != nil {
		return models.Delivery{}, err
	}

	changes, err := entryChanges(lots, delivery, previous)
	if err != nil {
		return models.Delivery{}, err
	}

	coll := r.db.Collection(lotsCollection)
	for _, c := range changes {
		field := fmt.Sprintf("entries.%d.current_quantity", c.Position)
		inc, err := toDecimal128(c.Withdrawn.Neg())
		if err != nil {
			return models.Delivery{}, err
		}

		filter := bson.M{"_id": c.LotID}
		filter[fmt.Sprintf("entries.%d.size", c.Position)] = c.Size
		if c.Withdrawn.IsPositive() {
			floor, err := toDecimal128(c.Withdrawn)
			if err != nil {
				return models.Delivery{}, err
			}
			filter[field] = bson.M{"$gte": floor}
			filter["type"] = bson.M{"$ne": string(models.RecordOutgoing)}
		}

		res, err := coll.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{field: inc}})
		if err != nil {
			return models.Delivery{}, fmt.Errorf("failed to update lot %s: %w", c.LotID, err)
		}
		if res.MatchedCount == 0 {
			return models.Delivery{}, fmt.Errorf("lot %s %s: %w", c.LotID, c.Size, ErrStaleQuantity)
		}
	}

	now := time.Now().UTC()
	if previous != nil {
		delivery.ID = previous.ID
		delivery.Number = previous.Number
		delivery.CreatedAt = previous.CreatedAt
	}
	if delivery.Number == 0 {
		seq, err := r.nextSequence(ctx, deliveryCounter)
		if err != nil {
			return models.Delivery{}, err
		}
		delivery.Number = seq
	}
	if delivery.CreatedAt.IsZero() {
		delivery.CreatedAt = now
	}
	delivery.UpdatedAt = now

	doc, err := toDeliveryDocument(delivery)
	if err != nil {
		return models.Delivery{}, err
	}
	_, err = r.db.Collection(deliveriesCollection).ReplaceOne(ctx,
		bson.M{"_id": doc.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return models.Delivery{}, fmt.Errorf("failed to save delivery: %w", err)
	}
	return delivery, nil
}

// entryChange is the net quantity leaving one stored bag entry.
type entryChange struct {
	LotID     string
	Position  int
	Size      string
	Withdrawn decimal.Decimal
}

// entryChanges nets the previous version's allocations against the new ones
// per stored entry. The resulting quantities must stay within [0, initial].
func entryChanges(lots []models.Lot, delivery models.Delivery, previous *models.Delivery) ([]entryChange, error) {
	registry := inventory.NewRegistry(lots)
	net := make(map[string]*entryChange)

	apply := func(key inventory.AllocationKey, qty decimal.Decimal) bool {
		_, entry, ok := registry.Resolve(key)
		if !ok {
			return false
		}
		id := fmt.Sprintf("%s#%d", key.LotID, entry.Position)
		c, seen := net[id]
		if !seen {
			c = &entryChange{LotID: key.LotID, Position: entry.Position, Size: entry.Size}
			net[id] = c
		}
		c.Withdrawn = c.Withdrawn.Add(qty)
		return true
	}

	if previous != nil {
		for _, alloc := range previous.Allocations {
			// Entries removed from a lot since the delivery was stored have nothing to restore.
			apply(registry.Bind(alloc), alloc.Quantity.Neg())
		}
	}
	for _, alloc := range delivery.Allocations {
		key := inventory.AllocationKey{LotID: alloc.LotID, Size: alloc.Size, LocationIndex: alloc.LocationIndex}
		if !apply(key, alloc.Quantity) {
			return nil, fmt.Errorf("lot %s %s: %w", alloc.LotID, alloc.Size, ErrStaleQuantity)
		}
	}

	out := make([]entryChange, 0, len(net))
	for _, c := range net {
		if c.Withdrawn.IsZero() {
			continue
		}
		lot, _ := registry.Lot(c.LotID)
		entry := lot.Entries[c.Position]
		next := entry.CurrentQuantity.Sub(c.Withdrawn)
		if next.IsNegative() || next.GreaterThan(entry.InitialQuantity) {
			return nil, fmt.Errorf("lot %s %s: %w", c.LotID, c.Size, ErrStaleQuantity)
		}
		out = append(out, *c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LotID != out[j].LotID {
			return out[i].LotID < out[j].LotID
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func lotIDs(delivery models.Delivery, previous *models.Delivery) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(allocs []models.DeliveryAllocation) {
		for _, a := range allocs {
			if _, ok := seen[a.LotID]; ok {
				continue
			}
			seen[a.LotID] = struct{}{}
			ids = append(ids, a.LotID)
		}
	}
	add(delivery.Allocations)
	if previous != nil {
		add(previous.Allocations)
	}
	sort.Strings(ids)
	return ids
}
