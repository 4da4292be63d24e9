package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/coldstore/internal/domain/models"
)

const receiptCounter = "receipt"

// ListLots returns every stored lot ordered by receipt number.
func (r *MongoDBRepository) ListLots(ctx context.Context) ([]models.Lot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "receipt_number", Value: 1}})
	return r.findLots(ctx, bson.M{}, opts)
}

// GetLots returns the lots with the given ids. Missing ids are skipped.
func (r *MongoDBRepository) GetLots(ctx context.Context, ids []string) ([]models.Lot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.findLots(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// GetLot returns a single lot by id.
func (r *MongoDBRepository) GetLot(ctx context.Context, id string) (models.Lot, error) {
	var doc lotDocument
	err := r.db.Collection(lotsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Lot{}, ErrNotFound
	}
	if err != nil {
		return models.Lot{}, fmt.Errorf("failed to find lot %s: %w", id, err)
	}
	return doc.toModel()
}

// CreateLot stores a new lot, assigning the next receipt number when none is set.
func (r *MongoDBRepository) CreateLot(ctx context.Context, lot models.Lot) (models.Lot, error) {
	if lot.ReceiptNumber == 0 {
		seq, err := r.nextSequence(ctx, receiptCounter)
		if err != nil {
			return models.Lot{}, err
		}
		lot.ReceiptNumber = seq
	}

	doc, err := toLotDocument(lot, time.Now().UTC())
	if err != nil {
		return models.Lot{}, err
	}
	if _, err := r.db.Collection(lotsCollection).InsertOne(ctx, doc); err != nil {
		return models.Lot{}, fmt.Errorf("failed to insert lot: %w", err)
	}

	r.logger.Info("lot stored",
		zap.String("lot_id", lot.ID),
		zap.Int("receipt_number", lot.ReceiptNumber),
		zap.Int("entries", len(lot.Entries)),
	)
	return lot, nil
}

func (r *MongoDBRepository) findLots(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Lot, error) {
	cursor, err := r.db.Collection(lotsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []lotDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode lots: %w", err)
	}

	lots := make([]models.Lot, 0, len(docs))
	for _, doc := range docs {
		lot, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, nil
}
