package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/coldstore/internal/domain/models"
)

// SaveStockSnapshot stores the snapshot, replacing any earlier one for the same date.
func (r *MongoDBRepository) SaveStockSnapshot(ctx context.Context, snapshot models.StockSnapshot) error {
	doc, err := toSnapshotDocument(snapshot)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(snapshotsCollection).ReplaceOne(ctx,
		bson.M{"date": doc.Date},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save stock snapshot: %w", err)
	}
	return nil
}
