package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type counterDocument struct {
	ID  string `bson:"_id"`
	Seq int    `bson:"seq"`
}

// nextSequence increments the named counter and returns the new value.
func (r *MongoDBRepository) nextSequence(ctx context.Context, name string) (int, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc counterDocument
	err := r.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to advance %s counter: %w", name, err)
	}
	return doc.Seq, nil
}
