package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/coldstore/internal/domain/models"
)

const (
	lotsCollection       = "lots"
	deliveriesCollection = "deliveries"
	countersCollection   = "counters"
	snapshotsCollection  = "stock_snapshots"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrStaleQuantity is returned when a bag entry no longer holds the quantity a
// delivery commit expects.
var ErrStaleQuantity = errors.New("bag quantity changed since it was read")

// LotRepository reads and registers receipt lots.
type LotRepository interface {
	ListLots(ctx context.Context) ([]models.Lot, error)
	GetLot(ctx context.Context, id string) (models.Lot, error)
	GetLots(ctx context.Context, ids []string) ([]models.Lot, error)
	CreateLot(ctx context.Context, lot models.Lot) (models.Lot, error)
}

// DeliveryRepository stores withdrawals. CommitDelivery is the only operation
// that decrements bag quantities.
type DeliveryRepository interface {
	ListDeliveries(ctx context.Context, limit int64) ([]models.Delivery, error)
	GetDelivery(ctx context.Context, id string) (models.Delivery, error)
	CommitDelivery(ctx context.Context, delivery models.Delivery, previous *models.Delivery) (models.Delivery, error)
}

// SnapshotRepository stores end-of-day stock positions.
type SnapshotRepository interface {
	SaveStockSnapshot(ctx context.Context, snapshot models.StockSnapshot) error
}

// MongoDBRepository implements the repositories on MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewMongoDBRepository connects to MongoDB and verifies the connection.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}, nil
}

// EnsureIndexes creates the indexes the queries rely on.
func (r *MongoDBRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(lotsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "receipt_number", Value: 1}}},
		{Keys: bson.D{{Key: "date", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create lot indexes: %w", err)
	}

	_, err = r.db.Collection(deliveriesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "number", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create delivery indexes: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
