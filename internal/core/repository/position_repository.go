package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"locdecoder/internal/core/model"
)

const (
	positionsCollection = "positions"
	operationTimeout    = 5 * time.Second
)

// PositionQuery narrows a device history read. Zero From or To leaves that
// side of the range open. Both bounds are inclusive.
type PositionQuery struct {
	From  time.Time
	To    time.Time
	Limit int // <= 0 means no limit
}

func (q PositionQuery) matches(ts time.Time) bool {
	if !q.From.IsZero() && ts.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && ts.After(q.To) {
		return false
	}
	return true
}

type PositionRepository interface {
	Create(ctx context.Context, position *model.Position) error
	// FindByDeviceID returns the newest positions first.
	FindByDeviceID(ctx context.Context, deviceID string, query PositionQuery) ([]*model.Position, error)
	// FindLatestByDeviceID returns nil, nil when the device has no positions.
	FindLatestByDeviceID(ctx context.Context, deviceID string) (*model.Position, error)
	// FindLatest returns the newest position of every device, ordered by device ID.
	FindLatest(ctx context.Context) ([]*model.Position, error)
}

type MongoPositionRepository struct {
	collection *mongo.Collection
}

func NewMongoPositionRepository(db *mongo.Database) *MongoPositionRepository {
	return &MongoPositionRepository{
		collection: db.Collection(positionsCollection),
	}
}

// EnsureIndexes creates the (deviceId, timestamp desc) index used by the
// device queries.
func (r *MongoPositionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "deviceId", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create positions index: %w", err)
	}
	return nil
}

func (r *MongoPositionRepository) Create(ctx context.Context, position *model.Position) error {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, position); err != nil {
		return fmt.Errorf("insert position: %w", err)
	}
	return nil
}

func deviceFilter(deviceID string, query PositionQuery) bson.M {
	filter := bson.M{"deviceId": deviceID}
	timeRange := bson.M{}
	if !query.From.IsZero() {
		timeRange["$gte"] = query.From
	}
	if !query.To.IsZero() {
		timeRange["$lte"] = query.To
	}
	if len(timeRange) > 0 {
		filter["timestamp"] = timeRange
	}
	return filter
}

func (r *MongoPositionRepository) FindByDeviceID(ctx context.Context, deviceID string, query PositionQuery) ([]*model.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if query.Limit > 0 {
		opts.SetLimit(int64(query.Limit))
	}

	cursor, err := r.collection.Find(ctx, deviceFilter(deviceID, query), opts)
	if err != nil {
		return nil, fmt.Errorf("find positions: %w", err)
	}
	defer cursor.Close(ctx)

	var positions []*model.Position
	if err = cursor.All(ctx, &positions); err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	return positions, nil
}

func (r *MongoPositionRepository) FindLatestByDeviceID(ctx context.Context, deviceID string) (*model.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	var position model.Position
	err := r.collection.FindOne(ctx, bson.M{"deviceId": deviceID}, opts).Decode(&position)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest position: %w", err)
	}
	return &position, nil
}

func (r *MongoPositionRepository) FindLatest(ctx context.Context) ([]*model.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "deviceId", Value: 1}, {Key: "timestamp", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$deviceId"},
			{Key: "latest", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$latest"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "deviceId", Value: 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate latest positions: %w", err)
	}
	defer cursor.Close(ctx)

	var positions []*model.Position
	if err = cursor.All(ctx, &positions); err != nil {
		return nil, fmt.Errorf("read latest positions: %w", err)
	}
	return positions, nil
}
