package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prodtrack-platform/tracking-service/internal/domain"
	"github.com/prodtrack-platform/tracking-service/pkg/mongodb"
)

const movementsCollection = "movements"

// MovementRepository stores the append-only movement audit trail
type MovementRepository struct {
	collection *mongo.Collection
}

// NewMovementRepository creates a new MovementRepository
func NewMovementRepository(db *mongo.Database) *MovementRepository {
	repo := &MovementRepository{collection: db.Collection(movementsCollection)}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *MovementRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "itemId", Value: 1}, {Key: "movedAt", Value: -1}}},
		{Keys: bson.D{{Key: "movedAt", Value: -1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *MovementRepository) Record(ctx context.Context, record *domain.MovementRecord) error {
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to record movement: %w", err)
	}
	return nil
}

func (r *MovementRepository) FindByItemID(ctx context.Context, itemID string, limit int64) ([]*domain.MovementRecord, error) {
	filter := bson.M{"itemId": itemID}
	return r.find(ctx, filter, limit)
}

func (r *MovementRepository) FindRecent(ctx context.Context, limit int64) ([]*domain.MovementRecord, error) {
	return r.find(ctx, bson.M{}, limit)
}

func (r *MovementRepository) find(ctx context.Context, filter bson.M, limit int64) ([]*domain.MovementRecord, error) {
	opts := options.Find().
		SetSort(mongodb.SortDescending("movedAt")).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find movements: %w", err)
	}
	defer cursor.Close(ctx)

	var movements []*domain.MovementRecord
	if err := cursor.All(ctx, &movements); err != nil {
		return nil, fmt.Errorf("failed to decode movements: %w", err)
	}
	return movements, nil
}
