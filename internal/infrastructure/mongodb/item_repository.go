package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prodtrack-platform/tracking-service/internal/domain"
	"github.com/prodtrack-platform/tracking-service/pkg/mongodb"
)

const (
	itemsCollection          = "items"
	completedItemsCollection = "completed_items"
)

// ItemRepository persists items in MongoDB. Active and paused items live in
// the items collection; completed items are moved to completed_items.
type ItemRepository struct {
	items     *mongo.Collection
	completed *mongo.Collection
}

// NewItemRepository creates a new ItemRepository
func NewItemRepository(db *mongo.Database) *ItemRepository {
	repo := &ItemRepository{
		items:     db.Collection(itemsCollection),
		completed: db.Collection(completedItemsCollection),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *ItemRepository) ensureIndexes(ctx context.Context) {
	itemIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "itemId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "workflowId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "currentStageId", Value: 1}}},
		{Keys: bson.D{{Key: "currentLocationId", Value: 1}}},
	}
	r.items.Indexes().CreateMany(ctx, itemIndexes)

	completedIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "itemId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "completedAt", Value: -1}}},
	}
	r.completed.Indexes().CreateMany(ctx, completedIndexes)
}

func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) error {
	item.UpdatedAt = time.Now()

	if _, err := r.items.InsertOne(ctx, item); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("item %s already exists: %w", item.ItemID, err)
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// Save persists the item with a compare-and-swap on the version field. The
// filter matches the version the item was loaded at; a miss means another
// writer got there first.
func (r *ItemRepository) Save(ctx context.Context, item *domain.Item) error {
	loadedVersion := item.Version
	item.Version++
	item.UpdatedAt = time.Now()

	filter := bson.M{"itemId": item.ItemID, "version": loadedVersion}
	result, err := r.items.UpdateOne(ctx, filter, bson.M{"$set": item})
	if err != nil {
		item.Version = loadedVersion
		return fmt.Errorf("failed to save item: %w", err)
	}
	if result.MatchedCount == 0 {
		item.Version = loadedVersion
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *ItemRepository) FindByItemID(ctx context.Context, itemID string) (*domain.Item, error) {
	var item domain.Item
	err := r.items.FindOne(ctx, bson.M{"itemId": itemID}).Decode(&item)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return &item, nil
}

// collectionFor routes reads by status. Completed items live in their own
// collection, so a completed filter must not hit the active store.
func (r *ItemRepository) collectionFor(status domain.ItemStatus) *mongo.Collection {
	if status == domain.ItemStatusCompleted {
		return r.completed
	}
	return r.items
}

func (r *ItemRepository) FindAll(ctx context.Context, status domain.ItemStatus, workflowID string, limit int64) ([]*domain.Item, error) {
	filter := bson.M{}
	if workflowID != "" {
		filter["workflowId"] = workflowID
	}

	collection := r.collectionFor(status)
	sort := mongodb.SortDescending("createdAt")
	if status == domain.ItemStatusCompleted {
		sort = mongodb.SortDescending("completedAt")
	} else if status != "" {
		filter["status"] = status
	}

	opts := options.Find().
		SetSort(sort).
		SetLimit(limit)

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*domain.Item
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	return items, nil
}

func (r *ItemRepository) FindActive(ctx context.Context) ([]*domain.Item, error) {
	filter := bson.M{"status": bson.M{"$in": bson.A{domain.ItemStatusActive, domain.ItemStatusPaused}}}

	cursor, err := r.items.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find active items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*domain.Item
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	return items, nil
}

func (r *ItemRepository) FindActiveByWorkflowID(ctx context.Context, workflowID string) ([]*domain.Item, error) {
	filter := bson.M{
		"workflowId": workflowID,
		"status":     bson.M{"$in": bson.A{domain.ItemStatusActive, domain.ItemStatusPaused, domain.ItemStatusError}},
	}

	cursor, err := r.items.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find items for workflow: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*domain.Item
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	return items, nil
}

func (r *ItemRepository) CountActiveByStage(ctx context.Context, workflowID string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"workflowId": workflowID,
			"status":     bson.M{"$in": bson.A{domain.ItemStatusActive, domain.ItemStatusPaused}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$currentStageId",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.items.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count items by stage: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		StageID string `bson:"_id"`
		Count   int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode stage counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.StageID] = row.Count
	}
	return counts, nil
}

// MoveToCompleted inserts the item into the completed store and removes it
// from the active store. The delete carries the same version predicate as
// Save, so a concurrent writer invalidates the completion instead of losing
// its own update. Callers run this inside a transaction; a version conflict
// rolls the insert back.
func (r *ItemRepository) MoveToCompleted(ctx context.Context, item *domain.Item) error {
	loadedVersion := item.Version
	item.Version++
	item.UpdatedAt = time.Now()

	if _, err := r.completed.InsertOne(ctx, item); err != nil {
		item.Version = loadedVersion
		return fmt.Errorf("failed to insert completed item: %w", err)
	}

	filter := bson.M{"itemId": item.ItemID, "version": loadedVersion}
	result, err := r.items.DeleteOne(ctx, filter)
	if err != nil {
		item.Version = loadedVersion
		return fmt.Errorf("failed to remove item from active store: %w", err)
	}
	if result.DeletedCount == 0 {
		item.Version = loadedVersion
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *ItemRepository) FindCompletedSince(ctx context.Context, since time.Time) ([]*domain.Item, error) {
	filter := bson.M{"completedAt": bson.M{"$gte": since}}
	opts := options.Find().SetSort(mongodb.SortDescending("completedAt"))

	cursor, err := r.completed.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find completed items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*domain.Item
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode completed items: %w", err)
	}
	return items, nil
}

func (r *ItemRepository) FindCompletedByItemID(ctx context.Context, itemID string) (*domain.Item, error) {
	var item domain.Item
	err := r.completed.FindOne(ctx, bson.M{"itemId": itemID}).Decode(&item)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find completed item: %w", err)
	}
	return &item, nil
}
