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

const locationsCollection = "locations"

// LocationRepository persists locations in MongoDB. Occupancy changes go
// through conditional updates so the capacity bound holds under concurrent
// moves without a cross-document transaction.
type LocationRepository struct {
	collection *mongo.Collection
}

// NewLocationRepository creates a new LocationRepository
func NewLocationRepository(db *mongo.Database) *LocationRepository {
	repo := &LocationRepository{collection: db.Collection(locationsCollection)}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *LocationRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "locationId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "qrCode", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "assignedStageId", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save persists everything except currentOccupancy, which only Occupy and
// Release may touch. Writing the whole document here would race with
// concurrent moves and lose occupancy updates.
func (r *LocationRepository) Save(ctx context.Context, location *domain.Location) error {
	location.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"name":      location.Name,
			"type":      location.Type,
			"qrCode":    location.QRCode,
			"lifecycle": location.Lifecycle,
			"updatedAt": location.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"currentOccupancy": 0,
			"createdAt":        location.CreatedAt,
		},
	}
	set := update["$set"].(bson.M)
	if location.Capacity != nil {
		set["capacity"] = *location.Capacity
	} else {
		update["$unset"] = bson.M{"capacity": ""}
	}
	if location.AssignedStageID != "" {
		set["assignedStageId"] = location.AssignedStageID
	} else {
		unset, ok := update["$unset"].(bson.M)
		if !ok {
			unset = bson.M{}
			update["$unset"] = unset
		}
		unset["assignedStageId"] = ""
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"locationId": location.LocationID}
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("location %s conflicts with an existing qr code: %w", location.LocationID, err)
		}
		return fmt.Errorf("failed to save location: %w", err)
	}
	return nil
}

func (r *LocationRepository) FindByLocationID(ctx context.Context, locationID string) (*domain.Location, error) {
	return r.findOne(ctx, bson.M{"locationId": locationID})
}

func (r *LocationRepository) FindByQRCode(ctx context.Context, qrCode string) (*domain.Location, error) {
	return r.findOne(ctx, bson.M{"qrCode": qrCode})
}

func (r *LocationRepository) findOne(ctx context.Context, filter bson.M) (*domain.Location, error) {
	filter["lifecycle"] = bson.M{"$ne": domain.LifecycleDeleted}

	var location domain.Location
	err := r.collection.FindOne(ctx, filter).Decode(&location)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find location: %w", err)
	}
	return &location, nil
}

func (r *LocationRepository) FindAll(ctx context.Context) ([]*domain.Location, error) {
	filter := bson.M{"lifecycle": bson.M{"$ne": domain.LifecycleDeleted}}
	opts := options.Find().SetSort(mongodb.SortAscending("locationId"))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find locations: %w", err)
	}
	defer cursor.Close(ctx)

	var locations []*domain.Location
	if err := cursor.All(ctx, &locations); err != nil {
		return nil, fmt.Errorf("failed to decode locations: %w", err)
	}
	return locations, nil
}

// Occupy increments occupancy only while below capacity. The filter and the
// increment run as one atomic update, so two concurrent moves cannot both
// claim the last slot.
func (r *LocationRepository) Occupy(ctx context.Context, locationID string) error {
	filter := bson.M{
		"locationId": locationID,
		"lifecycle":  domain.LifecycleActive,
		"$or": bson.A{
			bson.M{"capacity": bson.M{"$exists": false}},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$currentOccupancy", "$capacity"}}},
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, mongodb.BuildIncrementUpdate("currentOccupancy", 1))
	if err != nil {
		return fmt.Errorf("failed to occupy location: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrLocationAtCapacity
	}
	return nil
}

// Release decrements occupancy, never below zero. A zero-occupancy location
// is left untouched rather than reported as an error.
func (r *LocationRepository) Release(ctx context.Context, locationID string) error {
	filter := bson.M{
		"locationId":       locationID,
		"currentOccupancy": bson.M{"$gt": 0},
	}

	if _, err := r.collection.UpdateOne(ctx, filter, mongodb.BuildIncrementUpdate("currentOccupancy", -1)); err != nil {
		return fmt.Errorf("failed to release location: %w", err)
	}
	return nil
}
