package mongodb

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prodtrack-platform/tracking-service/internal/domain"
)

// newDetachedItemRepository builds a repository against a client that has not
// dialed anything. Collection routing can be asserted without a running
// server; the driver connects lazily on first operation.
func newDetachedItemRepository(t *testing.T) *ItemRepository {
	t.Helper()

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://localhost:27017"))
	if err != nil {
		t.Fatalf("failed to build mongo client: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("tracking_test")
	return &ItemRepository{
		items:     db.Collection(itemsCollection),
		completed: db.Collection(completedItemsCollection),
	}
}

func TestItemRepositoryCollectionRouting(t *testing.T) {
	repo := newDetachedItemRepository(t)

	cases := []struct {
		name   string
		status domain.ItemStatus
		want   string
	}{
		{"no status filter reads the active store", "", itemsCollection},
		{"active reads the active store", domain.ItemStatusActive, itemsCollection},
		{"paused reads the active store", domain.ItemStatusPaused, itemsCollection},
		{"error reads the active store", domain.ItemStatusError, itemsCollection},
		{"completed reads the completed store", domain.ItemStatusCompleted, completedItemsCollection},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := repo.collectionFor(tc.status).Name(); got != tc.want {
				t.Fatalf("collectionFor(%q) = %s, want %s", tc.status, got, tc.want)
			}
		})
	}
}
