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

const workflowsCollection = "workflows"

// WorkflowRepository persists workflow definitions in MongoDB. Deleted
// workflows stay in the collection as tombstones so item history keeps a
// referent, but no query surfaces them.
type WorkflowRepository struct {
	collection *mongo.Collection
}

// NewWorkflowRepository creates a new WorkflowRepository
func NewWorkflowRepository(db *mongo.Database) *WorkflowRepository {
	repo := &WorkflowRepository{collection: db.Collection(workflowsCollection)}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *WorkflowRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "workflowId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "lifecycle", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *domain.Workflow) error {
	workflow.UpdatedAt = time.Now()

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"workflowId": workflow.WorkflowID}
	if _, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": workflow}, opts); err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}
	return nil
}

func (r *WorkflowRepository) FindByWorkflowID(ctx context.Context, workflowID string) (*domain.Workflow, error) {
	filter := bson.M{
		"workflowId": workflowID,
		"lifecycle":  bson.M{"$ne": domain.LifecycleDeleted},
	}

	var workflow domain.Workflow
	err := r.collection.FindOne(ctx, filter).Decode(&workflow)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find workflow: %w", err)
	}
	return &workflow, nil
}

func (r *WorkflowRepository) FindAll(ctx context.Context, includeArchived bool) ([]*domain.Workflow, error) {
	filter := bson.M{"lifecycle": domain.LifecycleActive}
	if includeArchived {
		filter = bson.M{"lifecycle": bson.M{"$ne": domain.LifecycleDeleted}}
	}

	opts := options.Find().SetSort(mongodb.SortAscending("name"))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find workflows: %w", err)
	}
	defer cursor.Close(ctx)

	var workflows []*domain.Workflow
	if err := cursor.All(ctx, &workflows); err != nil {
		return nil, fmt.Errorf("failed to decode workflows: %w", err)
	}
	return workflows, nil
}
