package domain

import (
	"context"
	"time"
)

// ItemRepository defines the interface for item persistence
type ItemRepository interface {
	// Create inserts a new item
	Create(ctx context.Context, item *Item) error

	// Save persists item changes with an optimistic version check.
	// Returns ErrVersionConflict when the stored version differs.
	Save(ctx context.Context, item *Item) error

	// FindByItemID retrieves an item by its ID, nil when not found
	FindByItemID(ctx context.Context, itemID string) (*Item, error)

	// FindAll retrieves items, optionally filtered by status and workflow
	FindAll(ctx context.Context, status ItemStatus, workflowID string, limit int64) ([]*Item, error)

	// FindActive retrieves all items still being tracked
	FindActive(ctx context.Context) ([]*Item, error)

	// FindActiveByWorkflowID retrieves non-completed items for a workflow
	FindActiveByWorkflowID(ctx context.Context, workflowID string) ([]*Item, error)

	// CountActiveByStage returns active item counts per stage for a workflow
	CountActiveByStage(ctx context.Context, workflowID string) (map[string]int64, error)

	// MoveToCompleted relocates a finished item to the completed store
	MoveToCompleted(ctx context.Context, item *Item) error

	// FindCompletedSince retrieves completed items with completedAt >= since
	FindCompletedSince(ctx context.Context, since time.Time) ([]*Item, error)

	// FindCompletedByItemID retrieves a completed item, nil when not found
	FindCompletedByItemID(ctx context.Context, itemID string) (*Item, error)
}

// WorkflowRepository defines the interface for workflow persistence
type WorkflowRepository interface {
	// Save persists a workflow (create or update)
	Save(ctx context.Context, workflow *Workflow) error

	// FindByWorkflowID retrieves a workflow by its ID, nil when not found.
	// Deleted workflows are not returned.
	FindByWorkflowID(ctx context.Context, workflowID string) (*Workflow, error)

	// FindAll retrieves workflows, optionally including archived ones
	FindAll(ctx context.Context, includeArchived bool) ([]*Workflow, error)
}

// LocationRepository defines the interface for location persistence
type LocationRepository interface {
	// Save persists a location (create or update)
	Save(ctx context.Context, location *Location) error

	// FindByLocationID retrieves a location by its ID, nil when not found
	FindByLocationID(ctx context.Context, locationID string) (*Location, error)

	// FindByQRCode retrieves a location by its QR code, nil when not found
	FindByQRCode(ctx context.Context, qrCode string) (*Location, error)

	// FindAll retrieves all non-deleted locations
	FindAll(ctx context.Context) ([]*Location, error)

	// Occupy atomically increments occupancy when capacity allows.
	// Returns ErrLocationAtCapacity when the location is full.
	Occupy(ctx context.Context, locationID string) error

	// Release atomically decrements occupancy, floored at zero
	Release(ctx context.Context, locationID string) error
}

// MovementRepository defines the interface for the movement audit trail
type MovementRepository interface {
	// Record appends a movement record
	Record(ctx context.Context, record *MovementRecord) error

	// FindByItemID retrieves an item's movements, newest first
	FindByItemID(ctx context.Context, itemID string, limit int64) ([]*MovementRecord, error)

	// FindRecent retrieves the latest movements across all items
	FindRecent(ctx context.Context, limit int64) ([]*MovementRecord, error)
}
