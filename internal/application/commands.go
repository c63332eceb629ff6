package application

import (
	"time"

	"github.com/prodtrack-platform/tracking-service/internal/domain"
)

// Item Commands

// CreateItemCommand registers a new item into a workflow
type CreateItemCommand struct {
	ItemID     string            `json:"itemId"`
	WorkflowID string            `json:"workflowId"`
	ActorID    string            `json:"actorId"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// AdvanceItemCommand moves an item to its next stage
type AdvanceItemCommand struct {
	ItemID           string                   `json:"itemId"`
	ActorID          string                   `json:"actorId"`
	TargetStageID    string                   `json:"targetStageId,omitempty"`
	CompletedActions []domain.CompletedAction `json:"completedActions,omitempty"`
	Notes            string                   `json:"notes,omitempty"`
}

// MoveItemCommand relocates an item to a physical location
type MoveItemCommand struct {
	ItemID     string `json:"itemId"`
	LocationID string `json:"locationId"`
	MovedBy    string `json:"movedBy"`
	Notes      string `json:"notes,omitempty"`
}

// PauseItemCommand suspends tracking for an item
type PauseItemCommand struct {
	ItemID  string `json:"itemId"`
	ActorID string `json:"actorId"`
	Reason  string `json:"reason,omitempty"`
}

// ResumeItemCommand resumes tracking for a paused item
type ResumeItemCommand struct {
	ItemID  string `json:"itemId"`
	ActorID string `json:"actorId"`
}

// ResolveScanCommand resolves a scanned QR payload to an entity
type ResolveScanCommand struct {
	Payload string `json:"payload"`
}

// Item Queries

// GetItemQuery retrieves an item by ID
type GetItemQuery struct {
	ItemID string `json:"itemId"`
}

// ListItemsQuery lists items with optional filters
type ListItemsQuery struct {
	Status     string `json:"status,omitempty"`
	WorkflowID string `json:"workflowId,omitempty"`
	Limit      int64  `json:"limit,omitempty"`
}

// GetItemMovementsQuery retrieves an item's movement history
type GetItemMovementsQuery struct {
	ItemID string `json:"itemId"`
	Limit  int64  `json:"limit,omitempty"`
}

// Workflow Commands

// StageInput describes a stage in a create or update request
type StageInput struct {
	StageID                  string        `json:"stageId"`
	Name                     string        `json:"name"`
	Description              string        `json:"description,omitempty"`
	Order                    int           `json:"order"`
	Actions                  []ActionInput `json:"actions,omitempty"`
	EstimatedDurationMinutes int           `json:"estimatedDurationMinutes,omitempty"`
	AllowedNextStageIDs      []string      `json:"allowedNextStageIds"`
}

// ActionInput describes a stage action in a create or update request
type ActionInput struct {
	ActionID    string              `json:"actionId"`
	Type        string              `json:"type"`
	Label       string              `json:"label"`
	Description string              `json:"description,omitempty"`
	Required    bool                `json:"required"`
	Config      domain.ActionConfig `json:"config,omitempty"`
}

// CreateWorkflowCommand creates a new workflow
type CreateWorkflowCommand struct {
	WorkflowID  string       `json:"workflowId"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Stages      []StageInput `json:"stages"`
}

// UpdateWorkflowCommand replaces a workflow definition
type UpdateWorkflowCommand struct {
	WorkflowID  string       `json:"workflowId"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Stages      []StageInput `json:"stages"`
}

// DeleteWorkflowCommand tombstones a workflow
type DeleteWorkflowCommand struct {
	WorkflowID string `json:"workflowId"`
}

// ArchiveWorkflowCommand archives a workflow
type ArchiveWorkflowCommand struct {
	WorkflowID string `json:"workflowId"`
}

// Workflow Queries

// GetWorkflowQuery retrieves a workflow by ID
type GetWorkflowQuery struct {
	WorkflowID string `json:"workflowId"`
}

// ListWorkflowsQuery lists workflows
type ListWorkflowsQuery struct {
	IncludeArchived bool `json:"includeArchived,omitempty"`
}

// Location Commands

// CreateLocationCommand creates a new location
type CreateLocationCommand struct {
	LocationID string `json:"locationId"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	QRCode     string `json:"qrCode"`
	Capacity   *int   `json:"capacity,omitempty"`
}

// AssignLocationStageCommand binds a location to a workflow stage
type AssignLocationStageCommand struct {
	LocationID string `json:"locationId"`
	WorkflowID string `json:"workflowId"`
	StageID    string `json:"stageId"`
}

// UnassignLocationStageCommand removes a location's stage binding
type UnassignLocationStageCommand struct {
	LocationID string `json:"locationId"`
}

// Location Queries

// GetLocationQuery retrieves a location by ID
type GetLocationQuery struct {
	LocationID string `json:"locationId"`
}

// GetLocationByQRCodeQuery retrieves a location by QR code
type GetLocationByQRCodeQuery struct {
	QRCode string `json:"qrCode"`
}

// Movement Queries

// ListRecentMovementsQuery lists the latest movements across all items
type ListRecentMovementsQuery struct {
	Limit int64 `json:"limit,omitempty"`
}

// Dashboard Queries

// StageCountsQuery returns active item counts per stage of a workflow
type StageCountsQuery struct {
	WorkflowID string `json:"workflowId"`
}

// StuckItemsQuery returns items idle in their stage past the threshold
type StuckItemsQuery struct {
	AsOf time.Time `json:"asOf"`
}

// CompletionStatsQuery returns completion counts and SLA splits
type CompletionStatsQuery struct {
	AsOf time.Time `json:"asOf"`
}
