package application

import (
	"time"

	"github.com/prodtrack-platform/tracking-service/internal/domain"
)

// ItemDTO represents an item data transfer object
type ItemDTO struct {
	ItemID            string            `json:"itemId"`
	WorkflowID        string            `json:"workflowId"`
	CurrentStageID    string            `json:"currentStageId"`
	Status            string            `json:"status"`
	CurrentLocationID string            `json:"currentLocationId,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	StartedAt         time.Time         `json:"startedAt"`
	CompletedAt       *time.Time        `json:"completedAt,omitempty"`
	FinalStageName    string            `json:"finalStageName,omitempty"`
	History           []HistoryEntryDTO `json:"history"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// HistoryEntryDTO represents a stage entry in an item's history
type HistoryEntryDTO struct {
	StageID          string                   `json:"stageId"`
	StageName        string                   `json:"stageName"`
	EnteredAt        time.Time                `json:"enteredAt"`
	ActorID          string                   `json:"actorId"`
	CompletedActions []domain.CompletedAction `json:"completedActions,omitempty"`
	Notes            string                   `json:"notes,omitempty"`
}

// AdvanceResultDTO reports the outcome of a stage transition
type AdvanceResultDTO struct {
	Status    string    `json:"status"` // advanced or completed
	Item      *ItemDTO  `json:"item"`
	NextStage *StageDTO `json:"nextStage,omitempty"`
}

// WorkflowDTO represents a workflow data transfer object
type WorkflowDTO struct {
	WorkflowID  string     `json:"workflowId"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Stages      []StageDTO `json:"stages"`
	Lifecycle   string     `json:"lifecycle"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// StageDTO represents a workflow stage
type StageDTO struct {
	StageID                  string      `json:"stageId"`
	Name                     string      `json:"name"`
	Description              string      `json:"description,omitempty"`
	Order                    int         `json:"order"`
	Actions                  []ActionDTO `json:"actions"`
	EstimatedDurationMinutes int         `json:"estimatedDurationMinutes,omitempty"`
	AllowedNextStageIDs      []string    `json:"allowedNextStageIds"`
	AssignedLocationIDs      []string    `json:"assignedLocationIds,omitempty"`
	Terminal                 bool        `json:"terminal"`
}

// ActionDTO represents a stage action
type ActionDTO struct {
	ActionID    string              `json:"actionId"`
	Type        string              `json:"type"`
	Label       string              `json:"label"`
	Description string              `json:"description,omitempty"`
	Required    bool                `json:"required"`
	Config      domain.ActionConfig `json:"config,omitempty"`
}

// LocationDTO represents a location data transfer object
type LocationDTO struct {
	LocationID       string    `json:"locationId"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	QRCode           string    `json:"qrCode"`
	Capacity         *int      `json:"capacity,omitempty"`
	CurrentOccupancy int       `json:"currentOccupancy"`
	AssignedStageID  string    `json:"assignedStageId,omitempty"`
	Lifecycle        string    `json:"lifecycle"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// MovementDTO represents a movement audit entry
type MovementDTO struct {
	ItemID         string    `json:"itemId"`
	FromLocationID string    `json:"fromLocationId,omitempty"`
	ToLocationID   string    `json:"toLocationId"`
	MovedBy        string    `json:"movedBy"`
	MovedAt        time.Time `json:"movedAt"`
	Notes          string    `json:"notes,omitempty"`
}

// ScanResolutionDTO reports what a scanned QR payload resolved to
type ScanResolutionDTO struct {
	Kind     string       `json:"kind"` // item or location
	Item     *ItemDTO     `json:"item,omitempty"`
	Location *LocationDTO `json:"location,omitempty"`
}

// Dashboard DTOs

// StageCountDTO reports active items in one stage
type StageCountDTO struct {
	StageID   string `json:"stageId"`
	StageName string `json:"stageName"`
	Order     int    `json:"order"`
	ItemCount int64  `json:"itemCount"`
}

// StuckItemDTO reports an item idle past the stuck threshold
type StuckItemDTO struct {
	ItemID       string    `json:"itemId"`
	WorkflowID   string    `json:"workflowId"`
	StageID      string    `json:"stageId"`
	StageName    string    `json:"stageName"`
	EnteredAt    time.Time `json:"enteredAt"`
	StuckMinutes int64     `json:"stuckMinutes"`
}

// CompletionBucketDTO reports completion counts for one window
type CompletionBucketDTO struct {
	Completed int `json:"completed"`
	OnTime    int `json:"onTime"`
	Late      int `json:"late"`
}

// CompletionStatsDTO reports completion stats across standard windows
type CompletionStatsDTO struct {
	Today      CompletionBucketDTO `json:"today"`
	Last7Days  CompletionBucketDTO `json:"last7Days"`
	Last30Days CompletionBucketDTO `json:"last30Days"`
}

// LocationUtilizationDTO reports occupancy against capacity
type LocationUtilizationDTO struct {
	LocationID       string   `json:"locationId"`
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	CurrentOccupancy int      `json:"currentOccupancy"`
	Capacity         *int     `json:"capacity,omitempty"`
	UtilizationPct   *float64 `json:"utilizationPct,omitempty"`
}
