package cloudevents

import (
	"time"
)

// EventType constants for tracking domain events
const (
	// Item events
	ItemCreated   = "prodtrack.item.created"
	ItemAdvanced  = "prodtrack.item.advanced"
	ItemCompleted = "prodtrack.item.completed"
	ItemMoved     = "prodtrack.item.moved"
	ItemPaused    = "prodtrack.item.paused"
	ItemResumed   = "prodtrack.item.resumed"

	// Workflow events
	WorkflowCreated  = "prodtrack.workflow.created"
	WorkflowUpdated  = "prodtrack.workflow.updated"
	WorkflowArchived = "prodtrack.workflow.archived"
	WorkflowDeleted  = "prodtrack.workflow.deleted"

	// Location events
	LocationCreated      = "prodtrack.location.created"
	LocationStageLinked  = "prodtrack.location.stage-assigned"
	LocationStageCleared = "prodtrack.location.stage-unassigned"
)

// Source constants for event sources
const (
	SourceTracking = "/prodtrack/tracking-service"
)

// CloudEvent represents a CloudEvents v1.0 compliant event
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// Tracking-specific extensions
	CorrelationID string `json:"trackingcorrelationid,omitempty"`
	WorkflowID    string `json:"trackingworkflowid,omitempty"`
}

// ItemCreatedData represents the data payload for ItemCreated events
type ItemCreatedData struct {
	ItemID     string `json:"itemId"`
	WorkflowID string `json:"workflowId"`
	StageID    string `json:"stageId"`
	ActorID    string `json:"actorId"`
}

// ItemAdvancedData represents the data payload for ItemAdvanced events
type ItemAdvancedData struct {
	ItemID      string `json:"itemId"`
	WorkflowID  string `json:"workflowId"`
	FromStageID string `json:"fromStageId"`
	ToStageID   string `json:"toStageId"`
	ActorID     string `json:"actorId"`
}

// ItemCompletedData represents the data payload for ItemCompleted events
type ItemCompletedData struct {
	ItemID         string    `json:"itemId"`
	WorkflowID     string    `json:"workflowId"`
	FinalStageName string    `json:"finalStageName"`
	StartedAt      time.Time `json:"startedAt"`
	CompletedAt    time.Time `json:"completedAt"`
	ActorID        string    `json:"actorId"`
}

// ItemMovedData represents the data payload for ItemMoved events
type ItemMovedData struct {
	ItemID         string `json:"itemId"`
	FromLocationID string `json:"fromLocationId,omitempty"`
	ToLocationID   string `json:"toLocationId"`
	MovedBy        string `json:"movedBy"`
}

// ItemStatusChangedData represents the payload for pause and resume events
type ItemStatusChangedData struct {
	ItemID  string `json:"itemId"`
	Status  string `json:"status"`
	ActorID string `json:"actorId"`
}

// WorkflowChangedData represents the payload for workflow lifecycle events
type WorkflowChangedData struct {
	WorkflowID string `json:"workflowId"`
	Name       string `json:"name"`
	StageCount int    `json:"stageCount"`
}

// LocationStageData represents the payload for location stage assignment events
type LocationStageData struct {
	LocationID string `json:"locationId"`
	StageID    string `json:"stageId,omitempty"`
	WorkflowID string `json:"workflowId,omitempty"`
}
