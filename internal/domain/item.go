package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Item errors
var (
	ErrItemNotActive        = errors.New("item is not active")
	ErrItemNotPaused        = errors.New("item is not paused")
	ErrItemAlreadyCompleted = errors.New("item is already completed")
	ErrStageNotAllowed      = errors.New("target stage is not reachable from current stage")
	ErrInvalidItemStatus    = errors.New("invalid item status")
	ErrVersionConflict      = errors.New("item was modified concurrently")
)

// ItemStatus represents the tracking state of an item
type ItemStatus string

const (
	ItemStatusActive    ItemStatus = "active"
	ItemStatusPaused    ItemStatus = "paused"
	ItemStatusCompleted ItemStatus = "completed"
	ItemStatusError     ItemStatus = "error"
)

// IsValid checks if the status is valid
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusActive, ItemStatusPaused, ItemStatusCompleted, ItemStatusError:
		return true
	default:
		return false
	}
}

// HistoryEntry records an item entering a stage. The entry for the current
// stage carries the "time entered" used for stuck-item detection.
type HistoryEntry struct {
	StageID          string            `bson:"stageId" json:"stageId"`
	StageName        string            `bson:"stageName" json:"stageName"`
	EnteredAt        time.Time         `bson:"enteredAt" json:"enteredAt"`
	ActorID          string            `bson:"actorId" json:"actorId"`
	CompletedActions []CompletedAction `bson:"completedActions,omitempty" json:"completedActions,omitempty"`
	Notes            string            `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Item represents a tracked unit of production moving through a workflow
type Item struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	ItemID            string             `bson:"itemId"`
	WorkflowID        string             `bson:"workflowId"`
	CurrentStageID    string             `bson:"currentStageId"`
	Status            ItemStatus         `bson:"status"`
	CurrentLocationID string             `bson:"currentLocationId,omitempty"`
	Metadata          map[string]string  `bson:"metadata,omitempty"`
	StartedAt         time.Time          `bson:"startedAt"`
	CompletedAt       *time.Time         `bson:"completedAt,omitempty"`
	FinalStageName    string             `bson:"finalStageName,omitempty"`
	History           []HistoryEntry     `bson:"history"`
	Version           int64              `bson:"version"`
	CreatedAt         time.Time          `bson:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt"`
	DomainEvents      []DomainEvent      `bson:"-"`
}

// NewItem creates a new Item aggregate positioned at the workflow's entry stage
func NewItem(itemID string, workflow *Workflow, actorID string, metadata map[string]string) (*Item, error) {
	if !workflow.IsActive() {
		return nil, ErrWorkflowNotActive
	}

	first := workflow.FirstStage()
	if first == nil {
		return nil, ErrWorkflowNoStages
	}

	now := time.Now()
	item := &Item{
		ItemID:         itemID,
		WorkflowID:     workflow.WorkflowID,
		CurrentStageID: first.StageID,
		Status:         ItemStatusActive,
		Metadata:       metadata,
		StartedAt:      now,
		History: []HistoryEntry{{
			StageID:   first.StageID,
			StageName: first.Name,
			EnteredAt: now,
			ActorID:   actorID,
		}},
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
		DomainEvents: make([]DomainEvent, 0),
	}

	item.AddDomainEvent(&ItemCreatedEvent{
		ItemID:     itemID,
		WorkflowID: workflow.WorkflowID,
		StageID:    first.StageID,
		ActorID:    actorID,
		CreatedAt:  now,
	})

	return item, nil
}

// EnteredCurrentStageAt returns when the item entered its current stage
func (i *Item) EnteredCurrentStageAt() time.Time {
	if len(i.History) == 0 {
		return i.StartedAt
	}
	return i.History[len(i.History)-1].EnteredAt
}

// AdvanceTo moves the item into the target stage and appends a history entry.
// The caller has already validated that the transition is allowed and that the
// current stage's required actions are complete.
func (i *Item) AdvanceTo(target *Stage, actorID string, completedActions []CompletedAction, notes string) error {
	if i.Status != ItemStatusActive {
		if i.Status == ItemStatusCompleted {
			return ErrItemAlreadyCompleted
		}
		return ErrItemNotActive
	}

	fromStageID := i.CurrentStageID
	now := time.Now()

	i.CurrentStageID = target.StageID
	i.History = append(i.History, HistoryEntry{
		StageID:          target.StageID,
		StageName:        target.Name,
		EnteredAt:        now,
		ActorID:          actorID,
		CompletedActions: completedActions,
		Notes:            notes,
	})
	i.UpdatedAt = now

	i.AddDomainEvent(&ItemAdvancedEvent{
		ItemID:      i.ItemID,
		WorkflowID:  i.WorkflowID,
		FromStageID: fromStageID,
		ToStageID:   target.StageID,
		ActorID:     actorID,
		AdvancedAt:  now,
	})

	return nil
}

// Complete marks the item finished at its current, terminal stage. The last
// history entry records the actions completed at the final stage; no new entry
// is appended.
func (i *Item) Complete(finalStage *Stage, actorID string, completedActions []CompletedAction, notes string) error {
	if i.Status != ItemStatusActive {
		if i.Status == ItemStatusCompleted {
			return ErrItemAlreadyCompleted
		}
		return ErrItemNotActive
	}

	now := time.Now()
	i.Status = ItemStatusCompleted
	i.CompletedAt = &now
	i.FinalStageName = finalStage.Name
	i.UpdatedAt = now

	if len(i.History) > 0 {
		last := &i.History[len(i.History)-1]
		last.CompletedActions = append(last.CompletedActions, completedActions...)
		if notes != "" {
			last.Notes = notes
		}
	}

	i.AddDomainEvent(&ItemCompletedEvent{
		ItemID:         i.ItemID,
		WorkflowID:     i.WorkflowID,
		FinalStageID:   finalStage.StageID,
		FinalStageName: finalStage.Name,
		ActorID:        actorID,
		StartedAt:      i.StartedAt,
		CompletedAt:    now,
	})

	return nil
}

// Pause suspends tracking for the item
func (i *Item) Pause(actorID, reason string) error {
	if i.Status != ItemStatusActive {
		if i.Status == ItemStatusCompleted {
			return ErrItemAlreadyCompleted
		}
		return ErrItemNotActive
	}

	i.Status = ItemStatusPaused
	i.UpdatedAt = time.Now()

	i.AddDomainEvent(&ItemPausedEvent{
		ItemID:   i.ItemID,
		ActorID:  actorID,
		Reason:   reason,
		PausedAt: i.UpdatedAt,
	})

	return nil
}

// Resume returns a paused item to active tracking
func (i *Item) Resume(actorID string) error {
	if i.Status != ItemStatusPaused {
		return ErrItemNotPaused
	}

	i.Status = ItemStatusActive
	i.UpdatedAt = time.Now()

	i.AddDomainEvent(&ItemResumedEvent{
		ItemID:    i.ItemID,
		ActorID:   actorID,
		ResumedAt: i.UpdatedAt,
	})

	return nil
}

// MoveTo records the item's new physical location
func (i *Item) MoveTo(locationID, movedBy string) {
	fromLocationID := i.CurrentLocationID
	i.CurrentLocationID = locationID
	i.UpdatedAt = time.Now()

	i.AddDomainEvent(&ItemMovedEvent{
		ItemID:         i.ItemID,
		FromLocationID: fromLocationID,
		ToLocationID:   locationID,
		MovedBy:        movedBy,
		MovedAt:        i.UpdatedAt,
	})
}

// AddDomainEvent adds a domain event
func (i *Item) AddDomainEvent(event DomainEvent) {
	i.DomainEvents = append(i.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (i *Item) ClearDomainEvents() {
	i.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (i *Item) GetDomainEvents() []DomainEvent {
	return i.DomainEvents
}

// Item Domain Events

// ItemCreatedEvent is emitted when an item enters its workflow
type ItemCreatedEvent struct {
	ItemID     string    `json:"itemId"`
	WorkflowID string    `json:"workflowId"`
	StageID    string    `json:"stageId"`
	ActorID    string    `json:"actorId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (e *ItemCreatedEvent) EventType() string     { return "item.created" }
func (e *ItemCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// ItemAdvancedEvent is emitted when an item moves to a new stage
type ItemAdvancedEvent struct {
	ItemID      string    `json:"itemId"`
	WorkflowID  string    `json:"workflowId"`
	FromStageID string    `json:"fromStageId"`
	ToStageID   string    `json:"toStageId"`
	ActorID     string    `json:"actorId"`
	AdvancedAt  time.Time `json:"advancedAt"`
}

func (e *ItemAdvancedEvent) EventType() string     { return "item.advanced" }
func (e *ItemAdvancedEvent) OccurredAt() time.Time { return e.AdvancedAt }

// ItemCompletedEvent is emitted when an item finishes its workflow
type ItemCompletedEvent struct {
	ItemID         string    `json:"itemId"`
	WorkflowID     string    `json:"workflowId"`
	FinalStageID   string    `json:"finalStageId"`
	FinalStageName string    `json:"finalStageName"`
	ActorID        string    `json:"actorId"`
	StartedAt      time.Time `json:"startedAt"`
	CompletedAt    time.Time `json:"completedAt"`
}

func (e *ItemCompletedEvent) EventType() string     { return "item.completed" }
func (e *ItemCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// ItemMovedEvent is emitted when an item changes physical location
type ItemMovedEvent struct {
	ItemID         string    `json:"itemId"`
	FromLocationID string    `json:"fromLocationId,omitempty"`
	ToLocationID   string    `json:"toLocationId"`
	MovedBy        string    `json:"movedBy"`
	MovedAt        time.Time `json:"movedAt"`
}

func (e *ItemMovedEvent) EventType() string     { return "item.moved" }
func (e *ItemMovedEvent) OccurredAt() time.Time { return e.MovedAt }

// ItemPausedEvent is emitted when tracking is suspended
type ItemPausedEvent struct {
	ItemID   string    `json:"itemId"`
	ActorID  string    `json:"actorId"`
	Reason   string    `json:"reason,omitempty"`
	PausedAt time.Time `json:"pausedAt"`
}

func (e *ItemPausedEvent) EventType() string     { return "item.paused" }
func (e *ItemPausedEvent) OccurredAt() time.Time { return e.PausedAt }

// ItemResumedEvent is emitted when tracking resumes
type ItemResumedEvent struct {
	ItemID    string    `json:"itemId"`
	ActorID   string    `json:"actorId"`
	ResumedAt time.Time `json:"resumedAt"`
}

func (e *ItemResumedEvent) EventType() string     { return "item.resumed" }
func (e *ItemResumedEvent) OccurredAt() time.Time { return e.ResumedAt }
