package domain

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workflow errors
var (
	ErrWorkflowNoStages    = errors.New("workflow must have at least one stage")
	ErrDuplicateStageID    = errors.New("duplicate stage id within workflow")
	ErrUnknownNextStage    = errors.New("allowedNextStageIds references unknown stage")
	ErrStageNotFound       = errors.New("stage not found in workflow")
	ErrWorkflowNotActive   = errors.New("workflow is not active")
	ErrWorkflowDeleted     = errors.New("workflow is deleted")
	ErrInvalidLifecycle    = errors.New("invalid lifecycle state")
	ErrWorkflowNameMissing = errors.New("workflow name is required")
)

// Stage represents a single step in a production workflow
type Stage struct {
	StageID                  string   `bson:"stageId" json:"stageId"`
	Name                     string   `bson:"name" json:"name"`
	Description              string   `bson:"description,omitempty" json:"description,omitempty"`
	Order                    int      `bson:"order" json:"order"`
	Actions                  []Action `bson:"actions" json:"actions"`
	EstimatedDurationMinutes int      `bson:"estimatedDurationMinutes,omitempty" json:"estimatedDurationMinutes,omitempty"`
	AllowedNextStageIDs      []string `bson:"allowedNextStageIds" json:"allowedNextStageIds"`
	AssignedLocationIDs      []string `bson:"assignedLocationIds,omitempty" json:"assignedLocationIds,omitempty"`
}

// IsTerminal reports whether the stage ends the workflow
func (s *Stage) IsTerminal() bool {
	return len(s.AllowedNextStageIDs) == 0
}

// Workflow represents a configurable multi-stage production process
type Workflow struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	WorkflowID   string             `bson:"workflowId"`
	Name         string             `bson:"name"`
	Description  string             `bson:"description,omitempty"`
	Stages       []Stage            `bson:"stages"`
	Lifecycle    Lifecycle          `bson:"lifecycle"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
	DomainEvents []DomainEvent      `bson:"-"`
}

// NewWorkflow creates a new Workflow aggregate after validating the stage graph
func NewWorkflow(workflowID, name, description string, stages []Stage) (*Workflow, error) {
	if name == "" {
		return nil, ErrWorkflowNameMissing
	}
	if err := ValidateStages(stages); err != nil {
		return nil, err
	}

	now := time.Now()
	workflow := &Workflow{
		WorkflowID:   workflowID,
		Name:         name,
		Description:  description,
		Stages:       stages,
		Lifecycle:    LifecycleActive,
		CreatedAt:    now,
		UpdatedAt:    now,
		DomainEvents: make([]DomainEvent, 0),
	}

	workflow.AddDomainEvent(&WorkflowCreatedEvent{
		WorkflowID: workflowID,
		Name:       name,
		StageCount: len(stages),
		CreatedAt:  now,
	})

	return workflow, nil
}

// ValidateStages checks the stage graph: at least one stage, unique stage ids,
// next-stage references resolving within the workflow, valid action definitions.
func ValidateStages(stages []Stage) error {
	if len(stages) == 0 {
		return ErrWorkflowNoStages
	}

	ids := make(map[string]bool, len(stages))
	for _, stage := range stages {
		if ids[stage.StageID] {
			return fmt.Errorf("%w: %s", ErrDuplicateStageID, stage.StageID)
		}
		ids[stage.StageID] = true
	}

	for _, stage := range stages {
		for _, next := range stage.AllowedNextStageIDs {
			if !ids[next] {
				return fmt.Errorf("%w: stage %s references %s", ErrUnknownNextStage, stage.StageID, next)
			}
		}
		actionIDs := make(map[string]bool, len(stage.Actions))
		for _, action := range stage.Actions {
			if actionIDs[action.ActionID] {
				return fmt.Errorf("%w: %s in stage %s", ErrDuplicateActionID, action.ActionID, stage.StageID)
			}
			actionIDs[action.ActionID] = true
			if err := action.Validate(); err != nil {
				return fmt.Errorf("stage %s: %w", stage.StageID, err)
			}
		}
	}

	return nil
}

// StageByID returns the stage with the given id
func (w *Workflow) StageByID(stageID string) (*Stage, error) {
	for i := range w.Stages {
		if w.Stages[i].StageID == stageID {
			return &w.Stages[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrStageNotFound, stageID)
}

// FirstStage returns the entry stage, the one with the lowest order
func (w *Workflow) FirstStage() *Stage {
	if len(w.Stages) == 0 {
		return nil
	}
	first := &w.Stages[0]
	for i := range w.Stages {
		if w.Stages[i].Order < first.Order {
			first = &w.Stages[i]
		}
	}
	return first
}

// AllowedNextStages returns the stages reachable from the given stage
func (w *Workflow) AllowedNextStages(stageID string) ([]*Stage, error) {
	stage, err := w.StageByID(stageID)
	if err != nil {
		return nil, err
	}

	next := make([]*Stage, 0, len(stage.AllowedNextStageIDs))
	for _, id := range stage.AllowedNextStageIDs {
		s, err := w.StageByID(id)
		if err != nil {
			return nil, err
		}
		next = append(next, s)
	}
	return next, nil
}

// IsActive reports whether the workflow accepts new items
func (w *Workflow) IsActive() bool {
	return w.Lifecycle == LifecycleActive
}

// ApplyUpdate replaces the workflow definition after validating the new stages
func (w *Workflow) ApplyUpdate(name, description string, stages []Stage) error {
	if w.Lifecycle == LifecycleDeleted {
		return ErrWorkflowDeleted
	}
	if name == "" {
		return ErrWorkflowNameMissing
	}
	if err := ValidateStages(stages); err != nil {
		return err
	}

	w.Name = name
	w.Description = description
	w.Stages = stages
	w.UpdatedAt = time.Now()

	w.AddDomainEvent(&WorkflowUpdatedEvent{
		WorkflowID: w.WorkflowID,
		Name:       name,
		StageCount: len(stages),
		UpdatedAt:  w.UpdatedAt,
	})

	return nil
}

// Archive hides the workflow from instantiation while keeping it for history
func (w *Workflow) Archive() error {
	if w.Lifecycle == LifecycleDeleted {
		return ErrWorkflowDeleted
	}

	w.Lifecycle = LifecycleArchived
	w.UpdatedAt = time.Now()

	w.AddDomainEvent(&WorkflowArchivedEvent{
		WorkflowID: w.WorkflowID,
		ArchivedAt: w.UpdatedAt,
	})

	return nil
}

// MarkDeleted tombstones the workflow. The caller is responsible for checking
// that no active items still reference it.
func (w *Workflow) MarkDeleted() {
	w.Lifecycle = LifecycleDeleted
	w.UpdatedAt = time.Now()

	w.AddDomainEvent(&WorkflowDeletedEvent{
		WorkflowID: w.WorkflowID,
		DeletedAt:  w.UpdatedAt,
	})
}

// AddDomainEvent adds a domain event
func (w *Workflow) AddDomainEvent(event DomainEvent) {
	w.DomainEvents = append(w.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (w *Workflow) ClearDomainEvents() {
	w.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (w *Workflow) GetDomainEvents() []DomainEvent {
	return w.DomainEvents
}

// Workflow Domain Events

// WorkflowCreatedEvent is emitted when a workflow is created
type WorkflowCreatedEvent struct {
	WorkflowID string    `json:"workflowId"`
	Name       string    `json:"name"`
	StageCount int       `json:"stageCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (e *WorkflowCreatedEvent) EventType() string     { return "workflow.created" }
func (e *WorkflowCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// WorkflowUpdatedEvent is emitted when a workflow definition changes
type WorkflowUpdatedEvent struct {
	WorkflowID string    `json:"workflowId"`
	Name       string    `json:"name"`
	StageCount int       `json:"stageCount"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (e *WorkflowUpdatedEvent) EventType() string     { return "workflow.updated" }
func (e *WorkflowUpdatedEvent) OccurredAt() time.Time { return e.UpdatedAt }

// WorkflowArchivedEvent is emitted when a workflow is archived
type WorkflowArchivedEvent struct {
	WorkflowID string    `json:"workflowId"`
	ArchivedAt time.Time `json:"archivedAt"`
}

func (e *WorkflowArchivedEvent) EventType() string     { return "workflow.archived" }
func (e *WorkflowArchivedEvent) OccurredAt() time.Time { return e.ArchivedAt }

// WorkflowDeletedEvent is emitted when a workflow is tombstoned
type WorkflowDeletedEvent struct {
	WorkflowID string    `json:"workflowId"`
	DeletedAt  time.Time `json:"deletedAt"`
}

func (e *WorkflowDeletedEvent) EventType() string     { return "workflow.deleted" }
func (e *WorkflowDeletedEvent) OccurredAt() time.Time { return e.DeletedAt }
