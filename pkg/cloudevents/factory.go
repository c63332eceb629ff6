package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for tracking domain events
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new CloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *CloudEvent {
	return &CloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}
}

// CreateEventWithCorrelation creates an event with correlation tracking
func (f *EventFactory) CreateEventWithCorrelation(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
	correlationID string,
	workflowID string,
) *CloudEvent {
	event := f.CreateEvent(ctx, eventType, subject, data)
	event.CorrelationID = correlationID
	event.WorkflowID = workflowID
	return event
}

// CreateItemCreatedEvent creates an ItemCreated event
func (f *EventFactory) CreateItemCreatedEvent(
	ctx context.Context,
	itemID string,
	workflowID string,
	stageID string,
	actorID string,
) *CloudEvent {
	data := ItemCreatedData{
		ItemID:     itemID,
		WorkflowID: workflowID,
		StageID:    stageID,
		ActorID:    actorID,
	}
	event := f.CreateEvent(ctx, ItemCreated, "item/"+itemID, data)
	event.WorkflowID = workflowID
	return event
}

// CreateItemAdvancedEvent creates an ItemAdvanced event
func (f *EventFactory) CreateItemAdvancedEvent(
	ctx context.Context,
	itemID string,
	workflowID string,
	fromStageID string,
	toStageID string,
	actorID string,
) *CloudEvent {
	data := ItemAdvancedData{
		ItemID:      itemID,
		WorkflowID:  workflowID,
		FromStageID: fromStageID,
		ToStageID:   toStageID,
		ActorID:     actorID,
	}
	event := f.CreateEvent(ctx, ItemAdvanced, "item/"+itemID, data)
	event.WorkflowID = workflowID
	return event
}

// CreateItemCompletedEvent creates an ItemCompleted event
func (f *EventFactory) CreateItemCompletedEvent(
	ctx context.Context,
	itemID string,
	workflowID string,
	finalStageName string,
	startedAt time.Time,
	completedAt time.Time,
	actorID string,
) *CloudEvent {
	data := ItemCompletedData{
		ItemID:         itemID,
		WorkflowID:     workflowID,
		FinalStageName: finalStageName,
		StartedAt:      startedAt,
		CompletedAt:    completedAt,
		ActorID:        actorID,
	}
	event := f.CreateEvent(ctx, ItemCompleted, "item/"+itemID, data)
	event.WorkflowID = workflowID
	return event
}

// CreateItemMovedEvent creates an ItemMoved event
func (f *EventFactory) CreateItemMovedEvent(
	ctx context.Context,
	itemID string,
	fromLocationID string,
	toLocationID string,
	movedBy string,
) *CloudEvent {
	data := ItemMovedData{
		ItemID:         itemID,
		FromLocationID: fromLocationID,
		ToLocationID:   toLocationID,
		MovedBy:        movedBy,
	}
	return f.CreateEvent(ctx, ItemMoved, "item/"+itemID, data)
}

// CreateWorkflowChangedEvent creates a workflow lifecycle event
func (f *EventFactory) CreateWorkflowChangedEvent(
	ctx context.Context,
	eventType string,
	workflowID string,
	name string,
	stageCount int,
) *CloudEvent {
	data := WorkflowChangedData{
		WorkflowID: workflowID,
		Name:       name,
		StageCount: stageCount,
	}
	event := f.CreateEvent(ctx, eventType, "workflow/"+workflowID, data)
	event.WorkflowID = workflowID
	return event
}
