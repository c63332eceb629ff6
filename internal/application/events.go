package application

import (
	"context"
	"fmt"

	"github.com/prodtrack-platform/tracking-service/internal/domain"
	"github.com/prodtrack-platform/tracking-service/pkg/cloudevents"
	"github.com/prodtrack-platform/tracking-service/pkg/kafka"
	"github.com/prodtrack-platform/tracking-service/pkg/outbox"
)

// Transactor runs a function within a storage transaction. Repository calls
// made with the provided context join the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// OutboxStore persists events for reliable background delivery
type OutboxStore interface {
	Save(ctx context.Context, event *outbox.OutboxEvent) error
	SaveAll(ctx context.Context, events []*outbox.OutboxEvent) error
}

// toOutboxEvents converts collected domain events into outbox entries wrapped
// in CloudEvents envelopes, routed to their topics.
func toOutboxEvents(ctx context.Context, factory *cloudevents.EventFactory, aggregateID, aggregateType string, events []domain.DomainEvent) ([]*outbox.OutboxEvent, error) {
	outboxEvents := make([]*outbox.OutboxEvent, 0, len(events))

	for _, event := range events {
		cloudEvent, err := toCloudEvent(ctx, factory, event)
		if err != nil {
			return nil, err
		}
		if cloudEvent == nil {
			continue
		}

		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(
			aggregateID,
			aggregateType,
			kafka.TopicForEventType(cloudEvent.Type),
			cloudEvent,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to build outbox event for %s: %w", event.EventType(), err)
		}
		outboxEvents = append(outboxEvents, outboxEvent)
	}

	return outboxEvents, nil
}

func toCloudEvent(ctx context.Context, factory *cloudevents.EventFactory, event domain.DomainEvent) (*cloudevents.CloudEvent, error) {
	switch e := event.(type) {
	case *domain.ItemCreatedEvent:
		return factory.CreateItemCreatedEvent(ctx, e.ItemID, e.WorkflowID, e.StageID, e.ActorID), nil

	case *domain.ItemAdvancedEvent:
		return factory.CreateItemAdvancedEvent(ctx, e.ItemID, e.WorkflowID, e.FromStageID, e.ToStageID, e.ActorID), nil

	case *domain.ItemCompletedEvent:
		return factory.CreateItemCompletedEvent(ctx, e.ItemID, e.WorkflowID, e.FinalStageName, e.StartedAt, e.CompletedAt, e.ActorID), nil

	case *domain.ItemMovedEvent:
		return factory.CreateItemMovedEvent(ctx, e.ItemID, e.FromLocationID, e.ToLocationID, e.MovedBy), nil

	case *domain.ItemPausedEvent:
		data := cloudevents.ItemStatusChangedData{ItemID: e.ItemID, Status: string(domain.ItemStatusPaused), ActorID: e.ActorID}
		return factory.CreateEvent(ctx, cloudevents.ItemPaused, "item/"+e.ItemID, data), nil

	case *domain.ItemResumedEvent:
		data := cloudevents.ItemStatusChangedData{ItemID: e.ItemID, Status: string(domain.ItemStatusActive), ActorID: e.ActorID}
		return factory.CreateEvent(ctx, cloudevents.ItemResumed, "item/"+e.ItemID, data), nil

	case *domain.WorkflowCreatedEvent:
		return factory.CreateWorkflowChangedEvent(ctx, cloudevents.WorkflowCreated, e.WorkflowID, e.Name, e.StageCount), nil

	case *domain.WorkflowUpdatedEvent:
		return factory.CreateWorkflowChangedEvent(ctx, cloudevents.WorkflowUpdated, e.WorkflowID, e.Name, e.StageCount), nil

	case *domain.WorkflowArchivedEvent:
		return factory.CreateWorkflowChangedEvent(ctx, cloudevents.WorkflowArchived, e.WorkflowID, "", 0), nil

	case *domain.WorkflowDeletedEvent:
		return factory.CreateWorkflowChangedEvent(ctx, cloudevents.WorkflowDeleted, e.WorkflowID, "", 0), nil

	case *domain.LocationCreatedEvent:
		data := cloudevents.LocationStageData{LocationID: e.LocationID}
		return factory.CreateEvent(ctx, cloudevents.LocationCreated, "location/"+e.LocationID, data), nil

	case *domain.LocationStageAssignedEvent:
		data := cloudevents.LocationStageData{LocationID: e.LocationID, StageID: e.StageID, WorkflowID: e.WorkflowID}
		return factory.CreateEvent(ctx, cloudevents.LocationStageLinked, "location/"+e.LocationID, data), nil

	case *domain.LocationStageUnassignedEvent:
		data := cloudevents.LocationStageData{LocationID: e.LocationID, StageID: e.StageID}
		return factory.CreateEvent(ctx, cloudevents.LocationStageCleared, "location/"+e.LocationID, data), nil

	default:
		// Unknown event types are skipped rather than failing the write.
		return nil, nil
	}
}
