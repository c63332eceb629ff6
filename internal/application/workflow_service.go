package application

import (
	"context"
	"fmt"

	"github.com/prodtrack-platform/tracking-service/internal/domain"
	"github.com/prodtrack-platform/tracking-service/pkg/cloudevents"
	"github.com/prodtrack-platform/tracking-service/pkg/errors"
	"github.com/prodtrack-platform/tracking-service/pkg/logging"
)

// WorkflowApplicationService handles workflow configuration use cases
type WorkflowApplicationService struct {
	workflows    domain.WorkflowRepository
	items        domain.ItemRepository
	outbox       OutboxStore
	tx           Transactor
	eventFactory *cloudevents.EventFactory
	logger       *logging.Logger
}

// NewWorkflowApplicationService creates a new WorkflowApplicationService
func NewWorkflowApplicationService(
	workflows domain.WorkflowRepository,
	items domain.ItemRepository,
	outboxStore OutboxStore,
	tx Transactor,
	eventFactory *cloudevents.EventFactory,
	logger *logging.Logger,
) *WorkflowApplicationService {
	return &WorkflowApplicationService{
		workflows:    workflows,
		items:        items,
		outbox:       outboxStore,
		tx:           tx,
		eventFactory: eventFactory,
		logger:       logger,
	}
}

// CreateWorkflow creates a new workflow after validating the stage graph
func (s *WorkflowApplicationService) CreateWorkflow(ctx context.Context, cmd CreateWorkflowCommand) (*WorkflowDTO, error) {
	existing, err := s.workflows.FindByWorkflowID(ctx, cmd.WorkflowID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to check workflow existence", "workflowId", cmd.WorkflowID)
		return nil, fmt.Errorf("failed to check workflow existence: %w", err)
	}
	if existing != nil {
		return nil, errors.ErrConflict(fmt.Sprintf("workflow %s already exists", cmd.WorkflowID))
	}

	workflow, err := domain.NewWorkflow(cmd.WorkflowID, cmd.Name, cmd.Description, ToStages(cmd.Stages))
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.persistWorkflow(ctx, workflow); err != nil {
		return nil, err
	}

	s.logger.Event(ctx, "workflow.created", map[string]any{
		"workflowId": workflow.WorkflowID,
		"name":       workflow.Name,
		"stageCount": len(workflow.Stages),
	})

	return ToWorkflowDTO(workflow), nil
}

// GetWorkflow retrieves a workflow by ID
func (s *WorkflowApplicationService) GetWorkflow(ctx context.Context, query GetWorkflowQuery) (*WorkflowDTO, error) {
	workflow, err := s.workflows.FindByWorkflowID(ctx, query.WorkflowID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get workflow", "workflowId", query.WorkflowID)
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	if workflow == nil {
		return nil, errors.ErrNotFoundWithID("workflow", query.WorkflowID)
	}

	return ToWorkflowDTO(workflow), nil
}

// ListWorkflows lists workflows, optionally including archived ones
func (s *WorkflowApplicationService) ListWorkflows(ctx context.Context, query ListWorkflowsQuery) ([]WorkflowDTO, error) {
	workflows, err := s.workflows.FindAll(ctx, query.IncludeArchived)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list workflows")
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return ToWorkflowDTOs(workflows), nil
}

// UpdateWorkflow replaces a workflow definition. Items already in flight keep
// their recorded history; only future transitions see the new graph.
func (s *WorkflowApplicationService) UpdateWorkflow(ctx context.Context, cmd UpdateWorkflowCommand) (*WorkflowDTO, error) {
	workflow, err := s.workflows.FindByWorkflowID(ctx, cmd.WorkflowID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get workflow", "workflowId", cmd.WorkflowID)
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	if workflow == nil {
		return nil, errors.ErrNotFoundWithID("workflow", cmd.WorkflowID)
	}

	if err := workflow.ApplyUpdate(cmd.Name, cmd.Description, ToStages(cmd.Stages)); err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.persistWorkflow(ctx, workflow); err != nil {
		return nil, err
	}

	s.logger.Event(ctx, "workflow.updated", map[string]any{
		"workflowId": workflow.WorkflowID,
		"stageCount": len(workflow.Stages),
	})

	return ToWorkflowDTO(workflow), nil
}

// ArchiveWorkflow hides a workflow from instantiation
func (s *WorkflowApplicationService) ArchiveWorkflow(ctx context.Context, cmd ArchiveWorkflowCommand) (*WorkflowDTO, error) {
	workflow, err := s.workflows.FindByWorkflowID(ctx, cmd.WorkflowID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get workflow", "workflowId", cmd.WorkflowID)
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	if workflow == nil {
		return nil, errors.ErrNotFoundWithID("workflow", cmd.WorkflowID)
	}

	if err := workflow.Archive(); err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.persistWorkflow(ctx, workflow); err != nil {
		return nil, err
	}

	s.logger.Audit(ctx, "archive", "workflow", workflow.WorkflowID, "", nil)
	return ToWorkflowDTO(workflow), nil
}

// DeleteWorkflow tombstones a workflow. Deletion is refused while active
// items still reference it; the blocking item ids are returned to the caller.
func (s *WorkflowApplicationService) DeleteWorkflow(ctx context.Context, cmd DeleteWorkflowCommand) error {
	workflow, err := s.workflows.FindByWorkflowID(ctx, cmd.WorkflowID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get workflow", "workflowId", cmd.WorkflowID)
		return fmt.Errorf("failed to get workflow: %w", err)
	}
	if workflow == nil {
		return errors.ErrNotFoundWithID("workflow", cmd.WorkflowID)
	}

	blocking, err := s.items.FindActiveByWorkflowID(ctx, cmd.WorkflowID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to check referencing items", "workflowId", cmd.WorkflowID)
		return fmt.Errorf("failed to check referencing items: %w", err)
	}
	if len(blocking) > 0 {
		ids := make([]string, len(blocking))
		for i, item := range blocking {
			ids[i] = item.ItemID
		}
		return errors.ErrReferentialIntegrity(
			fmt.Sprintf("workflow %s has %d items still in progress", cmd.WorkflowID, len(ids)),
			ids,
		)
	}

	workflow.MarkDeleted()

	if err := s.persistWorkflow(ctx, workflow); err != nil {
		return err
	}

	s.logger.Audit(ctx, "delete", "workflow", workflow.WorkflowID, "", nil)
	return nil
}

func (s *WorkflowApplicationService) persistWorkflow(ctx context.Context, workflow *domain.Workflow) error {
	outboxEvents, err := toOutboxEvents(ctx, s.eventFactory, workflow.WorkflowID, "workflow", workflow.GetDomainEvents())
	if err != nil {
		return fmt.Errorf("failed to build outbox events: %w", err)
	}

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.workflows.Save(txCtx, workflow); err != nil {
			return err
		}
		if len(outboxEvents) > 0 {
			return s.outbox.SaveAll(txCtx, outboxEvents)
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to persist workflow", "workflowId", workflow.WorkflowID)
		return fmt.Errorf("failed to persist workflow: %w", err)
	}

	workflow.ClearDomainEvents()
	return nil
}
