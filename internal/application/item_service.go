package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/prodtrack-platform/tracking-service/internal/domain"
	"github.com/prodtrack-platform/tracking-service/pkg/cloudevents"
	"github.com/prodtrack-platform/tracking-service/pkg/errors"
	"github.com/prodtrack-platform/tracking-service/pkg/logging"
	"github.com/prodtrack-platform/tracking-service/pkg/metrics"
)

// QR payload prefixes for scan resolution
const (
	scanPrefixItem     = "item:"
	scanPrefixLocation = "location:"
)

// ItemApplicationService handles item tracking use cases
type ItemApplicationService struct {
	items        domain.ItemRepository
	workflows    domain.WorkflowRepository
	locations    domain.LocationRepository
	movements    domain.MovementRepository
	outbox       OutboxStore
	tx           Transactor
	eventFactory *cloudevents.EventFactory
	logger       *logging.Logger
	metrics      *metrics.Metrics
}

// NewItemApplicationService creates a new ItemApplicationService
func NewItemApplicationService(
	items domain.ItemRepository,
	workflows domain.WorkflowRepository,
	locations domain.LocationRepository,
	movements domain.MovementRepository,
	outboxStore OutboxStore,
	tx Transactor,
	eventFactory *cloudevents.EventFactory,
	logger *logging.Logger,
	m *metrics.Metrics,
) *ItemApplicationService {
	return &ItemApplicationService{
		items:        items,
		workflows:    workflows,
		locations:    locations,
		movements:    movements,
		outbox:       outboxStore,
		tx:           tx,
		eventFactory: eventFactory,
		logger:       logger,
		metrics:      m,
	}
}

// CreateItem registers a new item at the entry stage of its workflow
func (s *ItemApplicationService) CreateItem(ctx context.Context, cmd CreateItemCommand) (*ItemDTO, error) {
	workflow, err := s.workflows.FindByWorkflowID(ctx, cmd.WorkflowID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load workflow", "workflowId", cmd.WorkflowID)
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}
	if workflow == nil {
		return nil, errors.ErrNotFoundWithID("workflow", cmd.WorkflowID)
	}

	existing, err := s.items.FindByItemID(ctx, cmd.ItemID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to check item existence", "itemId", cmd.ItemID)
		return nil, fmt.Errorf("failed to check item existence: %w", err)
	}
	if existing != nil {
		return nil, errors.ErrConflict(fmt.Sprintf("item %s already exists", cmd.ItemID))
	}

	item, err := domain.NewItem(cmd.ItemID, workflow, cmd.ActorID, cmd.Metadata)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.persistItem(ctx, item, func(txCtx context.Context) error {
		return s.items.Create(txCtx, item)
	}); err != nil {
		return nil, err
	}

	s.metrics.RecordItemCreated(workflow.WorkflowID)
	s.logger.Event(ctx, "item.created", map[string]any{
		"itemId":     item.ItemID,
		"workflowId": item.WorkflowID,
		"stageId":    item.CurrentStageID,
	})

	return ToItemDTO(item), nil
}

// GetItem retrieves an item, looking in the completed store as a fallback
func (s *ItemApplicationService) GetItem(ctx context.Context, query GetItemQuery) (*ItemDTO, error) {
	item, err := s.items.FindByItemID(ctx, query.ItemID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get item", "itemId", query.ItemID)
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	if item == nil {
		item, err = s.items.FindCompletedByItemID(ctx, query.ItemID)
		if err != nil {
			s.logger.WithError(err).Error("Failed to get completed item", "itemId", query.ItemID)
			return nil, fmt.Errorf("failed to get completed item: %w", err)
		}
	}

	if item == nil {
		return nil, errors.ErrNotFoundWithID("item", query.ItemID)
	}

	return ToItemDTO(item), nil
}

// ListItems lists items with optional status and workflow filters
func (s *ItemApplicationService) ListItems(ctx context.Context, query ListItemsQuery) ([]ItemDTO, error) {
	status := domain.ItemStatus(query.Status)
	if query.Status != "" && !status.IsValid() {
		return nil, errors.ErrValidation(fmt.Sprintf("invalid status filter: %s", query.Status))
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 100
	}

	items, err := s.items.FindAll(ctx, status, query.WorkflowID, limit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list items")
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return ToItemDTOs(items), nil
}

// AdvanceItem moves an item to its next stage, or completes it at a terminal
// stage. Required actions of the stage being entered (or the terminal stage
// being finished) are validated before anything is persisted.
func (s *ItemApplicationService) AdvanceItem(ctx context.Context, cmd AdvanceItemCommand) (*AdvanceResultDTO, error) {
	item, err := s.items.FindByItemID(ctx, cmd.ItemID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get item", "itemId", cmd.ItemID)
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if item == nil {
		return nil, errors.ErrNotFoundWithID("item", cmd.ItemID)
	}

	if item.Status != domain.ItemStatusActive {
		return nil, errors.ErrValidation(fmt.Sprintf("item %s is %s, only active items can advance", item.ItemID, item.Status))
	}

	workflow, err := s.workflows.FindByWorkflowID(ctx, item.WorkflowID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load workflow", "workflowId", item.WorkflowID)
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}
	if workflow == nil {
		return nil, errors.ErrNotFoundWithID("workflow", item.WorkflowID)
	}

	currentStage, err := workflow.StageByID(item.CurrentStageID)
	if err != nil {
		return nil, errors.ErrNotFoundWithID("stage", item.CurrentStageID)
	}

	if currentStage.IsTerminal() {
		return s.completeItem(ctx, item, workflow, currentStage, cmd)
	}

	target, appErr := s.selectTargetStage(workflow, currentStage, cmd.TargetStageID)
	if appErr != nil {
		return nil, appErr
	}

	if err := domain.ValidateCompletedActions(target, cmd.CompletedActions); err != nil {
		s.metrics.RecordValidationFailure(workflow.WorkflowID)
		return nil, mapCompletionError(err)
	}

	if err := item.AdvanceTo(target, cmd.ActorID, cmd.CompletedActions, cmd.Notes); err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.persistItem(ctx, item, func(txCtx context.Context) error {
		return s.items.Save(txCtx, item)
	}); err != nil {
		return nil, err
	}

	s.metrics.RecordItemAdvanced(workflow.WorkflowID)
	s.logger.Event(ctx, "item.advanced", map[string]any{
		"itemId":      item.ItemID,
		"workflowId":  item.WorkflowID,
		"fromStageId": currentStage.StageID,
		"toStageId":   target.StageID,
		"actorId":     cmd.ActorID,
	})

	return &AdvanceResultDTO{
		Status:    "advanced",
		Item:      ToItemDTO(item),
		NextStage: ToStageDTO(target),
	}, nil
}

func (s *ItemApplicationService) completeItem(ctx context.Context, item *domain.Item, workflow *domain.Workflow, finalStage *domain.Stage, cmd AdvanceItemCommand) (*AdvanceResultDTO, error) {
	if cmd.TargetStageID != "" && cmd.TargetStageID != finalStage.StageID {
		return nil, errors.ErrValidation(fmt.Sprintf("stage %s is terminal, no transition to %s is possible", finalStage.StageID, cmd.TargetStageID))
	}

	if err := domain.ValidateCompletedActions(finalStage, cmd.CompletedActions); err != nil {
		s.metrics.RecordValidationFailure(workflow.WorkflowID)
		return nil, mapCompletionError(err)
	}

	if err := item.Complete(finalStage, cmd.ActorID, cmd.CompletedActions, cmd.Notes); err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.persistItem(ctx, item, func(txCtx context.Context) error {
		return s.items.MoveToCompleted(txCtx, item)
	}); err != nil {
		return nil, err
	}

	s.metrics.RecordItemCompleted(workflow.WorkflowID)
	s.logger.Event(ctx, "item.completed", map[string]any{
		"itemId":         item.ItemID,
		"workflowId":     item.WorkflowID,
		"finalStageName": item.FinalStageName,
		"actorId":        cmd.ActorID,
	})

	return &AdvanceResultDTO{
		Status: "completed",
		Item:   ToItemDTO(item),
	}, nil
}

// selectTargetStage resolves the stage to enter: an explicit target must be
// one of the allowed next stages, otherwise the first allowed stage is used.
func (s *ItemApplicationService) selectTargetStage(workflow *domain.Workflow, currentStage *domain.Stage, targetStageID string) (*domain.Stage, *errors.AppError) {
	next, err := workflow.AllowedNextStages(currentStage.StageID)
	if err != nil {
		return nil, errors.ErrInternal("workflow stage graph is inconsistent").Wrap(err)
	}

	if targetStageID == "" {
		return next[0], nil
	}

	for _, stage := range next {
		if stage.StageID == targetStageID {
			return stage, nil
		}
	}

	allowed := make([]string, len(next))
	for i, stage := range next {
		allowed[i] = stage.StageID
	}
	return nil, errors.ErrValidation(fmt.Sprintf("stage %s is not reachable from %s", targetStageID, currentStage.StageID)).
		WithDetail("allowedNextStageIds", strings.Join(allowed, ","))
}

// MoveItemToLocation relocates an item, maintaining location occupancy and the
// movement audit trail. The target's occupancy is claimed with a conditional
// update before any other effect, so capacity is never exceeded.
func (s *ItemApplicationService) MoveItemToLocation(ctx context.Context, cmd MoveItemCommand) (*MovementDTO, error) {
	item, err := s.items.FindByItemID(ctx, cmd.ItemID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get item", "itemId", cmd.ItemID)
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if item == nil {
		return nil, errors.ErrNotFoundWithID("item", cmd.ItemID)
	}

	location, err := s.locations.FindByLocationID(ctx, cmd.LocationID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get location", "locationId", cmd.LocationID)
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	if location == nil {
		return nil, errors.ErrNotFoundWithID("location", cmd.LocationID)
	}
	if !location.IsActive() {
		return nil, errors.ErrValidation(fmt.Sprintf("location %s is %s", location.LocationID, location.Lifecycle))
	}

	previousLocationID := item.CurrentLocationID
	if previousLocationID == cmd.LocationID {
		return nil, errors.ErrValidation(fmt.Sprintf("item %s is already at location %s", cmd.ItemID, cmd.LocationID))
	}

	if err := s.locations.Occupy(ctx, cmd.LocationID); err != nil {
		if stderrors.Is(err, domain.ErrLocationAtCapacity) {
			s.metrics.RecordCapacityRejection()
			return nil, errors.ErrCapacityExceeded(cmd.LocationID)
		}
		s.logger.WithError(err).Error("Failed to occupy location", "locationId", cmd.LocationID)
		return nil, fmt.Errorf("failed to occupy location: %w", err)
	}

	item.MoveTo(cmd.LocationID, cmd.MovedBy)
	record := domain.NewMovementRecord(item.ItemID, previousLocationID, cmd.LocationID, cmd.MovedBy, cmd.Notes)

	err = s.persistItem(ctx, item, func(txCtx context.Context) error {
		if err := s.items.Save(txCtx, item); err != nil {
			return err
		}
		return s.movements.Record(txCtx, record)
	})
	if err != nil {
		// Give back the claimed slot so occupancy stays consistent.
		if releaseErr := s.locations.Release(ctx, cmd.LocationID); releaseErr != nil {
			s.logger.WithError(releaseErr).Error("Failed to release location after aborted move", "locationId", cmd.LocationID)
		}
		return nil, err
	}

	if previousLocationID != "" {
		if err := s.locations.Release(ctx, previousLocationID); err != nil {
			s.logger.WithError(err).Error("Failed to release previous location", "locationId", previousLocationID)
		}
	}

	s.metrics.RecordItemMoved(string(location.Type))
	s.logger.Event(ctx, "item.moved", map[string]any{
		"itemId":         item.ItemID,
		"fromLocationId": previousLocationID,
		"toLocationId":   cmd.LocationID,
		"movedBy":        cmd.MovedBy,
	})

	return ToMovementDTO(record), nil
}

// PauseItem suspends tracking for an item
func (s *ItemApplicationService) PauseItem(ctx context.Context, cmd PauseItemCommand) (*ItemDTO, error) {
	item, err := s.items.FindByItemID(ctx, cmd.ItemID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get item", "itemId", cmd.ItemID)
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if item == nil {
		return nil, errors.ErrNotFoundWithID("item", cmd.ItemID)
	}

	if err := item.Pause(cmd.ActorID, cmd.Reason); err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.persistItem(ctx, item, func(txCtx context.Context) error {
		return s.items.Save(txCtx, item)
	}); err != nil {
		return nil, err
	}

	s.logger.Audit(ctx, "pause", "item", item.ItemID, cmd.ActorID, map[string]any{"reason": cmd.Reason})
	return ToItemDTO(item), nil
}

// ResumeItem resumes tracking for a paused item
func (s *ItemApplicationService) ResumeItem(ctx context.Context, cmd ResumeItemCommand) (*ItemDTO, error) {
	item, err := s.items.FindByItemID(ctx, cmd.ItemID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get item", "itemId", cmd.ItemID)
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if item == nil {
		return nil, errors.ErrNotFoundWithID("item", cmd.ItemID)
	}

	if err := item.Resume(cmd.ActorID); err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.persistItem(ctx, item, func(txCtx context.Context) error {
		return s.items.Save(txCtx, item)
	}); err != nil {
		return nil, err
	}

	s.logger.Audit(ctx, "resume", "item", item.ItemID, cmd.ActorID, nil)
	return ToItemDTO(item), nil
}

// GetItemMovements retrieves an item's movement history, newest first
func (s *ItemApplicationService) GetItemMovements(ctx context.Context, query GetItemMovementsQuery) ([]MovementDTO, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}

	records, err := s.movements.FindByItemID(ctx, query.ItemID, limit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get movements", "itemId", query.ItemID)
		return nil, fmt.Errorf("failed to get movements: %w", err)
	}

	return ToMovementDTOs(records), nil
}

// ListRecentMovements retrieves the latest movements across all items
func (s *ItemApplicationService) ListRecentMovements(ctx context.Context, query ListRecentMovementsQuery) ([]MovementDTO, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}

	records, err := s.movements.FindRecent(ctx, limit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list recent movements")
		return nil, fmt.Errorf("failed to list recent movements: %w", err)
	}

	return ToMovementDTOs(records), nil
}

// ResolveScan decodes a QR payload and returns the entity it refers to.
// Payloads use the item:<itemId> and location:<qrCode> conventions.
func (s *ItemApplicationService) ResolveScan(ctx context.Context, cmd ResolveScanCommand) (*ScanResolutionDTO, error) {
	switch {
	case strings.HasPrefix(cmd.Payload, scanPrefixItem):
		itemID := strings.TrimPrefix(cmd.Payload, scanPrefixItem)
		itemDTO, err := s.GetItem(ctx, GetItemQuery{ItemID: itemID})
		if err != nil {
			return nil, err
		}
		return &ScanResolutionDTO{Kind: "item", Item: itemDTO}, nil

	case strings.HasPrefix(cmd.Payload, scanPrefixLocation):
		qrCode := strings.TrimPrefix(cmd.Payload, scanPrefixLocation)
		location, err := s.locations.FindByQRCode(ctx, qrCode)
		if err != nil {
			s.logger.WithError(err).Error("Failed to resolve location scan", "qrCode", qrCode)
			return nil, fmt.Errorf("failed to resolve location scan: %w", err)
		}
		if location == nil {
			return nil, errors.ErrNotFoundWithID("location", qrCode)
		}
		return &ScanResolutionDTO{Kind: "location", Location: ToLocationDTO(location)}, nil

	default:
		return nil, errors.ErrValidation("unrecognized scan payload, expected item: or location: prefix")
	}
}

// persistItem writes the item and its collected domain events in one
// transaction, then clears the events.
func (s *ItemApplicationService) persistItem(ctx context.Context, item *domain.Item, write func(ctx context.Context) error) error {
	outboxEvents, err := toOutboxEvents(ctx, s.eventFactory, item.ItemID, "item", item.GetDomainEvents())
	if err != nil {
		return fmt.Errorf("failed to build outbox events: %w", err)
	}

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := write(txCtx); err != nil {
			return err
		}
		if len(outboxEvents) > 0 {
			return s.outbox.SaveAll(txCtx, outboxEvents)
		}
		return nil
	})
	if err != nil {
		if stderrors.Is(err, domain.ErrVersionConflict) {
			return errors.ErrConflict("item was modified concurrently, retry the operation")
		}
		s.logger.WithError(err).Error("Failed to persist item", "itemId", item.ItemID)
		return fmt.Errorf("failed to persist item: %w", err)
	}

	item.ClearDomainEvents()
	return nil
}

// mapCompletionError converts action validation failures to AppErrors with
// the offending labels in the details.
func mapCompletionError(err error) *errors.AppError {
	var missing *domain.MissingActionsError
	if stderrors.As(err, &missing) {
		return errors.ErrValidation("required actions not completed").
			WithDetail("missingActions", strings.Join(missing.Labels, ", "))
	}

	var completion *domain.CompletionError
	if stderrors.As(err, &completion) {
		return errors.ErrValidation(completion.Error()).
			WithDetail("action", completion.ActionLabel)
	}

	return errors.ErrValidation(err.Error())
}
