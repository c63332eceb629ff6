package application

import (
	"context"
	"fmt"

	"github.com/prodtrack-platform/tracking-service/internal/domain"
	"github.com/prodtrack-platform/tracking-service/pkg/cloudevents"
	"github.com/prodtrack-platform/tracking-service/pkg/errors"
	"github.com/prodtrack-platform/tracking-service/pkg/logging"
)

// LocationApplicationService handles location configuration use cases
type LocationApplicationService struct {
	locations    domain.LocationRepository
	workflows    domain.WorkflowRepository
	outbox       OutboxStore
	tx           Transactor
	eventFactory *cloudevents.EventFactory
	logger       *logging.Logger
}

// NewLocationApplicationService creates a new LocationApplicationService
func NewLocationApplicationService(
	locations domain.LocationRepository,
	workflows domain.WorkflowRepository,
	outboxStore OutboxStore,
	tx Transactor,
	eventFactory *cloudevents.EventFactory,
	logger *logging.Logger,
) *LocationApplicationService {
	return &LocationApplicationService{
		locations:    locations,
		workflows:    workflows,
		outbox:       outboxStore,
		tx:           tx,
		eventFactory: eventFactory,
		logger:       logger,
	}
}

// CreateLocation creates a new location with a unique QR code
func (s *LocationApplicationService) CreateLocation(ctx context.Context, cmd CreateLocationCommand) (*LocationDTO, error) {
	existing, err := s.locations.FindByLocationID(ctx, cmd.LocationID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to check location existence", "locationId", cmd.LocationID)
		return nil, fmt.Errorf("failed to check location existence: %w", err)
	}
	if existing != nil {
		return nil, errors.ErrConflict(fmt.Sprintf("location %s already exists", cmd.LocationID))
	}

	byQR, err := s.locations.FindByQRCode(ctx, cmd.QRCode)
	if err != nil {
		s.logger.WithError(err).Error("Failed to check qr code uniqueness", "qrCode", cmd.QRCode)
		return nil, fmt.Errorf("failed to check qr code uniqueness: %w", err)
	}
	if byQR != nil {
		return nil, errors.ErrConflict(fmt.Sprintf("qr code %s is already registered to location %s", cmd.QRCode, byQR.LocationID))
	}

	location, err := domain.NewLocation(cmd.LocationID, cmd.Name, domain.LocationType(cmd.Type), cmd.QRCode, cmd.Capacity)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.persistLocation(ctx, location); err != nil {
		return nil, err
	}

	s.logger.Event(ctx, "location.created", map[string]any{
		"locationId": location.LocationID,
		"type":       string(location.Type),
	})

	return ToLocationDTO(location), nil
}

// GetLocation retrieves a location by ID
func (s *LocationApplicationService) GetLocation(ctx context.Context, query GetLocationQuery) (*LocationDTO, error) {
	location, err := s.locations.FindByLocationID(ctx, query.LocationID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get location", "locationId", query.LocationID)
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	if location == nil {
		return nil, errors.ErrNotFoundWithID("location", query.LocationID)
	}

	return ToLocationDTO(location), nil
}

// GetLocationByQRCode retrieves a location by its QR code
func (s *LocationApplicationService) GetLocationByQRCode(ctx context.Context, query GetLocationByQRCodeQuery) (*LocationDTO, error) {
	location, err := s.locations.FindByQRCode(ctx, query.QRCode)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get location by qr code", "qrCode", query.QRCode)
		return nil, fmt.Errorf("failed to get location by qr code: %w", err)
	}
	if location == nil {
		return nil, errors.ErrNotFoundWithID("location", query.QRCode)
	}

	return ToLocationDTO(location), nil
}

// ListLocations lists all non-deleted locations
func (s *LocationApplicationService) ListLocations(ctx context.Context) ([]LocationDTO, error) {
	locations, err := s.locations.FindAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list locations")
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}

	return ToLocationDTOs(locations), nil
}

// AssignStage binds a location to a workflow stage. The stage must exist in
// the referenced workflow.
func (s *LocationApplicationService) AssignStage(ctx context.Context, cmd AssignLocationStageCommand) (*LocationDTO, error) {
	location, err := s.locations.FindByLocationID(ctx, cmd.LocationID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get location", "locationId", cmd.LocationID)
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	if location == nil {
		return nil, errors.ErrNotFoundWithID("location", cmd.LocationID)
	}

	workflow, err := s.workflows.FindByWorkflowID(ctx, cmd.WorkflowID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get workflow", "workflowId", cmd.WorkflowID)
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	if workflow == nil {
		return nil, errors.ErrNotFoundWithID("workflow", cmd.WorkflowID)
	}

	if _, err := workflow.StageByID(cmd.StageID); err != nil {
		return nil, errors.ErrValidation(fmt.Sprintf("workflow %s has no stage %s", cmd.WorkflowID, cmd.StageID))
	}

	if err := location.AssignStage(cmd.WorkflowID, cmd.StageID); err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.persistLocation(ctx, location); err != nil {
		return nil, err
	}

	return ToLocationDTO(location), nil
}

// UnassignStage removes a location's stage binding
func (s *LocationApplicationService) UnassignStage(ctx context.Context, cmd UnassignLocationStageCommand) (*LocationDTO, error) {
	location, err := s.locations.FindByLocationID(ctx, cmd.LocationID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get location", "locationId", cmd.LocationID)
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	if location == nil {
		return nil, errors.ErrNotFoundWithID("location", cmd.LocationID)
	}

	location.UnassignStage()

	if err := s.persistLocation(ctx, location); err != nil {
		return nil, err
	}

	return ToLocationDTO(location), nil
}

func (s *LocationApplicationService) persistLocation(ctx context.Context, location *domain.Location) error {
	outboxEvents, err := toOutboxEvents(ctx, s.eventFactory, location.LocationID, "location", location.GetDomainEvents())
	if err != nil {
		return fmt.Errorf("failed to build outbox events: %w", err)
	}

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.locations.Save(txCtx, location); err != nil {
			return err
		}
		if len(outboxEvents) > 0 {
			return s.outbox.SaveAll(txCtx, outboxEvents)
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to persist location", "locationId", location.LocationID)
		return fmt.Errorf("failed to persist location: %w", err)
	}

	location.ClearDomainEvents()
	return nil
}
