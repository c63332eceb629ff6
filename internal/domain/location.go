package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Location errors
var (
	ErrLocationAtCapacity   = errors.New("location is at capacity")
	ErrLocationNotActive    = errors.New("location is not active")
	ErrInvalidLocationType  = errors.New("invalid location type")
	ErrQRCodeMissing        = errors.New("location qr code is required")
	ErrLocationNameMissing  = errors.New("location name is required")
	ErrStageAlreadyAssigned = errors.New("location already assigned to a stage")
)

// LocationType represents the physical form of a storage location
type LocationType string

const (
	LocationTypeBin   LocationType = "bin"
	LocationTypeShelf LocationType = "shelf"
	LocationTypeRack  LocationType = "rack"
	LocationTypeArea  LocationType = "area"
	LocationTypeZone  LocationType = "zone"
)

// IsValid checks if the location type is valid
func (t LocationType) IsValid() bool {
	switch t {
	case LocationTypeBin, LocationTypeShelf, LocationTypeRack, LocationTypeArea, LocationTypeZone:
		return true
	default:
		return false
	}
}

// Location represents a physical place on the factory floor that holds items.
// Capacity nil means unlimited. Occupancy is only mutated through the item
// move path, which persists it with a conditional update.
type Location struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	LocationID       string             `bson:"locationId"`
	Name             string             `bson:"name"`
	Type             LocationType       `bson:"type"`
	QRCode           string             `bson:"qrCode"`
	Capacity         *int               `bson:"capacity,omitempty"`
	CurrentOccupancy int                `bson:"currentOccupancy"`
	AssignedStageID  string             `bson:"assignedStageId,omitempty"`
	Lifecycle        Lifecycle          `bson:"lifecycle"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
	DomainEvents     []DomainEvent      `bson:"-"`
}

// NewLocation creates a new Location aggregate
func NewLocation(locationID, name string, locationType LocationType, qrCode string, capacity *int) (*Location, error) {
	if name == "" {
		return nil, ErrLocationNameMissing
	}
	if !locationType.IsValid() {
		return nil, ErrInvalidLocationType
	}
	if qrCode == "" {
		return nil, ErrQRCodeMissing
	}
	if capacity != nil && *capacity <= 0 {
		return nil, errors.New("capacity must be positive when set")
	}

	now := time.Now()
	location := &Location{
		LocationID:       locationID,
		Name:             name,
		Type:             locationType,
		QRCode:           qrCode,
		Capacity:         capacity,
		CurrentOccupancy: 0,
		Lifecycle:        LifecycleActive,
		CreatedAt:        now,
		UpdatedAt:        now,
		DomainEvents:     make([]DomainEvent, 0),
	}

	location.AddDomainEvent(&LocationCreatedEvent{
		LocationID:   locationID,
		Name:         name,
		LocationType: string(locationType),
		CreatedAt:    now,
	})

	return location, nil
}

// IsActive reports whether the location accepts items
func (l *Location) IsActive() bool {
	return l.Lifecycle == LifecycleActive
}

// HasCapacity reports whether the location can hold one more item
func (l *Location) HasCapacity() bool {
	return l.Capacity == nil || l.CurrentOccupancy < *l.Capacity
}

// AvailableCapacity returns the remaining slots, or -1 when unlimited
func (l *Location) AvailableCapacity() int {
	if l.Capacity == nil {
		return -1
	}
	remaining := *l.Capacity - l.CurrentOccupancy
	if remaining < 0 {
		return 0
	}
	return remaining
}

// AssignStage binds the location to a workflow stage
func (l *Location) AssignStage(workflowID, stageID string) error {
	if !l.IsActive() {
		return ErrLocationNotActive
	}

	l.AssignedStageID = stageID
	l.UpdatedAt = time.Now()

	l.AddDomainEvent(&LocationStageAssignedEvent{
		LocationID: l.LocationID,
		WorkflowID: workflowID,
		StageID:    stageID,
		AssignedAt: l.UpdatedAt,
	})

	return nil
}

// UnassignStage removes the stage binding
func (l *Location) UnassignStage() {
	stageID := l.AssignedStageID
	if stageID == "" {
		return
	}

	l.AssignedStageID = ""
	l.UpdatedAt = time.Now()

	l.AddDomainEvent(&LocationStageUnassignedEvent{
		LocationID:   l.LocationID,
		StageID:      stageID,
		UnassignedAt: l.UpdatedAt,
	})
}

// Archive removes the location from service
func (l *Location) Archive() {
	l.Lifecycle = LifecycleArchived
	l.UpdatedAt = time.Now()
}

// AddDomainEvent adds a domain event
func (l *Location) AddDomainEvent(event DomainEvent) {
	l.DomainEvents = append(l.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (l *Location) ClearDomainEvents() {
	l.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (l *Location) GetDomainEvents() []DomainEvent {
	return l.DomainEvents
}

// Location Domain Events

// LocationCreatedEvent is emitted when a location is created
type LocationCreatedEvent struct {
	LocationID   string    `json:"locationId"`
	Name         string    `json:"name"`
	LocationType string    `json:"locationType"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (e *LocationCreatedEvent) EventType() string     { return "location.created" }
func (e *LocationCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// LocationStageAssignedEvent is emitted when a location is bound to a stage
type LocationStageAssignedEvent struct {
	LocationID string    `json:"locationId"`
	WorkflowID string    `json:"workflowId"`
	StageID    string    `json:"stageId"`
	AssignedAt time.Time `json:"assignedAt"`
}

func (e *LocationStageAssignedEvent) EventType() string     { return "location.stage-assigned" }
func (e *LocationStageAssignedEvent) OccurredAt() time.Time { return e.AssignedAt }

// LocationStageUnassignedEvent is emitted when a stage binding is removed
type LocationStageUnassignedEvent struct {
	LocationID   string    `json:"locationId"`
	StageID      string    `json:"stageId"`
	UnassignedAt time.Time `json:"unassignedAt"`
}

func (e *LocationStageUnassignedEvent) EventType() string     { return "location.stage-unassigned" }
func (e *LocationStageUnassignedEvent) OccurredAt() time.Time { return e.UnassignedAt }
