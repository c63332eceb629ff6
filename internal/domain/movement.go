package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MovementRecord is an append-only audit entry for an item changing location.
// Records are never mutated or deleted.
type MovementRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	ItemID         string             `bson:"itemId"`
	FromLocationID string             `bson:"fromLocationId,omitempty"`
	ToLocationID   string             `bson:"toLocationId"`
	MovedBy        string             `bson:"movedBy"`
	MovedAt        time.Time          `bson:"movedAt"`
	Notes          string             `bson:"notes,omitempty"`
	Metadata       map[string]string  `bson:"metadata,omitempty"`
}

// NewMovementRecord creates a movement audit entry
func NewMovementRecord(itemID, fromLocationID, toLocationID, movedBy, notes string) *MovementRecord {
	return &MovementRecord{
		ItemID:         itemID,
		FromLocationID: fromLocationID,
		ToLocationID:   toLocationID,
		MovedBy:        movedBy,
		MovedAt:        time.Now(),
		Notes:          notes,
	}
}
