package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names recorded in the activity log
const (
	ActionOrderPaid            = "order.paid"
	ActionOrderPaymentFailed   = "order.payment_failed"
	ActionCustomizationPaid    = "customization.payment_received"
	ActionCustomizationFailed  = "customization.payment_failed"
	ActionPaymentDiscrepancy   = "payment.discrepancy"
	ActionStockDecrementFailed = "inventory.decrement_failed"
)

// Log is one append-only activity entry
type Log struct {
	ID         uuid.UUID
	ActorID    *uuid.UUID
	EntityType string
	EntityID   uuid.UUID
	Action     string
	Details    map[string]any
	CreatedAt  time.Time
}

// NewLog creates an activity entry
func NewLog(actorID *uuid.UUID, entityType string, entityID uuid.UUID, action string, details map[string]any) *Log {
	return &Log{
		ID:         uuid.New(),
		ActorID:    actorID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Details:    details,
		CreatedAt:  time.Now(),
	}
}

// Repository persists activity entries
type Repository interface {
	Create(ctx context.Context, entry *Log) error
	FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]Log, error)
}
