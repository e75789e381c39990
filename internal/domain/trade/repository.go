package trade

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID returns nil, nil when the order does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDs returns the orders that exist among ids, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Order, error)

	// Save inserts or fully replaces an order
	Save(ctx context.Context, order *Order) error

	// SaveWithLock updates an order only if its persisted version still
	// matches order.Version, then increments the version
	SaveWithLock(ctx context.Context, order *Order) error
}
