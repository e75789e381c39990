package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrProductNotFound is returned when no stock row exists for a product
	ErrProductNotFound = errors.New("inventory: product not found")
	// ErrInsufficientStock is returned when a decrement would go below zero
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	// ErrInvalidQuantity is returned for non-positive quantities
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
)

// MovementReason explains why stock changed
type MovementReason string

const (
	MovementReasonOrderPaid  MovementReason = "ORDER_PAID"
	MovementReasonAdjustment MovementReason = "ADJUSTMENT"
)

// ProductStock is the on-hand quantity of a catalog product
type ProductStock struct {
	ProductID uuid.UUID
	SKU       string
	Name      string
	Quantity  int
	UpdatedAt time.Time
}

// StockMovement records one change of on-hand quantity
type StockMovement struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	OrderID   *uuid.UUID
	Quantity  int
	Reason    MovementReason
	CreatedAt time.Time
}

// NewOrderMovement records a decrement caused by a paid order
func NewOrderMovement(productID, orderID uuid.UUID, quantity int) StockMovement {
	return StockMovement{
		ID:        uuid.New(),
		ProductID: productID,
		OrderID:   &orderID,
		Quantity:  -quantity,
		Reason:    MovementReasonOrderPaid,
		CreatedAt: time.Now(),
	}
}

// StockRepository persists product stock
type StockRepository interface {
	// FindByProductID returns nil, nil when no stock row exists
	FindByProductID(ctx context.Context, productID uuid.UUID) (*ProductStock, error)

	// Save inserts or replaces a stock row
	Save(ctx context.Context, stock *ProductStock) error

	// Decrement atomically lowers the quantity only if enough stock remains
	// and records the movement in the same transaction. It returns
	// ErrProductNotFound or ErrInsufficientStock when nothing was changed.
	Decrement(ctx context.Context, movement StockMovement) error
}
