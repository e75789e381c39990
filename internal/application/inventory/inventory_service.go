package inventory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/printmarket/backend/internal/domain/activity"
	"github.com/printmarket/backend/internal/domain/inventory"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/domain/trade"
	"github.com/printmarket/backend/internal/infrastructure/logger"
	"github.com/printmarket/backend/internal/infrastructure/telemetry"
)

// DefaultFanOutConcurrency bounds concurrent line-item decrements
const DefaultFanOutConcurrency = 8

// ItemResult is the outcome of decrementing one order line
type ItemResult struct {
	ProductID   uuid.UUID
	Quantity    int
	Decremented bool
	Err         error
}

// InventoryService commits stock for paid orders
type InventoryService struct {
	stockRepo    inventory.StockRepository
	activityRepo activity.Repository
	metrics      *telemetry.Metrics
	concurrency  int
	logger       *zap.Logger
}

// InventoryServiceConfig holds the collaborators of InventoryService
type InventoryServiceConfig struct {
	StockRepo    inventory.StockRepository
	ActivityRepo activity.Repository
	Metrics      *telemetry.Metrics
	Concurrency  int
	Logger       *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(cfg InventoryServiceConfig) *InventoryService {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultFanOutConcurrency
	}
	return &InventoryService{
		stockRepo:    cfg.StockRepo,
		activityRepo: cfg.ActivityRepo,
		metrics:      cfg.Metrics,
		concurrency:  concurrency,
		logger:       log,
	}
}

// DecrementStock lowers the on-hand quantity of one product and records the
// movement. It returns false without error when the product is unknown or
// stock is insufficient.
func (s *InventoryService) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int, orderID uuid.UUID) (bool, error) {
	if quantity <= 0 {
		return false, shared.NewDomainError(shared.CodeValidation, "Quantity must be positive")
	}

	err := s.stockRepo.Decrement(ctx, inventory.NewOrderMovement(productID, orderID, quantity))
	switch {
	case err == nil:
		s.metrics.RecordStockDecrement(telemetry.ResultApplied)
		return true, nil
	case errors.Is(err, inventory.ErrProductNotFound):
		s.metrics.RecordStockDecrement(telemetry.ResultNotFound)
		return false, nil
	case errors.Is(err, inventory.ErrInsufficientStock):
		s.metrics.RecordStockDecrement(telemetry.ResultInsufficient)
		return false, nil
	default:
		s.metrics.RecordStockDecrement(telemetry.ResultError)
		return false, err
	}
}

// DecrementForOrder decrements every line item of a paid order independently.
// A failing item never stops the others and never fails the caller; each
// failure is logged and recorded in the activity log.
func (s *InventoryService) DecrementForOrder(ctx context.Context, order *trade.Order) []ItemResult {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "decrement_for_order",
		telemetry.WithAttribute("order.id", order.ID.String()),
		telemetry.WithAttribute("order.items", len(order.Items)),
	)
	defer span.End()

	log := logger.For(ctx, s.logger).With(zap.String("order_id", order.ID.String()))
	results := make([]ItemResult, len(order.Items))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, item := range order.Items {
		g.Go(func() error {
			ok, err := s.DecrementStock(ctx, item.ProductID, item.Quantity, order.ID)

			mu.Lock()
			results[i] = ItemResult{ProductID: item.ProductID, Quantity: item.Quantity, Decremented: ok, Err: err}
			mu.Unlock()

			if ok {
				return nil
			}
			reason := "insufficient stock or unknown product"
			if err != nil {
				reason = err.Error()
			}
			log.Warn("Stock decrement failed",
				zap.String("product_id", item.ProductID.String()),
				zap.Int("quantity", item.Quantity),
				zap.String("reason", reason))
			s.recordFailure(ctx, order.ID, item, reason)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if !r.Decremented {
			failed++
		}
	}
	telemetry.SetAttributes(span, "inventory.failed_items", failed)
	telemetry.SetOK(span)
	return results
}

func (s *InventoryService) recordFailure(ctx context.Context, orderID uuid.UUID, item trade.OrderItem, reason string) {
	if s.activityRepo == nil {
		return
	}
	entry := activity.NewLog(nil, trade.AggregateTypeOrder, orderID, activity.ActionStockDecrementFailed, map[string]any{
		"product_id": item.ProductID.String(),
		"quantity":   item.Quantity,
		"reason":     reason,
	})
	if err := s.activityRepo.Create(ctx, entry); err != nil {
		logger.For(ctx, s.logger).Error("Failed to record stock decrement failure",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
	}
}
