package notification

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printmarket/backend/internal/domain/customization"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/domain/trade"
)

// CacheInvalidator drops read-model cache entries
type CacheInvalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// Read-model cache keys touched by payment state changes
func OrderKey(id uuid.UUID) string                  { return "order:" + id.String() }
func CustomerOrdersKey(id uuid.UUID) string         { return "orders:customer:" + id.String() }
func BusinessOrdersKey(id uuid.UUID) string         { return "orders:business:" + id.String() }
func CustomizationKey(id uuid.UUID) string          { return "customization:" + id.String() }
func CustomerCustomizationsKey(id uuid.UUID) string { return "customizations:customer:" + id.String() }
func DesignerCustomizationsKey(id uuid.UUID) string { return "customizations:designer:" + id.String() }

// CacheInvalidationHandler evicts cached views of orders and customization
// requests after their payment state changes
type CacheInvalidationHandler struct {
	invalidator CacheInvalidator
	logger      *zap.Logger
}

// NewCacheInvalidationHandler creates a new CacheInvalidationHandler
func NewCacheInvalidationHandler(invalidator CacheInvalidator, logger *zap.Logger) *CacheInvalidationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheInvalidationHandler{invalidator: invalidator, logger: logger}
}

// Name reports the handler name used in logs and metrics
func (h *CacheInvalidationHandler) Name() string { return "cache_invalidation" }

// EventTypes returns the event types this handler is interested in
func (h *CacheInvalidationHandler) EventTypes() []string {
	return []string{
		trade.EventTypeOrderPaid,
		trade.EventTypeOrderPaymentFailed,
		customization.EventTypePricingProposed,
		customization.EventTypePricingAgreed,
		customization.EventTypePaymentReceived,
		customization.EventTypePaymentFailed,
	}
}

// Handle invalidates every key derived from the event
func (h *CacheInvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	keys := InvalidationKeys(event)
	if len(keys) == 0 {
		return nil
	}
	return h.invalidator.Invalidate(ctx, keys...)
}

// InvalidationKeys returns the cache keys affected by event
func InvalidationKeys(event shared.DomainEvent) []string {
	switch e := event.(type) {
	case *trade.OrderPaidEvent:
		return orderKeys(e.OrderID, e.CustomerID, e.BusinessOwnerID)
	case *trade.OrderPaymentFailedEvent:
		return orderKeys(e.OrderID, e.CustomerID, e.BusinessOwnerID)
	case *customization.PricingProposedEvent:
		return customizationKeys(e.RequestID, e.CustomerID, e.DesignerID)
	case *customization.PricingAgreedEvent:
		return customizationKeys(e.RequestID, e.CustomerID, e.DesignerID)
	case *customization.PaymentReceivedEvent:
		return customizationKeys(e.RequestID, e.CustomerID, e.DesignerID)
	case *customization.PaymentFailedEvent:
		return customizationKeys(e.RequestID, e.CustomerID, e.DesignerID)
	}
	return nil
}

func orderKeys(orderID, customerID, businessOwnerID uuid.UUID) []string {
	return []string{OrderKey(orderID), CustomerOrdersKey(customerID), BusinessOrdersKey(businessOwnerID)}
}

func customizationKeys(requestID, customerID, designerID uuid.UUID) []string {
	return []string{CustomizationKey(requestID), CustomerCustomizationsKey(customerID), DesignerCustomizationsKey(designerID)}
}

var _ shared.EventHandler = (*CacheInvalidationHandler)(nil)
