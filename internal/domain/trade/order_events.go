package trade

import (
	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderPaid          = "OrderPaid"
	EventTypeOrderPaymentFailed = "OrderPaymentFailed"
)

// OrderItemInfo represents item information for events
type OrderItemInfo struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// OrderPaidEvent is raised when reconciliation confirms an order payment
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderID          uuid.UUID       `json:"order_id"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	BusinessOwnerID  uuid.UUID       `json:"business_owner_id"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	PaymentReference string          `json:"payment_reference"`
	Items            []OrderItemInfo `json:"items"`
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(order *Order) *OrderPaidEvent {
	items := make([]OrderItemInfo, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemInfo{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}
	return &OrderPaidEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeOrderPaid, AggregateTypeOrder, order.ID),
		OrderID:          order.ID,
		CustomerID:       order.CustomerID,
		BusinessOwnerID:  order.BusinessOwnerID,
		TotalAmount:      order.TotalAmount,
		PaymentReference: order.PaymentReference,
		Items:            items,
	}
}

// OrderPaymentFailedEvent is raised when an order invoice expires or its payment fails
type OrderPaymentFailedEvent struct {
	shared.BaseDomainEvent
	OrderID          uuid.UUID `json:"order_id"`
	CustomerID       uuid.UUID `json:"customer_id"`
	BusinessOwnerID  uuid.UUID `json:"business_owner_id"`
	PaymentReference string    `json:"payment_reference"`
	Reason           string    `json:"reason"`
}

// NewOrderPaymentFailedEvent creates a new OrderPaymentFailedEvent
func NewOrderPaymentFailedEvent(order *Order) *OrderPaymentFailedEvent {
	return &OrderPaymentFailedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeOrderPaymentFailed, AggregateTypeOrder, order.ID),
		OrderID:          order.ID,
		CustomerID:       order.CustomerID,
		BusinessOwnerID:  order.BusinessOwnerID,
		PaymentReference: order.PaymentReference,
		Reason:           order.FailureReason,
	}
}
