package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the fulfillment status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is allowed
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusProcessing || target == OrderStatusCancelled
	case OrderStatusProcessing:
		return target == OrderStatusShipped || target == OrderStatusCancelled
	case OrderStatusShipped:
		return target == OrderStatusDelivered
	}
	return false
}

// PaymentStatus represents the payment status of an order
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// OrderItem is a catalog line item of an order
type OrderItem struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Amount returns quantity * unit price
func (i OrderItem) Amount() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a purchase of catalog items by a customer from one business owner
type Order struct {
	shared.BaseAggregateRoot
	CustomerID       uuid.UUID
	BusinessOwnerID  uuid.UUID
	Items            []OrderItem
	TotalAmount      decimal.Decimal
	OrderStatus      OrderStatus
	PaymentStatus    PaymentStatus
	PaymentMethod    string
	PaymentReference string
	PaymentURL       string
	PaidAt           *time.Time
	FailureReason    string
}

// NewOrder creates a pending order and computes its total
func NewOrder(customerID, businessOwnerID uuid.UUID, items []OrderItem) (*Order, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Customer ID cannot be empty")
	}
	if businessOwnerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Business owner ID cannot be empty")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Order must have at least one item")
	}

	total := decimal.Zero
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, shared.NewDomainError(shared.CodeValidation, "Product ID cannot be empty")
		}
		if item.Quantity <= 0 {
			return nil, shared.NewDomainError(shared.CodeValidation, "Quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return nil, shared.NewDomainError(shared.CodeValidation, "Unit price cannot be negative")
		}
		total = total.Add(item.Amount())
	}

	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		BusinessOwnerID:   businessOwnerID,
		Items:             items,
		TotalAmount:       total,
		OrderStatus:       OrderStatusPending,
		PaymentStatus:     PaymentStatusPending,
	}, nil
}

// IsAwaitingPayment reports whether an invoice may be issued or settled for the order
func (o *Order) IsAwaitingPayment() bool {
	return o.OrderStatus == OrderStatusPending && o.PaymentStatus == PaymentStatusPending
}

// IsPaymentConfirmed reports whether a paid webhook has already been applied.
// It stays true while fulfilment moves the order past processing.
func (o *Order) IsPaymentConfirmed() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// AttachInvoice records the gateway invoice issued for this order
func (o *Order) AttachInvoice(paymentReference, paymentURL, paymentMethod string) error {
	if !o.IsAwaitingPayment() {
		return shared.NewDomainError(shared.CodeInvalidState, "Order is not awaiting payment")
	}
	if paymentReference == "" {
		return shared.NewDomainError(shared.CodeValidation, "Payment reference cannot be empty")
	}
	o.PaymentReference = paymentReference
	o.PaymentURL = paymentURL
	o.PaymentMethod = paymentMethod
	o.Touch()
	return nil
}

// ConfirmPayment moves the order to paid/processing
func (o *Order) ConfirmPayment(paymentReference string, paidAt time.Time) error {
	if !o.IsAwaitingPayment() {
		return shared.NewDomainError(shared.CodeInvalidState, "Order cannot accept payment in status "+o.OrderStatus.String()+"/"+o.PaymentStatus.String())
	}
	if paymentReference != "" {
		o.PaymentReference = paymentReference
	}
	o.PaymentStatus = PaymentStatusPaid
	o.OrderStatus = OrderStatusProcessing
	o.PaidAt = &paidAt
	o.Touch()

	o.AddDomainEvent(NewOrderPaidEvent(o))
	return nil
}

// FailPayment marks the payment as failed and cancels the order.
// Paid or terminal orders are never moved backward.
func (o *Order) FailPayment(reason string) error {
	if !o.IsAwaitingPayment() {
		return shared.NewDomainError(shared.CodeInvalidState, "Order cannot fail payment in status "+o.OrderStatus.String()+"/"+o.PaymentStatus.String())
	}
	o.PaymentStatus = PaymentStatusFailed
	o.OrderStatus = OrderStatusCancelled
	o.FailureReason = reason
	o.Touch()

	o.AddDomainEvent(NewOrderPaymentFailedEvent(o))
	return nil
}

// IsOwnedBy reports whether the customer placed this order
func (o *Order) IsOwnedBy(customerID uuid.UUID) bool {
	return o.CustomerID == customerID
}
