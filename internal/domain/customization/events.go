package customization

import (
	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeCustomizationRequest = "CustomizationRequest"

// Event type constants
const (
	EventTypePricingProposed = "CustomizationPricingProposed"
	EventTypePricingAgreed   = "CustomizationPricingAgreed"
	EventTypePaymentReceived = "CustomizationPaymentReceived"
	EventTypePaymentFailed   = "CustomizationPaymentFailed"
)

// PricingProposedEvent is raised when the designer proposes pricing
type PricingProposedEvent struct {
	shared.BaseDomainEvent
	RequestID   uuid.UUID       `json:"request_id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	DesignerID  uuid.UUID       `json:"designer_id"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	PaymentType PaymentType     `json:"payment_type"`
}

// NewPricingProposedEvent creates a new PricingProposedEvent
func NewPricingProposedEvent(r *CustomizationRequest) *PricingProposedEvent {
	return &PricingProposedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePricingProposed, AggregateTypeCustomizationRequest, r.ID),
		RequestID:       r.ID,
		CustomerID:      r.CustomerID,
		DesignerID:      r.DesignerID,
		TotalCost:       r.Pricing.TotalCost,
		PaymentType:     r.Payment.PaymentType,
	}
}

// PricingAgreedEvent is raised when the customer accepts the pricing
type PricingAgreedEvent struct {
	shared.BaseDomainEvent
	RequestID  uuid.UUID       `json:"request_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	DesignerID uuid.UUID       `json:"designer_id"`
	TotalCost  decimal.Decimal `json:"total_cost"`
}

// NewPricingAgreedEvent creates a new PricingAgreedEvent
func NewPricingAgreedEvent(r *CustomizationRequest) *PricingAgreedEvent {
	return &PricingAgreedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePricingAgreed, AggregateTypeCustomizationRequest, r.ID),
		RequestID:       r.ID,
		CustomerID:      r.CustomerID,
		DesignerID:      r.DesignerID,
		TotalCost:       r.Pricing.TotalCost,
	}
}

// PaymentReceivedEvent is raised when a gateway payment is applied to escrow
type PaymentReceivedEvent struct {
	shared.BaseDomainEvent
	RequestID       uuid.UUID       `json:"request_id"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	DesignerID      uuid.UUID       `json:"designer_id"`
	PrintingShopID  *uuid.UUID      `json:"printing_shop_id,omitempty"`
	PaymentID       string          `json:"payment_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	LedgerStatus    LedgerStatus    `json:"ledger_status"`
	MilestoneID     *uuid.UUID      `json:"milestone_id,omitempty"`
}

// NewPaymentReceivedEvent creates a new PaymentReceivedEvent
func NewPaymentReceivedEvent(r *CustomizationRequest, paymentID string, result PaymentResult) *PaymentReceivedEvent {
	return &PaymentReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReceived, AggregateTypeCustomizationRequest, r.ID),
		RequestID:       r.ID,
		CustomerID:      r.CustomerID,
		DesignerID:      r.DesignerID,
		PrintingShopID:  r.PrintingShopID,
		PaymentID:       paymentID,
		Amount:          result.Amount,
		PaidAmount:      r.Payment.PaidAmount,
		RemainingAmount: r.Payment.RemainingAmount,
		LedgerStatus:    r.Payment.PaymentStatus,
		MilestoneID:     result.MilestoneID,
	}
}

// PaymentFailedEvent is raised when a gateway payment expires or fails
type PaymentFailedEvent struct {
	shared.BaseDomainEvent
	RequestID  uuid.UUID       `json:"request_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	DesignerID uuid.UUID       `json:"designer_id"`
	PaymentID  string          `json:"payment_id"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
}

// NewPaymentFailedEvent creates a new PaymentFailedEvent
func NewPaymentFailedEvent(r *CustomizationRequest, paymentID, reason string, result PaymentResult) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentFailed, AggregateTypeCustomizationRequest, r.ID),
		RequestID:       r.ID,
		CustomerID:      r.CustomerID,
		DesignerID:      r.DesignerID,
		PaymentID:       paymentID,
		Amount:          result.Amount,
		Reason:          reason,
	}
}
