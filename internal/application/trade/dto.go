package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderInvoiceRequest opens a hosted invoice for one order
type OrderInvoiceRequest struct {
	PayerEmail string `json:"payer_email" binding:"omitempty,email"`
}

// CartInvoiceRequest opens one hosted invoice covering several orders
type CartInvoiceRequest struct {
	OrderIDs   []uuid.UUID `json:"order_ids" binding:"required,min=1,max=50"`
	PayerEmail string      `json:"payer_email" binding:"omitempty,email"`
}

// PaymentRequestRequest charges a payment method directly for one order
type PaymentRequestRequest struct {
	OrderID     uuid.UUID `json:"order_id" binding:"required"`
	Type        string    `json:"type" binding:"required,oneof=CARD EWALLET VIRTUAL_ACCOUNT QR_CODE"`
	ChannelCode string    `json:"channel_code" binding:"omitempty,max=50"`
	CardTokenID string    `json:"card_token_id" binding:"required_if=Type CARD"`
}

// InvoiceResponse is the hosted invoice the customer should pay
type InvoiceResponse struct {
	InvoiceID         string          `json:"invoice_id"`
	InvoiceURL        string          `json:"invoice_url"`
	ExternalReference string          `json:"external_reference"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	OrderIDs          []uuid.UUID     `json:"order_ids"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
}

// PaymentRequestResponse is a direct charge awaiting completion
type PaymentRequestResponse struct {
	PaymentRequestID  string          `json:"payment_request_id"`
	Status            string          `json:"status"`
	ActionURL         string          `json:"action_url,omitempty"`
	ExternalReference string          `json:"external_reference"`
	Amount            decimal.Decimal `json:"amount"`
	OrderID           uuid.UUID       `json:"order_id"`
}
