package finance

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnrecognizedEvent is returned when a body matches neither webhook shape
// or names an event this system does not handle
var ErrUnrecognizedEvent = errors.New("payment: unrecognized webhook event")

// Signal is the normalized meaning of an inbound payment event
type Signal string

const (
	SignalInvoicePaid      Signal = "invoice_paid"
	SignalInvoiceExpired   Signal = "invoice_expired"
	SignalPaymentSucceeded Signal = "payment_succeeded"
	SignalPaymentFailed    Signal = "payment_failed"
)

// IsSuccess reports whether the signal confirms money was received
func (s Signal) IsSuccess() bool {
	return s == SignalInvoicePaid || s == SignalPaymentSucceeded
}

// String returns the string representation of Signal
func (s Signal) String() string {
	return string(s)
}

// Wire event names of the wrapped shape
const (
	WireEventInvoicePaid             = "invoice.paid"
	WireEventInvoiceExpired          = "invoice.expired"
	WireEventPaymentRequestSucceeded = "payment_request.succeeded"
	WireEventPaymentRequestFailed    = "payment_request.failed"
)

// WebhookEvent is the provider-independent form of an inbound webhook
type WebhookEvent struct {
	Signal            Signal
	GatewayPaymentID  string
	ExternalReference string
	Amount            decimal.Decimal
	TransactionID     string
	PaymentMethod     string
	FailureReason     string
	OccurredAt        time.Time
}

// webhookEnvelope covers both wire shapes: {event, data} and the flat invoice body
type webhookEnvelope struct {
	Event  *string      `json:"event"`
	Data   *webhookData `json:"data"`
	Status *string      `json:"status"`
	webhookData
}

type webhookData struct {
	ID               string           `json:"id"`
	PaymentRequestID string           `json:"payment_request_id"`
	ExternalID       string           `json:"external_id"`
	ReferenceID      string           `json:"reference_id"`
	Status           string           `json:"status"`
	Amount           *decimal.Decimal `json:"amount"`
	PaidAmount       *decimal.Decimal `json:"paid_amount"`
	PaymentID        string           `json:"payment_id"`
	PaymentMethod    string           `json:"payment_method"`
	FailureCode      string           `json:"failure_code"`
	PaidAt           string           `json:"paid_at"`
	Updated          string           `json:"updated"`
}

// DecodeWebhookEvent decodes either wire shape and normalizes it into a
// WebhookEvent. Bodies carrying an "event" key are the wrapped shape; bodies
// carrying a top-level "status" are the flat invoice shape.
func DecodeWebhookEvent(body []byte) (*WebhookEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Join(ErrUnrecognizedEvent, err)
	}

	switch {
	case env.Event != nil:
		if env.Data == nil {
			return nil, ErrUnrecognizedEvent
		}
		signal, ok := wrappedSignal(*env.Event)
		if !ok {
			return nil, ErrUnrecognizedEvent
		}
		return normalize(signal, env.Data), nil
	case env.Status != nil:
		signal, ok := flatSignal(*env.Status)
		if !ok {
			return nil, ErrUnrecognizedEvent
		}
		return normalize(signal, &env.webhookData), nil
	}
	return nil, ErrUnrecognizedEvent
}

func wrappedSignal(event string) (Signal, bool) {
	switch event {
	case WireEventInvoicePaid:
		return SignalInvoicePaid, true
	case WireEventInvoiceExpired:
		return SignalInvoiceExpired, true
	case WireEventPaymentRequestSucceeded:
		return SignalPaymentSucceeded, true
	case WireEventPaymentRequestFailed:
		return SignalPaymentFailed, true
	}
	return "", false
}

func flatSignal(status string) (Signal, bool) {
	switch InvoiceStatus(strings.ToUpper(status)) {
	case InvoiceStatusPaid:
		return SignalInvoicePaid, true
	case InvoiceStatusExpired:
		return SignalInvoiceExpired, true
	}
	return "", false
}

func normalize(signal Signal, d *webhookData) *WebhookEvent {
	evt := &WebhookEvent{
		Signal:            signal,
		GatewayPaymentID:  d.ID,
		ExternalReference: d.ExternalID,
		TransactionID:     d.PaymentID,
		PaymentMethod:     d.PaymentMethod,
		FailureReason:     d.FailureCode,
		OccurredAt:        time.Now(),
	}

	// Payment request callbacks carry the charge ID in id and the request ID separately
	if d.PaymentRequestID != "" {
		evt.GatewayPaymentID = d.PaymentRequestID
		evt.TransactionID = d.ID
	}
	if evt.ExternalReference == "" {
		evt.ExternalReference = d.ReferenceID
	}

	switch {
	case d.PaidAmount != nil && d.PaidAmount.IsPositive():
		evt.Amount = *d.PaidAmount
	case d.Amount != nil:
		evt.Amount = *d.Amount
	}

	for _, raw := range []string{d.PaidAt, d.Updated} {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			evt.OccurredAt = ts
			break
		}
	}

	if !signal.IsSuccess() && evt.FailureReason == "" {
		if signal == SignalInvoiceExpired {
			evt.FailureReason = "invoice expired"
		} else {
			evt.FailureReason = "payment failed"
		}
	}
	return evt
}
