package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Channel selects how a notification reaches the recipient
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
)

// Kind names the business reason for a notification
type Kind string

const (
	KindOrderPaid                Kind = "order_paid"
	KindOrderPaymentFailed       Kind = "order_payment_failed"
	KindOrderReceived            Kind = "order_received"
	KindCustomizationPaid        Kind = "customization_payment_received"
	KindCustomizationPaymentFail Kind = "customization_payment_failed"
	KindPricingProposed          Kind = "pricing_proposed"
	KindPricingAgreed            Kind = "pricing_agreed"
)

// Notification is a message for one recipient. Delivery is handled by a
// downstream consumer; this service only hands it off.
type Notification struct {
	ID          uuid.UUID         `json:"id"`
	Kind        Kind              `json:"kind"`
	Channel     Channel           `json:"channel"`
	RecipientID uuid.UUID         `json:"recipient_id"`
	Subject     string            `json:"subject"`
	Message     string            `json:"message"`
	EntityType  string            `json:"entity_type"`
	EntityID    uuid.UUID         `json:"entity_id"`
	Data        map[string]string `json:"data,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// New creates a notification with a fresh ID
func New(kind Kind, channel Channel, recipientID uuid.UUID, subject, message string) Notification {
	return Notification{
		ID:          uuid.New(),
		Kind:        kind,
		Channel:     channel,
		RecipientID: recipientID,
		Subject:     subject,
		Message:     message,
		CreatedAt:   time.Now(),
	}
}

// Notifier hands notifications to the delivery pipeline
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
