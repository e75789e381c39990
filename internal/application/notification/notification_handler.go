package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printmarket/backend/internal/domain/customization"
	"github.com/printmarket/backend/internal/domain/notification"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/domain/trade"
)

// NotificationHandler turns payment events into notifications on one
// channel. In-app notifications go to both parties of the deal; email only
// goes to the paying customer.
type NotificationHandler struct {
	notifier notification.Notifier
	channel  notification.Channel
	logger   *zap.Logger
}

// NewNotificationHandler creates a handler that delivers on channel
func NewNotificationHandler(notifier notification.Notifier, channel notification.Channel, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{notifier: notifier, channel: channel, logger: logger}
}

// Name reports the handler name used in logs and metrics
func (h *NotificationHandler) Name() string { return "notification_" + string(h.channel) }

// EventTypes returns the event types this handler is interested in
func (h *NotificationHandler) EventTypes() []string {
	types := []string{
		trade.EventTypeOrderPaid,
		trade.EventTypeOrderPaymentFailed,
		customization.EventTypePaymentReceived,
		customization.EventTypePaymentFailed,
	}
	if h.channel == notification.ChannelInApp {
		types = append(types, customization.EventTypePricingProposed, customization.EventTypePricingAgreed)
	}
	return types
}

// Handle sends every notification derived from the event. One failed send
// does not stop the others.
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var errs []error
	for _, n := range h.build(event) {
		if err := h.notifier.Notify(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", n.RecipientID, err))
		}
	}
	return errors.Join(errs...)
}

func (h *NotificationHandler) build(event shared.DomainEvent) []notification.Notification {
	inApp := h.channel == notification.ChannelInApp
	var out []notification.Notification
	add := func(kind notification.Kind, recipient uuid.UUID, subject, message, entityType string, entityID uuid.UUID, data map[string]string) {
		n := notification.New(kind, h.channel, recipient, subject, message)
		n.EntityType = entityType
		n.EntityID = entityID
		n.Data = data
		out = append(out, n)
	}

	switch e := event.(type) {
	case *trade.OrderPaidEvent:
		data := map[string]string{"amount": e.TotalAmount.String(), "payment_reference": e.PaymentReference}
		add(notification.KindOrderPaid, e.CustomerID, "Payment received",
			"We received your payment of "+e.TotalAmount.StringFixed(2)+" for your order.",
			trade.AggregateTypeOrder, e.OrderID, data)
		if inApp {
			add(notification.KindOrderReceived, e.BusinessOwnerID, "New paid order",
				"An order was paid and is ready for processing.",
				trade.AggregateTypeOrder, e.OrderID, data)
		}
	case *trade.OrderPaymentFailedEvent:
		add(notification.KindOrderPaymentFailed, e.CustomerID, "Payment not completed",
			"Your order was cancelled because the payment was not completed.",
			trade.AggregateTypeOrder, e.OrderID, map[string]string{"reason": e.Reason})
	case *customization.PaymentReceivedEvent:
		data := map[string]string{
			"amount":           e.Amount.String(),
			"remaining_amount": e.RemainingAmount.String(),
			"ledger_status":    string(e.LedgerStatus),
		}
		add(notification.KindCustomizationPaid, e.CustomerID, "Payment received",
			"We received your payment of "+e.Amount.StringFixed(2)+". Remaining balance: "+e.RemainingAmount.StringFixed(2)+".",
			customization.AggregateTypeCustomizationRequest, e.RequestID, data)
		if inApp {
			add(notification.KindCustomizationPaid, e.DesignerID, "Customer payment held in escrow",
				"A payment of "+e.Amount.StringFixed(2)+" is held in escrow for your customization.",
				customization.AggregateTypeCustomizationRequest, e.RequestID, data)
		}
	case *customization.PaymentFailedEvent:
		add(notification.KindCustomizationPaymentFail, e.CustomerID, "Payment not completed",
			"Your payment of "+e.Amount.StringFixed(2)+" was not completed. You can try again.",
			customization.AggregateTypeCustomizationRequest, e.RequestID, map[string]string{"reason": e.Reason})
	case *customization.PricingProposedEvent:
		add(notification.KindPricingProposed, e.CustomerID, "Pricing proposed",
			"Your designer proposed a total of "+e.TotalCost.StringFixed(2)+".",
			customization.AggregateTypeCustomizationRequest, e.RequestID, map[string]string{"payment_type": string(e.PaymentType)})
	case *customization.PricingAgreedEvent:
		add(notification.KindPricingAgreed, e.DesignerID, "Pricing accepted",
			"The customer accepted your pricing of "+e.TotalCost.StringFixed(2)+".",
			customization.AggregateTypeCustomizationRequest, e.RequestID, nil)
	default:
		h.logger.Debug("No notification for event", zap.String("event_type", event.EventType()))
	}
	return out
}

// EmailDedupeKey keys confirmation emails on the business fact rather than
// the event ID, so a redelivered webhook that raised a fresh event does not
// send a second email
func EmailDedupeKey(event shared.DomainEvent) string {
	switch e := event.(type) {
	case *trade.OrderPaidEvent:
		return "email:order_paid:" + e.OrderID.String()
	case *trade.OrderPaymentFailedEvent:
		return "email:order_failed:" + e.OrderID.String()
	case *customization.PaymentReceivedEvent:
		return "email:customization_paid:" + e.RequestID.String() + ":" + e.PaymentID
	case *customization.PaymentFailedEvent:
		return "email:customization_failed:" + e.RequestID.String() + ":" + e.PaymentID
	}
	return ""
}

var _ shared.EventHandler = (*NotificationHandler)(nil)
