package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/printmarket/backend/internal/domain/activity"
	"github.com/printmarket/backend/internal/domain/customization"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/domain/trade"
)

// ActivityLogHandler appends an activity entry for every payment outcome
type ActivityLogHandler struct {
	repo   activity.Repository
	logger *zap.Logger
}

// NewActivityLogHandler creates a new ActivityLogHandler
func NewActivityLogHandler(repo activity.Repository, logger *zap.Logger) *ActivityLogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityLogHandler{repo: repo, logger: logger}
}

// Name reports the handler name used in logs and metrics
func (h *ActivityLogHandler) Name() string { return "activity_log" }

// EventTypes returns the event types this handler is interested in
func (h *ActivityLogHandler) EventTypes() []string {
	return []string{
		trade.EventTypeOrderPaid,
		trade.EventTypeOrderPaymentFailed,
		customization.EventTypePaymentReceived,
		customization.EventTypePaymentFailed,
	}
}

// Handle records the event in the activity log
func (h *ActivityLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	entry, err := activityEntry(event)
	if err != nil {
		return err
	}
	if err := h.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("record %s activity: %w", event.EventType(), err)
	}
	return nil
}

func activityEntry(event shared.DomainEvent) (*activity.Log, error) {
	switch e := event.(type) {
	case *trade.OrderPaidEvent:
		return activity.NewLog(nil, trade.AggregateTypeOrder, e.OrderID, activity.ActionOrderPaid, map[string]any{
			"payment_reference": e.PaymentReference,
			"total_amount":      e.TotalAmount.String(),
			"items":             len(e.Items),
		}), nil
	case *trade.OrderPaymentFailedEvent:
		return activity.NewLog(nil, trade.AggregateTypeOrder, e.OrderID, activity.ActionOrderPaymentFailed, map[string]any{
			"payment_reference": e.PaymentReference,
			"reason":            e.Reason,
		}), nil
	case *customization.PaymentReceivedEvent:
		details := map[string]any{
			"payment_id":       e.PaymentID,
			"amount":           e.Amount.String(),
			"paid_amount":      e.PaidAmount.String(),
			"remaining_amount": e.RemainingAmount.String(),
			"ledger_status":    string(e.LedgerStatus),
		}
		if e.MilestoneID != nil {
			details["milestone_id"] = e.MilestoneID.String()
		}
		return activity.NewLog(nil, customization.AggregateTypeCustomizationRequest, e.RequestID, activity.ActionCustomizationPaid, details), nil
	case *customization.PaymentFailedEvent:
		return activity.NewLog(nil, customization.AggregateTypeCustomizationRequest, e.RequestID, activity.ActionCustomizationFailed, map[string]any{
			"payment_id": e.PaymentID,
			"amount":     e.Amount.String(),
			"reason":     e.Reason,
		}), nil
	default:
		return nil, fmt.Errorf("unexpected event type %s", event.EventType())
	}
}

var _ shared.EventHandler = (*ActivityLogHandler)(nil)
