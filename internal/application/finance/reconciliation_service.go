package finance

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appinventory "github.com/printmarket/backend/internal/application/inventory"
	"github.com/printmarket/backend/internal/domain/activity"
	"github.com/printmarket/backend/internal/domain/customization"
	"github.com/printmarket/backend/internal/domain/finance"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/domain/trade"
	"github.com/printmarket/backend/internal/infrastructure/logger"
	"github.com/printmarket/backend/internal/infrastructure/telemetry"
)

const (
	defaultRetryAttempts = 3
	defaultConcurrency   = 8
)

// StockCommitter decrements inventory for an order that was just paid
type StockCommitter interface {
	DecrementForOrder(ctx context.Context, order *trade.Order) []appinventory.ItemResult
}

// TargetResult is what reconciliation did to one owning record
type TargetResult struct {
	OwnerType finance.OwnerType
	OwnerID   uuid.UUID
	Outcome   string
	Reason    string
}

// ReconciliationResult summarizes one webhook delivery
type ReconciliationResult struct {
	Signal            finance.Signal
	GatewayPaymentID  string
	ExternalReference string
	Resolved          bool
	Targets           []TargetResult
}

// ReconciliationService turns gateway webhooks into order and escrow state.
// Correctness rests on the persisted-state guard plus versioned updates: a
// conflicting writer reloads and re-runs the guard, so a concurrent duplicate
// delivery becomes a no-op.
type ReconciliationService struct {
	verifier      finance.WebhookVerifier
	orderRepo     trade.OrderRepository
	requestRepo   customization.RequestRepository
	referenceRepo finance.PaymentReferenceRepository
	activityRepo  activity.Repository
	stock         StockCommitter
	publisher     shared.EventPublisher
	metrics       *telemetry.Metrics
	retryAttempts int
	concurrency   int
	logger        *zap.Logger
}

// ReconciliationServiceConfig holds the collaborators of ReconciliationService
type ReconciliationServiceConfig struct {
	Verifier      finance.WebhookVerifier
	OrderRepo     trade.OrderRepository
	RequestRepo   customization.RequestRepository
	ReferenceRepo finance.PaymentReferenceRepository
	ActivityRepo  activity.Repository
	Stock         StockCommitter
	Publisher     shared.EventPublisher
	Metrics       *telemetry.Metrics
	RetryAttempts int
	Concurrency   int
	Logger        *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(cfg ReconciliationServiceConfig) *ReconciliationService {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &ReconciliationService{
		verifier:      cfg.Verifier,
		orderRepo:     cfg.OrderRepo,
		requestRepo:   cfg.RequestRepo,
		referenceRepo: cfg.ReferenceRepo,
		activityRepo:  cfg.ActivityRepo,
		stock:         cfg.Stock,
		publisher:     cfg.Publisher,
		metrics:       cfg.Metrics,
		retryAttempts: attempts,
		concurrency:   concurrency,
		logger:        log,
	}
}

// HandleWebhook authenticates and reconciles one raw webhook delivery.
// It fails only for a bad signature or a store failure; unrecognized or
// unresolvable events are acknowledged.
func (s *ReconciliationService) HandleWebhook(ctx context.Context, body []byte, signature string) (*ReconciliationResult, error) {
	log := logger.For(ctx, s.logger)

	if err := s.verifier.Verify(body, signature); err != nil {
		reason := "signature"
		if errors.Is(err, finance.ErrGatewayNotConfigured) {
			reason = "not_configured"
		}
		s.metrics.RecordWebhookRejected(reason)
		log.Warn("Webhook rejected", zap.String("reason", reason), zap.Error(err))
		return nil, shared.ErrSignatureInvalid
	}

	evt, err := finance.DecodeWebhookEvent(body)
	if err != nil {
		s.metrics.RecordWebhook("unknown", telemetry.ResultIgnored)
		log.Info("Ignoring unrecognized webhook", zap.Int("body_bytes", len(body)), zap.Error(err))
		return &ReconciliationResult{}, nil
	}
	return s.Reconcile(ctx, evt)
}

// Reconcile applies a decoded webhook event to every record it references
func (s *ReconciliationService) Reconcile(ctx context.Context, evt *finance.WebhookEvent) (*ReconciliationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "reconcile",
		telemetry.WithAttribute("payment.signal", evt.Signal.String()),
		telemetry.WithAttribute("payment.gateway_id", evt.GatewayPaymentID),
		telemetry.WithAttribute("payment.external_reference", evt.ExternalReference),
	)
	defer span.End()

	log := logger.For(ctx, s.logger).With(
		zap.String("signal", evt.Signal.String()),
		zap.String("gateway_payment_id", evt.GatewayPaymentID),
		zap.String("external_reference", evt.ExternalReference))

	result := &ReconciliationResult{
		Signal:            evt.Signal,
		GatewayPaymentID:  evt.GatewayPaymentID,
		ExternalReference: evt.ExternalReference,
	}

	ownerType, ownerIDs, err := s.resolve(ctx, evt)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if len(ownerIDs) == 0 {
		s.metrics.RecordWebhook(evt.Signal.String(), telemetry.ResultUnresolved)
		log.Warn("Webhook references no known record")
		return result, nil
	}
	result.Resolved = true

	apply := s.applyToOrder
	if ownerType == finance.OwnerTypeCustomization {
		apply = s.applyToCustomization
	}

	targets := make([]TargetResult, len(ownerIDs))
	var (
		mu   sync.Mutex
		errs []error
	)
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, id := range ownerIDs {
		g.Go(func() error {
			target, err := apply(ctx, id, evt)
			target.OwnerType = ownerType
			target.OwnerID = id
			if err != nil {
				target.Outcome = telemetry.ResultError
				target.Reason = err.Error()
				log.Error("Failed to reconcile payment",
					zap.String("owner_type", string(ownerType)),
					zap.String("owner_id", id.String()),
					zap.Error(err))
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			targets[i] = target
			s.metrics.RecordWebhook(evt.Signal.String(), target.Outcome)
			return nil
		})
	}
	_ = g.Wait()
	result.Targets = targets

	if len(errs) > 0 {
		err := errors.Join(errs...)
		telemetry.RecordError(span, err)
		return result, err
	}
	telemetry.SetOK(span)
	return result, nil
}

// resolve maps an event to its owning records: first through the external
// reference, then through the payment reference index
func (s *ReconciliationService) resolve(ctx context.Context, evt *finance.WebhookEvent) (finance.OwnerType, []uuid.UUID, error) {
	if ref, err := finance.ParseExternalReference(evt.ExternalReference); err == nil {
		if ref.Kind == finance.ReferenceKindCustomization {
			return finance.OwnerTypeCustomization, ref.IDs, nil
		}
		return finance.OwnerTypeOrder, ref.IDs, nil
	}

	if evt.GatewayPaymentID == "" || s.referenceRepo == nil {
		return "", nil, nil
	}
	rows, err := s.referenceRepo.FindByGatewayPaymentID(ctx, evt.GatewayPaymentID)
	if err != nil {
		return "", nil, fmt.Errorf("lookup payment reference %s: %w", evt.GatewayPaymentID, err)
	}
	if len(rows) == 0 {
		return "", nil, nil
	}
	ownerType := rows[0].OwnerType
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if row.OwnerType == ownerType {
			ids = append(ids, row.OwnerID)
		}
	}
	logger.For(ctx, s.logger).Info("Resolved webhook through payment reference index",
		zap.String("gateway_payment_id", evt.GatewayPaymentID),
		zap.Int("owners", len(ids)))
	return ownerType, ids, nil
}

func (s *ReconciliationService) applyToOrder(ctx context.Context, orderID uuid.UUID, evt *finance.WebhookEvent) (TargetResult, error) {
	var (
		target TargetResult
		order  *trade.Order
	)

	err := shared.RetryOnConflict(ctx, s.retryAttempts, func(ctx context.Context) error {
		target = TargetResult{}
		order = nil

		loaded, err := s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("load order %s: %w", orderID, err)
		}
		if loaded == nil {
			target.Outcome = telemetry.ResultNotFound
			return nil
		}

		if evt.Signal.IsSuccess() {
			target = guardOrderPaid(loaded, evt)
			if target.Outcome != telemetry.ResultApplied {
				return nil
			}
			if err := loaded.ConfirmPayment(evt.GatewayPaymentID, evt.OccurredAt); err != nil {
				return err
			}
		} else {
			target = guardOrderFailed(loaded, evt)
			if target.Outcome != telemetry.ResultApplied {
				return nil
			}
			if err := loaded.FailPayment(evt.FailureReason); err != nil {
				return err
			}
		}

		if err := s.orderRepo.SaveWithLock(ctx, loaded); err != nil {
			return err
		}
		order = loaded
		return nil
	}, func(attempt int) {
		s.metrics.RecordLockRetry(trade.AggregateTypeOrder)
		logger.For(ctx, s.logger).Info("Order modified concurrently, retrying reconciliation",
			zap.String("order_id", orderID.String()),
			zap.Int("attempt", attempt))
	})
	if err != nil {
		return target, err
	}

	log := logger.For(ctx, s.logger).With(zap.String("order_id", orderID.String()))
	switch target.Outcome {
	case telemetry.ResultDiscrepancy:
		s.recordDiscrepancy(ctx, trade.AggregateTypeOrder, orderID, evt, target.Reason)
	case telemetry.ResultApplied:
		log.Info("Order payment reconciled", zap.String("signal", evt.Signal.String()))
		if evt.Signal.IsSuccess() && s.stock != nil {
			s.stock.DecrementForOrder(ctx, order)
		}
		s.publish(ctx, order.GetDomainEvents())
		order.ClearDomainEvents()
	default:
		log.Debug("Order payment event skipped",
			zap.String("outcome", target.Outcome),
			zap.String("reason", target.Reason))
	}
	return target, nil
}

// guardOrderPaid decides what a success signal may do to an order. A paid
// order only matches the payment that settled it.
func guardOrderPaid(order *trade.Order, evt *finance.WebhookEvent) TargetResult {
	switch {
	case order.IsPaymentConfirmed():
		if order.PaymentReference != "" && evt.GatewayPaymentID != "" && order.PaymentReference != evt.GatewayPaymentID {
			return TargetResult{
				Outcome: telemetry.ResultDiscrepancy,
				Reason:  "order already paid by " + order.PaymentReference + ", event reports " + evt.GatewayPaymentID,
			}
		}
		return TargetResult{Outcome: telemetry.ResultDuplicate}
	case !order.IsAwaitingPayment():
		return TargetResult{
			Outcome: telemetry.ResultDiscrepancy,
			Reason:  "payment received for order in status " + order.OrderStatus.String() + "/" + order.PaymentStatus.String(),
		}
	}
	if kind, err := finance.ParseExternalReference(evt.ExternalReference); err == nil &&
		kind.Kind == finance.ReferenceKindOrder &&
		evt.Amount.IsPositive() && !evt.Amount.Equal(order.TotalAmount) {
		return TargetResult{
			Outcome: telemetry.ResultDiscrepancy,
			Reason:  "paid amount " + evt.Amount.String() + " does not match order total " + order.TotalAmount.String(),
		}
	}
	return TargetResult{Outcome: telemetry.ResultApplied}
}

// guardOrderFailed decides what an expiry or failure signal may do to an order.
// A stale invoice for an order that has since been re-invoiced is ignored.
func guardOrderFailed(order *trade.Order, evt *finance.WebhookEvent) TargetResult {
	switch {
	case order.PaymentStatus == trade.PaymentStatusFailed && order.OrderStatus == trade.OrderStatusCancelled:
		return TargetResult{Outcome: telemetry.ResultDuplicate}
	case !order.IsAwaitingPayment():
		return TargetResult{Outcome: telemetry.ResultIgnored, Reason: "order is no longer awaiting payment"}
	case order.PaymentReference != "" && evt.GatewayPaymentID != "" && order.PaymentReference != evt.GatewayPaymentID:
		return TargetResult{Outcome: telemetry.ResultIgnored, Reason: "event refers to a superseded invoice"}
	}
	return TargetResult{Outcome: telemetry.ResultApplied}
}

func (s *ReconciliationService) applyToCustomization(ctx context.Context, requestID uuid.UUID, evt *finance.WebhookEvent) (TargetResult, error) {
	var (
		target  TargetResult
		request *customization.CustomizationRequest
	)

	err := shared.RetryOnConflict(ctx, s.retryAttempts, func(ctx context.Context) error {
		target = TargetResult{}
		request = nil

		loaded, err := s.requestRepo.FindByID(ctx, requestID)
		if err != nil {
			return fmt.Errorf("load customization request %s: %w", requestID, err)
		}
		if loaded == nil {
			target.Outcome = telemetry.ResultNotFound
			return nil
		}
		if loaded.Payment == nil {
			target = unmatchedPayment(evt, "request has no payment details")
			return nil
		}

		record := loaded.Payment.FindPayment(evt.GatewayPaymentID)
		if record == nil {
			record = loaded.Payment.FindPaymentByReference(evt.ExternalReference)
		}
		if record == nil {
			target = unmatchedPayment(evt, "no invoice "+evt.GatewayPaymentID+" on request")
			return nil
		}

		var res customization.PaymentResult
		if evt.Signal.IsSuccess() {
			amount := evt.Amount
			if !amount.IsPositive() {
				amount = record.Amount
			}
			res, err = loaded.ConfirmPayment(record.ID, amount, evt.TransactionID, evt.OccurredAt)
		} else {
			res, err = loaded.FailPayment(record.ID, evt.FailureReason)
		}
		if err != nil {
			return err
		}
		target = TargetResult{Outcome: string(res.Outcome), Reason: res.Reason}
		if res.Outcome != customization.OutcomeApplied {
			return nil
		}

		if err := s.requestRepo.SaveWithLock(ctx, loaded); err != nil {
			return err
		}
		request = loaded
		return nil
	}, func(attempt int) {
		s.metrics.RecordLockRetry(customization.AggregateTypeCustomizationRequest)
		logger.For(ctx, s.logger).Info("Customization request modified concurrently, retrying reconciliation",
			zap.String("request_id", requestID.String()),
			zap.Int("attempt", attempt))
	})
	if err != nil {
		return target, err
	}

	log := logger.For(ctx, s.logger).With(zap.String("request_id", requestID.String()))
	switch target.Outcome {
	case telemetry.ResultDiscrepancy:
		s.recordDiscrepancy(ctx, customization.AggregateTypeCustomizationRequest, requestID, evt, target.Reason)
	case telemetry.ResultApplied:
		log.Info("Customization payment reconciled",
			zap.String("signal", evt.Signal.String()),
			zap.String("paid_amount", request.Payment.PaidAmount.String()),
			zap.String("remaining_amount", request.Payment.RemainingAmount.String()),
			zap.String("ledger_status", string(request.Payment.PaymentStatus)))
		s.publish(ctx, request.GetDomainEvents())
		request.ClearDomainEvents()
	default:
		log.Debug("Customization payment event skipped",
			zap.String("outcome", target.Outcome),
			zap.String("reason", target.Reason))
	}
	return target, nil
}

// unmatchedPayment classifies an event whose invoice is unknown to the record.
// Money received for an unknown invoice needs an operator; a failure does not.
func unmatchedPayment(evt *finance.WebhookEvent, reason string) TargetResult {
	if evt.Signal.IsSuccess() {
		return TargetResult{Outcome: telemetry.ResultDiscrepancy, Reason: reason}
	}
	return TargetResult{Outcome: telemetry.ResultIgnored, Reason: reason}
}

func (s *ReconciliationService) recordDiscrepancy(ctx context.Context, entityType string, entityID uuid.UUID, evt *finance.WebhookEvent, reason string) {
	logger.For(ctx, s.logger).Warn("Payment discrepancy detected",
		zap.String("entity_type", entityType),
		zap.String("entity_id", entityID.String()),
		zap.String("gateway_payment_id", evt.GatewayPaymentID),
		zap.String("amount", evt.Amount.String()),
		zap.String("reason", reason))

	if s.activityRepo == nil {
		return
	}
	entry := activity.NewLog(nil, entityType, entityID, activity.ActionPaymentDiscrepancy, map[string]any{
		"signal":             evt.Signal.String(),
		"gateway_payment_id": evt.GatewayPaymentID,
		"external_reference": evt.ExternalReference,
		"amount":             evt.Amount.String(),
		"transaction_id":     evt.TransactionID,
		"reason":             reason,
	})
	if err := s.activityRepo.Create(ctx, entry); err != nil {
		logger.For(ctx, s.logger).Error("Failed to record payment discrepancy",
			zap.String("entity_id", entityID.String()),
			zap.Error(err))
	}
}

// publish hands committed events to the bus; failures are logged only
func (s *ReconciliationService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		logger.For(ctx, s.logger).Error("Failed to publish payment events",
			zap.Int("event_count", len(events)),
			zap.Error(err))
	}
}
