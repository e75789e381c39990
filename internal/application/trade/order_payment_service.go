package trade

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appfinance "github.com/printmarket/backend/internal/application/finance"
	"github.com/printmarket/backend/internal/domain/finance"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/domain/trade"
	"github.com/printmarket/backend/internal/infrastructure/logger"
	"github.com/printmarket/backend/internal/infrastructure/telemetry"
)

const defaultRetryAttempts = 3

// Gateway is the part of the gateway service order payment needs
type Gateway interface {
	Currency() string
	CreateInvoice(ctx context.Context, in appfinance.InvoiceInput) (*finance.Invoice, error)
	CreatePaymentRequest(ctx context.Context, in appfinance.PaymentRequestInput) (*finance.PaymentRequest, error)
}

// OrderPaymentService opens gateway invoices for catalog orders
type OrderPaymentService struct {
	orderRepo     trade.OrderRepository
	gateway       Gateway
	referenceRepo finance.PaymentReferenceRepository
	metrics       *telemetry.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

// NewOrderPaymentService creates a new OrderPaymentService
func NewOrderPaymentService(
	orderRepo trade.OrderRepository,
	gateway Gateway,
	referenceRepo finance.PaymentReferenceRepository,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) *OrderPaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderPaymentService{
		orderRepo:     orderRepo,
		gateway:       gateway,
		referenceRepo: referenceRepo,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

// CreateOrderInvoice opens a hosted invoice for a single order
func (s *OrderPaymentService) CreateOrderInvoice(ctx context.Context, orderID, customerID uuid.UUID, req OrderInvoiceRequest) (*InvoiceResponse, error) {
	orders, err := s.payableOrders(ctx, []uuid.UUID{orderID}, customerID)
	if err != nil {
		return nil, err
	}
	ref := finance.NewOrderReference(orderID, s.now())
	return s.invoice(ctx, orders, ref, "Order payment", req.PayerEmail)
}

// CreateCartInvoice opens one hosted invoice covering every order of a
// checkout. Each order keeps its own payment state; the gateway ID and URL
// are shared.
func (s *OrderPaymentService) CreateCartInvoice(ctx context.Context, customerID uuid.UUID, req CartInvoiceRequest) (*InvoiceResponse, error) {
	ids := dedupe(req.OrderIDs)
	if len(ids) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "At least one order is required")
	}
	orders, err := s.payableOrders(ctx, ids, customerID)
	if err != nil {
		return nil, err
	}
	ref := finance.NewOrderBatchReference(ids, s.now())
	return s.invoice(ctx, orders, ref, fmt.Sprintf("Checkout payment for %d orders", len(ids)), req.PayerEmail)
}

// CreatePaymentRequest charges a payment method directly for a single order
func (s *OrderPaymentService) CreatePaymentRequest(ctx context.Context, customerID uuid.UUID, req PaymentRequestRequest) (*PaymentRequestResponse, error) {
	orders, err := s.payableOrders(ctx, []uuid.UUID{req.OrderID}, customerID)
	if err != nil {
		return nil, err
	}
	order := orders[0]
	ref := finance.NewOrderReference(order.ID, s.now())

	pr, err := s.gateway.CreatePaymentRequest(ctx, appfinance.PaymentRequestInput{
		ReferenceID: ref,
		Amount:      order.TotalAmount,
		Description: "Order payment",
		PaymentMethod: finance.PaymentMethod{
			Type:        finance.PaymentMethodType(req.Type),
			ChannelCode: req.ChannelCode,
			CardTokenID: req.CardTokenID,
			Reusability: "ONE_TIME_USE",
		},
	})
	if err != nil {
		return nil, err
	}

	s.index(ctx, pr.ID, ref, orders)
	if err := s.attach(ctx, orders, pr.ID, pr.ActionURL, strings.ToLower(req.Type)); err != nil {
		return nil, err
	}
	return &PaymentRequestResponse{
		PaymentRequestID:  pr.ID,
		Status:            pr.Status,
		ActionURL:         pr.ActionURL,
		ExternalReference: ref,
		Amount:            order.TotalAmount,
		OrderID:           order.ID,
	}, nil
}

// payableOrders loads every order and checks the caller may open an invoice for it
func (s *OrderPaymentService) payableOrders(ctx context.Context, ids []uuid.UUID, customerID uuid.UUID) ([]*trade.Order, error) {
	found, err := s.orderRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	byID := make(map[uuid.UUID]*trade.Order, len(found))
	for _, o := range found {
		byID[o.ID] = o
	}

	orders := make([]*trade.Order, 0, len(ids))
	for _, id := range ids {
		o, ok := byID[id]
		if !ok {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Order "+id.String()+" not found")
		}
		if !o.IsOwnedBy(customerID) {
			return nil, shared.NewDomainError(shared.CodeForbidden, "Order "+id.String()+" belongs to another customer")
		}
		if !o.IsAwaitingPayment() {
			return nil, shared.NewDomainError(shared.CodeInvalidState,
				"Order "+id.String()+" is not awaiting payment ("+o.OrderStatus.String()+"/"+o.PaymentStatus.String()+")")
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (s *OrderPaymentService) invoice(ctx context.Context, orders []*trade.Order, ref, description, payerEmail string) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "orders", "create_invoice",
		telemetry.WithAttribute("payment.external_reference", ref),
		telemetry.WithAttribute("order.count", len(orders)),
	)
	defer span.End()

	total := decimal.Zero
	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		total = total.Add(o.TotalAmount)
		ids[i] = o.ID
	}

	inv, err := s.gateway.CreateInvoice(ctx, appfinance.InvoiceInput{
		ExternalID:  ref,
		Amount:      total,
		Description: description,
		PayerEmail:  payerEmail,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.index(ctx, inv.ID, ref, orders)
	if err := s.attach(ctx, orders, inv.ID, inv.InvoiceURL, "invoice"); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.For(ctx, s.logger).Info("Order invoice created",
		zap.String("invoice_id", inv.ID),
		zap.String("external_reference", ref),
		zap.Int("orders", len(orders)),
		zap.String("amount", total.String()))
	telemetry.SetOK(span)

	resp := &InvoiceResponse{
		InvoiceID:         inv.ID,
		InvoiceURL:        inv.InvoiceURL,
		ExternalReference: ref,
		Amount:            total,
		Currency:          s.gateway.Currency(),
		OrderIDs:          ids,
	}
	if !inv.ExpiresAt.IsZero() {
		expires := inv.ExpiresAt
		resp.ExpiresAt = &expires
	}
	return resp, nil
}

// attach records the gateway handle on every order, reloading on conflict.
// Every order is attempted even when one fails.
func (s *OrderPaymentService) attach(ctx context.Context, orders []*trade.Order, gatewayID, url, method string) error {
	var errs []error
	for _, o := range orders {
		id := o.ID
		err := shared.RetryOnConflict(ctx, defaultRetryAttempts, func(ctx context.Context) error {
			current, err := s.orderRepo.FindByID(ctx, id)
			if err != nil {
				return fmt.Errorf("load order %s: %w", id, err)
			}
			if current == nil {
				return shared.NewDomainError(shared.CodeNotFound, "Order "+id.String()+" not found")
			}
			if err := current.AttachInvoice(gatewayID, url, method); err != nil {
				return err
			}
			return s.orderRepo.SaveWithLock(ctx, current)
		}, func(attempt int) {
			s.metrics.RecordLockRetry(trade.AggregateTypeOrder)
		})
		if err != nil {
			logger.For(ctx, s.logger).Error("Failed to attach invoice to order",
				zap.String("order_id", id.String()),
				zap.String("gateway_payment_id", gatewayID),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

func (s *OrderPaymentService) index(ctx context.Context, gatewayID, ref string, orders []*trade.Order) {
	if s.referenceRepo == nil {
		return
	}
	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	if err := s.referenceRepo.SaveAll(ctx, finance.NewPaymentReferences(gatewayID, ref, finance.OwnerTypeOrder, ids...)); err != nil {
		logger.For(ctx, s.logger).Error("Failed to index payment reference",
			zap.String("gateway_payment_id", gatewayID),
			zap.Error(err))
	}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == uuid.Nil {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
