package customization

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appfinance "github.com/printmarket/backend/internal/application/finance"
	"github.com/printmarket/backend/internal/domain/customization"
	"github.com/printmarket/backend/internal/domain/finance"
	"github.com/printmarket/backend/internal/infrastructure/logger"
	"github.com/printmarket/backend/internal/infrastructure/telemetry"
)

// InvoiceCreator opens hosted invoices at the payment gateway
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, in appfinance.InvoiceInput) (*finance.Invoice, error)
}

// PaymentService opens gateway invoices against a customization's escrow ledger
type PaymentService struct {
	requests      requestUpdater
	invoices      InvoiceCreator
	referenceRepo finance.PaymentReferenceRepository
	logger        *zap.Logger
	now           func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	repo customization.RequestRepository,
	invoices InvoiceCreator,
	referenceRepo finance.PaymentReferenceRepository,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		requests:      requestUpdater{repo: repo, attempts: defaultRetryAttempts, metrics: metrics, logger: logger},
		invoices:      invoices,
		referenceRepo: referenceRepo,
		logger:        logger,
		now:           time.Now,
	}
}

// ProcessPayment checks the request against the ledger, opens an invoice and
// appends it as a pending payment. The payment counts toward the paid amount
// only once the gateway confirms it.
func (s *PaymentService) ProcessPayment(ctx context.Context, requestID, customerID uuid.UUID, req ProcessPaymentRequest) (*ProcessPaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customization", "process_payment",
		telemetry.WithAttribute("customization.id", requestID.String()),
		telemetry.WithAttribute("payment.amount", req.Amount.String()),
	)
	defer span.End()

	current, err := s.requests.load(ctx, requestID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := current.CheckPaymentAllowed(customerID, req.Amount, req.MilestoneID); err != nil {
		return nil, err
	}

	externalRef := finance.NewCustomizationReference(requestID, s.now())
	invoice, err := s.invoices.CreateInvoice(ctx, appfinance.InvoiceInput{
		ExternalID:  externalRef,
		Amount:      req.Amount,
		Description: paymentDescription(current, req.MilestoneID),
		PayerEmail:  req.PayerEmail,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.indexInvoice(ctx, invoice.ID, externalRef, requestID)

	method := req.PaymentMethod
	if method == "" {
		method = "invoice"
	}
	record := customization.PaymentRecord{
		ID:                invoice.ID,
		Amount:            req.Amount,
		PaymentMethod:     method,
		MilestoneID:       req.MilestoneID,
		ExternalReference: externalRef,
		InvoiceURL:        invoice.InvoiceURL,
	}
	if _, err := s.requests.update(ctx, requestID, func(r *customization.CustomizationRequest) error {
		return r.AddPendingPayment(record)
	}); err != nil {
		// The invoice exists at the gateway; a payment against it surfaces as a discrepancy
		logger.For(ctx, s.logger).Error("Failed to record pending payment",
			zap.String("request_id", requestID.String()),
			zap.String("invoice_id", invoice.ID),
			zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.For(ctx, s.logger).Info("Customization invoice created",
		zap.String("request_id", requestID.String()),
		zap.String("invoice_id", invoice.ID),
		zap.String("external_reference", externalRef),
		zap.String("amount", req.Amount.String()))
	telemetry.SetOK(span)

	resp := &ProcessPaymentResponse{
		PaymentID:         invoice.ID,
		InvoiceURL:        invoice.InvoiceURL,
		ExternalReference: externalRef,
		Amount:            req.Amount,
		MilestoneID:       req.MilestoneID,
	}
	if !invoice.ExpiresAt.IsZero() {
		expires := invoice.ExpiresAt
		resp.ExpiresAt = &expires
	}
	return resp, nil
}

func (s *PaymentService) indexInvoice(ctx context.Context, invoiceID, externalRef string, requestID uuid.UUID) {
	if s.referenceRepo == nil {
		return
	}
	refs := finance.NewPaymentReferences(invoiceID, externalRef, finance.OwnerTypeCustomization, requestID)
	if err := s.referenceRepo.SaveAll(ctx, refs); err != nil {
		logger.For(ctx, s.logger).Error("Failed to index payment reference",
			zap.String("invoice_id", invoiceID),
			zap.Error(err))
	}
}

func paymentDescription(r *customization.CustomizationRequest, milestoneID *uuid.UUID) string {
	desc := "Customization payment: " + r.Title
	if milestoneID != nil {
		if m := r.Payment.FindMilestone(*milestoneID); m != nil {
			desc += " (" + m.Description + ")"
		}
	}
	return desc
}
