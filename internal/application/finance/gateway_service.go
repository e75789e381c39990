package finance

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/printmarket/backend/internal/domain/finance"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/infrastructure/logger"
	"github.com/printmarket/backend/internal/infrastructure/telemetry"
)

// InvoiceInput is what a caller supplies for a hosted invoice; currency,
// duration and redirects come from configuration
type InvoiceInput struct {
	ExternalID  string
	Amount      decimal.Decimal
	Description string
	PayerEmail  string
}

// PaymentRequestInput is what a caller supplies for a direct charge
type PaymentRequestInput struct {
	ReferenceID   string
	Amount        decimal.Decimal
	Description   string
	PaymentMethod finance.PaymentMethod
}

// GatewayService wraps the payment gateway port with configured defaults and
// maps gateway failures onto domain errors. It never retries.
type GatewayService struct {
	gateway            finance.PaymentGateway
	currency           string
	invoiceDuration    time.Duration
	successRedirectURL string
	failureRedirectURL string
	metrics            *telemetry.Metrics
	logger             *zap.Logger
}

// GatewayServiceConfig holds configuration for the gateway service
type GatewayServiceConfig struct {
	Gateway            finance.PaymentGateway
	Currency           string
	InvoiceDuration    time.Duration
	SuccessRedirectURL string
	FailureRedirectURL string
	Metrics            *telemetry.Metrics
	Logger             *zap.Logger
}

// NewGatewayService creates a new GatewayService
func NewGatewayService(cfg GatewayServiceConfig) *GatewayService {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "PHP"
	}
	duration := cfg.InvoiceDuration
	if duration <= 0 {
		duration = 24 * time.Hour
	}
	return &GatewayService{
		gateway:            cfg.Gateway,
		currency:           currency,
		invoiceDuration:    duration,
		successRedirectURL: cfg.SuccessRedirectURL,
		failureRedirectURL: cfg.FailureRedirectURL,
		metrics:            cfg.Metrics,
		logger:             log,
	}
}

// Currency returns the configured invoice currency
func (s *GatewayService) Currency() string {
	return s.currency
}

// CreateInvoice opens a hosted invoice
func (s *GatewayService) CreateInvoice(ctx context.Context, in InvoiceInput) (*finance.Invoice, error) {
	invoice, err := s.gateway.CreateInvoice(ctx, &finance.CreateInvoiceRequest{
		ExternalID:         in.ExternalID,
		Amount:             in.Amount,
		Currency:           s.currency,
		Description:        in.Description,
		PayerEmail:         in.PayerEmail,
		SuccessRedirectURL: s.successRedirectURL,
		FailureRedirectURL: s.failureRedirectURL,
		Duration:           s.invoiceDuration,
	})
	s.metrics.RecordGatewayRequest("create_invoice", err)
	if err != nil {
		logger.For(ctx, s.logger).Error("Invoice creation failed",
			zap.String("external_id", in.ExternalID),
			zap.String("amount", in.Amount.String()),
			zap.Error(err))
		return nil, TranslateGatewayError(err)
	}

	logger.For(ctx, s.logger).Info("Invoice created",
		zap.String("external_id", in.ExternalID),
		zap.String("invoice_id", invoice.ID),
		zap.String("amount", in.Amount.String()))
	return invoice, nil
}

// CreatePaymentRequest charges a payment method directly
func (s *GatewayService) CreatePaymentRequest(ctx context.Context, in PaymentRequestInput) (*finance.PaymentRequest, error) {
	req, err := s.gateway.CreatePaymentRequest(ctx, &finance.CreatePaymentRequestInput{
		ReferenceID:   in.ReferenceID,
		Amount:        in.Amount,
		Currency:      s.currency,
		Description:   in.Description,
		PaymentMethod: in.PaymentMethod,
	})
	s.metrics.RecordGatewayRequest("create_payment_request", err)
	if err != nil {
		logger.For(ctx, s.logger).Error("Payment request failed",
			zap.String("reference_id", in.ReferenceID),
			zap.String("method", string(in.PaymentMethod.Type)),
			zap.Error(err))
		return nil, TranslateGatewayError(err)
	}
	return req, nil
}

// CreateCardToken tokenizes a card; the adapter normalizes and validates it
func (s *GatewayService) CreateCardToken(ctx context.Context, card finance.CardDetails) (*finance.CardToken, error) {
	token, err := s.gateway.CreateCardToken(ctx, card)
	s.metrics.RecordGatewayRequest("create_card_token", err)
	if err != nil {
		logger.For(ctx, s.logger).Warn("Card tokenization failed", zap.Error(err))
		return nil, TranslateGatewayError(err)
	}
	return token, nil
}

// TranslateGatewayError maps gateway and input errors onto domain errors.
// Input problems become VALIDATION_ERROR, provider-side validation becomes
// PAYMENT_GATEWAY_REJECTED and everything else PAYMENT_GATEWAY_ERROR.
func TranslateGatewayError(err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	switch {
	case errors.Is(err, finance.ErrPaymentInvalidAmount),
		errors.Is(err, finance.ErrPaymentInvalidCurrency),
		errors.Is(err, finance.ErrPaymentInvalidReference),
		errors.Is(err, finance.ErrPaymentInvalidDescription),
		errors.Is(err, finance.ErrPaymentInvalidMethod),
		errors.Is(err, finance.ErrCardInvalidNumber),
		errors.Is(err, finance.ErrCardInvalidExpiry),
		errors.Is(err, finance.ErrCardInvalidCVN):
		return shared.NewDomainError(shared.CodeValidation, err.Error())
	case errors.Is(err, finance.ErrGatewayRejected):
		return shared.NewDomainError(shared.CodePaymentGatewayRejected, "Payment gateway rejected the request: "+err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return shared.NewDomainError(shared.CodePaymentGateway, "Payment gateway request was cancelled")
	default:
		return shared.NewDomainError(shared.CodePaymentGateway, "Payment gateway error: "+err.Error())
	}
}
