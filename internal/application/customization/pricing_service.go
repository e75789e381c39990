package customization

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printmarket/backend/internal/domain/customization"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/infrastructure/logger"
	"github.com/printmarket/backend/internal/infrastructure/telemetry"
)

// PricingService handles pricing negotiation between designer and customer
type PricingService struct {
	requests  requestUpdater
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewPricingService creates a new PricingService
func NewPricingService(repo customization.RequestRepository, publisher shared.EventPublisher, metrics *telemetry.Metrics, logger *zap.Logger) *PricingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricingService{
		requests:  requestUpdater{repo: repo, attempts: defaultRetryAttempts, metrics: metrics, logger: logger},
		publisher: publisher,
		logger:    logger,
	}
}

// CreatePricingAgreement replaces the request's pricing with the designer's proposal
func (s *PricingService) CreatePricingAgreement(ctx context.Context, requestID, designerID uuid.UUID, req CreatePricingRequest) (*PaymentDetailsResponse, error) {
	input := req.toInput()
	saved, err := s.requests.update(ctx, requestID, func(r *customization.CustomizationRequest) error {
		return r.ProposePricing(designerID, input)
	})
	if err != nil {
		return nil, err
	}

	logger.For(ctx, s.logger).Info("Pricing proposed",
		zap.String("request_id", requestID.String()),
		zap.String("total_cost", saved.Pricing.TotalCost.String()),
		zap.String("payment_type", string(saved.Payment.PaymentType)))
	publishEvents(ctx, s.publisher, s.logger, saved)

	resp := ToPaymentDetailsResponse(saved)
	return &resp, nil
}

// AgreeToPricing records the customer's acceptance of the current pricing
func (s *PricingService) AgreeToPricing(ctx context.Context, requestID, customerID uuid.UUID) (*PaymentDetailsResponse, error) {
	saved, err := s.requests.update(ctx, requestID, func(r *customization.CustomizationRequest) error {
		return r.AgreeToPricing(customerID)
	})
	if err != nil {
		return nil, err
	}

	logger.For(ctx, s.logger).Info("Pricing agreed", zap.String("request_id", requestID.String()))
	publishEvents(ctx, s.publisher, s.logger, saved)

	resp := ToPaymentDetailsResponse(saved)
	return &resp, nil
}

// RejectPricing sends the request back to the designer
func (s *PricingService) RejectPricing(ctx context.Context, requestID, customerID uuid.UUID, req RejectPricingRequest) (*PaymentDetailsResponse, error) {
	saved, err := s.requests.update(ctx, requestID, func(r *customization.CustomizationRequest) error {
		return r.RejectPricing(customerID, req.Reason)
	})
	if err != nil {
		return nil, err
	}

	logger.For(ctx, s.logger).Info("Pricing rejected", zap.String("request_id", requestID.String()))
	resp := ToPaymentDetailsResponse(saved)
	return &resp, nil
}

// GetPaymentDetails returns pricing and ledger state to a participant
func (s *PricingService) GetPaymentDetails(ctx context.Context, requestID, callerID uuid.UUID) (*PaymentDetailsResponse, error) {
	r, err := s.requests.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !r.IsParticipant(callerID) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Only participants can view payment details")
	}
	resp := ToPaymentDetailsResponse(r)
	return &resp, nil
}
