package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appcustomization "github.com/printmarket/backend/internal/application/customization"
)

// PricingUseCases are the pricing operations of a customization request
type PricingUseCases interface {
	CreatePricingAgreement(ctx context.Context, requestID, designerID uuid.UUID, req appcustomization.CreatePricingRequest) (*appcustomization.PaymentDetailsResponse, error)
	AgreeToPricing(ctx context.Context, requestID, customerID uuid.UUID) (*appcustomization.PaymentDetailsResponse, error)
	RejectPricing(ctx context.Context, requestID, customerID uuid.UUID, req appcustomization.RejectPricingRequest) (*appcustomization.PaymentDetailsResponse, error)
	GetPaymentDetails(ctx context.Context, requestID, callerID uuid.UUID) (*appcustomization.PaymentDetailsResponse, error)
}

// EscrowPaymentUseCases open gateway invoices against the escrow ledger
type EscrowPaymentUseCases interface {
	ProcessPayment(ctx context.Context, requestID, customerID uuid.UUID, req appcustomization.ProcessPaymentRequest) (*appcustomization.ProcessPaymentResponse, error)
}

// CustomizationHandler serves pricing agreements and escrow payments of
// customization requests
type CustomizationHandler struct {
	BaseHandler
	pricing  PricingUseCases
	payments EscrowPaymentUseCases
}

// NewCustomizationHandler creates a new CustomizationHandler
func NewCustomizationHandler(pricing PricingUseCases, payments EscrowPaymentUseCases) *CustomizationHandler {
	return &CustomizationHandler{pricing: pricing, payments: payments}
}

// request resolves the path request ID and the caller, answering on failure
func (h *CustomizationHandler) request(c *gin.Context) (requestID, callerID uuid.UUID, ok bool) {
	if requestID, ok = h.PathUUID(c, "id"); !ok {
		return
	}
	callerID, ok = h.Caller(c)
	return
}

// CreatePricing godoc
//
//	@Summary		Propose pricing for a customization request
//	@Tags			customizations
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string									true	"Customization request ID"
//	@Param			request	body		appcustomization.CreatePricingRequest	true	"Pricing"
//	@Success		201		{object}	dto.Response
//	@Router			/customizations/{id}/pricing [post]
func (h *CustomizationHandler) CreatePricing(c *gin.Context) {
	requestID, callerID, ok := h.request(c)
	if !ok {
		return
	}
	var req appcustomization.CreatePricingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.pricing.CreatePricingAgreement(c.Request.Context(), requestID, callerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// AgreePricing godoc
//
//	@Summary		Accept the proposed pricing
//	@Tags			customizations
//	@Produce		json
//	@Param			id	path		string	true	"Customization request ID"
//	@Success		200	{object}	dto.Response
//	@Router			/customizations/{id}/pricing/agree [post]
func (h *CustomizationHandler) AgreePricing(c *gin.Context) {
	requestID, callerID, ok := h.request(c)
	if !ok {
		return
	}

	resp, err := h.pricing.AgreeToPricing(c.Request.Context(), requestID, callerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RejectPricing godoc
//
//	@Summary		Reject the proposed pricing
//	@Tags			customizations
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string									true	"Customization request ID"
//	@Param			request	body		appcustomization.RejectPricingRequest	false	"Reason"
//	@Success		200		{object}	dto.Response
//	@Router			/customizations/{id}/pricing/reject [post]
func (h *CustomizationHandler) RejectPricing(c *gin.Context) {
	requestID, callerID, ok := h.request(c)
	if !ok {
		return
	}
	var req appcustomization.RejectPricingRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.pricing.RejectPricing(c.Request.Context(), requestID, callerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetPayment godoc
//
//	@Summary		Get pricing and escrow ledger of a customization request
//	@Tags			customizations
//	@Produce		json
//	@Param			id	path		string	true	"Customization request ID"
//	@Success		200	{object}	dto.Response
//	@Router			/customizations/{id}/payment [get]
func (h *CustomizationHandler) GetPayment(c *gin.Context) {
	requestID, callerID, ok := h.request(c)
	if !ok {
		return
	}

	resp, err := h.pricing.GetPaymentDetails(c.Request.Context(), requestID, callerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ProcessPayment godoc
//
//	@Summary		Open a gateway invoice for a customization payment
//	@Tags			customizations
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string									true	"Customization request ID"
//	@Param			request	body		appcustomization.ProcessPaymentRequest	true	"Payment"
//	@Success		201		{object}	dto.Response
//	@Router			/customizations/{id}/payments [post]
func (h *CustomizationHandler) ProcessPayment(c *gin.Context) {
	requestID, callerID, ok := h.request(c)
	if !ok {
		return
	}
	var req appcustomization.ProcessPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.payments.ProcessPayment(c.Request.Context(), requestID, callerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}
