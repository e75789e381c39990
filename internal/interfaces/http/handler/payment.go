package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apptrade "github.com/printmarket/backend/internal/application/trade"
	"github.com/printmarket/backend/internal/domain/finance"
)

// OrderPaymentUseCases open gateway payments for catalog orders
type OrderPaymentUseCases interface {
	CreateOrderInvoice(ctx context.Context, orderID, customerID uuid.UUID, req apptrade.OrderInvoiceRequest) (*apptrade.InvoiceResponse, error)
	CreateCartInvoice(ctx context.Context, customerID uuid.UUID, req apptrade.CartInvoiceRequest) (*apptrade.InvoiceResponse, error)
	CreatePaymentRequest(ctx context.Context, customerID uuid.UUID, req apptrade.PaymentRequestRequest) (*apptrade.PaymentRequestResponse, error)
}

// CardTokenizer tokenizes raw card details at the gateway
type CardTokenizer interface {
	CreateCardToken(ctx context.Context, card finance.CardDetails) (*finance.CardToken, error)
}

// CardTokenRequest carries raw card details. They are forwarded to the
// gateway and never stored or logged.
type CardTokenRequest struct {
	CardNumber string          `json:"card_number" binding:"required,min=12,max=23"`
	ExpMonth   string          `json:"exp_month" binding:"required,max=2"`
	ExpYear    string          `json:"exp_year" binding:"required,max=4"`
	CVN        string          `json:"cvn" binding:"required,min=3,max=4"`
	Amount     decimal.Decimal `json:"amount"`
	IsMultiUse bool            `json:"is_multiple_use"`
	HolderName string          `json:"cardholder_name" binding:"omitempty,max=100"`
}

// CardTokenResponse is the tokenized card
type CardTokenResponse struct {
	ID               string `json:"id"`
	AuthenticationID string `json:"authentication_id,omitempty"`
	Status           string `json:"status"`
	MaskedCardNumber string `json:"masked_card_number"`
	PayerAuthURL     string `json:"payer_authentication_url,omitempty"`
}

// PaymentHandler serves order invoices, direct payment requests and card
// tokenization
type PaymentHandler struct {
	BaseHandler
	orders OrderPaymentUseCases
	cards  CardTokenizer
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(orders OrderPaymentUseCases, cards CardTokenizer) *PaymentHandler {
	return &PaymentHandler{orders: orders, cards: cards}
}

// CreateOrderInvoice godoc
//
//	@Summary		Open a gateway invoice for one order
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Order ID"
//	@Param			request	body		apptrade.OrderInvoiceRequest	false	"Payer"
//	@Success		201		{object}	dto.Response
//	@Router			/orders/{id}/invoice [post]
func (h *PaymentHandler) CreateOrderInvoice(c *gin.Context) {
	orderID, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	customerID, ok := h.Caller(c)
	if !ok {
		return
	}
	var req apptrade.OrderInvoiceRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.orders.CreateOrderInvoice(c.Request.Context(), orderID, customerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// CreateCartInvoice godoc
//
//	@Summary		Open one gateway invoice for a checkout of several orders
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			request	body		apptrade.CartInvoiceRequest	true	"Orders"
//	@Success		201		{object}	dto.Response
//	@Router			/orders/checkout/invoice [post]
func (h *PaymentHandler) CreateCartInvoice(c *gin.Context) {
	customerID, ok := h.Caller(c)
	if !ok {
		return
	}
	var req apptrade.CartInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.orders.CreateCartInvoice(c.Request.Context(), customerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// CreatePaymentRequest godoc
//
//	@Summary		Charge a payment method directly for one order
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			request	body		apptrade.PaymentRequestRequest	true	"Payment method"
//	@Success		201		{object}	dto.Response
//	@Router			/payments/requests [post]
func (h *PaymentHandler) CreatePaymentRequest(c *gin.Context) {
	customerID, ok := h.Caller(c)
	if !ok {
		return
	}
	var req apptrade.PaymentRequestRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.orders.CreatePaymentRequest(c.Request.Context(), customerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// CreateCardToken godoc
//
//	@Summary		Tokenize a card
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CardTokenRequest	true	"Card"
//	@Success		201		{object}	dto.Response
//	@Router			/payments/card-tokens [post]
func (h *PaymentHandler) CreateCardToken(c *gin.Context) {
	if _, ok := h.Caller(c); !ok {
		return
	}
	var req CardTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, err := h.cards.CreateCardToken(c.Request.Context(), finance.CardDetails{
		Number:     req.CardNumber,
		ExpMonth:   req.ExpMonth,
		ExpYear:    req.ExpYear,
		CVN:        req.CVN,
		Amount:     req.Amount,
		IsMultiUse: req.IsMultiUse,
		HolderName: req.HolderName,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, CardTokenResponse{
		ID:               token.ID,
		AuthenticationID: token.AuthenticationID,
		Status:           token.Status,
		MaskedCardNumber: token.MaskedCardNumber,
		PayerAuthURL:     token.PayerAuthURL,
	})
}
