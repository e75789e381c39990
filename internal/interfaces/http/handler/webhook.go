package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/printmarket/backend/internal/application/finance"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/infrastructure/logger"
	"github.com/printmarket/backend/internal/infrastructure/payment"
	"github.com/printmarket/backend/internal/interfaces/http/dto"
)

// WebhookReconciler handles one raw gateway delivery
type WebhookReconciler interface {
	HandleWebhook(ctx context.Context, body []byte, signature string) (*finance.ReconciliationResult, error)
}

// WebhookHandler receives payment gateway webhooks. The endpoint is
// unauthenticated; deliveries are authenticated by their signature.
type WebhookHandler struct {
	BaseHandler
	reconciler WebhookReconciler
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(reconciler WebhookReconciler) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// HandleXendit godoc
//
//	@Summary		Receive a payment gateway webhook
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			x-callback-token	header		string	true	"HMAC-SHA256 of the raw body"
//	@Success		200					{object}	dto.WebhookAck
//	@Failure		401					{object}	dto.Response
//	@Failure		500					{object}	dto.Response
//	@Router			/webhooks/xendit [post]
func (h *WebhookHandler) HandleXendit(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Webhook body exceeds maximum allowed size")
			return
		}
		h.BadRequest(c, "Failed to read request body")
		return
	}

	result, err := h.reconciler.HandleWebhook(c.Request.Context(), body, c.GetHeader(payment.CallbackTokenHeader))
	if err != nil {
		if errors.Is(err, shared.ErrSignatureInvalid) {
			h.HandleError(c, err)
			return
		}
		// A 5xx makes the gateway redeliver; reconciliation is idempotent.
		logger.For(c.Request.Context(), logger.GetGinLogger(c)).Error("Webhook reconciliation failed", zap.Error(err))
		h.InternalError(c, "Webhook could not be processed")
		return
	}

	if result != nil && result.Signal != "" {
		logger.For(c.Request.Context(), logger.GetGinLogger(c)).Debug("Webhook reconciled",
			zap.String("signal", result.Signal.String()),
			zap.String("gateway_payment_id", result.GatewayPaymentID),
			zap.Int("targets", len(result.Targets)))
	}
	c.JSON(http.StatusOK, dto.WebhookAck{Received: true})
}
