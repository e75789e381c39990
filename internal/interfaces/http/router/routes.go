package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/printmarket/backend/internal/interfaces/http/handler"
	"github.com/printmarket/backend/internal/interfaces/http/middleware"
)

// Handlers are the HTTP handlers served by the API
type Handlers struct {
	System        *handler.SystemHandler
	Webhook       *handler.WebhookHandler
	Customization *handler.CustomizationHandler
	Payment       *handler.PaymentHandler
}

// Config wires handlers and per-group middleware into an engine
type Config struct {
	Handlers Handlers
	// Authenticate establishes the caller for every non-webhook API route
	Authenticate gin.HandlerFunc
	// Metrics serves the Prometheus scrape endpoint when set
	Metrics        http.Handler
	MaxBodySize    int64
	WebhookMaxBody int64
}

// Setup registers every route on engine. Global middleware is the caller's
// concern; Setup only adds what differs per group.
func Setup(engine *gin.Engine, cfg Config) {
	h := cfg.Handlers

	engine.GET("/health", h.System.Health)
	if cfg.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	webhooks := NewDomainGroup("webhooks", "/webhooks").
		Use(middleware.BodyLimit(cfg.WebhookMaxBody)).
		POST("/xendit", h.Webhook.HandleXendit)
	NewRouter(engine).Register(webhooks).Setup()

	customizations := NewDomainGroup("customizations", "/customizations/:id").
		POST("/pricing", h.Customization.CreatePricing).
		POST("/pricing/agree", h.Customization.AgreePricing).
		POST("/pricing/reject", h.Customization.RejectPricing).
		GET("/payment", h.Customization.GetPayment).
		POST("/payments", h.Customization.ProcessPayment)

	orders := NewDomainGroup("orders", "/orders").
		POST("/:id/invoice", h.Payment.CreateOrderInvoice).
		POST("/checkout/invoice", h.Payment.CreateCartInvoice)

	payments := NewDomainGroup("payments", "/payments").
		POST("/requests", h.Payment.CreatePaymentRequest).
		POST("/card-tokens", h.Payment.CreateCardToken)

	NewRouter(engine, WithGroupMiddleware(
		cfg.Authenticate,
		middleware.SpanAttributes(),
		middleware.BodyLimit(cfg.MaxBodySize),
	)).
		Register(customizations).
		Register(orders).
		Register(payments).
		Setup()
}
