package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcustomization "github.com/printmarket/backend/internal/application/customization"
	appfinance "github.com/printmarket/backend/internal/application/finance"
	apptrade "github.com/printmarket/backend/internal/application/trade"
	"github.com/printmarket/backend/internal/domain/finance"
	"github.com/printmarket/backend/internal/infrastructure/telemetry"
	"github.com/printmarket/backend/internal/interfaces/http/handler"
	"github.com/printmarket/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	group := NewDomainGroup("test", "/test").GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	NewRouter(engine, WithAPIVersion("v2")).Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/test/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	g := NewDomainGroup("payments", "/payments")
	assert.Equal(t, "payments", g.Name())
	assert.Equal(t, "/payments", g.Prefix())

	var order []string
	engine := gin.New()
	g.Use(func(c *gin.Context) { order = append(order, "group") }).
		POST("/x", func(c *gin.Context) {
			order = append(order, "handler")
			c.Status(http.StatusNoContent)
		})
	NewRouter(engine, WithGroupMiddleware(func(c *gin.Context) { order = append(order, "router") })).
		Register(g).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/payments/x", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"router", "group", "handler"}, order)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/payments/x", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type stubReconciler struct{ calls int }

func (s *stubReconciler) HandleWebhook(context.Context, []byte, string) (*appfinance.ReconciliationResult, error) {
	s.calls++
	return &appfinance.ReconciliationResult{}, nil
}

type stubPricing struct{}

func (stubPricing) CreatePricingAgreement(context.Context, uuid.UUID, uuid.UUID, appcustomization.CreatePricingRequest) (*appcustomization.PaymentDetailsResponse, error) {
	return &appcustomization.PaymentDetailsResponse{}, nil
}

func (stubPricing) AgreeToPricing(context.Context, uuid.UUID, uuid.UUID) (*appcustomization.PaymentDetailsResponse, error) {
	return &appcustomization.PaymentDetailsResponse{}, nil
}

func (stubPricing) RejectPricing(context.Context, uuid.UUID, uuid.UUID, appcustomization.RejectPricingRequest) (*appcustomization.PaymentDetailsResponse, error) {
	return &appcustomization.PaymentDetailsResponse{}, nil
}

func (stubPricing) GetPaymentDetails(_ context.Context, requestID, _ uuid.UUID) (*appcustomization.PaymentDetailsResponse, error) {
	return &appcustomization.PaymentDetailsResponse{RequestID: requestID}, nil
}

type stubEscrow struct{}

func (stubEscrow) ProcessPayment(context.Context, uuid.UUID, uuid.UUID, appcustomization.ProcessPaymentRequest) (*appcustomization.ProcessPaymentResponse, error) {
	return &appcustomization.ProcessPaymentResponse{}, nil
}

type stubOrders struct{}

func (stubOrders) CreateOrderInvoice(_ context.Context, orderID, _ uuid.UUID, _ apptrade.OrderInvoiceRequest) (*apptrade.InvoiceResponse, error) {
	return &apptrade.InvoiceResponse{InvoiceID: "single", OrderIDs: []uuid.UUID{orderID}}, nil
}

func (stubOrders) CreateCartInvoice(context.Context, uuid.UUID, apptrade.CartInvoiceRequest) (*apptrade.InvoiceResponse, error) {
	return &apptrade.InvoiceResponse{InvoiceID: "cart"}, nil
}

func (stubOrders) CreatePaymentRequest(context.Context, uuid.UUID, apptrade.PaymentRequestRequest) (*apptrade.PaymentRequestResponse, error) {
	return &apptrade.PaymentRequestResponse{}, nil
}

type stubCards struct{}

func (stubCards) CreateCardToken(context.Context, finance.CardDetails) (*finance.CardToken, error) {
	return &finance.CardToken{ID: "tok"}, nil
}

// headerAuth accepts any caller that sends X-User-ID
func headerAuth(c *gin.Context) {
	id, err := uuid.Parse(c.GetHeader(middleware.UserIDHeader))
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Set(middleware.UserIDKey, id)
	c.Next()
}

func newTestEngine(reconciler *stubReconciler, metrics http.Handler) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	Setup(engine, Config{
		Handlers: Handlers{
			System:        handler.NewSystemHandler("test", nil),
			Webhook:       handler.NewWebhookHandler(reconciler),
			Customization: handler.NewCustomizationHandler(stubPricing{}, stubEscrow{}),
			Payment:       handler.NewPaymentHandler(stubOrders{}, stubCards{}),
		},
		Authenticate:   headerAuth,
		Metrics:        metrics,
		MaxBodySize:    1 << 20,
		WebhookMaxBody: 64,
	})
	return engine
}

func serve(engine http.Handler, method, path, body string, caller uuid.UUID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != uuid.Nil {
		req.Header.Set(middleware.UserIDHeader, caller.String())
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestSetup_Routes(t *testing.T) {
	reconciler := &stubReconciler{}
	engine := newTestEngine(reconciler, telemetry.NewMetrics().Handler())
	caller := uuid.New()
	requestID := uuid.New()

	t.Run("health is public", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health", "", uuid.Nil).Code)
	})

	t.Run("metrics is served", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/metrics", "", uuid.Nil).Code)
	})

	t.Run("webhook needs no caller", func(t *testing.T) {
		w := serve(engine, http.MethodPost, "/api/v1/webhooks/xendit", `{"id":"inv"}`, uuid.Nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, reconciler.calls)
	})

	t.Run("webhook body is capped", func(t *testing.T) {
		w := serve(engine, http.MethodPost, "/api/v1/webhooks/xendit", `{"id":"`+strings.Repeat("x", 100)+`"}`, uuid.Nil)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, 1, reconciler.calls)
	})

	t.Run("api requires a caller", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/api/v1/customizations/"+requestID.String()+"/payment", "", uuid.Nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	routes := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodPost, "/api/v1/customizations/" + requestID.String() + "/pricing", `{"payment_type":"full"}`, http.StatusCreated},
		{http.MethodPost, "/api/v1/customizations/" + requestID.String() + "/pricing/agree", "", http.StatusOK},
		{http.MethodPost, "/api/v1/customizations/" + requestID.String() + "/pricing/reject", "", http.StatusOK},
		{http.MethodGet, "/api/v1/customizations/" + requestID.String() + "/payment", "", http.StatusOK},
		{http.MethodPost, "/api/v1/customizations/" + requestID.String() + "/payments", `{"amount":"10"}`, http.StatusCreated},
		{http.MethodPost, "/api/v1/orders/" + uuid.NewString() + "/invoice", "", http.StatusCreated},
		{http.MethodPost, "/api/v1/orders/checkout/invoice", `{"order_ids":["` + uuid.NewString() + `"]}`, http.StatusCreated},
		{http.MethodPost, "/api/v1/payments/requests", `{"order_id":"` + uuid.NewString() + `","type":"EWALLET"}`, http.StatusCreated},
		{http.MethodPost, "/api/v1/payments/card-tokens", `{"card_number":"4000000000001091","exp_month":"12","exp_year":"2030","cvn":"123"}`, http.StatusCreated},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := serve(engine, rt.method, rt.path, rt.body, caller)
			require.Equal(t, rt.want, w.Code, w.Body.String())
		})
	}

	t.Run("cart checkout is not an order id", func(t *testing.T) {
		w := serve(engine, http.MethodPost, "/api/v1/orders/checkout/invoice", `{"order_ids":["`+uuid.NewString()+`"]}`, caller)
		assert.Contains(t, w.Body.String(), `"cart"`)
	})
}
