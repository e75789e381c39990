package finance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/printmarket/backend/internal/domain/finance"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/infrastructure/telemetry"
)

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateInvoice(ctx context.Context, req *finance.CreateInvoiceRequest) (*finance.Invoice, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Invoice), args.Error(1)
}

func (m *MockPaymentGateway) CreatePaymentRequest(ctx context.Context, req *finance.CreatePaymentRequestInput) (*finance.PaymentRequest, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.PaymentRequest), args.Error(1)
}

func (m *MockPaymentGateway) CreateCardToken(ctx context.Context, card finance.CardDetails) (*finance.CardToken, error) {
	args := m.Called(ctx, card)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.CardToken), args.Error(1)
}

func TestGatewayService_CreateInvoiceAppliesDefaults(t *testing.T) {
	gw := new(MockPaymentGateway)
	metrics := telemetry.NewMetrics()
	svc := NewGatewayService(GatewayServiceConfig{
		Gateway:            gw,
		SuccessRedirectURL: "https://shop.example/paid",
		Metrics:            metrics,
	})

	gw.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(req *finance.CreateInvoiceRequest) bool {
		return req.Currency == "PHP" &&
			req.Duration == 24*time.Hour &&
			req.SuccessRedirectURL == "https://shop.example/paid" &&
			req.Amount.Equal(decimal.NewFromInt(300))
	})).Return(&finance.Invoice{ID: "inv-1", InvoiceURL: "https://pay.example/inv-1"}, nil)

	invoice, err := svc.CreateInvoice(context.Background(), InvoiceInput{
		ExternalID:  "order_x_1",
		Amount:      decimal.NewFromInt(300),
		Description: "Order payment",
	})

	require.NoError(t, err)
	assert.Equal(t, "inv-1", invoice.ID)
	assert.Equal(t, "PHP", svc.Currency())
	assert.Equal(t, float64(1), promtestutil.ToFloat64(metrics.GatewayRequestsTotal.WithLabelValues("create_invoice", "ok")))
	gw.AssertExpectations(t)
}

func TestGatewayService_CreateInvoiceFailure(t *testing.T) {
	gw := new(MockPaymentGateway)
	metrics := telemetry.NewMetrics()
	svc := NewGatewayService(GatewayServiceConfig{Gateway: gw, Currency: "USD", Metrics: metrics})
	gw.On("CreateInvoice", mock.Anything, mock.Anything).Return(nil, finance.ErrGatewayUnavailable)

	invoice, err := svc.CreateInvoice(context.Background(), InvoiceInput{ExternalID: "order_x_1", Amount: decimal.NewFromInt(1), Description: "x"})

	assert.Nil(t, invoice)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.CodePaymentGateway, domainErr.Code)
	assert.Equal(t, float64(1), promtestutil.ToFloat64(metrics.GatewayRequestsTotal.WithLabelValues("create_invoice", "error")))
}

func TestGatewayService_CreatePaymentRequest(t *testing.T) {
	gw := new(MockPaymentGateway)
	svc := NewGatewayService(GatewayServiceConfig{Gateway: gw})
	method := finance.PaymentMethod{Type: finance.PaymentMethodEWallet, ChannelCode: "GCASH"}
	gw.On("CreatePaymentRequest", mock.Anything, mock.MatchedBy(func(in *finance.CreatePaymentRequestInput) bool {
		return in.Currency == "PHP" && in.PaymentMethod == method
	})).Return(&finance.PaymentRequest{ID: "pr-1", ActionURL: "https://pay.example/pr-1"}, nil)

	req, err := svc.CreatePaymentRequest(context.Background(), PaymentRequestInput{
		ReferenceID:   "order_x_1",
		Amount:        decimal.NewFromInt(250),
		PaymentMethod: method,
	})

	require.NoError(t, err)
	assert.Equal(t, "pr-1", req.ID)
}

func TestGatewayService_CreateCardToken(t *testing.T) {
	gw := new(MockPaymentGateway)
	svc := NewGatewayService(GatewayServiceConfig{Gateway: gw})
	gw.On("CreateCardToken", mock.Anything, mock.Anything).Return(nil, finance.ErrCardInvalidExpiry)

	_, err := svc.CreateCardToken(context.Background(), finance.CardDetails{Number: "4000000000001091"})

	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestTranslateGatewayError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{name: "invalid amount", err: finance.ErrPaymentInvalidAmount, code: shared.CodeValidation},
		{name: "invalid method", err: fmt.Errorf("charge: %w", finance.ErrPaymentInvalidMethod), code: shared.CodeValidation},
		{name: "invalid card number", err: finance.ErrCardInvalidNumber, code: shared.CodeValidation},
		{name: "provider validation", err: fmt.Errorf("%w: API_VALIDATION_ERROR", finance.ErrGatewayRejected), code: shared.CodePaymentGatewayRejected},
		{name: "unavailable", err: finance.ErrGatewayUnavailable, code: shared.CodePaymentGateway},
		{name: "timeout", err: context.DeadlineExceeded, code: shared.CodePaymentGateway},
		{name: "unknown", err: errors.New("boom"), code: shared.CodePaymentGateway},
		{name: "domain error passes through", err: shared.NewDomainError(shared.CodeForbidden, "no"), code: shared.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var domainErr *shared.DomainError
			require.ErrorAs(t, TranslateGatewayError(tt.err), &domainErr)
			assert.Equal(t, tt.code, domainErr.Code)
		})
	}
}
