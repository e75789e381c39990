package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appfinance "github.com/printmarket/backend/internal/application/finance"
	"github.com/printmarket/backend/internal/domain/finance"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/domain/trade"
	"github.com/printmarket/backend/internal/testutil"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Currency() string { return "PHP" }

func (m *MockGateway) CreateInvoice(ctx context.Context, in appfinance.InvoiceInput) (*finance.Invoice, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Invoice), args.Error(1)
}

func (m *MockGateway) CreatePaymentRequest(ctx context.Context, in appfinance.PaymentRequestInput) (*finance.PaymentRequest, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.PaymentRequest), args.Error(1)
}

const fixedMillis = 1767225600000

func newOrder(t *testing.T, customerID uuid.UUID, unitPrice int64, qty int) *trade.Order {
	t.Helper()
	o, err := trade.NewOrder(customerID, testutil.TestBusinessOwnerID(), []trade.OrderItem{{
		ProductID:   uuid.New(),
		ProductName: "Tote bag",
		Quantity:    qty,
		UnitPrice:   decimal.NewFromInt(unitPrice),
	}})
	require.NoError(t, err)
	return o
}

type orderFixture struct {
	repo    *testutil.MemoryOrderRepository
	refs    *testutil.MemoryPaymentReferenceRepository
	gateway *MockGateway
	svc     *OrderPaymentService
}

func newOrderFixture(orders ...*trade.Order) *orderFixture {
	f := &orderFixture{
		repo:    testutil.NewMemoryOrderRepository(orders...),
		refs:    testutil.NewMemoryPaymentReferenceRepository(),
		gateway: new(MockGateway),
	}
	f.svc = NewOrderPaymentService(f.repo, f.gateway, f.refs, nil, nil)
	f.svc.now = func() time.Time { return time.UnixMilli(fixedMillis) }
	return f
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected domain error, got %v", err)
	assert.Equal(t, code, domainErr.Code)
}

func TestOrderPaymentService_CreateOrderInvoice(t *testing.T) {
	order := newOrder(t, testutil.TestCustomerID(), 250, 2)
	f := newOrderFixture(order)
	wantRef := "order_" + order.ID.String() + "_1767225600000"
	expires := time.Now().Add(24 * time.Hour)

	f.gateway.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(in appfinance.InvoiceInput) bool {
		return in.ExternalID == wantRef && in.Amount.Equal(decimal.NewFromInt(500)) && in.PayerEmail == "buyer@example.com"
	})).Return(&finance.Invoice{ID: "inv-1", InvoiceURL: "https://pay.example/inv-1", ExpiresAt: expires}, nil)

	resp, err := f.svc.CreateOrderInvoice(context.Background(), order.ID, testutil.TestCustomerID(), OrderInvoiceRequest{PayerEmail: "buyer@example.com"})

	require.NoError(t, err)
	assert.Equal(t, "inv-1", resp.InvoiceID)
	assert.Equal(t, wantRef, resp.ExternalReference)
	assert.Equal(t, "PHP", resp.Currency)
	assert.Equal(t, []uuid.UUID{order.ID}, resp.OrderIDs)
	require.NotNil(t, resp.ExpiresAt)

	stored := f.repo.Get(order.ID)
	assert.Equal(t, "inv-1", stored.PaymentReference)
	assert.Equal(t, "https://pay.example/inv-1", stored.PaymentURL)
	assert.Equal(t, "invoice", stored.PaymentMethod)
	assert.True(t, stored.IsAwaitingPayment())

	refs := f.refs.All()
	require.Len(t, refs, 1)
	assert.Equal(t, "inv-1", refs[0].GatewayPaymentID)
	assert.Equal(t, order.ID, refs[0].OwnerID)
	assert.Equal(t, finance.OwnerTypeOrder, refs[0].OwnerType)
	f.gateway.AssertExpectations(t)
}

func TestOrderPaymentService_CreateOrderInvoiceGuards(t *testing.T) {
	owned := newOrder(t, testutil.TestCustomerID(), 100, 1)
	foreign := newOrder(t, testutil.NewTestUUID("99"), 100, 1)
	paid := newOrder(t, testutil.TestCustomerID(), 100, 1)
	require.NoError(t, paid.ConfirmPayment("inv-old", time.Now()))

	tests := []struct {
		name    string
		orderID uuid.UUID
		code    string
	}{
		{name: "unknown order", orderID: uuid.New(), code: shared.CodeNotFound},
		{name: "another customer's order", orderID: foreign.ID, code: shared.CodeForbidden},
		{name: "already paid", orderID: paid.ID, code: shared.CodeInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(owned, foreign, paid)
			_, err := f.svc.CreateOrderInvoice(context.Background(), tt.orderID, testutil.TestCustomerID(), OrderInvoiceRequest{})
			assertCode(t, err, tt.code)
			f.gateway.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderPaymentService_GatewayFailureLeavesOrderUntouched(t *testing.T) {
	order := newOrder(t, testutil.TestCustomerID(), 100, 1)
	f := newOrderFixture(order)
	f.gateway.On("CreateInvoice", mock.Anything, mock.Anything).
		Return(nil, shared.NewDomainError(shared.CodePaymentGateway, "Payment gateway error: timeout"))

	_, err := f.svc.CreateOrderInvoice(context.Background(), order.ID, testutil.TestCustomerID(), OrderInvoiceRequest{})

	assertCode(t, err, shared.CodePaymentGateway)
	assert.Empty(t, f.repo.Get(order.ID).PaymentReference)
	assert.Empty(t, f.refs.All())
}

func TestOrderPaymentService_CreateCartInvoice(t *testing.T) {
	a := newOrder(t, testutil.TestCustomerID(), 100, 3)
	b := newOrder(t, testutil.TestCustomerID(), 50, 1)
	f := newOrderFixture(a, b)
	wantRef := finance.NewOrderBatchReference([]uuid.UUID{a.ID, b.ID}, time.UnixMilli(fixedMillis))

	f.gateway.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(in appfinance.InvoiceInput) bool {
		return in.ExternalID == wantRef && in.Amount.Equal(decimal.NewFromInt(350))
	})).Return(&finance.Invoice{ID: "inv-cart", InvoiceURL: "https://pay.example/inv-cart"}, nil)

	resp, err := f.svc.CreateCartInvoice(context.Background(), testutil.TestCustomerID(), CartInvoiceRequest{
		OrderIDs: []uuid.UUID{a.ID, b.ID, a.ID},
	})

	require.NoError(t, err)
	assert.True(t, resp.Amount.Equal(decimal.NewFromInt(350)))
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, resp.OrderIDs)
	assert.Nil(t, resp.ExpiresAt)
	assert.Equal(t, "inv-cart", f.repo.Get(a.ID).PaymentReference)
	assert.Equal(t, "inv-cart", f.repo.Get(b.ID).PaymentReference)
	assert.Len(t, f.refs.All(), 2)
}

func TestOrderPaymentService_CreateCartInvoiceRejectsMixedOwnership(t *testing.T) {
	a := newOrder(t, testutil.TestCustomerID(), 100, 1)
	b := newOrder(t, testutil.NewTestUUID("7"), 100, 1)
	f := newOrderFixture(a, b)

	_, err := f.svc.CreateCartInvoice(context.Background(), testutil.TestCustomerID(), CartInvoiceRequest{
		OrderIDs: []uuid.UUID{a.ID, b.ID},
	})

	assertCode(t, err, shared.CodeForbidden)
	assert.Empty(t, f.repo.Get(a.ID).PaymentReference)
}

func TestOrderPaymentService_CreateCartInvoiceEmpty(t *testing.T) {
	f := newOrderFixture()
	_, err := f.svc.CreateCartInvoice(context.Background(), testutil.TestCustomerID(), CartInvoiceRequest{
		OrderIDs: []uuid.UUID{uuid.Nil},
	})
	assertCode(t, err, shared.CodeValidation)
}

func TestOrderPaymentService_AttachRetriesOnConflict(t *testing.T) {
	order := newOrder(t, testutil.TestCustomerID(), 100, 1)
	f := newOrderFixture(order)
	f.repo.SaveErr = []error{shared.NewDomainError(shared.CodeConcurrentModification, "modified")}
	f.gateway.On("CreateInvoice", mock.Anything, mock.Anything).
		Return(&finance.Invoice{ID: "inv-1", InvoiceURL: "https://pay.example/inv-1"}, nil)

	_, err := f.svc.CreateOrderInvoice(context.Background(), order.ID, testutil.TestCustomerID(), OrderInvoiceRequest{})

	require.NoError(t, err)
	assert.Equal(t, "inv-1", f.repo.Get(order.ID).PaymentReference)
	assert.Equal(t, 1, f.repo.Saves)
}

func TestOrderPaymentService_CartAttachFailureIsReported(t *testing.T) {
	a := newOrder(t, testutil.TestCustomerID(), 100, 1)
	b := newOrder(t, testutil.TestCustomerID(), 100, 1)
	f := newOrderFixture(a, b)
	f.repo.SetFailSave(b.ID, errors.New("connection reset"))
	f.gateway.On("CreateInvoice", mock.Anything, mock.Anything).
		Return(&finance.Invoice{ID: "inv-cart"}, nil)

	_, err := f.svc.CreateCartInvoice(context.Background(), testutil.TestCustomerID(), CartInvoiceRequest{
		OrderIDs: []uuid.UUID{a.ID, b.ID},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, "inv-cart", f.repo.Get(a.ID).PaymentReference)
	assert.Empty(t, f.repo.Get(b.ID).PaymentReference)
	assert.Len(t, f.refs.All(), 2)
}

func TestOrderPaymentService_CreatePaymentRequest(t *testing.T) {
	order := newOrder(t, testutil.TestCustomerID(), 120, 1)
	f := newOrderFixture(order)
	f.gateway.On("CreatePaymentRequest", mock.Anything, mock.MatchedBy(func(in appfinance.PaymentRequestInput) bool {
		return in.PaymentMethod.Type == finance.PaymentMethodEWallet &&
			in.PaymentMethod.ChannelCode == "GCASH" &&
			in.Amount.Equal(decimal.NewFromInt(120))
	})).Return(&finance.PaymentRequest{ID: "pr-1", Status: "REQUIRES_ACTION", ActionURL: "https://pay.example/pr-1"}, nil)

	resp, err := f.svc.CreatePaymentRequest(context.Background(), testutil.TestCustomerID(), PaymentRequestRequest{
		OrderID:     order.ID,
		Type:        "EWALLET",
		ChannelCode: "GCASH",
	})

	require.NoError(t, err)
	assert.Equal(t, "pr-1", resp.PaymentRequestID)
	assert.Equal(t, "REQUIRES_ACTION", resp.Status)
	stored := f.repo.Get(order.ID)
	assert.Equal(t, "pr-1", stored.PaymentReference)
	assert.Equal(t, "ewallet", stored.PaymentMethod)
	require.Len(t, f.refs.All(), 1)
}
