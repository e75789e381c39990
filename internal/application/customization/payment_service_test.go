package customization

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appfinance "github.com/printmarket/backend/internal/application/finance"
	"github.com/printmarket/backend/internal/domain/customization"
	"github.com/printmarket/backend/internal/domain/finance"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/testutil"
)

type MockInvoiceCreator struct {
	mock.Mock
}

func (m *MockInvoiceCreator) CreateInvoice(ctx context.Context, in appfinance.InvoiceInput) (*finance.Invoice, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Invoice), args.Error(1)
}

type paymentFixture struct {
	req      *customization.CustomizationRequest
	repo     *testutil.MemoryRequestRepository
	refs     *testutil.MemoryPaymentReferenceRepository
	invoices *MockInvoiceCreator
	svc      *PaymentService
}

func newPaymentFixture(t *testing.T, agree bool) *paymentFixture {
	t.Helper()
	req := newRequest(t)
	require.NoError(t, req.ProposePricing(testutil.TestDesignerID(), milestonePricing().toInput()))
	if agree {
		require.NoError(t, req.AgreeToPricing(testutil.TestCustomerID()))
	}
	req.ClearDomainEvents()

	f := &paymentFixture{
		req:      req,
		repo:     testutil.NewMemoryRequestRepository(req),
		refs:     testutil.NewMemoryPaymentReferenceRepository(),
		invoices: new(MockInvoiceCreator),
	}
	f.svc = NewPaymentService(f.repo, f.invoices, f.refs, nil, nil)
	f.svc.now = func() time.Time { return time.UnixMilli(1767225600000) }
	return f
}

func TestPaymentService_ProcessPayment(t *testing.T) {
	f := newPaymentFixture(t, true)
	deposit := f.req.Payment.Milestones[0].ID
	expires := time.Now().Add(24 * time.Hour)
	wantRef := "customization-" + f.req.ID.String() + "-1767225600000"

	f.invoices.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(in appfinance.InvoiceInput) bool {
		return in.ExternalID == wantRef &&
			in.Amount.Equal(decimal.NewFromInt(400)) &&
			strings.Contains(in.Description, "Deposit")
	})).Return(&finance.Invoice{ID: "inv-1", InvoiceURL: "https://pay.example/inv-1", ExpiresAt: expires}, nil)

	resp, err := f.svc.ProcessPayment(context.Background(), f.req.ID, testutil.TestCustomerID(), ProcessPaymentRequest{
		Amount:      decimal.NewFromInt(400),
		MilestoneID: &deposit,
	})

	require.NoError(t, err)
	assert.Equal(t, "inv-1", resp.PaymentID)
	assert.Equal(t, "https://pay.example/inv-1", resp.InvoiceURL)
	assert.Equal(t, wantRef, resp.ExternalReference)
	require.NotNil(t, resp.ExpiresAt)

	stored := f.repo.Get(f.req.ID)
	require.Len(t, stored.Payment.Payments, 1)
	record := stored.Payment.Payments[0]
	assert.Equal(t, customization.PaymentRecordPending, record.Status)
	assert.Equal(t, "invoice", record.PaymentMethod)
	assert.Equal(t, &deposit, record.MilestoneID)
	assert.True(t, stored.Payment.PaidAmount.IsZero(), "pending payments do not count as paid")
	assert.True(t, stored.Payment.RemainingAmount.Equal(decimal.NewFromInt(1000)))

	refs := f.refs.All()
	require.Len(t, refs, 1)
	assert.Equal(t, "inv-1", refs[0].GatewayPaymentID)
	assert.Equal(t, finance.OwnerTypeCustomization, refs[0].OwnerType)
	assert.Equal(t, f.req.ID, refs[0].OwnerID)
	f.invoices.AssertExpectations(t)
}

func TestPaymentService_ProcessPaymentGuards(t *testing.T) {
	tests := []struct {
		name   string
		agree  bool
		caller uuid.UUID
		amount int64
		bogus  bool
		code   string
	}{
		{name: "before agreement", agree: false, caller: testutil.TestCustomerID(), amount: 400, code: shared.CodeInvalidState},
		{name: "not the customer", agree: true, caller: testutil.TestDesignerID(), amount: 400, code: shared.CodeForbidden},
		{name: "more than remaining", agree: true, caller: testutil.TestCustomerID(), amount: 1001, code: shared.CodeValidation},
		{name: "zero amount", agree: true, caller: testutil.TestCustomerID(), amount: 0, code: shared.CodeValidation},
		{name: "unknown milestone", agree: true, caller: testutil.TestCustomerID(), amount: 400, bogus: true, code: shared.CodeValidation},
		{name: "milestone ledger without milestone", agree: true, caller: testutil.TestCustomerID(), amount: 400, code: shared.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(t, tt.agree)
			req := ProcessPaymentRequest{Amount: decimal.NewFromInt(tt.amount)}
			if tt.bogus {
				id := uuid.New()
				req.MilestoneID = &id
			}

			_, err := f.svc.ProcessPayment(context.Background(), f.req.ID, tt.caller, req)

			assertCode(t, err, tt.code)
			f.invoices.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything)
			assert.Empty(t, f.refs.All())
		})
	}
}

func TestPaymentService_MilestoneAmountMustMatch(t *testing.T) {
	f := newPaymentFixture(t, true)
	final := f.req.Payment.Milestones[1].ID

	_, err := f.svc.ProcessPayment(context.Background(), f.req.ID, testutil.TestCustomerID(), ProcessPaymentRequest{
		Amount:      decimal.NewFromInt(400),
		MilestoneID: &final,
	})

	assertCode(t, err, shared.CodeValidation)
}

func TestPaymentService_GatewayFailureLeavesLedgerUntouched(t *testing.T) {
	f := newPaymentFixture(t, true)
	deposit := f.req.Payment.Milestones[0].ID
	f.invoices.On("CreateInvoice", mock.Anything, mock.Anything).
		Return(nil, shared.NewDomainError(shared.CodePaymentGateway, "Payment gateway error"))

	_, err := f.svc.ProcessPayment(context.Background(), f.req.ID, testutil.TestCustomerID(), ProcessPaymentRequest{
		Amount:      decimal.NewFromInt(400),
		MilestoneID: &deposit,
	})

	assertCode(t, err, shared.CodePaymentGateway)
	assert.Empty(t, f.repo.Get(f.req.ID).Payment.Payments)
	assert.Empty(t, f.refs.All())
}

func TestPaymentService_IndexFailureIsNotFatal(t *testing.T) {
	f := newPaymentFixture(t, true)
	final := f.req.Payment.Milestones[1].ID
	f.refs.Err = assert.AnError
	f.invoices.On("CreateInvoice", mock.Anything, mock.Anything).
		Return(&finance.Invoice{ID: "inv-2", InvoiceURL: "https://pay.example/inv-2"}, nil)

	resp, err := f.svc.ProcessPayment(context.Background(), f.req.ID, testutil.TestCustomerID(), ProcessPaymentRequest{
		Amount:        decimal.NewFromInt(600),
		MilestoneID:   &final,
		PaymentMethod: "EWALLET",
	})

	require.NoError(t, err)
	assert.Nil(t, resp.ExpiresAt)
	stored := f.repo.Get(f.req.ID)
	require.Len(t, stored.Payment.Payments, 1)
	assert.Equal(t, "EWALLET", stored.Payment.Payments[0].PaymentMethod)
}
