package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/customization"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAgreedCustomization(t *testing.T) *customization.CustomizationRequest {
	t.Helper()
	req, err := customization.NewCustomizationRequest(uuid.New(), uuid.New(), "Team jerseys")
	require.NoError(t, err)
	require.NoError(t, req.ProposePricing(req.DesignerID, customization.PricingInput{
		DesignFee:    decimal.NewFromInt(500),
		ProductCost:  decimal.NewFromInt(300),
		PrintingCost: decimal.NewFromInt(200),
		PaymentType:  customization.PaymentTypeMilestone,
		Milestones: []customization.MilestoneInput{
			{Description: "Initial design", Amount: decimal.NewFromInt(400)},
			{Description: "Final print", Amount: decimal.NewFromInt(600)},
		},
	}))
	require.NoError(t, req.AgreeToPricing(req.CustomerID))
	req.ClearDomainEvents()
	return req
}

func TestGormCustomizationRequestRepository_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCustomizationRequestRepository(db)
	ctx := context.Background()

	req := newAgreedCustomization(t)
	milestoneID := req.Payment.Milestones[0].ID
	require.NoError(t, req.AddPendingPayment(customization.PaymentRecord{
		ID:                "inv-1",
		Amount:            decimal.NewFromInt(400),
		PaymentMethod:     "invoice",
		MilestoneID:       &milestoneID,
		ExternalReference: "customization_" + req.ID.String() + "-1700000000",
	}))
	require.NoError(t, repo.Save(ctx, req))

	found, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, customization.StatusApproved, found.Status)
	require.NotNil(t, found.Pricing)
	assert.True(t, found.Pricing.IsFullyAgreed())
	assert.True(t, found.Pricing.TotalCost.Equal(decimal.NewFromInt(1000)))

	require.NotNil(t, found.Payment)
	assert.Equal(t, customization.PaymentTypeMilestone, found.Payment.PaymentType)
	assert.Equal(t, customization.LedgerStatusPending, found.Payment.PaymentStatus)
	assert.True(t, found.Payment.RemainingAmount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, found.Payment.Balanced())
	require.Len(t, found.Payment.Milestones, 2)
	assert.Equal(t, milestoneID, found.Payment.Milestones[0].ID)
	require.Len(t, found.Payment.Payments, 1)
	assert.Equal(t, customization.PaymentRecordPending, found.Payment.Payments[0].Status)
	require.NotNil(t, found.Payment.Payments[0].MilestoneID)
	assert.Equal(t, milestoneID, *found.Payment.Payments[0].MilestoneID)

	missing, err := repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGormCustomizationRequestRepository_SaveWithLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCustomizationRequestRepository(db)
	ctx := context.Background()

	req := newAgreedCustomization(t)
	require.NoError(t, req.AddPendingPayment(customization.PaymentRecord{ID: "inv-9", Amount: decimal.NewFromInt(400)}))
	require.NoError(t, repo.Save(ctx, req))

	first, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)

	result, err := first.ConfirmPayment("inv-9", decimal.NewFromInt(400), "txn-1", time.Now())
	require.NoError(t, err)
	require.Equal(t, customization.OutcomeApplied, result.Outcome)
	require.NoError(t, repo.SaveWithLock(ctx, first))
	assert.Equal(t, 2, first.Version)

	// The second writer loaded the same version and must lose
	_, err = second.ConfirmPayment("inv-9", decimal.NewFromInt(400), "txn-1", time.Now())
	require.NoError(t, err)
	err = repo.SaveWithLock(ctx, second)
	assert.ErrorIs(t, err, shared.ErrConcurrentModification)

	stored, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, stored.Payment.PaidAmount.Equal(decimal.NewFromInt(400)))
	assert.True(t, stored.Payment.RemainingAmount.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, customization.LedgerStatusPartiallyPaid, stored.Payment.PaymentStatus)
	assert.Equal(t, "txn-1", stored.Payment.Payments[0].TransactionID)
	assert.True(t, stored.Payment.Milestones[0].IsPaid)
	assert.Equal(t, 2, stored.Version)
}
