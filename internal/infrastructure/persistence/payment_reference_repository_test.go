package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/finance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormPaymentReferenceRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentReferenceRepository(db)
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()
	refs := finance.NewPaymentReferences("inv-batch", "orders_x_1700000000", finance.OwnerTypeOrder, a, b)

	t.Run("saves one row per owner", func(t *testing.T) {
		require.NoError(t, repo.SaveAll(ctx, refs))

		found, err := repo.FindByGatewayPaymentID(ctx, "inv-batch")
		require.NoError(t, err)
		require.Len(t, found, 2)
		owners := []uuid.UUID{found[0].OwnerID, found[1].OwnerID}
		assert.ElementsMatch(t, []uuid.UUID{a, b}, owners)
		assert.Equal(t, finance.OwnerTypeOrder, found[0].OwnerType)
	})

	t.Run("saving again is a no-op", func(t *testing.T) {
		require.NoError(t, repo.SaveAll(ctx, refs))

		found, err := repo.FindByGatewayPaymentID(ctx, "inv-batch")
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("unknown payment id yields no rows", func(t *testing.T) {
		found, err := repo.FindByGatewayPaymentID(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("empty input is accepted", func(t *testing.T) {
		assert.NoError(t, repo.SaveAll(ctx, nil))
	})
}
