package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTestOrder(t *testing.T) *trade.Order {
	t.Helper()
	order, err := trade.NewOrder(uuid.New(), uuid.New(), []trade.OrderItem{
		{ProductID: uuid.New(), ProductName: "Mug", Quantity: 2, UnitPrice: decimal.NewFromInt(150)},
		{ProductID: uuid.New(), ProductName: "Shirt", Quantity: 1, UnitPrice: decimal.NewFromInt(400)},
	})
	require.NoError(t, err)
	return order
}

func TestGormOrderRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	order := newTestOrder(t)
	require.NoError(t, repo.Save(ctx, order))

	t.Run("finds saved order with items", func(t *testing.T) {
		found, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, order.CustomerID, found.CustomerID)
		assert.Equal(t, trade.OrderStatusPending, found.OrderStatus)
		assert.Equal(t, trade.PaymentStatusPending, found.PaymentStatus)
		assert.True(t, found.TotalAmount.Equal(decimal.NewFromInt(700)))
		require.Len(t, found.Items, 2)
		assert.Equal(t, "Mug", found.Items[0].ProductName)
		assert.Equal(t, 2, found.Items[0].Quantity)
		assert.Equal(t, 1, found.Version)
	})

	t.Run("returns nil for missing order", func(t *testing.T) {
		found, err := repo.FindByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("finds subset by ids", func(t *testing.T) {
		other := newTestOrder(t)
		require.NoError(t, repo.Save(ctx, other))

		found, err := repo.FindByIDs(ctx, []uuid.UUID{order.ID, other.ID, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, found, 2)

		empty, err := repo.FindByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestGormOrderRepository_SaveWithLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	order := newTestOrder(t)
	require.NoError(t, repo.Save(ctx, order))

	t.Run("applies update and bumps version", func(t *testing.T) {
		loaded, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		require.NoError(t, loaded.ConfirmPayment("inv-1", time.Now()))

		require.NoError(t, repo.SaveWithLock(ctx, loaded))
		assert.Equal(t, 2, loaded.Version)

		reloaded, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.PaymentStatusPaid, reloaded.PaymentStatus)
		assert.Equal(t, trade.OrderStatusProcessing, reloaded.OrderStatus)
		assert.Equal(t, "inv-1", reloaded.PaymentReference)
		assert.NotNil(t, reloaded.PaidAt)
		assert.Equal(t, 2, reloaded.Version)
	})

	t.Run("rejects stale version", func(t *testing.T) {
		stale := order // still carries version 1
		stale.FailureReason = "late"

		err := repo.SaveWithLock(ctx, stale)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrConcurrentModification)
		assert.Equal(t, 1, stale.Version)
	})
}

func newMockOrderRepo(t *testing.T) (*GormOrderRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewGormOrderRepository(gormDB), mock, mockDB
}

func TestGormOrderRepository_SaveWithLock_SQL(t *testing.T) {
	t.Run("conditions update on id and version", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepo(t)
		defer mockDB.Close()

		order := newTestOrder(t)
		order.Version = 3

		mock.ExpectExec(`UPDATE "orders" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveWithLock(context.Background(), order))
		assert.Equal(t, 4, order.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows affected is a concurrent modification", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepo(t)
		defer mockDB.Close()

		order := newTestOrder(t)

		mock.ExpectExec(`UPDATE "orders" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), order)
		assert.ErrorIs(t, err, shared.ErrConcurrentModification)
		assert.Equal(t, 1, order.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
