package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/activity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormActivityLogRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormActivityLogRepository(db)
	ctx := context.Background()

	orderID := uuid.New()
	actor := uuid.New()
	require.NoError(t, repo.Create(ctx, activity.NewLog(&actor, "order", orderID, activity.ActionOrderPaid, map[string]any{
		"payment_reference": "inv-1",
	})))
	require.NoError(t, repo.Create(ctx, activity.NewLog(nil, "order", uuid.New(), activity.ActionOrderPaymentFailed, nil)))

	logs, err := repo.FindByEntity(ctx, "order", orderID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, activity.ActionOrderPaid, logs[0].Action)
	assert.Equal(t, "inv-1", logs[0].Details["payment_reference"])
	require.NotNil(t, logs[0].ActorID)
	assert.Equal(t, actor, *logs[0].ActorID)
}
