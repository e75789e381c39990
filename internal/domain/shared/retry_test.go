package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryOnConflict(t *testing.T) {
	conflict := NewDomainError(CodeConcurrentModification, "The order has been modified by another transaction")

	t.Run("retries conflicts until success", func(t *testing.T) {
		calls, retries := 0, 0
		err := RetryOnConflict(context.Background(), 3, func(context.Context) error {
			calls++
			if calls < 3 {
				return conflict
			}
			return nil
		}, func(int) { retries++ })

		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 2, retries)
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		calls := 0
		err := RetryOnConflict(context.Background(), 2, func(context.Context) error {
			calls++
			return conflict
		}, nil)

		assert.ErrorIs(t, err, ErrConcurrentModification)
		assert.Equal(t, 2, calls)
	})

	t.Run("returns other errors immediately", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := RetryOnConflict(context.Background(), 5, func(context.Context) error {
			calls++
			return boom
		}, nil)

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := RetryOnConflict(ctx, 3, func(context.Context) error { return nil }, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("runs at least once", func(t *testing.T) {
		calls := 0
		_ = RetryOnConflict(context.Background(), 0, func(context.Context) error { calls++; return nil }, nil)
		assert.Equal(t, 1, calls)
	})
}
