package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := NewDomainError(CodeInvalidState, "Order is not awaiting payment")
	wrapped := fmt.Errorf("confirm order: %w", err)

	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.True(t, errors.Is(wrapped, ErrInvalidState))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, errors.New("other")))
	assert.Equal(t, "Order is not awaiting payment", err.Error())
}
