package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound_WrapsSentinel(t *testing.T) {
	err := NotFound("event", "01ABC")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", err)))
	assert.Contains(t, err.Error(), "event 01ABC")
}

func TestValidationError(t *testing.T) {
	err := fmt.Errorf("request: %w", Invalid("entityId", "must not be empty"))

	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "entityId")
}

func TestNewID_Monotonic(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.Len(t, a, 26)
	assert.Less(t, a, b)
}
