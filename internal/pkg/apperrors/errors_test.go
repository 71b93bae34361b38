package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomErrorUnwrap(t *testing.T) {
	err := NewConflictError("workshop is full")
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "workshop is full", err.Error())

	wrapped := fmt.Errorf("adding attendee: %w", err)
	msg, ok := UserMessage(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "workshop is full", msg)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrWorkshopNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", ErrLessonNotFound)))
	assert.True(t, IsNotFound(NewCustomError(ErrMessageNotFound, "gone")))
	assert.False(t, IsNotFound(ErrConflict))
	assert.False(t, IsNotFound(nil))
}

func TestValidationErrorDetails(t *testing.T) {
	err := NewValidationError("email", "email is required")
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Equal(t, "email", err.Field)

	_, ok := UserMessage(errors.New("plain"))
	assert.False(t, ok)
}
