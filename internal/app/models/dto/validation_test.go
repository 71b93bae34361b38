package dto

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email string `validate:"required,email"`
	Name  string `validate:"required,min=2"`
}

func TestHandleValidationErrorFields(t *testing.T) {
	err := validator.New().Struct(sample{Email: "nope", Name: ""})
	require.Error(t, err)

	detail := HandleValidationError(err)
	assert.Equal(t, ErrorCodeValidationFailed, detail.Code)
	fields, ok := detail.Details.([]FieldError)
	require.True(t, ok)
	require.Len(t, fields, 2)
	assert.Equal(t, "Email", fields[0].Field)
	assert.Equal(t, "Email must be a valid email address", fields[0].Message)
	assert.Equal(t, "Name is required", fields[1].Message)
}

func TestHandleValidationErrorJSON(t *testing.T) {
	var v map[string]int
	err := json.Unmarshal([]byte(`{"a":`), &v)
	assert.Equal(t, ErrorCodeBadRequest, HandleValidationError(err).Code)

	err = json.Unmarshal([]byte(`{"a":"x"}`), &v)
	detail := HandleValidationError(err)
	assert.Equal(t, "Invalid field type", detail.Message)

	detail = HandleValidationError(errors.New("EOF"))
	assert.Equal(t, "Invalid request body", detail.Message)
}
