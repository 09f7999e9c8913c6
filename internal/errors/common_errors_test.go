package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewNotFoundError("state \"Alpha\""),
			expected: "[NOT_FOUND] state \"Alpha\" not found",
		},
		{
			name:     "with cause",
			err:      NewModelFitError("fit failed", errors.New("singular matrix")),
			expected: "[MODEL_FIT] fit failed: singular matrix",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewModelFitError("fit failed", cause)

	assert.True(t, errors.Is(err, cause))

	wrapped := fmt.Errorf("forecast Alpha: %w", err)
	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeModelFit, appErr.Type)
}

func TestNewInsufficientDataError(t *testing.T) {
	err := NewInsufficientDataError(2, 3)

	assert.Equal(t, ErrTypeInsufficientData, err.Type)
	assert.Equal(t, 2, err.Context["points"])
	assert.Equal(t, 3, err.Context["minimum"])
	assert.Contains(t, err.Error(), "2 points")
}

func TestTypePredicates(t *testing.T) {
	tests := []struct {
		name             string
		err              error
		notFound         bool
		insufficientData bool
		modelFit         bool
		validation       bool
	}{
		{name: "nil", err: nil},
		{name: "plain error", err: errors.New("boom")},
		{name: "not found", err: NewNotFoundError("category"), notFound: true},
		{name: "insufficient data", err: NewInsufficientDataError(1, 3), insufficientData: true},
		{name: "wrapped model fit", err: fmt.Errorf("ctx: %w", NewModelFitError("x", nil)), modelFit: true},
		{name: "validation", err: NewAppValidationError("horizon out of range"), validation: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.insufficientData, IsInsufficientData(tt.err))
			assert.Equal(t, tt.modelFit, IsModelFit(tt.err))
			assert.Equal(t, tt.validation, IsValidation(tt.err))
		})
	}
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeParsing, Message: "bad row"}
	err.WithContext("line", 7).WithContext("column", "Year")

	assert.Equal(t, 7, err.Context["line"])
	assert.Equal(t, "Year", err.Context["column"])
}
