package apperrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorError(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		expected string
	}{
		{
			name: "With Code",
			appError: &AppError{
				Code:    "TEST_CODE",
				Message: "This is a test error",
			},
			expected: "[TEST_CODE] This is a test error",
		},
		{
			name: "Without Code",
			appError: &AppError{
				Message: "This is a test error without code",
			},
			expected: "This is a test error without code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.appError.Error()
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestWrapDatabaseError(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapDatabaseError(cause, "failed to load loans")

	assert.True(t, errors.Is(err, ErrDatabase))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "[DB_ERROR] failed to load loans", err.Error())
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("tenure", "must be at least 1")

	assert.True(t, errors.Is(err, ErrValidation))
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "tenure", ve.Field)
	assert.Equal(t, "must be at least 1", ve.Message)
}

func TestValidationErrors(t *testing.T) {
	t.Run("lists every field", func(t *testing.T) {
		err := ValidationErrors{
			{Field: "monthly_income", Message: "is required"},
			{Field: "age", Message: "must be greater than 0"},
		}

		assert.True(t, errors.Is(err, ErrValidation))
		assert.Equal(t, "validation failed: monthly_income: is required; age: must be greater than 0", err.Error())
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "validation failed", ValidationErrors{}.Error())
	})

	t.Run("as target through wrapping", func(t *testing.T) {
		var wrapped error = ValidationErrors{{Field: "tenure", Message: "is required"}}
		var target ValidationErrors
		assert.True(t, errors.As(wrapped, &target))
		assert.Len(t, target, 1)
	})
}
