package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_Status(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{"bad request", BadRequest("x"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("x"), http.StatusUnauthorized},
		{"forbidden", Forbidden("x"), http.StatusForbidden},
		{"not found", NotFound("x"), http.StatusNotFound},
		{"conflict", Conflict("x"), http.StatusConflict},
		{"validation", Validation("x", nil), http.StatusUnprocessableEntity},
		{"internal", Internal("x", nil), http.StatusInternalServerError},
		{"custom", New(http.StatusTooManyRequests, "x"), http.StatusTooManyRequests},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Status)
			assert.Equal(t, "x", tc.err.Message)
		})
	}
}

func TestWrap_UnwrapsCause(t *testing.T) {
	cause := errors.New("db down")
	err := Internal("Database operation failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Database operation failed: db down", err.Error())
}

func TestAs_FindsWrappedError(t *testing.T) {
	orig := NotFound("Donation not found")
	wrapped := fmt.Errorf("handler: %w", orig)

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, orig, got)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestValidation_CarriesFields(t *testing.T) {
	err := Validation("Validation failed", []FieldError{{Field: "email", Message: "Must be a valid email address", Value: "nope"}})
	require.Len(t, err.Fields, 1)
	assert.Equal(t, "email", err.Fields[0].Field)
}

func TestStack_ContainsCaller(t *testing.T) {
	err := BadRequest("x")
	assert.Contains(t, err.Stack(), "TestStack_ContainsCaller")
}
