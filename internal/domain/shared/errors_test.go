package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError(t *testing.T) {
	cause := errors.New("connection reset")
	err := ErrUpstreamUnavailable.WithCause(cause)

	assert.Equal(t, "Marketplace is unavailable: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.NotErrorIs(t, err, ErrUpstreamRejected)
	assert.Nil(t, ErrUpstreamUnavailable.Err, "WithCause must not mutate the shared error")
}

func TestDomainError_WithMessage(t *testing.T) {
	err := ErrNotFound.WithMessage("item SKU-1 not found")

	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, "item SKU-1 not found", err.Error())
	assert.Equal(t, "Resource not found", ErrNotFound.Message)

	var de *DomainError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &de))
	assert.Equal(t, "NOT_FOUND", de.Code)
}

func TestNewDomainError(t *testing.T) {
	err := NewDomainError("CUSTOM", "custom failure")

	assert.Equal(t, "custom failure", err.Error())
	assert.True(t, errors.Is(err, NewDomainError("CUSTOM", "other text")), "errors match by code")
}
