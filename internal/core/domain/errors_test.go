package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapterErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewAdapterError("omdb", ErrorUnavailable, cause)

	// Survives further wrapping.
	wrapped := fmt.Errorf("fetch: %w", err)

	ae, ok := AsAdapterError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "omdb", ae.Source)
	assert.Equal(t, ErrorUnavailable, ae.Kind)
	assert.True(t, errors.Is(wrapped, cause))
}

func TestErrorKindRetryable(t *testing.T) {
	assert.True(t, ErrorTimeout.Retryable())
	assert.True(t, ErrorUnavailable.Retryable())
	assert.False(t, ErrorRateLimited.Retryable())
	assert.False(t, ErrorUnauthorized.Retryable())
	assert.False(t, ErrorMalformed.Retryable())
}

func TestErrorKindHelpers(t *testing.T) {
	assert.True(t, IsRateLimited(NewAdapterError("crawlix", ErrorRateLimited, nil)))
	assert.False(t, IsRateLimited(NewAdapterError("crawlix", ErrorTimeout, nil)))
	assert.True(t, IsUnauthorized(NewAdapterError("omdb", ErrorUnauthorized, nil)))
	assert.False(t, IsUnauthorized(errors.New("plain")))
}

func TestAdapterErrorMessage(t *testing.T) {
	assert.Equal(t, "omdb: timeout", NewAdapterError("omdb", ErrorTimeout, nil).Error())
	assert.Equal(t, "cinemeta: malformed: bad row",
		NewAdapterError("cinemeta", ErrorMalformed, errors.New("bad row")).Error())
}
