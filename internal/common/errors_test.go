package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDetails_DoesNotMutateSentinel(t *testing.T) {
	detailed := ErrNotFound.WithDetails("notification abc")

	assert.Equal(t, "notification abc", detailed.Details)
	assert.Nil(t, ErrNotFound.Details)
	assert.Equal(t, http.StatusNotFound, detailed.StatusCode)
	assert.Equal(t, ErrNotFound.Code, detailed.Code)
}

func TestIsAPIError(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", ErrServiceUnavailable)

	apiErr, ok := IsAPIError(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)

	_, ok = IsAPIError(errors.New("plain"))
	assert.False(t, ok)
}
