package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestIsQuotaError(t *testing.T) {
	rateLimited := &googleapi.Error{Code: http.StatusTooManyRequests, Message: "quota"}
	assert.True(t, isQuotaError(rateLimited))
	assert.True(t, isQuotaError(fmt.Errorf("wrapped: %w", rateLimited)))

	apiErr, ok := apierror.FromError(rateLimited)
	require.True(t, ok)
	assert.True(t, isQuotaError(apiErr))

	assert.False(t, isQuotaError(&googleapi.Error{Code: http.StatusInternalServerError}))
	assert.False(t, isQuotaError(errors.New("429 in a plain string is not enough")))
}

func TestNewLLMServiceRequiresKey(t *testing.T) {
	_, err := NewLLMService("", 10)
	assert.Error(t, err)
}
