package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrNotFound, "class not found"))

	appErr := FromError(wrapped)

	assert.Equal(t, ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "class not found", appErr.Message)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestFromErrorFallsBackToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))

	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.EqualError(t, appErr, "internal server error: boom")
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrValidation, "pattern must not be empty")

	assert.Equal(t, "validation failed", ErrValidation.Message)
	assert.Equal(t, "pattern must not be empty", clone.Message)
	assert.Nil(t, FromError(nil))
}
