package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Clone(ErrNotFound, "nail studio not found"))

	appErr := FromError(wrapped)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "nail studio not found", appErr.Message)
}

func TestFromErrorHidesUntypedCause(t *testing.T) {
	appErr := FromError(errors.New("pq: connection refused"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, ErrInternal.Message, appErr.Message)
	assert.EqualError(t, appErr.Unwrap(), "pq: connection refused")
}

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrSlotTaken, "image number 3 already exists")
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NotErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, "SLOT_TAKEN", ErrSlotTaken.Code)
}
