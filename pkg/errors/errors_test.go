package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	err := FromError(sql.ErrConnDone)
	require.NotNil(t, err)
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrNotFound, "schedule not found"))
	err := FromError(wrapped)
	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, "schedule not found", err.Message)
}

func TestWithDetailsDoesNotMutateOriginal(t *testing.T) {
	err := WithDetails(ErrValidation, Detail{Field: "teacherIds", Code: "none_selected", Message: "select at least one teacher"})
	assert.Len(t, err.Details, 1)
	assert.Empty(t, ErrValidation.Details)
	assert.True(t, Is(err, ErrValidation))
	assert.False(t, Is(err, ErrConflict))
}
