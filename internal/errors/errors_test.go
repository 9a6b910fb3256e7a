package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := New(ErrCodeNotFound, "Session not found")
	assert.Equal(t, "NOT_FOUND: Session not found", err.Error())

	wrapped := Wrap(ErrCodeDatabase, "Database error", errors.New("connection refused"))
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrCodeInternal, "something broke", cause)

	assert.ErrorIs(t, err, cause)
}

func TestAsAppError_ThroughWrapping(t *testing.T) {
	inner := NotFound("Session")
	outer := fmt.Errorf("get session: %w", inner)

	appErr, ok := AsAppError(outer)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotFound, appErr.Code)
}

func TestGetCode_PlainError(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, GetCode(errors.New("plain")))
}

func TestActiveSessionExists_CarriesExisting(t *testing.T) {
	existing := map[string]string{"id": "sess-1"}
	err := ActiveSessionExists(existing)

	assert.Equal(t, ErrCodeActiveSessionExists, err.Code)
	assert.Equal(t, existing, err.Details)
}
