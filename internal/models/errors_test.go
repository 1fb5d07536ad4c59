package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionDenied(t *testing.T) {
	t.Parallel()

	err := NewPermissionDeniedError(errors.New("gateway down"))
	assert.True(t, IsPermissionDenied(err))
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.True(t, IsPermissionDenied(fmt.Errorf("wrapped: %w", ErrPermissionDenied)))
	assert.False(t, IsPermissionDenied(NewInternalError(errors.New("x"))))
	assert.False(t, IsPermissionDenied(&AccountInactiveError{Reason: ReasonSuspended}))
}

func TestAccountInactiveUserMessage(t *testing.T) {
	t.Parallel()

	inactive := (&AccountInactiveError{Reason: ReasonInactive}).UserMessage()
	suspended := (&AccountInactiveError{Reason: ReasonSuspended}).UserMessage()
	notActive := (&AccountInactiveError{Reason: ReasonNotActive}).UserMessage()

	assert.NotEqual(t, inactive, suspended)
	assert.Equal(t, suspended, notActive)
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, fiber.StatusForbidden, StatusFor(&AccountInactiveError{Reason: ReasonSuspended}))
	assert.Equal(t, fiber.StatusForbidden, StatusFor(ErrPermissionDenied))
	assert.Equal(t, fiber.StatusNotFound, StatusFor(NewNotFoundError("Consentment", 1)))
	assert.Equal(t, fiber.StatusBadRequest, StatusFor(NewValidationError("bad")))
	assert.Equal(t, fiber.StatusUnauthorized, StatusFor(NewUnauthorizedError("no")))
	assert.Equal(t, fiber.StatusConflict, StatusFor(NewConflictError("dup", nil)))
	assert.Equal(t, fiber.StatusInternalServerError, StatusFor(errors.New("boom")))
}

func TestRespondWithError(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Get("/inactive", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusForbidden, &AccountInactiveError{Reason: ReasonInactive})
	})
	app.Get("/denied", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusForbidden, NewPermissionDeniedError(errors.New("secret cause")))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/inactive", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	var body ErrorResponse
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, CodeAccountInactive, body.Code)
	assert.Equal(t, ReasonInactive, body.Reason)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/denied", nil))
	require.NoError(t, err)
	raw, _ = io.ReadAll(resp.Body)
	body = ErrorResponse{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, CodePermissionDenied, body.Code)
	assert.Empty(t, body.Details)
	assert.NotContains(t, string(raw), "secret cause")
}
