package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotours/tour-booking-api/internal/apperr"
	"github.com/gotours/tour-booking-api/internal/config"
	"github.com/gotours/tour-booking-api/internal/logger"
)

// renderError runs one error through the central handler for the given
// environment and decodes the envelope it wrote.
func renderError(t *testing.T, env string, err error) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	handle := errorHandler(config.Config{Env: env}, logger.New("test", env))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours/1", nil)
	rec := httptest.NewRecorder()
	handle(err, echo.New().NewContext(req, rec))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestErrorHandlerProduction(t *testing.T) {
	t.Run("non-operational collapses to the generic message", func(t *testing.T) {
		cause := errors.New("dial tcp 10.0.0.5:3306: connection refused")
		rec, body := renderError(t, "production", apperr.Internal(cause))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "error", body["status"])
		assert.Equal(t, "Something went wrong!", body["message"])
		assert.NotContains(t, body, "error")
		assert.NotContains(t, body, "stack")
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})

	t.Run("operational message passes through untouched", func(t *testing.T) {
		rec, body := renderError(t, "production", apperr.NotFound("No tour found with that ID"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "fail", body["status"])
		assert.Equal(t, "No tour found with that ID", body["message"])
		assert.NotContains(t, body, "error")
		assert.NotContains(t, body, "stack")
	})

	t.Run("plain errors are treated as non-operational", func(t *testing.T) {
		rec, body := renderError(t, "production", errors.New("index out of range"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Something went wrong!", body["message"])
		assert.NotContains(t, rec.Body.String(), "index out of range")
	})
}

func TestErrorHandlerDevelopment(t *testing.T) {
	t.Run("cause and stack ride along", func(t *testing.T) {
		rec, body := renderError(t, "development", apperr.Internal(errors.New("boom")))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "error", body["status"])
		assert.Equal(t, "boom", body["error"])
		stack, _ := body["stack"].(string)
		assert.NotEmpty(t, stack)
	})

	t.Run("operational error keeps its message and gains a stack", func(t *testing.T) {
		rec, body := renderError(t, "development", apperr.BadRequest("Invalid ID: abc"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "fail", body["status"])
		assert.Equal(t, "Invalid ID: abc", body["message"])
		assert.NotContains(t, body, "error")
		assert.Contains(t, body, "stack")
	})
}

func TestErrorHandlerEchoErrors(t *testing.T) {
	t.Run("route miss renders the envelope", func(t *testing.T) {
		rec, body := renderError(t, "production", echo.ErrNotFound)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "fail", body["status"])
		assert.Equal(t, "Not Found", body["message"])
	})

	t.Run("method not allowed renders the envelope", func(t *testing.T) {
		rec, body := renderError(t, "production", echo.ErrMethodNotAllowed)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, "fail", body["status"])
	})
}
