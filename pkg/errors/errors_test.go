package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPredicatesSurviveWrapping(t *testing.T) {
	base := NewNotFoundError("topic")
	wrapped := fmt.Errorf("loading topic: %w", base)

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsUnauthorized(wrapped))
	assert.Equal(t, http.StatusNotFound, GetAppError(wrapped).HTTPStatus)
}

func TestForbiddenIsUnauthorizedKind(t *testing.T) {
	err := NewForbiddenError("")

	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, http.StatusForbidden, err.HTTPStatus)
	assert.Equal(t, "not authorized", err.Message)
}

func TestWrapPlainErrorBecomesInternal(t *testing.T) {
	err := Wrap(fmt.Errorf("boom"), "saving")

	assert.True(t, IsInternal(err))
	assert.Nil(t, Wrap(nil, "noop"))
}

func TestHandlerWritesStatusAndType(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tags/x", nil)

	h.Handle(rec, req, NewDuplicateEntityError("email already registered"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "DUPLICATE_ENTITY", body.Type)
	assert.Equal(t, "email already registered", body.Message)
}

func TestHandlerHidesUnknownErrors(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	h.Handle(rec, req, fmt.Errorf("connection reset"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestMiddlewareRecoversPanic(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("bad") })
	rec := httptest.NewRecorder()

	h.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRateLimitErrorCarriesDetails(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)

	h.Handle(rec, req, NewRateLimitError(5, "15m0s"))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMIT", body.Type)
	assert.Equal(t, float64(5), body.Details["limit"])
	assert.Equal(t, "15m0s", body.Details["window"])
}

func TestDatabaseErrorKeepsCause(t *testing.T) {
	cause := fmt.Errorf("throttled")
	err := NewDatabaseError("Query", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsType(err, ErrorTypeDatabase))
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
}
