package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crimecast/internal/shared/testutil"
)

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{
			name:       "context deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "not found app error",
			err:        fmt.Errorf("build: %w", NewNotFoundError("state \"Nowhere\"")),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "validation app error",
			err:        NewAppValidationError("horizon must be between 1 and 10"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   "VALIDATION",
		},
		{
			name:       "insufficient data",
			err:        NewInsufficientDataError(2, 3),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeInsufficientData,
			wantCode:   "INSUFFICIENT_DATA",
		},
		{
			name:       "api error",
			err:        ErrValidation("horizon", "must be between 1 and 10"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "unknown error",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/forecast", nil)
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-1"))
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "/api/forecast", body["instance"])
			assert.Equal(t, "req-1", body["trace_id"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, rec.Body.Len())
	assert.Equal(t, 0, logs.Count())
}

func TestErrorHandler_InsufficientDataCarriesContext(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)
	req := httptest.NewRequest(http.MethodGet, "/api/forecast", nil)

	problem := h.ErrorToProblem(NewInsufficientDataError(2, 3), req)

	assert.Equal(t, 2, problem.Extensions["points"])
	assert.Equal(t, 3, problem.Extensions["minimum"])
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	RecoveryMiddleware(h)(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "kaboom")
	testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "/a").
		WithExtension("trace_id", "abc").
		WithExtension("type", "overridden")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, TypeNotFound, out["type"])
	assert.Equal(t, "abc", out["trace_id"])
	assert.NotContains(t, out, "detail")
}
