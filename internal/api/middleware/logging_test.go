package middleware_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/sales-savvy/internal/api/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogging(t *testing.T) {
	t.Run("Generates correlation id and injects logger", func(t *testing.T) {
		// Arrange
		var seenLogger *slog.Logger
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenLogger = middleware.LoggerFromContext(r.Context())
			w.WriteHeader(http.StatusTeapot)
		})

		req := httptest.NewRequest(http.MethodGet, "/api/cart/items", nil)
		rr := httptest.NewRecorder()

		// Act
		middleware.Logging(next).ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusTeapot, rr.Code)
		assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
		require.NotNil(t, seenLogger)
		assert.NotSame(t, slog.Default(), seenLogger)
	})

	t.Run("Keeps caller supplied correlation id", func(t *testing.T) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.RequestIDHeader, "req-123")
		rr := httptest.NewRecorder()

		middleware.Logging(next).ServeHTTP(rr, req)

		assert.Equal(t, "req-123", rr.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestLoggerFromContextFallsBackToDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Same(t, slog.Default(), middleware.LoggerFromContext(req.Context()))
}
