package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aaravmahajanofficial/sales-savvy/internal/errors"
	"github.com/aaravmahajanofficial/sales-savvy/internal/utils/response"
)

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, subject string) (bool, int, int, error)
}

// RateLimit throttles cart mutations per authenticated user. It must run
// after Authenticate. When the limiter itself fails the request goes through.
func RateLimit(limiter RateLimiter, next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := LoggerFromContext(r.Context())

		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		allowed, remaining, retryAfter, err := limiter.CheckRateLimit(r.Context(), claims.Username)
		if err != nil {
			logger.Warn("Rate limit check failed, allowing request", slog.String("error", err.Error()))
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			response.Error(w, errors.TooManyRequestsError("Too many cart updates, please try again later"))
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		next.ServeHTTP(w, r)
	}
}
