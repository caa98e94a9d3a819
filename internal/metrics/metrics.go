package metrics

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/aaravmahajanofficial/sales-savvy/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const OutcomeSuccess = "success"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"code", "method", "path"},
	)
	httpRequestsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current Number of HTTP requests being processed.",
		},
	)

	cartOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_operations_total",
			Help: "Cart operations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
)

func init() {
	if err := prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		slog.Debug("ProcessCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}

	if err := prometheus.Register(collectors.NewGoCollector()); err != nil {
		slog.Debug("GoCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}
}

// RecordCartOperation counts one cart operation. The outcome is "success" or
// the lower-cased AppError code, "internal_error" for anything else.
func RecordCartOperation(operation string, err error) {
	cartOperationsTotal.WithLabelValues(operation, Outcome(err)).Inc()
}

func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}

	if appErr, ok := appErrors.IsAppError(err); ok {
		return strings.ToLower(appErr.Code)
	}

	return strings.ToLower(appErrors.ErrCodeInternal)
}

// wrapper around http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// UnmatchedPath labels requests no route accepts, so unknown paths share one series.
const UnmatchedPath = "unmatched"

// Router is the part of *http.ServeMux used to name the route of a request.
type Router interface {
	Handler(r *http.Request) (h http.Handler, pattern string)
}

// routeLabel turns the matched pattern ("GET /api/cart/items") into its path.
func routeLabel(router Router, r *http.Request) string {
	_, pattern := router.Handler(r)
	if pattern == "" {
		return UnmatchedPath
	}

	if _, path, found := strings.Cut(pattern, " "); found {
		return path
	}

	return pattern
}

// Middleware records request count, latency and in-flight requests, labelled
// by the route the router would pick.
func Middleware(router Router, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := newResponseWriter(w)

		pathPattern := routeLabel(router, r)

		defer func() {

			duration := time.Since(start)
			statusCodeStr := strconv.Itoa(rw.statusCode)

			httpRequestsTotal.WithLabelValues(statusCodeStr, r.Method, pathPattern).Inc()
			httpRequestsDuration.WithLabelValues(r.Method, pathPattern).Observe(duration.Seconds())
			httpRequestsInFlight.Dec()

		}()

		next.ServeHTTP(rw, r)

	})
}

// http.Handler for the Prometheus /metrics endpoint
func Handler() http.Handler {

	return promhttp.Handler()
}
