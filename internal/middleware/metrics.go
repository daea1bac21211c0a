package middleware

import (
	"net/http"
	"time"

	"crypto-price-service/internal/metrics"

	"github.com/gorilla/mux"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware records HTTP request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		metrics.RecordHTTPRequest(
			r.Method,
			endpointLabel(r),
			wrapped.statusCode,
			time.Since(start),
		)
	})
}

// endpointLabel normalizes paths to the route template to keep metric
// cardinality bounded (one series per route, not per symbol).
func endpointLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if template, err := route.GetPathTemplate(); err == nil {
			return template
		}
	}
	return "/unknown"
}
