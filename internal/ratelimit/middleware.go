package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"crypto-price-service/internal/config"
	"crypto-price-service/internal/logger"
	"crypto-price-service/internal/metrics"

	"github.com/sirupsen/logrus"
)

// Middleware enforces a per-client request budget. Clients are identified by
// IP (honoring reverse-proxy headers); monitoring paths are exempt.
type Middleware struct {
	limiter   *Collection
	skipPaths map[string]bool
	enabled   bool
}

// NewMiddleware creates the rate limiting middleware from configuration
func NewMiddleware(cfg config.RateLimitConfig) *Middleware {
	skipPaths := map[string]bool{
		"/health":  true,
		"/metrics": true,
	}

	var limiter *Collection
	if cfg.Enabled {
		limiter = NewCollection(cfg.Capacity, cfg.RefillRate, cfg.RefillPeriod)
	}

	return &Middleware{
		limiter:   limiter,
		skipPaths: skipPaths,
		enabled:   cfg.Enabled,
	}
}

// Handler returns the HTTP middleware handler
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled || m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		clientID := getClientID(r)
		if !m.limiter.Allow(clientID) {
			metrics.RateLimitedTotal.Inc()
			logger.GetLogger().WithFields(logrus.Fields{
				"client_id": clientID,
				"path":      r.URL.Path,
				"method":    r.Method,
			}).Warn("Rate limit exceeded")

			writeRateLimitError(w)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(m.limiter.Tokens(clientID)))
		next.ServeHTTP(w, r)
	})
}

// getClientID extracts a client identifier used as the bucket key
func getClientID(r *http.Request) string {
	if xForwardedFor := r.Header.Get("X-Forwarded-For"); xForwardedFor != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		parts := strings.Split(xForwardedFor, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	if xRealIP := r.Header.Get("X-Real-IP"); xRealIP != "" {
		return xRealIP
	}

	remoteAddr := r.RemoteAddr
	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 {
		return remoteAddr[:idx]
	}
	return remoteAddr
}

func writeRateLimitError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    http.StatusTooManyRequests,
			"message": "Rate limit exceeded. Please slow down your requests.",
		},
	})
}
