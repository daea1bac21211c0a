package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crypto-price-service/internal/config"

	"github.com/stretchr/testify/assert"
)

func limitedMiddleware(capacity int) *Middleware {
	return NewMiddleware(config.RateLimitConfig{
		Enabled:      true,
		Capacity:     capacity,
		RefillRate:   capacity,
		RefillPeriod: time.Minute,
	})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(handler http.Handler, path, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandler_AllowsWithinBudget(t *testing.T) {
	handler := limitedMiddleware(10).Handler(okHandler())

	for i := 0; i < 10; i++ {
		rec := doRequest(handler, "/price/BTC", "10.0.0.1:1234", nil)
		assert.Equal(t, http.StatusOK, rec.Code, "request %d within budget", i+1)
	}
}

func TestHandler_RejectsBeyondBudget(t *testing.T) {
	handler := limitedMiddleware(2).Handler(okHandler())

	doRequest(handler, "/price/BTC", "10.0.0.1:1234", nil)
	doRequest(handler, "/price/BTC", "10.0.0.1:1234", nil)
	rec := doRequest(handler, "/price/BTC", "10.0.0.1:1234", nil)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.JSONEq(t, `{"error":{"code":429,"message":"Rate limit exceeded. Please slow down your requests."}}`, rec.Body.String())
}

func TestHandler_BudgetIsPerClient(t *testing.T) {
	handler := limitedMiddleware(1).Handler(okHandler())

	doRequest(handler, "/price/BTC", "10.0.0.1:1234", nil)
	rec := doRequest(handler, "/price/BTC", "10.0.0.2:1234", nil)

	assert.Equal(t, http.StatusOK, rec.Code, "a different client has its own budget")
}

func TestHandler_MonitoringPathsAreExempt(t *testing.T) {
	handler := limitedMiddleware(1).Handler(okHandler())

	doRequest(handler, "/price/BTC", "10.0.0.1:1234", nil)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(handler, "/health", "10.0.0.1:1234", nil).Code)
		assert.Equal(t, http.StatusOK, doRequest(handler, "/metrics", "10.0.0.1:1234", nil).Code)
	}
}

func TestHandler_DisabledPassesEverything(t *testing.T) {
	handler := NewMiddleware(config.RateLimitConfig{Enabled: false}).Handler(okHandler())

	for i := 0; i < 50; i++ {
		assert.Equal(t, http.StatusOK, doRequest(handler, "/price/BTC", "10.0.0.1:1234", nil).Code)
	}
}

func TestHandler_SetsRemainingHeader(t *testing.T) {
	handler := limitedMiddleware(10).Handler(okHandler())

	rec := doRequest(handler, "/price/BTC", "10.0.0.1:1234", nil)

	assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestGetClientID(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr without headers",
			remoteAddr: "10.0.0.1:1234",
			want:       "10.0.0.1",
		},
		{
			name:       "x-forwarded-for takes precedence",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-real-ip as fallback",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/price/BTC", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientID(req))
		})
	}
}
