package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crypto_price_http_requests_total",
			Help: "The total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crypto_price_http_request_duration_seconds",
			Help:    "The HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crypto_price_cache_hits_total",
			Help: "The total number of price cache hits",
		},
		[]string{"cache_backend"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crypto_price_cache_misses_total",
			Help: "The total number of price cache misses",
		},
		[]string{"cache_backend"},
	)

	// Resolution outcome metrics, labeled by the path that answered the
	// request: cache, store, upstream
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crypto_price_resolutions_total",
			Help: "The total number of quote resolutions by serving path",
		},
		[]string{"source"},
	)

	// Upstream provider metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crypto_price_upstream_requests_total",
			Help: "The total number of upstream provider requests",
		},
		[]string{"provider", "operation", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crypto_price_upstream_request_duration_seconds",
			Help:    "The upstream provider request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	// Background refresh metrics
	RefreshCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crypto_price_refresh_cycles_total",
			Help: "The total number of background refresh cycles",
		},
		[]string{"status"},
	)

	RefreshCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crypto_price_refresh_cycle_duration_seconds",
			Help:    "The background refresh cycle latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Rate limit metrics
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crypto_price_rate_limited_requests_total",
			Help: "The total number of requests rejected by the rate limiter",
		},
	)

	// Current price info
	CurrentPrices = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crypto_price_current_price",
			Help: "The last served price per symbol",
		},
		[]string{"symbol"},
	)

	// Service info
	ServiceInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crypto_price_service_info",
			Help: "Information about the crypto price service",
		},
		[]string{"version", "cache_backend", "provider"},
	)
)

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordCacheHit records a price cache hit
func RecordCacheHit(backend string) {
	CacheHitsTotal.WithLabelValues(backend).Inc()
}

// RecordCacheMiss records a price cache miss
func RecordCacheMiss(backend string) {
	CacheMissesTotal.WithLabelValues(backend).Inc()
}

// RecordResolution records which path served a quote resolution
func RecordResolution(source string) {
	ResolutionsTotal.WithLabelValues(source).Inc()
}

// RecordUpstreamRequest records upstream provider request metrics
func RecordUpstreamRequest(provider, operation, status string, duration time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	UpstreamRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordRefreshCycle records a background refresh cycle
func RecordRefreshCycle(status string, duration time.Duration) {
	RefreshCyclesTotal.WithLabelValues(status).Inc()
	RefreshCycleDuration.Observe(duration.Seconds())
}

// UpdateCurrentPrice updates the current price gauge
func UpdateCurrentPrice(symbol string, price float64) {
	CurrentPrices.WithLabelValues(symbol).Set(price)
}

// SetServiceInfo sets service information
func SetServiceInfo(version, cacheBackend, provider string) {
	ServiceInfo.WithLabelValues(version, cacheBackend, provider).Set(1)
}
