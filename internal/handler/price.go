package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"crypto-price-service/internal/docs"
	"crypto-price-service/internal/middleware"
	"crypto-price-service/internal/model"
	"crypto-price-service/internal/ratelimit"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// PriceResolver is the service operation the HTTP layer depends on.
type PriceResolver interface {
	Resolve(ctx context.Context, symbol string) (model.PriceRecord, error)
}

// HealthChecker reports backing-store connectivity for the health endpoint.
type HealthChecker interface {
	HealthCheck() error
}

// PriceHandler handles HTTP requests for the price endpoints
type PriceHandler struct {
	service PriceResolver
	health  HealthChecker
}

// NewPriceHandler creates a new price handler instance
func NewPriceHandler(service PriceResolver, health HealthChecker) *PriceHandler {
	return &PriceHandler{
		service: service,
		health:  health,
	}
}

// HandlePrice handles GET /price/{symbol}
func (h *PriceHandler) HandlePrice(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	record, err := h.service.Resolve(r.Context(), symbol)
	if err != nil {
		h.writeResolveError(w, symbol, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=60")

	if err := json.NewEncoder(w).Encode(record); err != nil {
		log.Printf("Failed to encode price response: %v", err)
	}
}

// HandleInvalidSymbol rejects symbols that fail the path validation pattern
func (h *PriceHandler) HandleInvalidSymbol(w http.ResponseWriter, r *http.Request) {
	h.writeErrorResponse(w, http.StatusBadRequest,
		"Symbol must contain only letters, numbers, and hyphens")
}

// HandleHealth handles the health check endpoint
func (h *PriceHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "healthy"
	code := http.StatusOK
	if h.health != nil {
		if err := h.health.HealthCheck(); err != nil {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  status,
		"service": "crypto-price-service",
	})
}

// writeResolveError maps domain errors onto HTTP status codes. Internal
// cause detail is never leaked to the caller.
func (h *PriceHandler) writeResolveError(w http.ResponseWriter, symbol string, err error) {
	symbol = model.NormalizeSymbol(symbol)

	switch {
	case errors.Is(err, model.ErrSymbolNotInUniverse):
		h.writeErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("Cryptocurrency %s is not in the top 100", symbol))
	case errors.Is(err, model.ErrSymbolNotFound):
		h.writeErrorResponse(w, http.StatusNotFound,
			fmt.Sprintf("Cryptocurrency %s not found", symbol))
	default:
		h.writeErrorResponse(w, http.StatusInternalServerError,
			"Failed to fetch cryptocurrency data")
	}
}

// writeErrorResponse writes an error response in JSON format
func (h *PriceHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    statusCode,
			"message": message,
		},
	}

	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		log.Printf("Failed to write error response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// ServeSwaggerSpec serves the OpenAPI specification with the request host
// substituted in.
func (h *PriceHandler) ServeSwaggerSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	spec := docs.Spec
	if forwarded := r.Header.Get("X-Forwarded-Host"); forwarded != "" {
		spec = strings.ReplaceAll(spec, docs.SwaggerInfo.Host, forwarded)
	} else if r.Host != "" {
		spec = strings.ReplaceAll(spec, docs.SwaggerInfo.Host, r.Host)
	}

	w.Write([]byte(spec))
}

// SetupRoutes sets up HTTP routes for the service
func (h *PriceHandler) SetupRoutes(router *mux.Router) {
	// The constrained pattern matches well-formed symbols; anything else in
	// the segment falls through to the 400 route before the core is invoked.
	router.HandleFunc("/price/{symbol:[A-Za-z0-9-]+}", h.HandlePrice).Methods(http.MethodGet)
	router.HandleFunc("/price/{symbol}", h.HandleInvalidSymbol).Methods(http.MethodGet)
	router.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)

	// Monitoring endpoints
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Documentation endpoints. The doc.json route must be registered before
	// the /swagger/ prefix handler: mux matches routes in registration order.
	router.HandleFunc("/swagger/doc.json", h.ServeSwaggerSpec).Methods(http.MethodGet)
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}

// corsMiddleware adds CORS headers for the public read-only API
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CreateServer creates an HTTP server with the full middleware chain
func CreateServer(handler *PriceHandler, rateLimiter *ratelimit.Middleware, port string) *http.Server {
	router := mux.NewRouter()
	handler.SetupRoutes(router)

	// Router-level middleware runs after route matching so the metrics
	// middleware can label by route template.
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.MetricsMiddleware)
	router.Use(rateLimiter.Handler)

	return &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: corsMiddleware(router),
	}
}
