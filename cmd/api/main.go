package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"crypto-price-service/internal/cache"
	"crypto-price-service/internal/client"
	"crypto-price-service/internal/config"
	"crypto-price-service/internal/handler"
	"crypto-price-service/internal/logger"
	"crypto-price-service/internal/metrics"
	"crypto-price-service/internal/ratelimit"
	"crypto-price-service/internal/scheduler"
	"crypto-price-service/internal/service"
	"crypto-price-service/internal/store"
	"crypto-price-service/internal/universe"
)

func main() {
	log.Println("Starting Crypto Price Service...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging
	logger.SetLogLevel(cfg.App.LogLevel)
	structuredLogger := logger.GetLogger()

	structuredLogger.Info("Initializing service components...")

	// Market-data provider
	provider, err := client.New(cfg.Provider)
	if err != nil {
		structuredLogger.WithField("error", err.Error()).Fatal("Failed to create provider client")
	}

	// Persistent history store
	db, err := store.NewConnection(cfg.Store.DatabaseURI, structuredLogger)
	if err != nil {
		structuredLogger.WithField("error", err.Error()).Fatal("Failed to connect to database")
	}
	defer db.Close()

	repository := store.NewRepository(db, structuredLogger)

	// Price cache
	cacheConfig := cache.Config{
		TTL:           cfg.Cache.TTL,
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
	}

	priceCache, err := cache.NewCacheFromConfig(cfg.Cache.Backend, cacheConfig)
	if err != nil {
		structuredLogger.WithField("error", err.Error()).Fatal("Failed to create cache")
	}
	defer priceCache.Close()

	structuredLogger.WithField("backend", cfg.Cache.Backend).Info("Cache initialized successfully")

	metrics.SetServiceInfo("1.0.0", cfg.Cache.Backend, provider.Name())

	// Universe cache and resolution service
	universeCache := universe.NewCache(provider, cfg.Universe.Size, cfg.Universe.TTL)
	priceService := service.NewPriceService(provider, universeCache, priceCache, repository, cfg.Store.FreshnessWindow)

	// HTTP server
	priceHandler := handler.NewPriceHandler(priceService, db)
	rateLimiter := ratelimit.NewMiddleware(cfg.RateLimit)
	server := handler.CreateServer(priceHandler, rateLimiter, cfg.Server.Port)

	// Background refresh job keeps the history store warm
	ctx := context.Background()
	refreshJob := scheduler.NewRefreshJob(provider, repository, cfg.Universe.Size, cfg.Store.RefreshInterval, structuredLogger)
	if err := refreshJob.Start(ctx); err != nil {
		structuredLogger.WithField("error", err.Error()).Fatal("Failed to start refresh job")
	}
	defer refreshJob.Stop()

	structuredLogger.WithField("port", cfg.Server.Port).Info("Server starting")

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			structuredLogger.WithField("error", err.Error()).Fatal("Failed to start server")
		}
	}()

	log.Printf("Crypto Price Service is running on http://localhost:%s", cfg.Server.Port)
	log.Printf("Price endpoint available at: http://localhost:%s/price/{symbol}", cfg.Server.Port)
	log.Printf("Health check available at: http://localhost:%s/health", cfg.Server.Port)
	log.Printf("Metrics available at: http://localhost:%s/metrics", cfg.Server.Port)
	log.Printf("API docs available at: http://localhost:%s/swagger/", cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	structuredLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		structuredLogger.WithField("error", err.Error()).Fatal("Server forced to shutdown")
	}

	structuredLogger.Info("Server shutdown completed")
}
