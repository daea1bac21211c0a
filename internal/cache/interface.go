package cache

import (
	"context"
	"time"

	"crypto-price-service/internal/model"
)

// PriceCache is the per-symbol short-TTL cache of the last served price
// record. Entries expire by time only; the key space is bounded in practice
// by the universe size.
type PriceCache interface {
	// Get returns the cached record for the symbol if present and not expired.
	Get(ctx context.Context, symbol string) (model.PriceRecord, bool, error)

	// Set stores a record for the symbol, replacing any previous entry.
	Set(ctx context.Context, symbol string, record model.PriceRecord) error

	// Close releases any backend connections.
	Close() error
}

// Config holds configuration for cache implementations
type Config struct {
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}
