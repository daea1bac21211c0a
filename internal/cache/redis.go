package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"crypto-price-service/internal/model"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores price records in Redis so multiple instances can share
// the hot cache. Expiry is delegated to Redis key TTLs.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache creates a new Redis-backed price cache instance
func NewRedisCache(config Config) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: rdb,
		ttl:    config.TTL,
		prefix: "crypto_price:",
	}, nil
}

// Get returns the cached record for the symbol if present and not expired
func (rc *RedisCache) Get(ctx context.Context, symbol string) (model.PriceRecord, bool, error) {
	val, err := rc.client.Get(ctx, rc.prefix+symbol).Result()
	if err == redis.Nil {
		return model.PriceRecord{}, false, nil
	}
	if err != nil {
		return model.PriceRecord{}, false, fmt.Errorf("failed to get cached price: %w", err)
	}

	var record model.PriceRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return model.PriceRecord{}, false, fmt.Errorf("failed to unmarshal cached price: %w", err)
	}

	return record, true, nil
}

// Set stores a record for the symbol with the configured TTL
func (rc *RedisCache) Set(ctx context.Context, symbol string, record model.PriceRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal price record: %w", err)
	}

	return rc.client.Set(ctx, rc.prefix+symbol, string(data), rc.ttl).Err()
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// NewCacheFromConfig creates a cache instance based on configuration
func NewCacheFromConfig(backend string, config Config) (PriceCache, error) {
	var cache PriceCache
	var err error

	switch strings.ToLower(backend) {
	case "memory", "":
		cache = NewMemoryCache(config)
	case "redis":
		cache, err = NewRedisCache(config)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", backend)
	}

	// Wrap with instrumented cache for metrics
	return NewInstrumentedCache(cache, strings.ToLower(backend)), nil
}
