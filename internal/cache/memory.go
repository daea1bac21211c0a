package cache

import (
	"context"
	"sync"
	"time"

	"crypto-price-service/internal/model"
)

type cachedRecord struct {
	record   model.PriceRecord
	storedAt time.Time
}

// MemoryCache is the in-process price cache backend.
type MemoryCache struct {
	mu      sync.RWMutex
	records map[string]cachedRecord
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates a new in-memory price cache instance
func NewMemoryCache(config Config) *MemoryCache {
	return &MemoryCache{
		records: make(map[string]cachedRecord),
		ttl:     config.TTL,
		now:     time.Now,
	}
}

// Get returns the cached record for the symbol if present and not expired
func (mc *MemoryCache) Get(ctx context.Context, symbol string) (model.PriceRecord, bool, error) {
	mc.mu.RLock()
	entry, exists := mc.records[symbol]
	mc.mu.RUnlock()

	// An entry aged exactly TTL is expired, same boundary as the universe
	// snapshot and the store freshness window.
	if !exists || mc.now().Sub(entry.storedAt) >= mc.ttl {
		return model.PriceRecord{}, false, nil
	}

	return entry.record, true, nil
}

// Set stores a record for the symbol, replacing any previous entry. Expired
// entries are swept opportunistically to keep the map from growing.
func (mc *MemoryCache) Set(ctx context.Context, symbol string, record model.PriceRecord) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	for key, entry := range mc.records {
		if now.Sub(entry.storedAt) >= mc.ttl {
			delete(mc.records, key)
		}
	}

	mc.records[symbol] = cachedRecord{
		record:   record,
		storedAt: now,
	}
	return nil
}

// Size returns the number of cached entries, expired or not
func (mc *MemoryCache) Size() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.records)
}

// Close is a no-op for the in-memory backend
func (mc *MemoryCache) Close() error {
	return nil
}

// setClock replaces the time source. Test hook.
func (mc *MemoryCache) setClock(now func() time.Time) {
	mc.now = now
}
