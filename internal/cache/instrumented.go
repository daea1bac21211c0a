package cache

import (
	"context"

	"crypto-price-service/internal/metrics"
	"crypto-price-service/internal/model"
)

// InstrumentedCache wraps a PriceCache and records hit/miss metrics per
// backend.
type InstrumentedCache struct {
	inner   PriceCache
	backend string
}

// NewInstrumentedCache wraps the given cache with metrics recording
func NewInstrumentedCache(inner PriceCache, backend string) *InstrumentedCache {
	return &InstrumentedCache{
		inner:   inner,
		backend: backend,
	}
}

func (ic *InstrumentedCache) Get(ctx context.Context, symbol string) (model.PriceRecord, bool, error) {
	record, found, err := ic.inner.Get(ctx, symbol)
	if err == nil {
		if found {
			metrics.RecordCacheHit(ic.backend)
		} else {
			metrics.RecordCacheMiss(ic.backend)
		}
	}
	return record, found, err
}

func (ic *InstrumentedCache) Set(ctx context.Context, symbol string, record model.PriceRecord) error {
	return ic.inner.Set(ctx, symbol, record)
}

func (ic *InstrumentedCache) Close() error {
	return ic.inner.Close()
}
