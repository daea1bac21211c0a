package cache

import (
	"context"
	"testing"
	"time"

	"crypto-price-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(symbol string, price float64) model.PriceRecord {
	return model.PriceRecord{
		Symbol:      symbol,
		Name:        symbol,
		Price:       price,
		LastUpdated: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	mc := NewMemoryCache(Config{TTL: time.Minute})
	ctx := context.Background()

	record := testRecord("BTC", 65000.12)
	require.NoError(t, mc.Set(ctx, "BTC", record))

	got, found, err := mc.Get(ctx, "BTC")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, record, got)
}

func TestMemoryCache_MissOnUnknownSymbol(t *testing.T) {
	mc := NewMemoryCache(Config{TTL: time.Minute})

	_, found, err := mc.Get(context.Background(), "ETH")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_EntryExpiresAfterTTL(t *testing.T) {
	mc := NewMemoryCache(Config{TTL: time.Minute})
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	mc.setClock(func() time.Time { return now })

	require.NoError(t, mc.Set(ctx, "BTC", testRecord("BTC", 65000)))

	now = now.Add(59 * time.Second)
	_, found, err := mc.Get(ctx, "BTC")
	require.NoError(t, err)
	assert.True(t, found, "entry within TTL is served")

	now = now.Add(time.Second)
	_, found, err = mc.Get(ctx, "BTC")
	require.NoError(t, err)
	assert.False(t, found, "entry aged exactly TTL is a miss")

	now = now.Add(time.Second)
	_, found, err = mc.Get(ctx, "BTC")
	require.NoError(t, err)
	assert.False(t, found, "expired entry is a miss")
}

func TestMemoryCache_SetReplacesExistingEntry(t *testing.T) {
	mc := NewMemoryCache(Config{TTL: time.Minute})
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "BTC", testRecord("BTC", 64000)))
	require.NoError(t, mc.Set(ctx, "BTC", testRecord("BTC", 65000)))

	got, found, err := mc.Get(ctx, "BTC")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 65000.0, got.Price)
	assert.Equal(t, 1, mc.Size())
}

func TestMemoryCache_SetSweepsExpiredEntries(t *testing.T) {
	mc := NewMemoryCache(Config{TTL: time.Minute})
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	mc.setClock(func() time.Time { return now })

	require.NoError(t, mc.Set(ctx, "BTC", testRecord("BTC", 65000)))
	require.NoError(t, mc.Set(ctx, "ETH", testRecord("ETH", 3500)))
	assert.Equal(t, 2, mc.Size())

	now = now.Add(2 * time.Minute)
	require.NoError(t, mc.Set(ctx, "SOL", testRecord("SOL", 150)))

	assert.Equal(t, 1, mc.Size(), "expired entries are swept on write")
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	mc := NewMemoryCache(Config{TTL: time.Minute})
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			mc.Set(ctx, "BTC", testRecord("BTC", float64(i)))
		}
	}()

	for i := 0; i < 100; i++ {
		mc.Get(ctx, "BTC")
	}
	<-done
}
