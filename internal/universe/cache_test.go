package universe

import (
	"context"
	"errors"
	"testing"
	"time"

	"crypto-price-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	listings []model.Listing
	err      error
	calls    int
	lastSize int
}

func (f *countingFetcher) FetchUniverse(ctx context.Context, size int) ([]model.Listing, error) {
	f.calls++
	f.lastSize = size
	if f.err != nil {
		return nil, f.err
	}
	return f.listings, nil
}

func topListings() []model.Listing {
	return []model.Listing{
		{ProviderID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", Price: 65000},
		{ProviderID: "ethereum", Symbol: "ETH", Name: "Ethereum", Price: 3500},
		{ProviderID: "solana", Symbol: "SOL", Name: "Solana", Price: 150},
	}
}

func TestGet_FetchesOnceWithinTTL(t *testing.T) {
	fetcher := &countingFetcher{listings: topListings()}
	cache := NewCache(fetcher, 100, 5*time.Minute)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.setClock(func() time.Time { return now })

	for i := 0; i < 5; i++ {
		entries, err := cache.Get(context.Background())
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	}

	assert.Equal(t, 1, fetcher.calls, "repeated reads within TTL share one snapshot")
	assert.Equal(t, 100, fetcher.lastSize)
}

func TestGet_RefetchesAfterTTLExpiry(t *testing.T) {
	fetcher := &countingFetcher{listings: topListings()}
	cache := NewCache(fetcher, 100, 5*time.Minute)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.setClock(func() time.Time { return now })

	_, err := cache.Get(context.Background())
	require.NoError(t, err)

	// One second before expiry, still fresh
	now = now.Add(5*time.Minute - time.Second)
	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)

	// At exactly the TTL boundary the snapshot is expired
	now = now.Add(time.Second)
	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestGet_FetchFailurePropagates(t *testing.T) {
	fetchErr := errors.New("provider returned 503")
	fetcher := &countingFetcher{err: fetchErr}
	cache := NewCache(fetcher, 100, 5*time.Minute)

	_, err := cache.Get(context.Background())

	assert.ErrorIs(t, err, fetchErr)
}

func TestGet_NoStaleServingAfterExpiry(t *testing.T) {
	fetcher := &countingFetcher{listings: topListings()}
	cache := NewCache(fetcher, 100, 5*time.Minute)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.setClock(func() time.Time { return now })

	_, err := cache.Get(context.Background())
	require.NoError(t, err)

	// Expire the snapshot and make the next fetch fail; the stale data
	// must not be served in its place.
	now = now.Add(10 * time.Minute)
	fetcher.err = errors.New("provider timeout")

	_, err = cache.Get(context.Background())
	assert.Error(t, err)
}

func TestIsTracked_MatchesCaseInsensitively(t *testing.T) {
	fetcher := &countingFetcher{listings: topListings()}
	cache := NewCache(fetcher, 100, 5*time.Minute)

	tests := []struct {
		symbol  string
		tracked bool
	}{
		{"BTC", true},
		{"btc", true},
		{"Eth", true},
		{"ZZZ9", false},
		{"DOGE", false},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			tracked, err := cache.IsTracked(context.Background(), tt.symbol)
			require.NoError(t, err)
			assert.Equal(t, tt.tracked, tracked)
		})
	}
}

func TestResolveEntry(t *testing.T) {
	fetcher := &countingFetcher{listings: topListings()}
	cache := NewCache(fetcher, 100, 5*time.Minute)

	entry, err := cache.ResolveEntry(context.Background(), "sol")
	require.NoError(t, err)
	assert.Equal(t, "solana", entry.ProviderID)
	assert.Equal(t, "Solana", entry.Name)

	_, err = cache.ResolveEntry(context.Background(), "ZZZ9")
	assert.ErrorIs(t, err, model.ErrSymbolNotInUniverse)
}

func TestResolveProviderID(t *testing.T) {
	fetcher := &countingFetcher{listings: topListings()}
	cache := NewCache(fetcher, 100, 5*time.Minute)

	id, err := cache.ResolveProviderID(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", id)
}

func TestSnapshot_FirstListingWinsOnDuplicateSymbol(t *testing.T) {
	listings := []model.Listing{
		{ProviderID: "bitcoin", Symbol: "BTC", Name: "Bitcoin"},
		{ProviderID: "bitcoin-bep2", Symbol: "BTC", Name: "Bitcoin BEP2"},
	}
	fetcher := &countingFetcher{listings: listings}
	cache := NewCache(fetcher, 100, 5*time.Minute)

	entry, err := cache.ResolveEntry(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", entry.ProviderID, "higher-ranked listing keeps the ticker")
}

func TestGet_RefreshReplacesSnapshot(t *testing.T) {
	fetcher := &countingFetcher{listings: topListings()}
	cache := NewCache(fetcher, 100, 5*time.Minute)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.setClock(func() time.Time { return now })

	tracked, err := cache.IsTracked(context.Background(), "SOL")
	require.NoError(t, err)
	assert.True(t, tracked)

	// SOL drops out of the universe on the next refresh
	fetcher.listings = topListings()[:2]
	now = now.Add(10 * time.Minute)

	tracked, err = cache.IsTracked(context.Background(), "SOL")
	require.NoError(t, err)
	assert.False(t, tracked, "replaced snapshot must not retain dropped symbols")
}
