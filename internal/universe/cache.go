package universe

import (
	"context"
	"sync"
	"time"

	"crypto-price-service/internal/logger"
	"crypto-price-service/internal/model"
)

// Fetcher is the slice of the provider capability the universe cache needs.
type Fetcher interface {
	FetchUniverse(ctx context.Context, size int) ([]model.Listing, error)
}

type snapshot struct {
	entries   []model.UniverseEntry
	bySymbol  map[string]model.UniverseEntry
	fetchedAt time.Time
}

// Cache is the time-boxed cache of the top-N listing. It is the single
// source of truth for "is this symbol trackable" and for provider ids.
// The snapshot is replaced wholesale on refresh, never mutated in place, so
// concurrent readers always observe a consistent listing.
type Cache struct {
	mu      sync.RWMutex
	current *snapshot

	fetcher Fetcher
	size    int
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a universe cache over the given fetcher. The cache starts
// empty; the first Get triggers a fetch.
func NewCache(fetcher Fetcher, size int, ttl time.Duration) *Cache {
	return &Cache{
		fetcher: fetcher,
		size:    size,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the current universe entries, refetching from the provider if
// the snapshot is absent or older than the TTL. A fetch failure propagates;
// there is no stale-serving fallback.
func (c *Cache) Get(ctx context.Context) ([]model.UniverseEntry, error) {
	if snap := c.fresh(); snap != nil {
		return snap.entries, nil
	}

	// Concurrent expiries may race here and both fetch; the snapshot swap
	// below is last-writer-wins and structurally safe.
	listings, err := c.fetcher.FetchUniverse(ctx, c.size)
	if err != nil {
		return nil, err
	}

	snap := newSnapshot(listings, c.now())

	c.mu.Lock()
	c.current = snap
	c.mu.Unlock()

	logger.GetLogger().WithField("entries", len(snap.entries)).Debug("Universe snapshot refreshed")
	return snap.entries, nil
}

// IsTracked reports whether the symbol is present in the current universe.
// The match is done on the canonical uppercase form.
func (c *Cache) IsTracked(ctx context.Context, symbol string) (bool, error) {
	_, found, err := c.lookup(ctx, symbol)
	return found, err
}

// ResolveEntry returns the universe entry for the symbol, or
// model.ErrSymbolNotInUniverse when the symbol is not tracked.
func (c *Cache) ResolveEntry(ctx context.Context, symbol string) (model.UniverseEntry, error) {
	entry, found, err := c.lookup(ctx, symbol)
	if err != nil {
		return model.UniverseEntry{}, err
	}
	if !found {
		return model.UniverseEntry{}, model.ErrSymbolNotInUniverse
	}
	return entry, nil
}

// ResolveProviderID returns the provider's internal id for the symbol, or
// model.ErrSymbolNotInUniverse when the symbol is not tracked.
func (c *Cache) ResolveProviderID(ctx context.Context, symbol string) (string, error) {
	entry, err := c.ResolveEntry(ctx, symbol)
	if err != nil {
		return "", err
	}
	return entry.ProviderID, nil
}

func (c *Cache) lookup(ctx context.Context, symbol string) (model.UniverseEntry, bool, error) {
	if _, err := c.Get(ctx); err != nil {
		return model.UniverseEntry{}, false, err
	}

	c.mu.RLock()
	snap := c.current
	c.mu.RUnlock()

	entry, found := snap.bySymbol[model.NormalizeSymbol(symbol)]
	return entry, found, nil
}

// fresh returns the current snapshot if it is younger than the TTL
func (c *Cache) fresh() *snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.current == nil || c.now().Sub(c.current.fetchedAt) >= c.ttl {
		return nil
	}
	return c.current
}

func newSnapshot(listings []model.Listing, fetchedAt time.Time) *snapshot {
	entries := make([]model.UniverseEntry, 0, len(listings))
	bySymbol := make(map[string]model.UniverseEntry, len(listings))

	for _, listing := range listings {
		entry := model.UniverseEntry{
			Symbol:     listing.Symbol,
			ProviderID: listing.ProviderID,
			Name:       listing.Name,
		}
		entries = append(entries, entry)
		// First listing wins on duplicate symbols; the provider ranks by
		// market cap so the larger asset keeps the ticker.
		if _, exists := bySymbol[entry.Symbol]; !exists {
			bySymbol[entry.Symbol] = entry
		}
	}

	return &snapshot{
		entries:   entries,
		bySymbol:  bySymbol,
		fetchedAt: fetchedAt,
	}
}

// setClock replaces the time source. Test hook.
func (c *Cache) setClock(now func() time.Time) {
	c.now = now
}
