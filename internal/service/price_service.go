package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crypto-price-service/internal/logger"
	"crypto-price-service/internal/metrics"
	"crypto-price-service/internal/model"

	"github.com/sirupsen/logrus"
)

// Universe is the slice of the universe cache the resolution policy needs.
type Universe interface {
	IsTracked(ctx context.Context, symbol string) (bool, error)
	ResolveEntry(ctx context.Context, symbol string) (model.UniverseEntry, error)
}

// QuoteFetcher is the slice of the provider capability the policy needs.
type QuoteFetcher interface {
	Name() string
	FetchQuote(ctx context.Context, providerID string) (*model.Listing, error)
}

// PriceCache is the per-symbol hot cache consumed by the policy.
type PriceCache interface {
	Get(ctx context.Context, symbol string) (model.PriceRecord, bool, error)
	Set(ctx context.Context, symbol string, record model.PriceRecord) error
}

// HistoryStore is the persistent repository consumed by the policy.
type HistoryStore interface {
	FindAssetWithLatestPrice(ctx context.Context, symbol string) (*model.TrackedAsset, *model.PriceHistoryEntry, error)
	UpsertAsset(ctx context.Context, symbol, name, providerSlug string) (*model.TrackedAsset, error)
	AppendPriceHistory(ctx context.Context, assetID int64, listing model.Listing) error
}

// PriceService turns a symbol into a price record: price cache first, then
// persisted recent history, then the upstream provider, populating cache and
// store on the way back.
type PriceService struct {
	provider  QuoteFetcher
	universe  Universe
	cache     PriceCache
	store     HistoryStore
	freshness time.Duration
	now       func() time.Time
}

// NewPriceService creates the resolution service. freshness is the maximum
// age of a persisted history row still served without an upstream call.
func NewPriceService(provider QuoteFetcher, universe Universe, cache PriceCache, store HistoryStore, freshness time.Duration) *PriceService {
	return &PriceService{
		provider:  provider,
		universe:  universe,
		cache:     cache,
		store:     store,
		freshness: freshness,
		now:       time.Now,
	}
}

// Resolve returns the current price record for the symbol.
//
// Error contract: model.ErrSymbolNotInUniverse and model.ErrSymbolNotFound
// are returned as-is; every other failure in cache, store or upstream access
// is logged here and surfaced as model.ErrUpstreamUnavailable.
func (s *PriceService) Resolve(ctx context.Context, symbol string) (model.PriceRecord, error) {
	symbol = model.NormalizeSymbol(symbol)

	tracked, err := s.universe.IsTracked(ctx, symbol)
	if err != nil {
		return model.PriceRecord{}, s.fail(ctx, symbol, "universe lookup", err)
	}
	if !tracked {
		return model.PriceRecord{}, fmt.Errorf("%s: %w", symbol, model.ErrSymbolNotInUniverse)
	}

	// Hot path: last served record within TTL.
	if record, found, err := s.cache.Get(ctx, symbol); err != nil {
		return model.PriceRecord{}, s.fail(ctx, symbol, "cache read", err)
	} else if found {
		logger.LogCacheOperation(ctx, "get", symbol, true)
		metrics.RecordResolution("cache")
		return record, nil
	}
	logger.LogCacheOperation(ctx, "get", symbol, false)

	// Warm path: persisted history kept fresh by the background refresh job.
	record, served, err := s.resolveFromStore(ctx, symbol)
	if err != nil {
		return model.PriceRecord{}, s.fail(ctx, symbol, "store lookup", err)
	}
	if served {
		metrics.RecordResolution("store")
		return record, nil
	}

	// Cold path: one upstream quote call, persisted and cached on success.
	record, err = s.resolveFromUpstream(ctx, symbol)
	if err != nil {
		return model.PriceRecord{}, s.fail(ctx, symbol, "upstream fetch", err)
	}
	metrics.RecordResolution("upstream")
	return record, nil
}

// resolveFromStore serves the symbol from its latest persisted history row
// when that row is younger than the freshness window.
func (s *PriceService) resolveFromStore(ctx context.Context, symbol string) (model.PriceRecord, bool, error) {
	asset, latest, err := s.store.FindAssetWithLatestPrice(ctx, symbol)
	if err != nil {
		return model.PriceRecord{}, false, err
	}
	if asset == nil || latest == nil {
		return model.PriceRecord{}, false, nil
	}

	if s.now().Sub(latest.QuotedAt) >= s.freshness {
		return model.PriceRecord{}, false, nil
	}

	record := model.PriceRecord{
		Symbol:      asset.Symbol,
		Name:        asset.Name,
		Price:       latest.Price,
		Change24h:   latest.Change24h,
		MarketCap:   latest.MarketCap,
		LastUpdated: latest.QuotedAt,
	}

	if err := s.cache.Set(ctx, symbol, record); err != nil {
		return model.PriceRecord{}, false, err
	}

	return record, true, nil
}

// resolveFromUpstream issues a single quote call, then persists and caches
// the observation.
func (s *PriceService) resolveFromUpstream(ctx context.Context, symbol string) (model.PriceRecord, error) {
	entry, err := s.universe.ResolveEntry(ctx, symbol)
	if err != nil {
		return model.PriceRecord{}, err
	}

	listing, err := s.provider.FetchQuote(ctx, entry.ProviderID)
	if err != nil {
		return model.PriceRecord{}, err
	}
	if listing == nil {
		// In the universe listing but the provider returned nothing for it on
		// this call: a lookup miss, not a data-integrity error.
		return model.PriceRecord{}, fmt.Errorf("%s: %w", symbol, model.ErrSymbolNotFound)
	}

	asset, err := s.store.UpsertAsset(ctx, listing.Symbol, listing.Name, listing.ProviderID)
	if err != nil {
		return model.PriceRecord{}, err
	}
	if err := s.store.AppendPriceHistory(ctx, asset.ID, *listing); err != nil {
		return model.PriceRecord{}, err
	}

	record := listing.PriceRecord()
	if err := s.cache.Set(ctx, symbol, record); err != nil {
		return model.PriceRecord{}, err
	}

	metrics.UpdateCurrentPrice(symbol, record.Price)
	return record, nil
}

// fail implements the propagation policy: the two typed misses pass through
// untouched, everything else is logged with context and collapsed into
// model.ErrUpstreamUnavailable.
func (s *PriceService) fail(ctx context.Context, symbol, operation string, err error) error {
	if errors.Is(err, model.ErrSymbolNotInUniverse) || errors.Is(err, model.ErrSymbolNotFound) {
		return err
	}

	logger.GetLogger().WithFields(logrus.Fields{
		"request_id": logger.GetRequestID(ctx),
		"symbol":     symbol,
		"operation":  operation,
		"provider":   s.provider.Name(),
		"error":      err.Error(),
	}).Error("Quote resolution failed")

	if errors.Is(err, model.ErrUpstreamUnavailable) {
		return err
	}
	return fmt.Errorf("%s %s: %v: %w", operation, symbol, err, model.ErrUpstreamUnavailable)
}

// setClock replaces the time source. Test hook.
func (s *PriceService) setClock(now func() time.Time) {
	s.now = now
}
