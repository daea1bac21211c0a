package model

import "time"

// TrackedAsset is one persisted asset row. Assets are never deleted; an asset
// that drops out of the universe keeps its history.
type TrackedAsset struct {
	ID           int64     `json:"id"`
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name"`
	ProviderSlug string    `json:"providerSlug"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PriceHistoryEntry is one append-only price observation for an asset.
type PriceHistoryEntry struct {
	ID        int64     `json:"id"`
	AssetID   int64     `json:"assetId"`
	Price     float64   `json:"price"`
	MarketCap float64   `json:"marketCap"`
	Volume24h float64   `json:"volume24h"`
	Change24h float64   `json:"change24h"`
	QuotedAt  time.Time `json:"quotedAt"`
}
