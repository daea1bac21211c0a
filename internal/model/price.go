package model

import (
	"strings"
	"time"
)

// PriceRecord is the canonical quote served to API callers and stored in the
// price cache.
type PriceRecord struct {
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Change24h   float64   `json:"change24h"`
	MarketCap   float64   `json:"marketCap"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Listing is one normalized provider row: a current market observation for a
// single asset. Providers map their wire formats into this shape.
type Listing struct {
	// ProviderID is the provider's internal identifier for the asset
	// (CoinGecko coin id, or the symbol itself for symbol-keyed providers).
	ProviderID  string
	Symbol      string
	Name        string
	Price       float64
	Change24h   float64
	MarketCap   float64
	Volume24h   float64
	LastUpdated time.Time
}

// PriceRecord converts the listing into the served record shape
func (l Listing) PriceRecord() PriceRecord {
	return PriceRecord{
		Symbol:      l.Symbol,
		Name:        l.Name,
		Price:       l.Price,
		Change24h:   l.Change24h,
		MarketCap:   l.MarketCap,
		LastUpdated: l.LastUpdated,
	}
}

// UniverseEntry identifies one tracked asset in the current top-N universe.
type UniverseEntry struct {
	Symbol     string
	ProviderID string
	Name       string
}

// NormalizeSymbol returns the canonical form of a user-supplied symbol.
// All internal lookups are done on this form.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
