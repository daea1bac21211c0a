package client

import (
	"context"
	"fmt"
	"strings"

	"crypto-price-service/internal/client/coingecko"
	"crypto-price-service/internal/client/coinmarketcap"
	"crypto-price-service/internal/config"
	"crypto-price-service/internal/model"
)

// Provider is the canonical capability offered by a market-data backend.
// Implementations normalize their provider-specific response shapes into
// model.Listing; the resolution policy never sees provider field names.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// FetchUniverse returns the top-size assets ranked by market cap in
	// descending order. Transport, non-2xx and malformed-schema failures are
	// reported as model.ErrUpstreamUnavailable.
	FetchUniverse(ctx context.Context, size int) ([]model.Listing, error)

	// FetchQuote returns a single current quote by provider id. A nil listing
	// with nil error means the provider has no data for the id; transport
	// failures are reported as model.ErrUpstreamUnavailable.
	FetchQuote(ctx context.Context, providerID string) (*model.Listing, error)
}

// New builds the configured provider variant.
func New(cfg config.ProviderConfig) (Provider, error) {
	switch strings.ToLower(cfg.Name) {
	case "coingecko", "":
		return coingecko.NewClient(cfg.APIKey, cfg.Timeout), nil
	case "coinmarketcap":
		return coinmarketcap.NewClient(cfg.APIKey, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported market-data provider: %s", cfg.Name)
	}
}
