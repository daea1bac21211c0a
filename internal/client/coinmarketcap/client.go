package coinmarketcap

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"crypto-price-service/internal/logger"
	"crypto-price-service/internal/metrics"
	"crypto-price-service/internal/model"

	"github.com/go-resty/resty/v2"
)

const (
	BaseURL = "https://pro-api.coinmarketcap.com"

	ListingsEndpoint = "/v1/cryptocurrency/listings/latest"
	QuotesEndpoint   = "/v1/cryptocurrency/quotes/latest"

	providerName = "coinmarketcap"
)

// Client is a CoinMarketCap market-data client. Unlike CoinGecko, the quote
// endpoint keys its response data by symbol rather than returning an array.
type Client struct {
	client *resty.Client
}

// NewClient creates a new CoinMarketCap API client
func NewClient(apiKey string, timeout time.Duration) *Client {
	client := resty.New()
	client.SetBaseURL(BaseURL)
	client.SetTimeout(timeout)
	client.SetHeader("X-CMC_PRO_API_KEY", apiKey)
	client.SetHeader("User-Agent", "crypto-price-service/1.0")

	return &Client{client: client}
}

// NewClientWithBaseURL creates a client against a custom host. Test hook.
func NewClientWithBaseURL(apiKey string, timeout time.Duration, baseURL string) *Client {
	c := NewClient(apiKey, timeout)
	c.client.SetBaseURL(baseURL)
	return c
}

type usdQuote struct {
	Price            *float64 `json:"price"`
	MarketCap        *float64 `json:"market_cap"`
	Volume24h        *float64 `json:"volume_24h"`
	PercentChange24h *float64 `json:"percent_change_24h"`
	LastUpdated      string   `json:"last_updated"`
}

type assetRow struct {
	ID     int64               `json:"id"`
	Symbol string              `json:"symbol"`
	Name   string              `json:"name"`
	Slug   string              `json:"slug"`
	Quote  map[string]usdQuote `json:"quote"`
}

type listingsResponse struct {
	Data []assetRow `json:"data"`
}

type quotesResponse struct {
	Data map[string]assetRow `json:"data"`
}

// Name identifies the provider in logs and metrics
func (c *Client) Name() string {
	return providerName
}

// FetchUniverse fetches the top-size assets ranked by market cap descending
func (c *Client) FetchUniverse(ctx context.Context, size int) ([]model.Listing, error) {
	body, err := c.get(ctx, "fetch_universe", ListingsEndpoint, map[string]string{
		"start":   "1",
		"limit":   strconv.Itoa(size),
		"convert": "USD",
		"sort":    "market_cap",
	})
	if err != nil {
		return nil, err
	}

	var parsed listingsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		wrapped := fmt.Errorf("coinmarketcap returned malformed body: %v: %w", err, model.ErrUpstreamUnavailable)
		logger.LogUpstreamError(ctx, providerName, "fetch_universe", wrapped)
		return nil, wrapped
	}

	listings := make([]model.Listing, 0, len(parsed.Data))
	for _, row := range parsed.Data {
		listings = append(listings, row.listing())
	}
	return listings, nil
}

// FetchQuote fetches a single current quote. CoinMarketCap indexes quotes by
// symbol, so the provider id here is the canonical symbol itself. Returns
// (nil, nil) when the symbol is absent from the response map.
func (c *Client) FetchQuote(ctx context.Context, providerID string) (*model.Listing, error) {
	body, err := c.get(ctx, "fetch_quote", QuotesEndpoint, map[string]string{
		"symbol":  providerID,
		"convert": "USD",
	})
	if err != nil {
		return nil, err
	}

	var parsed quotesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		wrapped := fmt.Errorf("coinmarketcap returned malformed body: %v: %w", err, model.ErrUpstreamUnavailable)
		logger.LogUpstreamError(ctx, providerName, "fetch_quote", wrapped)
		return nil, wrapped
	}

	row, ok := parsed.Data[model.NormalizeSymbol(providerID)]
	if !ok {
		return nil, nil
	}

	listing := row.listing()
	return &listing, nil
}

func (c *Client) get(ctx context.Context, operation, endpoint string, params map[string]string) ([]byte, error) {
	start := time.Now()
	resp, err := c.client.R().SetContext(ctx).SetQueryParams(params).Get(endpoint)
	duration := time.Since(start)

	if err != nil {
		metrics.RecordUpstreamRequest(providerName, operation, "error", duration)
		wrapped := fmt.Errorf("coinmarketcap request failed: %v: %w", err, model.ErrUpstreamUnavailable)
		logger.LogUpstreamError(ctx, providerName, operation, wrapped)
		return nil, wrapped
	}

	if resp.IsError() {
		metrics.RecordUpstreamRequest(providerName, operation, strconv.Itoa(resp.StatusCode()), duration)
		wrapped := fmt.Errorf("coinmarketcap returned status %d: %w", resp.StatusCode(), model.ErrUpstreamUnavailable)
		logger.LogUpstreamError(ctx, providerName, operation, wrapped)
		return nil, wrapped
	}

	metrics.RecordUpstreamRequest(providerName, operation, "ok", duration)
	return resp.Body(), nil
}

// listing normalizes a provider row into the canonical shape
func (r assetRow) listing() model.Listing {
	quote := r.Quote["USD"]

	lastUpdated, err := time.Parse(time.RFC3339, quote.LastUpdated)
	if err != nil {
		lastUpdated = time.Now().UTC()
	}

	return model.Listing{
		// Quote lookups are symbol-keyed for this provider; the numeric CMC
		// id is not needed once the row is normalized.
		ProviderID:  model.NormalizeSymbol(r.Symbol),
		Symbol:      model.NormalizeSymbol(r.Symbol),
		Name:        r.Name,
		Price:       deref(quote.Price),
		Change24h:   deref(quote.PercentChange24h),
		MarketCap:   deref(quote.MarketCap),
		Volume24h:   deref(quote.Volume24h),
		LastUpdated: lastUpdated,
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
