package coingecko

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
	// BaseURL is fixed; CoinGecko has a single public API host.
	BaseURL = "https://api.coingecko.com/api/v3"

	MarketsEndpoint = "/coins/markets"

	providerName = "coingecko"
)

// Client is a CoinGecko market-data client. The free tier authenticates via
// the x_cg_demo_api_key query parameter.
type Client struct {
	client *resty.Client
	apiKey string
}

// NewClient creates a new CoinGecko API client
func NewClient(apiKey string, timeout time.Duration) *Client {
	client := resty.New()
	client.SetBaseURL(BaseURL)
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "crypto-price-service/1.0")

	return &Client{
		client: client,
		apiKey: apiKey,
	}
}

// NewClientWithBaseURL creates a client against a custom host. Test hook.
func NewClientWithBaseURL(apiKey string, timeout time.Duration, baseURL string) *Client {
	c := NewClient(apiKey, timeout)
	c.client.SetBaseURL(baseURL)
	return c
}

// marketRow mirrors one element of the /coins/markets response array.
// Numeric fields are pointers because CoinGecko omits them for thinly traded
// assets; absent values normalize to 0.
type marketRow struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                *float64 `json:"market_cap"`
	TotalVolume              *float64 `json:"total_volume"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	LastUpdated              string   `json:"last_updated"`
}

// Name identifies the provider in logs and metrics
func (c *Client) Name() string {
	return providerName
}

// FetchUniverse fetches the top-size assets ranked by market cap descending
func (c *Client) FetchUniverse(ctx context.Context, size int) ([]model.Listing, error) {
	rows, err := c.fetchMarkets(ctx, "fetch_universe", map[string]string{
		"vs_currency": "usd",
		"order":       "market_cap_desc",
		"per_page":    strconv.Itoa(size),
		"page":        "1",
		"sparkline":   "false",
	})
	if err != nil {
		return nil, err
	}

	listings := make([]model.Listing, 0, len(rows))
	for _, row := range rows {
		listings = append(listings, row.listing())
	}
	return listings, nil
}

// FetchQuote fetches a single current quote by CoinGecko coin id. Returns
// (nil, nil) when the provider has no data for the id.
func (c *Client) FetchQuote(ctx context.Context, providerID string) (*model.Listing, error) {
	rows, err := c.fetchMarkets(ctx, "fetch_quote", map[string]string{
		"vs_currency":             "usd",
		"ids":                     providerID,
		"order":                   "market_cap_desc",
		"per_page":                "1",
		"page":                    "1",
		"sparkline":               "false",
		"price_change_percentage": "24h",
	})
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	listing := rows[0].listing()
	return &listing, nil
}

func (c *Client) fetchMarkets(ctx context.Context, operation string, params map[string]string) ([]marketRow, error) {
	req := c.client.R().SetContext(ctx).SetQueryParams(params)
	if c.apiKey != "" {
		req.SetQueryParam("x_cg_demo_api_key", c.apiKey)
	}

	start := time.Now()
	resp, err := req.Get(MarketsEndpoint)
	duration := time.Since(start)

	if err != nil {
		metrics.RecordUpstreamRequest(providerName, operation, "error", duration)
		wrapped := fmt.Errorf("coingecko request failed: %v: %w", err, model.ErrUpstreamUnavailable)
		logger.LogUpstreamError(ctx, providerName, operation, wrapped)
		return nil, wrapped
	}

	if resp.IsError() {
		metrics.RecordUpstreamRequest(providerName, operation, strconv.Itoa(resp.StatusCode()), duration)
		wrapped := fmt.Errorf("coingecko returned status %d: %w", resp.StatusCode(), model.ErrUpstreamUnavailable)
		logger.LogUpstreamError(ctx, providerName, operation, wrapped)
		return nil, wrapped
	}

	var rows []marketRow
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		metrics.RecordUpstreamRequest(providerName, operation, "malformed", duration)
		wrapped := fmt.Errorf("coingecko returned malformed body: %v: %w", err, model.ErrUpstreamUnavailable)
		logger.LogUpstreamError(ctx, providerName, operation, wrapped)
		return nil, wrapped
	}

	metrics.RecordUpstreamRequest(providerName, operation, "ok", duration)
	return rows, nil
}

// listing normalizes a provider row into the canonical shape
func (r marketRow) listing() model.Listing {
	lastUpdated, err := time.Parse(time.RFC3339, r.LastUpdated)
	if err != nil {
		lastUpdated = time.Now().UTC()
	}

	return model.Listing{
		ProviderID:  r.ID,
		Symbol:      model.NormalizeSymbol(r.Symbol),
		Name:        r.Name,
		Price:       deref(r.CurrentPrice),
		Change24h:   deref(r.PriceChangePercentage24h),
		MarketCap:   deref(r.MarketCap),
		Volume24h:   deref(r.TotalVolume),
		LastUpdated: lastUpdated,
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
