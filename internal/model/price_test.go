package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"btc", "BTC"},
		{"BTC", "BTC"},
		{" eth ", "ETH"},
		{"steth-2", "STETH-2"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSymbol(tt.in))
	}
}

func TestListing_PriceRecord(t *testing.T) {
	lastUpdated := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	listing := Listing{
		ProviderID:  "bitcoin",
		Symbol:      "BTC",
		Name:        "Bitcoin",
		Price:       65000.12,
		Change24h:   1.5,
		MarketCap:   1.2e12,
		Volume24h:   3.5e10,
		LastUpdated: lastUpdated,
	}

	record := listing.PriceRecord()

	assert.Equal(t, PriceRecord{
		Symbol:      "BTC",
		Name:        "Bitcoin",
		Price:       65000.12,
		Change24h:   1.5,
		MarketCap:   1.2e12,
		LastUpdated: lastUpdated,
	}, record)
}

func TestPriceRecord_JSONShape(t *testing.T) {
	record := PriceRecord{
		Symbol:      "BTC",
		Name:        "Bitcoin",
		Price:       65000.12,
		Change24h:   1.5,
		MarketCap:   1.2e12,
		LastUpdated: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"symbol": "BTC",
		"name": "Bitcoin",
		"price": 65000.12,
		"change24h": 1.5,
		"marketCap": 1200000000000,
		"lastUpdated": "2024-01-01T12:00:00Z"
	}`, string(data))
}
