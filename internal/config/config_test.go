package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, "coingecko", cfg.Provider.Name)
	assert.Equal(t, 10*time.Second, cfg.Provider.Timeout)

	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 60*time.Second, cfg.Cache.TTL)

	assert.Equal(t, 100, cfg.Universe.Size)
	assert.Equal(t, 5*time.Minute, cfg.Universe.TTL)

	assert.Equal(t, 30*time.Minute, cfg.Store.FreshnessWindow)
	assert.Equal(t, 30*time.Minute, cfg.Store.RefreshInterval)

	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 10, cfg.RateLimit.Capacity)
	assert.Equal(t, 10, cfg.RateLimit.RefillRate)
	assert.Equal(t, time.Minute, cfg.RateLimit.RefillPeriod)

	assert.Equal(t, "info", cfg.App.LogLevel)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PROVIDER_NAME", "coinmarketcap")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("UNIVERSE_SIZE", "50")
	t.Setenv("RATE_LIMIT_CAPACITY", "20")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "coinmarketcap", cfg.Provider.Name)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 50, cfg.Universe.Size)
	assert.Equal(t, 20, cfg.RateLimit.Capacity)
}
