package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Universe  UniverseConfig  `mapstructure:"universe"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	App       AppConfig       `mapstructure:"app"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ProviderConfig holds market-data provider configuration. Base URLs are
// fixed constants per provider; only the key and timeout come from the
// environment.
type ProviderConfig struct {
	Name    string        `mapstructure:"name"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds price-cache configuration
type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// UniverseConfig holds top-N universe listing configuration
type UniverseConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// StoreConfig holds persistent store configuration
type StoreConfig struct {
	DatabaseURI     string        `mapstructure:"database_uri"`
	FreshnessWindow time.Duration `mapstructure:"freshness_window"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// RedisConfig holds Redis-related configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RateLimitConfig holds per-client HTTP rate limiting configuration
type RateLimitConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Capacity     int           `mapstructure:"capacity"`
	RefillRate   int           `mapstructure:"refill_rate"`
	RefillPeriod time.Duration `mapstructure:"refill_period"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// Load loads configuration from environment variables and defaults
func Load() (*Config, error) {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.shutdown_timeout", "30s")

	viper.SetDefault("provider.name", "coingecko")
	viper.SetDefault("provider.api_key", "")
	viper.SetDefault("provider.timeout", "10s")

	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.ttl", "60s")

	viper.SetDefault("universe.size", 100)
	viper.SetDefault("universe.ttl", "5m")

	viper.SetDefault("store.database_uri", "postgres://localhost:5432/crypto_prices?sslmode=disable")
	viper.SetDefault("store.freshness_window", "30m")
	viper.SetDefault("store.refresh_interval", "30m")

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Matches the public API policy of 10 requests per minute per client.
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.capacity", 10)
	viper.SetDefault("rate_limit.refill_rate", 10)
	viper.SetDefault("rate_limit.refill_period", "1m")

	viper.SetDefault("app.log_level", "info")

	// Bind environment variables
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("server.shutdown_timeout", "SHUTDOWN_TIMEOUT")
	viper.BindEnv("provider.name", "PROVIDER_NAME")
	viper.BindEnv("provider.api_key", "COINGECKO_API_KEY", "CMC_API_KEY")
	viper.BindEnv("provider.timeout", "PROVIDER_TIMEOUT")
	viper.BindEnv("cache.backend", "CACHE_BACKEND")
	viper.BindEnv("cache.ttl", "CACHE_TTL")
	viper.BindEnv("universe.size", "UNIVERSE_SIZE")
	viper.BindEnv("universe.ttl", "UNIVERSE_TTL")
	viper.BindEnv("store.database_uri", "DATABASE_URI")
	viper.BindEnv("store.freshness_window", "STORE_FRESHNESS_WINDOW")
	viper.BindEnv("store.refresh_interval", "REFRESH_INTERVAL")
	viper.BindEnv("redis.addr", "REDIS_ADDR")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.capacity", "RATE_LIMIT_CAPACITY")
	viper.BindEnv("rate_limit.refill_rate", "RATE_LIMIT_REFILL_RATE")
	viper.BindEnv("rate_limit.refill_period", "RATE_LIMIT_REFILL_PERIOD")
	viper.BindEnv("app.log_level", "LOG_LEVEL")

	// Try to read from config file (optional)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Error reading config file: %v", err)
		}
		// Continue with environment variables and defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
