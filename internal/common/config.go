// Package common provides shared utilities for the asset server
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the asset server
type Config struct {
	Environment  string          `toml:"environment"`
	BaseCurrency string          `toml:"base_currency"` // currency every amount is converted to before summation
	Timezone     string          `toml:"timezone"`      // defines "today" for review windows and the daily tip
	DummyUserID  int64           `toml:"dummy_user_id"`
	Server       ServerConfig    `toml:"server"`
	Storage      StorageConfig   `toml:"storage"`
	Clients      ClientsConfig   `toml:"clients"`
	Refresh      RefreshConfig   `toml:"refresh"`
	Publisher    PublisherConfig `toml:"publisher"`
	Logging      LoggingConfig   `toml:"logging"`
	Auth         AuthConfig      `toml:"auth"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`

	ReadTimeout  string `toml:"read_timeout"`
	WriteTimeout string `toml:"write_timeout"`
}

// Addr returns host:port for the listener.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetReadTimeout returns the request read timeout, 15s by default.
func (c *ServerConfig) GetReadTimeout() time.Duration {
	return parseDurationOr(c.ReadTimeout, 15*time.Second)
}

// GetWriteTimeout returns the response write timeout, 30s by default.
func (c *ServerConfig) GetWriteTimeout() time.Duration {
	return parseDurationOr(c.WriteTimeout, 30*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// StorageConfig selects the relational backend and locates the cache.
type StorageConfig struct {
	Backend   string        `toml:"backend"` // "sqlite", "postgres" or "surrealdb"
	DSN       string        `toml:"dsn"`     // sqlite path or postgres connection string
	SurrealDB SurrealConfig `toml:"surrealdb"`
	Cache     CacheConfig   `toml:"cache"`
}

// SurrealConfig holds SurrealDB connection settings.
type SurrealConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// CacheConfig holds price cache settings.
type CacheConfig struct {
	Path     string `toml:"path"`
	InMemory bool   `toml:"in_memory"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	EODHD EODHDConfig `toml:"eodhd"`
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// RefreshConfig tunes the real-time price refresh loop.
type RefreshConfig struct {
	Enabled      bool   `toml:"enabled"`
	ChunkSize    int    `toml:"chunk_size"`
	PriceTTL     string `toml:"price_ttl"`
	IdleDelay    string `toml:"idle_delay"`
	UniverseFile string `toml:"universe_file"` // empty reads the instrument table from storage
}

// GetPriceTTL parses the freshness window for real-time prices.
func (c *RefreshConfig) GetPriceTTL() time.Duration {
	d, err := time.ParseDuration(c.PriceTTL)
	if err != nil || d <= 0 {
		return FreshnessRealTimePrice
	}
	return d
}

// GetIdleDelay parses the pause used when a cycle had nothing to refresh.
func (c *RefreshConfig) GetIdleDelay() time.Duration {
	d, err := time.ParseDuration(c.IdleDelay)
	if err != nil || d < 0 {
		return time.Second
	}
	return d
}

// GetChunkSize returns the configured chunk size, defaulting to 50.
func (c *RefreshConfig) GetChunkSize() int {
	if c.ChunkSize <= 0 {
		return 50
	}
	return c.ChunkSize
}

// PublisherConfig configures the exchange rate, index and tip publishers.
type PublisherConfig struct {
	Enabled    bool     `toml:"enabled"`
	Interval   string   `toml:"interval"`
	Currencies []string `toml:"currencies"`
	Indices    []string `toml:"indices"`
}

// GetInterval parses the publish interval.
func (c *PublisherConfig) GetInterval() time.Duration {
	d, err := time.ParseDuration(c.Interval)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	UserClaim string `toml:"user_claim"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `toml:"level"`
	Format   string `toml:"format"` // "console" or "json"
	FilePath string `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment:  "development",
		BaseCurrency: "KRW",
		Timezone:     "Asia/Seoul",
		DummyUserID:  1,
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Storage: StorageConfig{
			Backend: "sqlite",
			DSN:     "data/assets.db",
			SurrealDB: SurrealConfig{
				Address:   "ws://localhost:8000/rpc",
				Namespace: "asset",
				Database:  "asset",
				Username:  "root",
				Password:  "root",
			},
			Cache: CacheConfig{Path: "data/cache"},
		},
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
		},
		Refresh: RefreshConfig{
			Enabled:   true,
			ChunkSize: 50,
			PriceTTL:  "10m",
			IdleDelay: "1s",
		},
		Publisher: PublisherConfig{
			Enabled:    true,
			Interval:   "5m",
			Currencies: []string{"USD", "JPY", "EUR"},
			Indices:    []string{"KOSPI", "KOSDAQ", "NASDAQ", "SP500", "DOW", "NIKKEI"},
		},
		Auth: AuthConfig{
			JWTSecret: "dev-jwt-secret-change-in-production",
			UserClaim: "user",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := validateBaseCurrency(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ASSET_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("ASSET_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("ASSET_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("ASSET_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if v := os.Getenv("ASSET_STORAGE_BACKEND"); v != "" {
		config.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("ASSET_STORAGE_DSN"); v != "" {
		config.Storage.DSN = v
	}
	if v := os.Getenv("ASSET_SURREALDB_ADDRESS"); v != "" {
		config.Storage.SurrealDB.Address = v
	}
	if v := os.Getenv("ASSET_CACHE_PATH"); v != "" {
		config.Storage.Cache.Path = v
	}

	if v := os.Getenv("ASSET_BASE_CURRENCY"); v != "" {
		config.BaseCurrency = strings.ToUpper(v)
	}

	// EODHD key: ASSET_ prefixed name wins over the vendor default name
	for _, name := range []string{"ASSET_EODHD_API_KEY", "EODHD_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			config.Clients.EODHD.APIKey = v
			break
		}
	}

	if v := os.Getenv("ASSET_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// validateBaseCurrency upper-cases the base currency and rejects unknown ISO codes.
func validateBaseCurrency(config *Config) error {
	code := strings.ToUpper(strings.TrimSpace(config.BaseCurrency))
	if money.GetCurrency(code) == nil {
		return fmt.Errorf("unknown base currency %q", config.BaseCurrency)
	}
	config.BaseCurrency = code
	return nil
}
