// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"slab-pricing/core/types"
	"slab-pricing/internal/errors"
	"slab-pricing/internal/logging"
)

// Catalog source kinds
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceHTTP     = "http"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Pricing contains pricing configuration
	Pricing PricingConfig `json:"pricing"`

	// Catalog says where slabs are loaded from
	Catalog CatalogConfig `json:"catalog"`

	// Server contains API server settings
	Server ServerConfig `json:"server"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// PricingConfig contains pricing-related settings
type PricingConfig struct {
	// DefaultCurrency labels rendered amounts
	DefaultCurrency types.Currency `json:"default_currency"`

	// DefaultCycle is used when a request names no billing cycle
	DefaultCycle types.BillingCycle `json:"default_cycle"`
}

// CatalogConfig contains slab catalog settings
type CatalogConfig struct {
	// Source is one of file, postgres, http
	Source string `json:"source"`

	// Path is the catalog file (json, yaml, hcl)
	Path string `json:"path,omitempty"`

	// URL is the remote slab catalog endpoint
	URL string `json:"url,omitempty"`

	// Token is sent as a bearer token to the remote catalog
	Token string `json:"-"`

	// DatabaseURL is the postgres connection string
	DatabaseURL string `json:"database_url,omitempty"`

	// TimeoutSeconds bounds a catalog load
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Timeout returns the catalog load timeout
func (c CatalogConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ServerConfig contains API server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr"`

	// ShutdownSeconds bounds graceful shutdown
	ShutdownSeconds int `json:"shutdown_seconds"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format"`

	// ShowDetails shows the per-slab breakdown
	ShowDetails bool `json:"show_details"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Version: "1.0",
		Pricing: PricingConfig{
			DefaultCurrency: types.CurrencyUSD,
			DefaultCycle:    types.CycleMonthly,
		},
		Catalog: CatalogConfig{
			Source:         SourceFile,
			Path:           filepath.Join(homeDir, ".slab-pricing", "slabs.json"),
			TimeoutSeconds: 10,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownSeconds: 30,
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
			ShowDetails:   true,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Parsing("decode config "+path, err)
	}

	return config, config.Validate()
}

// LoadEnv overlays environment variables (and a .env file when present)
func (c *Config) LoadEnv() {
	_ = godotenv.Load()

	c.Catalog.Source = getEnv("CATALOG_SOURCE", c.Catalog.Source)
	c.Catalog.Path = getEnv("CATALOG_PATH", c.Catalog.Path)
	c.Catalog.URL = getEnv("CATALOG_URL", c.Catalog.URL)
	c.Catalog.Token = getEnv("CATALOG_TOKEN", c.Catalog.Token)
	c.Catalog.DatabaseURL = getEnv("DATABASE_URL", c.Catalog.DatabaseURL)
	c.Catalog.TimeoutSeconds = getEnvInt("CATALOG_TIMEOUT_SECONDS", c.Catalog.TimeoutSeconds)
	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
	if cycle, ok := types.ParseBillingCycle(os.Getenv("DEFAULT_BILLING_CYCLE")); ok {
		c.Pricing.DefaultCycle = cycle
	}
}

// Validate checks cross-field requirements
func (c *Config) Validate() error {
	if !c.Pricing.DefaultCycle.IsValid() {
		return errors.Config("pricing.default_cycle must be monthly or yearly").
			WithContext("value", c.Pricing.DefaultCycle)
	}

	switch c.Catalog.Source {
	case SourceFile:
		if c.Catalog.Path == "" {
			return errors.Config("catalog.path is required when catalog.source is 'file'")
		}
	case SourcePostgres:
		if c.Catalog.DatabaseURL == "" {
			return errors.Config("catalog.database_url is required when catalog.source is 'postgres'")
		}
	case SourceHTTP:
		if c.Catalog.URL == "" {
			return errors.Config("catalog.url is required when catalog.source is 'http'")
		}
	default:
		return errors.Config("catalog.source must be one of file, postgres, http").
			WithContext("value", c.Catalog.Source)
	}

	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
