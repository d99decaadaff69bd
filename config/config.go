package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config carries every knob the SDK reads from the environment. Callers that
// embed the SDK in a larger program can also build a Config by hand and skip
// Load entirely.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"storefront-go"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// BaseURL is the storefront backend root, including the /api prefix.
	BaseURL     string        `env:"STOREFRONT_API_URL" envDefault:"http://localhost:5000/api"`
	HTTPTimeout time.Duration `env:"STOREFRONT_HTTP_TIMEOUT" envDefault:"30s"`

	// StreamIdleTimeout bounds how long a push stream may sit without the
	// server finishing the turn. Zero disables the bound.
	StreamIdleTimeout time.Duration `env:"STOREFRONT_STREAM_IDLE_TIMEOUT" envDefault:"0"`

	// StorageDir is where the file-backed store keeps identity and session
	// snapshots. Empty selects a per-user default directory.
	StorageDir string `env:"STOREFRONT_STORAGE_DIR"`

	// RedisURL switches persistent storage from the local filesystem to
	// Redis when set, e.g. redis://localhost:6379/0.
	RedisURL string `env:"STOREFRONT_REDIS_URL"`

	ProductCacheSize int `env:"STOREFRONT_PRODUCT_CACHE_SIZE" envDefault:"256"`

	EnableTracing bool   `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads configuration from the environment and applies validation and
// defaulting.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes the config and rejects values the SDK cannot work with.
func (c *Config) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		return fmt.Errorf("STOREFRONT_API_URL is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("STOREFRONT_API_URL must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 30 * time.Second
	}
	if c.StreamIdleTimeout < 0 {
		c.StreamIdleTimeout = 0
	}
	if c.ProductCacheSize <= 0 {
		c.ProductCacheSize = 256
	}
	if c.EnableTracing && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when tracing is enabled")
	}
	return nil
}

// IsProduction reports whether the SDK runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
