package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name below.
const EnvPrefix = "SHOPGENIE_"

// Config holds all application configuration.
type Config struct {
	// Scraping
	RequestTimeout       time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	MaxRetryAttempts     int           `env:"MAX_RETRY_ATTEMPTS" envDefault:"3" validate:"min=1,max=10"`
	DelayBetweenRequests time.Duration `env:"DELAY_BETWEEN_REQUESTS" envDefault:"1s" validate:"gte=0"`
	EbayPreRequestDelay  time.Duration `env:"EBAY_PRE_REQUEST_DELAY" envDefault:"2s" validate:"gte=0"`
	MaxSearchResults     int           `env:"MAX_SEARCH_RESULTS" envDefault:"10" validate:"min=1,max=100"`
	TopResultsCount      int           `env:"TOP_RESULTS_COUNT" envDefault:"4" validate:"min=1,ltefield=MaxSearchResults"`
	UserAgent            string        `env:"USER_AGENT"`
	EnableAliExpress     bool          `env:"ENABLE_ALIEXPRESS" envDefault:"false"`
	RankMethod           string        `env:"RANK_METHOD" envDefault:"score" validate:"oneof=score price rating sales"`

	// Stealth
	DelayProfile  string  `env:"DELAY_PROFILE" envDefault:"normal" validate:"oneof=off cautious normal aggressive"`
	RatePerSecond float64 `env:"RATE_PER_SECOND" envDefault:"2" validate:"gt=0"`
	RateBurst     int     `env:"RATE_BURST" envDefault:"3" validate:"min=1"`
	MaxConcurrent int     `env:"MAX_CONCURRENT" envDefault:"3" validate:"min=1"`
	RespectRobots bool    `env:"RESPECT_ROBOTS" envDefault:"false"`

	// Proxy
	ProxyMode string   `env:"PROXY_MODE" envDefault:"direct" validate:"oneof=direct custom"`
	Proxies   []string `env:"PROXIES" envSeparator:"," validate:"required_if=ProxyMode custom,dive,url"`

	// Headless fallback
	HeadlessFallback bool   `env:"HEADLESS_FALLBACK" envDefault:"false"`
	BrowserBin       string `env:"ROD_BROWSER_BIN"`

	// Status tracking
	StatusWindow time.Duration `env:"STATUS_WINDOW" envDefault:"15m" validate:"gt=0"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`

	// HTTP server
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080" validate:"required,numeric"`
	APIKey   string `env:"API_KEY"`
}

// DefaultConfig returns configuration with only the defaults applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	// Defaults never fail to parse.
	_ = env.ParseWithOptions(cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: map[string]string{},
	})
	return cfg
}

// Load reads .env (if present), parses the environment and validates the
// result. PORT is honoured when HTTP_PORT is not set, for platforms that
// inject it.
func Load() (*Config, error) {
	// Auto-load .env file; silently ignored if missing
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if _, set := os.LookupEnv(EnvPrefix + "HTTP_PORT"); !set {
		if v := os.Getenv("PORT"); v != "" {
			cfg.HTTPPort = v
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints. Call it again after flags override
// loaded values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
