// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application settings loaded from config.json.
type Config struct {
	BackendURL string `mapstructure:"backend_url"`
	RelayURL   string `mapstructure:"relay_url"`
	APIKey     string `mapstructure:"api_key"`

	// SelfHosted marks an explicitly trusted, self-hosted backend. Only
	// then do prepare requests carry private keys instead of addresses.
	SelfHosted bool `mapstructure:"self_hosted"`

	RateLimitMax      int           `mapstructure:"rate_limit_max"`
	RateLimitWindow   time.Duration `mapstructure:"-"`
	RateLimitWindowMS int           `mapstructure:"rate_limit_window"`

	MaxTxPerBundle int `mapstructure:"max_tx_per_bundle"`
	BatchSize      int `mapstructure:"batch_size"`

	InterWalletDelay   time.Duration `mapstructure:"-"`
	InterWalletDelayMS int           `mapstructure:"inter_wallet_delay"`
	InterBatchDelay    time.Duration `mapstructure:"-"`
	InterBatchDelayMS  int           `mapstructure:"inter_batch_delay"`
	InterBundleDelay   time.Duration `mapstructure:"-"`
	InterBundleDelayMS int           `mapstructure:"inter_bundle_delay"`

	RetryMaxAttempts    int           `mapstructure:"retry_max_attempts"`
	RetryMaxConsecutive int           `mapstructure:"retry_max_consecutive_errors"`
	RetryBaseDelay      time.Duration `mapstructure:"-"`
	RetryBaseDelayMS    int           `mapstructure:"retry_base_delay"`
	BackendRetryMax     int           `mapstructure:"backend_retry_max"`
	HTTPTimeout         time.Duration `mapstructure:"-"`
	HTTPTimeoutMS       int           `mapstructure:"http_timeout"`
	HistoryFile         string        `mapstructure:"history_file"`
	LogFile             string        `mapstructure:"log_file"`
	DebugLogging        bool          `mapstructure:"debug_logging"`
}

// LoadConfig reads configuration from the specified file path and performs validation.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Defaults
	v.SetDefault("rate_limit_max", 2)
	v.SetDefault("rate_limit_window", 1000)
	v.SetDefault("max_tx_per_bundle", 5)
	v.SetDefault("batch_size", 5)
	v.SetDefault("inter_wallet_delay", 200)
	v.SetDefault("inter_batch_delay", 1000)
	v.SetDefault("inter_bundle_delay", 100)
	v.SetDefault("retry_max_attempts", 50)
	v.SetDefault("retry_max_consecutive_errors", 3)
	v.SetDefault("retry_base_delay", 500)
	v.SetDefault("backend_retry_max", 2)
	v.SetDefault("http_timeout", 15000)
	v.SetDefault("history_file", "data/operations.jsonl")
	v.SetDefault("log_file", "logs/bundler.log")
	v.SetDefault("debug_logging", false)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}

	// Convert ms to Duration
	cfg.RateLimitWindow = time.Duration(cfg.RateLimitWindowMS) * time.Millisecond
	cfg.InterWalletDelay = time.Duration(cfg.InterWalletDelayMS) * time.Millisecond
	cfg.InterBatchDelay = time.Duration(cfg.InterBatchDelayMS) * time.Millisecond
	cfg.InterBundleDelay = time.Duration(cfg.InterBundleDelayMS) * time.Millisecond
	cfg.RetryBaseDelay = time.Duration(cfg.RetryBaseDelayMS) * time.Millisecond
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutMS) * time.Millisecond

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate checks required fields and applies fallbacks if necessary.
func (c *Config) validate() error {
	if c.BackendURL == "" {
		return errors.New("backend_url is required")
	}
	if err := validateHTTPURL(c.BackendURL); err != nil {
		return fmt.Errorf("invalid backend_url: %w", err)
	}
	if c.RelayURL == "" {
		return errors.New("relay_url is required")
	}
	if err := validateHTTPURL(c.RelayURL); err != nil {
		return fmt.Errorf("invalid relay_url: %w", err)
	}

	if c.RateLimitMax <= 0 {
		c.RateLimitMax = 2
	}
	if c.RateLimitWindow <= 0 {
		c.RateLimitWindow = time.Second
	}
	if c.MaxTxPerBundle <= 0 {
		c.MaxTxPerBundle = 5
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 5
	}
	if c.RetryMaxAttempts <= 0 {
		c.RetryMaxAttempts = 50
	}
	if c.RetryMaxConsecutive <= 0 {
		c.RetryMaxConsecutive = 3
	}
	return nil
}

func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(parsed.Scheme, "http") {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
