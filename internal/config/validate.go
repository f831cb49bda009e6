package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Scraper.Domain == "" {
		return fmt.Errorf("scraper.domain must not be empty")
	}
	if cfg.Scraper.MaxReviews < 1 {
		return fmt.Errorf("scraper.max_reviews must be >= 1, got %d", cfg.Scraper.MaxReviews)
	}
	if cfg.Scraper.ScrollAmount < 0 {
		return fmt.Errorf("scraper.scroll_amount must be >= 0, got %d", cfg.Scraper.ScrollAmount)
	}
	if cfg.Scraper.PollInterval <= 0 {
		return fmt.Errorf("scraper.poll_interval must be > 0")
	}
	if cfg.Scraper.MaxPages < 1 {
		return fmt.Errorf("scraper.max_pages must be >= 1, got %d", cfg.Scraper.MaxPages)
	}
	for name, d := range map[string]time.Duration{
		"settle_timeout": cfg.Scraper.SettleTimeout,
		"popup_wait":     cfg.Scraper.PopupWait,
		"scroll_wait":    cfg.Scraper.ScrollWait,
		"see_more_wait":  cfg.Scraper.SeeMoreWait,
		"page_wait":      cfg.Scraper.PageWait,
	} {
		if d < 0 {
			return fmt.Errorf("scraper.%s must be >= 0", name)
		}
	}

	if cfg.Browser.NavigateTimeout <= 0 {
		return fmt.Errorf("browser.navigate_timeout must be > 0")
	}
	if cfg.Browser.Proxy != "" {
		if _, err := url.Parse(cfg.Browser.Proxy); err != nil {
			return fmt.Errorf("invalid browser.proxy %q: %w", cfg.Browser.Proxy, err)
		}
	}

	if len(cfg.Selectors.Containers) == 0 {
		return fmt.Errorf("selectors.containers must list at least one selector")
	}

	switch cfg.Sentiment.Backend {
	case "onnx":
		if cfg.Sentiment.ModelPath == "" && cfg.Sentiment.ModelName == "" {
			return fmt.Errorf("sentiment.model_path or sentiment.model_name is required for the onnx backend")
		}
	case "remote":
		if err := requireHTTPURL("sentiment.remote_endpoint", cfg.Sentiment.RemoteEndpoint); err != nil {
			return err
		}
	case "vader":
	default:
		return fmt.Errorf("sentiment.backend must be onnx, remote or vader, got %q", cfg.Sentiment.Backend)
	}
	if cfg.Sentiment.Fallback != "fail" && cfg.Sentiment.Fallback != "neutral" {
		return fmt.Errorf("sentiment.fallback must be 'fail' or 'neutral', got %q", cfg.Sentiment.Fallback)
	}
	if cfg.Sentiment.CacheSize < 0 {
		return fmt.Errorf("sentiment.cache_size must be >= 0, got %d", cfg.Sentiment.CacheSize)
	}

	if cfg.AI.Enabled {
		if err := requireHTTPURL("ai.endpoint", cfg.AI.Endpoint); err != nil {
			return err
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model must not be empty")
		}
	}

	validStorageTypes := map[string]bool{
		"json": true, "jsonl": true, "csv": true, "mongo": true, "sqlite": true,
	}
	for _, t := range cfg.Storage.Types {
		if !validStorageTypes[t] {
			return fmt.Errorf("storage type %q is not supported (valid: csv, json, jsonl, mongo, sqlite)", t)
		}
	}

	if cfg.Cache.Enabled && cfg.Cache.Address == "" {
		return fmt.Errorf("cache.address is required when the cache is enabled")
	}

	if cfg.API.Port < 1 || cfg.API.Port > 65535 {
		return fmt.Errorf("api.port must be 1-65535, got %d", cfg.API.Port)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

func requireHTTPURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got %q", key, u.Scheme)
	}
	return nil
}

// URLValidator decides whether a string looks like a product page on the
// configured marketplace.
type URLValidator struct {
	domain string
}

// NewURLValidator returns a validator for the given domain token.
func NewURLValidator(domain string) *URLValidator {
	return &URLValidator{domain: strings.ToLower(domain)}
}

// Valid reports whether raw contains both the domain token and "http",
// case-insensitively. It does no network access and no URL parsing.
func (v *URLValidator) Valid(raw string) bool {
	s := strings.ToLower(raw)
	return strings.Contains(s, v.domain) && strings.Contains(s, "http")
}

// ValidateProductURL checks raw against the default marketplace domain.
func ValidateProductURL(raw string) bool {
	return NewURLValidator(DefaultConfig().Scraper.Domain).Valid(raw)
}
