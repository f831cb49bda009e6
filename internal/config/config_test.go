package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max reviews", func(c *Config) { c.Scraper.MaxReviews = 0 }},
		{"unknown backend", func(c *Config) { c.Sentiment.Backend = "bayes" }},
		{"remote without endpoint", func(c *Config) { c.Sentiment.Backend = "remote" }},
		{"bad fallback", func(c *Config) { c.Sentiment.Fallback = "guess" }},
		{"bad storage", func(c *Config) { c.Storage.Types = []string{"parquet"} }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"no containers", func(c *Config) { c.Selectors.Containers = nil }},
		{"negative wait", func(c *Config) { c.Scraper.PageWait = -time.Second }},
		{"negative settle timeout", func(c *Config) { c.Scraper.SettleTimeout = -time.Second }},
		{"cache without address", func(c *Config) { c.Cache.Enabled = true; c.Cache.Address = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quickshop.yaml")
	content := `
scraper:
  max_reviews: 20
  page_wait: 2s
  settle_timeout: 3s
sentiment:
  backend: vader
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QUICKSHOP_AI_MODEL", "llama3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scraper.MaxReviews != 20 {
		t.Errorf("max_reviews = %d, want 20", cfg.Scraper.MaxReviews)
	}
	if cfg.Scraper.PageWait != 2*time.Second {
		t.Errorf("page_wait = %v, want 2s", cfg.Scraper.PageWait)
	}
	if cfg.Scraper.SettleTimeout != 3*time.Second {
		t.Errorf("settle_timeout = %v, want 3s", cfg.Scraper.SettleTimeout)
	}
	if cfg.Sentiment.Backend != "vader" {
		t.Errorf("backend = %q, want vader", cfg.Sentiment.Backend)
	}
	if cfg.AI.Model != "llama3" {
		t.Errorf("ai.model = %q, want env override llama3", cfg.AI.Model)
	}
	if cfg.Scraper.Domain != "tokopedia.com" {
		t.Errorf("domain default lost: %q", cfg.Scraper.Domain)
	}
}

func TestSettleTimeoutFromEnv(t *testing.T) {
	t.Setenv("QUICKSHOP_SCRAPER_SETTLE_TIMEOUT", "9s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scraper.SettleTimeout != 9*time.Second {
		t.Errorf("settle_timeout = %v, want 9s", cfg.Scraper.SettleTimeout)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadEnvMissingFileIsFine(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("LoadEnv on missing file: %v", err)
	}
}

func TestValidateProductURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.tokopedia.com/shop/item-123", true},
		{"HTTP://WWW.TOKOPEDIA.COM/x", true},
		{"http://tokopedia.com", true},
		{"www.tokopedia.com/shop/item", false},
		{"https://shopee.co.id/item", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidateProductURL(tt.url); got != tt.want {
			t.Errorf("ValidateProductURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestURLValidatorCustomDomain(t *testing.T) {
	v := NewURLValidator("Example.COM")
	if !v.Valid("https://shop.example.com/p/1") {
		t.Error("expected custom domain to match")
	}
	if v.Valid("https://tokopedia.com/p/1") {
		t.Error("expected other domain to be rejected")
	}
}
