package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// QUICKSHOP_AI_ENDPOINT overrides ai.endpoint.
const EnvPrefix = "QUICKSHOP"

// LoadEnv loads a dotenv file into the process environment. A missing file
// is not an error.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := gotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("quickshop")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".quickshop"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so that AutomaticEnv can
// resolve every key.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("scraper.domain", cfg.Scraper.Domain)
	v.SetDefault("scraper.max_reviews", cfg.Scraper.MaxReviews)
	v.SetDefault("scraper.headless", cfg.Scraper.Headless)
	v.SetDefault("scraper.settle_timeout", cfg.Scraper.SettleTimeout)
	v.SetDefault("scraper.popup_wait", cfg.Scraper.PopupWait)
	v.SetDefault("scraper.scroll_amount", cfg.Scraper.ScrollAmount)
	v.SetDefault("scraper.scroll_wait", cfg.Scraper.ScrollWait)
	v.SetDefault("scraper.see_more_wait", cfg.Scraper.SeeMoreWait)
	v.SetDefault("scraper.page_wait", cfg.Scraper.PageWait)
	v.SetDefault("scraper.poll_interval", cfg.Scraper.PollInterval)
	v.SetDefault("scraper.max_pages", cfg.Scraper.MaxPages)

	v.SetDefault("browser.bin", cfg.Browser.Bin)
	v.SetDefault("browser.user_agent", cfg.Browser.UserAgent)
	v.SetDefault("browser.window_width", cfg.Browser.WindowWidth)
	v.SetDefault("browser.window_height", cfg.Browser.WindowHeight)
	v.SetDefault("browser.proxy", cfg.Browser.Proxy)
	v.SetDefault("browser.user_data_dir", cfg.Browser.UserDataDir)
	v.SetDefault("browser.navigate_timeout", cfg.Browser.NavigateTimeout)
	v.SetDefault("browser.locale", cfg.Browser.Locale)
	v.SetDefault("browser.timezone", cfg.Browser.Timezone)

	v.SetDefault("selectors.popup_container", cfg.Selectors.PopupContainer)
	v.SetDefault("selectors.popup_button", cfg.Selectors.PopupButton)
	v.SetDefault("selectors.see_more", cfg.Selectors.SeeMore)
	v.SetDefault("selectors.product_name", cfg.Selectors.ProductName)
	v.SetDefault("selectors.description", cfg.Selectors.Description)
	v.SetDefault("selectors.total_count", cfg.Selectors.TotalCount)
	v.SetDefault("selectors.containers", cfg.Selectors.Containers)
	v.SetDefault("selectors.review_text", cfg.Selectors.ReviewText)
	v.SetDefault("selectors.author", cfg.Selectors.Author)
	v.SetDefault("selectors.rating", cfg.Selectors.Rating)
	v.SetDefault("selectors.next_page", cfg.Selectors.NextPage)

	v.SetDefault("sentiment.backend", cfg.Sentiment.Backend)
	v.SetDefault("sentiment.model_name", cfg.Sentiment.ModelName)
	v.SetDefault("sentiment.model_path", cfg.Sentiment.ModelPath)
	v.SetDefault("sentiment.model_dir", cfg.Sentiment.ModelDir)
	v.SetDefault("sentiment.remote_endpoint", cfg.Sentiment.RemoteEndpoint)
	v.SetDefault("sentiment.remote_timeout", cfg.Sentiment.RemoteTimeout)
	v.SetDefault("sentiment.fallback", cfg.Sentiment.Fallback)
	v.SetDefault("sentiment.remove_stopwords", cfg.Sentiment.RemoveStopwords)
	v.SetDefault("sentiment.stopwords_file", cfg.Sentiment.StopwordsFile)
	v.SetDefault("sentiment.cache_size", cfg.Sentiment.CacheSize)

	v.SetDefault("ai.enabled", cfg.AI.Enabled)
	v.SetDefault("ai.endpoint", cfg.AI.Endpoint)
	v.SetDefault("ai.model", cfg.AI.Model)
	v.SetDefault("ai.timeout", cfg.AI.Timeout)
	v.SetDefault("ai.auto_pull", cfg.AI.AutoPull)

	v.SetDefault("storage.types", cfg.Storage.Types)
	v.SetDefault("storage.output_dir", cfg.Storage.OutputDir)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.sqlite_path", cfg.Storage.SQLitePath)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.address", cfg.Cache.Address)
	v.SetDefault("cache.password", cfg.Cache.Password)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)

	v.SetDefault("api.port", cfg.API.Port)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
