package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for QuickShop.
type Config struct {
	Scraper   ScraperConfig   `mapstructure:"scraper"   yaml:"scraper"`
	Browser   BrowserConfig   `mapstructure:"browser"   yaml:"browser"`
	Selectors SelectorConfig  `mapstructure:"selectors" yaml:"selectors"`
	Sentiment SentimentConfig `mapstructure:"sentiment" yaml:"sentiment"`
	AI        AIConfig        `mapstructure:"ai"        yaml:"ai"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Cache     CacheConfig     `mapstructure:"cache"     yaml:"cache"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// ScraperConfig controls the review scraper. The wait values are upper
// bounds for condition waits, not fixed sleeps.
type ScraperConfig struct {
	Domain        string        `mapstructure:"domain"         yaml:"domain"`
	MaxReviews    int           `mapstructure:"max_reviews"    yaml:"max_reviews"`
	Headless      bool          `mapstructure:"headless"       yaml:"headless"`
	SettleTimeout time.Duration `mapstructure:"settle_timeout" yaml:"settle_timeout"`
	PopupWait     time.Duration `mapstructure:"popup_wait"     yaml:"popup_wait"`
	ScrollAmount  int           `mapstructure:"scroll_amount"  yaml:"scroll_amount"`
	ScrollWait    time.Duration `mapstructure:"scroll_wait"    yaml:"scroll_wait"`
	SeeMoreWait   time.Duration `mapstructure:"see_more_wait"  yaml:"see_more_wait"`
	PageWait      time.Duration `mapstructure:"page_wait"      yaml:"page_wait"`
	PollInterval  time.Duration `mapstructure:"poll_interval"  yaml:"poll_interval"`
	MaxPages      int           `mapstructure:"max_pages"      yaml:"max_pages"`
}

// BrowserConfig controls the headless browser.
type BrowserConfig struct {
	Bin             string        `mapstructure:"bin"              yaml:"bin"`
	UserAgent       string        `mapstructure:"user_agent"       yaml:"user_agent"`
	WindowWidth     int           `mapstructure:"window_width"     yaml:"window_width"`
	WindowHeight    int           `mapstructure:"window_height"    yaml:"window_height"`
	Proxy           string        `mapstructure:"proxy"            yaml:"proxy"`
	UserDataDir     string        `mapstructure:"user_data_dir"    yaml:"user_data_dir"`
	NavigateTimeout time.Duration `mapstructure:"navigate_timeout" yaml:"navigate_timeout"`
	Locale          string        `mapstructure:"locale"           yaml:"locale"`
	Timezone        string        `mapstructure:"timezone"         yaml:"timezone"`
}

// SelectorConfig holds the page markers. List fields are tried in order
// and the first one that matches wins.
type SelectorConfig struct {
	PopupContainer string   `mapstructure:"popup_container" yaml:"popup_container"`
	PopupButton    string   `mapstructure:"popup_button"    yaml:"popup_button"`
	SeeMore        string   `mapstructure:"see_more"        yaml:"see_more"`
	ProductName    string   `mapstructure:"product_name"    yaml:"product_name"`
	Description    string   `mapstructure:"description"     yaml:"description"`
	TotalCount     string   `mapstructure:"total_count"     yaml:"total_count"`
	Containers     []string `mapstructure:"containers"      yaml:"containers"`
	ReviewText     string   `mapstructure:"review_text"     yaml:"review_text"`
	Author         []string `mapstructure:"author"          yaml:"author"`
	Rating         string   `mapstructure:"rating"          yaml:"rating"`
	NextPage       string   `mapstructure:"next_page"       yaml:"next_page"`
}

// SentimentConfig controls the classifier.
type SentimentConfig struct {
	Backend         string        `mapstructure:"backend"          yaml:"backend"` // onnx, remote, vader
	ModelName       string        `mapstructure:"model_name"       yaml:"model_name"`
	ModelPath       string        `mapstructure:"model_path"       yaml:"model_path"`
	ModelDir        string        `mapstructure:"model_dir"        yaml:"model_dir"`
	RemoteEndpoint  string        `mapstructure:"remote_endpoint"  yaml:"remote_endpoint"`
	RemoteTimeout   time.Duration `mapstructure:"remote_timeout"   yaml:"remote_timeout"`
	Fallback        string        `mapstructure:"fallback"         yaml:"fallback"` // fail, neutral
	RemoveStopwords bool          `mapstructure:"remove_stopwords" yaml:"remove_stopwords"`
	StopwordsFile   string        `mapstructure:"stopwords_file"   yaml:"stopwords_file"`
	CacheSize       int           `mapstructure:"cache_size"       yaml:"cache_size"`
}

// AIConfig controls the Ollama integration.
type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"   yaml:"enabled"`
	Endpoint string        `mapstructure:"endpoint"  yaml:"endpoint"`
	Model    string        `mapstructure:"model"     yaml:"model"`
	Timeout  time.Duration `mapstructure:"timeout"   yaml:"timeout"`
	AutoPull bool          `mapstructure:"auto_pull" yaml:"auto_pull"`
}

// StorageConfig controls output/storage.
type StorageConfig struct {
	Types         []string `mapstructure:"types"          yaml:"types"` // csv, json, jsonl, mongo, sqlite
	OutputDir     string   `mapstructure:"output_dir"     yaml:"output_dir"`
	MongoURI      string   `mapstructure:"mongo_uri"      yaml:"mongo_uri"`
	MongoDatabase string   `mapstructure:"mongo_database" yaml:"mongo_database"`
	SQLitePath    string   `mapstructure:"sqlite_path"    yaml:"sqlite_path"`
}

// CacheConfig controls the Valkey snapshot cache.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"  yaml:"enabled"`
	Address  string        `mapstructure:"address"  yaml:"address"`
	Password string        `mapstructure:"password" yaml:"password"`
	TTL      time.Duration `mapstructure:"ttl"      yaml:"ttl"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultUserAgent is a current desktop Chrome string.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scraper: ScraperConfig{
			Domain:        "tokopedia.com",
			MaxReviews:    50,
			Headless:      true,
			SettleTimeout: 7 * time.Second,
			PopupWait:     4 * time.Second,
			ScrollAmount:  2000,
			ScrollWait:    5 * time.Second,
			SeeMoreWait:   5 * time.Second,
			PageWait:      5 * time.Second,
			PollInterval:  250 * time.Millisecond,
			MaxPages:      100,
		},
		Browser: BrowserConfig{
			UserAgent:       DefaultUserAgent,
			WindowWidth:     1920,
			WindowHeight:    1080,
			NavigateTimeout: 60 * time.Second,
			Locale:          "id-ID",
			Timezone:        "Asia/Jakarta",
		},
		Selectors: DefaultSelectors(),
		Sentiment: SentimentConfig{
			Backend:         "onnx",
			ModelName:       "w11wo/indonesian-roberta-base-sentiment-classifier",
			ModelDir:        "./models",
			RemoteTimeout:   10 * time.Second,
			Fallback:        "fail",
			RemoveStopwords: true,
			CacheSize:       4096,
		},
		AI: AIConfig{
			Enabled:  true,
			Endpoint: "http://localhost:11434",
			Model:    "bangundwir/bahasa-4b-chat",
			Timeout:  120 * time.Second,
			AutoPull: true,
		},
		Storage: StorageConfig{
			Types:         []string{"csv"},
			OutputDir:     "data",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "quickshop",
			SQLitePath:    "data/quickshop.db",
		},
		Cache: CacheConfig{
			Address: "localhost:6379",
			TTL:     24 * time.Hour,
		},
		API: APIConfig{
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// DefaultSelectors returns the Tokopedia page markers.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		PopupContainer: ".css-11hzwo5",
		PopupButton:    "button",
		SeeMore:        "button[data-testid='btnPDPSeeMore']",
		ProductName:    "h1[data-testid='lblPDPDetailProductName']",
		Description:    "div[data-testid='lblPDPDescriptionProduk']",
		TotalCount:     "//p[@data-testid='reviewSortingSubtitle']",
		Containers:     []string{"article.css-15m2bcr", "article[data-testid='reviewCard']"},
		ReviewText:     "p span[data-testid='lblItemUlasan']",
		Author:         []string{"div.css-k4rf3m span.name", "span.name"},
		Rating:         "div[data-testid='icnStarRating']",
		NextPage:       "button[aria-label='Laman berikutnya']",
	}
}
