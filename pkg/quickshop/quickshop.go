// Package quickshop provides a public SDK for embedding QuickShop as a library.
//
// Example usage:
//
//	client, err := quickshop.New(ctx,
//	    quickshop.WithMaxReviews(30),
//	    quickshop.WithOutput("./data", "csv", "json"),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	snap, err := client.AnalyzeURL(ctx, "https://www.tokopedia.com/toko/produk")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(snap.Summary)
//	fmt.Println(client.Chat(ctx, "Apakah baterainya awet?", snap))
package quickshop

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/quickshop-id/quickshop/internal/ai"
	"github.com/quickshop-id/quickshop/internal/analysis"
	"github.com/quickshop-id/quickshop/internal/browser"
	"github.com/quickshop-id/quickshop/internal/cache"
	"github.com/quickshop-id/quickshop/internal/config"
	"github.com/quickshop-id/quickshop/internal/observability"
	"github.com/quickshop-id/quickshop/internal/scraper"
	"github.com/quickshop-id/quickshop/internal/sentiment"
	"github.com/quickshop-id/quickshop/internal/storage"
	"github.com/quickshop-id/quickshop/internal/types"
)

// Re-exported model types.
type (
	Config      = config.Config
	Request     = analysis.Request
	Snapshot    = types.Snapshot
	Review      = types.Review
	Reporter    = types.Reporter
	StatusEvent = types.StatusEvent
	Message     = types.Message
	Progress    = types.Progress
)

// Option configures a Client.
type Option func(*config.Config)

// WithMaxReviews sets the default review cap.
func WithMaxReviews(n int) Option {
	return func(c *config.Config) { c.Scraper.MaxReviews = n }
}

// WithHeadless toggles the headless browser.
func WithHeadless(headless bool) Option {
	return func(c *config.Config) { c.Scraper.Headless = headless }
}

// WithOutput sets the output directory and storage backends.
func WithOutput(dir string, backends ...string) Option {
	return func(c *config.Config) {
		c.Storage.OutputDir = dir
		if len(backends) > 0 {
			c.Storage.Types = backends
		}
	}
}

// WithSentimentBackend selects onnx, remote or vader.
func WithSentimentBackend(backend string) Option {
	return func(c *config.Config) { c.Sentiment.Backend = backend }
}

// WithRemoteModel points the remote backend at endpoint.
func WithRemoteModel(endpoint string) Option {
	return func(c *config.Config) {
		c.Sentiment.Backend = "remote"
		c.Sentiment.RemoteEndpoint = endpoint
	}
}

// WithFallback sets the classifier fallback policy: fail or neutral.
func WithFallback(policy string) Option {
	return func(c *config.Config) { c.Sentiment.Fallback = policy }
}

// WithOllama sets the Ollama endpoint and model.
func WithOllama(endpoint, model string) Option {
	return func(c *config.Config) {
		c.AI.Enabled = true
		c.AI.Endpoint = endpoint
		c.AI.Model = model
	}
}

// WithoutAI disables conclusions and chat.
func WithoutAI() Option {
	return func(c *config.Config) { c.AI.Enabled = false }
}

// WithCache enables the Valkey snapshot cache.
func WithCache(address string, ttl time.Duration) Option {
	return func(c *config.Config) {
		c.Cache.Enabled = true
		c.Cache.Address = address
		c.Cache.TTL = ttl
	}
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// Client wires the scraper, classifier, advisor, storage and cache.
type Client struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	runner  *analysis.Runner
	service *sentiment.Service
	advisor *ai.Advisor
	store   storage.Storage
	cache   cache.SnapshotCache
}

// New creates a Client from the defaults plus opts.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	logger := observability.NewLogger(os.Stderr, cfg.Logging.Format, observability.ParseLevel(cfg.Logging.Level))
	return NewFromConfig(ctx, cfg, logger)
}

// NewFromConfig creates a Client from a loaded configuration. When Ollama is
// enabled but not ready the client still works and conclusions use the
// unavailable text.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Client{cfg: cfg, logger: logger}
	if cfg.Metrics.Enabled {
		c.metrics = observability.NewMetrics(logger)
	}

	mgr := browser.NewManager(cfg.Browser, logger)
	sc := scraper.New(cfg, scraper.BrowserOpener(mgr), c.metrics, logger)

	service, err := sentiment.NewServiceFromConfig(cfg.Sentiment, c.metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("create classifier: %w", err)
	}
	c.service = service
	pre := sentiment.NewPreprocessor(cfg.Sentiment.RemoveStopwords, cfg.Sentiment.StopwordsFile, logger)
	analyzer := sentiment.NewAnalyzer(pre, service, cfg.Sentiment.Fallback, c.metrics, logger)

	if cfg.AI.Enabled {
		ollama := ai.NewOllamaClient(cfg.AI, &http.Client{Timeout: cfg.AI.Timeout}, logger)
		if err := ollama.Setup(ctx, cfg.AI.AutoPull); err != nil {
			logger.Warn("ollama not ready, conclusions disabled", "error", err)
		} else {
			c.advisor = ai.NewAdvisor(ollama, c.metrics, logger)
		}
	}

	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		service.Close()
		return nil, fmt.Errorf("create storage: %w", err)
	}
	c.store = store

	snapCache, err := cache.New(ctx, cfg.Cache, logger)
	if err != nil {
		logger.Warn("snapshot cache unavailable, using in-process cache", "error", err)
		snapCache = cache.NewMemory(64, cfg.Cache.TTL)
	}
	c.cache = snapCache

	runnerOpts := []analysis.Option{
		analysis.WithStorage(store),
		analysis.WithCache(snapCache),
		analysis.WithMetrics(c.metrics),
	}
	if c.advisor != nil {
		runnerOpts = append(runnerOpts, analysis.WithConcluder(c.advisor))
	}
	c.runner = analysis.NewRunner(sc, analyzer, logger, runnerOpts...)

	return c, nil
}

// Config returns the effective configuration.
func (c *Client) Config() *config.Config { return c.cfg }

// Runner returns the end-to-end runner.
func (c *Client) Runner() *analysis.Runner { return c.runner }

// Advisor returns the Ollama advisor, or nil when Ollama is not ready.
func (c *Client) Advisor() *ai.Advisor { return c.advisor }

// Metrics returns the collectors, or nil when metrics are disabled.
func (c *Client) Metrics() *observability.Metrics { return c.metrics }

// MetricsHandler exposes the collectors, or returns nil when disabled.
func (c *Client) MetricsHandler() http.Handler {
	if c.metrics == nil {
		return nil
	}
	return c.metrics.Handler()
}

// Defaults returns a Request carrying the configured review cap and mode.
func (c *Client) Defaults() Request {
	return Request{
		MaxReviews: c.cfg.Scraper.MaxReviews,
		Headless:   c.cfg.Scraper.Headless,
	}
}

// Analyze scrapes, classifies and summarises one product.
func (c *Client) Analyze(ctx context.Context, req Request, report Reporter) (*Snapshot, error) {
	return c.runner.Analyze(ctx, req, report)
}

// AnalyzeURL analyses url with the configured defaults.
func (c *Client) AnalyzeURL(ctx context.Context, url string) (*Snapshot, error) {
	req := c.Defaults()
	req.URL = url
	return c.runner.Analyze(ctx, req, nil)
}

// Reanalyze classifies previously collected reviews without scraping.
func (c *Client) Reanalyze(ctx context.Context, productName, description string, reviews []*Review, report Reporter) (*Snapshot, error) {
	return c.runner.Reanalyze(ctx, productName, description, reviews, report)
}

// LoadCSV reads a review export written by the csv backend.
func (c *Client) LoadCSV(path string) ([]*Review, error) {
	return storage.LoadCSVFile(path)
}

// Chat answers a question about snap. Without Ollama it returns the
// unavailable message.
func (c *Client) Chat(ctx context.Context, question string, snap *Snapshot) string {
	if c.advisor == nil {
		return ai.ChatUnavailable
	}
	return c.advisor.Chat(ctx, question, snap)
}

// Close releases the classifier, storage and cache.
func (c *Client) Close() error {
	var first error
	for _, closer := range []func() error{c.service.Close, c.store.Close, c.cache.Close} {
		if err := closer(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
