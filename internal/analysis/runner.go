// Package analysis runs the full product analysis: scrape, classify,
// aggregate, conclude, and persist.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quickshop-id/quickshop/internal/ai"
	"github.com/quickshop-id/quickshop/internal/cache"
	"github.com/quickshop-id/quickshop/internal/observability"
	"github.com/quickshop-id/quickshop/internal/scraper"
	"github.com/quickshop-id/quickshop/internal/sentiment"
	"github.com/quickshop-id/quickshop/internal/storage"
	"github.com/quickshop-id/quickshop/internal/types"
)

// topWordCount is the size of the word-frequency table.
const topWordCount = 30

// Scraper collects reviews for a product URL.
type Scraper interface {
	Scrape(ctx context.Context, req scraper.Request, report types.Reporter) (*types.ScrapeResult, error)
}

// Concluder writes the product conclusion. *ai.Advisor implements it.
type Concluder interface {
	Conclusion(ctx context.Context, description, summary string) string
}

// Request describes one analysis.
type Request struct {
	URL        string
	MaxReviews int
	Headless   bool
	// Refresh bypasses the snapshot cache.
	Refresh bool
}

// Runner wires the stages together. Concluder, Storage and Cache are
// optional.
type Runner struct {
	scraper   Scraper
	analyzer  *sentiment.Analyzer
	concluder Concluder
	store     storage.Storage
	cache     cache.SnapshotCache
	metrics   *observability.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcluder enables LLM conclusions.
func WithConcluder(c Concluder) Option { return func(r *Runner) { r.concluder = c } }

// WithStorage persists every finished snapshot.
func WithStorage(s storage.Storage) Option { return func(r *Runner) { r.store = s } }

// WithCache serves repeated URLs from a snapshot cache.
func WithCache(c cache.SnapshotCache) Option { return func(r *Runner) { r.cache = c } }

// WithMetrics records stored snapshots.
func WithMetrics(m *observability.Metrics) Option { return func(r *Runner) { r.metrics = m } }

// NewRunner creates a Runner.
func NewRunner(s Scraper, analyzer *sentiment.Analyzer, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		scraper:  s,
		analyzer: analyzer,
		logger:   logger.With("component", "runner"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Analyze scrapes and analyses one product. Status messages and progress
// are sent to report, which may be nil.
func (r *Runner) Analyze(ctx context.Context, req Request, report types.Reporter) (*types.Snapshot, error) {
	if r.cache != nil && !req.Refresh {
		snap, ok, err := r.cache.Get(ctx, req.URL)
		if err != nil {
			r.logger.Warn("cache lookup failed", "url", req.URL, "error", err)
		}
		switch {
		case ok && covers(snap, req.MaxReviews):
			r.logger.Info("serving cached snapshot", "url", req.URL, "product", snap.ProductName)
			report.Say("ℹ️ Menggunakan hasil analisis tersimpan untuk " + snap.ProductName)
			report.Advance(1)
			return snap, nil
		case ok:
			r.logger.Info("cached snapshot too small, rescraping",
				"url", req.URL, "cached", len(snap.Reviews), "requested", req.MaxReviews)
		}
	}

	if err := r.analyzer.Ready(ctx); err != nil {
		report.Say(fmt.Sprintf("❌ Gagal memuat model sentimen: %v", err))
		return nil, err
	}

	report.Say("⏳ Memulai proses scraping...")
	res, err := r.scraper.Scrape(ctx, scraper.Request{
		URL:        req.URL,
		MaxReviews: req.MaxReviews,
		Headless:   req.Headless,
	}, report)
	if err != nil {
		return nil, err
	}
	report.Say("✅ Scraping selesai! Berhasil mendapatkan data produk: " + res.ProductName)

	snap := &types.Snapshot{
		URL:            res.URL,
		ProductName:    res.ProductName,
		Description:    res.Description,
		MaxReviews:     res.MaxReviews,
		TotalAvailable: res.TotalAvailable,
		ScrapedAt:      r.now(),
	}
	if err := r.finish(ctx, snap, res.Reviews, report); err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Put(ctx, snap); err != nil {
			r.logger.Warn("cache store failed", "url", snap.URL, "error", err)
		}
	}
	return snap, nil
}

// covers reports whether a cached snapshot can answer a request for limit
// reviews: it already holds that many, or the scrape that built it ran out
// of reviews before reaching its own cap. A zero limit takes whatever
// is cached.
func covers(snap *types.Snapshot, limit int) bool {
	n := len(snap.Reviews)
	if limit < 1 || n >= limit {
		return true
	}
	return n < snap.MaxReviews
}

// Reanalyze classifies previously exported reviews without scraping.
func (r *Runner) Reanalyze(ctx context.Context, productName, description string, reviews []*types.Review, report types.Reporter) (*types.Snapshot, error) {
	snap := &types.Snapshot{
		ProductName: productName,
		Description: description,
		ScrapedAt:   r.now(),
	}
	if err := r.finish(ctx, snap, reviews, report); err != nil {
		return nil, err
	}
	return snap, nil
}

func (r *Runner) finish(ctx context.Context, snap *types.Snapshot, reviews []*types.Review, report types.Reporter) error {
	report.Say("⏳ Menganalisis sentimen ulasan...")
	result, err := r.analyzer.Analyze(ctx, reviews)
	if err != nil {
		report.Say(fmt.Sprintf("❌ Gagal menganalisis sentimen: %v", err))
		return err
	}
	if result.Degraded {
		report.Say("⚠️ Gagal memuat model sentimen. Menggunakan fallback.")
	}

	snap.Reviews = result.Reviews
	snap.Counts = result.Counts
	snap.Degraded = result.Degraded
	snap.Summary = sentiment.Summarize(result.Counts)

	report.Say("⏳ Menghitung frekuensi kata...")
	texts := make([]string, len(result.Reviews))
	for i, rv := range result.Reviews {
		texts[i] = rv.Preprocessed
	}
	snap.WordFrequencies = sentiment.TopWords(texts, topWordCount)

	if r.concluder != nil {
		report.Say("⏳ Menghasilkan kesimpulan dengan Ollama...")
		snap.Conclusion = r.concluder.Conclusion(ctx, snap.Description, snap.Summary)
	} else {
		snap.Conclusion = ai.UnavailableConclusion
	}

	if r.store != nil {
		if err := r.store.Store(ctx, snap); err != nil {
			r.logger.Error("failed to store snapshot", "backend", r.store.Name(), "error", err)
			report.Say(fmt.Sprintf("⚠️ Gagal menyimpan data produk: %v", err))
		} else {
			r.metrics.IncStored(r.store.Name())
		}
	}

	report.Say("✅ Analisis selesai!")
	report.Advance(1)
	r.logger.Info("analysis finished",
		"product", snap.ProductName,
		"reviews", len(snap.Reviews),
		"degraded", snap.Degraded,
	)
	return nil
}
