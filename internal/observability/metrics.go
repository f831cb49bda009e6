// Package observability holds the Prometheus collectors for QuickShop.
package observability

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors on a dedicated registry. All record
// methods are safe on a nil *Metrics.
type Metrics struct {
	Registry *prometheus.Registry

	ScrapesTotal      *prometheus.CounterVec
	ScrapeDuration    prometheus.Histogram
	PagesVisited      prometheus.Counter
	ReviewsScraped    prometheus.Counter
	ReviewsSkipped    *prometheus.CounterVec
	Classifications   *prometheus.CounterVec
	ClassifyCacheHits prometheus.Counter
	LLMRequests       *prometheus.CounterVec
	LLMDuration       prometheus.Histogram
	SnapshotsStored   *prometheus.CounterVec

	logger *slog.Logger
}

// NewMetrics constructs and registers all collectors.
func NewMetrics(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		ScrapesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quickshop_scrapes_total",
			Help: "Scrape runs by outcome.",
		}, []string{"outcome"}),
		ScrapeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quickshop_scrape_duration_seconds",
			Help:    "Wall time of a full scrape.",
			Buckets: []float64{5, 10, 20, 30, 60, 120, 300},
		}),
		PagesVisited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quickshop_review_pages_total",
			Help: "Review pages read.",
		}),
		ReviewsScraped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quickshop_reviews_scraped_total",
			Help: "Reviews collected.",
		}),
		ReviewsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quickshop_reviews_skipped_total",
			Help: "Review containers skipped by reason.",
		}, []string{"reason"}),
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quickshop_classifications_total",
			Help: "Final sentiment labels assigned.",
		}, []string{"label"}),
		ClassifyCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quickshop_classify_cache_hits_total",
			Help: "Classifier results served from cache.",
		}),
		LLMRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quickshop_llm_requests_total",
			Help: "Ollama generate calls by kind and outcome.",
		}, []string{"kind", "outcome"}),
		LLMDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quickshop_llm_duration_seconds",
			Help:    "Ollama generate latency.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 9),
		}),
		SnapshotsStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quickshop_snapshots_stored_total",
			Help: "Snapshots written by storage backend.",
		}, []string{"backend"}),
		logger: logger.With("component", "metrics"),
	}

	registry.MustRegister(
		m.ScrapesTotal, m.ScrapeDuration, m.PagesVisited, m.ReviewsScraped,
		m.ReviewsSkipped, m.Classifications, m.ClassifyCacheHits,
		m.LLMRequests, m.LLMDuration, m.SnapshotsStored,
	)
	return m
}

// ObserveScrape records a finished scrape.
func (m *Metrics) ObserveScrape(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ScrapesTotal.WithLabelValues(outcome).Inc()
	m.ScrapeDuration.Observe(d.Seconds())
}

// IncPages increments the page counter.
func (m *Metrics) IncPages() {
	if m == nil {
		return
	}
	m.PagesVisited.Inc()
}

// IncReviews increments the collected review counter.
func (m *Metrics) IncReviews() {
	if m == nil {
		return
	}
	m.ReviewsScraped.Inc()
}

// IncSkipped counts a skipped container.
func (m *Metrics) IncSkipped(reason string) {
	if m == nil {
		return
	}
	m.ReviewsSkipped.WithLabelValues(reason).Inc()
}

// IncLabel counts a final sentiment label.
func (m *Metrics) IncLabel(label string) {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues(label).Inc()
}

// IncCacheHit counts a classifier cache hit.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.ClassifyCacheHits.Inc()
}

// ObserveLLM records one generate call.
func (m *Metrics) ObserveLLM(kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.LLMRequests.WithLabelValues(kind, outcome).Inc()
	m.LLMDuration.Observe(d.Seconds())
}

// IncStored counts a stored snapshot.
func (m *Metrics) IncStored(backend string) {
	if m == nil {
		return
	}
	m.SnapshotsStored.WithLabelValues(backend).Inc()
}

// Handler returns the exposition handler for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(m.logger.Handler(), slog.LevelWarn),
	})
}
