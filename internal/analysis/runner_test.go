package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/quickshop-id/quickshop/internal/ai"
	"github.com/quickshop-id/quickshop/internal/browser"
	"github.com/quickshop-id/quickshop/internal/cache"
	"github.com/quickshop-id/quickshop/internal/config"
	"github.com/quickshop-id/quickshop/internal/scraper"
	"github.com/quickshop-id/quickshop/internal/sentiment"
	"github.com/quickshop-id/quickshop/internal/storage"
	"github.com/quickshop-id/quickshop/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const testURL = "https://www.tokopedia.com/toko/headset-x1"

// staticDriver serves a single review page with no popup or pagination.
type staticDriver struct{ html string }

func (d *staticDriver) Navigate(context.Context, string) error { return nil }
func (d *staticDriver) ScrollBy(context.Context, int) error    { return nil }
func (d *staticDriver) Find(context.Context, browser.Locator) browser.Probe {
	return browser.Probe{Outcome: browser.NotFound}
}
func (d *staticDriver) Click(context.Context, browser.Locator) browser.Probe {
	return browser.Probe{Outcome: browser.NotFound}
}
func (d *staticDriver) WaitFor(context.Context, browser.Locator, time.Duration) bool { return true }
func (d *staticDriver) HTML(context.Context) (string, error)                          { return d.html, nil }
func (d *staticDriver) Close() error                                                  { return nil }

func review(rating int, author, text string) string {
	return fmt.Sprintf(`<article class="css-15m2bcr">
  <div data-testid="icnStarRating" aria-label="bintang %d"></div>
  <div class="css-k4rf3m"><span class="name">%s</span></div>
  <p><span data-testid="lblItemUlasan">%s</span></p>
</article>`, rating, author, text)
}

func productPage() string {
	return `<html><body><h1 data-testid="lblPDPDetailProductName">Headset X1</h1>` +
		`<div data-testid="lblPDPDescriptionProduk">Headset gaming.</div>` +
		review(5, "Budi", "Mantap") +
		review(4, "Sari", "Mantap") +
		review(1, "Ani", "Jelek") +
		`</body></html>`
}

type wordModel struct{}

func (wordModel) Predict(_ context.Context, text string) (sentiment.Prediction, error) {
	switch {
	case strings.Contains(text, "mantap"):
		return sentiment.Prediction{Class: types.Positive, Confidence: 0.9}, nil
	case strings.Contains(text, "jelek"):
		return sentiment.Prediction{Class: types.Negative, Confidence: 0.8}, nil
	}
	return sentiment.Prediction{Class: types.Neutral, Confidence: 0.5}, nil
}

func (wordModel) Close() error { return nil }

type fakeConcluder struct {
	summary string
}

func (f *fakeConcluder) Conclusion(_ context.Context, _, summary string) string {
	f.summary = summary
	return "Layak dibeli."
}

func testScraper(opened *int) *scraper.Scraper {
	cfg := config.DefaultConfig()
	cfg.Scraper.SettleTimeout = 0
	cfg.Scraper.PopupWait = 0
	cfg.Scraper.ScrollWait = 0
	cfg.Scraper.SeeMoreWait = 0
	cfg.Scraper.PageWait = 0
	cfg.Scraper.PollInterval = time.Millisecond

	opener := scraper.OpenerFunc(func(context.Context, bool) (scraper.Driver, error) {
		*opened++
		return &staticDriver{html: productPage()}, nil
	})
	return scraper.New(cfg, opener, nil, testLogger)
}

func testAnalyzer(load sentiment.Loader, fallback string) *sentiment.Analyzer {
	svc := sentiment.NewService("fake", load, 0, nil, testLogger)
	return sentiment.NewAnalyzer(sentiment.NewPreprocessor(false, "", testLogger), svc, fallback, nil, testLogger)
}

func wordLoader(context.Context) (sentiment.Model, error) { return wordModel{}, nil }

func TestAnalyzeEndToEnd(t *testing.T) {
	opened := 0
	dir := t.TempDir()
	store, err := storage.NewCSVStorage(dir, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	concluder := &fakeConcluder{}
	r := NewRunner(testScraper(&opened), testAnalyzer(wordLoader, sentiment.FallbackFail), testLogger,
		WithConcluder(concluder),
		WithStorage(store),
		WithCache(cache.NewMemory(4, time.Minute)),
	)

	var messages []string
	var lastProgress float64
	report := types.Reporter(func(ev types.StatusEvent) {
		switch e := ev.(type) {
		case types.Message:
			messages = append(messages, e.Text)
		case types.Progress:
			lastProgress = e.Fraction
		}
	})

	snap, err := r.Analyze(context.Background(), Request{URL: testURL, MaxReviews: 50, Headless: true}, report)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if snap.ProductName != "Headset X1" {
		t.Errorf("product = %q", snap.ProductName)
	}
	if len(snap.Reviews) != 2 {
		t.Fatalf("got %d reviews, want 2", len(snap.Reviews))
	}
	if snap.Counts != (types.SentimentCounts{Positive: 1, Negative: 1}) {
		t.Errorf("counts = %+v", snap.Counts)
	}
	if !strings.Contains(snap.Summary, "**1** ulasan positif") || !strings.Contains(snap.Summary, "**0** ulasan netral") {
		t.Errorf("summary = %q", snap.Summary)
	}
	if concluder.summary != snap.Summary {
		t.Errorf("concluder got summary %q", concluder.summary)
	}
	if snap.Conclusion != "Layak dibeli." {
		t.Errorf("conclusion = %q", snap.Conclusion)
	}
	if len(snap.WordFrequencies) == 0 {
		t.Error("expected word frequencies")
	}
	if lastProgress != 1 {
		t.Errorf("last progress = %v", lastProgress)
	}
	if messages[len(messages)-1] != "✅ Analisis selesai!" {
		t.Errorf("last message = %q", messages[len(messages)-1])
	}
	if _, err := os.Stat(filepath.Join(dir, "Headset_X1.csv")); err != nil {
		t.Errorf("csv export missing: %v", err)
	}

	// The second request is served from the cache.
	again, err := r.Analyze(context.Background(), Request{URL: testURL, MaxReviews: 50}, nil)
	if err != nil {
		t.Fatalf("analyze again: %v", err)
	}
	if again != snap {
		t.Error("expected cached snapshot")
	}
	if opened != 1 {
		t.Errorf("browser opened %d times, want 1", opened)
	}

	if _, err := r.Analyze(context.Background(), Request{URL: testURL, Refresh: true}, nil); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if opened != 2 {
		t.Errorf("refresh should rescrape, opened = %d", opened)
	}
}

func TestAnalyzeWithoutConcluder(t *testing.T) {
	opened := 0
	r := NewRunner(testScraper(&opened), testAnalyzer(wordLoader, sentiment.FallbackFail), testLogger)

	snap, err := r.Analyze(context.Background(), Request{URL: testURL}, nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if snap.Conclusion != ai.UnavailableConclusion {
		t.Errorf("conclusion = %q", snap.Conclusion)
	}
}

func TestAnalyzeModelUnavailable(t *testing.T) {
	opened := 0
	broken := func(context.Context) (sentiment.Model, error) { return nil, errors.New("no weights") }
	r := NewRunner(testScraper(&opened), testAnalyzer(broken, sentiment.FallbackFail), testLogger)

	var messages []string
	report := types.Reporter(func(ev types.StatusEvent) {
		if m, ok := ev.(types.Message); ok {
			messages = append(messages, m.Text)
		}
	})

	_, err := r.Analyze(context.Background(), Request{URL: testURL}, report)
	if !errors.Is(err, types.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if opened != 0 {
		t.Errorf("browser opened %d times before the model failed, want 0", opened)
	}
	if len(messages) == 0 || !strings.HasPrefix(messages[len(messages)-1], "❌ Gagal memuat model sentimen") {
		t.Errorf("messages = %q", messages)
	}
}

func TestAnalyzeNeutralFallbackStillScrapes(t *testing.T) {
	opened := 0
	broken := func(context.Context) (sentiment.Model, error) { return nil, errors.New("no weights") }
	r := NewRunner(testScraper(&opened), testAnalyzer(broken, sentiment.FallbackNeutral), testLogger)

	snap, err := r.Analyze(context.Background(), Request{URL: testURL}, nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if opened != 1 || !snap.Degraded {
		t.Errorf("opened = %d, degraded = %v", opened, snap.Degraded)
	}
}

func TestAnalyzeCacheHonoursLargerCap(t *testing.T) {
	opened := 0
	r := NewRunner(testScraper(&opened), testAnalyzer(wordLoader, sentiment.FallbackFail), testLogger,
		WithCache(cache.NewMemory(4, time.Minute)),
	)
	ctx := context.Background()

	small, err := r.Analyze(ctx, Request{URL: testURL, MaxReviews: 1}, nil)
	if err != nil {
		t.Fatalf("analyze max=1: %v", err)
	}
	if len(small.Reviews) != 1 || small.MaxReviews != 1 {
		t.Fatalf("max=1: %d reviews, cap %d", len(small.Reviews), small.MaxReviews)
	}

	large, err := r.Analyze(ctx, Request{URL: testURL, MaxReviews: 10}, nil)
	if err != nil {
		t.Fatalf("analyze max=10: %v", err)
	}
	if len(large.Reviews) != 2 {
		t.Errorf("max=10: got %d reviews, want 2", len(large.Reviews))
	}
	if opened != 2 {
		t.Errorf("browser opened %d times, want 2", opened)
	}

	// The page only has two unique reviews, so the max=10 snapshot also
	// answers any smaller or larger cap.
	for _, limit := range []int{1, 5, 50} {
		got, err := r.Analyze(ctx, Request{URL: testURL, MaxReviews: limit}, nil)
		if err != nil {
			t.Fatalf("analyze max=%d: %v", limit, err)
		}
		if got != large {
			t.Errorf("max=%d: expected cached snapshot", limit)
		}
	}
	if opened != 2 {
		t.Errorf("browser opened %d times after cached requests, want 2", opened)
	}
}

func TestCovers(t *testing.T) {
	two := []*types.Review{{Text: "a"}, {Text: "b"}}
	tests := []struct {
		name  string
		snap  *types.Snapshot
		limit int
		want  bool
	}{
		{"default cap", &types.Snapshot{Reviews: two, MaxReviews: 2}, 0, true},
		{"enough reviews", &types.Snapshot{Reviews: two, MaxReviews: 2}, 2, true},
		{"capped short", &types.Snapshot{Reviews: two, MaxReviews: 2}, 3, false},
		{"exhausted", &types.Snapshot{Reviews: two, MaxReviews: 10}, 30, true},
		{"unknown cap", &types.Snapshot{Reviews: two}, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := covers(tt.snap, tt.limit); got != tt.want {
				t.Errorf("covers = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnalyzeInvalidURL(t *testing.T) {
	opened := 0
	r := NewRunner(testScraper(&opened), testAnalyzer(wordLoader, sentiment.FallbackFail), testLogger)

	_, err := r.Analyze(context.Background(), Request{URL: "https://example.com/x"}, nil)
	var ve *types.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if opened != 0 {
		t.Error("browser should not open for an invalid URL")
	}
}

func TestReanalyze(t *testing.T) {
	opened := 0
	r := NewRunner(testScraper(&opened), testAnalyzer(wordLoader, sentiment.FallbackFail), testLogger)

	reviews := []*types.Review{
		{Author: "A", Rating: 5, Text: "mantap"},
		{Author: "B", Rating: 3, Text: "jelek sedikit"},
	}
	snap, err := r.Reanalyze(context.Background(), "Headset X1", "", reviews, nil)
	if err != nil {
		t.Fatalf("reanalyze: %v", err)
	}
	if snap.Counts != (types.SentimentCounts{Positive: 1, Neutral: 1}) {
		t.Errorf("counts = %+v", snap.Counts)
	}
	if opened != 0 {
		t.Error("reanalyze should not open a browser")
	}
}
