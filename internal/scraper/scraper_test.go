package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/quickshop-id/quickshop/internal/browser"
	"github.com/quickshop-id/quickshop/internal/config"
	"github.com/quickshop-id/quickshop/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const testURL = "https://www.tokopedia.com/toko/headset-x1"

// fakeDriver serves canned markup, one string per review page.
type fakeDriver struct {
	sel         config.SelectorConfig
	pages       []string
	idx         int
	popup       bool
	navigateErr error
	closed      int
}

func (f *fakeDriver) Navigate(ctx context.Context, url string) error { return f.navigateErr }

func (f *fakeDriver) ScrollBy(ctx context.Context, dy int) error { return nil }

func (f *fakeDriver) Find(ctx context.Context, loc browser.Locator) browser.Probe {
	if loc.Selector == f.sel.PopupContainer && f.popup {
		return browser.Probe{Outcome: browser.Found}
	}
	return browser.Probe{Outcome: browser.NotFound}
}

func (f *fakeDriver) Click(ctx context.Context, loc browser.Locator) browser.Probe {
	switch loc.Selector {
	case f.sel.PopupContainer:
		if f.popup {
			f.popup = false
			return browser.Probe{Outcome: browser.Found}
		}
	case f.sel.NextPage:
		if f.idx+1 < len(f.pages) {
			f.idx++
			return browser.Probe{Outcome: browser.Found}
		}
	}
	return browser.Probe{Outcome: browser.NotFound}
}

func (f *fakeDriver) WaitFor(ctx context.Context, loc browser.Locator, timeout time.Duration) bool {
	return true
}

func (f *fakeDriver) HTML(ctx context.Context) (string, error) {
	if len(f.pages) == 0 {
		return "<html></html>", nil
	}
	return f.pages[f.idx], nil
}

func (f *fakeDriver) Close() error {
	f.closed++
	return nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Scraper.SettleTimeout = 0
	cfg.Scraper.PopupWait = 0
	cfg.Scraper.ScrollWait = 0
	cfg.Scraper.SeeMoreWait = 0
	cfg.Scraper.PageWait = 0
	cfg.Scraper.PollInterval = time.Millisecond
	return cfg
}

func newTestScraper(cfg *config.Config, drv *fakeDriver) (*Scraper, *int) {
	opened := 0
	opener := OpenerFunc(func(ctx context.Context, headless bool) (Driver, error) {
		opened++
		return drv, nil
	})
	return New(cfg, opener, nil, testLogger), &opened
}

func reviewHTML(rating int, author, text string) string {
	return fmt.Sprintf(`<article class="css-15m2bcr">
  <div data-testid="icnStarRating" aria-label="bintang %d"></div>
  <div class="css-k4rf3m"><span class="name">%s</span></div>
  <p><span data-testid="lblItemUlasan">%s</span></p>
</article>`, rating, author, text)
}

func pageHTML(subtitle string, reviews ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><h1 data-testid="lblPDPDetailProductName">Headset X1</h1>`)
	b.WriteString(`<div data-testid="lblPDPDescriptionProduk">Headset gaming.</div>`)
	if subtitle != "" {
		b.WriteString(`<p data-testid="reviewSortingSubtitle">` + subtitle + `</p>`)
	}
	for _, r := range reviews {
		b.WriteString(r)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

type recorder struct {
	messages []string
	progress []float64
}

func (r *recorder) report(ev types.StatusEvent) {
	switch e := ev.(type) {
	case types.Message:
		r.messages = append(r.messages, e.Text)
	case types.Progress:
		r.progress = append(r.progress, e.Fraction)
	}
}

func TestScrapeSinglePageWithDuplicate(t *testing.T) {
	cfg := testConfig()
	drv := &fakeDriver{
		sel: cfg.Selectors,
		pages: []string{pageHTML("",
			reviewHTML(5, "Budi", "Mantap"),
			reviewHTML(4, "Sari", "Mantap"),
			reviewHTML(1, "Ani", "Jelek"),
		)},
	}
	s, _ := newTestScraper(cfg, drv)
	rec := &recorder{}

	result, err := s.Scrape(context.Background(), Request{URL: testURL, MaxReviews: 10}, rec.report)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(result.Reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(result.Reviews))
	}
	if result.Reviews[0].Author != "Budi" || result.Reviews[1].Text != "Jelek" {
		t.Errorf("unexpected reviews: %+v %+v", result.Reviews[0], result.Reviews[1])
	}
	if result.ProductName != "Headset X1" || result.Description != "Headset gaming." {
		t.Errorf("unexpected meta: %q %q", result.ProductName, result.Description)
	}
	if result.Pages != 1 {
		t.Errorf("pages = %d, want 1", result.Pages)
	}
	if drv.closed != 1 {
		t.Errorf("driver closed %d times, want 1", drv.closed)
	}
	if len(rec.progress) != 2 || rec.progress[1] != 0.2 {
		t.Errorf("unexpected progress events: %v", rec.progress)
	}
}

func TestScrapePagesAndCapsAtMax(t *testing.T) {
	cfg := testConfig()
	drv := &fakeDriver{
		sel: cfg.Selectors,
		pages: []string{
			pageHTML("", reviewHTML(5, "a", "satu"), reviewHTML(5, "b", "dua")),
			pageHTML("", reviewHTML(5, "b", "dua"), reviewHTML(3, "c", "tiga"), reviewHTML(2, "d", "empat")),
			pageHTML("", reviewHTML(1, "e", "lima")),
		},
	}
	s, _ := newTestScraper(cfg, drv)
	rec := &recorder{}

	result, err := s.Scrape(context.Background(), Request{URL: testURL, MaxReviews: 4}, rec.report)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	var texts []string
	for _, r := range result.Reviews {
		texts = append(texts, r.Text)
	}
	if strings.Join(texts, ",") != "satu,dua,tiga,empat" {
		t.Errorf("unexpected texts: %v", texts)
	}
	if result.Pages != 2 {
		t.Errorf("pages = %d, want 2", result.Pages)
	}
	for i, p := range rec.progress {
		if p > 1 {
			t.Errorf("progress %d = %v exceeds 1", i, p)
		}
		if i > 0 && p < rec.progress[i-1] {
			t.Errorf("progress went backwards at %d: %v", i, rec.progress)
		}
	}
	if last := rec.progress[len(rec.progress)-1]; last != 1 {
		t.Errorf("final progress = %v, want 1", last)
	}
}

func TestScrapeTotalCountCapsDownward(t *testing.T) {
	cfg := testConfig()
	drv := &fakeDriver{
		sel: cfg.Selectors,
		pages: []string{
			pageHTML("Menampilkan 2 dari 3 ulasan", reviewHTML(5, "a", "satu"), reviewHTML(5, "b", "dua")),
			pageHTML("", reviewHTML(5, "c", "tiga"), reviewHTML(5, "d", "empat")),
		},
	}
	s, _ := newTestScraper(cfg, drv)

	result, err := s.Scrape(context.Background(), Request{URL: testURL, MaxReviews: 50}, nil)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(result.Reviews) != 3 {
		t.Errorf("expected cap at total 3, got %d", len(result.Reviews))
	}
	if result.TotalAvailable != 3 {
		t.Errorf("TotalAvailable = %d", result.TotalAvailable)
	}
}

func TestScrapeLaterEmptyPageEndsNormally(t *testing.T) {
	cfg := testConfig()
	drv := &fakeDriver{
		sel: cfg.Selectors,
		pages: []string{
			pageHTML("", reviewHTML(5, "a", "satu")),
			pageHTML(""),
		},
	}
	s, _ := newTestScraper(cfg, drv)

	result, err := s.Scrape(context.Background(), Request{URL: testURL, MaxReviews: 10}, nil)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(result.Reviews) != 1 {
		t.Errorf("expected 1 review, got %d", len(result.Reviews))
	}
}

func TestScrapeInvalidURL(t *testing.T) {
	cfg := testConfig()
	drv := &fakeDriver{sel: cfg.Selectors}
	s, opened := newTestScraper(cfg, drv)
	rec := &recorder{}

	result, err := s.Scrape(context.Background(), Request{URL: "https://shopee.co.id/x"}, rec.report)
	var vErr *types.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if result != nil {
		t.Error("expected nil result")
	}
	if *opened != 0 {
		t.Error("browser should not open for an invalid URL")
	}
	if len(rec.messages) == 0 || !strings.Contains(rec.messages[0], "URL produk tidak valid") {
		t.Errorf("expected invalid URL message, got %v", rec.messages)
	}
}

func TestScrapeOpenFailure(t *testing.T) {
	cfg := testConfig()
	opener := OpenerFunc(func(ctx context.Context, headless bool) (Driver, error) {
		return nil, &types.DriverError{Op: "launch", Err: errors.New("no chromium")}
	})
	s := New(cfg, opener, nil, testLogger)

	_, err := s.Scrape(context.Background(), Request{URL: testURL}, nil)
	var dErr *types.DriverError
	if !errors.As(err, &dErr) || dErr.Op != "launch" {
		t.Fatalf("expected launch DriverError, got %v", err)
	}
}

func TestScrapeNavigationFailureClosesBrowser(t *testing.T) {
	cfg := testConfig()
	drv := &fakeDriver{
		sel:         cfg.Selectors,
		navigateErr: &types.DriverError{Op: "navigate", URL: testURL, Err: errors.New("timeout")},
	}
	s, _ := newTestScraper(cfg, drv)

	_, err := s.Scrape(context.Background(), Request{URL: testURL}, nil)
	var dErr *types.DriverError
	if !errors.As(err, &dErr) || !dErr.IsNavigation() {
		t.Fatalf("expected navigation error, got %v", err)
	}
	if drv.closed != 1 {
		t.Errorf("driver closed %d times, want 1", drv.closed)
	}
}

func TestScrapeNoContainersOnFirstPage(t *testing.T) {
	cfg := testConfig()
	drv := &fakeDriver{sel: cfg.Selectors, pages: []string{pageHTML("")}}
	s, _ := newTestScraper(cfg, drv)

	result, err := s.Scrape(context.Background(), Request{URL: testURL, MaxReviews: 5}, nil)
	if !errors.Is(err, types.ErrNoReviewContainers) {
		t.Fatalf("expected ErrNoReviewContainers, got %v", err)
	}
	if result != nil {
		t.Error("expected nil result")
	}
	if drv.closed != 1 {
		t.Errorf("driver closed %d times, want 1", drv.closed)
	}
}

func TestScrapeDismissesPopup(t *testing.T) {
	cfg := testConfig()
	drv := &fakeDriver{
		sel:   cfg.Selectors,
		popup: true,
		pages: []string{pageHTML("", reviewHTML(5, "a", "satu"))},
	}
	s, _ := newTestScraper(cfg, drv)

	if _, err := s.Scrape(context.Background(), Request{URL: testURL, MaxReviews: 1}, nil); err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if drv.popup {
		t.Error("popup was not dismissed")
	}
}

func TestScrapeSkipsMalformedContainers(t *testing.T) {
	cfg := testConfig()
	bad := `<article class="css-15m2bcr"><div data-testid="icnStarRating" aria-label="bintang"></div><p><span data-testid="lblItemUlasan">x</span></p></article>`
	drv := &fakeDriver{
		sel:   cfg.Selectors,
		pages: []string{pageHTML("", bad, reviewHTML(4, "a", "bagus"))},
	}
	s, _ := newTestScraper(cfg, drv)

	result, err := s.Scrape(context.Background(), Request{URL: testURL, MaxReviews: 5}, nil)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(result.Reviews) != 1 || result.Reviews[0].Text != "bagus" {
		t.Errorf("unexpected reviews: %v", result.Reviews)
	}
}

func TestScrapeCancelledContext(t *testing.T) {
	cfg := testConfig()
	drv := &fakeDriver{sel: cfg.Selectors, pages: []string{pageHTML("", reviewHTML(5, "a", "satu"))}}
	s, _ := newTestScraper(cfg, drv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Scrape(ctx, Request{URL: testURL}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if drv.closed != 1 {
		t.Errorf("driver closed %d times, want 1", drv.closed)
	}
}

func TestStateString(t *testing.T) {
	if StatePagingReviews.String() != "paging_reviews" {
		t.Errorf("unexpected state name %q", StatePagingReviews.String())
	}
}
