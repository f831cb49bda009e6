// Package scraper collects reviews from a marketplace product page.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quickshop-id/quickshop/internal/browser"
	"github.com/quickshop-id/quickshop/internal/config"
	"github.com/quickshop-id/quickshop/internal/extractor"
	"github.com/quickshop-id/quickshop/internal/observability"
	"github.com/quickshop-id/quickshop/internal/types"
)

// Request describes one scrape.
type Request struct {
	URL        string
	MaxReviews int
	Headless   bool
}

// Scraper runs the page state machine. One Scraper may be reused, but
// concurrent Scrape calls must be serialised by the caller.
type Scraper struct {
	cfg       config.ScraperConfig
	sel       config.SelectorConfig
	opener    Opener
	extractor *extractor.Extractor
	validator *config.URLValidator
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New creates a Scraper.
func New(cfg *config.Config, opener Opener, metrics *observability.Metrics, logger *slog.Logger) *Scraper {
	return &Scraper{
		cfg:       cfg.Scraper,
		sel:       cfg.Selectors,
		opener:    opener,
		extractor: extractor.New(cfg.Selectors, logger),
		validator: config.NewURLValidator(cfg.Scraper.Domain),
		metrics:   metrics,
		logger:    logger.With("component", "scraper"),
	}
}

// run is the state of a single scrape.
type run struct {
	req     Request
	max     int
	seen    *textSet
	reviews []*types.Review
	page    int
	state   State
	report  types.Reporter
	drv     Driver
	meta    extractor.ProductMeta
	total   int
}

func (r *run) enter(s State) { r.state = s }

// Scrape collects up to req.MaxReviews unique reviews. On failure it
// reports the reason through report and returns a nil result with the
// error. The browser session is closed on every path.
func (s *Scraper) Scrape(ctx context.Context, req Request, report types.Reporter) (*types.ScrapeResult, error) {
	start := time.Now()
	if req.MaxReviews < 1 {
		req.MaxReviews = s.cfg.MaxReviews
	}
	r := &run{
		req:    req,
		max:    req.MaxReviews,
		seen:   newTextSet(req.MaxReviews),
		page:   1,
		state:  StateInit,
		report: report,
	}

	result, err := s.execute(ctx, r)
	if err != nil {
		failedAt := r.state
		r.enter(StateFailed)
		s.metrics.ObserveScrape("failed", time.Since(start))
		s.logger.Error("scrape failed", "url", req.URL, "state", failedAt.String(), "error", err)
		return nil, err
	}
	s.metrics.ObserveScrape("done", time.Since(start))
	return result, nil
}

func (s *Scraper) execute(ctx context.Context, r *run) (*types.ScrapeResult, error) {
	if !s.validator.Valid(r.req.URL) {
		r.report.Say("❌ URL produk tidak valid! Pastikan ini adalah URL produk Tokopedia.")
		return nil, &types.ValidationError{URL: r.req.URL, Reason: "not a " + s.cfg.Domain + " product URL"}
	}

	r.report.Say("⏳ Menyiapkan browser...")
	drv, err := s.opener.Open(ctx, r.req.Headless)
	if err != nil {
		r.report.Say(fmt.Sprintf("❌ Error saat scraping: %v", err))
		return nil, err
	}
	r.drv = drv
	defer func() {
		r.report.Say("🔄 Menutup browser...")
		if err := drv.Close(); err != nil {
			s.logger.Warn("browser close failed", "error", err)
		}
	}()

	if err := s.loadPage(ctx, r); err != nil {
		r.report.Say(fmt.Sprintf("❌ Error saat scraping: %v", err))
		return nil, err
	}
	s.handlePopup(ctx, r)
	s.expandContent(ctx, r)
	if err := s.extractMeta(ctx, r); err != nil {
		r.report.Say(fmt.Sprintf("❌ Error saat scraping: %v", err))
		return nil, err
	}
	if err := s.pageReviews(ctx, r); err != nil {
		if errors.Is(err, types.ErrNoReviewContainers) {
			r.report.Say("⚠️ Tidak ditemukan kontainer ulasan")
		} else {
			r.report.Say(fmt.Sprintf("❌ Error saat scraping: %v", err))
		}
		return nil, err
	}

	r.enter(StateDone)
	r.report.Say(fmt.Sprintf("✅ Scraping selesai! Berhasil mengambil %d ulasan", len(r.reviews)))
	s.logger.Info("scrape complete",
		"url", r.req.URL,
		"product", r.meta.Name,
		"reviews", len(r.reviews),
		"pages", r.page,
	)

	return &types.ScrapeResult{
		URL:            r.req.URL,
		ProductName:    r.meta.Name,
		Description:    r.meta.Description,
		Reviews:        r.reviews,
		Pages:          r.page,
		TotalAvailable: r.total,
		MaxReviews:     r.req.MaxReviews,
	}, nil
}

// loadPage navigates and waits for the product header to render.
func (s *Scraper) loadPage(ctx context.Context, r *run) error {
	r.report.Say("⏳ Membuka halaman produk Tokopedia...")
	if err := r.drv.Navigate(ctx, r.req.URL); err != nil {
		return err
	}
	if !r.drv.WaitFor(ctx, browser.CSS(s.sel.ProductName), s.cfg.SettleTimeout) {
		s.logger.Debug("product header not seen before settle timeout")
	}
	r.enter(StatePageLoaded)
	return ctx.Err()
}

// handlePopup dismisses the promo overlay when there is one.
func (s *Scraper) handlePopup(ctx context.Context, r *run) {
	r.report.Say("⏳ Menangani popup...")
	popup := browser.Locator{Selector: s.sel.PopupContainer, Child: s.sel.PopupButton}

	probe := r.drv.Click(ctx, popup)
	switch probe.Outcome {
	case browser.Found:
		container := browser.CSS(s.sel.PopupContainer)
		s.waitUntil(ctx, s.cfg.PopupWait, func() bool {
			return r.drv.Find(ctx, container).Outcome == browser.NotFound
		})
	case browser.NotFound:
		r.report.Say("ℹ️ Tidak ada popup untuk ditutup")
	default:
		r.report.Say(fmt.Sprintf("ℹ️ Popup tidak dapat ditutup: %v", probe.Err))
	}
	r.enter(StatePopupHandled)
}

// expandContent scrolls to trigger lazy loading and opens the full
// description.
func (s *Scraper) expandContent(ctx context.Context, r *run) {
	r.report.Say("⏳ Memuat konten halaman...")
	if err := r.drv.ScrollBy(ctx, s.cfg.ScrollAmount); err != nil {
		s.logger.Warn("scroll failed", "error", err)
	}
	if len(s.sel.Containers) > 0 {
		r.drv.WaitFor(ctx, browser.CSS(s.sel.Containers[0]), s.cfg.ScrollWait)
	}

	r.report.Say("⏳ Mencoba membuka deskripsi lengkap...")
	probe := r.drv.Click(ctx, browser.CSS(s.sel.SeeMore))
	switch probe.Outcome {
	case browser.Found:
		r.drv.WaitFor(ctx, browser.CSS(s.sel.Description), s.cfg.SeeMoreWait)
	case browser.NotFound:
		r.report.Say("ℹ️ Tombol deskripsi lengkap tidak ditemukan")
	default:
		r.report.Say(fmt.Sprintf("ℹ️ Tidak dapat membuka deskripsi lengkap: %v", probe.Err))
	}
	r.enter(StateContentExpanded)
}

// extractMeta reads the product header and caps the target count.
func (s *Scraper) extractMeta(ctx context.Context, r *run) error {
	r.report.Say("⏳ Mengambil informasi produk...")
	markup, err := r.drv.HTML(ctx)
	if err != nil {
		return err
	}
	doc, err := s.extractor.Parse(markup)
	if err != nil {
		return err
	}
	r.meta = s.extractor.ProductMeta(doc)
	r.report.Say("✅ Produk terdeteksi: " + r.meta.Name)

	if total, ok := s.extractor.TotalReviewCount(markup); ok {
		r.total = total
		if total < r.max {
			r.max = total
		}
		r.report.Say(fmt.Sprintf("ℹ️ Menemukan %d ulasan, akan mengambil hingga %d", total, r.max))
	} else {
		r.report.Say("⚠️ Tidak dapat menghitung total ulasan")
	}
	r.enter(StateMetaExtracted)
	return nil
}

// pageReviews is the paging loop. Running out of pages or containers after
// the first page ends it normally.
func (s *Scraper) pageReviews(ctx context.Context, r *run) error {
	r.enter(StatePagingReviews)
	for len(r.reviews) < r.max {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.report.Say(fmt.Sprintf("⏳ Memproses halaman ulasan %d...", r.page))
		s.metrics.IncPages()

		markup, err := r.drv.HTML(ctx)
		if err != nil {
			return err
		}
		doc, err := s.extractor.Parse(markup)
		if err != nil {
			return err
		}
		containers := s.extractor.Containers(doc)
		if len(containers) == 0 {
			if r.page == 1 {
				return types.ErrNoReviewContainers
			}
			s.logger.Info("no containers on page, stopping", "page", r.page)
			break
		}

		for i, c := range containers {
			if len(r.reviews) >= r.max {
				break
			}
			review, err := s.extractor.Review(i, c)
			if err != nil {
				s.metrics.IncSkipped("extraction")
				s.logger.Debug("skipping review", "page", r.page, "error", err)
				r.report.Say(fmt.Sprintf("⚠️ Error saat ekstraksi ulasan: %v", err))
				continue
			}
			if !r.seen.Add(review.Text) {
				s.metrics.IncSkipped("duplicate")
				continue
			}
			r.reviews = append(r.reviews, review)
			s.metrics.IncReviews()
			r.report.Advance(float64(len(r.reviews)) / float64(r.max))
		}

		if len(r.reviews) >= r.max {
			break
		}
		if err := s.nextPage(ctx, r, s.extractor.ReviewText(doc)); err != nil {
			if errors.Is(err, types.ErrPaginationExhausted) {
				s.logger.Info("pagination exhausted", "page", r.page, "reviews", len(r.reviews))
				break
			}
			return err
		}
	}
	return nil
}

// nextPage clicks the next-page control and waits for the first review to
// change. It returns ErrPaginationExhausted when there is nowhere to go.
func (s *Scraper) nextPage(ctx context.Context, r *run, firstText string) error {
	if r.page >= s.cfg.MaxPages {
		return types.ErrPaginationExhausted
	}
	probe := r.drv.Click(ctx, browser.CSS(s.sel.NextPage))
	switch probe.Outcome {
	case browser.NotFound:
		return types.ErrPaginationExhausted
	case browser.Failed:
		r.report.Say(fmt.Sprintf("⚠️ Tidak dapat beralih ke halaman berikutnya: %v", probe.Err))
		return types.ErrPaginationExhausted
	}

	changed := s.waitUntil(ctx, s.cfg.PageWait, func() bool {
		markup, err := r.drv.HTML(ctx)
		if err != nil {
			return false
		}
		doc, err := s.extractor.Parse(markup)
		if err != nil {
			return false
		}
		return s.extractor.ReviewText(doc) != firstText
	})
	if !changed {
		s.logger.Debug("page content unchanged after next click", "page", r.page)
	}
	r.page++
	return ctx.Err()
}

// waitUntil polls cond until it holds, timeout elapses, or ctx ends.
func (s *Scraper) waitUntil(ctx context.Context, timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	interval := s.cfg.PollInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	for {
		if cond() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
	}
}
