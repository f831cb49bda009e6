package extractor

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/quickshop-id/quickshop/internal/config"
	"github.com/quickshop-id/quickshop/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const productHTML = `<!DOCTYPE html>
<html>
<body>
    <h1 data-testid="lblPDPDetailProductName"> Headset Gaming X1 </h1>
    <div data-testid="lblPDPDescriptionProduk">Headset dengan mic jernih.</div>
    <p data-testid="reviewSortingSubtitle">Menampilkan 10 dari 1.234 ulasan</p>
    <article class="css-15m2bcr">
        <div data-testid="icnStarRating" aria-label="bintang 5"></div>
        <div class="css-k4rf3m"><span class="name">Budi</span></div>
        <p><span data-testid="lblItemUlasan">Mantap banget, suaranya jernih</span></p>
    </article>
    <article class="css-15m2bcr">
        <div data-testid="icnStarRating" aria-label="bintang 2"></div>
        <span class="name">Sari</span>
        <p><span data-testid="lblItemUlasan">Kabelnya cepat rusak</span></p>
    </article>
    <article class="css-15m2bcr">
        <div class="css-k4rf3m"><span class="name">Anon</span></div>
    </article>
    <article class="css-15m2bcr">
        <div data-testid="icnStarRating" aria-label="bintang"></div>
        <p><span data-testid="lblItemUlasan">label rusak</span></p>
    </article>
    <article class="css-15m2bcr"></article>
</body>
</html>`

func newTestExtractor() *Extractor {
	return New(config.DefaultSelectors(), testLogger)
}

func mustParse(t *testing.T, e *Extractor, markup string) *goquery.Document {
	t.Helper()
	doc, err := e.Parse(markup)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestProductMeta(t *testing.T) {
	e := newTestExtractor()
	meta := e.ProductMeta(mustParse(t, e, productHTML))
	if meta.Name != "Headset Gaming X1" {
		t.Errorf("name = %q", meta.Name)
	}
	if meta.Description != "Headset dengan mic jernih." {
		t.Errorf("description = %q", meta.Description)
	}
}

func TestProductMetaSentinels(t *testing.T) {
	e := newTestExtractor()
	meta := e.ProductMeta(mustParse(t, e, "<html><body><p>kosong</p></body></html>"))
	if meta.Name != UnknownProduct {
		t.Errorf("name = %q, want sentinel", meta.Name)
	}
	if meta.Description != NoDescription {
		t.Errorf("description = %q, want sentinel", meta.Description)
	}
}

func TestContainersAndReviews(t *testing.T) {
	e := newTestExtractor()
	containers := e.Containers(mustParse(t, e, productHTML))
	if len(containers) != 5 {
		t.Fatalf("expected 5 containers, got %d", len(containers))
	}

	r, err := e.Review(0, containers[0])
	if err != nil {
		t.Fatalf("review 0: %v", err)
	}
	if r.Author != "Budi" || r.Rating != 5 || r.Text != "Mantap banget, suaranya jernih" {
		t.Errorf("review 0 = %+v", r)
	}

	r, err = e.Review(1, containers[1])
	if err != nil {
		t.Fatalf("review 1: %v", err)
	}
	if r.Author != "Sari" {
		t.Errorf("fallback author selector not used: %q", r.Author)
	}
	if r.Rating != 2 {
		t.Errorf("rating = %d, want 2", r.Rating)
	}

	r, err = e.Review(2, containers[2])
	if err != nil {
		t.Fatalf("review 2: %v", err)
	}
	if r.Rating != 0 {
		t.Errorf("missing rating should be 0, got %d", r.Rating)
	}
	if r.Text != NoReviewText {
		t.Errorf("missing text should be sentinel, got %q", r.Text)
	}

	var extErr *types.ExtractionError
	if _, err := e.Review(3, containers[3]); !errors.As(err, &extErr) {
		t.Errorf("expected ExtractionError for label without numeral, got %v", err)
	} else if extErr.Field != "rating" || extErr.Index != 3 {
		t.Errorf("unexpected error detail: %+v", extErr)
	}

	if _, err := e.Review(4, containers[4]); !errors.As(err, &extErr) {
		t.Errorf("expected ExtractionError for empty container, got %v", err)
	}
}

func TestReviewRatingOutOfRange(t *testing.T) {
	e := newTestExtractor()
	doc := mustParse(t, e, `<article class="css-15m2bcr">
		<div data-testid="icnStarRating" aria-label="bintang 9"></div>
		<p><span data-testid="lblItemUlasan">aneh</span></p></article>`)
	if _, err := e.Review(0, e.Containers(doc)[0]); err == nil {
		t.Error("expected error for rating 9")
	}
}

func TestContainersFallbackSelector(t *testing.T) {
	e := newTestExtractor()
	doc := mustParse(t, e, `<article data-testid="reviewCard"><p><span data-testid="lblItemUlasan">ok</span></p></article>`)
	if n := len(e.Containers(doc)); n != 1 {
		t.Errorf("expected fallback selector to match 1 container, got %d", n)
	}
}

func TestContainersEmpty(t *testing.T) {
	e := newTestExtractor()
	if got := e.Containers(mustParse(t, e, "<html></html>")); len(got) != 0 {
		t.Errorf("expected no containers, got %d", len(got))
	}
}

func TestReviewText(t *testing.T) {
	e := newTestExtractor()
	if got := e.ReviewText(mustParse(t, e, productHTML)); got != "Mantap banget, suaranya jernih" {
		t.Errorf("ReviewText = %q", got)
	}
}

func TestTotalReviewCount(t *testing.T) {
	e := newTestExtractor()
	n, ok := e.TotalReviewCount(productHTML)
	if !ok || n != 1234 {
		t.Errorf("TotalReviewCount = %d, %v; want 1234, true", n, ok)
	}

	if _, ok := e.TotalReviewCount("<html><body></body></html>"); ok {
		t.Error("expected no count when subtitle missing")
	}
}

func TestParseTotal(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"Menampilkan 10 dari 57 ulasan", 57, true},
		{"dari 1,020 ulasan", 1020, true},
		{"dari 2.500.000", 2500000, true},
		{"tidak ada angka", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseTotal(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseTotal(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
