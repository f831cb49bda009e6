// Package extractor turns rendered product page markup into reviews and
// product metadata.
package extractor

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/quickshop-id/quickshop/internal/config"
	"github.com/quickshop-id/quickshop/internal/types"
)

// Sentinels used when a field is missing from the page.
const (
	UnknownProduct = "Produk Tidak Diketahui"
	NoDescription  = "Deskripsi tidak ditemukan"
	UnknownAuthor  = "Unknown"
	NoReviewText   = "Tidak ada ulasan"
)

var numeralRe = regexp.MustCompile(`\d+`)

// ProductMeta is the product name and description.
type ProductMeta struct {
	Name        string
	Description string
}

// Extractor reads pages using a fixed set of selectors.
type Extractor struct {
	sel    config.SelectorConfig
	logger *slog.Logger
}

// New creates an Extractor.
func New(sel config.SelectorConfig, logger *slog.Logger) *Extractor {
	return &Extractor{
		sel:    sel,
		logger: logger.With("component", "extractor"),
	}
}

// Parse builds a goquery document from markup.
func (e *Extractor) Parse(markup string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return doc, nil
}

// ProductMeta returns the product name and description, substituting
// sentinels for anything missing. It never fails.
func (e *Extractor) ProductMeta(doc *goquery.Document) ProductMeta {
	meta := ProductMeta{
		Name:        firstText(doc.Selection, e.sel.ProductName),
		Description: firstText(doc.Selection, e.sel.Description),
	}
	if meta.Name == "" {
		meta.Name = UnknownProduct
	}
	if meta.Description == "" {
		meta.Description = NoDescription
	}
	return meta
}

// Containers returns the review article nodes. The configured selectors are
// tried in order and the first non-empty match wins. An empty result means
// the page has no reviews.
func (e *Extractor) Containers(doc *goquery.Document) []*goquery.Selection {
	for _, s := range e.sel.Containers {
		found := doc.Find(s)
		if found.Length() == 0 {
			continue
		}
		out := make([]*goquery.Selection, 0, found.Length())
		found.Each(func(_ int, c *goquery.Selection) {
			out = append(out, c)
		})
		return out
	}
	return nil
}

// Review reads one container. It returns an ExtractionError when the
// container carries nothing usable or its star label is malformed; callers
// skip such containers.
func (e *Extractor) Review(index int, c *goquery.Selection) (*types.Review, error) {
	if c == nil || c.Length() == 0 {
		return nil, &types.ExtractionError{Index: index, Field: "container", Reason: "empty selection"}
	}
	if strings.TrimSpace(c.Text()) == "" && c.Find(e.sel.Rating).Length() == 0 {
		return nil, &types.ExtractionError{Index: index, Field: "container", Reason: "no content"}
	}

	rating, err := e.rating(c)
	if err != nil {
		return nil, &types.ExtractionError{Index: index, Field: "rating", Reason: err.Error()}
	}

	r := &types.Review{
		Author: UnknownAuthor,
		Rating: rating,
		Text:   NoReviewText,
	}
	for _, s := range e.sel.Author {
		if name := firstText(c, s); name != "" {
			r.Author = name
			break
		}
	}
	if text := firstText(c, e.sel.ReviewText); text != "" {
		r.Text = text
	}
	return r, nil
}

// rating parses the first numeral of the star widget's aria-label. A missing
// widget or label yields 0.
func (e *Extractor) rating(c *goquery.Selection) (int, error) {
	star := c.Find(e.sel.Rating).First()
	if star.Length() == 0 {
		return 0, nil
	}
	label, ok := star.Attr("aria-label")
	if !ok || strings.TrimSpace(label) == "" {
		return 0, nil
	}
	num := numeralRe.FindString(label)
	if num == "" {
		return 0, fmt.Errorf("no numeral in label %q", label)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 || n > 5 {
		return 0, fmt.Errorf("rating %q out of range", num)
	}
	return n, nil
}

// ReviewText returns the text of the first review on the page, or "".
// The scraper uses it to detect that a new page has rendered.
func (e *Extractor) ReviewText(doc *goquery.Document) string {
	for _, c := range e.Containers(doc) {
		if t := firstText(c, e.sel.ReviewText); t != "" {
			return t
		}
	}
	return ""
}

func firstText(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(s.Find(selector).First().Text())
}
