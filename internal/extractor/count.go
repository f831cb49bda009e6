package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// totalRe matches the "dari N" part of "Menampilkan 1-10 dari 1.234 ulasan".
var totalRe = regexp.MustCompile(`dari\s+([\d.,]+)`)

// TotalReviewCount reads the total number of reviews from the sorting
// subtitle. ok is false when the subtitle is missing or has no count.
// Thousand separators ("1.234", "1,234") are stripped.
func (e *Extractor) TotalReviewCount(markup string) (int, bool) {
	if e.sel.TotalCount == "" {
		return 0, false
	}
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		e.logger.Debug("total count: parse failed", "error", err)
		return 0, false
	}
	node, err := htmlquery.Query(doc, e.sel.TotalCount)
	if err != nil {
		e.logger.Warn("invalid total count xpath", "selector", e.sel.TotalCount, "error", err)
		return 0, false
	}
	if node == nil {
		return 0, false
	}
	return parseTotal(htmlquery.InnerText(node))
}

func parseTotal(text string) (int, bool) {
	m := totalRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	digits := strings.NewReplacer(".", "", ",", "").Replace(m[1])
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
