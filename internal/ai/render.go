package ai

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/russross/blackfriday/v2"
)

// PlainText turns the model's markdown into plain terminal text. Block
// elements become separate lines and list items get a "- " prefix.
func PlainText(markdown string) string {
	html := blackfriday.Run([]byte(markdown), blackfriday.WithExtensions(blackfriday.CommonExtensions))

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return strings.TrimSpace(markdown)
	}

	var lines []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, pre").Each(func(_ int, s *goquery.Selection) {
		// Paragraphs inside list items are emitted with the item.
		if goquery.NodeName(s) == "p" && s.ParentsFiltered("li").Length() > 0 {
			return
		}
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		if goquery.NodeName(s) == "li" {
			text = "- " + strings.Join(strings.Fields(text), " ")
		}
		lines = append(lines, text)
	})
	if len(lines) == 0 {
		return strings.TrimSpace(doc.Text())
	}
	return strings.Join(lines, "\n")
}
