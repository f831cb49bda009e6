package sentiment

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/quickshop-id/quickshop/internal/types"
)

// CountBySentiment tallies reviews per label.
func CountBySentiment(reviews []*types.Review) types.SentimentCounts {
	var c types.SentimentCounts
	for _, r := range reviews {
		c.Add(r.Sentiment)
	}
	return c
}

// CountLabels tallies stored label names. Unknown names are ignored.
func CountLabels(labels []string) types.SentimentCounts {
	var c types.SentimentCounts
	for _, s := range labels {
		if l, ok := types.ParseLabel(s); ok {
			c.Add(l)
		}
	}
	return c
}

// Summarize renders the counts as the fixed three-line summary.
func Summarize(c types.SentimentCounts) string {
	return fmt.Sprintf("✅ **%d** ulasan positif\n🟡 **%d** ulasan netral\n❌ **%d** ulasan negatif",
		c.Positive, c.Neutral, c.Negative)
}

// Percentages holds each label's share of the total, rounded to one
// decimal place.
type Percentages struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// SharePercentages computes the label shares. A zero total yields zeros.
func SharePercentages(c types.SentimentCounts) Percentages {
	total := c.Total()
	if total == 0 {
		return Percentages{}
	}
	pct := func(n int) float64 {
		return math.Round(float64(n)*1000/float64(total)) / 10
	}
	return Percentages{
		Positive: pct(c.Positive),
		Neutral:  pct(c.Neutral),
		Negative: pct(c.Negative),
	}
}

// TopWords returns the n most frequent words across texts, ties broken
// alphabetically. Texts are expected to be preprocessed.
func TopWords(texts []string, n int) []types.WordCount {
	freq := make(map[string]int)
	for _, t := range texts {
		for _, w := range strings.Fields(t) {
			if len([]rune(w)) < 2 {
				continue
			}
			freq[w]++
		}
	}

	out := make([]types.WordCount, 0, len(freq))
	for w, c := range freq {
		out = append(out, types.WordCount{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
