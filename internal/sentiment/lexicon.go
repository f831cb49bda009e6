package sentiment

import "strings"

// PositiveWords and NegativeWords are the opinion lexicon.
var (
	PositiveWords = []string{
		"mantap", "bagus", "jernih", "nyaman", "original", "premium",
		"cepat", "murah", "berkualitas", "aman", "good", "good quality",
		"terimakasih", "terima kasih", "memuaskan", "puas", "recommended",
		"worth it", "cocok", "enak", "awet", "tahan lama", "kuat",
	}
	NegativeWords = []string{
		"buruk", "jelek", "rusak", "lemot", "cacat", "lambat", "kurang",
		"tidak bagus", "gagal", "kecewa", "mahal", "kemahalan", "kasar",
		"bocor", "palsu", "pecah", "suram", "rugi", "tidak worth it",
	}
)

// Lexicon counts opinion words by plain substring containment. An entry
// matches anywhere in the text, including inside longer words, and each
// entry counts at most once.
type Lexicon struct {
	positive []string
	negative []string
}

// NewLexicon returns the default lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{positive: PositiveWords, negative: NegativeWords}
}

// Count returns how many positive and negative entries occur in text.
func (l *Lexicon) Count(text string) (positive, negative int) {
	text = strings.ToLower(text)
	for _, w := range l.positive {
		if strings.Contains(text, w) {
			positive++
		}
	}
	for _, w := range l.negative {
		if strings.Contains(text, w) {
			negative++
		}
	}
	return positive, negative
}
