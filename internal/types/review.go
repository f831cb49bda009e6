package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Label is a three-class sentiment label. The numeric values match the
// classifier's output indices.
type Label int

const (
	Negative Label = 0
	Neutral  Label = 1
	Positive Label = 2
)

// String returns the storage name of the label.
func (l Label) String() string {
	switch l {
	case Negative:
		return "Negatif"
	case Neutral:
		return "Netral"
	case Positive:
		return "Positif"
	default:
		return "Unknown"
	}
}

// Valid reports whether l is one of the three defined labels.
func (l Label) Valid() bool { return l >= Negative && l <= Positive }

// ParseLabel accepts both the stored Indonesian names and the English ones.
func ParseLabel(s string) (Label, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "negatif", "negative":
		return Negative, true
	case "netral", "neutral":
		return Neutral, true
	case "positif", "positive":
		return Positive, true
	}
	return Neutral, false
}

// MarshalText encodes the label by its storage name, so JSON, BSON and CSV
// exports agree.
func (l Label) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid sentiment label %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText accepts a label name or a class index.
func (l *Label) UnmarshalText(text []byte) error {
	if parsed, ok := ParseLabel(string(text)); ok {
		*l = parsed
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(text)))
	if err != nil || !Label(n).Valid() {
		return fmt.Errorf("unknown sentiment label %q", text)
	}
	*l = Label(n)
	return nil
}

// UnmarshalJSON also takes the bare class index older exports wrote.
func (l *Label) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	return l.UnmarshalText([]byte(s))
}

// MarshalBSONValue stores the label as a string.
func (l Label) MarshalBSONValue() (bsontype.Type, []byte, error) {
	text, err := l.MarshalText()
	if err != nil {
		return 0, nil, err
	}
	return bson.MarshalValue(string(text))
}

// UnmarshalBSONValue reads a string label or a numeric class index.
func (l *Label) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	if s, ok := raw.StringValueOK(); ok {
		return l.UnmarshalText([]byte(s))
	}
	if n, ok := raw.Int32OK(); ok {
		return l.UnmarshalText([]byte(strconv.Itoa(int(n))))
	}
	if n, ok := raw.Int64OK(); ok {
		return l.UnmarshalText([]byte(strconv.FormatInt(n, 10)))
	}
	return fmt.Errorf("unexpected BSON type %s for sentiment label", t)
}

// Review is a single scraped product review. The extractor fills Author,
// Rating and Text; the enrichment pipeline fills the rest.
type Review struct {
	Author        string  `json:"author" bson:"author"`
	Rating        int     `json:"rating" bson:"rating"`
	Text          string  `json:"text" bson:"text"`
	Sentiment     Label   `json:"sentiment" bson:"sentiment"`
	Preprocessed  string  `json:"preprocessed" bson:"preprocessed"`
	PositiveCount int     `json:"positive_count" bson:"positive_count"`
	NegativeCount int     `json:"negative_count" bson:"negative_count"`
	Confidence    float64 `json:"confidence" bson:"confidence"`
}

// HasRating reports whether the star rating was found. Zero means unknown.
func (r *Review) HasRating() bool { return r.Rating >= 1 && r.Rating <= 5 }

// SentimentCounts tallies reviews per label.
type SentimentCounts struct {
	Positive int `json:"positive" bson:"positive"`
	Neutral  int `json:"neutral" bson:"neutral"`
	Negative int `json:"negative" bson:"negative"`
}

// Total returns the number of counted reviews.
func (c SentimentCounts) Total() int { return c.Positive + c.Neutral + c.Negative }

// Add increments the bucket for l.
func (c *SentimentCounts) Add(l Label) {
	switch l {
	case Positive:
		c.Positive++
	case Negative:
		c.Negative++
	default:
		c.Neutral++
	}
}

// WordCount is one row of the word-frequency table.
type WordCount struct {
	Word  string `json:"word" bson:"word"`
	Count int    `json:"count" bson:"count"`
}

// ScrapeResult is what the scraper hands back after a successful run.
// MaxReviews is the cap the scrape ran with.
type ScrapeResult struct {
	URL            string
	ProductName    string
	Description    string
	Reviews        []*Review
	Pages          int
	TotalAvailable int
	MaxReviews     int
}

// Snapshot is the fully analysed state of one product. MaxReviews and
// TotalAvailable come from the scrape and are zero for reanalysed exports.
type Snapshot struct {
	URL             string          `json:"url" bson:"url"`
	ProductName     string          `json:"product_name" bson:"product_name"`
	Description     string          `json:"description" bson:"description"`
	Reviews         []*Review       `json:"reviews" bson:"reviews"`
	Counts          SentimentCounts `json:"counts" bson:"counts"`
	Summary         string          `json:"summary" bson:"summary"`
	WordFrequencies []WordCount     `json:"word_frequencies,omitempty" bson:"word_frequencies,omitempty"`
	WordcloudImage  []byte          `json:"wordcloud_image,omitempty" bson:"wordcloud_image,omitempty"`
	Conclusion      string          `json:"conclusion" bson:"conclusion"`
	Degraded        bool            `json:"degraded" bson:"degraded"`
	ScrapedAt       time.Time       `json:"scraped_at" bson:"scraped_at"`
	MaxReviews      int             `json:"max_reviews,omitempty" bson:"max_reviews,omitempty"`
	TotalAvailable  int             `json:"total_available,omitempty" bson:"total_available,omitempty"`
}

// Texts returns the raw review texts in page order.
func (s *Snapshot) Texts() []string {
	out := make([]string, len(s.Reviews))
	for i, r := range s.Reviews {
		out[i] = r.Text
	}
	return out
}
