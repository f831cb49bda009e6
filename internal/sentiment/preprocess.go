package sentiment

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"unicode"
)

//go:embed stopwords_id.txt
var defaultStopwords string

// emojiWords maps emoji to Indonesian mood words. Order matters for
// multi-rune emoji such as ❤️.
var emojiWords = []struct{ emoji, word string }{
	{"😍", "senang"}, {"❤️", "cinta"}, {"💔", "sedih"}, {"😡", "marah"}, {"😢", "sedih"},
	{"😊", "senang"}, {"😁", "senang"}, {"😭", "sedih"}, {"👍", "bagus"}, {"👎", "jelek"},
	{"🥰", "senang"}, {"💖", "cinta"}, {"💗", "cinta"}, {"💕", "cinta"}, {"💞", "cinta"},
	{"😞", "kecewa"}, {"😔", "kecewa"}, {"😃", "senang"}, {"🤗", "senang"}, {"😎", "keren"},
}

// slangWords expands informal abbreviations. Matching is on whole words.
var slangWords = map[string]string{
	"gk":    "tidak",
	"tdk":   "tidak",
	"ga":    "tidak",
	"gak":   "tidak",
	"bgt":   "banget",
	"bgtt":  "banget",
	"bgttt": "banget",
	"ok":    "oke",
	"yg":    "yang",
	"dgn":   "dengan",
	"krn":   "karena",
	"sdh":   "sudah",
	"blm":   "belum",
}

var slangRe = buildSlangRe()

func buildSlangRe() *regexp.Regexp {
	keys := make([]string, 0, len(slangWords))
	for k := range slangWords {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	return regexp.MustCompile(`\b(` + strings.Join(keys, "|") + `)\b`)
}

// Preprocessor normalises review text before lexicon counting and
// classification. Process is pure and safe for concurrent use.
type Preprocessor struct {
	stopwords map[string]struct{}
}

// NewPreprocessor builds a preprocessor. With removeStopwords false no
// words are removed. A stopwordsFile that cannot be read is logged and the
// embedded list is used instead.
func NewPreprocessor(removeStopwords bool, stopwordsFile string, logger *slog.Logger) *Preprocessor {
	p := &Preprocessor{}
	if !removeStopwords {
		return p
	}

	if stopwordsFile != "" {
		words, err := loadStopwordsFile(stopwordsFile)
		if err == nil {
			p.stopwords = words
			return p
		}
		logger.Warn("couldn't load stopwords, using built-in list", "path", stopwordsFile, "error", err)
	}
	words, err := readStopwords(strings.NewReader(defaultStopwords))
	if err != nil {
		logger.Warn("couldn't parse built-in stopwords, skipping removal", "error", err)
		return p
	}
	p.stopwords = words
	return p
}

func loadStopwordsFile(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readStopwords(f)
}

func readStopwords(r io.Reader) (map[string]struct{}, error) {
	words := make(map[string]struct{})
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words[strings.ToLower(line)] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stopwords: %w", err)
	}
	return words, nil
}

// Process lowercases, replaces emoji, collapses stretched letters, expands
// slang, strips punctuation, and removes stopwords.
func (p *Preprocessor) Process(raw string) string {
	text := strings.ToLower(raw)
	text = replaceEmoji(text)
	// Collapse first so stretched slang ("okkk") is expanded too.
	text = collapseRepeats(text)
	text = slangRe.ReplaceAllStringFunc(text, func(w string) string { return slangWords[w] })
	text = stripPunctuation(text)

	fields := strings.Fields(text)
	if len(p.stopwords) > 0 {
		kept := fields[:0]
		for _, w := range fields {
			if _, stop := p.stopwords[w]; !stop {
				kept = append(kept, w)
			}
		}
		fields = kept
	}
	return strings.Join(fields, " ")
}

func replaceEmoji(text string) string {
	for _, e := range emojiWords {
		text = strings.ReplaceAll(text, e.emoji, " "+e.word+" ")
	}
	return text
}

// collapseRepeats turns runs of three or more identical runes into one.
func collapseRepeats(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(runes); {
		j := i
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		n := j - i
		if n >= 3 {
			n = 1
		}
		for k := 0; k < n; k++ {
			b.WriteRune(runes[i])
		}
		i = j
	}
	return b.String()
}

// stripPunctuation replaces every rune that is not a letter, digit,
// underscore or whitespace with a space.
func stripPunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, text)
}
