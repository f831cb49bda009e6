package scraper

// textSet remembers raw review texts seen during one scrape. Matching is
// exact; no normalisation is applied.
type textSet struct {
	seen map[string]struct{}
}

func newTextSet(capacity int) *textSet {
	return &textSet{seen: make(map[string]struct{}, capacity)}
}

// Add records text and reports whether it was new.
func (s *textSet) Add(text string) bool {
	if _, ok := s.seen[text]; ok {
		return false
	}
	s.seen[text] = struct{}{}
	return true
}
