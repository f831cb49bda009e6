package scraper

// State is a step of the scrape state machine.
type State int

const (
	StateInit State = iota
	StatePageLoaded
	StatePopupHandled
	StateContentExpanded
	StateMetaExtracted
	StatePagingReviews
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StatePageLoaded:
		return "page_loaded"
	case StatePopupHandled:
		return "popup_handled"
	case StateContentExpanded:
		return "content_expanded"
	case StateMetaExtracted:
		return "meta_extracted"
	case StatePagingReviews:
		return "paging_reviews"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
