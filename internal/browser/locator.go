package browser

import "strings"

// Locator identifies an element on the page. Selector is CSS unless it
// starts with "/" or "(", in which case it is XPath. Child, when set, is a
// CSS selector resolved inside the matched element.
type Locator struct {
	Selector string
	Child    string
}

// CSS returns a Locator for a plain CSS selector.
func CSS(selector string) Locator { return Locator{Selector: selector} }

// IsXPath reports whether the selector is an XPath expression.
func (l Locator) IsXPath() bool {
	s := strings.TrimSpace(l.Selector)
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, "(")
}

func (l Locator) String() string {
	if l.Child != "" {
		return l.Selector + " >> " + l.Child
	}
	return l.Selector
}

// Outcome classifies the result of an element probe.
type Outcome int

const (
	Found Outcome = iota
	NotFound
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	default:
		return "failed"
	}
}

// Probe is the result of looking up or acting on an element. Absence is a
// value, not an error; Err is set only when Outcome is Failed.
type Probe struct {
	Outcome Outcome
	Err     error
}

// OK reports whether the element was found and the action succeeded.
func (p Probe) OK() bool { return p.Outcome == Found }
