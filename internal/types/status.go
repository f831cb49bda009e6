package types

// StatusEvent is a progress notification emitted during a scrape.
// Concrete values are Message and Progress.
type StatusEvent interface {
	status()
}

// Message is a human readable status line.
type Message struct {
	Text string
}

// Progress is the fraction of the target review count collected so far,
// always within [0, 1].
type Progress struct {
	Fraction float64
}

func (Message) status()  {}
func (Progress) status() {}

// Reporter receives status events. A nil Reporter discards them.
type Reporter func(StatusEvent)

// Say emits a Message.
func (r Reporter) Say(text string) {
	if r != nil {
		r(Message{Text: text})
	}
}

// Advance emits a Progress clamped to [0, 1].
func (r Reporter) Advance(fraction float64) {
	if r == nil {
		return
	}
	if fraction > 1 {
		fraction = 1
	}
	if fraction < 0 {
		fraction = 0
	}
	r(Progress{Fraction: fraction})
}
