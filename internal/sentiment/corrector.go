package sentiment

import "github.com/quickshop-id/quickshop/internal/types"

// Correct adjusts the model's raw label using the star rating and lexicon
// counts. The rules are checked in order and the first match wins; the
// rating==3 rules must stay ahead of the broader rating checks. A rating
// of 0 (unknown) never satisfies a rating condition.
func Correct(raw types.Label, rating, positive, negative int) types.Label {
	high := rating == 4 || rating == 5
	low := rating == 1 || rating == 2

	switch {
	case raw == types.Negative && rating == 3:
		return types.Neutral
	case raw == types.Positive && rating == 3:
		return types.Neutral
	case raw == types.Negative && (high || positive > negative):
		return types.Neutral
	case raw == types.Positive && (low || negative > positive):
		return types.Neutral
	case raw == types.Neutral && (high || positive > negative):
		return types.Positive
	case raw == types.Neutral && (low || negative > positive):
		return types.Negative
	}
	return raw
}
