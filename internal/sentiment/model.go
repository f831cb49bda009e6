package sentiment

import (
	"context"
	"strconv"
	"strings"

	"github.com/quickshop-id/quickshop/internal/types"
)

// Prediction is the classifier's arg-max class and its probability.
type Prediction struct {
	Class      types.Label
	Confidence float64
}

// Model classifies one preprocessed text.
type Model interface {
	Predict(ctx context.Context, text string) (Prediction, error)
	Close() error
}

// Loader constructs a Model. It is called at most once per Service.
type Loader func(ctx context.Context) (Model, error)

// labelFromName maps a model output label to a class. It accepts the
// English and Indonesian names and the generic "LABEL_n" form.
func labelFromName(name string) (types.Label, bool) {
	if l, ok := types.ParseLabel(name); ok {
		return l, true
	}
	upper := strings.ToUpper(strings.TrimSpace(name))
	if rest, ok := strings.CutPrefix(upper, "LABEL_"); ok {
		n, err := strconv.Atoi(rest)
		if err == nil && types.Label(n).Valid() {
			return types.Label(n), true
		}
	}
	return types.Neutral, false
}
