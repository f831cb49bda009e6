package sentiment

import (
	"context"
	"math"

	"github.com/jonreiter/govader"

	"github.com/quickshop-id/quickshop/internal/types"
)

// vaderThreshold splits the compound score into three classes.
const vaderThreshold = 0.20

// VaderModel is a lexicon-based offline model. It needs no download and is
// mostly useful as a fallback; its lexicon is English.
type VaderModel struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderModel creates a VaderModel.
func NewVaderModel() *VaderModel {
	return &VaderModel{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// VaderLoader returns a Loader for the vader backend.
func VaderLoader() Loader {
	return func(context.Context) (Model, error) { return NewVaderModel(), nil }
}

func (m *VaderModel) Predict(_ context.Context, text string) (Prediction, error) {
	score := m.analyzer.PolarityScores(text).Compound
	switch {
	case score >= vaderThreshold:
		return Prediction{Class: types.Positive, Confidence: score}, nil
	case score <= -vaderThreshold:
		return Prediction{Class: types.Negative, Confidence: -score}, nil
	default:
		return Prediction{Class: types.Neutral, Confidence: 1 - math.Abs(score)}, nil
	}
}

func (m *VaderModel) Close() error { return nil }
