package sentiment

import (
	"context"
	"errors"
	"testing"

	"github.com/quickshop-id/quickshop/internal/types"
)

func newTestAnalyzer(model Model, loadErr error, fallback string) *Analyzer {
	loads := 0
	svc := NewService("fake", countingLoader(model, loadErr, &loads), 0, nil, testLogger)
	return NewAnalyzer(NewPreprocessor(false, "", testLogger), svc, fallback, nil, testLogger)
}

func TestAnalyze(t *testing.T) {
	model := &fakeModel{byText: map[string]Prediction{
		"barang bagus banget":  {Class: types.Positive, Confidence: 0.95},
		"rusak tidak berfungsi": {Class: types.Negative, Confidence: 0.9},
		"biasa saja":           {Class: types.Negative, Confidence: 0.6},
	}}
	a := newTestAnalyzer(model, nil, FallbackFail)

	reviews := []*types.Review{
		{Author: "A", Rating: 5, Text: "Barang bagus bgt!!!"},
		{Author: "B", Rating: 1, Text: "  Rusak, tdk berfungsi  "},
		{Author: "C", Rating: 3, Text: "biasa saja"},
		{Author: "D", Rating: 5, Text: "Barang bagus bgt!!!"},
	}

	res, err := a.Analyze(context.Background(), reviews)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(res.Reviews) != 3 {
		t.Fatalf("got %d reviews, want 3 after dedup", len(res.Reviews))
	}

	want := []types.Label{types.Positive, types.Negative, types.Neutral}
	for i, r := range res.Reviews {
		if r.Sentiment != want[i] {
			t.Errorf("review %d (%q): sentiment %v, want %v", i, r.Text, r.Sentiment, want[i])
		}
	}
	if res.Reviews[0].Preprocessed != "barang bagus banget" {
		t.Errorf("preprocessed = %q", res.Reviews[0].Preprocessed)
	}
	if res.Reviews[0].PositiveCount != 1 {
		t.Errorf("positive count = %d", res.Reviews[0].PositiveCount)
	}
	if res.Reviews[1].Text != "Rusak, tdk berfungsi" {
		t.Errorf("text not trimmed: %q", res.Reviews[1].Text)
	}
	if res.Counts != (types.SentimentCounts{Positive: 1, Neutral: 1, Negative: 1}) {
		t.Errorf("counts = %+v", res.Counts)
	}
	if res.Degraded {
		t.Error("result should not be degraded")
	}
}

func TestAnalyzeFailsFastWhenModelMissing(t *testing.T) {
	a := newTestAnalyzer(nil, errors.New("missing"), FallbackFail)

	_, err := a.Analyze(context.Background(), []*types.Review{{Rating: 5, Text: "bagus"}})
	var mu *types.ModelUnavailableError
	if !errors.As(err, &mu) {
		t.Fatalf("expected ModelUnavailableError, got %v", err)
	}
}

func TestAnalyzeNeutralFallback(t *testing.T) {
	a := newTestAnalyzer(nil, errors.New("missing"), FallbackNeutral)

	reviews := []*types.Review{
		{Rating: 5, Text: "oke"},
		{Rating: 1, Text: "jelek"},
		{Rating: 3, Text: "lumayan"},
	}
	res, err := a.Analyze(context.Background(), reviews)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !res.Degraded {
		t.Error("expected degraded result")
	}

	want := []types.Label{types.Positive, types.Negative, types.Neutral}
	for i, r := range res.Reviews {
		if r.Sentiment != want[i] {
			t.Errorf("review %d: sentiment %v, want %v", i, r.Sentiment, want[i])
		}
		if r.Confidence != 0 {
			t.Errorf("review %d: confidence %v, want 0", i, r.Confidence)
		}
	}
}

func TestAnalyzeDropsEmptyText(t *testing.T) {
	model := &fakeModel{byText: map[string]Prediction{
		"mantap": {Class: types.Positive, Confidence: 0.9},
	}}
	a := newTestAnalyzer(model, nil, FallbackFail)

	res, err := a.Analyze(context.Background(), []*types.Review{
		{Author: "A", Rating: 5, Text: "Mantap"},
		{Author: "B", Rating: 4, Text: "   "},
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(res.Reviews) != 1 || res.Reviews[0].Author != "A" {
		t.Fatalf("expected only the review with text, got %+v", res.Reviews)
	}
	if res.Counts.Total() != 1 {
		t.Errorf("counts = %+v", res.Counts)
	}
}

func TestReady(t *testing.T) {
	loads := 0
	svc := NewService("fake", countingLoader(nil, errors.New("missing"), &loads), 0, nil, testLogger)

	neutral := NewAnalyzer(NewPreprocessor(false, "", testLogger), svc, FallbackNeutral, nil, testLogger)
	if err := neutral.Ready(context.Background()); err != nil {
		t.Errorf("neutral fallback should be ready, got %v", err)
	}
	if loads != 0 {
		t.Errorf("neutral Ready loaded the model %d times", loads)
	}

	strict := NewAnalyzer(NewPreprocessor(false, "", testLogger), svc, FallbackFail, nil, testLogger)
	if err := strict.Ready(context.Background()); !errors.Is(err, types.ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
}
