package sentiment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/quickshop-id/quickshop/internal/observability"
	"github.com/quickshop-id/quickshop/internal/pipeline"
	"github.com/quickshop-id/quickshop/internal/types"
)

// Fallback policies for an unavailable model.
const (
	FallbackFail    = "fail"
	FallbackNeutral = "neutral"
)

// Result is the outcome of analysing one batch of reviews.
type Result struct {
	Reviews  []*types.Review
	Counts   types.SentimentCounts
	Degraded bool
}

// Analyzer enriches reviews with preprocessed text, lexicon counts and a
// corrected sentiment label.
type Analyzer struct {
	pre      *Preprocessor
	lexicon  *Lexicon
	service  *Service
	fallback string
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewAnalyzer creates an Analyzer. fallback is FallbackFail or
// FallbackNeutral.
func NewAnalyzer(pre *Preprocessor, service *Service, fallback string, metrics *observability.Metrics, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		pre:      pre,
		lexicon:  NewLexicon(),
		service:  service,
		fallback: fallback,
		metrics:  metrics,
		logger:   logger.With("component", "analyzer"),
	}
}

// Analyze labels every review in place and returns them with their counts.
// Reviews with identical raw text are analysed once. Under FallbackFail an
// unavailable model aborts the batch with a *types.ModelUnavailableError.
func (a *Analyzer) Analyze(ctx context.Context, reviews []*types.Review) (*Result, error) {
	if err := a.Ready(ctx); err != nil {
		return nil, err
	}

	degraded := false
	p := pipeline.New(a.logger)
	p.Use(&pipeline.TrimMiddleware{})
	p.Use(&pipeline.RequiredTextMiddleware{})
	p.Use(pipeline.NewDedupMiddleware())
	p.Use(&pipeline.RatingClampMiddleware{})
	p.Use(a.preprocessStage())
	p.Use(a.lexiconStage())
	p.Use(a.classifyStage(&degraded))

	out, err := p.ProcessAll(ctx, reviews)
	if err != nil {
		var perr *types.PipelineError
		if errors.As(err, &perr) && errors.Is(perr.Err, types.ErrModelUnavailable) {
			return nil, perr.Err
		}
		return nil, err
	}

	res := &Result{Reviews: out, Counts: CountBySentiment(out), Degraded: degraded}
	a.logger.Info("analysis complete",
		"reviews", len(out),
		"positive", res.Counts.Positive,
		"neutral", res.Counts.Neutral,
		"negative", res.Counts.Negative,
		"degraded", degraded,
	)
	return res, nil
}

// Ready loads the model when an unavailable model would abort analysis.
// Under FallbackNeutral it always returns nil.
func (a *Analyzer) Ready(ctx context.Context) error {
	if a.fallback == FallbackNeutral {
		return nil
	}
	return a.service.Load(ctx)
}

func (a *Analyzer) preprocessStage() pipeline.Middleware {
	return pipeline.Func{Label: "preprocess", Fn: func(_ context.Context, r *types.Review) (*types.Review, error) {
		r.Preprocessed = a.pre.Process(r.Text)
		return r, nil
	}}
}

func (a *Analyzer) lexiconStage() pipeline.Middleware {
	return pipeline.Func{Label: "lexicon", Fn: func(_ context.Context, r *types.Review) (*types.Review, error) {
		r.PositiveCount, r.NegativeCount = a.lexicon.Count(r.Preprocessed)
		return r, nil
	}}
}

func (a *Analyzer) classifyStage(degraded *bool) pipeline.Middleware {
	return pipeline.Func{Label: "classify", Fn: func(ctx context.Context, r *types.Review) (*types.Review, error) {
		pred, err := a.service.Classify(ctx, r.Preprocessed)
		if err != nil {
			if a.fallback != FallbackNeutral {
				return nil, err
			}
			if !*degraded {
				a.logger.Warn("classifier unavailable, using neutral fallback", "error", err)
			}
			*degraded = true
			pred = Prediction{Class: types.Neutral}
		}

		r.Sentiment = Correct(pred.Class, r.Rating, r.PositiveCount, r.NegativeCount)
		r.Confidence = pred.Confidence
		a.metrics.IncLabel(r.Sentiment.String())
		return r, nil
	}}
}
