// Package pipeline chains review enrichment stages.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/quickshop-id/quickshop/internal/types"
)

// Middleware processes a review and returns the (possibly modified) review.
// Return nil to drop the review from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a review. Return nil to drop it.
	Process(ctx context.Context, r *types.Review) (*types.Review, error)
}

// Func adapts a function to Middleware.
type Func struct {
	Label string
	Fn    func(ctx context.Context, r *types.Review) (*types.Review, error)
}

func (f Func) Name() string { return f.Label }

func (f Func) Process(ctx context.Context, r *types.Review) (*types.Review, error) {
	return f.Fn(ctx, r)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the review through all middleware in order.
func (p *Pipeline) Process(ctx context.Context, r *types.Review) (*types.Review, error) {
	current := r

	for _, mw := range p.middlewares {
		result, err := mw.Process(ctx, current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage:  mw.Name(),
				Review: current,
				Err:    err,
			}
		}
		if result == nil {
			p.logger.Debug("review dropped", "stage", mw.Name(), "author", r.Author)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// ProcessAll runs every review through the chain, keeping order and
// omitting dropped reviews. The first error aborts the batch.
func (p *Pipeline) ProcessAll(ctx context.Context, reviews []*types.Review) ([]*types.Review, error) {
	out := make([]*types.Review, 0, len(reviews))
	for _, r := range reviews {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := p.Process(ctx, r)
		if err != nil {
			return nil, err
		}
		if result != nil {
			out = append(out, result)
		}
	}
	return out, nil
}
