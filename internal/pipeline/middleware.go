package pipeline

import (
	"context"
	"strings"
	"sync"

	"github.com/quickshop-id/quickshop/internal/types"
)

// --- Built-in Middleware ---

// TrimMiddleware trims whitespace from the author and text.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(_ context.Context, r *types.Review) (*types.Review, error) {
	r.Author = strings.TrimSpace(r.Author)
	r.Text = strings.TrimSpace(r.Text)
	return r, nil
}

// RequiredTextMiddleware drops reviews with no text.
type RequiredTextMiddleware struct{}

func (m *RequiredTextMiddleware) Name() string { return "required_text" }

func (m *RequiredTextMiddleware) Process(_ context.Context, r *types.Review) (*types.Review, error) {
	if strings.TrimSpace(r.Text) == "" {
		return nil, nil
	}
	return r, nil
}

// DedupMiddleware drops reviews whose raw text was already seen.
type DedupMiddleware struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDedupMiddleware() *DedupMiddleware {
	return &DedupMiddleware{seen: make(map[string]struct{})}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(_ context.Context, r *types.Review) (*types.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.seen[r.Text]; exists {
		return nil, nil
	}
	m.seen[r.Text] = struct{}{}
	return r, nil
}

// RatingClampMiddleware zeroes ratings outside 1..5 so they count as unknown.
type RatingClampMiddleware struct{}

func (m *RatingClampMiddleware) Name() string { return "rating_clamp" }

func (m *RatingClampMiddleware) Process(_ context.Context, r *types.Review) (*types.Review, error) {
	if !r.HasRating() {
		r.Rating = 0
	}
	return r, nil
}
