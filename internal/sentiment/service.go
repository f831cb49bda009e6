package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/quickshop-id/quickshop/internal/observability"
	"github.com/quickshop-id/quickshop/internal/types"
)

// Service owns the classifier model. The model is loaded on first use and
// at most once; a load failure is remembered and returned on every later
// call. Predict calls are serialised.
type Service struct {
	backend string
	load    Loader

	once    sync.Once
	model   Model
	loadErr error

	mu      sync.Mutex
	cache   *lru.Cache[string, Prediction]
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewService creates a Service. cacheSize 0 disables result caching.
func NewService(backend string, load Loader, cacheSize int, metrics *observability.Metrics, logger *slog.Logger) *Service {
	s := &Service{
		backend: backend,
		load:    load,
		metrics: metrics,
		logger:  logger.With("component", "sentiment_service", "backend", backend),
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, Prediction](cacheSize)
		if err != nil {
			s.logger.Warn("classification cache disabled", "error", err)
		} else {
			s.cache = cache
		}
	}
	return s
}

// Load initialises the model if it has not been attempted yet and returns
// the availability error, if any.
func (s *Service) Load(ctx context.Context) error {
	s.once.Do(func() {
		s.logger.Info("loading sentiment model")
		m, err := s.load(ctx)
		if err != nil {
			s.loadErr = &types.ModelUnavailableError{Backend: s.backend, Err: err}
			s.logger.Error("sentiment model unavailable", "error", err)
			return
		}
		if m == nil {
			s.loadErr = &types.ModelUnavailableError{Backend: s.backend, Err: errors.New("loader returned no model")}
			return
		}
		s.model = m
		s.logger.Info("sentiment model loaded")
	})
	return s.loadErr
}

// Available reports whether the model loaded. It triggers loading.
func (s *Service) Available(ctx context.Context) bool {
	return s.Load(ctx) == nil
}

// Backend returns the backend name.
func (s *Service) Backend() string { return s.backend }

// Classify predicts the label of a preprocessed text. It returns a
// *types.ModelUnavailableError when the model could not be loaded.
func (s *Service) Classify(ctx context.Context, text string) (Prediction, error) {
	if err := s.Load(ctx); err != nil {
		return Prediction{}, err
	}

	if s.cache != nil {
		if p, ok := s.cache.Get(text); ok {
			s.metrics.IncCacheHit()
			return p, nil
		}
	}

	s.mu.Lock()
	p, err := s.model.Predict(ctx, text)
	s.mu.Unlock()
	if err != nil {
		return Prediction{}, fmt.Errorf("inference: %w", err)
	}
	if !p.Class.Valid() {
		return Prediction{}, fmt.Errorf("inference: class %d out of range", p.Class)
	}

	if s.cache != nil {
		s.cache.Add(text, p)
	}
	return p, nil
}

// Close releases the model.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return nil
	}
	err := s.model.Close()
	s.model = nil
	if s.loadErr == nil {
		s.loadErr = &types.ModelUnavailableError{Backend: s.backend, Err: errors.New("service closed")}
	}
	return err
}
