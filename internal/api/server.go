// Package api exposes product analysis and chat over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/quickshop-id/quickshop/internal/ai"
	"github.com/quickshop-id/quickshop/internal/analysis"
	"github.com/quickshop-id/quickshop/internal/config"
	"github.com/quickshop-id/quickshop/internal/sentiment"
	"github.com/quickshop-id/quickshop/internal/types"
)

// Analyzer runs one product analysis. *analysis.Runner implements it.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request, report types.Reporter) (*types.Snapshot, error)
}

// Chatter answers questions about a snapshot. *ai.Advisor implements it.
type Chatter interface {
	Chat(ctx context.Context, question string, snap *types.Snapshot) string
}

// Job states.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Job tracks one analysis request.
type Job struct {
	ID          string                `json:"id"`
	URL         string                `json:"url"`
	Status      string                `json:"status"`
	Messages    []string              `json:"messages"`
	Progress    float64               `json:"progress"`
	Error       string                `json:"error,omitempty"`
	Snapshot    *types.Snapshot       `json:"snapshot,omitempty"`
	Percentages *sentiment.Percentages `json:"percentages,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	FinishedAt  *time.Time            `json:"finished_at,omitempty"`

	mu   sync.Mutex
	done chan struct{}
}

// view returns a copy safe to encode while the job is still running.
func (j *Job) view() *Job {
	j.mu.Lock()
	defer j.mu.Unlock()
	return &Job{
		ID:          j.ID,
		URL:         j.URL,
		Status:      j.Status,
		Messages:    append([]string(nil), j.Messages...),
		Progress:    j.Progress,
		Error:       j.Error,
		Snapshot:    j.Snapshot,
		Percentages: j.Percentages,
		CreatedAt:   j.CreatedAt,
		FinishedAt:  j.FinishedAt,
	}
}

func (j *Job) report(ev types.StatusEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()
	switch e := ev.(type) {
	case types.Message:
		j.Messages = append(j.Messages, e.Text)
	case types.Progress:
		j.Progress = e.Fraction
	}
}

// Server provides the REST API.
type Server struct {
	mux      *http.ServeMux
	port     int
	logger   *slog.Logger
	validate *validator.Validate
	urls     *config.URLValidator

	analyzer Analyzer
	chatter  Chatter
	defaults analysis.Request

	// runMu serialises analyses: there is one browser and one model.
	runMu sync.Mutex

	jobs   map[string]*Job
	jobsMu sync.RWMutex

	baseCtx context.Context
	cancel  context.CancelFunc
	httpSrv *http.Server
}

// Options configures a Server.
type Options struct {
	Port     int
	Domain   string
	Defaults analysis.Request
	// Metrics is mounted at MetricsPath when set.
	Metrics     http.Handler
	MetricsPath string
}

// NewServer creates a new API server. chatter may be nil when Ollama is
// not available.
func NewServer(analyzer Analyzer, chatter Chatter, opts Options, logger *slog.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		mux:      http.NewServeMux(),
		port:     opts.Port,
		logger:   logger.With("component", "api_server"),
		validate: validator.New(),
		urls:     config.NewURLValidator(opts.Domain),
		analyzer: analyzer,
		chatter:  chatter,
		defaults: opts.Defaults,
		jobs:     make(map[string]*Job),
		baseCtx:  ctx,
		cancel:   cancel,
	}

	s.registerRoutes()
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, opts.Metrics)
	}
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler { return s.mux }

// Start listens in the background.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)

	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Shutdown stops accepting requests and cancels running analyses.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	s.mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	s.mux.HandleFunc("POST /api/jobs/{id}/chat", s.handleChat)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": config.Version,
		"chat":    s.chatter != nil,
	})
}

type analyzeRequest struct {
	URL        string `json:"url" validate:"required,url"`
	MaxReviews int    `json:"max_reviews" validate:"omitempty,min=1,max=1000"`
	Headless   *bool  `json:"headless"`
	Refresh    bool   `json:"refresh"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := s.validate.Struct(body); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": validationMessage(err)})
		return
	}
	if !s.urls.Valid(body.URL) {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "URL produk tidak valid! Pastikan ini adalah URL produk Tokopedia."})
		return
	}

	req := s.defaults
	req.URL = body.URL
	req.Refresh = body.Refresh
	if body.MaxReviews > 0 {
		req.MaxReviews = body.MaxReviews
	}
	if body.Headless != nil {
		req.Headless = *body.Headless
	}

	job := &Job{
		ID:        uuid.NewString(),
		URL:       body.URL,
		Status:    StatusPending,
		Messages:  []string{},
		CreatedAt: time.Now(),
		done:      make(chan struct{}),
	}
	s.jobsMu.Lock()
	s.jobs[job.ID] = job
	s.jobsMu.Unlock()

	go s.run(job, req)

	s.jsonResponse(w, http.StatusAccepted, job.view())
}

func (s *Server) run(job *Job, req analysis.Request) {
	defer close(job.done)

	s.runMu.Lock()
	defer s.runMu.Unlock()

	job.mu.Lock()
	job.Status = StatusRunning
	job.mu.Unlock()

	s.logger.Info("analysis started", "job", job.ID, "url", req.URL)
	snap, err := s.analyzer.Analyze(s.baseCtx, req, job.report)

	now := time.Now()
	job.mu.Lock()
	defer job.mu.Unlock()
	job.FinishedAt = &now
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
		s.logger.Error("analysis failed", "job", job.ID, "error", err)
		return
	}
	pct := sentiment.SharePercentages(snap.Counts)
	job.Status = StatusDone
	job.Snapshot = snap
	job.Percentages = &pct
	job.Progress = 1
	s.logger.Info("analysis finished", "job", job.ID, "reviews", len(snap.Reviews))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	s.jobsMu.RLock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		v := j.view()
		v.Snapshot = nil
		jobs = append(jobs, v)
	}
	s.jobsMu.RUnlock()

	sort.Slice(jobs, func(a, b int) bool { return jobs[a].CreatedAt.Before(jobs[b].CreatedAt) })
	s.jsonResponse(w, http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.job(r.PathValue("id"))
	if !ok {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": types.ErrJobNotFound.Error()})
		return
	}
	s.jsonResponse(w, http.StatusOK, job.view())
}

type chatRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	job, ok := s.job(r.PathValue("id"))
	if !ok {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": types.ErrJobNotFound.Error()})
		return
	}

	var body chatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	body.Question = strings.TrimSpace(body.Question)
	if err := s.validate.Struct(body); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": validationMessage(err)})
		return
	}

	v := job.view()
	if v.Status != StatusDone || v.Snapshot == nil {
		s.jsonResponse(w, http.StatusConflict, map[string]string{"error": "analysis not finished", "status": v.Status})
		return
	}
	if s.chatter == nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"error": ai.ChatUnavailable})
		return
	}

	answer := s.chatter.Chat(r.Context(), body.Question, v.Snapshot)
	s.jsonResponse(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) job(id string) (*Job, bool) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", strings.ToLower(e.Field()), e.Tag()))
	}
	return strings.Join(msgs, "; ")
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Debug("response encode failed", "error", err)
	}
}
