package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrNoReviewContainers  = errors.New("no review containers on first page")
	ErrPaginationExhausted = errors.New("no further review pages")
	ErrModelUnavailable    = errors.New("sentiment model unavailable")
	ErrOllamaUnavailable   = errors.New("ollama unavailable")
	ErrJobNotFound         = errors.New("job not found")
)

// ValidationError is returned when a URL is not a marketplace product page.
type ValidationError struct {
	URL    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid product URL %q: %s", e.URL, e.Reason)
}

// DriverError wraps failures to launch, connect to, or navigate the browser.
type DriverError struct {
	Op  string
	URL string
	Err error
}

func (e *DriverError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("browser %s failed for %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("browser %s failed: %v", e.Op, e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }

// IsNavigation reports whether the failure happened while loading the page.
func (e *DriverError) IsNavigation() bool { return e.Op == "navigate" }

// ExtractionError marks a single review container that could not be read.
// It never aborts a scrape.
type ExtractionError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("review %d: bad %s: %s", e.Index, e.Field, e.Reason)
}

// ModelUnavailableError is returned by the classifier when the model could
// not be loaded. It matches ErrModelUnavailable under errors.Is.
type ModelUnavailableError struct {
	Backend string
	Err     error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("sentiment model (%s) unavailable: %v", e.Backend, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Err }

func (e *ModelUnavailableError) Is(target error) bool { return target == ErrModelUnavailable }

// LLMError wraps a failed call to the language model server.
type LLMError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *LLMError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm error at %s (status %d)", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("llm error at %s: %v", e.Endpoint, e.Err)
}

func (e *LLMError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PipelineError wraps errors that occur in the enrichment pipeline.
type PipelineError struct {
	Stage  string
	Review *Review
	Err    error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
