// Package ai talks to a local Ollama server to write product conclusions
// and answer questions about an analysed product.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/quickshop-id/quickshop/internal/config"
	"github.com/quickshop-id/quickshop/internal/types"
)

// Options are the sampling parameters passed to /api/generate.
type Options struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

// OllamaClient is a minimal client for the Ollama HTTP API.
type OllamaClient struct {
	endpoint string
	model    string
	client   *http.Client
	logger   *slog.Logger
}

// NewOllamaClient creates a client for cfg. A nil httpClient gets one with
// cfg.Timeout.
func NewOllamaClient(cfg config.AIConfig, httpClient *http.Client, logger *slog.Logger) *OllamaClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &OllamaClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		model:    cfg.Model,
		client:   httpClient,
		logger:   logger.With("component", "ollama_client"),
	}
}

// Model returns the configured model name.
func (c *OllamaClient) Model() string { return c.model }

// Available reports whether the server answers GET /api/tags with 200.
func (c *OllamaClient) Available(ctx context.Context) bool {
	resp, err := c.do(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		c.logger.Error("ollama server unavailable", "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// HasModel reports whether name is among the installed models.
func (c *OllamaClient) HasModel(ctx context.Context, name string) bool {
	resp, err := c.do(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		c.logger.Error("failed to list models", "error", err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		c.logger.Error("failed to decode model list", "error", err)
		return false
	}
	for _, m := range tags.Models {
		if m.Name == name {
			return true
		}
	}
	return false
}

// Pull asks the server to download name.
func (c *OllamaClient) Pull(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/pull", map[string]any{"name": name, "stream": false})
	if err != nil {
		return &types.LLMError{Endpoint: "/api/pull", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &types.LLMError{Endpoint: "/api/pull", StatusCode: resp.StatusCode}
	}
	return nil
}

// Setup checks the server is reachable and the configured model is
// installed, pulling it when autoPull is set.
func (c *OllamaClient) Setup(ctx context.Context, autoPull bool) error {
	if !c.Available(ctx) {
		return types.ErrOllamaUnavailable
	}
	if c.HasModel(ctx, c.model) {
		c.logger.Info("ollama ready", "model", c.model)
		return nil
	}
	if !autoPull {
		return fmt.Errorf("model %s not installed: %w", c.model, types.ErrOllamaUnavailable)
	}

	c.logger.Info("model not installed, pulling", "model", c.model)
	if err := c.Pull(ctx, c.model); err != nil {
		return fmt.Errorf("pull %s: %w", c.model, err)
	}
	c.logger.Info("model pulled", "model", c.model)
	return nil
}

type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options Options `json:"options"`
}

// Generate runs a non-streaming completion and returns the trimmed
// response. Non-200 answers yield a *types.LLMError carrying the status.
func (c *OllamaClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/generate", generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: opts,
	})
	if err != nil {
		return "", &types.LLMError{Endpoint: "/api/generate", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &types.LLMError{
			Endpoint:   "/api/generate",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &types.LLMError{Endpoint: "/api/generate", Err: fmt.Errorf("decode response: %w", err)}
	}
	return strings.TrimSpace(result.Response), nil
}

func (c *OllamaClient) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.client.Do(req)
}
