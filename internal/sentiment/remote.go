package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quickshop-id/quickshop/internal/types"
)

// RemoteModel calls an HTTP inference service:
//
//	POST {endpoint} {"text": "..."} -> {"label": 0..2, "confidence": 0.93}
type RemoteModel struct {
	endpoint string
	client   *http.Client
}

// NewRemoteModel creates a RemoteModel. A nil client gets a default one.
func NewRemoteModel(endpoint string, client *http.Client, timeout time.Duration) *RemoteModel {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &RemoteModel{endpoint: endpoint, client: client}
}

// RemoteLoader returns a Loader that checks the service answers before use.
func RemoteLoader(endpoint string, client *http.Client, timeout time.Duration) Loader {
	return func(ctx context.Context) (Model, error) {
		m := NewRemoteModel(endpoint, client, timeout)
		if _, err := m.Predict(ctx, "tes"); err != nil {
			return nil, fmt.Errorf("probe %s: %w", endpoint, err)
		}
		return m, nil
	}
}

type remoteRequest struct {
	Text string `json:"text"`
}

type remoteResponse struct {
	Label      json.RawMessage `json:"label"`
	Confidence float64         `json:"confidence"`
}

func (m *RemoteModel) Predict(ctx context.Context, text string) (Prediction, error) {
	body, err := json.Marshal(remoteRequest{Text: text})
	if err != nil {
		return Prediction{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return Prediction{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return Prediction{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return Prediction{}, fmt.Errorf("model service status %d: %s", resp.StatusCode, snippet)
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Prediction{}, fmt.Errorf("decode model response: %w", err)
	}
	label, err := decodeRemoteLabel(out.Label)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{Class: label, Confidence: out.Confidence}, nil
}

// decodeRemoteLabel accepts either a class index or a label name.
func decodeRemoteLabel(raw json.RawMessage) (types.Label, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if !types.Label(n).Valid() {
			return 0, fmt.Errorf("label %d out of range", n)
		}
		return types.Label(n), nil
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		if l, ok := labelFromName(name); ok {
			return l, nil
		}
		return 0, fmt.Errorf("unknown label %q", name)
	}
	return 0, fmt.Errorf("unreadable label %s", raw)
}

func (m *RemoteModel) Close() error {
	m.client.CloseIdleConnections()
	return nil
}
