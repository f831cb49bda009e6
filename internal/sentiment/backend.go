package sentiment

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/quickshop-id/quickshop/internal/config"
	"github.com/quickshop-id/quickshop/internal/observability"
)

// LoaderFor picks the model loader for the configured backend. client is
// only used by the remote backend and may be nil.
func LoaderFor(cfg config.SentimentConfig, client *http.Client) (Loader, error) {
	switch cfg.Backend {
	case "onnx":
		return ONNXLoader(cfg.ModelName, cfg.ModelPath, cfg.ModelDir), nil
	case "remote":
		return RemoteLoader(cfg.RemoteEndpoint, client, cfg.RemoteTimeout), nil
	case "vader":
		return VaderLoader(), nil
	default:
		return nil, fmt.Errorf("unknown sentiment backend %q", cfg.Backend)
	}
}

// NewServiceFromConfig wires a Service for cfg. The model is not loaded
// until first use.
func NewServiceFromConfig(cfg config.SentimentConfig, metrics *observability.Metrics, logger *slog.Logger) (*Service, error) {
	load, err := LoaderFor(cfg, nil)
	if err != nil {
		return nil, err
	}
	return NewService(cfg.Backend, load, cfg.CacheSize, metrics, logger), nil
}
