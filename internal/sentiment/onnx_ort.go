//go:build ORT

package sentiment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

// ONNXModel runs an exported Hugging Face sequence classifier through
// onnxruntime.
type ONNXModel struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
}

// ONNXLoader returns a Loader for the onnx backend. When modelPath is
// empty the model is looked up under modelDir and downloaded there if
// absent.
func ONNXLoader(modelName, modelPath, modelDir string) Loader {
	return func(ctx context.Context) (Model, error) {
		path, err := resolveModelPath(modelName, modelPath, modelDir)
		if err != nil {
			return nil, err
		}

		session, err := hugot.NewORTSession()
		if err != nil {
			return nil, fmt.Errorf("create ort session: %w", err)
		}

		cfg := hugot.TextClassificationConfig{
			ModelPath: path,
			Name:      "reviewSentiment",
		}
		pipeline, err := hugot.NewPipeline(session, cfg)
		if err != nil {
			_ = session.Destroy()
			return nil, fmt.Errorf("create pipeline: %w", err)
		}
		return &ONNXModel{session: session, pipeline: pipeline}, nil
	}
}

func resolveModelPath(modelName, modelPath, modelDir string) (string, error) {
	if modelPath != "" {
		if _, err := os.Stat(modelPath); err != nil {
			return "", fmt.Errorf("model path: %w", err)
		}
		return modelPath, nil
	}

	local := filepath.Join(modelDir, strings.ReplaceAll(modelName, "/", "_"))
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return "", fmt.Errorf("create model dir: %w", err)
	}
	path, err := hugot.DownloadModel(modelName, modelDir, hugot.NewDownloadOptions())
	if err != nil {
		return "", fmt.Errorf("download %s: %w", modelName, err)
	}
	return path, nil
}

func (m *ONNXModel) Predict(_ context.Context, text string) (Prediction, error) {
	out, err := m.pipeline.RunPipeline([]string{text})
	if err != nil {
		return Prediction{}, err
	}
	if len(out.ClassificationOutputs) == 0 || len(out.ClassificationOutputs[0]) == 0 {
		return Prediction{}, errors.New("empty classification output")
	}

	best := out.ClassificationOutputs[0][0]
	class, ok := labelFromName(best.Label)
	if !ok {
		return Prediction{}, fmt.Errorf("unknown model label %q", best.Label)
	}
	return Prediction{Class: class, Confidence: float64(best.Score)}, nil
}

func (m *ONNXModel) Close() error {
	return m.session.Destroy()
}
