//go:build !ORT

package sentiment

import (
	"context"
	"errors"
)

// errNoORT is returned when the binary was built without onnxruntime.
var errNoORT = errors.New("onnx backend requires building with -tags ORT")

// ONNXLoader returns a Loader that always fails in builds without the ORT
// tag. Use the remote or vader backend instead.
func ONNXLoader(modelName, modelPath, modelDir string) Loader {
	return func(context.Context) (Model, error) { return nil, errNoORT }
}
