// Package inference - Model contracts shared by the benchmark engines.
package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/nvr-ai/ssdbench/inference/providers"
	"gorgonia.org/tensor"
)

// EngineType names an inference engine implementation.
type EngineType string

const (
	// EngineONNX runs ONNX checkpoints through ONNX Runtime.
	EngineONNX EngineType = "onnx"
	// EngineSynthetic runs a Gorgonia SSD-style graph with random weights.
	EngineSynthetic EngineType = "synthetic"
)

// Device selects the compute target a model is bound to.
type Device string

const (
	// DeviceCPU binds the model to the host CPU.
	DeviceCPU Device = "cpu"
	// DeviceAccelerator binds the model to the configured accelerator backend.
	DeviceAccelerator Device = "accelerator"
)

// ParseDevice maps a context selector to a Device. "cpu" selects the CPU,
// anything else selects the accelerator.
func ParseDevice(s string) Device {
	if strings.EqualFold(strings.TrimSpace(s), string(DeviceCPU)) {
		return DeviceCPU
	}
	return DeviceAccelerator
}

// Result is the handle returned by a prediction. Wait blocks until the
// prediction has fully completed on the device.
type Result interface {
	Wait() error
}

// Model is a network bound to one fixed input shape.
type Model interface {
	// Predict submits the input for execution. The returned Result must be
	// waited on before the prediction is considered complete.
	Predict(ctx context.Context, input *tensor.Dense) (Result, error)
	Close() error
}

// LoadArgs describes the model binding requested by a scenario.
type LoadArgs struct {
	// Prefix is the checkpoint path prefix.
	Prefix string
	// Epoch selects the epoch-numbered checkpoint file.
	Epoch int
	// Shape is the bound input shape: batch, channels, height, width.
	Shape [4]int
	// Device is the compute target.
	Device Device
	// Backend is the execution provider used when Device is the accelerator.
	Backend providers.ProviderBackend
	// DeviceID is the accelerator ordinal.
	DeviceID int
}

// Path returns the checkpoint file for the arguments.
func (a LoadArgs) Path() string {
	return CheckpointPath(a.Prefix, a.Epoch)
}

// Loader creates models bound to a fixed input shape.
type Loader interface {
	Load(ctx context.Context, args LoadArgs) (Model, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, args LoadArgs) (Model, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, args LoadArgs) (Model, error) {
	return f(ctx, args)
}

// CheckpointPath returns the epoch-numbered checkpoint file for a prefix,
// e.g. "/tmp/resnet50_ssd_model-0000.onnx".
func CheckpointPath(prefix string, epoch int) string {
	return fmt.Sprintf("%s-%04d.onnx", prefix, epoch)
}
