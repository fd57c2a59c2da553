// Package onnx - ONNX Runtime engine for epoch-numbered detector checkpoints.
package onnx

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/nvr-ai/ssdbench/inference"
	"github.com/nvr-ai/ssdbench/inference/providers"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"
	"k8s.io/klog/v2"
)

var (
	envOnce sync.Once
	envErr  error
)

// initEnvironment loads the ONNX Runtime shared library. It is required once
// per process.
func initEnvironment() error {
	envOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		libPath := providers.SharedLibPath()
		if _, err := os.Stat(libPath); err != nil {
			envErr = errors.Wrapf(err, "ONNX Runtime library not found at %s (set %s)", libPath, providers.SharedLibEnv)
			return
		}
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = errors.Wrap(err, "error initializing ORT environment")
		}
	})
	return envErr
}

// Loader binds ONNX checkpoints to a fixed batch shape.
type Loader struct {
	provider providers.Config
}

// NewLoader creates a loader that applies cfg to every session it creates.
// The backend in cfg is replaced per load by the requested device.
func NewLoader(cfg providers.Config) *Loader {
	return &Loader{provider: cfg}
}

// Load resolves the checkpoint for args, validates its input signature
// against the requested shape and creates a session bound to that shape.
func (l *Loader) Load(ctx context.Context, args inference.LoadArgs) (inference.Model, error) {
	path := args.Path()
	fail := func(err error) (inference.Model, error) {
		return nil, inference.NewLoadError(path, args.Shape, err)
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if _, err := os.Stat(path); err != nil {
		return fail(errors.Wrap(err, "checkpoint not readable"))
	}
	if err := initEnvironment(); err != nil {
		return fail(err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return fail(errors.Wrap(err, "error reading model inputs and outputs"))
	}
	if len(inputs) != 1 {
		return fail(fmt.Errorf("model declares %d inputs, expected a single image input", len(inputs)))
	}
	if len(outputs) == 0 {
		return fail(errors.New("model declares no outputs"))
	}
	in := inputs[0]
	if in.DataType != ort.TensorElementDataTypeFloat {
		return fail(fmt.Errorf("input %q has element type %v, expected float32", in.Name, in.DataType))
	}
	if err := checkShape(in.Dimensions, args.Shape); err != nil {
		return fail(errors.Wrapf(err, "input %q", in.Name))
	}

	cfg := l.provider
	cfg.Backend = providers.CPUProviderBackend
	if args.Device == inference.DeviceAccelerator {
		cfg.Backend = args.Backend
		if cfg.Backend == "" {
			cfg.Backend = providers.CUDAProviderBackend
		}
		cfg.DeviceID = args.DeviceID
	}

	options, err := providers.NewSessionOptions(cfg)
	if err != nil {
		return fail(err)
	}
	defer options.Destroy()

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(
		int64(args.Shape[0]), int64(args.Shape[1]), int64(args.Shape[2]), int64(args.Shape[3]),
	))
	if err != nil {
		return fail(errors.Wrap(err, "error creating input tensor"))
	}

	outputNames := make([]string, len(outputs))
	for i, o := range outputs {
		outputNames[i] = o.Name
	}

	session, err := ort.NewDynamicAdvancedSession(path, []string{in.Name}, outputNames, options)
	if err != nil {
		input.Destroy()
		return fail(errors.Wrap(err, "error creating ORT session"))
	}

	klog.V(2).InfoS("Bound ONNX model",
		"path", path, "input", in.Name, "shape", args.Shape,
		"outputs", outputNames, "backend", cfg.Backend, "deviceID", cfg.DeviceID)

	return &model{
		path:        path,
		shape:       args.Shape,
		session:     session,
		input:       input,
		outputCount: len(outputNames),
	}, nil
}

// checkShape rejects a declared input shape that cannot accept want.
// Non-positive declared dimensions are dynamic and accept any size.
func checkShape(declared ort.Shape, want [4]int) error {
	if len(declared) != 4 {
		return fmt.Errorf("declared shape %v is not 4-D (batch, channels, height, width)", declared)
	}
	for i, d := range declared {
		if d > 0 && d != int64(want[i]) {
			return fmt.Errorf("declared shape %v does not accept %v", declared, want)
		}
	}
	return nil
}

// model is a DynamicAdvancedSession with a preallocated input tensor.
type model struct {
	path        string
	shape       [4]int
	session     *ort.DynamicAdvancedSession
	input       *ort.Tensor[float32]
	outputCount int
}

// Predict copies input into the bound tensor and starts the run. Outputs are
// allocated by ONNX Runtime and released once the run completes.
func (m *model) Predict(ctx context.Context, input *tensor.Dense) (inference.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, ok := input.Data().([]float32)
	if !ok {
		return nil, inference.NewPredictError(m.path, m.shape, fmt.Errorf("input must be float32, got %T", input.Data()))
	}
	dst := m.input.GetData()
	if len(data) != len(dst) {
		return nil, inference.NewPredictError(m.path, m.shape,
			fmt.Errorf("input shape %v holds %d values, bound tensor holds %d", input.Shape(), len(data), len(dst)))
	}
	copy(dst, data)

	outputs := make([]ort.Value, m.outputCount)
	run := func() error {
		if err := m.session.Run([]ort.Value{m.input}, outputs); err != nil {
			return inference.NewPredictError(m.path, m.shape, err)
		}
		return nil
	}
	release := func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}
	return inference.Pending(run, release), nil
}

// Close releases the session and the bound input tensor.
func (m *model) Close() error {
	var err error
	if m.session != nil {
		err = m.session.Destroy()
		m.session = nil
	}
	if m.input != nil {
		m.input.Destroy()
		m.input = nil
	}
	if err != nil {
		return errors.Wrap(err, "error destroying ORT session")
	}
	return nil
}
