// Package providers - Execution provider selection for ONNX Runtime sessions.
package providers

import (
	"fmt"
	"strings"

	ort "github.com/yalue/onnxruntime_go"
)

// ProviderBackend represents different ONNX Runtime execution providers.
type ProviderBackend string

const (
	// CPUProviderBackend runs on the default CPU execution provider.
	CPUProviderBackend ProviderBackend = "cpu"
)

// Backends lists every supported backend.
var Backends = []ProviderBackend{
	CPUProviderBackend,
	CUDAProviderBackend,
	TensorRTProviderBackend,
	CoreMLProviderBackend,
	OpenVINOProviderBackend,
}

// ParseBackend resolves a backend name case-insensitively.
func ParseBackend(s string) (ProviderBackend, error) {
	name := ProviderBackend(strings.ToLower(strings.TrimSpace(s)))
	for _, b := range Backends {
		if b == name {
			return b, nil
		}
	}
	return "", fmt.Errorf("unsupported provider backend %q", s)
}

// Config selects the execution provider and the session tuning applied to
// every model binding.
type Config struct {
	// Backend specifies the execution provider to append.
	Backend ProviderBackend `json:"backend"        yaml:"backend"`
	// DeviceID is the accelerator ordinal for device-bound backends.
	DeviceID int `json:"deviceID"       yaml:"deviceID"`
	// IntraOpThreads parallelises work inside a node (0 lets ONNX Runtime decide).
	IntraOpThreads int `json:"intraOpThreads" yaml:"intraOpThreads"`
	// InterOpThreads parallelises independent nodes (0 lets ONNX Runtime decide).
	InterOpThreads int `json:"interOpThreads" yaml:"interOpThreads"`
	// Sequential forces sequential graph execution for steadier timings.
	Sequential bool `json:"sequential"     yaml:"sequential"`

	CUDA     CUDAOptions     `json:"cuda"     yaml:"cuda"`
	CoreML   CoreMLOptions   `json:"coreml"   yaml:"coreml"`
	OpenVINO OpenVINOOptions `json:"openvino" yaml:"openvino"`
}

// DefaultConfig returns a CPU configuration with extended graph optimisation.
func DefaultConfig() Config {
	return Config{Backend: CPUProviderBackend}
}

// NewSessionOptions builds ONNX Runtime session options for the configuration.
//
// Arguments:
//   - cfg: The provider configuration.
//
// Returns:
//   - *ort.SessionOptions: Options the caller must Destroy.
//   - error: An error if an option or execution provider could not be applied.
func NewSessionOptions(cfg Config) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating ORT session options: %w", err)
	}

	if err := configure(options, cfg); err != nil {
		options.Destroy()
		return nil, err
	}
	return options, nil
}

func configure(options *ort.SessionOptions, cfg Config) error {
	if err := options.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
		return fmt.Errorf("error setting intra-op threads: %w", err)
	}
	if err := options.SetInterOpNumThreads(cfg.InterOpThreads); err != nil {
		return fmt.Errorf("error setting inter-op threads: %w", err)
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		return fmt.Errorf("error setting graph optimization level: %w", err)
	}
	if err := options.SetExecutionMode(executionMode(cfg.Sequential)); err != nil {
		return fmt.Errorf("error setting execution mode: %w", err)
	}

	switch cfg.Backend {
	case CPUProviderBackend, "":
		return nil
	case CUDAProviderBackend:
		cuda := cfg.CUDA
		cuda.DeviceID = cfg.DeviceID
		return appendCUDA(options, cuda)
	case TensorRTProviderBackend:
		return appendTensorRT(options, cfg.DeviceID)
	case CoreMLProviderBackend:
		if err := options.AppendExecutionProviderCoreML(cfg.CoreML.Flags); err != nil {
			return fmt.Errorf("error enabling CoreML: %w", err)
		}
		return nil
	case OpenVINOProviderBackend:
		if err := options.AppendExecutionProviderOpenVINO(cfg.OpenVINO.ToMap()); err != nil {
			return fmt.Errorf("error enabling OpenVINO: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported provider backend %q", cfg.Backend)
	}
}

// executionMode maps the Sequential switch to an ORT execution mode.
func executionMode(sequential bool) ort.ExecutionMode {
	if sequential {
		return ort.ExecutionMode(ort.ExecutionModeSequential)
	}
	return ort.ExecutionMode(ort.ExecutionModeParallel)
}
