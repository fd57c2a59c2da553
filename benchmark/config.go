package benchmark

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nvr-ai/ssdbench/inference"
	"github.com/nvr-ai/ssdbench/inference/providers"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DecoderKind selects the image decoding backend.
type DecoderKind string

const (
	DecoderGo     DecoderKind = "go"
	DecoderOpenCV DecoderKind = "opencv"
	DecoderVips   DecoderKind = "vips"
)

// Shape is the per-image input shape, channels first.
type Shape struct {
	Channels int `json:"channels" yaml:"channels"`
	Height   int `json:"height"   yaml:"height"`
	Width    int `json:"width"    yaml:"width"`
}

// ParseShape parses "C,H,W". Surrounding brackets or parentheses and
// whitespace are ignored.
func ParseShape(s string) (Shape, error) {
	trimmed := strings.Trim(strings.TrimSpace(s), "()[]")
	parts := strings.Split(trimmed, ",")
	if len(parts) != 3 {
		return Shape{}, errors.Wrapf(ErrConfiguration, "input shape %q: want channels,height,width", s)
	}
	var dims [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Shape{}, errors.Wrapf(ErrConfiguration, "input shape %q: %v", s, err)
		}
		dims[i] = v
	}
	return Shape{Channels: dims[0], Height: dims[1], Width: dims[2]}, nil
}

func (s Shape) String() string {
	return fmt.Sprintf("%d,%d,%d", s.Channels, s.Height, s.Width)
}

// Batch returns the (n, C, H, W) model input shape.
func (s Shape) Batch(n int) [4]int {
	return [4]int{n, s.Channels, s.Height, s.Width}
}

// Config is the benchmark configuration. It is built once at startup and
// passed by value.
type Config struct {
	Device          inference.Device          `json:"device"            yaml:"device"`
	Backend         providers.ProviderBackend `json:"backend"           yaml:"backend"`
	DeviceID        int                       `json:"device_id"         yaml:"device_id"`
	ModelPathPrefix string                    `json:"model_path_prefix" yaml:"model_path_prefix"`
	Epoch           int                       `json:"epoch"             yaml:"epoch"`
	InputImagePath  string                    `json:"input_image_path"  yaml:"input_image_path"`
	InputShape      Shape                     `json:"input_shape"       yaml:"input_shape"`
	BatchSize       int                       `json:"batch_size"        yaml:"batch_size"`
	Times           int                       `json:"times"             yaml:"times"`
	WarmupRuns      int                       `json:"warmup_runs"       yaml:"warmup_runs"`
	ExactIterations bool                      `json:"exact_iterations"  yaml:"exact_iterations"`
	Engine          inference.EngineType      `json:"engine"            yaml:"engine"`
	Decoder         DecoderKind               `json:"decoder"           yaml:"decoder"`
	OutputDir       string                    `json:"output_dir"        yaml:"output_dir"`
	Timeout         time.Duration             `json:"timeout"           yaml:"timeout"`
	ProfileInterval time.Duration             `json:"profile_interval"  yaml:"profile_interval"`
}

// DefaultConfig returns the default benchmark configuration.
func DefaultConfig() Config {
	return Config{
		Device:          inference.DeviceCPU,
		Backend:         providers.CUDAProviderBackend,
		ModelPathPrefix: "/tmp/resnet50_ssd/resnet50_ssd_model",
		InputImagePath:  "/tmp/resnet50_ssd/images/dog.jpg",
		InputShape:      Shape{Channels: 3, Height: 512, Width: 512},
		BatchSize:       4,
		Times:           10,
		WarmupRuns:      4,
		Engine:          inference.EngineONNX,
		Decoder:         DecoderGo,
	}
}

// TimedIterations returns the number of timed predictions per scenario.
// Iterations are numbered from 1 and the bound is exclusive unless
// ExactIterations is set.
func (c Config) TimedIterations() int {
	if c.ExactIterations {
		return c.Times
	}
	return c.Times - 1
}

// Validate reports a malformed configuration as ErrConfiguration.
func (c Config) Validate() error {
	s := c.InputShape
	if s.Channels != 1 && s.Channels != 3 {
		return errors.Wrapf(ErrConfiguration, "input shape %s: channels must be 1 or 3", s)
	}
	if s.Height <= 0 || s.Width <= 0 {
		return errors.Wrapf(ErrConfiguration, "input shape %s: height and width must be positive", s)
	}
	if c.BatchSize < 1 {
		return errors.Wrapf(ErrConfiguration, "batch size %d must be positive", c.BatchSize)
	}
	if c.TimedIterations() < 1 {
		return errors.Wrapf(ErrConfiguration, "times %d leaves no timed iterations", c.Times)
	}
	if c.WarmupRuns < 0 {
		return errors.Wrapf(ErrConfiguration, "warmup runs %d must not be negative", c.WarmupRuns)
	}
	if c.Epoch < 0 {
		return errors.Wrapf(ErrConfiguration, "epoch %d must not be negative", c.Epoch)
	}
	if c.Timeout < 0 {
		return errors.Wrapf(ErrConfiguration, "timeout %s must not be negative", c.Timeout)
	}
	if c.ProfileInterval < 0 {
		return errors.Wrapf(ErrConfiguration, "profile interval %s must not be negative", c.ProfileInterval)
	}
	switch c.Engine {
	case inference.EngineONNX:
		if c.ModelPathPrefix == "" {
			return errors.Wrap(ErrConfiguration, "model path prefix is required")
		}
	case inference.EngineSynthetic:
	default:
		return errors.Wrapf(ErrConfiguration, "unknown engine %q", c.Engine)
	}
	switch c.Decoder {
	case DecoderGo, DecoderOpenCV, DecoderVips:
	default:
		return errors.Wrapf(ErrConfiguration, "unknown decoder %q", c.Decoder)
	}
	if c.Device != inference.DeviceCPU {
		b, err := providers.ParseBackend(string(c.Backend))
		if err != nil {
			return errors.Wrapf(ErrConfiguration, "%v", err)
		}
		if b != c.Backend {
			return errors.Wrapf(ErrConfiguration, "provider backend %q must be written as %q", c.Backend, b)
		}
		if b == providers.CPUProviderBackend {
			return errors.Wrap(ErrConfiguration, "cpu is not an accelerator provider backend")
		}
	}
	if c.InputImagePath == "" {
		return errors.Wrap(ErrConfiguration, "input image path is required")
	}
	return nil
}

// NormalizeBackend returns the canonical name of a provider backend, or s
// unchanged when it names no known backend so Validate can report it.
func NormalizeBackend(s string) providers.ProviderBackend {
	if b, err := providers.ParseBackend(s); err == nil {
		return b
	}
	return providers.ProviderBackend(s)
}

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to read config file %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(ErrConfiguration, "parse config file %s: %v", path, err)
	}
	cfg.Device = inference.ParseDevice(string(cfg.Device))
	cfg.Backend = NormalizeBackend(string(cfg.Backend))
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}
