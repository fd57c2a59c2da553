package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/nvr-ai/ssdbench/benchmark"
	"github.com/nvr-ai/ssdbench/images"
	"github.com/nvr-ai/ssdbench/images/libvips"
	"github.com/nvr-ai/ssdbench/images/opencv"
	"github.com/nvr-ai/ssdbench/inference"
	"github.com/nvr-ai/ssdbench/inference/onnx"
	"github.com/nvr-ai/ssdbench/inference/providers"
	"github.com/nvr-ai/ssdbench/inference/synthetic"
	"github.com/nvr-ai/ssdbench/profiler"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"k8s.io/klog/v2"
)

// runFunc executes a validated benchmark configuration.
type runFunc func(ctx context.Context, cfg benchmark.Config) error

// App returns the ssdbench application.
func App(runner runFunc) *cli.App {
	defaults := benchmark.DefaultConfig()
	return &cli.App{
		Name:  "ssdbench",
		Usage: "Measure SSD inference latency at single and batched input",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "context",
				Usage: "Compute device: cpu, anything else selects the accelerator",
				Value: string(defaults.Device),
			},
			cli.StringFlag{
				Name:  "modelPathPrefix",
				Usage: "Checkpoint path prefix, the file read is <prefix>-<epoch>.onnx",
				Value: defaults.ModelPathPrefix,
			},
			cli.StringFlag{
				Name:  "inputImagePath",
				Usage: "Path of the input image to be tested",
				Value: defaults.InputImagePath,
			},
			cli.StringFlag{
				Name:  "inputShape",
				Usage: "Input shape as channels,height,width",
				Value: defaults.InputShape.String(),
			},
			cli.IntFlag{
				Name:  "batchSize",
				Usage: "Base batch size; scenarios also run at 2x and 4x",
				Value: defaults.BatchSize,
			},
			cli.IntFlag{
				Name:  "times",
				Usage: "Timed iteration bound per scenario",
				Value: defaults.Times,
			},
			cli.IntFlag{
				Name:  "epoch",
				Usage: "Checkpoint epoch number",
				Value: defaults.Epoch,
			},
			cli.IntFlag{
				Name:  "warmup",
				Usage: "Untimed warmup predictions per scenario",
				Value: defaults.WarmupRuns,
			},
			cli.BoolFlag{
				Name:  "exact",
				Usage: "Run exactly --times timed iterations instead of times-1",
			},
			cli.StringFlag{
				Name:  "engine",
				Usage: "Inference engine: onnx or synthetic",
				Value: string(defaults.Engine),
			},
			cli.StringFlag{
				Name:  "decoder",
				Usage: "Image decoder: go, opencv or vips",
				Value: string(defaults.Decoder),
			},
			cli.StringFlag{
				Name:  "provider",
				Usage: "Accelerator execution provider: cuda, tensorrt, coreml or openvino",
				Value: string(defaults.Backend),
			},
			cli.IntFlag{
				Name:  "device-id",
				Usage: "Accelerator ordinal",
				Value: defaults.DeviceID,
			},
			cli.StringFlag{
				Name:  "output",
				Usage: "Directory for JSON and CSV results (empty disables)",
			},
			cli.DurationFlag{
				Name:  "timeout",
				Usage: "Abort the whole run after this duration (0 disables)",
			},
			cli.DurationFlag{
				Name:  "profile-interval",
				Usage: "Log runtime statistics at this interval (0 disables)",
			},
			cli.StringFlag{
				Name:  "config",
				Usage: "YAML configuration file; explicitly set flags take precedence",
			},
			cli.StringFlag{
				Name:  "v",
				Usage: "log level for V logs",
				Value: "0",
			},
		},
		Before: func(cliCtx *cli.Context) error {
			return initKlog(cliCtx)
		},
		Action: func(cliCtx *cli.Context) error {
			cfg, err := configFromContext(cliCtx)
			if err != nil {
				return err
			}

			ctx := context.Background()
			if cfg.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
				defer cancel()
			}
			return runner(ctx, cfg)
		},
	}
}

// initKlog initializes klog.
func initKlog(cliCtx *cli.Context) error {
	klogFlagset := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	klog.InitFlags(klogFlagset)

	vInStr := cliCtx.GlobalString("v")
	if vFlag, err := strconv.Atoi(vInStr); err != nil || vFlag < 0 {
		return fmt.Errorf("invalid value \"%v\" for flag -v: value must be a non-negative integer", vInStr)
	}

	if err := klogFlagset.Set("v", vInStr); err != nil {
		return fmt.Errorf("failed to set log level: %w", err)
	}
	return nil
}

// configFromContext builds the configuration from the optional YAML file
// and the command line. Flags only override the file when set explicitly.
func configFromContext(cliCtx *cli.Context) (benchmark.Config, error) {
	cfg := benchmark.DefaultConfig()
	fromFile := cliCtx.String("config") != ""
	if fromFile {
		var err error
		if cfg, err = benchmark.LoadConfig(cliCtx.String("config")); err != nil {
			return cfg, err
		}
	}
	apply := func(name string) bool {
		return !fromFile || cliCtx.IsSet(name)
	}

	if apply("context") {
		cfg.Device = inference.ParseDevice(cliCtx.String("context"))
	}
	if apply("modelPathPrefix") {
		cfg.ModelPathPrefix = cliCtx.String("modelPathPrefix")
	}
	if apply("inputImagePath") {
		cfg.InputImagePath = cliCtx.String("inputImagePath")
	}
	if apply("inputShape") {
		shape, err := benchmark.ParseShape(cliCtx.String("inputShape"))
		if err != nil {
			return cfg, err
		}
		cfg.InputShape = shape
	}
	if apply("batchSize") {
		cfg.BatchSize = cliCtx.Int("batchSize")
	}
	if apply("times") {
		cfg.Times = cliCtx.Int("times")
	}
	if apply("epoch") {
		cfg.Epoch = cliCtx.Int("epoch")
	}
	if apply("warmup") {
		cfg.WarmupRuns = cliCtx.Int("warmup")
	}
	if apply("exact") {
		cfg.ExactIterations = cliCtx.Bool("exact")
	}
	if apply("engine") {
		cfg.Engine = inference.EngineType(cliCtx.String("engine"))
	}
	if apply("decoder") {
		cfg.Decoder = benchmark.DecoderKind(cliCtx.String("decoder"))
	}
	if apply("provider") {
		cfg.Backend = benchmark.NormalizeBackend(cliCtx.String("provider"))
	}
	if apply("device-id") {
		cfg.DeviceID = cliCtx.Int("device-id")
	}
	if apply("output") {
		cfg.OutputDir = cliCtx.String("output")
	}
	if apply("timeout") {
		cfg.Timeout = cliCtx.Duration("timeout")
	}
	if apply("profile-interval") {
		cfg.ProfileInterval = cliCtx.Duration("profile-interval")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newLoader returns the model loader for the configured engine.
func newLoader(cfg benchmark.Config) (inference.Loader, error) {
	switch cfg.Engine {
	case inference.EngineONNX:
		pc := providers.DefaultConfig()
		pc.Sequential = true
		return onnx.NewLoader(pc), nil
	case inference.EngineSynthetic:
		return synthetic.NewLoader(synthetic.DefaultOptions()), nil
	}
	return nil, errors.Wrapf(benchmark.ErrConfiguration, "unknown engine %q", cfg.Engine)
}

// newDecoder returns the image decoder for the configured backend.
func newDecoder(kind benchmark.DecoderKind) (images.Decoder, error) {
	switch kind {
	case benchmark.DecoderGo:
		return images.NewDecoder(), nil
	case benchmark.DecoderOpenCV:
		return opencv.NewDecoder(), nil
	case benchmark.DecoderVips:
		return libvips.NewDecoder(), nil
	}
	return nil, errors.Wrapf(benchmark.ErrConfiguration, "unknown decoder %q", kind)
}

// run executes the four scenarios and optionally persists the results.
func run(ctx context.Context, cfg benchmark.Config) error {
	loader, err := newLoader(cfg)
	if err != nil {
		return err
	}
	decoder, err := newDecoder(cfg.Decoder)
	if err != nil {
		return err
	}
	klog.V(1).InfoS("Starting benchmark",
		"device", cfg.Device, "engine", cfg.Engine, "decoder", cfg.Decoder,
		"modelPath", inference.CheckpointPath(cfg.ModelPathPrefix, cfg.Epoch),
		"shape", cfg.InputShape.String(), "batchSize", cfg.BatchSize, "times", cfg.Times)

	d := &benchmark.Driver{
		Config:  cfg,
		Loader:  loader,
		Decoder: decoder,
		Out:     os.Stdout,
	}
	if cfg.ProfileInterval > 0 {
		d.Profiler = profiler.NewRuntimeProfiler(profiler.ProfilingOptions{
			ReportInterval: cfg.ProfileInterval,
		})
		d.Profiler.Start()
		defer d.Profiler.Stop()
	}
	results, err := d.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.OutputDir == "" {
		return nil
	}
	jsonPath, csvPath, err := benchmark.SaveResults(cfg.OutputDir, results, time.Now())
	if err != nil {
		return errors.Wrap(err, "failed to save results")
	}
	klog.InfoS("Saved results", "results", jsonPath, "summary", csvPath)
	return nil
}
