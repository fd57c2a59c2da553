package benchmark

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/nvr-ai/ssdbench/images"
	"github.com/nvr-ai/ssdbench/inference"
	"github.com/nvr-ai/ssdbench/profiler"
	"github.com/nvr-ai/ssdbench/tensors"
	"gorgonia.org/tensor"
	"k8s.io/klog/v2"
)

// Driver runs the four fixed scenarios against one model checkpoint.
type Driver struct {
	Config  Config
	Loader  inference.Loader
	Decoder images.Decoder
	// Out receives progress and metrics lines.
	Out io.Writer
	// Profiler, if set, times each scenario.
	Profiler *profiler.RuntimeProfiler
}

// Run decodes the input image once, then for each scenario loads a fresh
// model bound to the scenario batch shape, times it and emits its metrics.
// The first failure stops the run.
//
// Arguments:
//   - ctx: Cancels the run between predictions.
//
// Returns:
//   - []ScenarioResult: One result per completed scenario.
//   - error: A StageError naming the failed scenario and stage.
func (d *Driver) Run(ctx context.Context) ([]ScenarioResult, error) {
	out := d.Out
	if out == nil {
		out = io.Discard
	}
	cfg := d.Config
	scenarios := Scenarios(cfg.BatchSize)

	shape := cfg.InputShape
	single, err := images.LoadTensor(d.Decoder, cfg.InputImagePath, shape.Channels, shape.Height, shape.Width)
	if err != nil {
		return nil, stageError(scenarios[0].Name, StagePrepare, err)
	}

	results := make([]ScenarioResult, 0, len(scenarios))
	for _, sc := range scenarios {
		if sc.Single() {
			fmt.Fprintln(out, "Running single inference")
		} else {
			fmt.Fprintf(out, "Running batch inference with batch size : %d\n", sc.BatchSize)
		}

		res, err := d.runScenario(ctx, out, sc, single)
		if err != nil {
			klog.ErrorS(err, "scenario failed", "scenario", sc.Name, "batchSize", sc.BatchSize)
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (d *Driver) runScenario(ctx context.Context, out io.Writer, sc Scenario, single *tensor.Dense) (ScenarioResult, error) {
	if d.Profiler != nil {
		defer d.Profiler.StartOperation(sc.Name)()
	}
	cfg := d.Config
	args := inference.LoadArgs{
		Prefix:   cfg.ModelPathPrefix,
		Epoch:    cfg.Epoch,
		Shape:    cfg.InputShape.Batch(sc.BatchSize),
		Device:   cfg.Device,
		Backend:  cfg.Backend,
		DeviceID: cfg.DeviceID,
	}
	model, err := d.Loader.Load(ctx, args)
	if err != nil {
		return ScenarioResult{}, stageError(sc.Name, StageLoad, err)
	}
	defer func() {
		if err := model.Close(); err != nil {
			klog.ErrorS(err, "failed to close model", "scenario", sc.Name)
		}
	}()

	batch, err := tensors.BuildBatch(single, sc.BatchSize)
	if err != nil {
		return ScenarioResult{}, stageError(sc.Name, StagePrepare, err)
	}
	s := batch.Shape()
	fmt.Fprintf(out, "(%d, %d, %d, %d)\n", s[0], s[1], s[2], s[3])

	runner := Runner{
		Out:             out,
		WarmupRuns:      cfg.WarmupRuns,
		Times:           cfg.Times,
		ExactIterations: cfg.ExactIterations,
		Scenario:        sc.Name,
	}
	started := time.Now()
	sample, mem, err := runner.Run(ctx, model, batch)
	if err != nil {
		return ScenarioResult{}, err
	}

	summary, _, err := Emit(out, sample, sc.Name)
	if err != nil {
		return ScenarioResult{}, stageError(sc.Name, StageReport, err)
	}
	klog.V(1).InfoS("scenario finished", "scenario", sc.Name, "batchSize", sc.BatchSize,
		"p50ms", summary.P50, "meanms", summary.Mean)

	return ScenarioResult{
		Name:        sc.Name,
		BatchSize:   sc.BatchSize,
		Timestamp:   started,
		Samples:     sample,
		Summary:     summary,
		MemoryStats: mem,
		NumCPU:      runtime.NumCPU(),
	}, nil
}
