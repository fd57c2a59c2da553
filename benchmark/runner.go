package benchmark

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"time"

	"github.com/nvr-ai/ssdbench/inference"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
	"k8s.io/klog/v2"
)

// Runner performs the warmup and timed prediction passes of one scenario.
type Runner struct {
	// Out receives progress lines.
	Out io.Writer
	// WarmupRuns is the number of untimed predictions.
	WarmupRuns int
	// Times is the iteration bound of the timed loop.
	Times int
	// ExactIterations runs iterations 1..Times instead of 1..Times-1.
	ExactIterations bool
	// Scenario labels errors and logs.
	Scenario string
}

// Run warms up model, then times each prediction until its result has
// completed. The returned sample holds seconds and is sorted ascending.
//
// Arguments:
//   - ctx: Checked between predictions.
//   - model: The bound model.
//   - input: The batch tensor matching the model binding.
//
// Returns:
//   - []float64: The sorted sample in seconds.
//   - MemoryMetrics: Memory statistics sampled around the timed loop.
//   - error: A StageError for the warmup or timed stage.
func (r Runner) Run(ctx context.Context, model inference.Model, input *tensor.Dense) ([]float64, MemoryMetrics, error) {
	out := r.Out
	if out == nil {
		out = io.Discard
	}

	fmt.Fprintln(out, "warming up the system")
	for i := 0; i < r.WarmupRuns; i++ {
		if err := ctx.Err(); err != nil {
			return nil, MemoryMetrics{}, stageError(r.Scenario, StageWarmup, err)
		}
		if err := predict(ctx, model, input); err != nil {
			return nil, MemoryMetrics{}, stageError(r.Scenario, StageWarmup,
				errors.Wrapf(err, "warmup run %d", i))
		}
	}
	fmt.Fprintln(out, "Warm up done")

	last := r.Times
	if r.ExactIterations {
		last++
	}
	sample := make([]float64, 0, max(last-1, 0))

	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	for i := 1; i < last; i++ {
		if err := ctx.Err(); err != nil {
			return nil, MemoryMetrics{}, stageError(r.Scenario, StageTimed, err)
		}
		start := time.Now()
		if err := predict(ctx, model, input); err != nil {
			return nil, MemoryMetrics{}, stageError(r.Scenario, StageTimed,
				errors.Wrapf(err, "iteration %d", i))
		}
		elapsed := time.Since(start).Seconds()
		sample = append(sample, elapsed)
		fmt.Fprintf(out, "Inference time at iteration %d is %f ms \n", i, elapsed*1000)
	}

	var endMem runtime.MemStats
	runtime.ReadMemStats(&endMem)

	sort.Float64s(sample)
	klog.V(2).InfoS("timed loop finished", "scenario", r.Scenario, "iterations", len(sample))
	return sample, memoryDelta(&startMem, &endMem), nil
}

// predict submits one prediction and blocks until it has completed.
func predict(ctx context.Context, model inference.Model, input *tensor.Dense) error {
	res, err := model.Predict(ctx, input)
	if err != nil {
		return err
	}
	return res.Wait()
}
