// Package profiler - Background runtime monitoring for benchmark runs.
package profiler

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"k8s.io/klog/v2"
)

// RuntimeProfiler samples process runtime statistics while a benchmark runs
// and reports them through klog.
//
// The profiler also tracks wall-clock time per named operation, such as a
// scenario, so slow phases show up next to memory and GC pressure.
type RuntimeProfiler struct {
	reportInterval time.Duration
	sampleInterval time.Duration
	maxSamples     int

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	startTime time.Time
	running   bool

	memStats    runtime.MemStats
	samples     []sample
	lastGCCount uint32

	operationTimes map[string]*TimeTracker
}

// sample is one point-in-time reading of the Go runtime.
type sample struct {
	timestamp  time.Time
	goroutines int
	cgoCalls   int64
	heapAlloc  uint64
}

// TimeTracker tracks operation timing statistics.
type TimeTracker struct {
	Name      string
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// Average returns the mean duration of the tracked operation.
func (t TimeTracker) Average() time.Duration {
	if t.Count == 0 {
		return 0
	}
	return t.TotalTime / time.Duration(t.Count)
}

// ProfilingOptions configures the runtime profiler.
type ProfilingOptions struct {
	// ReportInterval specifies how often to emit status reports (default: 2s)
	ReportInterval time.Duration
	// SampleInterval specifies how often to collect samples (default: 100ms)
	SampleInterval time.Duration
	// MaxSamples specifies maximum number of samples to keep (default: 600)
	MaxSamples int
}

// NewRuntimeProfiler creates a new runtime profiler with the specified options.
//
// Arguments:
// - opts: Configuration options for the profiler
//
// Returns:
// - A configured RuntimeProfiler instance
func NewRuntimeProfiler(opts ProfilingOptions) *RuntimeProfiler {
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = 2 * time.Second
	}
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = 100 * time.Millisecond
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 600
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &RuntimeProfiler{
		reportInterval: opts.ReportInterval,
		sampleInterval: opts.SampleInterval,
		maxSamples:     opts.MaxSamples,
		ctx:            ctx,
		cancel:         cancel,
		startTime:      time.Now(),
		samples:        make([]sample, 0, opts.MaxSamples),
		operationTimes: make(map[string]*TimeTracker),
	}
}

// Start begins sampling and periodic reporting. Calling Start on a running
// profiler is a no-op.
func (rp *RuntimeProfiler) Start() {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if rp.running {
		return
	}
	rp.running = true
	rp.startTime = time.Now()

	rp.wg.Add(2)
	go rp.loop(rp.sampleInterval, rp.sample)
	go rp.loop(rp.reportInterval, rp.report)
}

// Stop halts the background goroutines, waits for them and emits a final
// report.
func (rp *RuntimeProfiler) Stop() {
	rp.mu.Lock()
	if !rp.running {
		rp.mu.Unlock()
		return
	}
	rp.running = false
	rp.mu.Unlock()

	rp.cancel()
	rp.wg.Wait()
	rp.report()
}

func (rp *RuntimeProfiler) loop(interval time.Duration, fn func()) {
	defer rp.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rp.ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call when the operation completes
func (rp *RuntimeProfiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		rp.recordOperationTime(name, time.Since(start))
	}
}

func (rp *RuntimeProfiler) recordOperationTime(name string, d time.Duration) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	tracker, exists := rp.operationTimes[name]
	if !exists {
		tracker = &TimeTracker{Name: name, MinTime: d, MaxTime: d}
		rp.operationTimes[name] = tracker
	}
	tracker.TotalTime += d
	tracker.Count++
	if d < tracker.MinTime {
		tracker.MinTime = d
	}
	if d > tracker.MaxTime {
		tracker.MaxTime = d
	}
}

func (rp *RuntimeProfiler) sample() {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	runtime.ReadMemStats(&rp.memStats)
	rp.samples = append(rp.samples, sample{
		timestamp:  time.Now(),
		goroutines: runtime.NumGoroutine(),
		cgoCalls:   runtime.NumCgoCall(),
		heapAlloc:  rp.memStats.HeapAlloc,
	})
	if len(rp.samples) > rp.maxSamples {
		rp.samples = rp.samples[1:]
	}
}

// report logs the latest runtime readings and the operation timings.
func (rp *RuntimeProfiler) report() {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	var peakHeap uint64
	for _, s := range rp.samples {
		if s.heapAlloc > peakHeap {
			peakHeap = s.heapAlloc
		}
	}

	klog.V(1).InfoS("Runtime profile",
		"uptime", time.Since(rp.startTime).Truncate(time.Millisecond),
		"goroutines", runtime.NumGoroutine(),
		"cgoCalls", runtime.NumCgoCall(),
		"heapAlloc", formatBytes(rp.memStats.HeapAlloc),
		"peakHeapAlloc", formatBytes(peakHeap),
		"sys", formatBytes(rp.memStats.Sys),
		"gcCycles", rp.memStats.NumGC,
		"newGCCycles", rp.memStats.NumGC-rp.lastGCCount,
		"samples", len(rp.samples))
	rp.lastGCCount = rp.memStats.NumGC

	for _, t := range rp.operationsLocked() {
		klog.V(1).InfoS("Operation timing",
			"operation", t.Name, "count", t.Count,
			"avg", t.Average().Truncate(time.Microsecond),
			"min", t.MinTime.Truncate(time.Microsecond),
			"max", t.MaxTime.Truncate(time.Microsecond))
	}
}

// Operations returns a snapshot of the operation timings sorted by name.
func (rp *RuntimeProfiler) Operations() []TimeTracker {
	rp.mu.RLock()
	defer rp.mu.RUnlock()
	return rp.operationsLocked()
}

func (rp *RuntimeProfiler) operationsLocked() []TimeTracker {
	out := make([]TimeTracker, 0, len(rp.operationTimes))
	for _, t := range rp.operationTimes {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SampleCount returns the number of runtime samples currently retained.
func (rp *RuntimeProfiler) SampleCount() int {
	rp.mu.RLock()
	defer rp.mu.RUnlock()
	return len(rp.samples)
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
