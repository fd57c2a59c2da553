// Package benchmark - Functionality for running benchmarks.
package benchmark

import (
	"fmt"
	"io"
	"runtime"
	"time"
)

// Summary holds latency statistics in milliseconds.
type Summary struct {
	P50  float64 `json:"p50_ms"  yaml:"p50_ms"`
	P90  float64 `json:"p90_ms"  yaml:"p90_ms"`
	P99  float64 `json:"p99_ms"  yaml:"p99_ms"`
	Mean float64 `json:"mean_ms" yaml:"mean_ms"`
}

// Summarize computes p50, p90, p99 and the mean of a sorted sample of
// durations in seconds, converted to milliseconds.
func Summarize(sorted []float64) (Summary, error) {
	var (
		s   Summary
		err error
	)
	if s.P50, err = Percentile(50, sorted); err != nil {
		return Summary{}, err
	}
	if s.P90, err = Percentile(90, sorted); err != nil {
		return Summary{}, err
	}
	if s.P99, err = Percentile(99, sorted); err != nil {
		return Summary{}, err
	}
	if s.Mean, err = Mean(sorted); err != nil {
		return Summary{}, err
	}
	s.P50 *= 1000
	s.P90 *= 1000
	s.P99 *= 1000
	s.Mean *= 1000
	return s, nil
}

// Format renders the summary as one labelled line, ordered p99, p90, p50,
// average.
func (s Summary) Format(label string) string {
	return fmt.Sprintf("\n%s_p99 %1.2f, %s_p90 %1.2f, %s_p50 %1.2f, %s_average %1.2f\n",
		label, s.P99, label, s.P90, label, s.P50, label, s.Mean)
}

// Emit summarizes sample, writes the formatted line to w and returns it.
//
// Arguments:
//   - w: The destination for the summary line.
//   - sample: The sorted durations in seconds.
//   - label: The scenario label prefixed to each value.
//
// Returns:
//   - Summary: The computed statistics.
//   - string: The text written to w.
//   - error: ErrInvalidInput for an empty sample, or the write error.
func Emit(w io.Writer, sample []float64, label string) (Summary, string, error) {
	s, err := Summarize(sample)
	if err != nil {
		return Summary{}, "", err
	}
	line := s.Format(label)
	if _, err := io.WriteString(w, line); err != nil {
		return Summary{}, "", err
	}
	return s, line, nil
}

// MemoryMetrics captures memory usage statistics
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
	HeapSysBytes    uint64 `json:"heap_sys_bytes"`
}

func memoryDelta(start, end *runtime.MemStats) MemoryMetrics {
	return MemoryMetrics{
		AllocBytes:      end.Alloc,
		TotalAllocBytes: end.TotalAlloc - start.TotalAlloc,
		SysBytes:        end.Sys,
		NumGC:           end.NumGC - start.NumGC,
		HeapAllocBytes:  end.HeapAlloc,
		HeapSysBytes:    end.HeapSys,
	}
}

// ScenarioResult captures one completed scenario.
type ScenarioResult struct {
	Name        string        `json:"name"`
	BatchSize   int           `json:"batch_size"`
	Timestamp   time.Time     `json:"timestamp"`
	Samples     []float64     `json:"samples_seconds"`
	Summary     Summary       `json:"summary"`
	MemoryStats MemoryMetrics `json:"memory_stats"`
	NumCPU      int           `json:"num_cpu"`
}
