package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuntimeProfilerDefaults(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{})
	assert.Equal(t, 2*time.Second, rp.reportInterval)
	assert.Equal(t, 100*time.Millisecond, rp.sampleInterval)
	assert.Equal(t, 600, rp.maxSamples)
}

func TestStartOperation(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{})

	for _, d := range []time.Duration{2 * time.Millisecond, 6 * time.Millisecond} {
		done := rp.StartOperation("batch_inference_1x")
		time.Sleep(d)
		done()
	}
	rp.StartOperation("single_inference")()

	ops := rp.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, "batch_inference_1x", ops[0].Name)
	assert.Equal(t, int64(2), ops[0].Count)
	assert.GreaterOrEqual(t, ops[0].MinTime, 2*time.Millisecond)
	assert.GreaterOrEqual(t, ops[0].MaxTime, 6*time.Millisecond)
	assert.LessOrEqual(t, ops[0].MinTime, ops[0].Average())
	assert.GreaterOrEqual(t, ops[0].MaxTime, ops[0].Average())
	assert.Equal(t, "single_inference", ops[1].Name)
}

func TestStartStop(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{
		SampleInterval: time.Millisecond,
		ReportInterval: 5 * time.Millisecond,
		MaxSamples:     3,
	})
	rp.Start()
	rp.Start()

	assert.Eventually(t, func() bool { return rp.SampleCount() == 3 }, time.Second, time.Millisecond)

	rp.Stop()
	rp.Stop()
	assert.LessOrEqual(t, rp.SampleCount(), 3)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2*1024*1024))
}
