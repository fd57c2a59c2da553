package inference

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDevice(t *testing.T) {
	tests := []struct {
		in   string
		want Device
	}{
		{"cpu", DeviceCPU},
		{"CPU", DeviceCPU},
		{" cpu ", DeviceCPU},
		{"gpu", DeviceAccelerator},
		{"cuda", DeviceAccelerator},
		{"", DeviceAccelerator},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDevice(tt.in))
		})
	}
}

func TestCheckpointPath(t *testing.T) {
	assert.Equal(t, "/tmp/resnet50_ssd/resnet50_ssd_model-0000.onnx",
		CheckpointPath("/tmp/resnet50_ssd/resnet50_ssd_model", 0))
	assert.Equal(t, "model-0012.onnx", CheckpointPath("model", 12))

	args := LoadArgs{Prefix: "ssd", Epoch: 3}
	assert.Equal(t, "ssd-0003.onnx", args.Path())
}

func TestErrorClassification(t *testing.T) {
	cause := errors.New("no such file")
	shape := [4]int{4, 3, 512, 512}

	loadErr := pkgerrors.Wrap(NewLoadError("ssd-0000.onnx", shape, cause), "scenario")
	assert.True(t, errors.Is(loadErr, ErrModelLoad))
	assert.False(t, errors.Is(loadErr, ErrInference))
	assert.True(t, errors.Is(loadErr, cause))
	assert.Contains(t, loadErr.Error(), "ssd-0000.onnx")
	assert.Contains(t, loadErr.Error(), "[4 3 512 512]")

	predErr := NewPredictError("ssd-0000.onnx", shape, cause)
	assert.True(t, errors.Is(predErr, ErrInference))
	assert.False(t, errors.Is(predErr, ErrModelLoad))
}

func TestCompleted(t *testing.T) {
	assert.NoError(t, Completed(nil).Wait())

	boom := errors.New("boom")
	assert.Equal(t, boom, Completed(boom).Wait())
}

func TestPendingBlocksUntilDone(t *testing.T) {
	var released atomic.Bool
	start := time.Now()

	r := Pending(func() error {
		time.Sleep(20 * time.Millisecond)
		return nil
	}, func() {
		released.Store(true)
	})

	require.NoError(t, r.Wait())
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.True(t, released.Load(), "release must run before Wait returns")

	// A second Wait returns the same outcome without blocking.
	assert.NoError(t, r.Wait())
}

func TestPendingPropagatesError(t *testing.T) {
	boom := errors.New("device lost")
	r := Pending(func() error { return boom }, nil)
	assert.Equal(t, boom, r.Wait())
}
