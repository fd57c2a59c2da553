package benchmark

import (
	"context"
	"sync"
	"time"

	"github.com/nvr-ai/ssdbench/inference"
	"gorgonia.org/tensor"
)

// stubModel sleeps for latency on every prediction and completes at once.
type stubModel struct {
	latency    time.Duration
	predictErr error
	waitErr    error
	// failAfter makes predictions after the first n fail with predictErr.
	failAfter int

	mu     sync.Mutex
	calls  int
	closed bool
	shapes []tensor.Shape
}

func (m *stubModel) Predict(_ context.Context, input *tensor.Dense) (inference.Result, error) {
	m.mu.Lock()
	m.calls++
	n := m.calls
	m.shapes = append(m.shapes, input.Shape().Clone())
	m.mu.Unlock()

	if m.predictErr != nil && n > m.failAfter {
		return nil, m.predictErr
	}
	time.Sleep(m.latency)
	return inference.Completed(m.waitErr), nil
}

func (m *stubModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// stubLoader hands out a new stubModel per Load and records the arguments.
type stubLoader struct {
	latency time.Duration
	loadErr error

	args   []inference.LoadArgs
	models []*stubModel
}

func (l *stubLoader) Load(_ context.Context, args inference.LoadArgs) (inference.Model, error) {
	l.args = append(l.args, args)
	if l.loadErr != nil {
		return nil, inference.NewLoadError(args.Path(), args.Shape, l.loadErr)
	}
	m := &stubModel{latency: l.latency}
	l.models = append(l.models, m)
	return m, nil
}
