// Package synthetic - Gorgonia SSD-style graph used to exercise the benchmark
// without a trained checkpoint.
//
// The graph mirrors the shape of a single-shot detector: a strided 3x3
// backbone convolution, ReLU, 2x2 max pooling and a 3x3 prediction head that
// emits Anchors*(Classes+4) channels per cell. Weights are Glorot-initialised,
// so only the latency of the result is meaningful.
package synthetic

import (
	"context"
	"fmt"

	"github.com/nvr-ai/ssdbench/inference"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
	"k8s.io/klog/v2"
)

// Options sizes the synthetic network.
type Options struct {
	// Features is the backbone channel count.
	Features int `json:"features" yaml:"features"`
	// Anchors is the number of default boxes per cell.
	Anchors int `json:"anchors"  yaml:"anchors"`
	// Classes is the number of classes including background.
	Classes int `json:"classes"  yaml:"classes"`
}

// DefaultOptions matches a Pascal VOC SSD head: 6 anchors over 21 classes.
func DefaultOptions() Options {
	return Options{Features: 16, Anchors: 6, Classes: 21}
}

// Loader builds a fresh graph per binding.
type Loader struct {
	opts Options
}

// NewLoader returns a Loader for opts. Zero fields take their defaults.
func NewLoader(opts Options) *Loader {
	def := DefaultOptions()
	if opts.Features <= 0 {
		opts.Features = def.Features
	}
	if opts.Anchors <= 0 {
		opts.Anchors = def.Anchors
	}
	if opts.Classes <= 0 {
		opts.Classes = def.Classes
	}
	return &Loader{opts: opts}
}

// Load builds the graph for args.Shape. Only the CPU device is supported.
func (l *Loader) Load(ctx context.Context, args inference.LoadArgs) (inference.Model, error) {
	// No checkpoint is read; the prefix only labels errors.
	path := args.Prefix
	if err := ctx.Err(); err != nil {
		return nil, inference.NewLoadError(path, args.Shape, err)
	}
	if args.Device != inference.DeviceCPU {
		return nil, inference.NewLoadError(path, args.Shape,
			fmt.Errorf("synthetic engine runs on cpu only, got %s", args.Device))
	}
	for i, d := range args.Shape {
		if d <= 0 {
			return nil, inference.NewLoadError(path, args.Shape, fmt.Errorf("dimension %d must be positive", i))
		}
	}
	if args.Shape[2] < 4 || args.Shape[3] < 4 {
		return nil, inference.NewLoadError(path, args.Shape, errors.New("height and width must be at least 4"))
	}

	m, err := build(args.Shape, l.opts)
	if err != nil {
		return nil, inference.NewLoadError(path, args.Shape, err)
	}
	m.path = path

	klog.V(2).InfoS("Built synthetic SSD graph", "shape", args.Shape,
		"features", l.opts.Features, "anchors", l.opts.Anchors, "classes", l.opts.Classes,
		"output", m.out.Shape())
	return m, nil
}

type model struct {
	path  string
	shape [4]int
	g     *G.ExprGraph
	input *G.Node
	out   *G.Node
	vm    G.VM
}

func build(shape [4]int, opts Options) (*model, error) {
	g := G.NewGraph()
	b, c, h, w := shape[0], shape[1], shape[2], shape[3]

	input := G.NewTensor(g, tensor.Float32, 4, G.WithShape(b, c, h, w), G.WithName("data"))
	backboneW := G.NewTensor(g, tensor.Float32, 4,
		G.WithShape(opts.Features, c, 3, 3), G.WithName("backbone_w"), G.WithInit(G.GlorotN(1.0)))
	headW := G.NewTensor(g, tensor.Float32, 4,
		G.WithShape(opts.Anchors*(opts.Classes+4), opts.Features, 3, 3), G.WithName("head_w"), G.WithInit(G.GlorotN(1.0)))

	x, err := G.Conv2d(input, backboneW, tensor.Shape{3, 3}, []int{1, 1}, []int{2, 2}, []int{1, 1})
	if err != nil {
		return nil, errors.Wrap(err, "backbone conv")
	}
	if x, err = G.Rectify(x); err != nil {
		return nil, errors.Wrap(err, "backbone relu")
	}
	if x, err = G.MaxPool2D(x, tensor.Shape{2, 2}, []int{0, 0}, []int{2, 2}); err != nil {
		return nil, errors.Wrap(err, "backbone pool")
	}
	out, err := G.Conv2d(x, headW, tensor.Shape{3, 3}, []int{1, 1}, []int{1, 1}, []int{1, 1})
	if err != nil {
		return nil, errors.Wrap(err, "head conv")
	}

	return &model{
		shape: shape,
		g:     g,
		input: input,
		out:   out,
		vm:    G.NewTapeMachine(g),
	}, nil
}

// Predict runs the tape machine to completion; the returned Result is
// already complete.
func (m *model) Predict(ctx context.Context, input *tensor.Dense) (inference.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !input.Shape().Eq(tensor.Shape(m.shape[:])) {
		return nil, inference.NewPredictError(m.path, m.shape, fmt.Errorf("input shape %v does not match binding", input.Shape()))
	}
	if err := G.Let(m.input, input); err != nil {
		return nil, inference.NewPredictError(m.path, m.shape, errors.Wrap(err, "bind input"))
	}
	defer m.vm.Reset()

	if err := m.vm.RunAll(); err != nil {
		return inference.Completed(inference.NewPredictError(m.path, m.shape, err)), nil
	}
	return inference.Completed(nil), nil
}

// Close releases the tape machine.
func (m *model) Close() error {
	if m.vm == nil {
		return nil
	}
	err := m.vm.Close()
	m.vm = nil
	return err
}
