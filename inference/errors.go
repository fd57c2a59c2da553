package inference

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrModelLoad classifies failures to load or bind a checkpoint.
	ErrModelLoad = errors.New("model load failed")
	// ErrInference classifies failures of a prediction call.
	ErrInference = errors.New("inference failed")
)

// LoadError reports a checkpoint that could not be bound to the expected
// input shape.
type LoadError struct {
	Path  string
	Shape [4]int
	Err   error
}

// NewLoadError wraps err with the model path and expected shape.
func NewLoadError(path string, shape [4]int, err error) *LoadError {
	return &LoadError{Path: path, Shape: shape, Err: err}
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load model %s for input shape %v: %v", e.Path, e.Shape, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }

// Is reports whether target is ErrModelLoad.
func (e *LoadError) Is(target error) bool { return target == ErrModelLoad }

// PredictError reports a prediction that failed on a bound model.
type PredictError struct {
	Path  string
	Shape [4]int
	Err   error
}

// NewPredictError wraps err with the model path and bound shape.
func NewPredictError(path string, shape [4]int, err error) *PredictError {
	return &PredictError{Path: path, Shape: shape, Err: err}
}

func (e *PredictError) Error() string {
	return fmt.Sprintf("predict with model %s (input shape %v): %v", e.Path, e.Shape, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PredictError) Unwrap() error { return e.Err }

// Is reports whether target is ErrInference.
func (e *PredictError) Is(target error) bool { return target == ErrInference }
