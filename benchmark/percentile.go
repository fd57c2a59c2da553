package benchmark

import (
	"math"

	"github.com/pkg/errors"
)

// Percentile returns the nearest-rank (round-up) percentile p of sorted,
// which must already be in ascending order.
//
// Arguments:
//   - p: The percentile in [0, 100].
//   - sorted: The ascending sample.
//
// Returns:
//   - float64: The element at index ceil((len-1) * p / 100).
//   - error: ErrInvalidInput if sorted is empty or p is out of range.
func Percentile(p float64, sorted []float64) (float64, error) {
	if len(sorted) == 0 {
		return 0, errors.Wrap(ErrInvalidInput, "percentile of empty sample")
	}
	if math.IsNaN(p) || p < 0 || p > 100 {
		return 0, errors.Wrapf(ErrInvalidInput, "percentile %v out of range [0,100]", p)
	}
	idx := int(math.Ceil(float64(len(sorted)-1) * p / 100))
	return sorted[idx], nil
}

// Mean returns the arithmetic mean of sample.
func Mean(sample []float64) (float64, error) {
	if len(sample) == 0 {
		return 0, errors.Wrap(ErrInvalidInput, "mean of empty sample")
	}
	var sum float64
	for _, v := range sample {
		sum += v
	}
	return sum / float64(len(sample)), nil
}
