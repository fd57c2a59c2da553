// Package tensors - Input tensor construction for batched predictions.
package tensors

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ErrInvalidBatch reports a source tensor or batch size that cannot form a
// (batch, channels, height, width) input.
var ErrInvalidBatch = errors.New("invalid batch")

// FromCHW wraps channel-first pixel data as a (1, c, h, w) float32 tensor.
//
// Arguments:
//   - data: c*h*w values in channel, row, column order.
//   - c, h, w: The channel count, height and width.
//
// Returns:
//   - *tensor.Dense: The single-image tensor backed by data.
//   - error: ErrInvalidBatch on a size mismatch or a non-finite value.
func FromCHW(data []float32, c, h, w int) (*tensor.Dense, error) {
	if c <= 0 || h <= 0 || w <= 0 {
		return nil, errors.Wrapf(ErrInvalidBatch, "non-positive dimensions %dx%dx%d", c, h, w)
	}
	if len(data) != c*h*w {
		return nil, errors.Wrapf(ErrInvalidBatch, "%d values do not fill %dx%dx%d", len(data), c, h, w)
	}
	for i, v := range data {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return nil, errors.Wrapf(ErrInvalidBatch, "non-finite value at offset %d", i)
		}
	}
	return tensor.New(tensor.WithShape(1, c, h, w), tensor.WithBacking(data)), nil
}

// BuildBatch replicates a single image along the batch axis.
//
// A batch size of 1 returns single unchanged. Larger sizes concatenate
// copies of single along axis 0, so every slot of the result is identical
// to the source.
//
// Arguments:
//   - single: A (1, c, h, w) tensor.
//   - n: The batch size, at least 1.
//
// Returns:
//   - *tensor.Dense: The (n, c, h, w) batch.
//   - error: ErrInvalidBatch if the source or n is unusable.
func BuildBatch(single *tensor.Dense, n int) (*tensor.Dense, error) {
	if single == nil {
		return nil, errors.Wrap(ErrInvalidBatch, "nil source tensor")
	}
	if n < 1 {
		return nil, errors.Wrapf(ErrInvalidBatch, "batch size %d must be at least 1", n)
	}
	shape := single.Shape()
	if shape.Dims() != 4 || shape[0] != 1 {
		return nil, errors.Wrapf(ErrInvalidBatch, "source shape %v is not (1, c, h, w)", shape)
	}
	if n == 1 {
		return single, nil
	}

	others := make([]*tensor.Dense, n-1)
	for i := range others {
		others[i] = single
	}
	batch, err := single.Concat(0, others...)
	if err != nil {
		return nil, errors.Wrapf(err, "concatenate %d copies", n)
	}
	return batch, nil
}
