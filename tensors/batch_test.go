package tensors

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func testImage(t *testing.T, c, h, w int) *tensor.Dense {
	t.Helper()
	data := make([]float32, c*h*w)
	for i := range data {
		data[i] = float32((i * 37) % 256)
	}
	img, err := FromCHW(data, c, h, w)
	require.NoError(t, err)
	return img
}

func TestFromCHW(t *testing.T) {
	img := testImage(t, 3, 4, 5)
	assert.Equal(t, tensor.Shape{1, 3, 4, 5}, img.Shape())
	assert.Equal(t, tensor.Float32, img.Dtype())

	_, err := FromCHW(make([]float32, 10), 3, 4, 5)
	assert.True(t, errors.Is(err, ErrInvalidBatch))

	_, err = FromCHW(nil, 0, 4, 5)
	assert.True(t, errors.Is(err, ErrInvalidBatch))

	bad := make([]float32, 3*2*2)
	bad[7] = math32.NaN()
	_, err = FromCHW(bad, 3, 2, 2)
	assert.True(t, errors.Is(err, ErrInvalidBatch))

	bad[7] = math32.Inf(1)
	_, err = FromCHW(bad, 3, 2, 2)
	assert.True(t, errors.Is(err, ErrInvalidBatch))
}

func TestBuildBatchIdentity(t *testing.T) {
	img := testImage(t, 3, 8, 8)

	batch, err := BuildBatch(img, 1)
	require.NoError(t, err)
	assert.Same(t, img, batch)
}

func TestBuildBatchReplicates(t *testing.T) {
	c, h, w := 3, 6, 7
	img := testImage(t, c, h, w)
	src := img.Data().([]float32)

	for _, n := range []int{2, 3, 4, 8, 16} {
		batch, err := BuildBatch(img, n)
		require.NoError(t, err)
		assert.Equal(t, tensor.Shape{n, c, h, w}, batch.Shape())

		data := batch.Data().([]float32)
		require.Len(t, data, n*c*h*w)
		per := c * h * w
		for slot := 0; slot < n; slot++ {
			assert.Equal(t, src, data[slot*per:(slot+1)*per], "slot %d differs from source", slot)
		}
	}

	// The source is untouched by concatenation.
	assert.Equal(t, tensor.Shape{1, c, h, w}, img.Shape())
}

func TestBuildBatchErrors(t *testing.T) {
	img := testImage(t, 3, 4, 4)

	_, err := BuildBatch(img, 0)
	assert.True(t, errors.Is(err, ErrInvalidBatch))

	_, err = BuildBatch(nil, 2)
	assert.True(t, errors.Is(err, ErrInvalidBatch))

	pair, err := BuildBatch(img, 2)
	require.NoError(t, err)
	_, err = BuildBatch(pair, 2)
	assert.True(t, errors.Is(err, ErrInvalidBatch), "source batch must be a single image")

	flat := tensor.New(tensor.WithShape(3, 4, 4), tensor.WithBacking(make([]float32, 48)))
	_, err = BuildBatch(flat, 2)
	assert.True(t, errors.Is(err, ErrInvalidBatch))
}
