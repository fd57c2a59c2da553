package benchmark

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentileProperties(t *testing.T) {
	samples := [][]float64{
		{7},
		{1, 2},
		{0.010, 0.020, 0.030},
		{1, 1, 2, 3, 5, 8, 13, 21, 34, 55},
		{0.5, 0.6, 0.6, 0.6, 0.9, 1.2, 4.0},
	}
	for _, s := range samples {
		prev, err := Percentile(0, s)
		require.NoError(t, err)
		assert.Equal(t, s[0], prev, "p0 is the minimum")

		for _, p := range []float64{50, 90, 99, 100} {
			v, err := Percentile(p, s)
			require.NoError(t, err)
			assert.Contains(t, s, v)
			assert.GreaterOrEqual(t, v, prev, "p%v not monotonic", p)
			prev = v
		}
		assert.Equal(t, s[len(s)-1], prev, "p100 is the maximum")
	}
}

func TestPercentileNearestRank(t *testing.T) {
	s := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 10},
		{10, 20}, // ceil(0.9) = 1
		{50, 60}, // ceil(4.5) = 5
		{90, 100},
		{99, 100},
		{100, 100},
	}
	for _, tt := range tests {
		got, err := Percentile(tt.p, s)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "p%v", tt.p)
	}
}

func TestPercentileInvalidInput(t *testing.T) {
	_, err := Percentile(50, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = Percentile(50, []float64{})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = Percentile(-1, []float64{1})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = Percentile(100.5, []float64{1})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestMean(t *testing.T) {
	m, err := Mean([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 2.5, m)

	_, err = Mean(nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
