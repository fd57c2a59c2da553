package libvips

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngFile(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 0, G: 0, B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(t.TempDir(), "input.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestDecodeExactSize(t *testing.T) {
	// A 2:1 source forced into a square target.
	path := pngFile(t, 200, 100)

	img, err := NewDecoder().Decode(path, 64, 64)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())

	_, _, b, _ := img.At(32, 32).RGBA()
	assert.InDelta(t, 255, b>>8, 2)
}

func TestDecodeForcesAspectRatio(t *testing.T) {
	path := pngFile(t, 200, 100)

	img, err := NewDecoder().Decode(path, 20, 80)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestDecodeErrors(t *testing.T) {
	d := NewDecoder()

	_, err := d.DecodeBytes(nil, 10, 10)
	assert.Error(t, err)

	_, err = d.DecodeBytes([]byte("garbage"), 10, 10)
	assert.Error(t, err)

	_, err = d.Decode(filepath.Join(t.TempDir(), "missing.png"), 10, 10)
	assert.Error(t, err)
}
