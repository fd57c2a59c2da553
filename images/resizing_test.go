package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func getTestImage() image.Image {
	// Create a simple 100x100 red image.
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}
	return img
}

func getJPEGBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, getTestImage(), nil))
	return buf.Bytes()
}

func getPNGBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, getTestImage()))
	return buf.Bytes()
}

func getWebPBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	require.NoError(t, webp.Encode(&buf, getTestImage(), &webp.Options{Lossless: true}))
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatJPEG, DetectFormat(getJPEGBytes(t)))
	assert.Equal(t, FormatPNG, DetectFormat(getPNGBytes(t)))
	assert.Equal(t, FormatWebP, DetectFormat(getWebPBytes(t)))
	assert.Equal(t, FormatUnknown, DetectFormat([]byte("not an image")))
	assert.Equal(t, FormatUnknown, DetectFormat(nil))
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJPEG, FormatFromPath("/tmp/dog.JPG"))
	assert.Equal(t, FormatJPEG, FormatFromPath("dog.jpeg"))
	assert.Equal(t, FormatPNG, FormatFromPath("dog.png"))
	assert.Equal(t, FormatWebP, FormatFromPath("dog.webp"))
	assert.Equal(t, FormatUnknown, FormatFromPath("dog.bmp"))
}

func TestGoDecoderFormats(t *testing.T) {
	tests := []struct {
		name string
		data func(*testing.T) []byte
	}{
		{"jpeg", getJPEGBytes},
		{"png", getPNGBytes},
		{"webp", getWebPBytes},
	}
	dec := NewDecoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "input."+tt.name, tt.data(t))

			img, err := dec.Decode(path, 48, 32)
			require.NoError(t, err)
			assert.Equal(t, 48, img.Bounds().Dx())
			assert.Equal(t, 32, img.Bounds().Dy())

			r, g, b, _ := img.At(10, 10).RGBA()
			assert.InDelta(t, 255, r>>8, 6)
			assert.InDelta(t, 0, g>>8, 6)
			assert.InDelta(t, 0, b>>8, 6)
		})
	}
}

func TestGoDecoderErrors(t *testing.T) {
	dec := NewDecoder()

	_, err := dec.Decode(filepath.Join(t.TempDir(), "missing.jpg"), 10, 10)
	assert.Error(t, err)

	_, err = dec.DecodeBytes(nil, 10, 10)
	assert.Error(t, err)

	_, err = dec.DecodeBytes([]byte("not an image"), 10, 10)
	assert.Error(t, err)

	_, err = dec.DecodeBytes(getPNGBytes(t), 0, 10)
	assert.Error(t, err)
}

func TestToCHW(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(1, 0, color.RGBA{R: 40, G: 50, B: 60, A: 255})
	img.Set(0, 1, color.RGBA{R: 70, G: 80, B: 90, A: 255})
	img.Set(1, 1, color.RGBA{R: 100, G: 110, B: 120, A: 255})

	data, err := ToCHW(img, 3)
	require.NoError(t, err)
	assert.Equal(t, []float32{
		10, 40, 70, 100, // R
		20, 50, 80, 110, // G
		30, 60, 90, 120, // B
	}, data)

	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(0, 0, color.Gray{Y: 7})
	gray.SetGray(1, 0, color.Gray{Y: 200})
	data, err = ToCHW(gray, 1)
	require.NoError(t, err)
	assert.Equal(t, []float32{7, 200}, data)

	_, err = ToCHW(img, 4)
	assert.Error(t, err)
}

func TestToCHWOffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 5, 7, 6))
	img.Set(5, 5, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	img.Set(6, 5, color.RGBA{R: 4, G: 5, B: 6, A: 255})

	data, err := ToCHW(img, 3)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, data)
}

func TestLoadTensor(t *testing.T) {
	path := writeFile(t, "dog.png", getPNGBytes(t))

	single, err := LoadTensor(NewDecoder(), path, 3, 16, 24)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 3, 16, 24}, single.Shape())

	data := single.Data().([]float32)
	assert.InDelta(t, 255, data[0], 1, "first red value")
	assert.InDelta(t, 0, data[16*24], 1, "first green value")
}

type fixedDecoder struct{ img image.Image }

func (d fixedDecoder) Decode(string, int, int) (image.Image, error) { return d.img, nil }

func TestLoadTensorRejectsWrongSize(t *testing.T) {
	_, err := LoadTensor(fixedDecoder{img: image.NewRGBA(image.Rect(0, 0, 4, 4))}, "x", 3, 8, 8)
	assert.Error(t, err)
}
