// Package images - Image decoding and tensor layout for benchmark inputs.
package images

import (
	"fmt"
	"image"
	"image/color"

	"github.com/nvr-ai/ssdbench/tensors"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ToCHW lays an image out channel-first with raw 0-255 values.
//
// Three channels produce R, G, B planes. One channel produces a luminance
// plane.
//
// Arguments:
//   - img: The source image.
//   - channels: 1 or 3.
//
// Returns:
//   - []float32: channels*height*width values.
//   - error: An error for an unsupported channel count.
func ToCHW(img image.Image, channels int) ([]float32, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := w * h

	switch channels {
	case 1:
		out := make([]float32, plane)
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
				out[i] = float32(g.Y)
				i++
			}
		}
		return out, nil
	case 3:
		out := make([]float32, 3*plane)
		red := out[0:plane]
		green := out[plane : 2*plane]
		blue := out[2*plane : 3*plane]
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := img.At(x, y).RGBA()
				red[i] = float32(r >> 8)
				green[i] = float32(g >> 8)
				blue[i] = float32(bl >> 8)
				i++
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported channel count %d (want 1 or 3)", channels)
	}
}

// LoadTensor decodes path with dec and returns a (1, channels, height, width)
// tensor ready for batching.
func LoadTensor(dec Decoder, path string, channels, height, width int) (*tensor.Dense, error) {
	img, err := dec.Decode(path, width, height)
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
		return nil, fmt.Errorf("decoder returned %dx%d, want %dx%d", b.Dx(), b.Dy(), width, height)
	}
	data, err := ToCHW(img, channels)
	if err != nil {
		return nil, err
	}
	t, err := tensors.FromCHW(data, channels, height, width)
	if err != nil {
		return nil, errors.Wrap(err, "build input tensor")
	}
	return t, nil
}
