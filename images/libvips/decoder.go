// Package libvips - libvips-backed image decoding for benchmark inputs.
package libvips

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/cshum/vipsgen/vips"
	"github.com/pkg/errors"
)

// Decoder shrinks images with libvips' thumbnail pipeline.
type Decoder struct{}

// NewDecoder returns a libvips Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode reads path and returns it resized to exactly width x height.
func (d *Decoder) Decode(path string, width, height int) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read image file")
	}
	img, err := d.DecodeBytes(data, width, height)
	if err != nil {
		return nil, errors.Wrapf(err, "image %s", path)
	}
	return img, nil
}

// DecodeBytes thumbnails an encoded image with libvips, forcing the exact
// width x height regardless of the source aspect ratio.
func (d *Decoder) DecodeBytes(data []byte, width, height int) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: width=%d, height=%d", width, height)
	}

	img, err := vips.NewImageFromBuffer(data, &vips.LoadOptions{
		Access: vips.AccessSequential,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load image")
	}
	defer img.Close()

	err = img.ThumbnailImage(width, &vips.ThumbnailImageOptions{
		Height: height,
		Size:   vips.SizeForce,
		FailOn: vips.FailOnError,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to resize image")
	}

	// PNG keeps the thumbnail lossless on the way back into Go.
	encoded, err := img.PngsaveBuffer(&vips.PngsaveBufferOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode resized image")
	}
	if len(encoded) == 0 {
		return nil, fmt.Errorf("failed to encode resized image: empty buffer")
	}

	decoded, err := png.Decode(bytes.NewReader(encoded))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode resized PNG")
	}

	if b := decoded.Bounds(); b.Dx() != width || b.Dy() != height {
		return nil, fmt.Errorf("thumbnail is %dx%d, want %dx%d", b.Dx(), b.Dy(), width, height)
	}
	return decoded, nil
}
