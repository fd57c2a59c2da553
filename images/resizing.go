package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoding
	_ "image/png"  // register PNG decoding
	"os"

	"github.com/chai2010/webp"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// Decoder loads an image file and resizes it to exactly width x height.
type Decoder interface {
	Decode(path string, width, height int) (image.Image, error)
}

// GoDecoder decodes with the standard library codecs plus WebP and resizes
// with nfnt/resize.
type GoDecoder struct {
	// Interpolation is the resampling kernel used for the resize.
	Interpolation resize.InterpolationFunction
}

// NewDecoder returns a GoDecoder using bilinear resampling.
func NewDecoder() *GoDecoder {
	return &GoDecoder{Interpolation: resize.Bilinear}
}

// Decode reads path and returns the image resized to width x height.
func (d *GoDecoder) Decode(path string, width, height int) (image.Image, error) {
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

// DecodeBytes decodes an encoded JPEG, PNG or WebP image and resizes it to
// width x height.
//
// Arguments:
//   - data: The encoded image.
//   - width: The target width.
//   - height: The target height.
//
// Returns:
//   - image.Image: The resized image.
//   - error: An error if the data is empty, undecodable or the size is invalid.
func (d *GoDecoder) DecodeBytes(data []byte, width, height int) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: width=%d, height=%d", width, height)
	}

	var (
		img image.Image
		err error
	)
	switch DetectFormat(data) {
	case FormatWebP:
		img, err = webp.Decode(bytes.NewReader(data))
	default:
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}

	return resize.Resize(uint(width), uint(height), img, d.Interpolation), nil
}
