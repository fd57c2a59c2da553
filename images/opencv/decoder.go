// Package opencv - OpenCV-backed image decoding for benchmark inputs.
package opencv

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Decoder reads and resizes images with OpenCV.
type Decoder struct {
	// Interpolation is the OpenCV resize interpolation.
	Interpolation gocv.InterpolationFlags
}

// NewDecoder returns a Decoder using bilinear interpolation.
func NewDecoder() *Decoder {
	return &Decoder{Interpolation: gocv.InterpolationLinear}
}

// Decode reads path as a 3-channel image and resizes it to width x height.
//
// Arguments:
//   - path: The image file.
//   - width: The target width.
//   - height: The target height.
//
// Returns:
//   - image.Image: The resized image in RGBA.
//   - error: An error if the file cannot be read or converted.
func (d *Decoder) Decode(path string, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: width=%d, height=%d", width, height)
	}

	src := gocv.IMRead(path, gocv.IMReadColor)
	defer src.Close()
	if src.Empty() {
		return nil, fmt.Errorf("failed to read image %s", path)
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(src, &dst, image.Pt(width, height), 0, 0, d.Interpolation)
	if dst.Empty() {
		return nil, fmt.Errorf("failed to resize image %s", path)
	}

	// ToImage maps the BGR Mat to RGBA.
	img, err := dst.ToImage()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to convert image %s", path)
	}
	return img, nil
}
