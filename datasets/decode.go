package datasets

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// LoadImage reads the JPEG file at path and returns it resized to exactly
// width x height, with 3 channels and values in [0, 1]. See Config.Downscale
// for the meaning of downscale.
func LoadImage(path string, width, height int, downscale bool) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read image")
	}
	img, err := DecodeImage(data, width, height, downscale)
	if err != nil {
		return nil, errors.Wrapf(err, "while reading %s", path)
	}
	return img, nil
}

// DecodeImage decodes JPEG data and resizes it. Grayscale and CMYK images are
// converted to RGB.
func DecodeImage(data []byte, width, height int, downscale bool) (*Image, error) {
	src, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "%v", err)
	}
	return toFloatImage(resize(src, width, height, downscale)), nil
}

// resize scales src to exactly width x height using bilinear interpolation.
func resize(src image.Image, width, height int, downscale bool) *image.NRGBA {
	if downscale {
		return imaging.Resize(src, width, height, imaging.Linear)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// toFloatImage drops the alpha channel and maps 8-bit values to [0, 1].
func toFloatImage(src *image.NRGBA) *Image {
	bounds := src.Bounds()
	img := NewImage(bounds.Dx(), bounds.Dy())
	for y := 0; y < img.Height; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+img.Width*4]
		out := img.Pix[y*img.Width*Channels : (y+1)*img.Width*Channels]
		for x := 0; x < img.Width; x++ {
			out[x*Channels] = float32(row[x*4]) / 255
			out[x*Channels+1] = float32(row[x*4+1]) / 255
			out[x*Channels+2] = float32(row[x*4+2]) / 255
		}
	}
	return img
}
