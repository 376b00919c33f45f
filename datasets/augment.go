package datasets

import "math/rand"

// FlipHorizontal returns an AugmentFn that mirrors each image left to right
// with probability 0.5, drawing from rng. The input image is not modified.
func FlipHorizontal(rng *rand.Rand) AugmentFn {
	return func(ex Example) (Example, error) {
		if rng.Intn(2) == 0 {
			return ex, nil
		}
		ex.Image = mirror(ex.Image)
		return ex, nil
	}
}

// mirror returns a copy of img flipped along the vertical axis.
func mirror(img *Image) *Image {
	out := NewImage(img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			src := (y*img.Width + x) * Channels
			dst := (y*img.Width + img.Width - 1 - x) * Channels
			copy(out.Pix[dst:dst+Channels], img.Pix[src:src+Channels])
		}
	}
	return out
}

// Compose chains augmentations, applied left to right. Nil entries are
// skipped.
func Compose(fns ...AugmentFn) AugmentFn {
	return func(ex Example) (Example, error) {
		var err error
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if ex, err = fn(ex); err != nil {
				return Example{}, err
			}
		}
		return ex, nil
	}
}
