// Package datasets builds per-client image datasets for federated-learning
// experiments on radiology images.
//
// The expected layout on disk is one directory per client, one directory per
// class label inside it, and the JPEG images inside those:
//
//	<clients_root>/<client_id>/<integer_label>/<image_file>.jpg
//
// MakeClientIDs lists the clients. ProvideClientDataFn binds a Config once and
// returns a function producing a lazy ClientDataset for any client id.
// Nothing touches the filesystem until the dataset is iterated: the file
// listing, reading, JPEG decoding and resizing happen on demand, and the first
// complete pass is kept in memory so later epochs are replayed from there.
//
// ClientDataset also implements gomlx's train.Dataset, yielding images shaped
// [batch, height, width, 3] (float32 in [0, 1]) and labels shaped [batch]
// (int64).
package datasets

import "github.com/pkg/errors"

// Channels is the number of color channels of every decoded image.
const Channels = 3

var (
	// ErrInvalidLabel is returned when the class directory of an image is not
	// an integer.
	ErrInvalidLabel = errors.New("invalid label directory")

	// ErrDecode is returned when an image file is not a valid JPEG.
	ErrDecode = errors.New("failed to decode image")

	// ErrNoFiles is returned when a client directory has no image files
	// two levels below it.
	ErrNoFiles = errors.New("no image files found")
)

// Image is a decoded, resized image with float32 pixel values in [0, 1].
// Pix is laid out row-major as [Height][Width][Channels].
type Image struct {
	Width  int
	Height int
	Pix    []float32
}

// NewImage allocates a black image of the given size.
func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*Channels),
	}
}

// Shape returns the tensor shape of the image: [height, width, channels].
func (img *Image) Shape() []int {
	return []int{img.Height, img.Width, Channels}
}

// At returns the value of channel c at pixel (x, y).
func (img *Image) At(x, y, c int) float32 {
	return img.Pix[(y*img.Width+x)*Channels+c]
}

// Set sets the value of channel c at pixel (x, y).
func (img *Image) Set(x, y, c int, v float32) {
	img.Pix[(y*img.Width+x)*Channels+c] = v
}

// Clone returns a deep copy of the image.
func (img *Image) Clone() *Image {
	out := &Image{Width: img.Width, Height: img.Height, Pix: make([]float32, len(img.Pix))}
	copy(out.Pix, img.Pix)
	return out
}

// Example is one labeled image of a client.
type Example struct {
	// Path of the source file.
	Path string

	Image *Image

	// Label is the class id parsed from the image's parent directory.
	Label int64
}

// Batch is one element yielded by a ClientDataset. Without batching it holds
// exactly one example; with batching it holds up to Config.BatchSize examples,
// fewer only for the last batch of a pass.
type Batch struct {
	Examples []Example
}

// Len returns the number of examples in the batch.
func (b Batch) Len() int { return len(b.Examples) }

// Labels returns the labels of the batch, in order.
func (b Batch) Labels() []int64 {
	labels := make([]int64, len(b.Examples))
	for i, ex := range b.Examples {
		labels[i] = ex.Label
	}
	return labels
}

// Paths returns the source file paths of the batch, in order.
func (b Batch) Paths() []string {
	paths := make([]string, len(b.Examples))
	for i, ex := range b.Examples {
		paths[i] = ex.Path
	}
	return paths
}

// AugmentFn transforms one example before batching. It is called
// sequentially, in pipeline order, exactly once per example of an uncached
// pass. Returning an error aborts the pass.
type AugmentFn func(Example) (Example, error)
