package datasets

import (
	"runtime"

	"github.com/pkg/errors"
)

const (
	// DefaultImageWidth is the default width images are resized to.
	DefaultImageWidth = 224
	// DefaultImageHeight is the default height images are resized to.
	DefaultImageHeight = 224
)

// Config holds the settings bound once when building client datasets. The
// same Config is shared by every client built from one ClientDataFn.
type Config struct {
	// ImageWidth and ImageHeight are the exact output dimensions of every
	// image.
	ImageWidth  int
	ImageHeight int

	// Downscale selects the resize variant. When true, images are resampled
	// with an antialiased bilinear filter whose support widens when
	// shrinking. When false, plain bilinear sampling is used.
	Downscale bool

	// BatchSize groups consecutive examples. Zero disables batching, so each
	// yielded Batch holds a single example.
	BatchSize int

	// Augment, if set, is applied to every example before batching.
	Augment AugmentFn

	// Workers bounds the number of files read and decoded concurrently.
	// If zero, runtime.NumCPU() is used.
	Workers int

	// Shuffle randomizes the file order of every uncached pass using Seed.
	// Once the cache is materialized its order is replayed as is.
	Shuffle bool
	Seed    int64
}

// DefaultConfig returns a Config with 224x224 images, downscaling enabled
// and no batching.
func DefaultConfig() Config {
	return Config{
		ImageWidth:  DefaultImageWidth,
		ImageHeight: DefaultImageHeight,
		Downscale:   true,
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.ImageWidth <= 0 || c.ImageHeight <= 0 {
		return errors.Errorf("image size must be positive, got %dx%d", c.ImageWidth, c.ImageHeight)
	}
	if c.BatchSize < 0 {
		return errors.Errorf("batch size must be >= 0, got %d", c.BatchSize)
	}
	if c.Workers < 0 {
		return errors.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	return nil
}

// workers returns the effective decode pool size.
func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

// batchSize returns the effective number of examples per yielded Batch.
func (c Config) batchSize() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	return 1
}
