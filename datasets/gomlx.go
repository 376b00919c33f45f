package datasets

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/pkg/errors"
)

var _ train.Dataset = (*ClientDataset)(nil)

// Name implements train.Dataset.
func (d *ClientDataset) Name() string {
	return fmt.Sprintf("client %s", d.clientID)
}

// Yield implements train.Dataset. It returns:
//
//   - spec: the ClientDataset itself.
//   - inputs: one float32 tensor of images shaped [batch, height, width, 3].
//   - labels: one int64 tensor of labels shaped [batch].
//
// At the end of a pass it returns io.EOF; call Reset to start the next epoch.
func (d *ClientDataset) Yield() (spec any, inputs, labels []*tensors.Tensor, err error) {
	b, err := d.Next()
	if err != nil {
		return nil, nil, nil, err
	}
	flat, err := MakeBatchFlat(b)
	if err != nil {
		return nil, nil, nil, err
	}
	imagesT, labelsT, err := flat.ToGomlxTensors()
	if err != nil {
		return nil, nil, nil, err
	}
	return d, []*tensors.Tensor{imagesT}, []*tensors.Tensor{labelsT}, nil
}

// BatchFlat stores a batch in flat contiguous buffers.
type BatchFlat struct {
	Images    []float32
	Labels    []int64
	BatchSize int
	Height    int
	Width     int
}

// MakeBatchFlat flattens a batch into contiguous buffers. All images must
// share the same size.
func MakeBatchFlat(b Batch) (*BatchFlat, error) {
	if b.Len() == 0 {
		return nil, errors.New("empty batch")
	}
	first := b.Examples[0].Image
	if first == nil {
		return nil, errors.Errorf("example 0 (%s) has no image", b.Examples[0].Path)
	}
	height, width := first.Height, first.Width
	imageSize := height * width * Channels

	flat := &BatchFlat{
		Images:    make([]float32, b.Len()*imageSize),
		Labels:    b.Labels(),
		BatchSize: b.Len(),
		Height:    height,
		Width:     width,
	}
	for i, ex := range b.Examples {
		if ex.Image == nil {
			return nil, errors.Errorf("example %d (%s) has no image", i, ex.Path)
		}
		if ex.Image.Height != height || ex.Image.Width != width || len(ex.Image.Pix) != imageSize {
			return nil, errors.Errorf("inconsistent image size at example %d: expected %dx%d, got %dx%d",
				i, width, height, ex.Image.Width, ex.Image.Height)
		}
		copy(flat.Images[i*imageSize:], ex.Image.Pix)
	}
	return flat, nil
}

// ToGomlxTensors converts the batch to gomlx tensors: images shaped
// [batch, height, width, 3] and labels shaped [batch].
func (b *BatchFlat) ToGomlxTensors() (*tensors.Tensor, *tensors.Tensor, error) {
	if b.BatchSize == 0 {
		return nil, nil, errors.New("empty batch")
	}
	imagesT := tensors.FromFlatDataAndDimensions(b.Images, b.BatchSize, b.Height, b.Width, Channels)
	labelsT := tensors.FromFlatDataAndDimensions(b.Labels, b.BatchSize)
	return imagesT, labelsT, nil
}
