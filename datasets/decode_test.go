package datasets

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io/fs"
	"path/filepath"
	"testing"
)

// TestLoadImage_ShapeAndRange checks that any input size is resized to the
// requested shape with values in [0, 1], for both resize variants.
func TestLoadImage_ShapeAndRange(t *testing.T) {
	tmp := t.TempDir()
	sizes := [][2]int{{1, 1}, {4, 3}, {8, 6}, {37, 19}, {300, 200}}

	for _, downscale := range []bool{true, false} {
		for i, sz := range sizes {
			path := filepath.Join(tmp, "img", string(rune('a'+i))+".jpg")
			writeJPEG(t, path, sz[0], sz[1], uint8(i))

			img, err := LoadImage(path, 16, 10, downscale)
			if err != nil {
				t.Fatalf("LoadImage(%dx%d, downscale=%v) failed: %v", sz[0], sz[1], downscale, err)
			}
			shape := img.Shape()
			if shape[0] != 10 || shape[1] != 16 || shape[2] != 3 {
				t.Fatalf("unexpected shape for %dx%d: %v", sz[0], sz[1], shape)
			}
			if len(img.Pix) != 10*16*3 {
				t.Fatalf("unexpected pixel buffer length %d", len(img.Pix))
			}
			for j, v := range img.Pix {
				if v < 0 || v > 1 {
					t.Fatalf("pixel %d out of range: %v", j, v)
				}
			}
		}
	}
}

func TestDecodeImage_GrayscaleHasThreeEqualChannels(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 5, 5))
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			gray.SetGray(x, y, color.Gray{Y: 200})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gray, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("encode: %v", err)
	}

	img, err := DecodeImage(buf.Bytes(), 5, 5, true)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			r, g, b := img.At(x, y, 0), img.At(x, y, 1), img.At(x, y, 2)
			if r != g || g != b {
				t.Fatalf("pixel (%d,%d) channels differ: %v %v %v", x, y, r, g, b)
			}
			if r < 0.7 || r > 0.9 {
				t.Fatalf("pixel (%d,%d) unexpected value %v", x, y, r)
			}
		}
	}
}

func TestDecodeImage_SameSizeKeepsContent(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, downscale := range []bool{true, false} {
		img, err := DecodeImage(buf.Bytes(), 4, 4, downscale)
		if err != nil {
			t.Fatalf("DecodeImage failed: %v", err)
		}
		if r, b := img.At(1, 1, 0), img.At(1, 1, 2); r < 0.9 || b > 0.1 {
			t.Fatalf("downscale=%v: expected a red pixel, got r=%v b=%v", downscale, r, b)
		}
	}
}

func TestDecodeImage_Malformed(t *testing.T) {
	_, err := DecodeImage([]byte("definitely not a jpeg"), 4, 4, true)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestLoadImage_MissingFile(t *testing.T) {
	_, err := LoadImage(filepath.Join(t.TempDir(), "missing.jpg"), 4, 4, true)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}
