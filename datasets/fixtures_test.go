package datasets

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

// writeJPEG writes a width x height JPEG gradient at path, creating parent
// directories. seed shifts the colors so files have distinct content.
func writeJPEG(t *testing.T, path string, width, height int, seed uint8) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x*255/max(width-1, 1)) + seed,
				G: uint8(y*255/max(height-1, 1)),
				B: seed * 3,
				A: 255,
			})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create jpeg %s: %v", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("failed to encode jpeg %s: %v", path, err)
	}
}

// writeFile writes raw bytes at path, creating parent directories.
func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// testConfig returns a small configuration suitable for tests.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ImageWidth = 8
	cfg.ImageHeight = 6
	cfg.Workers = 2
	return cfg
}

// drain iterates one pass of ds and returns every batch.
func drain(t *testing.T, ds *ClientDataset) []Batch {
	t.Helper()
	var out []Batch
	for b, err := range ds.All() {
		if err != nil {
			t.Fatalf("iteration of %s failed: %v", ds.Name(), err)
		}
		out = append(out, b)
	}
	return out
}
