package retawny_test

import (
	"image"
	"image/color"
	"os"
	"testing"

	"github.com/mercurioimaging/Retawny"
)

// writeFile writes contents to path, failing the test on error. Shared by
// the world-file and metadata tests that build malformed fixtures by hand.
func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", path, err)
	}
}

// solidGray returns a w x h grayscale image filled with value v.
func solidGray(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// solidRGBA returns a w x h RGBA image filled with c.
func solidRGBA(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// newTile builds a Tile at the given placement, bypassing the metadata
// resolver for tests that only exercise downstream stages.
func newTile(name string, x, y, w, h int) *retawny.Tile {
	return &retawny.Tile{Name: name, X: x, Y: y, Width: w, Height: h}
}
