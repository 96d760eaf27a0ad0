package retawny_test

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/mercurioimaging/Retawny"
)

func writeWorldFileFixture(t *testing.T, path string, scaleX, rotY, rotX, scaleY, tx, ty float64) {
	t.Helper()
	contents := fmt.Sprintf("%.10f\n%.10f\n%.10f\n%.10f\n%.10f\n%.10f\n", scaleX, rotY, rotX, scaleY, tx, ty)
	writeFile(t, path, contents)
}

func writeRasterFixture(t *testing.T, path string, w, h int) {
	t.Helper()
	img := solidRGBA(w, h, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	if err := retawny.SaveRGBATIFF(path, img); err != nil {
		t.Fatalf("SaveRGBATIFF fixture failed: %v", err)
	}
}

// TestResolveDirectoryFallbackBoundingBox is scenario S4 (spec.md §8):
// with no reference world-file, the canvas derives from the tiles' own
// bounding box and every tile's offset shifts to the canvas origin.
func TestResolveDirectoryFallbackBoundingBox(t *testing.T) {
	dir := t.TempDir()
	writeWorldFileFixture(t, filepath.Join(dir, "tile1.tfw"), 1, 0, 0, -1, 5, -5)
	writeRasterFixture(t, filepath.Join(dir, "tile1.tif"), 4, 4)
	writeWorldFileFixture(t, filepath.Join(dir, "tile2.tfw"), 1, 0, 0, -1, 9, -5)
	writeRasterFixture(t, filepath.Join(dir, "tile2.tif"), 4, 4)

	resolver := retawny.Resolver{}
	tiles, canvas, err := resolver.ResolveDirectory(dir)
	if err != nil {
		t.Fatalf("ResolveDirectory failed: %v", err)
	}
	if canvas.Width != 8 || canvas.Height != 4 {
		t.Errorf("canvas = %dx%d, want 8x4", canvas.Width, canvas.Height)
	}
	if len(tiles) != 2 {
		t.Fatalf("len(tiles) = %d, want 2", len(tiles))
	}

	byName := map[string]*retawny.Tile{}
	for _, tile := range tiles {
		byName[tile.Name] = tile
	}
	if tile := byName["tile1.tif"]; tile == nil || tile.X != 0 {
		t.Errorf("tile1.X = %v, want 0", tile)
	}
	if tile := byName["tile2.tif"]; tile == nil || tile.X != 4 {
		t.Errorf("tile2.X = %v, want 4", tile)
	}
}

// TestResolveDirectoryRejectsNonzeroRotation is scenario S6 (spec.md
// §8): a world-file with a nonzero rotation component fails exactly,
// with no tolerance.
func TestResolveDirectoryRejectsNonzeroRotation(t *testing.T) {
	dir := t.TempDir()
	writeWorldFileFixture(t, filepath.Join(dir, "tile1.tfw"), 1, 1e-6, 0, -1, 0, 0)
	writeRasterFixture(t, filepath.Join(dir, "tile1.tif"), 4, 4)
	writeWorldFileFixture(t, filepath.Join(dir, "tile2.tfw"), 1, 0, 0, -1, 4, 0)
	writeRasterFixture(t, filepath.Join(dir, "tile2.tif"), 4, 4)

	resolver := retawny.Resolver{}
	_, _, err := resolver.ResolveDirectory(dir)
	if err == nil {
		t.Fatal("expected UnsupportedGeometry for a nonzero rotation component")
	}
	if kind, ok := retawny.KindOf(err); !ok || kind != retawny.UnsupportedGeometry {
		t.Errorf("expected UnsupportedGeometry, got %v", err)
	}
}

func TestResolveDirectoryRejectsResolutionMismatch(t *testing.T) {
	dir := t.TempDir()
	writeWorldFileFixture(t, filepath.Join(dir, "tile1.tfw"), 1, 0, 0, -1, 0, 0)
	writeRasterFixture(t, filepath.Join(dir, "tile1.tif"), 4, 4)
	writeWorldFileFixture(t, filepath.Join(dir, "tile2.tfw"), 2, 0, 0, -2, 4, 0)
	writeRasterFixture(t, filepath.Join(dir, "tile2.tif"), 4, 4)

	resolver := retawny.Resolver{}
	_, _, err := resolver.ResolveDirectory(dir)
	if err == nil {
		t.Fatal("expected ResolutionMismatch for differing pixel scales")
	}
	if kind, ok := retawny.KindOf(err); !ok || kind != retawny.ResolutionMismatch {
		t.Errorf("expected ResolutionMismatch, got %v", err)
	}
}

func TestResolveDirectoryRejectsEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	resolver := retawny.Resolver{}
	_, _, err := resolver.ResolveDirectory(dir)
	if err == nil {
		t.Fatal("expected an error for a directory with no world files")
	}
	if kind, ok := retawny.KindOf(err); !ok || kind != retawny.MetadataMalformed {
		t.Errorf("expected MetadataMalformed, got %v", err)
	}
}

func TestResolveDirectoryResolvesValidityMask(t *testing.T) {
	dir := t.TempDir()
	writeWorldFileFixture(t, filepath.Join(dir, "Ort_tile1.tfw"), 1, 0, 0, -1, 0, 0)
	writeRasterFixture(t, filepath.Join(dir, "Ort_tile1.tif"), 4, 4)
	writeRasterFixture(t, filepath.Join(dir, "PC_tile1.tif"), 4, 4)
	writeWorldFileFixture(t, filepath.Join(dir, "Ort_tile2.tfw"), 1, 0, 0, -1, 4, 0)
	writeRasterFixture(t, filepath.Join(dir, "Ort_tile2.tif"), 4, 4)

	resolver := retawny.Resolver{}
	tiles, _, err := resolver.ResolveDirectory(dir)
	if err != nil {
		t.Fatalf("ResolveDirectory failed: %v", err)
	}

	var found bool
	for _, tile := range tiles {
		if tile.Name == "Ort_tile1.tif" {
			found = true
			if !tile.HasValidityMask() {
				t.Error("Ort_tile1.tif should have resolved a PC_tile1.tif validity mask")
			}
		}
		if tile.Name == "Ort_tile2.tif" && tile.HasValidityMask() {
			t.Error("Ort_tile2.tif has no PC_ counterpart on disk and should have no validity mask")
		}
	}
	if !found {
		t.Fatal("Ort_tile1.tif was not resolved")
	}
}

func TestResolveDirectoryMissingDirectory(t *testing.T) {
	resolver := retawny.Resolver{}
	_, _, err := resolver.ResolveDirectory(filepath.Join(os.TempDir(), "does-not-exist-xyz"))
	if err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
