package retawny_test

import (
	"path/filepath"
	"testing"

	"github.com/mercurioimaging/Retawny"
)

// TestVoronoiAdjacentTilesUniformOwnership is scenario S1 (spec.md §8):
// two 10x10 tiles placed edge-to-edge never overlap in canvas space, so
// every valid pixel belongs fully (255) to its own tile.
func TestVoronoiAdjacentTilesUniformOwnership(t *testing.T) {
	dir := t.TempDir()
	a := newTile("a.tif", 0, 0, 10, 10)
	a.ImagePath = filepath.Join(dir, "a.tif")
	b := newTile("b.tif", 10, 0, 10, 10)
	b.ImagePath = filepath.Join(dir, "b.tif")

	mg := retawny.MaskGenerator{OverlapMargin: 2}
	if err := mg.Generate([]*retawny.Tile{a, b}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	maskA, err := retawny.LoadGrayMask(a.VoronoiMaskPath)
	if err != nil {
		t.Fatalf("LoadGrayMask(A) failed: %v", err)
	}
	maskB, err := retawny.LoadGrayMask(b.VoronoiMaskPath)
	if err != nil {
		t.Fatalf("LoadGrayMask(B) failed: %v", err)
	}

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if v := maskA.GrayAt(x, y).Y; v != 255 {
				t.Fatalf("mask A at (%d,%d) = %d, want 255", x, y, v)
			}
			if v := maskB.GrayAt(x, y).Y; v != 255 {
				t.Fatalf("mask B at (%d,%d) = %d, want 255", x, y, v)
			}
		}
	}
}

// TestVoronoiOverlapSeamSymmetric is scenario S2 (spec.md §8): two 10x10
// tiles overlapping by 4px produce complementary masks summing to 255
// inside the seam band, collapsing to pure 255/0 outside it.
func TestVoronoiOverlapSeamSymmetric(t *testing.T) {
	dir := t.TempDir()
	a := newTile("a.tif", 0, 0, 10, 10)
	a.ImagePath = filepath.Join(dir, "a.tif")
	b := newTile("b.tif", 6, 0, 10, 10)
	b.ImagePath = filepath.Join(dir, "b.tif")

	mg := retawny.MaskGenerator{OverlapMargin: 2}
	if err := mg.Generate([]*retawny.Tile{a, b}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	maskA, err := retawny.LoadGrayMask(a.VoronoiMaskPath)
	if err != nil {
		t.Fatalf("LoadGrayMask(A) failed: %v", err)
	}
	maskB, err := retawny.LoadGrayMask(b.VoronoiMaskPath)
	if err != nil {
		t.Fatalf("LoadGrayMask(B) failed: %v", err)
	}

	// Centers are (5,5) and (11,5), so the frontier is X=8 and the band is
	// X in [6, 10]. Canvas-space X=7 is local x=7 in A, local x=1 in B:
	// inside the band, so the two masks should sum close to 255.
	va := int(maskA.GrayAt(7, 5).Y)
	vb := int(maskB.GrayAt(1, 5).Y)
	if sum := va + vb; sum < 250 || sum > 260 {
		t.Errorf("V_A(7,5)+V_B(1,5) = %d, want close to 255 (got A=%d B=%d)", sum, va, vb)
	}

	// Canvas-space X=0 (local x=0 in A only) is far outside the band: A
	// fully owns it.
	if v := maskA.GrayAt(0, 5).Y; v != 255 {
		t.Errorf("mask A at far interior (0,5) = %d, want 255", v)
	}
}

func TestVoronoiRejectsNegativeMargin(t *testing.T) {
	mg := retawny.MaskGenerator{OverlapMargin: -1}
	err := mg.Generate([]*retawny.Tile{newTile("a.tif", 0, 0, 4, 4)})
	if err == nil {
		t.Fatal("expected an error for a negative overlap margin")
	}
	if kind, ok := retawny.KindOf(err); !ok || kind != retawny.InvalidGeometry {
		t.Errorf("expected InvalidGeometry, got %v", err)
	}
}

func TestVoronoiRejectsEmptyTileList(t *testing.T) {
	mg := retawny.MaskGenerator{OverlapMargin: 0}
	err := mg.Generate(nil)
	if err == nil {
		t.Fatal("expected an error for an empty tile list")
	}
	if kind, ok := retawny.KindOf(err); !ok || kind != retawny.InvalidGeometry {
		t.Errorf("expected InvalidGeometry, got %v", err)
	}
}
