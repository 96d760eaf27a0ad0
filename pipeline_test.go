package retawny_test

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/mercurioimaging/Retawny"
)

func writePipelineTile(t *testing.T, dir, base string, tx, ty float64, w, h int, c color.RGBA) {
	t.Helper()
	writeWorldFileFixture(t, filepath.Join(dir, base+".tfw"), 1, 0, 0, -1, tx, -ty)
	img := solidRGBA(w, h, c)
	if err := retawny.SaveRGBATIFF(filepath.Join(dir, base+".tif"), img); err != nil {
		t.Fatalf("SaveRGBATIFF failed: %v", err)
	}
}

func TestPipelineRunAdjacentTiles(t *testing.T) {
	dir := t.TempDir()
	writePipelineTile(t, dir, "left", 0, 0, 8, 8, color.RGBA{R: 10, G: 10, B: 10, A: 255})
	writePipelineTile(t, dir, "right", 8, 0, 8, 8, color.RGBA{R: 200, G: 200, B: 200, A: 255})

	pipeline := retawny.Pipeline{
		Config: retawny.Config{
			NumBands:      2,
			FeatherRadius: 1,
			OverlapMargin: 0,
			UseVoronoi:    true,
			WeightType:    retawny.WeightFloat32,
		},
	}

	outPath := filepath.Join(dir, "out.tif")
	report, err := pipeline.Run(dir, outPath)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.CanvasWidth != 16 || report.CanvasHeight != 8 {
		t.Errorf("canvas = %dx%d, want 16x8", report.CanvasWidth, report.CanvasHeight)
	}
	if report.TileCount != 2 {
		t.Errorf("TileCount = %d, want 2", report.TileCount)
	}

	composite, err := retawny.LoadRaster(outPath)
	if err != nil {
		t.Fatalf("LoadRaster(output) failed: %v", err)
	}
	left := composite.At(1, 4)
	right := composite.At(14, 4)
	lr, lg, lb, _ := left.RGBA()
	rr, rg, rb, _ := right.RGBA()
	if lr>>8 > 60 || lg>>8 > 60 || lb>>8 > 60 {
		t.Errorf("left-interior pixel = (%d,%d,%d), want near (10,10,10)", lr>>8, lg>>8, lb>>8)
	}
	if rr>>8 < 150 || rg>>8 < 150 || rb>>8 < 150 {
		t.Errorf("right-interior pixel = (%d,%d,%d), want near (200,200,200)", rr>>8, rg>>8, rb>>8)
	}
}

func TestPipelineRunVerboseDoesNotError(t *testing.T) {
	dir := t.TempDir()
	writePipelineTile(t, dir, "left", 0, 0, 4, 4, color.RGBA{R: 10, G: 10, B: 10, A: 255})
	writePipelineTile(t, dir, "right", 4, 0, 4, 4, color.RGBA{R: 200, G: 200, B: 200, A: 255})

	pipeline := retawny.Pipeline{
		Config:  retawny.DefaultConfig(),
		Verbose: true,
	}
	if _, err := pipeline.Run(dir, filepath.Join(dir, "out.tif")); err != nil {
		t.Fatalf("Run with Verbose=true failed: %v", err)
	}
}

func TestPipelineRunRequiresTwoTiles(t *testing.T) {
	dir := t.TempDir()
	writePipelineTile(t, dir, "only", 0, 0, 4, 4, color.RGBA{R: 1, G: 2, B: 3, A: 255})

	pipeline := retawny.Pipeline{Config: retawny.DefaultConfig()}
	_, err := pipeline.Run(dir, filepath.Join(dir, "out.tif"))
	if err == nil {
		t.Fatal("expected CanvasInvalid for a single-tile directory")
	}
	if kind, ok := retawny.KindOf(err); !ok || kind != retawny.CanvasInvalid {
		t.Errorf("expected CanvasInvalid, got %v", err)
	}
}

// TestPipelineRunEmptyMaskAborts exercises the pipeline driver's
// no-recovery failure policy (spec.md §7): a tile whose validity mask
// is entirely invalid yields zero coverage and aborts the whole run.
func TestPipelineRunEmptyMaskAborts(t *testing.T) {
	dir := t.TempDir()
	writePipelineTile(t, dir, "Ort_left", 0, 0, 4, 4, color.RGBA{R: 9, G: 9, B: 9, A: 255})
	// An all-white (>=128) validity mask marks every pixel invalid.
	invalid := solidGray(4, 4, 255)
	if err := retawny.SaveGrayTIFF(filepath.Join(dir, "PC_left.tif"), invalid); err != nil {
		t.Fatalf("SaveGrayTIFF(validity) failed: %v", err)
	}
	writePipelineTile(t, dir, "right", 4, 0, 4, 4, color.RGBA{R: 9, G: 9, B: 9, A: 255})

	pipeline := retawny.Pipeline{Config: retawny.DefaultConfig()}
	_, err := pipeline.Run(dir, filepath.Join(dir, "out.tif"))
	if err == nil {
		t.Fatal("expected EmptyMask for a tile with no valid coverage")
	}
	if kind, ok := retawny.KindOf(err); !ok || kind != retawny.EmptyMask {
		t.Errorf("expected EmptyMask, got %v", err)
	}
}
