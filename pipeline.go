// Copyright 2018 Fabian Wenzelmann
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package retawny

import (
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Pipeline implements the Pipeline Driver (PD, spec.md §4.5): a
// deterministic, single-threaded orchestrator of MR -> MG -> CMB -> DMB.
type Pipeline struct {
	Config Config

	// Progress, if set, overrides the default progress reporting for
	// every stage (MR resolve, MG generation, and the per-tile feed
	// loop). Defaults to ProgressIgnore if nil and Verbose is false.
	Progress ProgressFunc

	// Verbose, when Progress is nil, builds a LoggerProgressFunc for the
	// Voronoi-generation and per-tile feed stages once their tile count
	// is known, the same way the teacher's CLI defers constructing
	// StdProgressFunc until NumImages() is available.
	Verbose bool

	// DebugDir, if set and Config.Debug is true, receives the preview
	// PNG and run manifest. Defaults to the output file's directory.
	DebugDir string
}

// RunReport summarizes a completed run, written as the debug run
// manifest (SPEC_FULL.md §4).
type RunReport struct {
	RunID             string    `json:"run_id"`
	InputDir          string    `json:"input_dir"`
	OutputPath        string    `json:"output_path"`
	CanvasWidth       int       `json:"canvas_width"`
	CanvasHeight      int       `json:"canvas_height"`
	TileCount         int       `json:"tile_count"`
	NumBandsEffective int       `json:"num_bands_effective"`
	PeakMemoryBytes   uint64    `json:"peak_memory_bytes"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}

// Run executes the full pipeline: resolve metadata, optionally generate
// Voronoi masks, feed every tile through the blender, then emit the
// composite to outputPath.
func (p Pipeline) Run(inputDir, outputPath string) (*RunReport, error) {
	started := time.Now()
	progress := p.Progress
	if progress == nil {
		progress = ProgressIgnore
	}

	resolver := Resolver{Progress: progress}
	tiles, canvas, err := resolver.ResolveDirectory(inputDir)
	if err != nil {
		return nil, err
	}
	if len(tiles) < 2 {
		return nil, newErr(CanvasInvalid, "need at least two tiles to blend")
	}
	if !canvas.Valid() {
		return nil, newErr(CanvasInvalid, "derived canvas size is invalid")
	}

	if ShouldAvoidGPU(p.Config.NumBands, canvas.Width, canvas.Height) {
		log.WithFields(log.Fields{
			"num_bands": p.Config.NumBands,
			"canvas":    canvas,
		}).Info("estimated footprint favors CPU execution; skipping GPU acceleration")
	}

	tileProgress := progress
	if p.Progress == nil && p.Verbose {
		tileProgress = LoggerProgressFunc("blend", len(tiles), 1)
	}

	if p.Config.UseVoronoi {
		mg := MaskGenerator{OverlapMargin: p.Config.OverlapMargin, Progress: tileProgress}
		if err := mg.Generate(tiles); err != nil {
			return nil, err
		}
	}

	blender, err := NewBlender(p.Config.NumBands, p.Config.WeightType)
	if err != nil {
		return nil, err
	}
	if err := blender.Prepare(canvas.Rect()); err != nil {
		return nil, err
	}

	for i, tile := range tiles {
		if err := p.feedTile(blender, tile); err != nil {
			return nil, err
		}
		tileProgress(i + 1)
	}

	composite, _, err := blender.Blend()
	if err != nil {
		return nil, err
	}
	if err := SaveRGBATIFF(outputPath, composite); err != nil {
		return nil, err
	}

	report := &RunReport{
		RunID:             uuid.New().String(),
		InputDir:          inputDir,
		OutputPath:        outputPath,
		CanvasWidth:       canvas.Width,
		CanvasHeight:      canvas.Height,
		TileCount:         len(tiles),
		NumBandsEffective: blender.numBandsEffective,
		PeakMemoryBytes:   RuntimeMemoryReporter{}.PeakBytes(),
		StartedAt:         started,
		FinishedAt:        time.Now(),
	}

	if p.Config.Debug {
		if err := p.writeDebugArtifacts(outputPath, composite, report); err != nil {
			return report, err
		}
	}

	return report, nil
}

// feedTile loads one tile's raster and masks, applies mean-colour
// inpainting under B, converts to int16, and feeds the blender. The
// raster and mask buffers go out of scope (and become eligible for GC)
// as soon as the function returns, preserving the "one resident raster
// at a time" lifecycle invariant (spec.md §3) without needing an
// explicit release call.
func (p Pipeline) feedTile(blender *Blender, tile *Tile) error {
	raster, err := LoadRaster(tile.ImagePath)
	if err != nil {
		return err
	}

	weight, err := p.buildWeightMask(tile, raster)
	if err != nil {
		return err
	}

	blend, err := p.buildBlendMask(tile, weight)
	if err != nil {
		return err
	}

	if countNonZero(blend) == 0 {
		return newErrPath(EmptyMask, "tile contributes zero coverage", tile.ImagePath)
	}

	mean := ComputeAverageColorMasked(raster, blend)
	painted := paintZeroRegion(raster, blend, mean)

	if p.Config.Debug {
		p.dumpDebugMasks(tile, weight, blend)
	}

	plane := intImageToPlane(painted)
	return blender.Feed(plane, weight, blend, image.Pt(tile.X, tile.Y))
}

// buildWeightMask is CMB Mode B, applied to the tile's validity mask
// (or the magenta fallback when none was resolved).
func (p Pipeline) buildWeightMask(tile *Tile, raster image.Image) (*image.Gray, error) {
	if tile.HasValidityMask() {
		mask, err := LoadGrayMask(tile.ValidityMaskPath)
		if err != nil {
			return nil, err
		}
		if mask.Bounds().Dx() != tile.Width || mask.Bounds().Dy() != tile.Height {
			return nil, newErrPath(MaskShapeMismatch, "validity mask dimensions disagree with raster", tile.ValidityMaskPath)
		}
		return BuildFeatheredMask(mask, p.Config.FeatherRadius), nil
	}
	return BuildFallbackMask(raster, p.Config.FeatherRadius), nil
}

// buildBlendMask is CMB Mode A applied to the generated Voronoi mask
// when enabled, or a clone of W per spec.md §9's two-mask abstraction.
func (p Pipeline) buildBlendMask(tile *Tile, weight *image.Gray) (*image.Gray, error) {
	if !p.Config.UseVoronoi || tile.VoronoiMaskPath == "" {
		clone := image.NewGray(weight.Bounds())
		copy(clone.Pix, weight.Pix)
		return clone, nil
	}
	voronoi, err := LoadGrayMask(tile.VoronoiMaskPath)
	if err != nil {
		return nil, err
	}
	if voronoi.Bounds().Dx() != tile.Width || voronoi.Bounds().Dy() != tile.Height {
		return nil, newErrPath(MaskShapeMismatch, "voronoi mask dimensions disagree with raster", tile.VoronoiMaskPath)
	}
	return BuildSharpMask(voronoi), nil
}

func countNonZero(mask *image.Gray) int {
	n := 0
	for _, v := range mask.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// paintZeroRegion fills every pixel where blend == 0 with mean,
// keeping Laplacian energy low at seams (spec.md §4.5 rationale).
func paintZeroRegion(raster image.Image, blend *image.Gray, mean AverageColor) image.Image {
	bounds := raster.Bounds()
	out := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if blend.GrayAt(x, y).Y == 0 {
				out.Set(x, y, mean.ToColor())
			} else {
				out.Set(x, y, raster.At(x, y))
			}
		}
	}
	return out
}

func (p Pipeline) dumpDebugMasks(tile *Tile, weight, blend *image.Gray) {
	dir := filepath.Dir(tile.ImagePath)
	base := strings.TrimSuffix(filepath.Base(tile.ImagePath), filepath.Ext(tile.ImagePath))
	if err := SaveGrayTIFF(filepath.Join(dir, base+"_weight_mask.tif"), weight); err != nil {
		log.WithError(err).Warn("failed writing debug weight mask")
	}
	if err := SaveGrayTIFF(filepath.Join(dir, base+"_blend_mask.tif"), blend); err != nil {
		log.WithError(err).Warn("failed writing debug blend mask")
	}
}

func (p Pipeline) writeDebugArtifacts(outputPath string, composite image.Image, report *RunReport) error {
	dir := p.DebugDir
	if dir == "" {
		dir = filepath.Dir(outputPath)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return wrapErr(IOWriteFailure, "unable to create debug directory", dir, err)
	}

	previewW := uint(composite.Bounds().Dx() / 4)
	previewH := uint(composite.Bounds().Dy() / 4)
	preview := PreviewResizer.Resize(previewW, previewH, composite)
	if err := SavePreviewPNG(filepath.Join(dir, "preview.png"), preview); err != nil {
		return err
	}

	manifestPath := filepath.Join(dir, "run.json")
	f, err := os.Create(manifestPath)
	if err != nil {
		return wrapErr(IOWriteFailure, "unable to create run manifest", manifestPath, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return wrapErr(IOWriteFailure, "failed encoding run manifest", manifestPath, err)
	}
	return nil
}
