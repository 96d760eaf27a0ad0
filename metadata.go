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
	"encoding/xml"
	"fmt"
	"image"
	_ "image/jpeg" // config decoding convenience for debug artifacts
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	_ "golang.org/x/image/tiff" // registers the tiff format with image.DecodeConfig
)

const (
	referenceWorldFileName = "Orthophotomosaic.tfw"
	metadataFileName       = "MTDOrtho.xml"
	validityPrefix         = "Ort_"
	validityReplacement    = "PC_"
)

// rasterExtensions are probed in order when resolving a world-file's
// matching raster (spec.md §4.1).
var rasterExtensions = []string{"tif", "tiff", "TIF", "TIFF"}

// Resolver implements the Metadata Resolver (MR, spec.md §4.1): it reads
// every world-file in a directory, resolves raster and validity-mask
// paths, and derives canvas offsets and size.
type Resolver struct {
	// Progress is called once per world-file processed. Defaults to
	// ProgressIgnore if nil.
	Progress ProgressFunc
}

// ResolveDirectory scans dir for world-files and returns the finalized
// tiles (offsets already computed) and the derived canvas. A single
// malformed tile fails the entire pipeline — there is no partial
// recovery (spec.md §4.1 Failure mode).
func (r Resolver) ResolveDirectory(dir string) ([]*Tile, Canvas, error) {
	progress := r.Progress
	if progress == nil {
		progress = ProgressIgnore
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, Canvas{}, wrapErr(MetadataMalformed, "unable to read directory", dir, err)
	}

	var hasReference bool
	var referenceWorld WorldFile
	var referenceCanvas Canvas
	var pixelWidth, pixelHeight float64

	refPath := filepath.Join(dir, referenceWorldFileName)
	mtdPath := filepath.Join(dir, metadataFileName)
	if fileExists(refPath) && fileExists(mtdPath) {
		referenceWorld, err = ParseWorldFile(refPath)
		if err != nil {
			return nil, Canvas{}, err
		}
		if err := referenceWorld.EnsureZeroRotation(refPath); err != nil {
			return nil, Canvas{}, err
		}
		referenceCanvas, err = parseMTDOrtho(mtdPath)
		if err != nil {
			return nil, Canvas{}, err
		}
		hasReference = true
		pixelWidth, pixelHeight = referenceWorld.PixelSize()
	}

	var worldFileNames []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".tfw" {
			worldFileNames = append(worldFileNames, e.Name())
		}
	}
	if len(worldFileNames) == 0 {
		return nil, Canvas{}, newErrPath(MetadataMalformed, "no world files found", dir)
	}

	var tiles []*Tile
	for i, name := range worldFileNames {
		if name == referenceWorldFileName {
			continue
		}
		tfwPath := filepath.Join(dir, name)

		record, err := ParseWorldFile(tfwPath)
		if err != nil {
			return nil, Canvas{}, err
		}
		if err := record.EnsureZeroRotation(tfwPath); err != nil {
			return nil, Canvas{}, err
		}

		width, height := record.PixelSize()
		if width <= 0 || height <= 0 {
			return nil, Canvas{}, newErrPath(UnsupportedGeometry, "invalid pixel size", tfwPath)
		}
		if pixelWidth == 0 && pixelHeight == 0 {
			pixelWidth, pixelHeight = width, height
		} else if width != pixelWidth || height != pixelHeight {
			return nil, Canvas{}, newErrPath(ResolutionMismatch,
				fmt.Sprintf("tile uses a different resolution (%.6g x %.6g, expected %.6g x %.6g)",
					width, height, pixelWidth, pixelHeight), tfwPath)
		}

		base := strings.TrimSuffix(name, filepath.Ext(name))
		imagePath := resolveImagePath(dir, base)
		if imagePath == "" {
			// World-files without a matching raster are silently
			// skipped. (The reference world-file itself is already
			// excluded by name above.)
			progress(i + 1)
			continue
		}

		cfg, cfgErr := decodeImageConfig(imagePath)
		if cfgErr != nil {
			return nil, Canvas{}, wrapErr(MissingInput, "failed to read raster header", imagePath, cfgErr)
		}

		tile := &Tile{
			Name:             filepath.Base(imagePath),
			ImagePath:        imagePath,
			ValidityMaskPath: resolveValidityMaskPath(imagePath),
			Width:            cfg.Width,
			Height:           cfg.Height,
		}
		tile.X = int(math.Round(record.TranslateX / pixelWidth))
		tile.Y = int(math.Round(-record.TranslateY / pixelHeight))

		tiles = append(tiles, tile)
		progress(i + 1)
	}

	if len(tiles) == 0 {
		return nil, Canvas{}, newErrPath(CanvasInvalid, "no rasters were resolved", dir)
	}
	if pixelWidth <= 0 || pixelHeight <= 0 {
		return nil, Canvas{}, newErrPath(MetadataMalformed, "missing resolution metadata", dir)
	}

	canvas := finalizeTiles(tiles, hasReference, referenceWorld, referenceCanvas, pixelWidth, pixelHeight)
	log.WithFields(log.Fields{"tiles": len(tiles), "canvas": fmt.Sprintf("%dx%d", canvas.Width, canvas.Height)}).
		Debug("resolved orthomosaic metadata")
	return tiles, canvas, nil
}

// finalizeTiles shifts tile offsets to the canvas origin and derives the
// canvas size, either from the georeferenced mode or the fallback
// bounding-box mode (spec.md §4.1 Canvas derivation).
func finalizeTiles(tiles []*Tile, hasReference bool, referenceWorld WorldFile, referenceCanvas Canvas,
	pixelWidth, pixelHeight float64) Canvas {
	if hasReference {
		refX := int(math.Round(referenceWorld.TranslateX / pixelWidth))
		refY := int(math.Round(-referenceWorld.TranslateY / pixelHeight))
		for _, t := range tiles {
			t.X -= refX
			t.Y -= refY
		}
		if referenceCanvas.Valid() {
			return referenceCanvas
		}
	}

	minX, minY := math.MaxInt, math.MaxInt
	maxX, maxY := math.MinInt, math.MinInt
	for _, t := range tiles {
		if t.X < minX {
			minX = t.X
		}
		if t.Y < minY {
			minY = t.Y
		}
		if t.X+t.Width > maxX {
			maxX = t.X + t.Width
		}
		if t.Y+t.Height > maxY {
			maxY = t.Y + t.Height
		}
	}
	for _, t := range tiles {
		t.X -= minX
		t.Y -= minY
	}
	return Canvas{Width: maxX - minX, Height: maxY - minY}
}

func resolveImagePath(dir, base string) string {
	for _, ext := range rasterExtensions {
		candidate := filepath.Join(dir, base+"."+ext)
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// resolveValidityMaskPath implements spec.md §4.1: if the raster
// filename begins with the literal prefix "Ort_", replace it with
// "PC_" and use the result if it exists.
func resolveValidityMaskPath(imagePath string) string {
	dir := filepath.Dir(imagePath)
	name := filepath.Base(imagePath)
	if !strings.HasPrefix(name, validityPrefix) {
		return ""
	}
	candidate := filepath.Join(dir, validityReplacement+strings.TrimPrefix(name, validityPrefix))
	if fileExists(candidate) {
		return candidate
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func decodeImageConfig(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	return cfg, err
}

// parseMTDOrtho reads the NombrePixels element ("W H") out of an
// MTDOrtho.xml metadata file (spec.md §6). Implemented against the
// stdlib encoding/xml streaming decoder — no XML library appears
// anywhere in the retrieved corpus, so this is the grounded choice by
// the dropped-dependency rule (DESIGN.md).
func parseMTDOrtho(path string) (Canvas, error) {
	f, err := os.Open(path)
	if err != nil {
		return Canvas{}, wrapErr(MetadataMalformed, "unable to open metadata file", path, err)
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "NombrePixels" {
			continue
		}
		var text string
		if err := dec.DecodeElement(&text, &start); err != nil {
			return Canvas{}, wrapErr(MetadataMalformed, "invalid NombrePixels element", path, err)
		}
		parts := strings.Fields(strings.TrimSpace(text))
		if len(parts) != 2 {
			return Canvas{}, newErrPath(MetadataMalformed, "invalid NombrePixels format", path)
		}
		w, wErr := strconv.Atoi(parts[0])
		h, hErr := strconv.Atoi(parts[1])
		if wErr != nil || hErr != nil || w <= 0 || h <= 0 {
			return Canvas{}, newErrPath(MetadataMalformed, "invalid pixel dimensions", path)
		}
		return Canvas{Width: w, Height: h}, nil
	}
	return Canvas{}, newErrPath(MetadataMalformed, "NombrePixels not found", path)
}
