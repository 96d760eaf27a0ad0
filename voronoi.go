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
	"fmt"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// MaskGenerator implements the Mask Generator (MG, spec.md §4.2): a
// weighted Voronoi-band ownership mask per tile, constrained by each
// tile's validity mask.
type MaskGenerator struct {
	// OverlapMargin is the seam-band half-width in pixels.
	OverlapMargin int

	// Progress is called once per tile completed. Defaults to
	// ProgressIgnore if nil.
	Progress ProgressFunc
}

// voronoiJob is one unit of work: render and write the mask for a
// single tile. The worker-pool shape (jobs channel drained by
// runtime.NumCPU() goroutines, errors reported on a buffered error
// channel) is the teacher's divide.go pattern, repointed at MG's
// per-tile scan since tiles never share mutable state here.
type voronoiJob struct {
	index int
	tile  *Tile
}

// Generate computes and writes a Voronoi mask for every tile, recording
// each written path back into tile.VoronoiMaskPath.
func (g MaskGenerator) Generate(tiles []*Tile) error {
	if g.OverlapMargin < 0 {
		return newErr(InvalidGeometry, "overlap margin must not be negative")
	}
	if len(tiles) == 0 {
		return newErr(InvalidGeometry, "no tiles to process")
	}
	progress := g.Progress
	if progress == nil {
		progress = ProgressIgnore
	}

	validity := make([]*image.Gray, len(tiles))
	for i, t := range tiles {
		if !t.HasValidityMask() {
			continue
		}
		mask, err := LoadGrayMask(t.ValidityMaskPath)
		if err != nil {
			return err
		}
		b := mask.Bounds()
		if b.Dx() != t.Width || b.Dy() != t.Height {
			return newErrPath(MaskShapeMismatch,
				fmt.Sprintf("validity mask is %dx%d, tile is %dx%d", b.Dx(), b.Dy(), t.Width, t.Height),
				t.ValidityMaskPath)
		}
		validity[i] = mask
	}

	jobs := make(chan voronoiJob, BufferSize)
	errorChan := make(chan error, len(tiles))
	done := make(chan int, len(tiles))

	numWorkers := runtime.NumCPU()
	if numWorkers > len(tiles) {
		numWorkers = len(tiles)
	}
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for job := range jobs {
				path, err := g.renderTile(tiles, validity, job.index)
				if err != nil {
					errorChan <- err
					continue
				}
				job.tile.VoronoiMaskPath = path
				done <- job.index
			}
		}()
	}

	for i, t := range tiles {
		jobs <- voronoiJob{index: i, tile: t}
	}
	close(jobs)
	wg.Wait()
	close(errorChan)
	close(done)

	if err, ok := <-errorChan; ok {
		return err
	}
	completed := 0
	for range done {
		completed++
		progress(completed)
	}
	return nil
}

// renderTile computes the Voronoi mask for tiles[index] against every
// tile as a candidate owner, and writes it to disk.
func (g MaskGenerator) renderTile(tiles []*Tile, validity []*image.Gray, index int) (string, error) {
	t := tiles[index]
	out := image.NewGray(image.Rect(0, 0, t.Width, t.Height))
	m := float64(g.OverlapMargin)

	for v := 0; v < t.Height; v++ {
		for u := 0; u < t.Width; u++ {
			if isInvalid(validity[index], u, v) {
				continue
			}

			X, Y := t.X+u, t.Y+v
			dMin, dSecond := math.Inf(1), math.Inf(1)
			owner := -1

			for j, other := range tiles {
				lu, lv := X-other.X, Y-other.Y
				if lu < 0 || lv < 0 || lu >= other.Width || lv >= other.Height {
					continue
				}
				if isInvalid(validity[j], lu, lv) {
					continue
				}
				cx, cy := other.Center()
				d := EuclideanDistance([]float64{float64(X), float64(Y)}, []float64{cx, cy})
				switch {
				case d < dMin:
					dSecond = dMin
					dMin = d
					owner = j
				case d < dSecond:
					dSecond = d
				}
			}

			if owner == -1 {
				// t itself always qualifies as a candidate at its own
				// valid pixels; owner == -1 would mean a logic error.
				continue
			}

			f := (dSecond - dMin) / 2
			var offset float64
			if owner == index {
				offset = f
			} else {
				offset = -f
			}

			out.SetGray(u, v, color.Gray{Y: voronoiSample(offset, m)})
		}
	}

	path := voronoiMaskPath(t.ImagePath)
	if err := SaveGrayTIFF(path, out); err != nil {
		return "", err
	}
	return path, nil
}

// voronoiSample maps an offset-from-frontier (in pixels) and the
// seam-band half-width m to an 8-bit ownership value (spec.md §4.2
// step 6).
func voronoiSample(offset, m float64) uint8 {
	switch {
	case offset >= m:
		return 255
	case offset < -m:
		return 0
	case m == 0:
		return 255
	default:
		v := math.Round(255 * (offset + m) / (2 * m))
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		return uint8(v)
	}
}

func isInvalid(mask *image.Gray, x, y int) bool {
	if mask == nil {
		return false
	}
	return mask.GrayAt(x, y).Y >= 128
}

// voronoiMaskPath derives "<base>_voronoi_mask.tif" alongside the
// raster (spec.md §4.2).
func voronoiMaskPath(imagePath string) string {
	dir := filepath.Dir(imagePath)
	base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	return filepath.Join(dir, base+"_voronoi_mask.tif")
}
