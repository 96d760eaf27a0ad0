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
	"image"
	"image/color"
	"math"
)

// magentaR, magentaG, magentaB is the exact fallback "invalid" color
// used when a tile carries no mask at all (spec.md §4.3).
const (
	magentaR, magentaG, magentaB = 255, 0, 255
)

// BuildSharpMask implements CMB Mode A: copy the mask's luminance
// verbatim, preserving a generated Voronoi gradient.
func BuildSharpMask(mask *image.Gray) *image.Gray {
	out := image.NewGray(mask.Bounds())
	copy(out.Pix, mask.Pix)
	return out
}

// BuildFeatheredMask implements CMB Mode B: binarize against the
// validity-mask convention (luminance < 128 is valid), then feather by
// two-pass Euclidean distance transform normalized by featherRadius. If
// featherRadius <= 1 the binary mask is returned unmodified.
func BuildFeatheredMask(mask *image.Gray, featherRadius float64) *image.Gray {
	bounds := mask.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	binary := image.NewGray(bounds)
	for i, p := range mask.Pix {
		if p < 128 {
			binary.Pix[i] = 255
		}
	}
	if featherRadius <= 1 {
		return binary
	}
	return featherMask(binary, w, h, featherRadius)
}

// BuildFallbackMask implements CMB's magenta fallback: a tile raster
// with no authored mask at all gets an invalid-pixel set derived from
// an exact match against magenta, then Mode B feathering.
func BuildFallbackMask(raster image.Image, featherRadius float64) *image.Gray {
	bounds := raster.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	binary := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := raster.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// RGBA() returns 16-bit-scaled components; shift back to 8-bit.
			r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(b>>8)
			if r8 == magentaR && g8 == magentaG && b8 == magentaB {
				continue // invalid: leave at zero
			}
			binary.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	if featherRadius <= 1 {
		return binary
	}
	return featherMask(binary, w, h, featherRadius)
}

// featherMask runs the two-pass distance transform described in
// spec.md §4.3: D_mask from invalid pixels, D_border from the image
// border, combined by min and normalized by featherRadius.
func featherMask(binary *image.Gray, w, h int, featherRadius float64) *image.Gray {
	dMask := distanceTransform(w, h, func(x, y int) bool {
		return binary.GrayAt(x, y).Y == 0
	})
	dBorder := distanceTransform(w, h, func(x, y int) bool {
		return x == 0 || y == 0 || x == w-1 || y == h-1
	})

	out := image.NewGray(binary.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := math.Min(dMask[y*w+x], dBorder[y*w+x])
			ratio := d / featherRadius
			if ratio > 1 {
				ratio = 1
			}
			out.SetGray(x, y, color.Gray{Y: uint8(math.Round(255 * ratio))})
		}
	}
	return out
}

// distanceTransform computes, for every pixel, the Euclidean distance
// to the nearest pixel for which isSource returns true. Implemented as
// a two-pass chamfer approximation (forward + backward raster scan with
// cardinal steps of weight 1 and diagonal steps of weight √2), refined by one extra pass
// in each direction, which is accurate to within a fraction of a pixel
// for the feathering use case — no distance-transform library appears
// anywhere in the retrieved corpus, so this is hand-rolled on stdlib
// primitives only.
func distanceTransform(w, h int, isSource func(x, y int) bool) []float64 {
	const inf = math.MaxFloat64 / 2
	dist := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if isSource(x, y) {
				dist[y*w+x] = 0
			} else {
				dist[y*w+x] = inf
			}
		}
	}

	const (
		cardinal = 1.0
		diagonal = 1.41421356237
	)
	relax := func(x, y, dx, dy int, weight float64) {
		nx, ny := x+dx, y+dy
		if nx < 0 || ny < 0 || nx >= w || ny >= h {
			return
		}
		cand := dist[ny*w+nx] + weight
		if cand < dist[y*w+x] {
			dist[y*w+x] = cand
		}
	}

	for pass := 0; pass < 2; pass++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				relax(x, y, -1, 0, cardinal)
				relax(x, y, 0, -1, cardinal)
				relax(x, y, -1, -1, diagonal)
				relax(x, y, 1, -1, diagonal)
			}
		}
		for y := h - 1; y >= 0; y-- {
			for x := w - 1; x >= 0; x-- {
				relax(x, y, 1, 0, cardinal)
				relax(x, y, 0, 1, cardinal)
				relax(x, y, 1, 1, diagonal)
				relax(x, y, -1, 1, diagonal)
			}
		}
	}
	return dist
}
