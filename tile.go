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

import "image"

// Tile is the central entity of the pipeline: one input raster with a
// rectangular placement on the canvas (spec.md §3). Raster and mask
// buffers are transient — loaded just before use and released right
// after (spec.md §3 Lifecycle) — so Tile itself carries only paths and
// placement, never decoded pixel data.
type Tile struct {
	// Name is a short human identifier, usually the raster's file name.
	Name string

	// ImagePath is the path to the raster data (lazy-loaded).
	ImagePath string

	// ValidityMaskPath is the optional path to the preauthored validity
	// mask. Empty if none was resolved.
	ValidityMaskPath string

	// VoronoiMaskPath is the optional path to the generated Voronoi
	// mask. Empty until the mask generator writes one.
	VoronoiMaskPath string

	// X, Y is the top-left offset in canvas pixel coordinates.
	X, Y int

	// Width, Height are the tile dimensions in pixels.
	Width, Height int
}

// Bounds returns the tile's placement as a canvas-space rectangle.
func (t *Tile) Bounds() image.Rectangle {
	return image.Rect(t.X, t.Y, t.X+t.Width, t.Y+t.Height)
}

// Center returns the tile's center in real-valued canvas coordinates,
// cx = x + width/2, cy = y + height/2 (spec.md §4.2).
func (t *Tile) Center() (cx, cy float64) {
	return float64(t.X) + float64(t.Width)/2, float64(t.Y) + float64(t.Height)/2
}

// HasValidityMask reports whether a preauthored validity mask was
// resolved for this tile.
func (t *Tile) HasValidityMask() bool {
	return t.ValidityMaskPath != ""
}

// Canvas is the derived integer pixel grid spanning all tiles. Origin is
// the top-left; the coordinate system is pixels, Y-down (spec.md §3).
type Canvas struct {
	Width, Height int
}

// Rect returns the canvas as an image.Rectangle anchored at the origin.
func (c Canvas) Rect() image.Rectangle {
	return image.Rect(0, 0, c.Width, c.Height)
}

// Valid reports whether the canvas has a positive area, per the
// CanvasInvalid failure mode (spec.md §7).
func (c Canvas) Valid() bool {
	return c.Width > 0 && c.Height > 0
}
