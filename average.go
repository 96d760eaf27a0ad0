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
)

// AverageColor descibes the average of several RGB colors.
type AverageColor RGB

// ComputeAverageColor computes the average color of an image.
func ComputeAverageColor(img image.Image) AverageColor {
	// just to be sure we use big integers, depending on the image size we might
	// get problems

	bounds := img.Bounds()

	// don't do anything for empty images
	if bounds.Empty() {
		return AverageColor{}
	}
	var r, g, b uint64
	numPixels := uint64(bounds.Dx() * bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// get generic color
			c := img.At(x, y)
			// convert to internal rgb representation
			rgb := ConvertRGB(c)
			r += uint64(rgb.R)
			g += uint64(rgb.G)
			b += uint64(rgb.B)
		}
	}
	r /= numPixels
	g /= numPixels
	b /= numPixels
	return AverageColor{R: uint8(r), G: uint8(g), B: uint8(b)}
}

// ToColor converts the average into a fully-opaque color.Color, ready to
// paint into a masked-out region of a raster.
func (c AverageColor) ToColor() color.Color {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// ComputeAverageColorMasked computes the average color of img restricted to
// pixels where mask is nonzero. mask must share img's bounds. This is the
// "mean colour under B" step the pipeline driver uses before inpainting
// (spec.md §4.5): unlike ComputeAverageColor, pixels the mask excludes don't
// pull the average toward whatever garbage sits in the tile's dead region.
func ComputeAverageColorMasked(img image.Image, mask *image.Gray) AverageColor {
	bounds := img.Bounds()
	if bounds.Empty() {
		return AverageColor{}
	}
	var r, g, b, numPixels uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if mask.GrayAt(x, y).Y == 0 {
				continue
			}
			rgb := ConvertRGB(img.At(x, y))
			r += uint64(rgb.R)
			g += uint64(rgb.G)
			b += uint64(rgb.B)
			numPixels++
		}
	}
	if numPixels == 0 {
		return ComputeAverageColor(img)
	}
	return AverageColor{R: uint8(r / numPixels), G: uint8(g / numPixels), B: uint8(b / numPixels)}
}
