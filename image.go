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

	"github.com/nfnt/resize"
)

// RGB is a color containing r, g and b components.
type RGB struct {
	R, G, B uint8
}

// ConvertRGB converts a generic color into the internal RGB representation.
func ConvertRGB(c color.Color) RGB {
	// convert to rgba model
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	// convert to internal rgb representation
	return RGB{R: rgba.R, G: rgba.G, B: rgba.B}
}

// ImageResizer resizes an image to the given width and height. The blender
// never resamples a tile's own raster (tiles keep native resolution, see
// spec.md §3); the only consumer of a resizer is the pipeline's optional
// debug preview, which downsamples the final composite for a quick look.
type ImageResizer interface {
	Resize(width, height uint, img image.Image) image.Image
}

// NfntResizer uses the nfnt/resize package to resize an image.
type NfntResizer struct {
	// InterP is the interpolation function to use.
	InterP resize.InterpolationFunction
}

// NewNfntResizer returns a new resizer given the interpolation function.
func NewNfntResizer(interP resize.InterpolationFunction) NfntResizer {
	return NfntResizer{interP}
}

// Resize calls nfnt/resize methods.
func (resizer NfntResizer) Resize(width, height uint, img image.Image) image.Image {
	return resize.Resize(width, height, img, resizer.InterP)
}

var (
	// PreviewResizer is the resizer used for the debug-mode composite
	// thumbnail (see pipeline.go). Bilinear is quality enough for a
	// preview and cheap at canvas scale.
	PreviewResizer = NewNfntResizer(resize.Bilinear)
)
