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
	"image/png"
	"os"

	"golang.org/x/image/tiff"
)

// LoadRaster decodes a tile's raster from path. TIFF is the expected
// format (spec.md §6); any format golang.org/x/image/tiff and the
// stdlib register also decodes, since Tile.ImagePath is resolved by
// extension probing, not by content sniffing.
func LoadRaster(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapErr(MissingInput, "unable to open raster", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, wrapErr(MissingInput, "unable to decode raster", path, err)
	}
	return img, nil
}

// LoadGrayMask decodes an 8-bit grayscale mask, converting if the file
// was stored in a different color model.
func LoadGrayMask(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapErr(MissingInput, "unable to open mask", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, wrapErr(MissingInput, "unable to decode mask", path, err)
	}
	return toGray(img), nil
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}

// SaveGrayTIFF writes an 8-bit grayscale mask as uncompressed TIFF —
// the format voronoi masks and debug W/B dumps use (spec.md §4.2, §6).
func SaveGrayTIFF(path string, img *image.Gray) error {
	f, err := os.Create(path)
	if err != nil {
		return wrapErr(IOWriteFailure, "unable to create mask file", path, err)
	}
	defer f.Close()

	if err := tiff.Encode(f, img, nil); err != nil {
		return wrapErr(IOWriteFailure, "failed encoding mask", path, err)
	}
	return nil
}

// SaveRGBATIFF writes the final composite (or a debug intermediate) as
// TIFF.
func SaveRGBATIFF(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return wrapErr(IOWriteFailure, "unable to create composite file", path, err)
	}
	defer f.Close()

	if err := tiff.Encode(f, img, nil); err != nil {
		return wrapErr(IOWriteFailure, "failed encoding composite", path, err)
	}
	return nil
}

// SavePreviewPNG writes a PNG preview, used only by --debug artifact
// dumps (SPEC_FULL.md §4). Grounded on the teacher's cmd/mosaic/mosaic.go
// blank-importing image/png for its own preview output.
func SavePreviewPNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return wrapErr(IOWriteFailure, "unable to create preview file", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return wrapErr(IOWriteFailure, "failed encoding preview", path, err)
	}
	return nil
}
