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

// WeightType selects the numeric representation of the weight (Wsum)
// accumulator (spec.md §4.4 Configuration).
type WeightType int

const (
	WeightFloat32 WeightType = iota
	WeightInt16
)

const weightEpsilon = 1e-5

// Blender implements the Dual-Mask Blender (DMB, spec.md §4.4): a
// Laplacian/Gaussian-pyramid compositor that decouples pyramid
// normalization (driven by a smooth weight mask W) from per-pixel
// contribution (driven by a sharp blend mask B). Ported close to the
// structure of dualmaskblender.{h,cpp}'s DualMaskMultiBandBlender.
type Blender struct {
	numBandsConfigured int
	weightType         WeightType
	numBandsEffective  int

	dstROI       image.Rectangle // the originally requested region
	dstROIPadded image.Rectangle // dstROI rounded up to a multiple of 2^numBandsEffective

	lap   []*int16Plane
	wsumF []*f32Plane
	wsumI []*i16Plane

	fed bool
}

// NewBlender constructs a Blender. numBands must be in [0,50]; 0 is the
// spec.md §8 degenerate case (direct weighted blending, no pyramid
// decomposition) — a deliberate relaxation of the original C++'s
// num_bands >= 1 assertion, required to satisfy that boundary test.
func NewBlender(numBands int, weightType WeightType) (*Blender, error) {
	if numBands < 0 || numBands > 50 {
		return nil, newErr(InvalidGeometry, "num_bands must be in [0,50]")
	}
	return &Blender{numBandsConfigured: numBands, weightType: weightType}, nil
}

// Prepare allocates the destination pyramids for dstROI (spec.md §4.4
// State).
func (b *Blender) Prepare(dstROI image.Rectangle) error {
	if dstROI.Dx() <= 0 || dstROI.Dy() <= 0 {
		return newErr(CanvasInvalid, "destination ROI must have positive area")
	}
	b.dstROI = dstROI

	maxLen := dstROI.Dx()
	if dstROI.Dy() > maxLen {
		maxLen = dstROI.Dy()
	}
	effective := 0
	if b.numBandsConfigured > 0 {
		effective = b.numBandsConfigured
		ceilLog := int(math.Ceil(math.Log2(float64(maxLen))))
		if ceilLog < effective {
			effective = ceilLog
		}
		if effective < 0 {
			effective = 0
		}
	}
	b.numBandsEffective = effective

	m := 1 << effective
	padDim := func(v int) int { return v + ((m - v%m) % m) }
	paddedW, paddedH := padDim(dstROI.Dx()), padDim(dstROI.Dy())
	b.dstROIPadded = image.Rect(dstROI.Min.X, dstROI.Min.Y, dstROI.Min.X+paddedW, dstROI.Min.Y+paddedH)

	b.lap = make([]*int16Plane, effective+1)
	b.lap[0] = newInt16Plane(paddedW, paddedH)

	switch b.weightType {
	case WeightFloat32:
		b.wsumF = make([]*f32Plane, effective+1)
		b.wsumF[0] = newF32Plane(paddedW, paddedH)
	case WeightInt16:
		b.wsumI = make([]*i16Plane, effective+1)
		b.wsumI[0] = newI16Plane(paddedW, paddedH)
	}

	w, h := paddedW, paddedH
	for i := 1; i <= effective; i++ {
		w, h = (w+1)/2, (h+1)/2
		b.lap[i] = newInt16Plane(w, h)
		switch b.weightType {
		case WeightFloat32:
			b.wsumF[i] = newF32Plane(w, h)
		case WeightInt16:
			b.wsumI[i] = newI16Plane(w, h)
		}
	}
	b.fed = false
	return nil
}

// Feed accumulates one tile's contribution. img is the tile already
// converted to an int16 plane (spec.md §4.5's "convert to int16" step);
// weight and blend are the 8-bit W and B masks, same dimensions as img.
func (b *Blender) Feed(img *int16Plane, weight, blend *image.Gray, topLeft image.Point) error {
	if weight.Bounds().Dx() != img.w || weight.Bounds().Dy() != img.h ||
		blend.Bounds().Dx() != img.w || blend.Bounds().Dy() != img.h {
		return newErr(TypeMismatch, "weight/blend mask dimensions must match the image")
	}

	eff := b.numBandsEffective
	m := 1 << eff
	gap := 3 * m

	dstMinX, dstMinY := b.dstROIPadded.Min.X, b.dstROIPadded.Min.Y
	dstMaxX, dstMaxY := b.dstROIPadded.Max.X, b.dstROIPadded.Max.Y

	tlX := maxInt(dstMinX, topLeft.X-gap)
	tlY := maxInt(dstMinY, topLeft.Y-gap)
	brX := minInt(dstMaxX, topLeft.X+img.w+gap)
	brY := minInt(dstMaxY, topLeft.Y+img.h+gap)

	tlX = dstMinX + (((tlX - dstMinX) >> eff) << eff)
	tlY = dstMinY + (((tlY - dstMinY) >> eff) << eff)
	width := brX - tlX
	height := brY - tlY
	width += (m - width%m) % m
	height += (m - height%m) % m
	brX = tlX + width
	brY = tlY + height

	dx := maxInt(brX-dstMaxX, 0)
	dy := maxInt(brY-dstMaxY, 0)
	tlX -= dx
	brX -= dx
	tlY -= dy
	brY -= dy

	top := topLeft.Y - tlY
	left := topLeft.X - tlX
	bottom := brY - topLeft.Y - img.h
	right := brX - topLeft.X - img.w
	if width <= 0 || height <= 0 || top < 0 || left < 0 || bottom < 0 || right < 0 {
		return newErr(IncompatibleLevel, "tile support region became empty")
	}

	padded := reflectPad(img, top, bottom, left, right)
	srcLap := createLaplacePyr(padded, eff)

	xTl, yTl := tlX-dstMinX, tlY-dstMinY
	xBr, yBr := brX-dstMinX, brY-dstMinY

	switch b.weightType {
	case WeightFloat32:
		weightPyr := buildWeightPyramidF32(weight, top, bottom, left, right, eff)
		blendPyr := buildWeightPyramidF32(blend, top, bottom, left, right, eff)
		for i := 0; i <= eff; i++ {
			accumulateFloat(b.lap[i], b.wsumF[i], srcLap[i], weightPyr[i], blendPyr[i], xTl, yTl, xBr, yBr)
			xTl, yTl, xBr, yBr = xTl/2, yTl/2, xBr/2, yBr/2
		}
	case WeightInt16:
		weightPyr := buildWeightPyramidI16(weight, top, bottom, left, right, eff)
		blendPyr := buildWeightPyramidI16(blend, top, bottom, left, right, eff)
		for i := 0; i <= eff; i++ {
			accumulateInt(b.lap[i], b.wsumI[i], srcLap[i], weightPyr[i], blendPyr[i], xTl, yTl, xBr, yBr)
			xTl, yTl, xBr, yBr = xTl/2, yTl/2, xBr/2, yBr/2
		}
	}

	b.fed = true
	return nil
}

func accumulateFloat(lap *int16Plane, wsum *f32Plane, srcLap *int16Plane, weightPyr, blendPyr *f32Plane,
	xTl, yTl, xBr, yBr int) {
	rcW, rcH := xBr-xTl, yBr-yTl
	for y := 0; y < rcH; y++ {
		for x := 0; x < rcW; x++ {
			blendVal := float64(blendPyr.at(x, y))
			for c := 0; c < 3; c++ {
				contribution := int16(float64(srcLap.at(x, y, c)) * blendVal)
				lap.addAt(xTl+x, yTl+y, c, contribution)
			}
			idx := (yTl+y)*wsum.w + (xTl + x)
			wsum.pix[idx] += weightPyr.at(x, y)
		}
	}
}

func accumulateInt(lap *int16Plane, wsum *i16Plane, srcLap *int16Plane, weightPyr, blendPyr *i16Plane,
	xTl, yTl, xBr, yBr int) {
	rcW, rcH := xBr-xTl, yBr-yTl
	for y := 0; y < rcH; y++ {
		for x := 0; x < rcW; x++ {
			blendVal := int32(blendPyr.at(x, y))
			for c := 0; c < 3; c++ {
				contribution := int16((int32(srcLap.at(x, y, c)) * blendVal) >> 8)
				lap.addAt(xTl+x, yTl+y, c, contribution)
			}
			idx := (yTl+y)*wsum.w + (xTl + x)
			wsum.pix[idx] += weightPyr.at(x, y)
		}
	}
}

// buildWeightPyramidF32 zero-pads mask into the feed support region
// then builds a Gaussian pyramid of the normalized [0,1] weight.
func buildWeightPyramidF32(mask *image.Gray, top, bottom, left, right, levels int) []*f32Plane {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	padded := newF32Plane(w+left+right, h+top+bottom)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			padded.pix[(y+top)*padded.w+(x+left)] = float32(mask.GrayAt(b.Min.X+x, b.Min.Y+y).Y) / 255.0
		}
	}
	pyr := make([]*f32Plane, levels+1)
	pyr[0] = padded
	for i := 0; i < levels; i++ {
		pyr[i+1] = fromNumF32(numPyrDown(pyr[i].toNum()))
	}
	return pyr
}

// buildWeightPyramidI16 mirrors the int16 weight-type conversion:
// convertTo(CV_16S) followed by +1 on every nonzero sample, to keep
// the normalize step's denominator free of zero division.
func buildWeightPyramidI16(mask *image.Gray, top, bottom, left, right, levels int) []*i16Plane {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	padded := newI16Plane(w+left+right, h+top+bottom)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := mask.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			val := int16(v)
			if v != 0 {
				val++
			}
			padded.pix[(y+top)*padded.w+(x+left)] = val
		}
	}
	pyr := make([]*i16Plane, levels+1)
	pyr[0] = padded
	for i := 0; i < levels; i++ {
		pyr[i+1] = fromNumI16(numPyrDown(pyr[i].toNum()))
	}
	return pyr
}

// Blend normalizes, collapses, and crops the pyramid, returning the
// composite and its coverage mask (spec.md §4.4 Operation blend).
func (b *Blender) Blend() (*image.RGBA, *image.Gray, error) {
	if !b.fed {
		return nil, nil, newErr(BlenderEmpty, "no tile was fed before blend")
	}

	for i := range b.lap {
		b.normalizeLevel(i)
	}
	restoreFromLaplacePyr(b.lap)

	dstW, dstH := b.dstROI.Dx(), b.dstROI.Dy()
	outImg := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	outMask := image.NewGray(image.Rect(0, 0, dstW, dstH))

	top := b.lap[0]
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			covered := b.weightAt0(x, y) > weightEpsilon
			if covered {
				outMask.SetGray(x, y, color.Gray{Y: 255})
				r := clampByte(top.at(x, y, 0))
				g := clampByte(top.at(x, y, 1))
				bl := clampByte(top.at(x, y, 2))
				outImg.SetRGBA(x, y, color.RGBA{R: r, G: g, B: bl, A: 255})
			}
		}
	}
	return outImg, outMask, nil
}

func (b *Blender) weightAt0(x, y int) float64 {
	switch b.weightType {
	case WeightFloat32:
		return float64(b.wsumF[0].at(x, y))
	default:
		return float64(b.wsumI[0].at(x, y))
	}
}

// normalizeLevel implements normalizeUsingWeightMap: L[i] /= (Wsum[i] + eps),
// branching on the weight representation exactly as dualmaskblender.cpp does.
func (b *Blender) normalizeLevel(i int) {
	lap := b.lap[i]
	switch b.weightType {
	case WeightFloat32:
		wsum := b.wsumF[i]
		for p := 0; p < lap.w*lap.h; p++ {
			denom := float64(wsum.pix[p]) + weightEpsilon
			for c := 0; c < 3; c++ {
				lap.pix[p*3+c] = roundInt16(float64(lap.pix[p*3+c]) / denom)
			}
		}
	case WeightInt16:
		wsum := b.wsumI[i]
		for p := 0; p < lap.w*lap.h; p++ {
			denom := int32(wsum.pix[p]) + 1
			for c := 0; c < 3; c++ {
				lap.pix[p*3+c] = int16((int32(lap.pix[p*3+c]) << 8) / denom)
			}
		}
	}
}

func clampByte(v int16) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
