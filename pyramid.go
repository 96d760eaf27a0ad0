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
	"math"
)

// gaussianKernel5 is the standard binomial approximation to a Gaussian,
// used by pyrDown/pyrUp exactly as OpenCV's own default kernel.
var gaussianKernel5 = [5]float64{1, 4, 6, 4, 1}

const gaussianKernelSum = 16.0

// numPlane is the internal working representation for all pyramid math:
// a row-major, multi-channel plane of float64 samples. int16Plane,
// f32Plane and i16Plane convert to/from numPlane at their boundaries,
// so the convolution code itself is written once. OpenCV's own pyrDown
// and pyrUp run on fixed-point or SIMD-approximated arithmetic; doing
// the convolution in float64 here is a deliberate simplification that
// preserves the documented invariants (§8) without reproducing
// OpenCV's bit-level rounding.
type numPlane struct {
	w, h, ch int
	data     []float64
}

func newNumPlane(w, h, ch int) *numPlane {
	return &numPlane{w: w, h: h, ch: ch, data: make([]float64, w*h*ch)}
}

func (p *numPlane) at(x, y, c int) float64 {
	x = reflect101(x, p.w)
	y = reflect101(y, p.h)
	return p.data[(y*p.w+x)*p.ch+c]
}

func (p *numPlane) set(x, y, c int, v float64) {
	p.data[(y*p.w+x)*p.ch+c] = v
}

// reflect101 mirrors an out-of-range index back into [0,n) without
// repeating the edge sample (OpenCV's BORDER_REFLECT_101, the default
// border mode for pyrDown/pyrUp and copyMakeBorder with reflection).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

// blurHorizontal convolves each row with the 5-tap kernel, scaled by
// kernelScale (4 for the zero-inserted upsample case, 1 otherwise).
func blurHorizontal(src *numPlane, kernelScale float64) *numPlane {
	out := newNumPlane(src.w, src.h, src.ch)
	for y := 0; y < src.h; y++ {
		for x := 0; x < src.w; x++ {
			for c := 0; c < src.ch; c++ {
				var sum float64
				for k := -2; k <= 2; k++ {
					sum += src.at(x+k, y, c) * gaussianKernel5[k+2]
				}
				out.set(x, y, c, sum*kernelScale/gaussianKernelSum)
			}
		}
	}
	return out
}

func blurVertical(src *numPlane, kernelScale float64) *numPlane {
	out := newNumPlane(src.w, src.h, src.ch)
	for y := 0; y < src.h; y++ {
		for x := 0; x < src.w; x++ {
			for c := 0; c < src.ch; c++ {
				var sum float64
				for k := -2; k <= 2; k++ {
					sum += src.at(x, y+k, c) * gaussianKernel5[k+2]
				}
				out.set(x, y, c, sum*kernelScale/gaussianKernelSum)
			}
		}
	}
	return out
}

func gaussianBlur(src *numPlane, kernelScale float64) *numPlane {
	return blurVertical(blurHorizontal(src, 1), kernelScale)
}

// downsample2 keeps every other sample, producing OpenCV's pyrDown
// output size: ((w+1)/2, (h+1)/2).
func downsample2(src *numPlane) *numPlane {
	outW, outH := (src.w+1)/2, (src.h+1)/2
	out := newNumPlane(outW, outH, src.ch)
	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			for c := 0; c < src.ch; c++ {
				out.set(x, y, c, src.at(2*x, 2*y, c))
			}
		}
	}
	return out
}

// numPyrDown blurs then subsamples by 2, the Gaussian-pyramid step.
func numPyrDown(src *numPlane) *numPlane {
	return downsample2(gaussianBlur(src, 1))
}

// numPyrUp inserts zeros to double the resolution, then convolves with
// a 4x-scaled kernel to restore energy lost by the zero insertion, and
// crops/pads to the requested output size — exactly OpenCV's pyrUp
// contract of taking an explicit destination size.
func numPyrUp(src *numPlane, outW, outH int) *numPlane {
	upW, upH := src.w*2, src.h*2
	up := newNumPlane(upW, upH, src.ch)
	for y := 0; y < src.h; y++ {
		for x := 0; x < src.w; x++ {
			for c := 0; c < src.ch; c++ {
				up.set(2*x, 2*y, c, src.at(x, y, c))
			}
		}
	}
	blurred := gaussianBlur(up, 4)
	if upW == outW && upH == outH {
		return blurred
	}
	out := newNumPlane(outW, outH, src.ch)
	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			for c := 0; c < src.ch; c++ {
				out.set(x, y, c, blurred.at(x, y, c))
			}
		}
	}
	return out
}

// int16Plane is a 3-channel plane backed by int16 samples — the
// Laplacian accumulator representation spec.md §4.4 names explicitly.
// Addition/subtraction on it wrap on overflow exactly as a raw int16
// pointer increment would in the original C++: "overflow is not
// checked — int16 saturation is accepted as part of the contract."
type int16Plane struct {
	w, h int
	pix  []int16 // interleaved R,G,B
}

func newInt16Plane(w, h int) *int16Plane {
	return &int16Plane{w: w, h: h, pix: make([]int16, w*h*3)}
}

func (p *int16Plane) at(x, y, c int) int16 {
	return p.pix[(y*p.w+x)*3+c]
}

func (p *int16Plane) set(x, y, c int, v int16) {
	p.pix[(y*p.w+x)*3+c] = v
}

func (p *int16Plane) addAt(x, y, c int, v int16) {
	p.pix[(y*p.w+x)*3+c] += v
}

func (p *int16Plane) toNum() *numPlane {
	np := newNumPlane(p.w, p.h, 3)
	for i, v := range p.pix {
		np.data[i] = float64(v)
	}
	return np
}

func fromNumInt16(np *numPlane) *int16Plane {
	p := &int16Plane{w: np.w, h: np.h, pix: make([]int16, len(np.data))}
	for i, v := range np.data {
		p.pix[i] = roundInt16(v)
	}
	return p
}

func roundInt16(v float64) int16 {
	r := math.Round(v)
	if r > 32767 {
		r = 32767
	}
	if r < -32768 {
		r = -32768
	}
	return int16(r)
}

// intImageToPlane widens an RGB raster into a 3-channel int16 plane —
// the "convert to int16" step of spec.md §4.5.
func intImageToPlane(img image.Image) *int16Plane {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	p := newInt16Plane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			p.set(x, y, 0, int16(r>>8))
			p.set(x, y, 1, int16(g>>8))
			p.set(x, y, 2, int16(b>>8))
		}
	}
	return p
}

// reflectPad pads an int16Plane on all four sides using mirror (BORDER_REFLECT)
// semantics, matching feed()'s copyMakeBorder call on the source image.
func reflectPad(src *int16Plane, top, bottom, left, right int) *int16Plane {
	outW, outH := src.w+left+right, src.h+top+bottom
	out := newInt16Plane(outW, outH)
	for y := 0; y < outH; y++ {
		sy := reflectEdge(y-top, src.h)
		for x := 0; x < outW; x++ {
			sx := reflectEdge(x-left, src.w)
			for c := 0; c < 3; c++ {
				out.set(x, y, c, src.at(sx, sy, c))
			}
		}
	}
	return out
}

// reflectEdge implements BORDER_REFLECT (duplicating the edge sample),
// the mode copyMakeBorder uses by default in the original feed().
func reflectEdge(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}

// createLaplacePyr builds a Laplacian pyramid with numLevels+1 entries:
// pyr[0..numLevels-1] are band-pass difference images, pyr[numLevels]
// is the coarsest Gaussian residual (spec.md §4.4 step 3).
func createLaplacePyr(img *int16Plane, numLevels int) []*int16Plane {
	pyr := make([]*int16Plane, numLevels+1)
	if numLevels == 0 {
		pyr[0] = img
		return pyr
	}

	current := img
	downNext := fromNumInt16(numPyrDown(img.toNum()))

	for i := 1; i < numLevels; i++ {
		lvlDown := fromNumInt16(numPyrDown(downNext.toNum()))
		lvlUp := fromNumInt16(numPyrUp(downNext.toNum(), current.w, current.h))
		pyr[i-1] = subtractInt16(current, lvlUp)
		current = downNext
		downNext = lvlDown
	}

	lvlUp := fromNumInt16(numPyrUp(downNext.toNum(), current.w, current.h))
	pyr[numLevels-1] = subtractInt16(current, lvlUp)
	pyr[numLevels] = downNext
	return pyr
}

// restoreFromLaplacePyr collapses the pyramid bottom-up in place,
// leaving the reconstructed image in pyr[0] (spec.md §4.4 blend step 2).
func restoreFromLaplacePyr(pyr []*int16Plane) {
	for i := len(pyr) - 1; i > 0; i-- {
		up := fromNumInt16(numPyrUp(pyr[i].toNum(), pyr[i-1].w, pyr[i-1].h))
		pyr[i-1] = addInt16(pyr[i-1], up)
	}
}

// subtractInt16 and addInt16 saturate to the int16 range, matching
// cv::subtract/cv::add's default saturate_cast behavior (as opposed to
// the raw wrap-on-overflow pointer arithmetic used by feed's
// accumulation loop).
func subtractInt16(a, b *int16Plane) *int16Plane {
	out := newInt16Plane(a.w, a.h)
	for i := range out.pix {
		out.pix[i] = saturateInt16(int32(a.pix[i]) - int32(b.pix[i]))
	}
	return out
}

func addInt16(a, b *int16Plane) *int16Plane {
	out := newInt16Plane(a.w, a.h)
	for i := range out.pix {
		out.pix[i] = saturateInt16(int32(a.pix[i]) + int32(b.pix[i]))
	}
	return out
}

func saturateInt16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// f32Plane is a single-channel plane of float32 samples — one of the
// two weight-accumulator representations spec.md §4.4 names.
type f32Plane struct {
	w, h int
	pix  []float32
}

func newF32Plane(w, h int) *f32Plane {
	return &f32Plane{w: w, h: h, pix: make([]float32, w*h)}
}

func (p *f32Plane) at(x, y int) float32 { return p.pix[y*p.w+x] }

func (p *f32Plane) toNum() *numPlane {
	np := newNumPlane(p.w, p.h, 1)
	for i, v := range p.pix {
		np.data[i] = float64(v)
	}
	return np
}

func fromNumF32(np *numPlane) *f32Plane {
	p := &f32Plane{w: np.w, h: np.h, pix: make([]float32, len(np.data))}
	for i, v := range np.data {
		p.pix[i] = float32(v)
	}
	return p
}

// i16Plane is a single-channel plane of int16 samples — the other
// weight-accumulator representation.
type i16Plane struct {
	w, h int
	pix  []int16
}

func newI16Plane(w, h int) *i16Plane {
	return &i16Plane{w: w, h: h, pix: make([]int16, w*h)}
}

func (p *i16Plane) at(x, y int) int16 { return p.pix[y*p.w+x] }

func (p *i16Plane) toNum() *numPlane {
	np := newNumPlane(p.w, p.h, 1)
	for i, v := range p.pix {
		np.data[i] = float64(v)
	}
	return np
}

func fromNumI16(np *numPlane) *i16Plane {
	p := &i16Plane{w: np.w, h: np.h, pix: make([]int16, len(np.data))}
	for i, v := range np.data {
		p.pix[i] = roundInt16(v)
	}
	return p
}
