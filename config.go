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

// Config holds the Pipeline Driver's tunable parameters (spec.md §6).
type Config struct {
	// NumBands is the configured pyramid depth, 0-50. 0 degenerates to
	// direct weighted blending (spec.md §8).
	NumBands int

	// FeatherRadius is the distance in pixels a validity mask ramps
	// over; any value <= 1 disables feathering beyond a straight
	// binarization.
	FeatherRadius float64

	// OverlapMargin is the Voronoi seam-band half-width in pixels.
	OverlapMargin int

	// UseVoronoi enables the Mask Generator; when false, B is cloned
	// from W and the blender behaves as a conventional multi-band
	// blender (spec.md §9 "two-mask abstraction").
	UseVoronoi bool

	// WeightType selects the Wsum accumulator's numeric representation.
	WeightType WeightType

	// Debug, when true, emits per-tile W and B masks (spec.md §6),
	// written next to each tile's raster, plus a composite preview PNG
	// and a run manifest (SPEC_FULL.md §4).
	Debug bool
}

// DefaultConfig returns the documented defaults from spec.md §6.
func DefaultConfig() Config {
	return Config{
		NumBands:      14,
		FeatherRadius: 512,
		OverlapMargin: 20,
		UseVoronoi:    true,
		WeightType:    WeightFloat32,
		Debug:         false,
	}
}
