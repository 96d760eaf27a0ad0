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

import "runtime"

// MemoryReporter reports the process's peak resident memory. It is the
// portable stand-in for the original's getrusage(RUSAGE_SELF, ...)
// peak-RSS read, exposed as a collaborator interface per spec.md §6
// ("process memory reporting" is out of core scope, external).
type MemoryReporter interface {
	// PeakBytes returns the highest total heap allocation observed so
	// far in this process, in bytes.
	PeakBytes() uint64
}

// RuntimeMemoryReporter implements MemoryReporter on top of
// runtime.ReadMemStats. Go has no direct getrusage binding in its
// stdlib image/runtime surface, so PeakBytes returns the larger of Sys
// (memory obtained from the OS) and TotalAlloc (monotonically
// increasing across the process lifetime) as a portable proxy for a
// peak-usage figure; callers after a full pipeline run treat it as the
// run's approximate peak footprint.
type RuntimeMemoryReporter struct{}

func (RuntimeMemoryReporter) PeakBytes() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	if stats.Sys > stats.TotalAlloc {
		return stats.Sys
	}
	return stats.TotalAlloc
}

// EstimatePyramidFootprint returns the peak pyramid-resource estimate
// from spec.md §5: num_bands * canvas_area * 6 bytes (one three-channel
// int16 Laplacian sample per canvas pixel per band; Wsum is not
// counted).
func EstimatePyramidFootprint(numBands, canvasWidth, canvasHeight int) uint64 {
	area := uint64(canvasWidth) * uint64(canvasHeight)
	return uint64(numBands) * area * 6
}

// ShouldAvoidGPU implements the advisory heuristic from spec.md §5:
// implementations should avoid GPU acceleration when the estimated
// footprint exceeds ~4 GiB or num_bands > 5. This package never
// performs GPU execution (a Non-goal, spec.md §1); the heuristic is
// surfaced only as a logged advisory for callers who might otherwise
// be tempted to add one.
func ShouldAvoidGPU(numBands, canvasWidth, canvasHeight int) bool {
	const fourGiB = 4 << 30
	if numBands > 5 {
		return true
	}
	return EstimatePyramidFootprint(numBands, canvasWidth, canvasHeight) > fourGiB
}
