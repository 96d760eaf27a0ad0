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

import "math"

// EuclideanDistance returns the euclidean distance of two
// vectors, that is sqrt( (p1 - q1)² + ... + (pn - qn)² ).
//
// The mask generator uses this on 2-element {x, y} vectors to get the
// distance from a canvas pixel to a tile center; it's the same function
// the teacher used on histogram vectors, just fed a shorter vector.
func EuclideanDistance(p, q []float64) float64 {
	var sum float64
	for i, e1 := range p {
		e2 := q[i]
		diff := e1 - e2
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
