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
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// WorldFile is the six-double record a .tfw/.TFW file carries: scaleX,
// rotationY, rotationX, scaleY, translateX, translateY (spec.md §3).
type WorldFile struct {
	ScaleX     float64
	RotationY  float64
	RotationX  float64
	ScaleY     float64
	TranslateX float64
	TranslateY float64
}

// ParseWorldFile reads exactly six whitespace/newline-separated decimal
// numbers from path. It fails with MetadataMalformed on fewer than six
// values, a non-numeric token, or a missing file (spec.md §4.1).
func ParseWorldFile(path string) (WorldFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return WorldFile{}, wrapErr(MetadataMalformed, "unable to open world file", path, err)
	}
	defer f.Close()

	var values [6]float64
	count := 0

	scanner := bufio.NewScanner(f)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() && count < 6 {
		tok := strings.TrimSpace(scanner.Text())
		if tok == "" {
			continue
		}
		v, parseErr := strconv.ParseFloat(tok, 64)
		if parseErr != nil {
			return WorldFile{}, wrapErr(MetadataMalformed,
				fmt.Sprintf("invalid numeric value %q", tok), path, parseErr)
		}
		values[count] = v
		count++
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return WorldFile{}, wrapErr(MetadataMalformed, "failed reading world file", path, scanErr)
	}
	if count != 6 {
		return WorldFile{}, newErrPath(MetadataMalformed,
			fmt.Sprintf("expected 6 values, found %d", count), path)
	}

	return WorldFile{
		ScaleX:     values[0],
		RotationY:  values[1],
		RotationX:  values[2],
		ScaleY:     values[3],
		TranslateX: values[4],
		TranslateY: values[5],
	}, nil
}

// EnsureZeroRotation fails with UnsupportedGeometry if either rotation
// component is nonzero. The comparison is exact — there is no tolerance
// (spec.md §3, §4.1).
func (w WorldFile) EnsureZeroRotation(path string) error {
	if w.RotationX == 0 && w.RotationY == 0 {
		return nil
	}
	return newErrPath(UnsupportedGeometry, "expected zero rotation", path)
}

// PixelSize returns |scaleX|, |scaleY|.
func (w WorldFile) PixelSize() (width, height float64) {
	return absFloat(w.ScaleX), absFloat(w.ScaleY)
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// WriteWorldFile reserializes the six numbers using the shortest decimal
// representation that round-trips back to the exact float64 (spec.md §8).
// A fixed-precision format like "%.10f" would truncate and silently break
// that property for values needing more digits. Used by the round-trip
// property tests and available to callers that want to persist a derived
// world file alongside a written raster.
func WriteWorldFile(path string, w WorldFile) error {
	f, err := os.Create(path)
	if err != nil {
		return wrapErr(IOWriteFailure, "unable to create world file", path, err)
	}
	defer f.Close()

	values := []float64{w.ScaleX, w.RotationY, w.RotationX, w.ScaleY, w.TranslateX, w.TranslateY}
	for _, v := range values {
		if _, writeErr := fmt.Fprintf(f, "%s\n", strconv.FormatFloat(v, 'g', -1, 64)); writeErr != nil {
			return wrapErr(IOWriteFailure, "failed writing world file", path, writeErr)
		}
	}
	return nil
}
