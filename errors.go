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

import "fmt"

// Kind classifies the error taxonomy the pipeline surfaces. Every kind
// aborts the run; there is no recovery path (spec.md §7).
type Kind int

const (
	// MetadataMalformed marks an unreadable, short, or non-numeric
	// world-file or metadata file.
	MetadataMalformed Kind = iota
	// UnsupportedGeometry marks nonzero rotation or invalid scale in a
	// world-file record.
	UnsupportedGeometry
	// ResolutionMismatch marks a tile whose pixel scale disagrees with
	// the first observed tile.
	ResolutionMismatch
	// MissingInput marks a raster or mask present in path but unreadable.
	MissingInput
	// EmptyMask marks a tile whose coverage mask has zero nonzero pixels.
	EmptyMask
	// CanvasInvalid marks a zero/negative derived canvas size, or fewer
	// than two tiles.
	CanvasInvalid
	// MaskShapeMismatch marks a loaded mask whose dimensions disagree
	// with its raster.
	MaskShapeMismatch
	// BlenderEmpty marks a blend attempted with no tile fed.
	BlenderEmpty
	// IOWriteFailure marks a failed mask or composite write.
	IOWriteFailure
	// InvalidGeometry marks an invalid mask-generator precondition
	// (negative margin, empty tile list).
	InvalidGeometry
	// IncompatibleLevel marks a fed image whose computed support region
	// became empty.
	IncompatibleLevel
	// TypeMismatch marks inputs that violate the blender's declared
	// pixel/weight types.
	TypeMismatch
)

func (k Kind) String() string {
	switch k {
	case MetadataMalformed:
		return "MetadataMalformed"
	case UnsupportedGeometry:
		return "UnsupportedGeometry"
	case ResolutionMismatch:
		return "ResolutionMismatch"
	case MissingInput:
		return "MissingInput"
	case EmptyMask:
		return "EmptyMask"
	case CanvasInvalid:
		return "CanvasInvalid"
	case MaskShapeMismatch:
		return "MaskShapeMismatch"
	case BlenderEmpty:
		return "BlenderEmpty"
	case IOWriteFailure:
		return "IOWriteFailure"
	case InvalidGeometry:
		return "InvalidGeometry"
	case IncompatibleLevel:
		return "IncompatibleLevel"
	case TypeMismatch:
		return "TypeMismatch"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the error type every pipeline stage returns. It carries the
// taxonomy kind, the offending path (if any), and a wrapped cause so the
// driver can "surface the first error verbatim with the offending path"
// (spec.md §7) without losing the underlying error for errors.Is/As.
type Error struct {
	Kind Kind
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s (%s): %v", e.Kind, e.Msg, e.Path, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Msg, e.Path)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newErr builds an *Error with no path or wrapped cause.
func newErr(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// newErrPath builds an *Error naming the offending path.
func newErrPath(kind Kind, msg, path string) error {
	return &Error{Kind: kind, Msg: msg, Path: path}
}

// wrapErr builds an *Error naming the offending path and wrapping cause.
func wrapErr(kind Kind, msg, path string, cause error) error {
	return &Error{Kind: kind, Msg: msg, Path: path, Err: cause}
}

// KindOf returns the Kind of err if it (or something it wraps) is an
// *Error, and false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	for err != nil {
		if asErr, ok := err.(*Error); ok {
			e = asErr
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return 0, false
	}
	return e.Kind, true
}
