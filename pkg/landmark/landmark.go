// Package landmark defines the per-frame facial landmark set delivered by an
// external face-mesh detector.
//
// Landmarks are identified only by their position in the set. The indices
// follow the 468-point face-mesh topology (478 with iris refinement).
package landmark

import (
	"fmt"
	"math"
)

// Face-mesh indices read by the expression classifier.
const (
	NoseTip = 1

	UpperLip    = 12
	MouthCenter = 13 // read but unused by the smile formula
	LowerLip    = 15
	MouthLeft   = 61
	MouthRight  = 291

	LeftEyeBottom  = 145
	LeftEyeTop     = 159
	RightEyeBottom = 374
	RightEyeTop    = 386

	MeshSize        = 468
	RefinedMeshSize = 478
)

// Landmark is one detected facial point in normalized image space.
// Z is depth and is carried through but not interpreted.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Finite reports whether all coordinates are finite numbers.
func (l Landmark) Finite() bool {
	return !isBad(l.X) && !isBad(l.Y) && !isBad(l.Z)
}

func isBad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// Set is the ordered landmark set of one face in one frame.
type Set []Landmark

// Empty reports whether the set carries no face.
func (s Set) Empty() bool {
	return len(s) == 0
}

// Len returns the number of landmarks.
func (s Set) Len() int {
	return len(s)
}

// At returns the landmark at index i, or false if the set is too short.
func (s Set) At(i int) (Landmark, bool) {
	if i < 0 || i >= len(s) {
		return Landmark{}, false
	}
	return s[i], true
}

// Require checks that every index is present and finite.
// Returns an error wrapping ErrTooShort or ErrNonFinite.
func (s Set) Require(indices ...int) error {
	max := -1
	for _, i := range indices {
		if i > max {
			max = i
		}
	}
	if max >= len(s) {
		return fmt.Errorf("%w: have %d points, need index %d", ErrTooShort, len(s), max)
	}
	for _, i := range indices {
		if i < 0 {
			return fmt.Errorf("%w: negative index %d", ErrTooShort, i)
		}
		if !s[i].Finite() {
			return fmt.Errorf("%w: index %d", ErrNonFinite, i)
		}
	}
	return nil
}

// Clone returns a copy that does not share storage with s.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	copy(out, s)
	return out
}
