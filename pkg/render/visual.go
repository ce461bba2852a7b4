package render

import "github.com/teslashibe/go-facecap/pkg/expression"

// EyeVisual is the drawing state of one eye: EyeOpen or EyeClosed.
type EyeVisual interface {
	isEyeVisual()
}

// EyeOpen draws an ellipse and pupil scaled vertically by Openness.
type EyeOpen struct {
	Openness float64
}

// EyeClosed draws a horizontal line.
type EyeClosed struct{}

func (EyeOpen) isEyeVisual()   {}
func (EyeClosed) isEyeVisual() {}

// MouthVisual is the drawing state of the mouth: MouthSmiling or MouthNeutral.
type MouthVisual interface {
	isMouthVisual()
}

// MouthSmiling draws an arc displaced by Depth.
type MouthSmiling struct {
	Depth float64
}

// MouthNeutral draws a flat curve with corner dots.
type MouthNeutral struct{}

func (MouthSmiling) isMouthVisual() {}
func (MouthNeutral) isMouthVisual() {}

// SelectEye picks the eye visual from the boolean state and openness.
func SelectEye(open bool, openness float64) EyeVisual {
	if open {
		return EyeOpen{Openness: openness}
	}
	return EyeClosed{}
}

// SelectMouth picks the mouth visual for a profile.
func SelectMouth(face expression.FaceState, p Profile) MouthVisual {
	if face.IsSmiling {
		return MouthSmiling{Depth: p.SmileDepth(face.SmileIntensity)}
	}
	return MouthNeutral{}
}

// Visuals is the complete per-frame visual selection.
type Visuals struct {
	LeftEye  EyeVisual
	RightEye EyeVisual
	Mouth    MouthVisual
}

// Select chooses all visuals for one frame.
func Select(face expression.FaceState, p Profile) Visuals {
	return Visuals{
		LeftEye:  SelectEye(face.EyeLeftOpen, face.LeftEyeOpenness),
		RightEye: SelectEye(face.EyeRightOpen, face.RightEyeOpenness),
		Mouth:    SelectMouth(face, p),
	}
}
