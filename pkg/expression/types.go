// Package expression derives a discrete/continuous expression state from a
// face-mesh landmark set.
//
// Classification is memoryless: every call recomputes the whole FaceState
// from the current landmarks and a fixed Config. Running it twice on the same
// input yields identical values.
package expression

// Layout is the static placement of the rendered face on the drawing surface.
// It is configuration, never derived from landmarks.
type Layout struct {
	CenterX    float64 `json:"centerX"`
	CenterY    float64 `json:"centerY"`
	FaceRadius float64 `json:"faceRadius"`
}

// FaceState is the per-frame expression snapshot consumed by the renderer.
type FaceState struct {
	// LeftEyeOpenness and RightEyeOpenness are in [0, 1], 0 = closed.
	LeftEyeOpenness  float64 `json:"leftEyeOpenness"`
	RightEyeOpenness float64 `json:"rightEyeOpenness"`

	EyeLeftOpen  bool `json:"eyeLeftOpen"`
	EyeRightOpen bool `json:"eyeRightOpen"`

	IsSmiling bool `json:"isSmiling"`

	// SmileIntensity is in [0, 1]. It is computed on every frame and may be
	// nonzero while IsSmiling is false.
	SmileIntensity float64 `json:"smileIntensity"`

	Layout
}

// Default returns the idle/reset state for a layout: both eyes fully open,
// not smiling.
func Default(layout Layout) FaceState {
	return FaceState{
		LeftEyeOpenness:  1.0,
		RightEyeOpenness: 1.0,
		EyeLeftOpen:      true,
		EyeRightOpen:     true,
		Layout:           layout,
	}
}

// Measurements are the raw signals behind one classification.
type Measurements struct {
	LeftEyeAperture  float64 `json:"left_eye_aperture"`
	RightEyeAperture float64 `json:"right_eye_aperture"`

	// AvgCornerElevation is positive when the mouth corners sit above the
	// vertical midpoint of the lips (image y grows downward).
	LeftCornerElevation  float64 `json:"left_corner_elevation"`
	RightCornerElevation float64 `json:"right_corner_elevation"`
	AvgCornerElevation   float64 `json:"avg_corner_elevation"`

	MouthWidth  float64 `json:"mouth_width"`
	MouthHeight float64 `json:"mouth_height"` // floor-clamped
	WidthRatio  float64 `json:"width_ratio"`

	ElevationHolds bool `json:"elevation_holds"`
	ShapeHolds     bool `json:"shape_holds"`
}
