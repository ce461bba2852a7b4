package expression

import (
	"errors"
	"math"
	"testing"

	"github.com/teslashibe/go-facecap/pkg/landmark"
)

const tol = 1e-9

func abs(v float64) float64 {
	return math.Abs(v)
}

// faceSet builds a full mesh with the given eye apertures and mouth geometry.
// Unlisted points sit at the image center.
func faceSet(leftAperture, rightAperture float64, mouth mouthShape) landmark.Set {
	s := make(landmark.Set, landmark.MeshSize)
	for i := range s {
		s[i] = landmark.Landmark{X: 0.5, Y: 0.5}
	}

	s[landmark.LeftEyeTop] = landmark.Landmark{X: 0.4, Y: 0.40}
	s[landmark.LeftEyeBottom] = landmark.Landmark{X: 0.4, Y: 0.40 + leftAperture}
	s[landmark.RightEyeTop] = landmark.Landmark{X: 0.6, Y: 0.40}
	s[landmark.RightEyeBottom] = landmark.Landmark{X: 0.6, Y: 0.40 + rightAperture}

	s[landmark.UpperLip] = landmark.Landmark{X: 0.5, Y: mouth.upper}
	s[landmark.LowerLip] = landmark.Landmark{X: 0.5, Y: mouth.lower}
	s[landmark.MouthCenter] = landmark.Landmark{X: 0.5, Y: (mouth.upper + mouth.lower) / 2}
	s[landmark.MouthLeft] = landmark.Landmark{X: 0.5 - mouth.width/2, Y: mouth.cornerY}
	s[landmark.MouthRight] = landmark.Landmark{X: 0.5 + mouth.width/2, Y: mouth.cornerY}
	return s
}

type mouthShape struct {
	upper, lower, cornerY, width float64
}

// neutral mouth: corners level with the lip midpoint
var neutralMouth = mouthShape{upper: 0.60, lower: 0.62, cornerY: 0.61, width: 0.05}

var testLayout = Layout{CenterX: 200, CenterY: 180, FaceRadius: 120}

func TestClassify_EndToEnd(t *testing.T) {
	s := faceSet(0.02, 0.02, mouthShape{upper: 0.52, lower: 0.54, cornerY: 0.50, width: 0.08})
	s[landmark.LeftEyeTop].Y = 0.40
	s[landmark.LeftEyeBottom].Y = 0.42

	fs, err := Classify(s, testLayout)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	if abs(fs.LeftEyeOpenness-1.0) > 1e-6 {
		t.Errorf("LeftEyeOpenness = %v, want 1.0", fs.LeftEyeOpenness)
	}
	if !fs.EyeLeftOpen {
		t.Error("EyeLeftOpen = false, want true")
	}
	if !fs.IsSmiling {
		t.Error("IsSmiling = false, want true")
	}
	if fs.SmileIntensity != 1.0 {
		t.Errorf("SmileIntensity = %v, want 1.0", fs.SmileIntensity)
	}
	if fs.Layout != testLayout {
		t.Errorf("Layout = %+v, want %+v", fs.Layout, testLayout)
	}

	m, err := defaultClassifier.Measure(s)
	if err != nil {
		t.Fatal(err)
	}
	if abs(m.AvgCornerElevation-0.03) > tol {
		t.Errorf("AvgCornerElevation = %v, want 0.03", m.AvgCornerElevation)
	}
	if abs(m.WidthRatio-4.0) > 1e-6 {
		t.Errorf("WidthRatio = %v, want 4.0", m.WidthRatio)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	s := faceSet(0.013, 0.004, mouthShape{upper: 0.5, lower: 0.52, cornerY: 0.503, width: 0.07})

	a, err := Classify(s, testLayout)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Classify(s, testLayout)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("Classify not deterministic: %+v vs %+v", a, b)
	}
}

func TestOpenness_Monotonic(t *testing.T) {
	cfg := DefaultConfig()
	prev := -1.0
	for _, aperture := range []float64{0, 0.002, 0.005, 0.01, 0.015, 0.02, 0.03, 0.1} {
		s := faceSet(aperture, aperture, neutralMouth)
		fs, err := Classify(s, testLayout)
		if err != nil {
			t.Fatal(err)
		}
		if fs.LeftEyeOpenness < prev {
			t.Errorf("openness decreased at aperture %v: %v < %v", aperture, fs.LeftEyeOpenness, prev)
		}
		if fs.LeftEyeOpenness > 1 {
			t.Errorf("openness %v exceeds 1", fs.LeftEyeOpenness)
		}
		prev = fs.LeftEyeOpenness
	}

	if got := cfg.Openness(0.05); got != 1 {
		t.Errorf("Openness(0.05) = %v, want saturation at 1", got)
	}
}

func TestEyeOpen_StrictThreshold(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.EyeOpen(0.3) {
		t.Error("EyeOpen(0.3) = true, want false (strict >)")
	}
	if !cfg.EyeOpen(math.Nextafter(0.3, 1)) {
		t.Error("EyeOpen(just above 0.3) = false, want true")
	}

	// Through the classifier, with a unit scale so the aperture is the openness
	cfg.EyeApertureScale = 1
	c := New(cfg)
	s := faceSet(0.3, 0.31, neutralMouth)
	s[landmark.LeftEyeTop].Y = 0
	s[landmark.LeftEyeBottom].Y = 0.3

	fs, err := c.Classify(s, testLayout)
	if err != nil {
		t.Fatal(err)
	}
	if fs.EyeLeftOpen {
		t.Errorf("EyeLeftOpen at openness %v = true, want false", fs.LeftEyeOpenness)
	}
	if !fs.EyeRightOpen {
		t.Errorf("EyeRightOpen at openness %v = false, want true", fs.RightEyeOpenness)
	}
}

func TestClassify_EyesIndependent(t *testing.T) {
	s := faceSet(0.02, 0.001, neutralMouth)
	fs, err := Classify(s, testLayout)
	if err != nil {
		t.Fatal(err)
	}
	if !fs.EyeLeftOpen || fs.EyeRightOpen {
		t.Errorf("winking state wrong: left=%v right=%v", fs.EyeLeftOpen, fs.EyeRightOpen)
	}
}

func TestClassify_SmileGating(t *testing.T) {
	// lips 0.50/0.52 give center 0.51 and height 0.02; corners 0.006 above center
	tests := []struct {
		name        string
		width       float64
		wantSmiling bool
	}{
		{"wide mouth ratio 3.5", 0.07, true},
		{"narrow mouth ratio 2.9", 0.058, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := faceSet(0.02, 0.02, mouthShape{upper: 0.50, lower: 0.52, cornerY: 0.504, width: tc.width})
			fs, err := Classify(s, testLayout)
			if err != nil {
				t.Fatal(err)
			}
			if fs.IsSmiling != tc.wantSmiling {
				t.Errorf("IsSmiling = %v, want %v", fs.IsSmiling, tc.wantSmiling)
			}
			// Intensity is computed regardless of the gate
			if abs(fs.SmileIntensity-0.6) > 1e-6 {
				t.Errorf("SmileIntensity = %v, want 0.6", fs.SmileIntensity)
			}
		})
	}
}

func TestClassify_ElevationCriterion(t *testing.T) {
	// Wide mouth but corners level with the lip midpoint
	s := faceSet(0.02, 0.02, mouthShape{upper: 0.50, lower: 0.52, cornerY: 0.51, width: 0.1})
	fs, err := Classify(s, testLayout)
	if err != nil {
		t.Fatal(err)
	}
	if fs.IsSmiling {
		t.Error("IsSmiling = true without corner elevation")
	}
	if fs.SmileIntensity > tol {
		t.Errorf("SmileIntensity = %v, want 0", fs.SmileIntensity)
	}
}

func TestIntensity_Clamp(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		elevation float64
		want      float64
	}{
		{0.02, 1.0},
		{0.5, 1.0},
		{-0.01, 0},
		{0, 0},
	}

	for _, tc := range tests {
		if got := cfg.Intensity(tc.elevation); got != tc.want {
			t.Errorf("Intensity(%v) = %v, want %v", tc.elevation, got, tc.want)
		}
	}

	// Frowning corners never produce negative intensity
	s := faceSet(0.02, 0.02, mouthShape{upper: 0.50, lower: 0.52, cornerY: 0.53, width: 0.1})
	fs, err := Classify(s, testLayout)
	if err != nil {
		t.Fatal(err)
	}
	if fs.SmileIntensity != 0 {
		t.Errorf("SmileIntensity for frown = %v, want 0", fs.SmileIntensity)
	}
}

func TestClassify_MouthHeightFloor(t *testing.T) {
	// Closed lips: height 0 is floored so the ratio stays finite
	s := faceSet(0.02, 0.02, mouthShape{upper: 0.51, lower: 0.51, cornerY: 0.50, width: 0.06})
	m, err := defaultClassifier.Measure(s)
	if err != nil {
		t.Fatal(err)
	}
	if m.MouthHeight != 0.001 {
		t.Errorf("MouthHeight = %v, want floor 0.001", m.MouthHeight)
	}
	if math.IsInf(m.WidthRatio, 0) || abs(m.WidthRatio-60) > 1e-6 {
		t.Errorf("WidthRatio = %v, want 60", m.WidthRatio)
	}
}

func TestClassify_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		set  landmark.Set
	}{
		{"nil", nil},
		{"five points", make(landmark.Set, 5)},
		{"missing right eye", make(landmark.Set, landmark.RightEyeTop)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Classify(tc.set, testLayout)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Classify() error = %v, want ErrInvalidInput", err)
			}
			if !errors.Is(err, landmark.ErrTooShort) {
				t.Errorf("Classify() error = %v, want wrapped ErrTooShort", err)
			}
		})
	}

	nan := faceSet(0.02, 0.02, neutralMouth)
	nan[landmark.MouthRight].X = math.Inf(1)
	if _, err := Classify(nan, testLayout); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Classify() with Inf error = %v, want ErrInvalidInput", err)
	}
}

func TestClassify_MinimumLength(t *testing.T) {
	s := faceSet(0.02, 0.02, neutralMouth)[:landmark.RightEyeTop+1]
	if _, err := Classify(s, testLayout); err != nil {
		t.Errorf("Classify() on %d points error = %v, want nil", len(s), err)
	}
}

func TestDefault(t *testing.T) {
	fs := Default(testLayout)
	if !fs.EyeLeftOpen || !fs.EyeRightOpen || fs.IsSmiling {
		t.Errorf("Default() = %+v, want open eyes and no smile", fs)
	}
	if fs.LeftEyeOpenness != 1 || fs.RightEyeOpenness != 1 || fs.SmileIntensity != 0 {
		t.Errorf("Default() continuous values wrong: %+v", fs)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}

	bad := DefaultConfig()
	bad.EyeApertureScale = 0
	if err := bad.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Validate() with zero scale = %v, want ErrInvalidConfig", err)
	}

	bad = DefaultConfig()
	bad.EyeOpenThreshold = 1.5
	if err := bad.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Validate() with threshold 1.5 = %v, want ErrInvalidConfig", err)
	}
}
