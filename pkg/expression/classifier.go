package expression

import (
	"fmt"
	"math"

	"github.com/teslashibe/go-facecap/pkg/debug"
	"github.com/teslashibe/go-facecap/pkg/landmark"
)

// Required lists every landmark index the classifier reads.
var Required = []int{
	landmark.LeftEyeTop, landmark.LeftEyeBottom,
	landmark.RightEyeTop, landmark.RightEyeBottom,
	landmark.MouthLeft, landmark.MouthRight,
	landmark.UpperLip, landmark.MouthCenter, landmark.LowerLip,
}

// Classifier turns landmark sets into FaceStates. It holds no per-frame
// state and is safe for concurrent use.
type Classifier struct {
	cfg Config
}

// New creates a classifier with the given constants.
func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Config returns the classifier's constants.
func (c *Classifier) Config() Config {
	return c.cfg
}

// Measure extracts the raw eye and mouth signals from a landmark set.
func (c *Classifier) Measure(set landmark.Set) (Measurements, error) {
	if err := set.Require(Required...); err != nil {
		return Measurements{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	var m Measurements

	m.LeftEyeAperture = math.Abs(set[landmark.LeftEyeTop].Y - set[landmark.LeftEyeBottom].Y)
	m.RightEyeAperture = math.Abs(set[landmark.RightEyeTop].Y - set[landmark.RightEyeBottom].Y)

	left := set[landmark.MouthLeft]
	right := set[landmark.MouthRight]
	upper := set[landmark.UpperLip]
	lower := set[landmark.LowerLip]
	_ = set[landmark.MouthCenter] // kept in Required; the smile formula does not use it

	mouthCenterY := (upper.Y + lower.Y) / 2
	m.LeftCornerElevation = mouthCenterY - left.Y
	m.RightCornerElevation = mouthCenterY - right.Y
	m.AvgCornerElevation = (m.LeftCornerElevation + m.RightCornerElevation) / 2

	m.MouthWidth = math.Abs(right.X - left.X)
	m.MouthHeight = max(math.Abs(lower.Y-upper.Y), c.cfg.MinMouthHeight)
	m.WidthRatio = m.MouthWidth / m.MouthHeight

	m.ElevationHolds = m.AvgCornerElevation > c.cfg.SmileElevation
	m.ShapeHolds = m.WidthRatio > c.cfg.SmileWidthRatio

	return m, nil
}

// Classify derives the FaceState for one frame. The layout is copied into the
// result unchanged. A set missing required indices yields ErrInvalidInput.
func (c *Classifier) Classify(set landmark.Set, layout Layout) (FaceState, error) {
	m, err := c.Measure(set)
	if err != nil {
		return FaceState{}, err
	}

	fs := FaceState{
		LeftEyeOpenness:  c.cfg.Openness(m.LeftEyeAperture),
		RightEyeOpenness: c.cfg.Openness(m.RightEyeAperture),
		IsSmiling:        m.ElevationHolds && m.ShapeHolds,
		SmileIntensity:   c.cfg.Intensity(m.AvgCornerElevation),
		Layout:           layout,
	}
	fs.EyeLeftOpen = c.cfg.EyeOpen(fs.LeftEyeOpenness)
	fs.EyeRightOpen = c.cfg.EyeOpen(fs.RightEyeOpenness)

	if fs.IsSmiling {
		debug.ClassifyLog("😊 Smile detected! Elevation: %.4f, Ratio: %.2f, Intensity: %.2f\n",
			m.AvgCornerElevation, m.WidthRatio, fs.SmileIntensity)
	}

	return fs, nil
}

var defaultClassifier = New(DefaultConfig())

// Classify classifies with DefaultConfig.
func Classify(set landmark.Set, layout Layout) (FaceState, error) {
	return defaultClassifier.Classify(set, layout)
}
