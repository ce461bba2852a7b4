package expression

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config holds all tunable classification constants.
type Config struct {
	// EyeApertureScale is the vertical eye aperture (normalized units) that
	// maps to full openness. Tuned to the detector's coordinate scale.
	EyeApertureScale float64 `json:"eye_aperture_scale" validate:"gt=0"`

	// EyeOpenThreshold: an eye is open when openness is strictly above it.
	EyeOpenThreshold float64 `json:"eye_open_threshold" validate:"gte=0,lte=1"`

	// SmileElevation is the minimum average corner elevation (exclusive).
	SmileElevation float64 `json:"smile_elevation"`

	// SmileWidthRatio is the minimum mouth width/height ratio (exclusive).
	SmileWidthRatio float64 `json:"smile_width_ratio" validate:"gt=0"`

	// MinMouthHeight floors the mouth height before dividing by it.
	MinMouthHeight float64 `json:"min_mouth_height" validate:"gt=0"`

	// IntensityGain scales corner elevation into [0, 1] smile intensity.
	IntensityGain float64 `json:"intensity_gain" validate:"gt=0"`
}

// DefaultConfig returns the constants tuned for the standard face mesh.
func DefaultConfig() Config {
	return Config{
		EyeApertureScale: 0.02,
		EyeOpenThreshold: 0.3,
		SmileElevation:   0.005,
		SmileWidthRatio:  3.0,
		MinMouthHeight:   0.001,
		IntensityGain:    100,
	}
}

var validate = validator.New()

// Validate checks that the constants are usable.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Openness maps a vertical eye aperture to [0, 1], saturating at the scale.
func (c Config) Openness(aperture float64) float64 {
	return min(1.0, aperture/c.EyeApertureScale)
}

// EyeOpen applies the strict open threshold.
func (c Config) EyeOpen(openness float64) bool {
	return openness > c.EyeOpenThreshold
}

// Intensity maps an average corner elevation to [0, 1].
func (c Config) Intensity(avgElevation float64) float64 {
	return clamp(avgElevation*c.IntensityGain, 0, 1)
}

// clamp restricts a value to a range.
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
