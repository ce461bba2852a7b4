package render

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-facecap/pkg/expression"
)

// Style names a rendering profile.
type Style string

const (
	StyleBasic    Style = "basic"
	StyleEnhanced Style = "enhanced"
)

// ParseStyle parses a style name, case-insensitively.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case StyleBasic:
		return StyleBasic, nil
	case StyleEnhanced:
		return StyleEnhanced, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, s)
	}
}

// Profile bundles layout constants and decorative switches for one style.
// Profiles never change classification.
type Profile struct {
	Style  Style
	Layout expression.Layout

	// Eye radius is max(MinEyeRadius, EyeRadiusPercent% of the face radius)
	// when EyeRadiusPercent is set, FixedEyeRadius otherwise.
	EyeRadiusPercent float64
	MinEyeRadius     float64
	FixedEyeRadius   float64

	// Smile depth is SmileDepthBase + intensity * SmileDepthGain.
	SmileDepthBase float64
	SmileDepthGain float64

	Palette Palette

	FaceLineWidth  float64
	SmileLineWidth float64

	Shadow    bool // offset drop-shadow disc under the face
	Gradients bool // gradient fills and strokes instead of flat colors
	Eyebrows  bool
	Nose      bool
	HUD       bool // expression indicators strip
}

// Basic returns the plain profile: radius 80 at (200, 200), flat colors,
// no decorations.
func Basic() Profile {
	return Profile{
		Style:          StyleBasic,
		Layout:         expression.Layout{CenterX: 200, CenterY: 200, FaceRadius: 80},
		FixedEyeRadius: 10,
		SmileDepthBase: 8,
		SmileDepthGain: 12,
		Palette:        DefaultPalette(),
		FaceLineWidth:  3,
		SmileLineWidth: 4,
	}
}

// Enhanced returns the exhibition profile: radius 120 at (200, 180) with
// shadow, gradients, eyebrows, nose and HUD.
func Enhanced() Profile {
	return Profile{
		Style:            StyleEnhanced,
		Layout:           expression.Layout{CenterX: 200, CenterY: 180, FaceRadius: 120},
		EyeRadiusPercent: 12,
		MinEyeRadius:     12,
		SmileDepthBase:   12,
		SmileDepthGain:   18,
		Palette:          DefaultPalette(),
		FaceLineWidth:    5,
		SmileLineWidth:   6,
		Shadow:           true,
		Gradients:        true,
		Eyebrows:         true,
		Nose:             true,
		HUD:              true,
	}
}

// ProfileFor returns the built-in profile of a style.
func ProfileFor(s Style) (Profile, error) {
	switch s {
	case StyleBasic:
		return Basic(), nil
	case StyleEnhanced:
		return Enhanced(), nil
	default:
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownStyle, s)
	}
}

// EyeRadius returns the eye radius for a face radius.
func (p Profile) EyeRadius(faceRadius float64) float64 {
	if p.EyeRadiusPercent > 0 {
		return max(p.MinEyeRadius, pct(faceRadius, p.EyeRadiusPercent))
	}
	return p.FixedEyeRadius
}

// SmileDepth returns the vertical displacement of the smile arc.
func (p Profile) SmileDepth(intensity float64) float64 {
	return p.SmileDepthBase + intensity*p.SmileDepthGain
}

// DefaultState returns the idle/reset FaceState for this profile.
func (p Profile) DefaultState() expression.FaceState {
	return expression.Default(p.Layout)
}

// pct returns n percent of v. Dividing last keeps round ratios exact
// (120 * 12 / 100 == 14.4, whereas 120 * 0.12 is not).
func pct(v, n float64) float64 {
	return v * n / 100
}
