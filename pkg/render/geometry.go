package render

import "github.com/teslashibe/go-facecap/pkg/expression"

// Geometry holds face measurements derived from the face radius.
// Offsets are relative to the face center.
type Geometry struct {
	CX, CY, R float64

	EyeOffset float64 // horizontal distance of each eye from center
	EyeY      float64 // negative: above center
	EyeRadius float64

	MouthY         float64
	MouthHalfWidth float64
	SmileRadius    float64
	NeutralSag     float64 // control point drop of the neutral curve
	CornerDot      float64

	NoseY     float64
	NoseSize  float64
	NostrilR  float64
	ShadowOff float64
	FaceFocus float64 // vertical offset of the face gradient focus
}

// NewGeometry derives the face geometry for a layout and profile.
func NewGeometry(l expression.Layout, p Profile) Geometry {
	r := l.FaceRadius
	g := Geometry{
		CX: l.CenterX,
		CY: l.CenterY,
		R:  r,

		EyeOffset: pct(r, 35),
		EyeY:      -pct(r, 20),
		EyeRadius: p.EyeRadius(r),

		MouthY:         pct(r, 35),
		MouthHalfWidth: pct(r, 25),
		SmileRadius:    pct(r, 40),
		NeutralSag:     r / 60,
		CornerDot:      r / 40,

		NoseSize:  pct(r, 8),
		NostrilR:  r / 60,
		ShadowOff: r / 40,
		FaceFocus: -r / 6,
	}
	g.NoseY = g.EyeY + pct(r, 30)
	return g
}

// at converts a face-relative offset to surface coordinates.
func (g Geometry) at(dx, dy float64) (float64, float64) {
	return g.CX + dx, g.CY + dy
}
