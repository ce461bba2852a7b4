package render

import (
	"sort"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PaintKind selects how a Paint colors pixels.
type PaintKind string

const (
	PaintSolid  PaintKind = "solid"
	PaintLinear PaintKind = "linear"
	PaintRadial PaintKind = "radial"
)

// Stop is one gradient color stop, Offset in [0, 1].
type Stop struct {
	Offset float64 `json:"offset"`
	Color  Color   `json:"color"`
}

// Paint is a solid color or a gradient. Gradient geometry is in surface
// coordinates: linear runs from (X0,Y0) to (X1,Y1); radial runs from the
// circle (X0,Y0,R0) to the circle (X1,Y1,R1), like a 2D canvas.
type Paint struct {
	Kind  PaintKind `json:"kind"`
	Color Color     `json:"color,omitempty"`
	Stops []Stop    `json:"stops,omitempty"`

	X0 float64 `json:"x0,omitempty"`
	Y0 float64 `json:"y0,omitempty"`
	R0 float64 `json:"r0,omitempty"`
	X1 float64 `json:"x1,omitempty"`
	Y1 float64 `json:"y1,omitempty"`
	R1 float64 `json:"r1,omitempty"`
}

// Solid returns a flat paint.
func Solid(c Color) *Paint {
	return &Paint{Kind: PaintSolid, Color: c}
}

// Linear returns a linear gradient paint.
func Linear(x0, y0, x1, y1 float64, stops ...Stop) *Paint {
	return &Paint{Kind: PaintLinear, Stops: stops, X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// Radial returns a two-circle radial gradient paint.
func Radial(x0, y0, r0, x1, y1, r1 float64, stops ...Stop) *Paint {
	return &Paint{Kind: PaintRadial, Stops: stops, X0: x0, Y0: y0, R0: r0, X1: x1, Y1: y1, R1: r1}
}

// At returns the paint's color at gradient offset t.
// Solid paints return their color for any t.
func (p *Paint) At(t float64) Color {
	if p.Kind == PaintSolid || len(p.Stops) == 0 {
		return p.Color
	}
	stops := p.Stops
	if !sort.SliceIsSorted(stops, func(i, j int) bool { return stops[i].Offset < stops[j].Offset }) {
		stops = append([]Stop(nil), stops...)
		sort.SliceStable(stops, func(i, j int) bool { return stops[i].Offset < stops[j].Offset })
	}
	if t <= stops[0].Offset {
		return stops[0].Color
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].Offset {
			a, b := stops[i-1], stops[i]
			span := b.Offset - a.Offset
			if span <= 0 {
				return b.Color
			}
			return mix(a.Color, b.Color, (t-a.Offset)/span)
		}
	}
	return stops[len(stops)-1].Color
}

// Representative is the single color used by backends without gradients.
func (p *Paint) Representative() Color {
	return p.At(0.5)
}

// Cap is a stroke end style.
type Cap string

const (
	CapButt  Cap = "butt"
	CapRound Cap = "round"
)

// Stroke describes an outline.
type Stroke struct {
	Paint *Paint  `json:"paint"`
	Width float64 `json:"width"`
	Cap   Cap     `json:"cap,omitempty"`
}

// Point is a surface coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Shape is the geometry of one primitive. The set of shapes is closed.
type Shape interface {
	Kind() string
	isShape()
}

// Rect is an axis-aligned rectangle with its top-left corner at (X, Y).
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Circle is a full circle.
type Circle struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r"`
}

// Ellipse is an axis-aligned ellipse.
type Ellipse struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	RX float64 `json:"rx"`
	RY float64 `json:"ry"`
}

// Arc is a circular arc. Angles are radians measured clockwise from +x in
// y-down surface space, drawn from Start to End.
type Arc struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	R     float64 `json:"r"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Line is a straight segment.
type Line struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Quad is a quadratic Bezier curve from (X1,Y1) to (X2,Y2) with control (CX,CY).
type Quad struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	CX float64 `json:"cx"`
	CY float64 `json:"cy"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Polyline is an open or closed chain of segments.
type Polyline struct {
	Points []Point `json:"points"`
	Closed bool    `json:"closed,omitempty"`
}

// Align is horizontal text alignment.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
)

// Text is a label whose baseline starts (or is centered) at (X, Y).
type Text struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Text  string  `json:"text"`
	Size  float64 `json:"size"`
	Align Align   `json:"align,omitempty"`
}

func (Rect) Kind() string     { return "rect" }
func (Circle) Kind() string   { return "circle" }
func (Ellipse) Kind() string  { return "ellipse" }
func (Arc) Kind() string      { return "arc" }
func (Line) Kind() string     { return "line" }
func (Quad) Kind() string     { return "quad" }
func (Polyline) Kind() string { return "polyline" }
func (Text) Kind() string     { return "text" }

func (Rect) isShape()     {}
func (Circle) isShape()   {}
func (Ellipse) isShape()  {}
func (Arc) isShape()      {}
func (Line) isShape()     {}
func (Quad) isShape()     {}
func (Polyline) isShape() {}
func (Text) isShape()     {}

// Primitive is one layered drawing operation: a shape filled and/or stroked.
// Text is drawn with its Fill paint.
type Primitive struct {
	Shape  Shape
	Fill   *Paint
	Stroke *Stroke
}

// MarshalJSON tags the shape with its kind so clients can dispatch.
func (p Primitive) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind   string  `json:"kind"`
		Shape  Shape   `json:"shape"`
		Fill   *Paint  `json:"fill,omitempty"`
		Stroke *Stroke `json:"stroke,omitempty"`
	}{p.Shape.Kind(), p.Shape, p.Fill, p.Stroke})
}

// Scene is an ordered display list, bottom layer first.
type Scene []Primitive

func fill(s Shape, p *Paint) Primitive {
	return Primitive{Shape: s, Fill: p}
}

func stroke(s Shape, p *Paint, width float64, c Cap) Primitive {
	return Primitive{Shape: s, Stroke: &Stroke{Paint: p, Width: width, Cap: c}}
}

func fillStroke(s Shape, f *Paint, p *Paint, width float64) Primitive {
	return Primitive{Shape: s, Fill: f, Stroke: &Stroke{Paint: p, Width: width, Cap: CapButt}}
}
