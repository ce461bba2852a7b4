// Package cvsurface implements render.Surface on an OpenCV Mat (gocv).
//
// OpenCV has no gradient paints, so gradients are drawn with their mid-stop
// color. Translucent paints are alpha blended onto the frame.
package cvsurface

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-facecap/pkg/render"
)

// Format selects the encoded image type.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// quadSegments is the flattening resolution of quadratic curves.
const quadSegments = 24

// Surface is a BGR Mat drawing surface. Call Close to release it.
type Surface struct {
	mat        gocv.Mat
	w, h       int
	background color.RGBA
	format     Format
	ok         bool
}

// New creates a PNG-encoding surface with a white background.
func New(width, height int) *Surface {
	return NewWithFormat(width, height, FormatPNG)
}

// NewWithFormat creates a surface that encodes to the given format.
func NewWithFormat(width, height int, format Format) *Surface {
	s := &Surface{
		w:          width,
		h:          height,
		background: color.RGBA{R: 255, G: 255, B: 255, A: 255},
		format:     format,
	}
	if width > 0 && height > 0 {
		s.mat = gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
		s.ok = true
	}
	return s
}

// Size implements render.Surface.
func (s *Surface) Size() (int, int) {
	if s == nil || !s.ok {
		return 0, 0
	}
	return s.w, s.h
}

// Clear implements render.Surface.
func (s *Surface) Clear() {
	if s == nil || !s.ok {
		return
	}
	bg := s.background
	s.mat.SetTo(gocv.NewScalar(float64(bg.B), float64(bg.G), float64(bg.R), 0))
}

// Draw implements render.Surface.
func (s *Surface) Draw(p render.Primitive) {
	if s == nil || !s.ok || p.Shape == nil {
		return
	}
	if p.Fill != nil {
		s.blended(p.Fill.Representative(), func(dst *gocv.Mat, c color.RGBA) {
			drawShape(dst, p.Shape, c, -1)
		})
	}
	if p.Stroke != nil {
		thickness := max(1, int(math.Round(p.Stroke.Width)))
		s.blended(p.Stroke.Paint.Representative(), func(dst *gocv.Mat, c color.RGBA) {
			drawShape(dst, p.Shape, c, thickness)
		})
	}
}

// blended draws opaque colors directly and translucent ones through an
// overlay weighted by the paint alpha.
func (s *Surface) blended(c render.Color, draw func(dst *gocv.Mat, c color.RGBA)) {
	opaque := color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
	alpha := c.Alpha()
	if alpha >= 1 {
		draw(&s.mat, opaque)
		return
	}
	if alpha <= 0 {
		return
	}
	overlay := s.mat.Clone()
	defer overlay.Close()
	draw(&overlay, opaque)
	gocv.AddWeighted(overlay, alpha, s.mat, 1-alpha, 0, &s.mat)
}

// drawShape draws one shape; thickness -1 fills.
func drawShape(dst *gocv.Mat, shape render.Shape, c color.RGBA, thickness int) {
	switch v := shape.(type) {
	case render.Rect:
		r := image.Rect(round(v.X), round(v.Y), round(v.X+v.W), round(v.Y+v.H))
		gocv.Rectangle(dst, r, c, thickness)
	case render.Circle:
		gocv.Circle(dst, pt(v.X, v.Y), round(v.R), c, thickness)
	case render.Ellipse:
		gocv.Ellipse(dst, pt(v.X, v.Y), image.Pt(round(v.RX), round(v.RY)), 0, 0, 360, c, thickness)
	case render.Arc:
		// OpenCV angles are degrees, clockwise in image space like ours
		gocv.Ellipse(dst, pt(v.X, v.Y), image.Pt(round(v.R), round(v.R)), 0,
			degrees(v.Start), degrees(v.End), c, max(thickness, 1))
	case render.Line:
		gocv.Line(dst, pt(v.X1, v.Y1), pt(v.X2, v.Y2), c, max(thickness, 1))
	case render.Quad:
		polyline(dst, flattenQuad(v), false, c, max(thickness, 1))
	case render.Polyline:
		pts := make([]image.Point, len(v.Points))
		for i, p := range v.Points {
			pts[i] = pt(p.X, p.Y)
		}
		if thickness < 0 && v.Closed {
			pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
			defer pv.Close()
			gocv.FillPoly(dst, pv, c)
			return
		}
		polyline(dst, pts, v.Closed, c, max(thickness, 1))
	case render.Text:
		drawText(dst, v, c)
	}
}

func polyline(dst *gocv.Mat, pts []image.Point, closed bool, c color.RGBA, thickness int) {
	if len(pts) < 2 {
		return
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer pv.Close()
	gocv.Polylines(dst, pv, closed, c, thickness)
}

func drawText(dst *gocv.Mat, t render.Text, c color.RGBA) {
	// Hershey simplex is ~22px tall at scale 1
	scale := t.Size / 22
	org := pt(t.X, t.Y)
	if t.Align == render.AlignCenter {
		size := gocv.GetTextSize(t.Text, gocv.FontHersheySimplex, scale, 1)
		org.X -= size.X / 2
	}
	gocv.PutText(dst, t.Text, org, gocv.FontHersheySimplex, scale, c, 1)
}

// flattenQuad samples a quadratic Bezier curve into points.
func flattenQuad(q render.Quad) []image.Point {
	pts := make([]image.Point, 0, quadSegments+1)
	for i := 0; i <= quadSegments; i++ {
		t := float64(i) / quadSegments
		u := 1 - t
		x := u*u*q.X1 + 2*u*t*q.CX + t*t*q.X2
		y := u*u*q.Y1 + 2*u*t*q.CY + t*t*q.Y2
		pts = append(pts, pt(x, y))
	}
	return pts
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func round(v float64) int {
	return int(math.Round(v))
}

func pt(x, y float64) image.Point {
	return image.Pt(round(x), round(y))
}

// Mat returns the underlying frame. It stays owned by the surface.
func (s *Surface) Mat() gocv.Mat {
	if s == nil {
		return gocv.Mat{}
	}
	return s.mat
}

// Encode returns the current frame as PNG or JPEG.
func (s *Surface) Encode() ([]byte, string, error) {
	if s == nil || !s.ok {
		return nil, "", render.ErrSurfaceUnavailable
	}
	ext, ct := gocv.PNGFileExt, "image/png"
	if s.format == FormatJPEG {
		ext, ct = gocv.JPEGFileExt, "image/jpeg"
	}
	buf, err := gocv.IMEncode(ext, s.mat)
	if err != nil {
		return nil, "", err
	}
	defer buf.Close()

	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out, ct, nil
}

// Close releases the Mat.
func (s *Surface) Close() error {
	if s == nil || !s.ok {
		return nil
	}
	s.ok = false
	return s.mat.Close()
}
