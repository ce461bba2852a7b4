// Package ggsurface implements render.Surface on an anti-aliased vector
// rasterizer (fogleman/gg) with PNG output.
package ggsurface

import (
	"bytes"
	"image"
	"image/color"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/teslashibe/go-facecap/pkg/render"
)

// ContentType is the MIME type produced by Encode.
const ContentType = "image/png"

var (
	fontOnce sync.Once
	goFont   *truetype.Font
	fontErr  error
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		goFont, fontErr = truetype.Parse(goregular.TTF)
	})
	return goFont, fontErr
}

// Surface is a gg-backed drawing surface. Not safe for concurrent use.
type Surface struct {
	dc         *gg.Context
	w, h       int
	background color.Color
	faces      map[float64]font.Face
}

// New creates a surface with a white background.
func New(width, height int) *Surface {
	return NewWithBackground(width, height, color.White)
}

// NewWithBackground creates a surface cleared to bg.
func NewWithBackground(width, height int, bg color.Color) *Surface {
	s := &Surface{
		w:          width,
		h:          height,
		background: bg,
		faces:      make(map[float64]font.Face),
	}
	if width > 0 && height > 0 {
		s.dc = gg.NewContext(width, height)
	}
	return s
}

// Size implements render.Surface.
func (s *Surface) Size() (int, int) {
	if s == nil || s.dc == nil {
		return 0, 0
	}
	return s.w, s.h
}

// Clear implements render.Surface.
func (s *Surface) Clear() {
	if s == nil || s.dc == nil {
		return
	}
	s.dc.ClearPath()
	s.dc.SetColor(s.background)
	s.dc.Clear()
}

// Draw implements render.Surface.
func (s *Surface) Draw(p render.Primitive) {
	if s == nil || s.dc == nil || p.Shape == nil {
		return
	}
	dc := s.dc
	dc.ClearPath()

	if t, ok := p.Shape.(render.Text); ok {
		s.drawText(t, p.Fill)
		return
	}

	s.path(p.Shape)

	switch {
	case p.Fill != nil && p.Stroke != nil:
		dc.SetFillStyle(pattern(p.Fill))
		dc.FillPreserve()
		s.applyStroke(p.Stroke)
		dc.Stroke()
	case p.Fill != nil:
		dc.SetFillStyle(pattern(p.Fill))
		dc.Fill()
	case p.Stroke != nil:
		s.applyStroke(p.Stroke)
		dc.Stroke()
	default:
		dc.ClearPath()
	}
}

func (s *Surface) path(shape render.Shape) {
	dc := s.dc
	switch v := shape.(type) {
	case render.Rect:
		dc.DrawRectangle(v.X, v.Y, v.W, v.H)
	case render.Circle:
		dc.DrawCircle(v.X, v.Y, v.R)
	case render.Ellipse:
		dc.DrawEllipse(v.X, v.Y, v.RX, v.RY)
	case render.Arc:
		dc.NewSubPath()
		dc.DrawArc(v.X, v.Y, v.R, v.Start, v.End)
	case render.Line:
		dc.MoveTo(v.X1, v.Y1)
		dc.LineTo(v.X2, v.Y2)
	case render.Quad:
		dc.MoveTo(v.X1, v.Y1)
		dc.QuadraticTo(v.CX, v.CY, v.X2, v.Y2)
	case render.Polyline:
		for i, pt := range v.Points {
			if i == 0 {
				dc.MoveTo(pt.X, pt.Y)
			} else {
				dc.LineTo(pt.X, pt.Y)
			}
		}
		if v.Closed {
			dc.ClosePath()
		}
	}
}

func (s *Surface) applyStroke(st *render.Stroke) {
	dc := s.dc
	dc.SetStrokeStyle(pattern(st.Paint))
	dc.SetLineWidth(st.Width)
	if st.Cap == render.CapRound {
		dc.SetLineCap(gg.LineCapRound)
	} else {
		dc.SetLineCap(gg.LineCapButt)
	}
}

func (s *Surface) drawText(t render.Text, paint *render.Paint) {
	if paint == nil {
		return
	}
	if face := s.face(t.Size); face != nil {
		s.dc.SetFontFace(face)
	}
	s.dc.SetColor(paint.Representative())
	ax := 0.0
	if t.Align == render.AlignCenter {
		ax = 0.5
	}
	s.dc.DrawStringAnchored(t.Text, t.X, t.Y, ax, 0)
}

// face returns a cached Go-font face, or nil to keep gg's built-in face.
func (s *Surface) face(size float64) font.Face {
	if size <= 0 {
		return nil
	}
	if f, ok := s.faces[size]; ok {
		return f
	}
	tt, err := loadFont()
	if err != nil {
		return nil
	}
	f := truetype.NewFace(tt, &truetype.Options{Size: size})
	s.faces[size] = f
	return f
}

func pattern(p *render.Paint) gg.Pattern {
	switch p.Kind {
	case render.PaintLinear:
		g := gg.NewLinearGradient(p.X0, p.Y0, p.X1, p.Y1)
		for _, st := range p.Stops {
			g.AddColorStop(st.Offset, st.Color)
		}
		return g
	case render.PaintRadial:
		g := gg.NewRadialGradient(p.X0, p.Y0, p.R0, p.X1, p.Y1, p.R1)
		for _, st := range p.Stops {
			g.AddColorStop(st.Offset, st.Color)
		}
		return g
	default:
		return gg.NewSolidPattern(p.Color)
	}
}

// Image returns the current raster.
func (s *Surface) Image() image.Image {
	if s == nil || s.dc == nil {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	return s.dc.Image()
}

// Encode returns the current raster as PNG.
func (s *Surface) Encode() ([]byte, string, error) {
	if s == nil || s.dc == nil {
		return nil, "", render.ErrSurfaceUnavailable
	}
	var buf bytes.Buffer
	if err := s.dc.EncodePNG(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), ContentType, nil
}

// SavePNG writes the current raster to a file.
func (s *Surface) SavePNG(path string) error {
	if s == nil || s.dc == nil {
		return render.ErrSurfaceUnavailable
	}
	return s.dc.SavePNG(path)
}
