package render

import (
	"math"

	"github.com/teslashibe/go-facecap/pkg/expression"
)

// HUD placement, anchored to the bottom-left of the surface.
const (
	hudRowFromBottom   = 50
	hudTitleFromBottom = 70
	hudLabelDrop       = 25
	hudEyeDot          = 8
	hudSmileDot        = 10
	hudBarLength       = 50
	hudBarHeight       = 10
)

// Idle instruction lines.
var (
	idleHeader = []string{"Connect a landmark detector", "to track your expressions!"}
	idleFooter = "Blink and smile to see the magic!"
)

// Options tweaks a single render pass.
type Options struct {
	// Idle adds the instruction text shown before tracking starts and after a reset.
	Idle bool
}

type planner struct {
	g     Geometry
	p     Profile
	pal   Palette
	w, h  float64
	scene Scene
}

// Plan builds the display list for one frame. The result depends only on its
// arguments, so equal inputs produce equal scenes.
func Plan(face expression.FaceState, p Profile, width, height int, opts Options) Scene {
	pl := &planner{
		g:   NewGeometry(face.Layout, p),
		p:   p,
		pal: p.Palette,
		w:   float64(width),
		h:   float64(height),
	}
	v := Select(face, p)

	pl.background()
	pl.head()
	if p.Eyebrows {
		pl.eyebrows()
	}
	pl.eye(-1, v.LeftEye)
	pl.eye(1, v.RightEye)
	if p.Nose {
		pl.nose()
	}
	pl.mouth(v.Mouth)
	if p.HUD {
		pl.hud(face)
	}
	if opts.Idle {
		pl.instructions()
	}
	return pl.scene
}

func (pl *planner) add(p Primitive) {
	pl.scene = append(pl.scene, p)
}

func (pl *planner) background() {
	if !pl.p.Gradients {
		return
	}
	cx, cy := pl.w/2, pl.h/2
	r := min(pl.w, pl.h) / 2
	pl.add(fill(Rect{X: 0, Y: 0, W: pl.w, H: pl.h}, Radial(cx, cy, 0, cx, cy, r,
		Stop{0, pl.pal.BackgroundInner},
		Stop{1, pl.pal.BackgroundOuter},
	)))
}

func (pl *planner) head() {
	g := pl.g
	if pl.p.Shadow {
		pl.add(fill(Circle{X: g.CX + g.ShadowOff, Y: g.CY + g.ShadowOff, R: g.R}, Solid(pl.pal.Shadow)))
	}

	facePaint := Solid(pl.pal.Face)
	if pl.p.Gradients {
		facePaint = Radial(g.CX, g.CY+g.FaceFocus, 0, g.CX, g.CY, g.R,
			Stop{0, pl.pal.FaceLight},
			Stop{0.7, pl.pal.Face},
			Stop{1, pl.pal.FaceDark},
		)
	}
	pl.add(fillStroke(Circle{X: g.CX, Y: g.CY, R: g.R}, facePaint, Solid(pl.pal.Ink), pl.p.FaceLineWidth))
}

func (pl *planner) eyebrows() {
	g := pl.g
	er := g.EyeRadius
	inner, outer := g.EyeY-er*1.2, g.EyeY-er*1.5

	lx1, ly1 := g.at(-g.EyeOffset-er*0.8, outer)
	lx2, ly2 := g.at(-g.EyeOffset+er*0.8, inner)
	pl.add(stroke(Line{X1: lx1, Y1: ly1, X2: lx2, Y2: ly2}, Solid(pl.pal.Ink), 4, CapRound))

	rx1, ry1 := g.at(g.EyeOffset-er*0.8, inner)
	rx2, ry2 := g.at(g.EyeOffset+er*0.8, outer)
	pl.add(stroke(Line{X1: rx1, Y1: ry1, X2: rx2, Y2: ry2}, Solid(pl.pal.Ink), 4, CapRound))
}

// eye draws the left eye for side -1 and the right eye for side 1.
func (pl *planner) eye(side float64, v EyeVisual) {
	g := pl.g
	er := g.EyeRadius
	x, y := g.at(side*g.EyeOffset, g.EyeY)

	switch e := v.(type) {
	case EyeOpen:
		pl.add(fillStroke(Ellipse{X: x, Y: y, RX: er, RY: er * e.Openness},
			Solid(pl.pal.EyeWhite), Solid(pl.pal.Ink), 2))
		pl.add(fill(Circle{X: x, Y: y, R: er * 0.4 * e.Openness}, Solid(pl.pal.Ink)))
	case EyeClosed:
		pl.add(stroke(Line{X1: x - er, Y1: y, X2: x + er, Y2: y}, Solid(pl.pal.Ink), 3, CapRound))
	}
}

func (pl *planner) nose() {
	g := pl.g
	ns := g.NoseSize
	tx, ty := g.at(0, g.NoseY-ns)
	lx, ly := g.at(-ns*0.6, g.NoseY)
	rx, ry := g.at(ns*0.6, g.NoseY)
	pl.add(stroke(Polyline{Points: []Point{{tx, ty}, {lx, ly}, {rx, ry}}}, Solid(pl.pal.Ink), 3, CapRound))

	for _, side := range []float64{-1, 1} {
		x, y := g.at(side*ns*0.3, g.NoseY-g.NostrilR)
		pl.add(fill(Circle{X: x, Y: y, R: g.NostrilR}, Solid(pl.pal.Ink)))
	}
}

func (pl *planner) mouth(v MouthVisual) {
	g := pl.g
	hw := g.MouthHalfWidth
	lx, y := g.at(-hw, g.MouthY)
	rx, _ := g.at(hw, g.MouthY)

	switch m := v.(type) {
	case MouthSmiling:
		cx, cy := g.at(0, g.MouthY-m.Depth)
		paint := Solid(pl.pal.Smile)
		if pl.p.Gradients {
			paint = Linear(lx, y, rx, y,
				Stop{0, pl.pal.Smile},
				Stop{0.5, pl.pal.SmileDeep},
				Stop{1, pl.pal.Smile},
			)
		}
		pl.add(stroke(Arc{X: cx, Y: cy, R: g.SmileRadius, Start: 0.3, End: math.Pi - 0.3},
			paint, pl.p.SmileLineWidth, CapRound))
		if pl.p.Gradients {
			pl.add(stroke(Arc{X: cx, Y: cy, R: g.SmileRadius, Start: 0.4, End: math.Pi - 0.4},
				Solid(pl.pal.SmileGlow), pl.p.SmileLineWidth+2, CapRound))
		}

	case MouthNeutral:
		paint := Solid(pl.pal.Ink)
		if pl.p.Gradients {
			paint = Linear(lx, y, rx, y,
				Stop{0, pl.pal.Ink},
				Stop{0.5, pl.pal.InkSoft},
				Stop{1, pl.pal.Ink},
			)
		}
		cx, cy := g.at(0, g.MouthY+g.NeutralSag)
		pl.add(stroke(Quad{X1: lx, Y1: y, CX: cx, CY: cy, X2: rx, Y2: y}, paint, 4, CapRound))
		pl.add(fill(Circle{X: lx, Y: y, R: g.CornerDot}, Solid(pl.pal.Ink)))
		pl.add(fill(Circle{X: rx, Y: y, R: g.CornerDot}, Solid(pl.pal.Ink)))
	}
}

func (pl *planner) hud(face expression.FaceState) {
	pal := pl.pal
	y := pl.h - hudRowFromBottom

	indicator := func(on bool, onColor, offColor Color) *Paint {
		if on {
			return Solid(onColor)
		}
		return Solid(offColor)
	}

	pl.add(fill(Circle{X: 50, Y: y, R: hudEyeDot}, indicator(face.EyeLeftOpen, pal.IndicatorOn, pal.IndicatorOff)))
	pl.add(fill(Circle{X: 100, Y: y, R: hudEyeDot}, indicator(face.EyeRightOpen, pal.IndicatorOn, pal.IndicatorOff)))
	pl.add(fill(Circle{X: 150, Y: y, R: hudSmileDot}, indicator(face.IsSmiling, pal.SmileOn, pal.SmileOff)))

	if face.IsSmiling {
		pl.add(fill(Rect{X: 170, Y: y - hudBarHeight/2, W: face.SmileIntensity * hudBarLength, H: hudBarHeight},
			Solid(pal.SmileOn)))
	}

	labelY := y + hudLabelDrop
	pl.add(fill(Text{X: 30, Y: labelY, Text: "Left Eye", Size: 12, Align: AlignLeft}, Solid(pal.Ink)))
	pl.add(fill(Text{X: 75, Y: labelY, Text: "Right Eye", Size: 12, Align: AlignLeft}, Solid(pal.Ink)))
	pl.add(fill(Text{X: 125, Y: labelY, Text: "Smile", Size: 12, Align: AlignLeft}, Solid(pal.Ink)))

	pl.add(fill(Text{X: 30, Y: pl.h - hudTitleFromBottom, Text: "Expression Status:", Size: 14, Align: AlignLeft},
		Solid(pal.Ink)))
}

func (pl *planner) instructions() {
	paint := Solid(pl.pal.Hint)
	for i, line := range idleHeader {
		pl.add(fill(Text{X: pl.w / 2, Y: 30 + float64(i)*20, Text: line, Size: 16, Align: AlignCenter}, paint))
	}
	pl.add(fill(Text{X: pl.w / 2, Y: pl.h - 20, Text: idleFooter, Size: 16, Align: AlignCenter}, paint))
}
