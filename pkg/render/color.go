package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Color is a non-premultiplied RGBA color. It satisfies color.Color and
// marshals to JSON as "#rrggbbaa".
type Color color.NRGBA

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA(c).RGBA()
}

// Hex parses "#rrggbb" or "#rrggbbaa". It panics on malformed input and is
// meant for palette literals.
func Hex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseHex parses "#rrggbb" or "#rrggbbaa".
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 && len(h) != 8 {
		return Color{}, fmt.Errorf("bad color %q", s)
	}
	if len(h) == 6 {
		h += "ff"
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// RGBAf builds a color from 8-bit channels and a [0,1] alpha.
func RGBAf(r, g, b uint8, alpha float64) Color {
	return Color{R: r, G: g, B: b, A: uint8(math.Round(clamp01(alpha) * 255))}
}

// Alpha returns the opacity in [0, 1].
func (c Color) Alpha() float64 {
	return float64(c.A) / 255
}

// Opaque returns c with full alpha.
func (c Color) Opaque() Color {
	c.A = 255
	return c
}

// String returns "#rrggbbaa".
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseHex(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// mix interpolates two colors channel-wise.
func mix(a, b Color, t float64) Color {
	t = clamp01(t)
	ch := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + t*(float64(y)-float64(x))))
	}
	return Color{R: ch(a.R, b.R), G: ch(a.G, b.G), B: ch(a.B, b.B), A: ch(a.A, b.A)}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Palette is the set of colors a profile draws with.
type Palette struct {
	Ink      Color // outlines, pupils, closed eyes, neutral mouth
	InkSoft  Color // neutral mouth gradient midpoint
	EyeWhite Color

	FaceLight Color // radial gradient center
	Face      Color // flat fill / gradient middle
	FaceDark  Color // radial gradient rim
	Shadow    Color

	Smile     Color
	SmileDeep Color
	SmileGlow Color

	BackgroundInner Color
	BackgroundOuter Color

	IndicatorOn  Color
	IndicatorOff Color
	SmileOn      Color
	SmileOff     Color
	Hint         Color
}

// DefaultPalette returns the warm cartoon palette.
func DefaultPalette() Palette {
	return Palette{
		Ink:      Hex("#2c3e50"),
		InkSoft:  Hex("#34495e"),
		EyeWhite: Hex("#ffffff"),

		FaceLight: Hex("#fff3cd"),
		Face:      Hex("#ffeaa7"),
		FaceDark:  Hex("#fdcb6e"),
		Shadow:    RGBAf(0, 0, 0, 0.1),

		Smile:     Hex("#e74c3c"),
		SmileDeep: Hex("#c0392b"),
		SmileGlow: RGBAf(231, 76, 60, 0.3),

		BackgroundInner: RGBAf(102, 126, 234, 0.05),
		BackgroundOuter: RGBAf(118, 75, 162, 0.02),

		IndicatorOn:  Hex("#27ae60"),
		IndicatorOff: Hex("#e74c3c"),
		SmileOn:      Hex("#f39c12"),
		SmileOff:     Hex("#95a5a6"),
		Hint:         Hex("#95a5a6"),
	}
}
