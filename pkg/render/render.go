// Package render draws a FaceState as a stylized procedural face.
//
// Rendering is split in two steps. Plan turns a FaceState and a Profile into
// a Scene, an ordered list of vector primitives; all geometry is derived from
// the face radius. Render clears a Surface and draws the scene on it, bottom
// layer first. Both steps are stateless across frames.
package render

import (
	"github.com/teslashibe/go-facecap/pkg/expression"
)

// Surface is a fixed-size 2D drawing target.
type Surface interface {
	// Size returns the surface dimensions in pixels.
	Size() (width, height int)

	// Clear resets every pixel to the surface background.
	Clear()

	// Draw composes one primitive over what is already drawn.
	Draw(p Primitive)
}

// Render fully redraws the surface from the face state. It returns
// ErrSurfaceUnavailable without drawing when the surface is nil or empty.
func Render(s Surface, face expression.FaceState, p Profile, opts Options) error {
	_, err := RenderScene(s, face, p, opts)
	return err
}

// RenderScene is Render that also returns the scene it drew.
func RenderScene(s Surface, face expression.FaceState, p Profile, opts Options) (Scene, error) {
	if s == nil {
		return nil, ErrSurfaceUnavailable
	}
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return nil, ErrSurfaceUnavailable
	}

	scene := Plan(face, p, w, h, opts)
	s.Clear()
	for _, prim := range scene {
		s.Draw(prim)
	}
	return scene, nil
}

// Recorder is a Surface that keeps the primitives drawn since the last Clear.
type Recorder struct {
	Width, Height int

	scene  Scene
	clears int
}

// NewRecorder creates a recorder of the given size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{Width: width, Height: height}
}

// Size implements Surface.
func (r *Recorder) Size() (int, int) {
	return r.Width, r.Height
}

// Clear implements Surface.
func (r *Recorder) Clear() {
	r.scene = nil
	r.clears++
}

// Draw implements Surface.
func (r *Recorder) Draw(p Primitive) {
	r.scene = append(r.scene, p)
}

// Scene returns the primitives drawn since the last Clear.
func (r *Recorder) Scene() Scene {
	return r.scene
}

// Clears returns how many times the surface was cleared.
func (r *Recorder) Clears() int {
	return r.clears
}
