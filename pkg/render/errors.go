package render

import "errors"

var (
	// ErrSurfaceUnavailable is returned when the target surface is nil or
	// has zero size. Nothing is drawn.
	ErrSurfaceUnavailable = errors.New("drawing surface unavailable")

	// ErrUnknownStyle is returned for an unrecognized style name.
	ErrUnknownStyle = errors.New("unknown render style")
)
