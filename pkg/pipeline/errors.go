package pipeline

import "errors"

// ErrClosed is returned by Process and Reset after Close.
var ErrClosed = errors.New("pipeline: closed")
