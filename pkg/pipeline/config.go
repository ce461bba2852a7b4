package pipeline

import (
	"time"

	"github.com/teslashibe/go-facecap/pkg/expression"
	"github.com/teslashibe/go-facecap/pkg/render"
)

// Config holds pipeline settings.
type Config struct {
	// Classifier holds the expression thresholds.
	Classifier expression.Config

	// Style is the initial rendering profile.
	Style render.Style

	// PublishTimeout bounds one sink publish.
	PublishTimeout time.Duration
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Classifier:     expression.DefaultConfig(),
		Style:          render.StyleEnhanced,
		PublishTimeout: 2 * time.Second,
	}
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSink adds sinks that receive every classified frame.
func WithSink(sinks ...Sink) Option {
	return func(p *Pipeline) {
		p.sinks = append(p.sinks, sinks...)
	}
}

// WithRejectHandler sets a callback for frames rejected as invalid input.
// It runs after the frame lock is released.
func WithRejectHandler(fn func(Frame, error)) Option {
	return func(p *Pipeline) {
		p.onReject = fn
	}
}
