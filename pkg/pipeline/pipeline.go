// Package pipeline runs landmark frames through classification and
// rendering, one frame at a time, and fans the results out to sinks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-facecap/internal/log"
	"github.com/teslashibe/go-facecap/pkg/debug"
	"github.com/teslashibe/go-facecap/pkg/expression"
	"github.com/teslashibe/go-facecap/pkg/landmark"
	"github.com/teslashibe/go-facecap/pkg/render"
)

// Outcome says what a single pass did.
type Outcome int

const (
	// OutcomeRendered: state updated and surface redrawn.
	OutcomeRendered Outcome = iota
	// OutcomeSkipped: no face in the frame, nothing changed.
	OutcomeSkipped
	// OutcomeRejected: invalid landmarks, prior state and image kept.
	OutcomeRejected
	// OutcomeNotRendered: state updated, surface unavailable.
	OutcomeNotRendered
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRendered:
		return "rendered"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRejected:
		return "rejected"
	case OutcomeNotRendered:
		return "not_rendered"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Frame is one detector frame handed to the pipeline.
type Frame struct {
	Source    string
	ID        uint64
	Landmarks landmark.Set
}

// Result is the outcome of one pass.
type Result struct {
	Source  string               `json:"source,omitempty"`
	FrameID uint64               `json:"frame_id,omitempty"`
	Outcome Outcome              `json:"outcome"`
	Style   render.Style         `json:"style"`
	State   expression.FaceState `json:"state"`

	// Image holds the encoded surface when the surface is an Encoder.
	Image       []byte `json:"-"`
	ContentType string `json:"-"`
}

// Sink receives rendered results.
type Sink interface {
	Publish(ctx context.Context, r Result) error
}

// Encoder is implemented by surfaces that can export their pixels.
type Encoder interface {
	Encode() ([]byte, string, error)
}

// Stats holds pipeline counters.
type Stats struct {
	Processed      uint64 `json:"processed"`
	Skipped        uint64 `json:"skipped"`
	Rejected       uint64 `json:"rejected"`
	RenderFailures uint64 `json:"render_failures"`
	Dropped        uint64 `json:"dropped"`
	SinkErrors     uint64 `json:"sink_errors"`
	Resets         uint64 `json:"resets"`
}

// Pipeline owns the classifier, the surface and the current face state.
type Pipeline struct {
	cfg        Config
	classifier *expression.Classifier
	surface    render.Surface
	sinks      []Sink
	onReject   func(Frame, error)

	// frame lock: one classify/render pass at a time
	mu          sync.Mutex
	profile     render.Profile
	state       expression.FaceState
	scene       render.Scene
	image       []byte
	contentType string

	pending chan Frame
	closed  atomic.Bool

	processed      atomic.Uint64
	skipped        atomic.Uint64
	rejected       atomic.Uint64
	renderFailures atomic.Uint64
	dropped        atomic.Uint64
	sinkErrors     atomic.Uint64
	resets         atomic.Uint64
}

// New creates a pipeline and draws the idle display.
func New(cfg Config, surface render.Surface, opts ...Option) (*Pipeline, error) {
	if err := cfg.Classifier.Validate(); err != nil {
		return nil, err
	}
	if cfg.Style == "" {
		cfg.Style = render.StyleEnhanced
	}
	profile, err := render.ProfileFor(cfg.Style)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:        cfg,
		classifier: expression.New(cfg.Classifier),
		surface:    surface,
		profile:    profile,
		state:      profile.DefaultState(),
		pending:    make(chan Frame, 1),
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.draw(true); err != nil {
		log.Warn("initial render failed", "error", err)
	}
	return p, nil
}

// Process runs one frame synchronously.
func (p *Pipeline) Process(set landmark.Set) (Result, error) {
	return p.ProcessFrame(context.Background(), Frame{Landmarks: set})
}

// ProcessFrame runs one classify/render pass and publishes the result.
func (p *Pipeline) ProcessFrame(ctx context.Context, f Frame) (Result, error) {
	if p.closed.Load() {
		return Result{}, ErrClosed
	}

	r, err := p.step(ctx, f)
	if r.Outcome == OutcomeRejected && p.onReject != nil {
		p.onReject(f, err)
	}
	return r, err
}

func (p *Pipeline) step(ctx context.Context, f Frame) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r := Result{Source: f.Source, FrameID: f.ID, Style: p.profile.Style}

	if f.Landmarks.Empty() {
		p.skipped.Add(1)
		r.Outcome = OutcomeSkipped
		r.State = p.state
		return r, nil
	}

	fs, err := p.classifier.Classify(f.Landmarks, p.profile.Layout)
	if err != nil {
		p.rejected.Add(1)
		debug.Log("⚠️  frame %d rejected: %v\n", f.ID, err)
		r.Outcome = OutcomeRejected
		r.State = p.state
		return r, err
	}

	p.state = fs
	r.State = fs
	p.processed.Add(1)

	if err := p.draw(false); err != nil {
		r.Outcome = OutcomeNotRendered
		p.publish(ctx, r)
		return r, err
	}

	r.Outcome = OutcomeRendered
	r.Image, r.ContentType = p.image, p.contentType
	p.publish(ctx, r)
	return r, nil
}

// draw renders the current state. Callers hold the frame lock.
func (p *Pipeline) draw(idle bool) error {
	scene, err := render.RenderScene(p.surface, p.state, p.profile, render.Options{Idle: idle})
	if err != nil {
		p.renderFailures.Add(1)
		p.image, p.contentType = nil, ""
		return err
	}
	p.scene = scene

	enc, ok := p.surface.(Encoder)
	if !ok {
		return nil
	}
	data, ct, err := enc.Encode()
	if err != nil {
		log.Warn("frame encode failed", "error", err)
		return nil
	}
	p.image, p.contentType = data, ct
	return nil
}

func (p *Pipeline) publish(ctx context.Context, r Result) {
	for _, s := range p.sinks {
		pctx, cancel := ctx, context.CancelFunc(func() {})
		if p.cfg.PublishTimeout > 0 {
			pctx, cancel = context.WithTimeout(ctx, p.cfg.PublishTimeout)
		}
		err := s.Publish(pctx, r)
		cancel()
		if err != nil {
			p.sinkErrors.Add(1)
			log.Warn("sink publish failed", "sink", fmt.Sprintf("%T", s), "error", err)
		}
	}
}

// Reset switches to a style, restores its default state and redraws the
// idle display.
func (p *Pipeline) Reset(style render.Style) (Result, error) {
	if p.closed.Load() {
		return Result{}, ErrClosed
	}
	profile, err := render.ProfileFor(style)
	if err != nil {
		return Result{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.profile = profile
	p.state = profile.DefaultState()
	p.resets.Add(1)
	log.Info("🔄 reset", "style", style)

	r := Result{Outcome: OutcomeRendered, Style: style, State: p.state}
	if err := p.draw(true); err != nil {
		r.Outcome = OutcomeNotRendered
		p.publish(context.Background(), r)
		return r, err
	}
	r.Image, r.ContentType = p.image, p.contentType
	p.publish(context.Background(), r)
	return r, nil
}

// Submit queues a set for Run. See SubmitFrame.
func (p *Pipeline) Submit(set landmark.Set) bool {
	return p.SubmitFrame(Frame{Landmarks: set})
}

// SubmitFrame hands a frame to Run without blocking. When a frame is
// already waiting it is replaced, so the loop always picks up the newest.
// It returns false after Close.
func (p *Pipeline) SubmitFrame(f Frame) bool {
	if p.closed.Load() {
		return false
	}
	for {
		select {
		case p.pending <- f:
			return true
		default:
		}
		select {
		case <-p.pending:
			p.dropped.Add(1)
		default:
		}
	}
}

// Run processes submitted frames until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-p.pending:
			if _, err := p.ProcessFrame(ctx, f); err != nil {
				if errors.Is(err, ErrClosed) {
					return err
				}
				log.Debug("frame failed", "source", f.Source, "frame", f.ID, "error", err)
			}
		}
	}
}

// Close stops accepting frames. It does not close the surface.
func (p *Pipeline) Close() error {
	p.closed.Store(true)
	return nil
}

// State returns the current face state.
func (p *Pipeline) State() expression.FaceState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Style returns the active style.
func (p *Pipeline) Style() render.Style {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile.Style
}

// Scene returns the display list of the last successful render.
func (p *Pipeline) Scene() render.Scene {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append(render.Scene(nil), p.scene...)
}

// Image returns the last encoded frame, if the surface supports encoding.
func (p *Pipeline) Image() ([]byte, string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.image) == 0 {
		return nil, "", false
	}
	return p.image, p.contentType, true
}

// Stats returns the pipeline counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Processed:      p.processed.Load(),
		Skipped:        p.skipped.Load(),
		Rejected:       p.rejected.Load(),
		RenderFailures: p.renderFailures.Load(),
		Dropped:        p.dropped.Load(),
		SinkErrors:     p.sinkErrors.Load(),
		Resets:         p.resets.Load(),
	}
}
