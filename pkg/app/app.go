package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/teslashibe/go-facecap/internal/log"
	"github.com/teslashibe/go-facecap/pkg/debug"
	"github.com/teslashibe/go-facecap/pkg/hub"
	"github.com/teslashibe/go-facecap/pkg/ingest"
	"github.com/teslashibe/go-facecap/pkg/pipeline"
	"github.com/teslashibe/go-facecap/pkg/protocol"
	"github.com/teslashibe/go-facecap/pkg/render"
	"github.com/teslashibe/go-facecap/pkg/replay"
	"github.com/teslashibe/go-facecap/pkg/sink"
	"github.com/teslashibe/go-facecap/pkg/surface/cvsurface"
	"github.com/teslashibe/go-facecap/pkg/surface/ggsurface"
	"github.com/teslashibe/go-facecap/pkg/web"
)

// App is the facecap application orchestrator.
// It manages all components and their lifecycle.
type App struct {
	config Config

	surface  render.Surface
	pipeline *pipeline.Pipeline
	ingest   *ingest.Hub
	states   *hub.Hub
	frames   *hub.Hub
	web      *web.Server
	redis    *sink.Redis

	// Frame recording
	recFile  *os.File
	recorder *replay.Writer
	recMu    sync.Mutex
}

// New creates a new application with the given configuration.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug
	debug.Classify = cfg.DebugClassify

	return &App{config: cfg}, nil
}

// Init initializes all components.
// Call this after New() and before Run().
func (a *App) Init() error {
	fmt.Println("🙂 facecap - landmark expression renderer")
	fmt.Println("==========================================")
	if debug.Enabled {
		fmt.Println("🐛 Debug mode enabled")
	}

	a.surface = a.newSurface()
	a.states = hub.New("state")
	a.frames = hub.New("face")
	a.ingest = ingest.NewHub()

	sinks := []pipeline.Sink{pipeline.HubSink{States: a.states, Frames: a.frames}}

	if a.config.RedisURL != "" {
		fmt.Print("🧰 Connecting to Redis... ")
		cfg := sink.DefaultRedisConfig()
		cfg.URL, cfg.Channel = a.config.RedisURL, a.config.RedisChannel
		r, err := sink.NewRedis(cfg)
		switch {
		case r == nil:
			return fmt.Errorf("redis: %w", err)
		case err != nil:
			fmt.Printf("⚠️  %v\n", err)
		default:
			fmt.Println("✅")
		}
		a.redis = r
		sinks = append(sinks, r)
	}

	if a.config.RecordPath != "" {
		f, err := os.Create(a.config.RecordPath)
		if err != nil {
			return fmt.Errorf("record: %w", err)
		}
		a.recFile = f
		a.recorder = replay.NewWriter(f)
		fmt.Printf("⏺️  Recording frames to %s\n", a.config.RecordPath)
	}

	style, _ := render.ParseStyle(a.config.Style)
	pcfg := pipeline.DefaultConfig()
	pcfg.Style = style

	p, err := pipeline.New(pcfg, a.surface,
		pipeline.WithSink(sinks...),
		pipeline.WithRejectHandler(a.reject),
	)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	a.pipeline = p

	a.ingest.OnLandmarks(a.onLandmarks)
	a.ingest.OnReset(func(_ string, name string) error {
		style, err := render.ParseStyle(name)
		if err != nil {
			return err
		}
		_, err = a.pipeline.Reset(style)
		if errors.Is(err, render.ErrSurfaceUnavailable) {
			return nil
		}
		return err
	})

	a.web = web.NewServer(web.Config{
		Port:      a.config.Port,
		StaticDir: a.config.StaticDir,
		AccessLog: a.config.AccessLog,
	}, web.Deps{
		Pipeline: a.pipeline,
		Ingest:   a.ingest,
		States:   a.states,
		Frames:   a.frames,
	})

	log.Info("initialized", "style", style, "backend", a.config.Backend,
		"size", fmt.Sprintf("%dx%d", a.config.Width, a.config.Height))
	return nil
}

func (a *App) newSurface() render.Surface {
	if a.config.Backend == BackendOpenCV {
		format := cvsurface.FormatPNG
		if a.config.JPEG {
			format = cvsurface.FormatJPEG
		}
		return cvsurface.NewWithFormat(a.config.Width, a.config.Height, format)
	}
	return ggsurface.New(a.config.Width, a.config.Height)
}

// onLandmarks hands a detector frame to the pipeline loop.
func (a *App) onLandmarks(sourceID string, data *protocol.LandmarksData) {
	if a.recorder != nil {
		a.recMu.Lock()
		if err := a.recorder.Capture(*data); err != nil {
			log.Warn("record failed", "error", err)
		}
		a.recMu.Unlock()
	}
	a.pipeline.SubmitFrame(pipeline.Frame{
		Source:    sourceID,
		ID:        data.FrameID,
		Landmarks: data.Primary(),
	})
}

// reject reports invalid frames back to detectors.
func (a *App) reject(f pipeline.Frame, err error) {
	if f.Source == "" || a.ingest == nil {
		return
	}
	if rerr := a.ingest.Reject(f.Source, f.ID, err); rerr != nil && !errors.Is(rerr, ingest.ErrSourceNotConnected) {
		log.Debug("reject reply failed", "source", f.Source, "error", rerr)
	}
}

// Pipeline returns the frame pipeline. Valid after Init.
func (a *App) Pipeline() *pipeline.Pipeline {
	return a.pipeline
}

// Web returns the web server. Valid after Init.
func (a *App) Web() *web.Server {
	return a.web
}

// Run starts the pipeline loop and the web server.
// Blocks until context is cancelled.
func (a *App) Run(ctx context.Context) error {
	fmt.Println("\n📡 Waiting for landmark detectors on /ws/detector")
	fmt.Println("   (Ctrl+C to exit)")

	errc := make(chan error, 2)
	go func() {
		if err := a.pipeline.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errc <- fmt.Errorf("pipeline: %w", err)
		}
	}()
	go func() {
		if err := a.web.Run(ctx); err != nil {
			errc <- fmt.Errorf("web: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errc:
		return err
	}
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown() {
	fmt.Println("\n👋 Goodbye!")

	if a.pipeline != nil {
		a.pipeline.Close()
	}
	if a.web != nil {
		a.web.Shutdown()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.recorder != nil {
		a.recMu.Lock()
		a.recorder.Flush()
		fmt.Printf("⏺️  Recorded %d frames\n", a.recorder.Count())
		a.recMu.Unlock()
		a.recFile.Close()
	}
	if c, ok := a.surface.(io.Closer); ok {
		c.Close()
	}
}
