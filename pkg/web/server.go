// Package web serves the facecap HTTP API, the viewer websockets and the
// detector ingest endpoints.
package web

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"

	"github.com/teslashibe/go-facecap/internal/log"
	"github.com/teslashibe/go-facecap/pkg/hub"
	"github.com/teslashibe/go-facecap/pkg/ingest"
	"github.com/teslashibe/go-facecap/pkg/pipeline"
)

// Config holds web server settings.
type Config struct {
	Port      string
	StaticDir string // served at / when it exists
	AccessLog bool
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Port:      "8090",
		StaticDir: "./web",
		AccessLog: true,
	}
}

// Deps are the components the server exposes.
type Deps struct {
	Pipeline *pipeline.Pipeline
	Ingest   *ingest.Hub // optional
	States   *hub.Hub    // face_state JSON for /ws/state
	Frames   *hub.Hub    // encoded images for /ws/face
}

// Server is the facecap web server
type Server struct {
	app      *fiber.App
	cfg      Config
	pipeline *pipeline.Pipeline
	ingest   *ingest.Hub
	states   *hub.Hub
	frames   *hub.Hub
	validate *validator.Validate
	started  time.Time
}

// NewServer creates the server and registers all routes.
func NewServer(cfg Config, deps Deps) *Server {
	if deps.States == nil {
		deps.States = hub.New("state")
	}
	if deps.Frames == nil {
		deps.Frames = hub.New("face")
	}

	s := &Server{
		cfg:      cfg,
		pipeline: deps.Pipeline,
		ingest:   deps.Ingest,
		states:   deps.States,
		frames:   deps.Frames,
		validate: validator.New(),
		started:  time.Now(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "facecap",
		DisableStartupMessage: true,
		JSONEncoder:           jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder:           jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
		BodyLimit:             2 * 1024 * 1024,
	})

	app.Use(recover.New())
	// CORS for local development
	app.Use(cors.New())
	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency}\n",
		}))
	}

	// API routes
	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/state", s.handleState)
	api.Get("/stats", s.handleStats)
	api.Get("/scene", s.handleScene)
	api.Get("/face.png", s.handleFaceImage)
	api.Post("/reset", s.handleReset)
	api.Post("/frame", s.handleFrame)

	if s.ingest != nil {
		s.ingest.RegisterRoutes(app)
		s.ingest.RegisterAPIRoutes(api)
	}

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/state", websocket.New(s.states.Handler()))
	app.Get("/ws/face", websocket.New(s.frames.Handler()))

	// Static files
	if cfg.StaticDir != "" {
		if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
			app.Static("/", cfg.StaticDir)
		}
	}

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Sink returns a pipeline sink feeding the server's viewer hubs.
func (s *Server) Sink() pipeline.Sink {
	return pipeline.HubSink{States: s.states, Frames: s.frames}
}

// States returns the face state hub.
func (s *Server) States() *hub.Hub {
	return s.states
}

// Frames returns the face image hub.
func (s *Server) Frames() *hub.Hub {
	return s.frames
}

// Run starts the hubs and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go s.states.Run(ctx)
	go s.frames.Run(ctx)

	go func() {
		<-ctx.Done()
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Warn("web shutdown", "error", err)
		}
	}()

	fmt.Printf("🌐 facecap: http://localhost:%s\n", s.cfg.Port)
	return s.app.Listen(":" + s.cfg.Port)
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
