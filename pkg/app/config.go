// Package app wires the facecap server: surface, pipeline, ingest, viewer
// hubs, sinks and the web server.
package app

import (
	"fmt"

	"github.com/teslashibe/go-facecap/internal/config"
	"github.com/teslashibe/go-facecap/pkg/render"
)

// Raster backends.
const (
	BackendGG     = "gg"
	BackendOpenCV = "opencv"
)

// Config holds all configuration for the facecap server.
// Flag parsing is done in cmd/facecap/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool
	// DebugClassify prints per-frame classifier diagnostics.
	DebugClassify bool

	Port      string
	StaticDir string

	Style   string
	Backend string
	Width   int
	Height  int
	JPEG    bool // opencv backend only

	// RedisURL enables the Redis sink when set.
	RedisURL     string
	RedisChannel string

	// RecordPath, when set, records every ingested frame as JSONL.
	RecordPath string

	AccessLog bool
}

// DefaultConfig returns defaults.
func DefaultConfig() Config {
	return Config{
		Port:         config.DefaultPort,
		StaticDir:    config.DefaultStaticDir,
		Style:        config.DefaultStyle,
		Backend:      config.DefaultBackend,
		Width:        config.DefaultWidth,
		Height:       config.DefaultHeight,
		RedisChannel: config.DefaultRedisChannel,
		AccessLog:    true,
	}
}

// LoadEnvConfig applies environment variables. Call it before flag
// overrides.
func (c *Config) LoadEnvConfig() {
	c.Port = config.Port()
	c.StaticDir = config.StaticDir()
	c.Style = config.Style()
	c.Backend = config.Backend()
	c.Width, c.Height = config.SurfaceSize()
	c.RedisURL = config.RedisURL()
	c.RedisChannel = config.RedisChannel()
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if _, err := render.ParseStyle(c.Style); err != nil {
		return err
	}
	switch c.Backend {
	case BackendGG, BackendOpenCV:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendGG, BackendOpenCV)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid surface size %dx%d", c.Width, c.Height)
	}
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	return nil
}
