// facecap - renders a stylized face that mirrors the expression of a
// tracked human face. Landmark detectors stream face meshes over
// WebSocket; viewers receive face states and rendered frames.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-facecap/internal/config"
	flog "github.com/teslashibe/go-facecap/internal/log"
	"github.com/teslashibe/go-facecap/pkg/app"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("⚠️  .env: %v", err)
	}

	cfg := parseFlags()

	flog.InitWith(flog.Options{Level: config.LogLevel(), File: config.LogFile()})

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if err := a.Init(); err != nil {
		log.Fatalf("❌ Initialization failed: %v", err)
	}
	defer a.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		log.Fatalf("❌ Runtime error: %v", err)
	}
}

// parseFlags parses command line flags and returns configuration.
// Flags override environment variables.
func parseFlags() app.Config {
	cfg := app.DefaultConfig()
	cfg.LoadEnvConfig()

	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	debugClassify := flag.Bool("debug-classify", false, "Print per-frame classifier diagnostics")
	port := flag.String("port", cfg.Port, "HTTP listen port (FACECAP_PORT)")
	style := flag.String("style", cfg.Style, "Render style: basic, enhanced (FACECAP_STYLE)")
	backend := flag.String("backend", cfg.Backend, "Raster backend: gg, opencv (FACECAP_BACKEND)")
	width := flag.Int("width", cfg.Width, "Surface width in pixels (FACECAP_WIDTH)")
	height := flag.Int("height", cfg.Height, "Surface height in pixels (FACECAP_HEIGHT)")
	jpeg := flag.Bool("jpeg", false, "Encode frames as JPEG (opencv backend)")
	static := flag.String("static", cfg.StaticDir, "Viewer asset directory (FACECAP_STATIC_DIR)")
	redisURL := flag.String("redis", cfg.RedisURL, "Redis URL for state publishing (REDIS_URL)")
	record := flag.String("record", "", "Record ingested frames to a JSONL file")
	quiet := flag.Bool("quiet", false, "Disable HTTP access log")
	flag.Parse()

	cfg.Debug, cfg.DebugClassify = *debug, *debugClassify
	cfg.Port, cfg.Style, cfg.Backend = *port, *style, *backend
	cfg.Width, cfg.Height, cfg.JPEG = *width, *height, *jpeg
	cfg.StaticDir, cfg.RedisURL, cfg.RecordPath = *static, *redisURL, *record
	cfg.AccessLog = !*quiet
	return cfg
}
