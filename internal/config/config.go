// Package config provides configuration helpers for go-facecap commands.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Default service configuration.
const (
	DefaultPort         = "8090"
	DefaultStyle        = "enhanced"
	DefaultBackend      = "gg"
	DefaultWidth        = 400
	DefaultHeight       = 400
	DefaultStaticDir    = "./web"
	DefaultRedisChannel = "facecap:state"
)

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding variables already present in the environment.
// A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// String returns the env var key, or def if unset or empty.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int returns the env var key parsed as an int.
// Falls back to def if unset or unparsable.
func Int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Bool returns the env var key parsed as a bool.
// Falls back to def if unset or unparsable.
func Bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Port returns the HTTP listen port from FACECAP_PORT or default.
func Port() string {
	return String("FACECAP_PORT", DefaultPort)
}

// Style returns the render style profile name from FACECAP_STYLE or default.
func Style() string {
	return String("FACECAP_STYLE", DefaultStyle)
}

// Backend returns the raster backend ("gg" or "opencv") from FACECAP_BACKEND.
func Backend() string {
	return String("FACECAP_BACKEND", DefaultBackend)
}

// SurfaceSize returns the drawing surface size from FACECAP_WIDTH / FACECAP_HEIGHT.
func SurfaceSize() (width, height int) {
	return Int("FACECAP_WIDTH", DefaultWidth), Int("FACECAP_HEIGHT", DefaultHeight)
}

// StaticDir returns the dashboard asset directory from FACECAP_STATIC_DIR.
func StaticDir() string {
	return String("FACECAP_STATIC_DIR", DefaultStaticDir)
}

// RedisURL returns REDIS_URL. Empty means the Redis sink is disabled.
func RedisURL() string {
	return os.Getenv("REDIS_URL")
}

// RedisChannel returns the pub/sub channel from REDIS_CHANNEL or default.
func RedisChannel() string {
	return String("REDIS_CHANNEL", DefaultRedisChannel)
}

// LogLevel returns LOG_LEVEL or "info".
func LogLevel() string {
	return String("LOG_LEVEL", "info")
}

// LogFile returns LOG_FILE. Empty means stdout only.
func LogFile() string {
	return os.Getenv("LOG_FILE")
}
