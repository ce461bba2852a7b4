// Package sink holds pipeline sinks that forward face states to external
// systems.
package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/teslashibe/go-facecap/internal/log"
	"github.com/teslashibe/go-facecap/pkg/pipeline"
	"github.com/teslashibe/go-facecap/pkg/protocol"
)

// RedisClient is the subset of *redis.Client the sink uses.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// RedisConfig configures the Redis sink.
type RedisConfig struct {
	URL     string // redis://[:password@]host:port/db
	Channel string // pub/sub channel for face_state messages

	// LatestKey, when set, also stores the last message under this key
	// with LatestTTL expiry.
	LatestKey string
	LatestTTL time.Duration
}

// DefaultRedisConfig returns the default Redis sink configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		URL:       "redis://localhost:6379/0",
		Channel:   "facecap:state",
		LatestKey: "facecap:state:latest",
		LatestTTL: time.Minute,
	}
}

// Redis publishes face_state protocol messages to a Redis channel.
type Redis struct {
	client RedisClient
	cfg    RedisConfig
}

// NewRedis connects to Redis. The sink is returned even when the initial
// ping fails; go-redis reconnects on later commands.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("sink: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	log.Info("connecting to redis", "addr", opts.Addr, "channel", cfg.Channel)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := NewRedisWithClient(client, cfg)
	if err := client.Ping(ctx).Err(); err != nil {
		return s, fmt.Errorf("sink: redis ping: %w", err)
	}
	return s, nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client RedisClient, cfg RedisConfig) *Redis {
	if cfg.Channel == "" {
		cfg.Channel = DefaultRedisConfig().Channel
	}
	return &Redis{client: client, cfg: cfg}
}

// Publish implements pipeline.Sink.
func (r *Redis) Publish(ctx context.Context, res pipeline.Result) error {
	msg, err := protocol.NewFaceStateMessage(res.FrameID, string(res.Style), res.State)
	if err != nil {
		return err
	}
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	if err := r.client.Publish(ctx, r.cfg.Channel, data).Err(); err != nil {
		return fmt.Errorf("sink: redis publish: %w", err)
	}
	if r.cfg.LatestKey != "" {
		if err := r.client.Set(ctx, r.cfg.LatestKey, data, r.cfg.LatestTTL).Err(); err != nil {
			return fmt.Errorf("sink: redis set: %w", err)
		}
	}
	return nil
}

// Close closes the Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}
