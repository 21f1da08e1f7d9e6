package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kilianp07/dingo/core/ingest"
)

// DefaultStream is the Redis stream used when none is configured.
const DefaultStream = "dingo:ingest"

// RedisConfig configures the Redis stream transport.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Stream   string `json:"stream"`
	// MaxLen trims the stream approximately when positive.
	MaxLen int64 `json:"max_len"`
}

// streamAdder is the part of the go-redis client the transport uses.
type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Close() error
}

var newRedisClient = func(opts *redis.Options) streamAdder {
	return redis.NewClient(opts)
}

// Redis appends every payload to a stream.
type Redis struct {
	client streamAdder
	stream string
	maxLen int64
}

// NewRedis creates the client.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis: addr is required")
	}
	if cfg.Stream == "" {
		cfg.Stream = DefaultStream
	}
	c := newRedisClient(&redis.Options{Addr: cfg.Addr, Username: cfg.Username, Password: cfg.Password, DB: cfg.DB})
	return &Redis{client: c, stream: cfg.Stream, maxLen: cfg.MaxLen}, nil
}

// Name implements ingest.Named.
func (r *Redis) Name() string { return "redis" }

// Deliver adds an entry with the JSON payload under the "payload" key.
func (r *Redis) Deliver(ctx context.Context, p ingest.Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{Stream: r.stream, Values: map[string]interface{}{"payload": string(body)}}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}
	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis xadd %s: %w", r.stream, err)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error { return r.client.Close() }
