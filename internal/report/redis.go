package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list reports are pushed to.
const DefaultRedisKey = "sfrag:reports"

// RedisOptions configures a RedisSink.
type RedisOptions struct {
	// URL is the connection string, e.g. "redis://localhost:6379". A bare
	// host:port is accepted.
	URL string
	// Key is the list reports are pushed onto, newest first.
	Key string
	// MaxLen trims the list after each push. Zero keeps everything.
	MaxLen int64

	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
}

// RedisSink pushes reports onto a Redis list.
type RedisSink struct {
	client *redis.Client
	key    string
	maxLen int64
}

var _ Sink = (*RedisSink)(nil)

// NewRedisSink connects to Redis and verifies the connection.
func NewRedisSink(ctx context.Context, opts RedisOptions) (*RedisSink, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Key == "" {
		opts.Key = DefaultRedisKey
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	url := opts.URL
	if !hasScheme(url) {
		url = "redis://" + url
	}
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSink{client: client, key: opts.Key, maxLen: opts.MaxLen}, nil
}

func hasScheme(url string) bool {
	for _, prefix := range []string{"redis://", "rediss://", "unix://"} {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}

// Key returns the list key.
func (s *RedisSink) Key() string { return s.key }

func (s *RedisSink) Write(ctx context.Context, r Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, data)
	if s.maxLen > 0 {
		pipe.LTrim(ctx, s.key, 0, s.maxLen-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push report to %s: %w", s.key, err)
	}
	return nil
}

// Recent returns up to n of the newest reports.
func (s *RedisSink) Recent(ctx context.Context, n int64) ([]Report, error) {
	if n <= 0 {
		return nil, nil
	}
	items, err := s.client.LRange(ctx, s.key, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read reports from %s: %w", s.key, err)
	}
	out := make([]Report, 0, len(items))
	for _, item := range items {
		var r Report
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Close closes the connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
