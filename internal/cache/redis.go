// Package cache provides the Redis layer: resolved principals keyed by token
// fingerprint, and token-bucket rate limits.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps the Redis client shared by the principal cache and the rate
// limiter.
type Cache struct {
	client *redis.Client
}

// Option adjusts the Redis client options parsed from the URL.
type Option func(*redis.Options)

// WithPoolSize sets the connection pool bounds. Zero values keep the defaults.
func WithPoolSize(size, minIdle int) Option {
	return func(o *redis.Options) {
		if size > 0 {
			o.PoolSize = size
		}
		if minIdle > 0 {
			o.MinIdleConns = minIdle
		}
	}
}

// WithTimeouts sets the dial and per-command read/write timeouts.
func WithTimeouts(dial, rw time.Duration) Option {
	return func(o *redis.Options) {
		if dial > 0 {
			o.DialTimeout = dial
		}
		if rw > 0 {
			o.ReadTimeout = rw
			o.WriteTimeout = rw
		}
	}
}

// clientOptions parses redisURL and applies the defaults and opts on top.
func clientOptions(redisURL string, opts ...Option) (*redis.Options, error) {
	o, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	o.PoolSize = 10
	o.MinIdleConns = 2
	o.PoolTimeout = 4 * time.Second
	o.ConnMaxIdleTime = 5 * time.Minute
	// Redis is on the auth path of every request.
	o.ReadTimeout = 500 * time.Millisecond
	o.WriteTimeout = 500 * time.Millisecond

	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, redisURL string, opts ...Option) (*Cache, error) {
	o, err := clientOptions(redisURL, opts...)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(o)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return NewFromClient(client), nil
}

// NewFromClient wraps an existing Redis client.
func NewFromClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the underlying client to tests.
func (c *Cache) Client() *redis.Client {
	return c.client
}
