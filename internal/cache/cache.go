// Package cache is a thin Redis wrapper that degrades to a permanent miss when
// Redis is absent or failing.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"movie-discovery-weather-recommender/internal/metrics"
)

// ErrDisabled is returned by calls that need a working Redis.
var ErrDisabled = errors.New("cache disabled")

// Client wraps redis.Client but fails safe by swallowing connectivity errors.
// A nil *Client is valid and always misses.
type Client struct {
	rdb *redis.Client
}

// New wraps rdb. A nil rdb yields a client that never stores anything.
func New(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Enabled reports whether a Redis connection is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Get returns the value or nil if missing or Redis is unavailable.
func (c *Client) Get(ctx context.Context, key string) []byte {
	if !c.Enabled() {
		return nil
	}
	res, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Debug("cache get failed", "key", key, "error", err)
		}
		return nil
	}
	return res
}

// Set stores value with ttl, ignoring Redis errors.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.Debug("cache set failed", "key", key, "error", err)
	}
}

// Delete removes key, ignoring Redis errors.
func (c *Client) Delete(ctx context.Context, key string) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		slog.Debug("cache delete failed", "key", key, "error", err)
	}
}

// Exists reports whether key is present. Errors are returned so callers can
// choose their own fallback.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	if !c.Enabled() {
		return false, ErrDisabled
	}
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Incr bumps a fixed-window counter, starting the window on the first hit,
// and returns the count with the time left in the window.
func (c *Client) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if !c.Enabled() {
		return 0, 0, ErrDisabled
	}
	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		c.rdb.Expire(ctx, key, window)
	}
	ttl, err := c.rdb.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}
	return count, ttl, nil
}

// GetJSON decodes the cached value of key into a T. The name labels the
// lookup in metrics.
func GetJSON[T any](ctx context.Context, c *Client, name, key string) (T, bool) {
	var v T
	data := c.Get(ctx, key)
	if data == nil {
		metrics.CacheLookups.WithLabelValues(name, metrics.CacheResult(false)).Inc()
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		slog.Warn("discarding undecodable cache entry", "key", key, "error", err)
		c.Delete(ctx, key)
		metrics.CacheLookups.WithLabelValues(name, metrics.CacheResult(false)).Inc()
		return v, false
	}
	metrics.CacheLookups.WithLabelValues(name, metrics.CacheResult(true)).Inc()
	return v, true
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c *Client, key string, v any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	c.Set(ctx, key, data, ttl)
}
