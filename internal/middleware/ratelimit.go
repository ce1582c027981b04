package middleware

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"golang.org/x/time/rate"

	"movie-discovery-weather-recommender/internal/cache"
	"movie-discovery-weather-recommender/internal/metrics"
)

// RateLimiter limits requests per client IP. It counts in Redis with a fixed
// window and falls back to in-process token buckets when Redis is unavailable.
type RateLimiter struct {
	cache  *cache.Client
	max    int
	window time.Duration

	mu        sync.Mutex
	local     map[string]*localEntry
	lastPrune time.Time
}

type localEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter creates a rate limiter allowing max requests per window.
// A max of zero disables limiting.
func NewRateLimiter(c *cache.Client, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		cache:     c,
		max:       max,
		window:    window,
		local:     make(map[string]*localEntry),
		lastPrune: time.Now(),
	}
}

// Handler returns a Fiber middleware handler for rate limiting.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		if rl.max <= 0 {
			return c.Next()
		}
		ip := c.IP()

		count, ttl, err := rl.cache.Incr(c.Context(), "ratelimit:"+ip, rl.window)
		if err == nil {
			c.Set("X-RateLimit-Limit", strconv.Itoa(rl.max))
			c.Set("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(rl.max)-count), 10))
			c.Set("X-RateLimit-Reset", strconv.Itoa(int(ttl.Seconds())))
			if count > int64(rl.max) {
				return rl.reject(c, "redis", ttl)
			}
			return c.Next()
		}
		if err != cache.ErrDisabled {
			slog.Debug("redis rate limit unavailable, using local limiter", "error", err)
		}

		if !rl.allowLocal(ip) {
			return rl.reject(c, "local", rl.window/time.Duration(rl.max))
		}
		return c.Next()
	}
}

func (rl *RateLimiter) allowLocal(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	if now.Sub(rl.lastPrune) > 10*rl.window {
		for k, e := range rl.local {
			if now.Sub(e.lastAccess) > rl.window {
				delete(rl.local, k)
			}
		}
		rl.lastPrune = now
	}
	e, ok := rl.local[ip]
	if !ok {
		e = &localEntry{limiter: rate.NewLimiter(rate.Limit(float64(rl.max)/rl.window.Seconds()), rl.max)}
		rl.local[ip] = e
	}
	e.lastAccess = now
	l := e.limiter
	rl.mu.Unlock()

	return l.AllowN(now, 1)
}

func (rl *RateLimiter) reject(c fiber.Ctx, backend string, retryAfter time.Duration) error {
	metrics.RateLimitedRequests.WithLabelValues(backend).Inc()
	secs := max(1, int(retryAfter.Seconds()))
	c.Set("Retry-After", strconv.Itoa(secs))
	return c.Status(fiber.StatusTooManyRequests).JSON(ErrorBody{
		Error: "rate limit exceeded",
		Code:  "RATE_LIMITED",
	})
}
