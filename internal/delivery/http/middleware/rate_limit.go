package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"nexulsly-backend/internal/delivery/http/response"
	"nexulsly-backend/pkg/logger"
	"nexulsly-backend/pkg/security"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Time window duration
	Window time.Duration
	// Custom key extractor (default: IP-based)
	KeyFunc func(*gin.Context) string
	// Key prefix for Redis
	KeyPrefix string
	// Whether to fail closed (reject) when Redis is unavailable
	FailClosed bool
	// Optional shared backend; in-memory token buckets are used without it
	Redis *goredis.Client
	// Optional audit logger for rejected requests
	Audit *security.SecurityLogger
}

// Lua script for atomic increment with TTL on first set
// KEYS[1] = counter key
// ARGV[1] = TTL in seconds
// Returns: [current_count, ttl_remaining]
const rateLimitLuaScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`

var rateLimitScript = goredis.NewScript(rateLimitLuaScript)

// GlobalRateLimitConfig applies to every route.
func GlobalRateLimitConfig(perMinute int) RateLimitConfig {
	return RateLimitConfig{
		Limit:     perMinute,
		Window:    time.Minute,
		KeyPrefix: "rl:ip:",
		KeyFunc:   clientIPKey,
	}
}

// ContactRateLimitConfig is the stricter budget for form submissions.
func ContactRateLimitConfig(perMinute int) RateLimitConfig {
	return RateLimitConfig{
		Limit:     perMinute,
		Window:    time.Minute,
		KeyPrefix: "rl:contact:",
		KeyFunc:   clientIPKey,
	}
}

func clientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

type rateDecision struct {
	allowed    bool
	remaining  int
	resetAt    time.Time
	retryAfter time.Duration
}

// RateLimitMiddleware creates a rate limiting middleware with the given config.
// Uses Redis when configured and falls back to in-memory buckets when Redis errors,
// unless FailClosed is set.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = clientIPKey
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.Limit <= 0 {
		config.Limit = 1
	}
	buckets := newMemoryLimiter(config.Limit, config.Window)

	return func(c *gin.Context) {
		key := config.KeyFunc(c)
		now := time.Now()

		var decision rateDecision
		if config.Redis != nil {
			var err error
			decision, err = checkRateLimitRedis(c.Request.Context(), config.Redis, config.KeyPrefix+key, config, now)
			if err != nil {
				logger.Log.Warn("Rate limiter backend unavailable", "error", err, "fail_closed", config.FailClosed)
				if config.FailClosed {
					response.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.", nil)
					c.Abort()
					return
				}
				decision = buckets.allow(key, now)
			}
		} else {
			decision = buckets.allow(key, now)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.resetAt.Unix(), 10))

		if !decision.allowed {
			retryAfter := int(math.Ceil(decision.retryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			config.Audit.LogRateLimitTriggered(
				c.Request.Context(),
				c.ClientIP(),
				c.GetHeader("User-Agent"),
				c.GetString("RequestID"),
				c.FullPath(),
			)

			response.Error(c, http.StatusTooManyRequests, "Too many requests. Please try again later.", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// checkRateLimitRedis counts requests in a fixed window with an atomic Lua script
func checkRateLimitRedis(ctx context.Context, client *goredis.Client, key string, config RateLimitConfig, now time.Time) (rateDecision, error) {
	ttlSeconds := int(config.Window.Seconds())
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}

	result, err := rateLimitScript.Run(ctx, client, []string{key}, ttlSeconds).Result()
	if err != nil {
		return rateDecision{}, fmt.Errorf("redis rate limit eval failed: %w", err)
	}

	arr, ok := result.([]interface{})
	if !ok || len(arr) < 2 {
		return rateDecision{}, fmt.Errorf("unexpected redis result format")
	}

	count, _ := arr[0].(int64)
	ttl, _ := arr[1].(int64)
	if ttl < 0 {
		ttl = int64(ttlSeconds)
	}
	window := time.Duration(ttl) * time.Second

	remaining := config.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return rateDecision{
		allowed:    int(count) <= config.Limit,
		remaining:  remaining,
		resetAt:    now.Add(window),
		retryAfter: window,
	}, nil
}

const memorySweepInterval = 5 * time.Minute

type memoryBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// memoryLimiter keeps one token bucket per key. A bucket refills fully within
// one window, so buckets idle for longer than that are swept.
type memoryLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	every     rate.Limit
	buckets   map[string]*memoryBucket
	lastSweep time.Time
}

func newMemoryLimiter(limit int, window time.Duration) *memoryLimiter {
	return &memoryLimiter{
		limit:   limit,
		window:  window,
		every:   rate.Every(window / time.Duration(limit)),
		buckets: make(map[string]*memoryBucket),
	}
}

func (m *memoryLimiter) allow(key string, now time.Time) rateDecision {
	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) > memorySweepInterval {
		for k, b := range m.buckets {
			if now.Sub(b.lastSeen) > m.window {
				delete(m.buckets, k)
			}
		}
		m.lastSweep = now
	}

	b, ok := m.buckets[key]
	if !ok {
		b = &memoryBucket{limiter: rate.NewLimiter(m.every, m.limit)}
		m.buckets[key] = b
	}
	b.lastSeen = now

	if b.limiter.AllowN(now, 1) {
		tokens := b.limiter.TokensAt(now)
		return rateDecision{
			allowed:   true,
			remaining: int(tokens),
			resetAt:   now.Add(m.refillTime(tokens)),
		}
	}

	r := b.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)

	return rateDecision{
		allowed:    false,
		remaining:  0,
		resetAt:    now.Add(m.refillTime(b.limiter.TokensAt(now))),
		retryAfter: delay,
	}
}

// refillTime is how long until the bucket is full again.
func (m *memoryLimiter) refillTime(tokens float64) time.Duration {
	missing := float64(m.limit) - tokens
	if missing <= 0 {
		return 0
	}
	return time.Duration(missing * float64(m.window) / float64(m.limit))
}
