package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	cache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"prescription-ai/config"
	"prescription-ai/util"
)

const (
	// Rate limiting defaults
	defaultRateLimit  = 5                // 5 attempts
	defaultRateWindow = 15 * time.Minute // per 15 minutes
)

// localCounters backs rate limiting when Redis is not configured. Entries
// expire with their window.
var localCounters = cache.New(defaultRateWindow, 5*time.Minute)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// RateLimiter creates a rate limiting middleware keyed by client IP and path.
// Counters live in Redis when configured, so limits hold across replicas, and
// in a process-local cache otherwise.
func RateLimiter(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limit == 0 {
		cfg.Limit = defaultRateLimit
	}
	if cfg.Window == 0 {
		cfg.Window = defaultRateWindow
	}

	return func(c *gin.Context) {
		// Get client identifier (IP address)
		clientIP := c.ClientIP()
		endpoint := c.Request.URL.Path

		key := fmt.Sprintf("ratelimit:%s:%s", endpoint, clientIP)

		allowed, err := checkRateLimit(key, cfg.Limit, cfg.Window)
		if err != nil {
			// If the Redis check fails, allow the request rather than turn a
			// limiter outage into a denial of service.
			util.LogEvent(util.Event{
				EventType: util.EventRateLimitCheckFailed,
				IP:        clientIP,
				Message:   fmt.Sprintf("Rate limit check failed: %v", err),
			})
			c.Next()
			return
		}

		if !allowed {
			util.LogRateLimitExceeded(util.RateLimitParams{IP: clientIP, Endpoint: endpoint})

			util.CallTooManyRequests(c, util.APIErrorParams{
				Msg: "Too many requests. Please try again later.",
				Err: fmt.Errorf("rate limit exceeded"),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// checkRateLimit checks if a request is within rate limits
// Returns true if allowed, false if rate limit exceeded
func checkRateLimit(key string, limit int, window time.Duration) (bool, error) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return checkLocalRateLimit(key, limit, window), nil
	}

	ctx := context.Background()

	// Use Redis pipeline for atomic operations
	pipe := rdb.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	return incrCmd.Val() <= int64(limit), nil
}

// checkLocalRateLimit counts requests in the process-local cache. Counters
// are approximate under concurrent first hits, which is acceptable for a
// single-process fallback.
func checkLocalRateLimit(key string, limit int, window time.Duration) bool {
	if err := localCounters.Add(key, int64(1), window); err == nil {
		return limit >= 1
	}
	count, err := localCounters.IncrementInt64(key, 1)
	if err != nil {
		// Entry expired between Add and Increment; start a fresh window.
		localCounters.Set(key, int64(1), window)
		return limit >= 1
	}
	return count <= int64(limit)
}

// ResetRateLimit resets the rate limit for a given client and endpoint
// (useful for testing or admin operations)
func ResetRateLimit(clientIP, endpoint string) error {
	key := fmt.Sprintf("ratelimit:%s:%s", endpoint, clientIP)
	if rdb := config.GetRedisClient(); rdb != nil {
		return rdb.Del(context.Background(), key).Err()
	}
	localCounters.Delete(key)
	return nil
}
