package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moa/backend/internal/interfaces/http/dto"
)

// RateLimiter counts requests per key over a fixed window, in memory.
// Limits are per process: behind a balancer the effective limit scales
// with the replica count, which is fine for abuse braking.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     int
	window    time.Duration
	lastSweep time.Time
}

type bucket struct {
	left        int
	windowStart time.Time
}

// NewRateLimiter returns a limiter admitting limit requests per key in
// each window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:   make(map[string]*bucket),
		limit:     limit,
		window:    window,
		lastSweep: time.Now(),
	}
}

// Allow consumes one slot for key and reports whether it fit the limit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.sweepLocked(now)

	b := rl.buckets[key]
	if b == nil || now.Sub(b.windowStart) >= rl.window {
		rl.buckets[key] = &bucket{left: rl.limit - 1, windowStart: now}
		return true
	}
	if b.left == 0 {
		return false
	}
	b.left--
	return true
}

// Remaining reports how many requests key may still make in the current
// window.
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b := rl.buckets[key]
	if b == nil || time.Since(b.windowStart) >= rl.window {
		return rl.limit
	}
	return b.left
}

// sweepLocked drops buckets idle for two full windows. Sweeping inline on
// the next Allow keeps the limiter goroutine-free; the map only grows
// while traffic actually arrives.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < 2*rl.window {
		return
	}
	rl.lastSweep = now
	for key, b := range rl.buckets {
		if now.Sub(b.windowStart) >= 2*rl.window {
			delete(rl.buckets, key)
		}
	}
}

// RateLimit returns a per-client-IP rate limiting middleware.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return rateLimitWith(limiter, func(c *gin.Context) string {
		return c.ClientIP()
	}, dto.ErrCodeRateLimited, "Too many requests. Please try again later.")
}

// RateLimitByKey rate-limits on a caller-chosen key, for example the
// authenticated user instead of the source IP.
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return rateLimitWith(limiter, keyFunc, dto.ErrCodeRateLimited,
		"Too many requests. Please try again later.")
}

// AuthRateLimit returns a stricter per-IP limiter for login and registration
// to slow down credential stuffing. Keys carry an "auth:" prefix so a shared
// limiter instance never mixes login attempts with general traffic counters.
func AuthRateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return rateLimitWith(limiter, func(c *gin.Context) string {
		return "auth:" + c.ClientIP()
	}, dto.ErrCodeTooManyRequests, "Too many authentication attempts. Please try again later.")
}

func rateLimitWith(limiter *RateLimiter, keyFunc func(*gin.Context) string, code, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		if !limiter.Allow(key) {
			resp := dto.NewErrorResponseWithRequestID(code, message, c.GetString(RequestIDKey))
			c.Header("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, resp)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))

		c.Next()
	}
}
