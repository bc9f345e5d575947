package middlewares

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// WindowCounter is the external shared counter behind the rate limiter,
// redis in production. Kept as an interface so tests can fake it.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (count int64, remaining time.Duration, err error)
}

// RateLimiter enforces a fixed-window limit per client against a shared
// counter, so the limit holds across API replicas.
type RateLimiter struct {
	counter WindowCounter
	limit   int64
	window  time.Duration
	log     *slog.Logger
}

func NewRateLimiter(counter WindowCounter, limit int, window time.Duration, log *slog.Logger) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		limit:   int64(limit),
		window:  window,
		log:     log,
	}
}

// Middleware returns a gin.HandlerFunc that enforces the limit for a derived key.
func (rl *RateLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = "ip:" + clientIP(c)
		}

		count, remaining, err := rl.counter.IncrWindow(c.Request.Context(), "ratelimit:"+key, rl.window)

		if err != nil {
			// fail open: an unreachable counter should not take the API down
			rl.log.Warn("rate limiter unavailable", "err", err)
			c.Next()
			return
		}

		if count > rl.limit {
			retryAfter := int(remaining.Seconds())

			if retryAfter < 0 {
				retryAfter = 0
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})

			return
		}

		c.Next()
	}
}

// KeyByUserOrIP buckets authenticated requests per user, anonymous ones per IP.
func KeyByUserOrIP(c *gin.Context) string {
	u, ok := CurrentUser(c)

	if ok && u.ID != 0 {
		return "user:" + strconv.FormatInt(u.ID, 10)
	}

	return "ip:" + clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	// Normalize away any port
	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
