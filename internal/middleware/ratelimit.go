package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"transit/internal/redis"
)

// RateLimitMiddleware returns middleware that enforces a per-caller request
// budget using the injected limiter. Callers are identified by the
// X-User-ID header when present, otherwise by client IP. The limiter
// failing open is deliberate: a Redis outage must not take the API down.
func RateLimitMiddleware(limiter redis.RateLimiterInterface, limit int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		identity := c.GetHeader("X-User-ID")
		if identity == "" {
			identity = c.ClientIP()
		}

		result, err := limiter.Check(c.Request.Context(), identity, limit, window)
		if err != nil {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))

		if !result.Allowed {
			c.Header("Retry-After", strconv.FormatInt(int64(time.Until(result.ResetAt).Seconds())+1, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
