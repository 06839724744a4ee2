// middleware/rate_limiter.go

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stonefield/resourcing/db"
	logger "github.com/stonefield/resourcing/logging"
)

// RateLimiter throttles per tenant, falling back to the client IP for
// requests that have not presented a tenant yet.
func RateLimiter(limit int, per time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Tenant-ID")
		if key == "" {
			key = c.ClientIP()
		}

		allowed, err := db.RateLimit(c, key, limit, per)
		if err != nil {
			// Redis trouble should not take the API down with it.
			logger.Error("Rate limiting unavailable", zap.Error(err), zap.String("key", key))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Duration", per.String())

		if !allowed {
			logger.Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.Int("limit", limit),
				zap.Duration("per", per))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}

		c.Next()
	}
}
