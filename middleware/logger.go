package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/metrics"
)

// Logger logs every HTTP request with its tenant scope and feeds the
// request counters.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		metrics.RecordHTTPRequest(c.Request.Method, strconv.Itoa(status), latency)

		tenantID := c.GetString("tenantID")
		if len(c.Errors) > 0 {
			for _, e := range c.Errors.Errors() {
				logger.Error("Request failed",
					zap.String("method", c.Request.Method),
					zap.String("path", path),
					zap.Int("status", status),
					zap.String("tenantID", tenantID),
					zap.String("error", e),
				)
			}
			return
		}

		logger.Info("Request served",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("tenantID", tenantID),
			zap.String("ip", c.ClientIP()),
		)
	}
}
