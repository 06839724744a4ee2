// middleware/tenant.go

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/stonefield/resourcing/logging"
)

const (
	tenantHeader = "X-Tenant-ID"
	userHeader   = "X-User-ID"
)

// TenantScope resolves the calling tenant and user from the gateway headers
// and rejects requests without a tenant. Every data-plane route runs behind
// it; tenant isolation downstream relies on the value set here.
func TenantScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(tenantHeader)
		if tenantID == "" {
			logger.Warn("Request without tenant header",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Tenant is required"})
			c.Abort()
			return
		}
		c.Set("tenantID", tenantID)

		if userID := c.GetHeader(userHeader); userID != "" {
			c.Set("userID", userID)
		}

		c.Next()
	}
}
