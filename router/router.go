// router/router.go

package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stonefield/resourcing/controller"
	"github.com/stonefield/resourcing/middleware"
)

func SetupRouter(
	controllers *controller.Controllers,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration))
	api.Use(middleware.TenantScope())

	controllers.Resource.RegisterRoutes(api)
	controllers.Request.RegisterRoutes(api)
	controllers.Forecast.RegisterRoutes(api)
	controllers.Agent.RegisterRoutes(api)

	return router
}
