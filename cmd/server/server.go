package main

import (
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/secscore-io/secscore/pkg/common"
	"github.com/secscore-io/secscore/pkg/ratelimit"
)

// excludedRateLimitPaths never count against a client's request budget.
var excludedRateLimitPaths = []string{"/api/health"}

// setupRouter builds the Gin engine: recovery, CORS, request-id, and rate
// limiting middleware, followed by the /api route group and its endpoints.
func setupRouter(app *App, limiter *ratelimit.ClientLimiter) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = os.Stderr
	gin.DefaultErrorWriter = os.Stderr

	router := gin.New()
	router.Use(gin.RecoveryWithWriter(os.Stderr))
	common.Info("recovery middleware installed")

	router.Use(cors.Default())
	common.Info("cors middleware installed")

	router.Use(requestIDMiddleware())
	router.Use(rateLimiterMiddleware(limiter, excludedRateLimitPaths))
	common.Info("rate limiter installed: %d requests/hour per client", app.Config.RateLimitPerHour)

	api := router.Group("/api")
	registerHandlers(api, app)
	common.Info("api route group registered")

	return router
}
