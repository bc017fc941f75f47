// Package server hosts the ambient HTTP surface: one gin.Engine carrying
// the standard middleware chain plus whatever routes a caller mounts
// onto it (internal/gateway's six client-facing endpoints, and the
// metrics endpoint).
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gwmux/internal/config"
	mw "gwmux/internal/middleware"
)

// RouteRegistrar mounts routes onto engine; internal/gateway.Gateway
// satisfies this via its RegisterRoutes method.
type RouteRegistrar interface {
	RegisterRoutes(engine *gin.Engine)
}

// BuildEngine constructs the single gin.Engine the whole gateway serves
// from, applying the same standard-settings shape the teacher's
// applyStandardEngineSettings used (recovery, request id, metrics, CORS,
// optional request logging and rate limiting) generalized to one engine
// instead of a per-provider pair.
func BuildEngine(cfg *config.Config, registrar RouteRegistrar) *gin.Engine {
	if !cfg.Security.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	_ = engine.SetTrustedProxies(nil)

	engine.Use(mw.Recovery(), mw.RequestID(), mw.Metrics(), mw.CORS())
	if cfg.ResponseShaping.RequestLogEnabled {
		engine.Use(mw.RequestLogger())
	}
	if cfg.RateLimit.Enabled {
		engine.Use(mw.RateLimiterAutoKey(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	engine.GET("/metrics", mw.MetricsHandler)
	engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	registrar.RegisterRoutes(engine)
	return engine
}
