package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/denisAlshanov/audiograb/docs"
	"github.com/denisAlshanov/audiograb/internal/api/handlers"
	"github.com/denisAlshanov/audiograb/internal/api/middleware"
	"github.com/denisAlshanov/audiograb/internal/config"
)

type Router struct {
	engine  *gin.Engine
	config  *config.Config
	limiter *middleware.RateLimiter
}

func NewRouter(cfg *config.Config, youtubeHandler *handlers.YouTubeHandler, adsHandler *handlers.AdsHandler, healthHandler *handlers.HealthHandler) *Router {
	// Set Gin mode
	if cfg.Runtime.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Add middleware
	engine.Use(gin.Recovery())
	engine.Use(middleware.CorrelationIDMiddleware())
	engine.Use(middleware.CORSMiddleware(&cfg.CORS))

	// Swagger documentation
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoints
	engine.GET("/", healthHandler.Root)
	health := engine.Group("/")
	{
		health.GET("/health", healthHandler.Health)
		health.GET("/ready", healthHandler.Readiness)
		health.GET("/live", healthHandler.Liveness)
	}

	limiter := middleware.NewRateLimiter(&cfg.API)

	api := engine.Group("/api/youtube")
	api.Use(limiter.Middleware())
	{
		api.GET("/info", youtubeHandler.Info)         // /api/youtube/info?url=
		api.GET("/download", youtubeHandler.Download) // /api/youtube/download?url=&quality=&format=&addMetadata=
		api.POST("/ad-watched", adsHandler.AdWatched) // /api/youtube/ad-watched
		api.GET("/ad-status", adsHandler.AdStatus)    // /api/youtube/ad-status
	}

	return &Router{
		engine:  engine,
		config:  cfg,
		limiter: limiter,
	}
}

// Server wraps the engine in an http.Server so the caller can shut it
// down gracefully. No write timeout: downloads stream for as long as
// extraction takes.
func (r *Router) Server() *http.Server {
	return &http.Server{
		Addr:              r.config.Server.Host + ":" + r.config.Server.Port,
		Handler:           r.engine,
		ReadHeaderTimeout: r.config.Server.ReadHeaderTimeout,
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Close stops the background work owned by the router's middleware.
func (r *Router) Close() {
	r.limiter.Stop()
}
