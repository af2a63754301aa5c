package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"viswords-api/internal/config"
	"viswords-api/internal/middleware"
	"viswords-api/internal/services"
)

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	Config   *config.Config
	Mode     string
	DB       HealthChecker
	Uploads  services.UploadService
	Sessions *middleware.SessionManager
	Limiter  *middleware.ClientLimiter
	Logger   *logrus.Logger
	Swagger  bool
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, rc *RouterConfig) {
	healthHandler := NewHealthHandler(rc.DB, rc.Mode, rc.Logger)
	configHandler := NewConfigHandler(rc.Config)
	uploadHandler := NewUploadHandler(rc.Uploads, rc.Logger)

	if rc.Swagger {
		registerSwagger(router)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not Found", Message: "no route for " + c.Request.URL.Path})
	})

	api := router.Group("/api")
	{
		api.GET("/health", healthHandler.Health)
		api.GET("/config", configHandler.GetConfig)

		uploads := api.Group("/uploads")
		uploads.Use(middleware.Session(rc.Sessions, rc.Logger))
		if rc.Limiter != nil {
			uploads.Use(middleware.RateLimiter(rc.Limiter, rc.Logger))
		}
		{
			uploads.GET("", uploadHandler.List)
			uploads.POST("", middleware.RequestSizeLimit(rc.Config.Upload.MaxContentLength), uploadHandler.Create)
			uploads.GET("/:name", uploadHandler.Get)
			uploads.DELETE("/:name", uploadHandler.Delete)
		}
	}
}
