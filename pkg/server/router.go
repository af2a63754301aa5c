package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"viswords-api/internal/handlers"
	"viswords-api/internal/middleware"
)

// RouterOptions selects the pieces that differ between deployment modes
type RouterOptions struct {
	// Mode is reported by /api/health ("server" or "serverless")
	Mode string

	// Recovery installs a panic handler. Leave it off behind the event
	// adapter so panics reach its error boundary.
	Recovery bool

	// Metrics, when set, is served at /metrics
	Metrics prometheus.Gatherer

	Swagger bool
}

// NewRouter builds the gin engine serving the application
func NewRouter(c *Container, opts RouterOptions) *gin.Engine {
	router := gin.New()
	// Client IPs come from the connection (or the event's source IP), never
	// from forwarding headers the caller controls
	if err := router.SetTrustedProxies(nil); err != nil {
		c.Logger.WithError(err).Warn("Failed to reset trusted proxies")
	}
	router.Use(middleware.RequestID())
	if opts.Recovery {
		router.Use(gin.CustomRecovery(recoveryHandler(c.Logger)))
	}
	router.Use(
		middleware.StructuredLogger(c.Logger),
		middleware.CORS(),
		middleware.SecurityHeaders(),
		middleware.ErrorHandler(c.Logger),
	)

	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Metrics, promhttp.HandlerOpts{})))
	}

	handlers.SetupRoutes(router, &handlers.RouterConfig{
		Config:   c.Config,
		Mode:     opts.Mode,
		DB:       c.DB,
		Uploads:  c.UploadService,
		Sessions: c.Sessions,
		Limiter:  c.Limiter,
		Logger:   c.Logger,
		Swagger:  opts.Swagger,
	})

	return router
}

func recoveryHandler(logger *logrus.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, rec any) {
		logger.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.RequestIDKey),
			"path":       c.Request.URL.Path,
			"panic":      rec,
		}).Error("Recovered from panic")

		c.AbortWithStatusJSON(http.StatusInternalServerError, handlers.ErrorResponse{
			Error:   "internal_server_error",
			Message: "Internal server error",
		})
	}
}
