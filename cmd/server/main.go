package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"viswords-api/internal/config"
	"viswords-api/internal/retention"
	"viswords-api/pkg/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	logger := server.NewLogger(cfg, false)

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	if cfg.UsesPlaceholderCredentials() {
		logger.Warn("SECRET_KEY or ARK_API_KEY is still the built-in placeholder")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	container, err := server.NewContainer(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize container")
	}
	defer container.Close()

	router := server.NewRouter(container, server.RouterOptions{
		Mode:     "server",
		Recovery: true,
		Metrics:  prometheus.DefaultGatherer,
		Swagger:  !cfg.IsProduction(),
	})
	cfg.InitApp(router)

	sweeper := retention.New(container.UploadService, cfg.Upload, logger)
	stopSweeper, err := sweeper.Start(context.Background())
	if err != nil {
		logger.WithError(err).Fatal("Failed to start upload retention")
	}
	defer stopSweeper()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	logger.WithField("port", cfg.Port).Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
