package main

import (
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"viswords-api/internal/config"
	"viswords-api/pkg/lambda"
	"viswords-api/pkg/server"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	cfg, sc, err := config.GetOptimizedConfig()
	if err != nil {
		// Still start: the adapter answers every event with its stand-in.
		logger := logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.WithError(err).Error("Failed to load configuration")
		awslambda.Start(lambda.NewAdapter(lambda.Failed(err), logger).Handle)
		return
	}

	logger := server.NewLogger(cfg, true)
	logger.WithFields(logrus.Fields{
		"platform": sc.Platform,
		"function": sc.FunctionName,
		"region":   sc.Region,
		"stage":    sc.Stage,
	}).Info("Starting event adapter")

	metrics := lambda.NewMetrics(prometheus.DefaultRegisterer)
	manager := lambda.NewManager(func() lambda.LoadResult {
		return server.Load(cfg, logger, server.LoadOptions{
			Router: server.RouterOptions{Mode: "serverless", Metrics: prometheus.DefaultGatherer},
		})
	}, logger, lambda.WithMetrics(metrics))

	// Load during the init phase so the first event is not charged for it
	manager.Initialize()
	if !manager.IsHealthy() {
		logger.WithError(manager.Adapter().LoadError()).Error("Application failed to load, serving stand-in")
	}

	awslambda.Start(manager.Handle)
}
