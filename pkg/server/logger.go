package server

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"viswords-api/internal/config"
)

// NewLogger builds the application logger: JSON for serverless and
// production deployments, text otherwise
func NewLogger(cfg *config.Config, serverless bool) *logrus.Logger {
	return newLogger(cfg, serverless, os.Stdout)
}

func newLogger(cfg *config.Config, serverless bool, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if serverless || cfg.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
		logger.WithField("log_level", cfg.LogLevel).Warn("Unknown LOG_LEVEL, using info")
	}
	logger.SetLevel(level)

	return logger
}
