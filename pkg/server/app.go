package server

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"viswords-api/internal/adapters/storage"
	"viswords-api/internal/config"
	"viswords-api/pkg/lambda"
)

// loadTimeout bounds database setup during application load
const loadTimeout = 10 * time.Second

// LoadOptions configures Load
type LoadOptions struct {
	Router      RouterOptions
	StorageType storage.StorageType
}

// Load builds the wrapped application for the event adapter. Any failure is
// returned as lambda.Failed so the adapter can serve its stand-in instead.
func Load(cfg *config.Config, logger *logrus.Logger, opts LoadOptions) lambda.LoadResult {
	if cfg == nil {
		return lambda.Failed(fmt.Errorf("no configuration"))
	}
	if err := cfg.Validate(); err != nil {
		return lambda.Failed(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	var containerOpts []ContainerOption
	if opts.StorageType != "" {
		containerOpts = append(containerOpts, WithStorageType(opts.StorageType))
	}

	container, err := NewContainer(ctx, cfg, logger, containerOpts...)
	if err != nil {
		return lambda.Failed(err)
	}

	router := NewRouter(container, opts.Router)
	cfg.InitApp(router)

	if cfg.UsesPlaceholderCredentials() {
		container.Logger.Warn("SECRET_KEY or ARK_API_KEY is still the built-in placeholder")
	}

	return lambda.Loaded(router, container.Close)
}
