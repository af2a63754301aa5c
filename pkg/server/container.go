package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"viswords-api/internal/adapters/storage"
	"viswords-api/internal/config"
	"viswords-api/internal/database"
	"viswords-api/internal/middleware"
	"viswords-api/internal/repositories"
	"viswords-api/internal/repositories/sqlite"
	"viswords-api/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *logrus.Logger
	DB       *database.ConnectionManager
	Storage  storage.FileStorage
	Uploads  repositories.UploadRepository
	Sessions *middleware.SessionManager
	Limiter  *middleware.ClientLimiter

	UploadService services.UploadService
}

// ContainerOption customises NewContainer
type ContainerOption func(*containerOptions)

type containerOptions struct {
	storageType storage.StorageType
}

// WithStorageType selects the upload storage backend; local is the default
func WithStorageType(t storage.StorageType) ContainerOption {
	return func(o *containerOptions) { o.storageType = t }
}

// NewContainer opens the database, applies migrations and wires storage,
// sessions and rate limiting from cfg
func NewContainer(ctx context.Context, cfg *config.Config, logger *logrus.Logger, opts ...ContainerOption) (*Container, error) {
	if logger == nil {
		logger = logrus.New()
	}
	o := containerOptions{storageType: storage.StorageTypeLocal}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{Config: cfg, Logger: logger}

	c.DB = database.NewConnectionManager(database.ConnectionConfigFrom(cfg.Database, logger))
	if err := c.DB.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := c.DB.Migrate(); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	c.Uploads = sqlite.NewUploadRepository(c.DB.GetDB(), logger)

	fs, err := storage.New(o.storageType, cfg.Upload.Folder)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize upload storage: %w", err)
	}
	c.Storage = fs
	c.UploadService = services.NewUploadService(cfg, fs, c.Uploads, logger)

	c.Sessions, err = middleware.NewSessionManager(middleware.SessionConfig{
		SecretKey: cfg.SecretKey,
		Secure:    cfg.IsProduction(),
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize sessions: %w", err)
	}

	c.Limiter = middleware.NewClientLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	return c, nil
}

// Close cleans up all resources
func (c *Container) Close() error {
	var errs []error
	if c.Storage != nil {
		if err := c.Storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
