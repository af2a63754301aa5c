package repositories

import (
	"context"
	"time"

	"viswords-api/internal/models"
)

// UploadRepository persists upload records in the DATABASE file
type UploadRepository interface {
	// Create inserts a validated upload record
	Create(ctx context.Context, upload *models.Upload) error

	// GetByKey returns the upload stored under key
	GetByKey(ctx context.Context, key string) (*models.Upload, error)

	// ListBySession returns a session's uploads, newest first
	ListBySession(ctx context.Context, sessionID string, limit int) ([]*models.Upload, error)

	// ListCreatedBefore returns uploads older than cutoff, oldest first
	ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.Upload, error)

	Delete(ctx context.Context, id string) error

	Count(ctx context.Context) (int64, error)
}
