package services

import (
	"context"
	"time"

	"viswords-api/internal/models"
)

// UploadService defines the business operations behind the upload endpoints.
// Every operation is scoped to a session: uploads of other sessions are
// reported as missing.
type UploadService interface {
	// Save validates and stores one file, then records it
	Save(ctx context.Context, req *SaveUploadRequest) (*models.Upload, error)

	// List returns a session's uploads, newest first
	List(ctx context.Context, sessionID string, limit int) ([]*models.Upload, error)

	// Open resolves a stored file name and returns its record and content
	Open(ctx context.Context, sessionID, name string) (*models.Upload, []byte, error)

	// Remove deletes the stored file and its record
	Remove(ctx context.Context, sessionID, name string) error

	// Purge removes every upload created before cutoff across all sessions
	// and returns how many were removed
	Purge(ctx context.Context, cutoff time.Time) (int, error)
}

// SaveUploadRequest carries one received file
type SaveUploadRequest struct {
	SessionID   string `validate:"required,uuid"`
	Filename    string
	ContentType string
	Data        []byte
}
