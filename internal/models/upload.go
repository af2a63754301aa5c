package models

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Upload records a file accepted by the upload endpoint
type Upload struct {
	ID           string    `json:"id" db:"id" validate:"required,uuid"`
	SessionID    string    `json:"-" db:"session_id" validate:"required,uuid"`
	StorageKey   string    `json:"key" db:"storage_key" validate:"required"`
	OriginalName string    `json:"original_name" db:"original_name" validate:"required,max=255"`
	ContentType  string    `json:"content_type" db:"content_type" validate:"required"`
	Size         int64     `json:"size" db:"size_bytes" validate:"gte=0"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// NewUpload creates an upload owned by sessionID. The storage key keeps the
// original extension so the stored file can be served with a sensible type.
func NewUpload(sessionID, originalName, contentType string, size int64) *Upload {
	id := uuid.New().String()
	return &Upload{
		ID:           id,
		SessionID:    sessionID,
		StorageKey:   StorageKey(sessionID, id, originalName),
		OriginalName: originalName,
		ContentType:  contentType,
		Size:         size,
		CreatedAt:    time.Now().UTC(),
	}
}

// StorageKey builds "<session>/<id><ext>"
func StorageKey(sessionID, id, originalName string) string {
	return sessionID + "/" + id + strings.ToLower(path.Ext(originalName))
}

// Validate validates the upload record
func (u *Upload) Validate() error {
	if err := validate.Struct(u); err != nil {
		return fmt.Errorf("invalid upload: %w", err)
	}
	if !strings.HasPrefix(u.StorageKey, u.SessionID+"/") {
		return fmt.Errorf("invalid upload: storage key %q is outside session %s", u.StorageKey, u.SessionID)
	}
	return nil
}

// UploadResponse is returned by the upload endpoints
type UploadResponse struct {
	Upload *Upload `json:"upload"`
	URL    string  `json:"url"`
}
