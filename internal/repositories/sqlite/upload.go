package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"viswords-api/internal/models"
	"viswords-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

const uploadColumns = `id, session_id, storage_key, original_name, content_type, size_bytes, created_at`

// UploadRepository implements repositories.UploadRepository for SQLite
type UploadRepository struct {
	baseRepository
}

// NewUploadRepository creates a new SQLite upload repository
func NewUploadRepository(db *sql.DB, logger *logrus.Logger) *UploadRepository {
	return &UploadRepository{baseRepository: newBaseRepository(db, "uploads", logger)}
}

// Create inserts a new upload
func (r *UploadRepository) Create(ctx context.Context, upload *models.Upload) error {
	if err := upload.Validate(); err != nil {
		return repositories.ValidationError("upload", upload.ID, err)
	}

	query := `INSERT INTO uploads (` + uploadColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.exec(ctx, "create", query,
		upload.ID,
		upload.SessionID,
		upload.StorageKey,
		upload.OriginalName,
		upload.ContentType,
		upload.Size,
		upload.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return repositories.DuplicateError("upload", "storage_key", upload.StorageKey)
		}
		return err
	}
	return nil
}

// GetByKey retrieves an upload by its storage key
func (r *UploadRepository) GetByKey(ctx context.Context, key string) (*models.Upload, error) {
	if err := r.validateID(key); err != nil {
		return nil, err
	}

	row := r.queryRow(ctx, "get_by_key",
		`SELECT `+uploadColumns+` FROM uploads WHERE storage_key = ?`, key)

	upload, err := scanUpload(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.NotFoundError("upload", key)
		}
		return nil, repositories.NewRepositoryError("get_by_key", "upload", key, err)
	}
	return upload, nil
}

// ListBySession returns the newest uploads of a session
func (r *UploadRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]*models.Upload, error) {
	if err := r.validateID(sessionID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.query(ctx, "list_by_session",
		`SELECT `+uploadColumns+` FROM uploads WHERE session_id = ? ORDER BY created_at DESC, id LIMIT ?`,
		sessionID, limit)
	if err != nil {
		return nil, err
	}
	return scanUploads(rows, "list_by_session", sessionID)
}

// ListCreatedBefore returns the oldest uploads created before cutoff
func (r *UploadRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.Upload, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.query(ctx, "list_created_before",
		`SELECT `+uploadColumns+` FROM uploads WHERE created_at < ? ORDER BY created_at, id LIMIT ?`,
		cutoff.UTC(), limit)
	if err != nil {
		return nil, err
	}
	return scanUploads(rows, "list_created_before", "")
}

// Delete removes an upload record by ID
func (r *UploadRepository) Delete(ctx context.Context, id string) error {
	if err := r.validateID(id); err != nil {
		return err
	}
	result, err := r.exec(ctx, "delete", `DELETE FROM uploads WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return r.checkRowsAffected(result, "delete", id)
}

// Count returns the number of recorded uploads
func (r *UploadRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.queryRow(ctx, "count", `SELECT COUNT(*) FROM uploads`).Scan(&n); err != nil {
		return 0, repositories.NewRepositoryError("count", "upload", "", err)
	}
	return n, nil
}

func scanUploads(rows *sql.Rows, operation, id string) ([]*models.Upload, error) {
	defer rows.Close()

	var uploads []*models.Upload
	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, repositories.NewRepositoryError(operation, "upload", id, err)
		}
		uploads = append(uploads, upload)
	}
	if err := rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError(operation, "upload", id, err)
	}
	return uploads, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUpload(s scanner) (*models.Upload, error) {
	u := &models.Upload{}
	err := s.Scan(
		&u.ID,
		&u.SessionID,
		&u.StorageKey,
		&u.OriginalName,
		&u.ContentType,
		&u.Size,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

var _ repositories.UploadRepository = (*UploadRepository)(nil)
