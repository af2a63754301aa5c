package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"viswords-api/internal/adapters/storage"
	"viswords-api/internal/config"
	"viswords-api/internal/models"
	"viswords-api/internal/repositories"
)

// Upload errors reported back to clients
var (
	ErrNoSelectedFile = errors.New("no selected file")
	ErrFileNotAllowed = errors.New("file type not allowed")
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	purgeBatchSize   = 100
)

// uploadService implements the UploadService interface
type uploadService struct {
	cfg       *config.Config
	storage   storage.FileStorage
	uploads   repositories.UploadRepository
	logger    *logrus.Logger
	validator *validator.Validate
}

// NewUploadService creates a new upload service instance
func NewUploadService(cfg *config.Config, fs storage.FileStorage, uploads repositories.UploadRepository, logger *logrus.Logger) UploadService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &uploadService{
		cfg:       cfg,
		storage:   fs,
		uploads:   uploads,
		logger:    logger,
		validator: validator.New(),
	}
}

// Save stores the file under "<session>/<id><ext>" and records it. The stored
// file is removed again if the record cannot be written.
func (s *uploadService) Save(ctx context.Context, req *SaveUploadRequest) (*models.Upload, error) {
	if req == nil {
		return nil, fmt.Errorf("save upload request cannot be nil")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, repositories.ValidationError("upload", "", err)
	}
	if req.Filename == "" {
		return nil, ErrNoSelectedFile
	}
	if !s.cfg.AllowedFile(req.Filename) {
		return nil, ErrFileNotAllowed
	}

	contentType := req.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(req.Data)
	}

	upload := models.NewUpload(req.SessionID, path.Base(req.Filename), contentType, int64(len(req.Data)))
	if err := upload.Validate(); err != nil {
		return nil, repositories.ValidationError("upload", "", err)
	}

	err := s.storage.Store(ctx, upload.StorageKey, req.Data, &storage.StoreOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"original_name": upload.OriginalName, "upload_id": upload.ID},
	})
	if err != nil {
		return nil, err
	}

	if err := s.uploads.Create(ctx, upload); err != nil {
		if delErr := s.storage.Delete(ctx, upload.StorageKey); delErr != nil {
			s.logger.WithError(delErr).WithField("key", upload.StorageKey).Warn("Failed to remove orphaned upload")
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"upload_id": upload.ID,
		"size":      upload.Size,
	}).Info("Upload stored")

	return upload, nil
}

func (s *uploadService) List(ctx context.Context, sessionID string, limit int) ([]*models.Upload, error) {
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit < 1 || limit > maxListLimit {
		return nil, repositories.ValidationError("upload", "", fmt.Errorf("limit must be between 1 and %d", maxListLimit))
	}
	return s.uploads.ListBySession(ctx, sessionID, limit)
}

func (s *uploadService) Open(ctx context.Context, sessionID, name string) (*models.Upload, []byte, error) {
	upload, err := s.lookup(ctx, sessionID, name)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.storage.Retrieve(ctx, upload.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return upload, data, nil
}

func (s *uploadService) Remove(ctx context.Context, sessionID, name string) error {
	upload, err := s.lookup(ctx, sessionID, name)
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, upload.StorageKey); err != nil && !storage.IsNotFound(err) {
		return err
	}
	return s.uploads.Delete(ctx, upload.ID)
}

func (s *uploadService) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	for {
		batch, err := s.uploads.ListCreatedBefore(ctx, cutoff, purgeBatchSize)
		if err != nil {
			return removed, err
		}

		for _, upload := range batch {
			if err := ctx.Err(); err != nil {
				return removed, err
			}
			if err := s.storage.Delete(ctx, upload.StorageKey); err != nil && !storage.IsNotFound(err) {
				return removed, err
			}
			if err := s.uploads.Delete(ctx, upload.ID); err != nil && !repositories.IsNotFound(err) {
				return removed, err
			}
			removed++
		}

		if len(batch) < purgeBatchSize {
			break
		}
	}

	if removed > 0 {
		s.logger.WithFields(logrus.Fields{
			"removed": removed,
			"cutoff":  cutoff,
		}).Info("Expired uploads purged")
	}
	return removed, nil
}

// lookup resolves a bare file name inside the session
func (s *uploadService) lookup(ctx context.Context, sessionID, name string) (*models.Upload, error) {
	if name == "" || name != path.Base(name) {
		return nil, storage.ErrInvalidKey
	}
	return s.uploads.GetByKey(ctx, sessionID+"/"+name)
}
