package services

import (
	"context"
	"errors"
	"io"
	"path"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"viswords-api/internal/adapters/storage"
	"viswords-api/internal/config"
	"viswords-api/internal/models"
	"viswords-api/internal/repositories"
)

// fakeUploadRepository keeps upload records in a map
type fakeUploadRepository struct {
	records   map[string]*models.Upload
	createErr error
}

func newFakeUploadRepository() *fakeUploadRepository {
	return &fakeUploadRepository{records: make(map[string]*models.Upload)}
}

func (r *fakeUploadRepository) Create(ctx context.Context, u *models.Upload) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.records[u.StorageKey] = u
	return nil
}

func (r *fakeUploadRepository) GetByKey(ctx context.Context, key string) (*models.Upload, error) {
	u, ok := r.records[key]
	if !ok {
		return nil, repositories.NotFoundError("upload", key)
	}
	return u, nil
}

func (r *fakeUploadRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]*models.Upload, error) {
	var out []*models.Upload
	for _, u := range r.records {
		if u.SessionID == sessionID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeUploadRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.Upload, error) {
	var out []*models.Upload
	for _, u := range r.records {
		if u.CreatedAt.Before(cutoff) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeUploadRepository) Delete(ctx context.Context, id string) error {
	for key, u := range r.records {
		if u.ID == id {
			delete(r.records, key)
			return nil
		}
	}
	return repositories.NotFoundError("upload", id)
}

func (r *fakeUploadRepository) Count(ctx context.Context) (int64, error) {
	return int64(len(r.records)), nil
}

func newTestService(t *testing.T) (UploadService, *storage.MemoryFileStorage, *fakeUploadRepository) {
	t.Helper()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	fs := storage.NewMemoryFileStorage()
	repo := newFakeUploadRepository()
	return NewUploadService(cfg, fs, repo, logger), fs, repo
}

var gifBytes = []byte("GIF89a\x01\x00\x01\x00")

func TestUploadService_Save(t *testing.T) {
	svc, fs, repo := newTestService(t)
	ctx := context.Background()
	session := uuid.New().String()

	upload, err := svc.Save(ctx, &SaveUploadRequest{
		SessionID:   session,
		Filename:    "Word.GIF",
		ContentType: "application/octet-stream",
		Data:        gifBytes,
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if upload.ContentType != "image/gif" {
		t.Errorf("ContentType = %q, want sniffed image/gif", upload.ContentType)
	}
	if path.Ext(upload.StorageKey) != ".gif" {
		t.Errorf("StorageKey = %q, want lowercased .gif", upload.StorageKey)
	}
	if upload.OriginalName != "Word.GIF" || upload.Size != int64(len(gifBytes)) {
		t.Errorf("upload = %+v", upload)
	}
	if fs.FileCount() != 1 || len(repo.records) != 1 {
		t.Errorf("stored = %d, recorded = %d", fs.FileCount(), len(repo.records))
	}
}

func TestUploadService_SaveRejections(t *testing.T) {
	svc, fs, _ := newTestService(t)
	session := uuid.New().String()

	tests := []struct {
		name    string
		req     *SaveUploadRequest
		wantErr func(error) bool
	}{
		{"nil request", nil, func(err error) bool { return err != nil }},
		{"bad session", &SaveUploadRequest{SessionID: "nope", Filename: "a.png"}, repositories.IsValidation},
		{"empty filename", &SaveUploadRequest{SessionID: session}, func(err error) bool { return errors.Is(err, ErrNoSelectedFile) }},
		{"text file", &SaveUploadRequest{SessionID: session, Filename: "a.txt"}, func(err error) bool { return errors.Is(err, ErrFileNotAllowed) }},
		{"no extension", &SaveUploadRequest{SessionID: session, Filename: "gif"}, func(err error) bool { return errors.Is(err, ErrFileNotAllowed) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Save(context.Background(), tt.req)
			if !tt.wantErr(err) {
				t.Errorf("Save() error = %v", err)
			}
		})
	}

	if fs.FileCount() != 0 {
		t.Errorf("rejected uploads must not be stored, got %d", fs.FileCount())
	}
}

func TestUploadService_SaveRemovesOrphanOnRecordFailure(t *testing.T) {
	svc, fs, repo := newTestService(t)
	repo.createErr = errors.New("disk full")

	_, err := svc.Save(context.Background(), &SaveUploadRequest{
		SessionID: uuid.New().String(),
		Filename:  "a.gif",
		Data:      gifBytes,
	})
	if err == nil {
		t.Fatal("expected error when the record cannot be written")
	}
	if fs.FileCount() != 0 {
		t.Errorf("orphaned file left in storage")
	}
}

func TestUploadService_SessionScope(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	owner := uuid.New().String()
	other := uuid.New().String()

	upload, err := svc.Save(ctx, &SaveUploadRequest{SessionID: owner, Filename: "a.gif", Data: gifBytes})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	name := path.Base(upload.StorageKey)

	if _, data, err := svc.Open(ctx, owner, name); err != nil || string(data) != string(gifBytes) {
		t.Errorf("Open() = %q, %v", data, err)
	}
	if _, _, err := svc.Open(ctx, other, name); !repositories.IsNotFound(err) {
		t.Errorf("Open() from other session error = %v, want not found", err)
	}
	if err := svc.Remove(ctx, other, name); !repositories.IsNotFound(err) {
		t.Errorf("Remove() from other session error = %v, want not found", err)
	}
	if _, _, err := svc.Open(ctx, owner, "../"+name); !storage.IsInvalidKey(err) {
		t.Errorf("Open() with traversal error = %v, want invalid key", err)
	}

	list, err := svc.List(ctx, other, 0)
	if err != nil || len(list) != 0 {
		t.Errorf("List() for other session = %v, %v", list, err)
	}

	if err := svc.Remove(ctx, owner, name); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, _, err := svc.Open(ctx, owner, name); !repositories.IsNotFound(err) {
		t.Errorf("Open() after remove error = %v", err)
	}
}

func TestUploadService_ListLimit(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	session := uuid.New().String()

	for i := 0; i < 3; i++ {
		if _, err := svc.Save(ctx, &SaveUploadRequest{SessionID: session, Filename: "a.gif", Data: gifBytes}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	tests := []struct {
		limit   int
		want    int
		wantErr bool
	}{
		{0, 3, false},
		{2, 2, false},
		{-1, 0, true},
		{501, 0, true},
	}
	for _, tt := range tests {
		list, err := svc.List(ctx, session, tt.limit)
		if (err != nil) != tt.wantErr {
			t.Errorf("List(%d) error = %v", tt.limit, err)
			continue
		}
		if err == nil && len(list) != tt.want {
			t.Errorf("List(%d) returned %d, want %d", tt.limit, len(list), tt.want)
		}
	}
}

func TestUploadService_Purge(t *testing.T) {
	svc, fs, repo := newTestService(t)
	ctx := context.Background()
	session := uuid.New().String()

	var keep *models.Upload
	for i := 0; i < 3; i++ {
		u, err := svc.Save(ctx, &SaveUploadRequest{SessionID: session, Filename: "a.gif", Data: gifBytes})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if i == 0 {
			keep = u
			continue
		}
		u.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	}

	removed, err := svc.Purge(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Purge() removed %d, want 2", removed)
	}
	if fs.FileCount() != 1 || len(repo.records) != 1 {
		t.Errorf("stored = %d, recorded = %d", fs.FileCount(), len(repo.records))
	}
	if _, ok := repo.records[keep.StorageKey]; !ok {
		t.Error("recent upload should survive the purge")
	}
}
