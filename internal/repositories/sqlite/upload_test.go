package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"viswords-api/internal/database"
	"viswords-api/internal/models"
	"viswords-api/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	cfg := database.DefaultConnectionConfig()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "test.db")
	cfg.Logger = logger

	cm := database.NewConnectionManager(cfg)
	if err := cm.Connect(context.Background()); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { cm.Close() })

	if err := cm.Migrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return cm.GetDB()
}

func TestUploadRepository_CreateAndGet(t *testing.T) {
	repo := NewUploadRepository(setupTestDB(t), nil)
	ctx := context.Background()

	session := uuid.New().String()
	upload := models.NewUpload(session, "cat.png", "image/png", 128)

	if err := repo.Create(ctx, upload); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByKey(ctx, upload.StorageKey)
	if err != nil {
		t.Fatalf("GetByKey() error = %v", err)
	}
	if got.ID != upload.ID || got.OriginalName != "cat.png" || got.Size != 128 {
		t.Errorf("GetByKey() = %+v", got)
	}
	if !got.CreatedAt.Equal(upload.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, upload.CreatedAt)
	}

	if err := repo.Create(ctx, upload); !repositories.IsDuplicate(err) {
		t.Errorf("Create() duplicate error = %v", err)
	}

	if _, err := repo.GetByKey(ctx, session+"/missing.png"); !repositories.IsNotFound(err) {
		t.Errorf("GetByKey() missing error = %v", err)
	}
}

func TestUploadRepository_CreateInvalid(t *testing.T) {
	repo := NewUploadRepository(setupTestDB(t), nil)

	upload := models.NewUpload(uuid.New().String(), "", "image/png", 1)
	if err := repo.Create(context.Background(), upload); !repositories.IsValidation(err) {
		t.Errorf("Create() error = %v, want validation error", err)
	}
}

func TestUploadRepository_ListBySession(t *testing.T) {
	repo := NewUploadRepository(setupTestDB(t), nil)
	ctx := context.Background()

	session := uuid.New().String()
	other := uuid.New().String()
	base := time.Now().UTC()

	for i, name := range []string{"a.png", "b.gif", "c.jpg"} {
		u := models.NewUpload(session, name, "image/png", int64(i))
		u.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}
	if err := repo.Create(ctx, models.NewUpload(other, "z.png", "image/png", 1)); err != nil {
		t.Fatalf("Create(other) error = %v", err)
	}

	uploads, err := repo.ListBySession(ctx, session, 2)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(uploads) != 2 {
		t.Fatalf("ListBySession() returned %d uploads, want 2", len(uploads))
	}
	if uploads[0].OriginalName != "c.jpg" || uploads[1].OriginalName != "b.gif" {
		t.Errorf("order = %s, %s", uploads[0].OriginalName, uploads[1].OriginalName)
	}

	count, err := repo.Count(ctx)
	if err != nil || count != 4 {
		t.Errorf("Count() = %d, %v", count, err)
	}

	if _, err := repo.ListBySession(ctx, " ", 10); err == nil {
		t.Error("expected error for blank session")
	}
}

func TestUploadRepository_Delete(t *testing.T) {
	repo := NewUploadRepository(setupTestDB(t), nil)
	ctx := context.Background()

	u := models.NewUpload(uuid.New().String(), "a.png", "image/png", 1)
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, u.ID); !repositories.IsNotFound(err) {
		t.Errorf("Delete() twice error = %v", err)
	}
}

func TestUploadRepository_ListCreatedBefore(t *testing.T) {
	repo := NewUploadRepository(setupTestDB(t), nil)
	ctx := context.Background()

	session := uuid.New().String()
	now := time.Now().UTC()
	ages := map[string]time.Duration{"old.png": 48 * time.Hour, "older.png": 72 * time.Hour, "new.png": time.Minute}
	for name, age := range ages {
		u := models.NewUpload(session, name, "image/png", 1)
		u.CreatedAt = now.Add(-age)
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}

	expired, err := repo.ListCreatedBefore(ctx, now.Add(-24*time.Hour), 10)
	if err != nil {
		t.Fatalf("ListCreatedBefore() error = %v", err)
	}
	if len(expired) != 2 {
		t.Fatalf("ListCreatedBefore() returned %d uploads, want 2", len(expired))
	}
	if expired[0].OriginalName != "older.png" || expired[1].OriginalName != "old.png" {
		t.Errorf("order = %s, %s", expired[0].OriginalName, expired[1].OriginalName)
	}

	limited, err := repo.ListCreatedBefore(ctx, now, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("ListCreatedBefore() with limit = %d, %v", len(limited), err)
	}
}
