package storage

import (
	"context"
	"encoding/json"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const metadataSuffix = ".meta.json"

// LocalFileStorage implements FileStorage on the local filesystem, rooted at
// the configured upload folder
type LocalFileStorage struct {
	basePath string
}

// NewLocalFileStorage creates the upload folder if needed and returns a storage rooted at it
func NewLocalFileStorage(basePath string) (*LocalFileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, NewStorageError("Open", "", err)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, NewStorageError("Open", "", err)
	}

	return &LocalFileStorage{basePath: absPath}, nil
}

// BasePath returns the absolute upload folder
func (l *LocalFileStorage) BasePath() string {
	return l.basePath
}

// Store implements FileStorage.Store
func (l *LocalFileStorage) Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error {
	if err := validateKey(key); err != nil {
		return NewStorageError("Store", key, err)
	}
	if opts == nil {
		opts = &StoreOptions{}
	}

	filePath := l.filePath(key)

	if !opts.Overwrite {
		if _, err := os.Stat(filePath); err == nil {
			return NewStorageError("Store", key, ErrFileAlreadyExists)
		}
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return NewStorageError("Store", key, err)
	}

	// Write to a temp file first so readers never see a partial upload
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return NewStorageError("Store", key, err)
	}
	if err := os.Rename(tempPath, filePath); err != nil {
		os.Remove(tempPath)
		return NewStorageError("Store", key, err)
	}

	if opts.ContentType != "" || len(opts.Metadata) > 0 {
		sidecar := sidecar{ContentType: opts.ContentType, Metadata: opts.Metadata}
		if err := sidecar.write(filePath + metadataSuffix); err != nil {
			os.Remove(filePath)
			return NewStorageError("Store", key, err)
		}
	}

	return nil
}

// Retrieve implements FileStorage.Retrieve
func (l *LocalFileStorage) Retrieve(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, NewStorageError("Retrieve", key, err)
	}

	data, err := os.ReadFile(l.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewStorageError("Retrieve", key, ErrFileNotFound)
		}
		return nil, NewStorageError("Retrieve", key, err)
	}

	return data, nil
}

// Delete implements FileStorage.Delete
func (l *LocalFileStorage) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return NewStorageError("Delete", key, err)
	}

	filePath := l.filePath(key)
	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return NewStorageError("Delete", key, ErrFileNotFound)
		}
		return NewStorageError("Delete", key, err)
	}
	os.Remove(filePath + metadataSuffix)

	return nil
}

// Stat implements FileStorage.Stat
func (l *LocalFileStorage) Stat(ctx context.Context, key string) (*FileMetadata, error) {
	if err := validateKey(key); err != nil {
		return nil, NewStorageError("Stat", key, err)
	}

	filePath := l.filePath(key)
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewStorageError("Stat", key, ErrFileNotFound)
		}
		return nil, NewStorageError("Stat", key, err)
	}

	return l.describe(key, filePath, info), nil
}

// List implements FileStorage.List
func (l *LocalFileStorage) List(ctx context.Context, prefix string) ([]FileMetadata, error) {
	var files []FileMetadata

	err := filepath.WalkDir(l.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, metadataSuffix) || strings.HasSuffix(path, ".tmp") {
			return nil
		}

		rel, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, *l.describe(key, path, info))
		return nil
	})
	if err != nil {
		return nil, NewStorageError("List", prefix, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Key < files[j].Key })
	return files, nil
}

// Close implements FileStorage.Close
func (l *LocalFileStorage) Close() error {
	return nil
}

func (l *LocalFileStorage) filePath(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(key))
}

func (l *LocalFileStorage) describe(key, filePath string, info os.FileInfo) *FileMetadata {
	meta := &FileMetadata{
		Key:          key,
		Size:         info.Size(),
		ContentType:  contentTypeFor(key),
		LastModified: info.ModTime(),
	}

	if sc, err := readSidecar(filePath + metadataSuffix); err == nil {
		if sc.ContentType != "" {
			meta.ContentType = sc.ContentType
		}
		meta.Metadata = sc.Metadata
	}

	return meta
}

// sidecar is the JSON document stored next to an upload
type sidecar struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (s sidecar) write(path string) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readSidecar(path string) (sidecar, error) {
	var s sidecar
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	err = json.Unmarshal(data, &s)
	return s, err
}

// validateKey rejects empty, absolute and traversing keys
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") || strings.Contains(key, `\`) {
		return ErrInvalidKey
	}
	if strings.HasSuffix(key, metadataSuffix) {
		return ErrInvalidKey
	}
	return nil
}

func contentTypeFor(key string) string {
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
