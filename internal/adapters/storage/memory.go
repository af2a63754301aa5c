package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryFileStorage is an in-memory FileStorage used by tests and by the CLI
// when no upload folder should be touched
type MemoryFileStorage struct {
	mu    sync.RWMutex
	files map[string]*memoryFile
}

type memoryFile struct {
	data     []byte
	meta     FileMetadata
	modified time.Time
}

// NewMemoryFileStorage creates an empty MemoryFileStorage
func NewMemoryFileStorage() *MemoryFileStorage {
	return &MemoryFileStorage{files: make(map[string]*memoryFile)}
}

// Store implements FileStorage.Store
func (m *MemoryFileStorage) Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error {
	if err := validateKey(key); err != nil {
		return NewStorageError("Store", key, err)
	}
	if opts == nil {
		opts = &StoreOptions{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.files[key]; exists && !opts.Overwrite {
		return NewStorageError("Store", key, ErrFileAlreadyExists)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = contentTypeFor(key)
	}

	now := time.Now()
	m.files[key] = &memoryFile{
		data: append([]byte(nil), data...),
		meta: FileMetadata{
			Key:          key,
			Size:         int64(len(data)),
			ContentType:  contentType,
			LastModified: now,
			Metadata:     opts.Metadata,
		},
		modified: now,
	}
	return nil
}

// Retrieve implements FileStorage.Retrieve
func (m *MemoryFileStorage) Retrieve(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[key]
	if !ok {
		return nil, NewStorageError("Retrieve", key, ErrFileNotFound)
	}
	return append([]byte(nil), f.data...), nil
}

// Delete implements FileStorage.Delete
func (m *MemoryFileStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[key]; !ok {
		return NewStorageError("Delete", key, ErrFileNotFound)
	}
	delete(m.files, key)
	return nil
}

// Stat implements FileStorage.Stat
func (m *MemoryFileStorage) Stat(ctx context.Context, key string) (*FileMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[key]
	if !ok {
		return nil, NewStorageError("Stat", key, ErrFileNotFound)
	}
	meta := f.meta
	return &meta, nil
}

// List implements FileStorage.List
func (m *MemoryFileStorage) List(ctx context.Context, prefix string) ([]FileMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var files []FileMetadata
	for key, f := range m.files {
		if strings.HasPrefix(key, prefix) {
			files = append(files, f.meta)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Key < files[j].Key })
	return files, nil
}

// Close implements FileStorage.Close
func (m *MemoryFileStorage) Close() error {
	return nil
}

// FileCount returns the number of stored files
func (m *MemoryFileStorage) FileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}
