package storage

import (
	"context"
	"time"
)

// FileMetadata represents metadata about a stored upload
type FileMetadata struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type"`
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// StoreOptions provides options for storing files
type StoreOptions struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Overwrite   bool              `json:"overwrite,omitempty"`
}

// FileStorage stores uploaded files under slash separated keys
type FileStorage interface {
	// Store saves data under key
	Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error

	// Retrieve gets a file by its storage key
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// Delete removes a file by its storage key
	Delete(ctx context.Context, key string) error

	// Stat returns metadata for a file
	Stat(ctx context.Context, key string) (*FileMetadata, error)

	// List returns the files whose key starts with prefix
	List(ctx context.Context, prefix string) ([]FileMetadata, error)

	// Close cleans up any resources used by the storage implementation
	Close() error
}
