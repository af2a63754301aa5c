package storage

import (
	"fmt"
	"strings"
)

// StorageType represents the type of storage implementation
type StorageType string

const (
	StorageTypeLocal  StorageType = "local"
	StorageTypeMemory StorageType = "memory"
)

// New creates a FileStorage of the given type. For local storage, location is the upload folder.
func New(storageType StorageType, location string) (FileStorage, error) {
	switch StorageType(strings.ToLower(string(storageType))) {
	case StorageTypeLocal, "":
		if location == "" {
			return nil, fmt.Errorf("local storage requires an upload folder")
		}
		return NewLocalFileStorage(location)
	case StorageTypeMemory:
		return NewMemoryFileStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
