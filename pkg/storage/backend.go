package storage

import (
	"context"
	"time"
)

// FileInfo represents a regular file found by a scan
type FileInfo struct {
	Identity     string // scan root as given joined with RelativePath
	Path         string // absolute path used to open the file
	RelativePath string
	Size         int64
	ModTime      time.Time
}

// Scanner lists and reads the files of a local directory
type Scanner interface {
	// List returns the regular files of the directory in listing order
	List(ctx context.Context) ([]FileInfo, error)

	// ReadFile returns the full content of a listed file
	ReadFile(ctx context.Context, relativePath string) ([]byte, error)
}

// ObjectStore stores opaque objects under a key in a bucket
type ObjectStore interface {
	// Put stores body under key, replacing any existing object
	Put(ctx context.Context, bucket, key string, body []byte) error
}
