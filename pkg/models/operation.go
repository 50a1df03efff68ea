package models

import (
	"time"
)

// SyncOperation holds the parameters of a single sync run
type SyncOperation struct {
	ID              string
	Directory       string
	CacheFile       string
	Bucket          string
	AllowedOwners   []string
	ExcludePatterns []string
	Recursive       bool
	DryRun          bool
	MaxWorkers      int
	BufferSize      int
	ReadLimit       int64 // bytes per second for fingerprint reads, 0 = unlimited
	CreatedAt       time.Time
}

// Validate checks if the operation configuration is valid
func (op *SyncOperation) Validate() error {
	if op.Directory == "" {
		return &ValidationError{Field: "Directory", Message: "directory is required"}
	}
	if op.CacheFile == "" {
		return &ValidationError{Field: "CacheFile", Message: "cache file path is required"}
	}
	if op.Bucket == "" && !op.DryRun {
		return &ValidationError{Field: "Bucket", Message: "bucket is required"}
	}
	if op.MaxWorkers < 1 {
		return &ValidationError{Field: "MaxWorkers", Message: "max workers must be at least 1"}
	}
	if op.BufferSize < 1024 {
		return &ValidationError{Field: "BufferSize", Message: "buffer size must be at least 1024 bytes"}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
