package output

import (
	"io"

	"github.com/sdejongh/replaysync/pkg/models"
)

// Progress event types
const (
	EventHashStart    = "hash_start"
	EventHashComplete = "hash_complete"
	EventHashCached   = "hash_cached"
	EventPassStart    = "pass_start" // fingerprinting done, sync pass begins
	EventUploadStart  = "upload_start"
	EventFileDone     = "file_done"
	EventFileError    = "file_error"
)

// ProgressUpdate represents a progress notification during a run
type ProgressUpdate struct {
	Type        string
	FilePath    string
	Key         string // object key, upload events only
	Outcome     models.Outcome
	TotalBytes  int64
	CurrentFile int // 1-based position in listing order
	TotalFiles  int
	Error       error
}

// Formatter defines the interface for output formatting.
// Progress may be called from several fingerprint workers at once.
type Formatter interface {
	// Start initializes the formatter for a new run
	// maxWorkers indicates the number of parallel workers for display purposes
	Start(writer io.Writer, totalFiles int, totalBytes int64, maxWorkers int) error

	// Progress reports progress during the run
	Progress(update ProgressUpdate) error

	// Complete finalizes output and displays summary
	Complete(report *models.SyncReport) error

	// Error reports a fatal error
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

// New returns the formatter registered under name
func New(name string) (Formatter, bool) {
	switch name {
	case "human":
		return NewHumanFormatter(), true
	case "progress":
		return NewProgressFormatter(), true
	case "json":
		return NewJSONFormatter(), true
	default:
		return nil, false
	}
}
