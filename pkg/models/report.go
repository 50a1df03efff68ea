package models

import (
	"time"
)

// SyncReport represents the results of a sync run
type SyncReport struct {
	// Run details
	RunID     string
	Directory string
	DryRun    bool

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Statistics
	Stats Statistics

	// Files in listing order with their outcomes
	Files []*FileEntry

	// Errors encountered
	Errors []SyncError

	// Overall status
	Status SyncStatus
}

// Statistics holds sync run metrics
type Statistics struct {
	// Scan and fingerprint phase
	FilesScanned int
	FilesHashed  int // Fingerprints computed this run
	CacheHits    int // Fingerprints reused from the hash cache
	RemoteKnown  int // Size of the remote fingerprint snapshot

	// Classification and sync phase
	FilesKnown        int
	FilesNew          int
	FilesSkipped      int
	FilesUploaded     int
	UploadFailures    int
	RecordFailures    int
	ParseFailures     int
	CacheEntriesSaved int

	// Data transfer
	BytesUploaded int64
}

// SyncStatus represents the overall result
type SyncStatus string

const (
	// StatusSuccess indicates all files reached a non-failure outcome
	StatusSuccess SyncStatus = "success"
	// StatusPartial indicates some uploads or record writes failed
	StatusPartial SyncStatus = "partial"
	// StatusFailed indicates the run aborted
	StatusFailed SyncStatus = "failed"
	// StatusCancelled indicates the run was interrupted
	StatusCancelled SyncStatus = "cancelled"
)

// SyncError represents a per-file error during a run
type SyncError struct {
	FilePath  string
	Outcome   Outcome
	Error     string
	Timestamp time.Time
}

// Record stores the outcome of a file and updates the counters
func (r *SyncReport) Record(entry *FileEntry, outcome Outcome, err error) {
	entry.Outcome = outcome
	entry.Error = err

	switch outcome {
	case OutcomeAlreadyKnown:
		r.Stats.FilesKnown++
	case OutcomeSkippedNotAllowed:
		r.Stats.FilesSkipped++
	case OutcomeUploaded, OutcomeWouldUpload:
		r.Stats.FilesUploaded++
		r.Stats.BytesUploaded += entry.Size
	case OutcomeUploadFailed:
		r.Stats.UploadFailures++
	case OutcomeRecordFailed:
		// the object was stored even though the record was not
		r.Stats.RecordFailures++
		r.Stats.BytesUploaded += entry.Size
	case OutcomeParseFailed:
		r.Stats.ParseFailures++
	}

	if err != nil {
		r.Errors = append(r.Errors, SyncError{
			FilePath:  entry.RelativePath,
			Outcome:   outcome,
			Error:     err.Error(),
			Timestamp: time.Now(),
		})
	}
}

// Finish stamps the end time and derives the status from the per-file outcomes
// unless a status was already set by a fatal error
func (r *SyncReport) Finish() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)

	if r.Status != "" {
		return
	}
	r.Status = StatusSuccess
	for _, f := range r.Files {
		if f.Outcome.IsFailure() {
			r.Status = StatusPartial
			return
		}
	}
}

// ExitCode returns the appropriate exit code for the sync status
func (s SyncStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}
