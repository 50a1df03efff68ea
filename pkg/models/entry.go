package models

import (
	"time"
)

// FileEntry represents a replay file found in the scanned directory
type FileEntry struct {
	// Identity is the cache key for the file (scan root joined with RelativePath)
	Identity string

	// RelativePath is the path relative to the scan root
	RelativePath string

	// Size in bytes
	Size int64

	// ModTime is the last modification time
	ModTime time.Time

	// Fingerprint is the lowercase hex SHA-256 of the file content
	Fingerprint string

	// Owner is the player name extracted from the replay header (new files only)
	Owner string

	// Key is the object store key the file was (or would be) uploaded under
	Key string

	// Outcome is the terminal state reached by the sync pass
	Outcome Outcome

	// Error holds the failure for upload, record and parse outcomes
	Error error
}

// Outcome is the terminal state of a file in the sync pass
type Outcome string

const (
	// OutcomePending means the sync pass has not reached the file yet
	OutcomePending Outcome = ""
	// OutcomeAlreadyKnown means the fingerprint is already recorded remotely
	OutcomeAlreadyKnown Outcome = "already_known"
	// OutcomeSkippedNotAllowed means the owner is empty or not on the allow-list
	OutcomeSkippedNotAllowed Outcome = "skipped_not_allowed"
	// OutcomeUploaded means the object was stored and the record written
	OutcomeUploaded Outcome = "uploaded"
	// OutcomeWouldUpload is the dry-run counterpart of OutcomeUploaded
	OutcomeWouldUpload Outcome = "would_upload"
	// OutcomeUploadFailed means the object store rejected the upload
	OutcomeUploadFailed Outcome = "upload_failed"
	// OutcomeRecordFailed means the upload succeeded but the record write failed
	OutcomeRecordFailed Outcome = "record_failed"
	// OutcomeParseFailed means the replay header could not be decoded
	OutcomeParseFailed Outcome = "parse_failed"
)

// IsFailure reports whether the outcome counts against the run status
func (o Outcome) IsFailure() bool {
	switch o {
	case OutcomeUploadFailed, OutcomeRecordFailed, OutcomeParseFailed:
		return true
	default:
		return false
	}
}
