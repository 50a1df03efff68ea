package output

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/replaysync/pkg/models"
)

// JSONFormatter writes a single JSON document when the run completes
type JSONFormatter struct {
	mu     sync.Mutex
	writer io.Writer
	events []JSONEvent
}

// JSONEvent represents a single event in the JSON output
type JSONEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
}

// JSONStartData represents the data for a start event
type JSONStartData struct {
	TotalFiles int   `json:"total_files"`
	TotalBytes int64 `json:"total_bytes"`
	MaxWorkers int   `json:"max_workers"`
}

// JSONReportData represents the final report
type JSONReportData struct {
	RunID      string          `json:"run_id"`
	Directory  string          `json:"directory"`
	DryRun     bool            `json:"dry_run,omitempty"`
	Status     string          `json:"status"`
	Duration   string          `json:"duration"`
	DurationMs int64           `json:"duration_ms"`
	Stats      JSONStatsData   `json:"stats"`
	Files      []JSONFileData  `json:"files"`
	Errors     []JSONErrorData `json:"errors,omitempty"`
	Events     []JSONEvent     `json:"events,omitempty"`
}

// JSONStatsData represents statistics in JSON format
type JSONStatsData struct {
	FilesScanned      int    `json:"files_scanned"`
	FilesHashed       int    `json:"files_hashed"`
	CacheHits         int    `json:"cache_hits"`
	RemoteKnown       int    `json:"remote_known"`
	FilesKnown        int    `json:"files_known"`
	FilesNew          int    `json:"files_new"`
	FilesSkipped      int    `json:"files_skipped"`
	FilesUploaded     int    `json:"files_uploaded"`
	UploadFailures    int    `json:"upload_failures"`
	RecordFailures    int    `json:"record_failures"`
	ParseFailures     int    `json:"parse_failures"`
	CacheEntriesSaved int    `json:"cache_entries_saved"`
	BytesUploaded     int64  `json:"bytes_uploaded"`
	BytesUploadedStr  string `json:"bytes_uploaded_human"`
}

// JSONFileData represents one file and its outcome
type JSONFileData struct {
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Owner       string `json:"owner,omitempty"`
	Key         string `json:"key,omitempty"`
	Outcome     string `json:"outcome"`
}

// JSONErrorData represents an error entry
type JSONErrorData struct {
	Path    string `json:"path"`
	Outcome string `json:"outcome"`
	Error   string `json:"error"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{
		events: make([]JSONEvent, 0),
	}
}

// Start initializes the formatter
func (f *JSONFormatter) Start(writer io.Writer, totalFiles int, totalBytes int64, maxWorkers int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer

	f.events = append(f.events, JSONEvent{
		Timestamp: time.Now(),
		Type:      "start",
		Data: JSONStartData{
			TotalFiles: totalFiles,
			TotalBytes: totalBytes,
			MaxWorkers: maxWorkers,
		},
	})
	return nil
}

// Progress keeps failure events for the final document; the rest is
// already covered by the per-file outcomes
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	if update.Type != EventFileError {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	data := map[string]string{"path": update.FilePath}
	if update.Error != nil {
		data["error"] = update.Error.Error()
	}
	f.events = append(f.events, JSONEvent{Timestamp: time.Now(), Type: update.Type, Data: data})
	return nil
}

// Complete writes the report as indented JSON
func (f *JSONFormatter) Complete(report *models.SyncReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		f.writer = io.Discard
	}

	s := report.Stats
	data := JSONReportData{
		RunID:      report.RunID,
		Directory:  report.Directory,
		DryRun:     report.DryRun,
		Status:     string(report.Status),
		Duration:   report.Duration.Round(time.Millisecond).String(),
		DurationMs: report.Duration.Milliseconds(),
		Stats: JSONStatsData{
			FilesScanned:      s.FilesScanned,
			FilesHashed:       s.FilesHashed,
			CacheHits:         s.CacheHits,
			RemoteKnown:       s.RemoteKnown,
			FilesKnown:        s.FilesKnown,
			FilesNew:          s.FilesNew,
			FilesSkipped:      s.FilesSkipped,
			FilesUploaded:     s.FilesUploaded,
			UploadFailures:    s.UploadFailures,
			RecordFailures:    s.RecordFailures,
			ParseFailures:     s.ParseFailures,
			CacheEntriesSaved: s.CacheEntriesSaved,
			BytesUploaded:     s.BytesUploaded,
			BytesUploadedStr:  humanize.IBytes(uint64(s.BytesUploaded)),
		},
		Files:  make([]JSONFileData, 0, len(report.Files)),
		Events: f.events,
	}

	for _, file := range report.Files {
		data.Files = append(data.Files, JSONFileData{
			Path:        file.RelativePath,
			Size:        file.Size,
			Fingerprint: file.Fingerprint,
			Owner:       file.Owner,
			Key:         file.Key,
			Outcome:     string(file.Outcome),
		})
	}
	for _, e := range report.Errors {
		data.Errors = append(data.Errors, JSONErrorData{
			Path:    e.FilePath,
			Outcome: string(e.Outcome),
			Error:   e.Error,
		})
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Error records a fatal error; it appears in the final document
func (f *JSONFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, JSONEvent{
		Timestamp: time.Now(),
		Type:      "error",
		Data: map[string]string{
			"error": err.Error(),
		},
	})
	return nil
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}
