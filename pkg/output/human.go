package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/replaysync/pkg/models"
)

// HumanFormatter writes one line per file event
type HumanFormatter struct {
	mu         sync.Mutex
	writer     io.Writer
	totalFiles int
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{writer: io.Discard}
}

// Start initializes the formatter
func (f *HumanFormatter) Start(writer io.Writer, totalFiles int, totalBytes int64, maxWorkers int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.totalFiles = totalFiles

	fmt.Fprintf(f.writer, "Scanning %d files (%s) with %d workers\n",
		totalFiles, humanize.IBytes(uint64(totalBytes)), maxWorkers)
	return nil
}

// Progress reports progress during the run
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch update.Type {
	case EventHashStart:
		fmt.Fprintf(f.writer, "[%d/%d] Hashing %s (%s)\n",
			update.CurrentFile, f.totalFiles, update.FilePath, humanize.IBytes(uint64(update.TotalBytes)))

	case EventHashCached:
		fmt.Fprintf(f.writer, "[%d/%d] Cached %s\n",
			update.CurrentFile, f.totalFiles, update.FilePath)

	case EventPassStart:
		fmt.Fprintf(f.writer, "Syncing %d files\n", update.TotalFiles)

	case EventUploadStart:
		fmt.Fprintf(f.writer, "[%d/%d] Uploading %s as %s\n",
			update.CurrentFile, f.totalFiles, update.FilePath, update.Key)

	case EventFileDone:
		mark := "✓"
		if update.Outcome.IsFailure() {
			mark = "✗"
		}
		line := fmt.Sprintf("[%d/%d] %s %s: %s", update.CurrentFile, f.totalFiles, mark, update.FilePath, update.Outcome)
		if update.Error != nil {
			line += fmt.Sprintf(" (%v)", update.Error)
		}
		fmt.Fprintln(f.writer, line)

	case EventFileError:
		fmt.Fprintf(f.writer, "[%d/%d] ✗ %s: %v\n",
			update.CurrentFile, f.totalFiles, update.FilePath, update.Error)
	}

	return nil
}

// Complete displays the run summary
func (f *HumanFormatter) Complete(report *models.SyncReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	writeSummary(f.writer, report)
	return nil
}

// Error reports a fatal error
func (f *HumanFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fmt.Fprintf(f.writer, "Error: %v\n", err)
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

// writeSummary prints the end-of-run summary shared by the text formatters
func writeSummary(w io.Writer, report *models.SyncReport) {
	s := report.Stats
	verb := "Sync"
	if report.DryRun {
		verb = "Dry run"
	}

	fmt.Fprintf(w, "\n%s completed in %s\n\n", verb, report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Fingerprints:\n")
	fmt.Fprintf(w, "    Files scanned:   %d\n", s.FilesScanned)
	fmt.Fprintf(w, "    Hashed:          %d\n", s.FilesHashed)
	fmt.Fprintf(w, "    From cache:      %d\n", s.CacheHits)
	fmt.Fprintf(w, "    Remote known:    %d\n", s.RemoteKnown)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Files:\n")
	fmt.Fprintf(w, "    Already known:   %d\n", s.FilesKnown)
	fmt.Fprintf(w, "    New:             %d\n", s.FilesNew)
	fmt.Fprintf(w, "    Not allowed:     %d\n", s.FilesSkipped)
	fmt.Fprintf(w, "    Uploaded:        %d\n", s.FilesUploaded)
	fmt.Fprintf(w, "    Upload failures: %d\n", s.UploadFailures)
	fmt.Fprintf(w, "    Record failures: %d\n", s.RecordFailures)
	fmt.Fprintf(w, "    Parse failures:  %d\n", s.ParseFailures)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Data uploaded:     %s\n", humanize.IBytes(uint64(s.BytesUploaded)))
	fmt.Fprintf(w, "  Cache entries:     %d\n", s.CacheEntriesSaved)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Status: %s\n", report.Status)

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, err := range report.Errors {
			fmt.Fprintf(w, "  %s [%s]: %s\n", err.FilePath, err.Outcome, err.Error)
		}
	}
}
