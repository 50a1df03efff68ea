package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"github.com/sdejongh/replaysync/pkg/models"
)

const defaultBarWidth = 100

// ProgressFormatter draws a byte progress bar over fingerprinting and a file
// counter over the sync pass. Only failures are printed per file.
type ProgressFormatter struct {
	mu       sync.Mutex
	writer   io.Writer
	terminal bool
	width    int
	bar      *pb.ProgressBar
}

// NewProgressFormatter creates a new progress bar formatter
func NewProgressFormatter() *ProgressFormatter {
	return &ProgressFormatter{}
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// Start initializes the formatter and starts the fingerprint bar
func (f *ProgressFormatter) Start(writer io.Writer, totalFiles int, totalBytes int64, maxWorkers int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.terminal = IsTerminal(writer)

	f.width = defaultBarWidth
	if file, ok := writer.(*os.File); ok && f.terminal {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			f.width = width
		}
	}

	fmt.Fprintf(f.writer, "Fingerprinting %d files (%d workers)\n", totalFiles, maxWorkers)
	f.bar = f.newBar(totalBytes, pb.Full).Set(pb.Bytes, true)
	f.bar.Start()
	return nil
}

func (f *ProgressFormatter) newBar(total int64, tmpl pb.ProgressBarTemplate) *pb.ProgressBar {
	bar := pb.New64(total).SetTemplate(tmpl).SetWriter(f.writer).SetWidth(f.width)
	// no refresh goroutine when nobody watches; the bar is drawn on Finish
	bar.Set(pb.Static, !f.terminal)
	return bar
}

// Progress reports progress during the run
func (f *ProgressFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar == nil {
		return nil
	}

	switch update.Type {
	case EventHashComplete, EventHashCached:
		f.bar.Add64(update.TotalBytes)

	case EventPassStart:
		f.finishBar()
		f.bar = f.newBar(int64(update.TotalFiles), pb.Simple)
		f.bar.Start()

	case EventFileDone:
		f.bar.Increment()
		if update.Outcome.IsFailure() {
			f.printAbove(fmt.Sprintf("✗ %s: %s (%v)", update.FilePath, update.Outcome, update.Error))
		}

	case EventFileError:
		f.printAbove(fmt.Sprintf("✗ %s: %v", update.FilePath, update.Error))
	}

	return nil
}

// finishBar draws the final state of the current bar and drops it
func (f *ProgressFormatter) finishBar() {
	if f.bar == nil {
		return
	}
	if !f.terminal {
		f.bar.Write()
	}
	f.bar.Finish()
	f.bar = nil
}

// printAbove writes a line without leaving a torn bar behind it
func (f *ProgressFormatter) printAbove(line string) {
	if f.terminal {
		fmt.Fprint(f.writer, "\r\033[2K")
	}
	fmt.Fprintln(f.writer, line)
}

// Complete stops the current bar and displays the run summary
func (f *ProgressFormatter) Complete(report *models.SyncReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.finishBar()
	if f.writer == nil {
		f.writer = io.Discard
	}

	writeSummary(f.writer, report)
	return nil
}

// Error reports a fatal error
func (f *ProgressFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.finishBar()
	if f.writer != nil {
		fmt.Fprintf(f.writer, "\n❌ Error: %v\n", err)
	}
	return nil
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}
