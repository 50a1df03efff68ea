package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sdejongh/replaysync/pkg/models"
)

func sampleReport() *models.SyncReport {
	report := &models.SyncReport{
		RunID:     "run-1",
		Directory: "/replays",
		StartTime: time.Now().Add(-time.Second),
	}
	a := &models.FileEntry{RelativePath: "a.osr", Size: 2048, Fingerprint: strings.Repeat("a", 64), Owner: "61ph3r", Key: "bm/a.osr"}
	b := &models.FileEntry{RelativePath: "b.osr", Size: 10, Fingerprint: strings.Repeat("b", 64)}
	report.Files = []*models.FileEntry{a, b}
	report.Stats.FilesScanned = 2
	report.Record(a, models.OutcomeUploaded, nil)
	report.Record(b, models.OutcomeUploadFailed, errors.New("bucket unreachable"))
	report.Finish()
	return report
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"human", true},
		{"progress", true},
		{"json", true},
		{"xml", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := New(tt.name)
			if ok != tt.ok {
				t.Fatalf("New(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
			if ok && f.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", f.Name(), tt.name)
			}
		})
	}
}

func TestHumanFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewHumanFormatter()

	f.Start(&buf, 2, 2058, 4)
	f.Progress(ProgressUpdate{Type: EventHashStart, FilePath: "a.osr", TotalBytes: 2048, CurrentFile: 1})
	f.Progress(ProgressUpdate{Type: EventHashCached, FilePath: "b.osr", CurrentFile: 2})
	f.Progress(ProgressUpdate{Type: EventUploadStart, FilePath: "a.osr", Key: "bm/a.osr", CurrentFile: 1})
	f.Progress(ProgressUpdate{Type: EventFileDone, FilePath: "a.osr", Outcome: models.OutcomeUploaded, CurrentFile: 1})
	f.Progress(ProgressUpdate{Type: EventFileDone, FilePath: "b.osr", Outcome: models.OutcomeUploadFailed, Error: errors.New("boom"), CurrentFile: 2})
	f.Complete(sampleReport())

	out := buf.String()
	for _, want := range []string{
		"Scanning 2 files (2.0 KiB) with 4 workers",
		"[1/2] Hashing a.osr (2.0 KiB)",
		"[2/2] Cached b.osr",
		"[1/2] Uploading a.osr as bm/a.osr",
		"[1/2] ✓ a.osr: uploaded",
		"[2/2] ✗ b.osr: upload_failed (boom)",
		"Uploaded:        1",
		"Upload failures: 1",
		"Status: partial",
		"b.osr [upload_failed]: bucket unreachable",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestHumanFormatter_DryRunSummary(t *testing.T) {
	var buf bytes.Buffer
	f := NewHumanFormatter()

	report := sampleReport()
	report.DryRun = true
	f.Complete(report)

	if !strings.Contains(buf.String(), "Dry run completed") {
		t.Errorf("summary should mention dry run:\n%s", buf.String())
	}
}

func TestProgressFormatter_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	f := NewProgressFormatter()

	if err := f.Start(&buf, 2, 100, 2); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	f.Progress(ProgressUpdate{Type: EventHashComplete, FilePath: "a.osr", TotalBytes: 60})
	f.Progress(ProgressUpdate{Type: EventHashCached, FilePath: "b.osr", TotalBytes: 40})
	f.Progress(ProgressUpdate{Type: EventPassStart, TotalFiles: 2})
	f.Progress(ProgressUpdate{Type: EventFileDone, FilePath: "a.osr", Outcome: models.OutcomeUploaded})
	f.Progress(ProgressUpdate{Type: EventFileDone, FilePath: "b.osr", Outcome: models.OutcomeRecordFailed, Error: errors.New("db down")})
	if err := f.Complete(sampleReport()); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Fingerprinting 2 files") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "✗ b.osr: record_failed (db down)") {
		t.Errorf("failures should be printed:\n%s", out)
	}
	if strings.Contains(out, "a.osr: uploaded") {
		t.Errorf("successful files should not get their own line:\n%s", out)
	}
	if strings.Contains(out, "\033[2K") {
		t.Errorf("no escape sequences expected when not a terminal")
	}
	if !strings.Contains(out, "Status: partial") {
		t.Errorf("missing summary:\n%s", out)
	}
}

func TestProgressFormatter_ProgressBeforeStart(t *testing.T) {
	f := NewProgressFormatter()
	if err := f.Progress(ProgressUpdate{Type: EventHashComplete, TotalBytes: 10}); err != nil {
		t.Errorf("Progress() error = %v", err)
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("IsTerminal(buffer) = true, want false")
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter()

	f.Start(&buf, 2, 2058, 4)
	f.Progress(ProgressUpdate{Type: EventHashStart, FilePath: "a.osr"})
	f.Progress(ProgressUpdate{Type: EventFileError, FilePath: "c.osr", Error: errors.New("permission denied")})
	if err := f.Complete(sampleReport()); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	var got JSONReportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}

	if got.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", got.RunID)
	}
	if got.Status != "partial" {
		t.Errorf("Status = %q, want partial", got.Status)
	}
	if got.Stats.FilesUploaded != 1 || got.Stats.UploadFailures != 1 {
		t.Errorf("Stats = %+v", got.Stats)
	}
	if got.Stats.BytesUploaded != 2048 {
		t.Errorf("BytesUploaded = %d, want 2048", got.Stats.BytesUploaded)
	}
	if len(got.Files) != 2 || got.Files[0].Outcome != "uploaded" || got.Files[1].Outcome != "upload_failed" {
		t.Errorf("Files = %+v", got.Files)
	}
	if len(got.Errors) != 1 || got.Errors[0].Path != "b.osr" {
		t.Errorf("Errors = %+v", got.Errors)
	}
	// start + file_error; hash_start is not kept
	if len(got.Events) != 2 || got.Events[1].Type != EventFileError {
		t.Errorf("Events = %+v", got.Events)
	}
}
