package logging

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(&buf, InfoLevel)
	ctx := context.Background()

	logger.Debug(ctx, "hidden", nil)
	logger.WithFields(Fields{"run_id": "abc"}).Info(ctx, "scanning", Fields{"dir": "replays"})
	logger.Error(ctx, "upload failed", errors.New("denied"), nil)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug record should be filtered at info level")
	}
	for _, want := range []string{"scanning", "run_id=abc", "dir=replays", "upload failed", "denied"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("non-terminal writer should not receive colour codes")
	}
}

func TestMultiLogger(t *testing.T) {
	var buf bytes.Buffer
	console := NewConsoleLogger(&buf, DebugLevel)

	logPath := filepath.Join(t.TempDir(), "multi.log")
	file, err := NewFileLogger(FileLoggerConfig{Path: logPath, Format: FormatText, Level: DebugLevel})
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	multi := NewMultiLogger(console, nil, file)
	multi.WithFields(Fields{"k": "v"}).Warn(context.Background(), "fan out", nil)
	if err := multi.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !strings.Contains(buf.String(), "fan out") {
		t.Error("console logger did not receive record")
	}
	lines := readLines(t, logPath)
	if len(lines) != 1 || !strings.Contains(lines[0], "k=v") {
		t.Errorf("file lines = %v", lines)
	}
}
