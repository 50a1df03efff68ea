package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// ConsoleLogger writes colourised records to a terminal through slog
type ConsoleLogger struct {
	logger *slog.Logger
}

// NewConsoleLogger logs to w at level and above. Colour is enabled only when
// w is a terminal.
func NewConsoleLogger(w io.Writer, level Level) *ConsoleLogger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}

	handler := tint.NewHandler(w, &tint.Options{
		Level:      toSlogLevel(level),
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	})
	return &ConsoleLogger{logger: slog.New(handler)}
}

// Debug logs a debug message
func (l *ConsoleLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, slog.LevelDebug, msg, nil, fields)
}

// Info logs an info message
func (l *ConsoleLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, slog.LevelInfo, msg, nil, fields)
}

// Warn logs a warning message
func (l *ConsoleLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, slog.LevelWarn, msg, nil, fields)
}

// Error logs an error message
func (l *ConsoleLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.log(ctx, slog.LevelError, msg, err, fields)
}

// WithFields returns a logger that always adds fields
func (l *ConsoleLogger) WithFields(fields Fields) Logger {
	return &ConsoleLogger{logger: l.logger.With(attrs(fields)...)}
}

// Close is a no-op; the writer belongs to the caller
func (l *ConsoleLogger) Close() error {
	return nil
}

func (l *ConsoleLogger) log(ctx context.Context, level slog.Level, msg string, err error, fields Fields) {
	if ctx == nil {
		ctx = context.Background()
	}
	args := attrs(fields)
	if err != nil {
		args = append(args, tint.Err(err))
	}
	l.logger.Log(ctx, level, msg, args...)
}

func attrs(fields Fields) []any {
	args := make([]any, 0, len(fields))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return args
}

func toSlogLevel(level Level) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
