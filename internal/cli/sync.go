package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdejongh/replaysync/pkg/config"
	"github.com/sdejongh/replaysync/pkg/logging"
	"github.com/sdejongh/replaysync/pkg/metadata"
	"github.com/sdejongh/replaysync/pkg/models"
	"github.com/sdejongh/replaysync/pkg/output"
	"github.com/sdejongh/replaysync/pkg/storage"
	"github.com/sdejongh/replaysync/pkg/sync"
)

// ExitError carries the process exit code of a finished or failed run
type ExitError struct {
	Code int
	Err  error // nil when the run finished and only the status is non-zero
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewSyncCommand creates the sync command
func NewSyncCommand() *cobra.Command {
	flags := &SyncFlags{}

	cmd := &cobra.Command{
		Use:   "sync <directory>",
		Short: "Upload new replays from a directory",
		Long: `Fingerprint every replay in the directory, skip the ones already
recorded remotely and upload the rest to the object store, writing one
metadata record per upload. Only replays of allowed players are uploaded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), args[0], flags, flags.DryRun)
		},
	}

	addSyncFlags(cmd, flags, true)
	return cmd
}

func runSync(ctx context.Context, dir string, flags *SyncFlags, dryRun bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := validateDirectory(dir); err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	cfg, err := loadConfig()
	if err != nil {
		return &ExitError{Code: 2, Err: fmt.Errorf("failed to load config: %w", err)}
	}

	if err := applyFlagsToConfig(cfg, flags); err != nil {
		return &ExitError{Code: 2, Err: fmt.Errorf("invalid configuration: %w", err)}
	}

	if err := validateForRun(cfg, dryRun); err != nil {
		return &ExitError{Code: 2, Err: fmt.Errorf("missing configuration: %w", err)}
	}

	operation, err := createSyncOperation(cfg, dir, dryRun)
	if err != nil {
		return &ExitError{Code: 2, Err: fmt.Errorf("failed to create sync operation: %w", err)}
	}

	logger, err := createLogger(cfg, os.Stderr)
	if err != nil {
		return &ExitError{Code: 2, Err: fmt.Errorf("failed to create logger: %w", err)}
	}
	defer logger.Close()

	scanner, err := storage.NewLocal(dir,
		storage.WithRecursive(operation.Recursive),
		storage.WithExclude(operation.ExcludePatterns),
	)
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	store, err := metadata.OpenSQLite(cfg.Metadata.DBPath)
	if err != nil {
		return &ExitError{Code: 2, Err: fmt.Errorf("failed to open metadata database: %w", err)}
	}
	defer store.Close()

	var objects storage.ObjectStore
	if !dryRun {
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Endpoint:        cfg.Remote.Endpoint,
			Region:          cfg.Remote.Region,
			AccessKeyID:     cfg.Remote.AccessKeyID,
			SecretAccessKey: cfg.Remote.SecretAccessKey,
		})
		if err != nil {
			return &ExitError{Code: 2, Err: err}
		}
		objects = s3
	}

	formatter, writer := newFormatter(cfg, os.Stdout)

	driver := sync.NewDriver(operation, scanner, store, objects,
		sync.WithFormatter(formatter, writer),
		sync.WithLogger(logger),
	)

	report, err := driver.Run(ctx)
	if err != nil {
		return &ExitError{Code: report.Status.ExitCode(), Err: fmt.Errorf("sync failed: %w", err)}
	}

	if report.Status != models.StatusSuccess {
		return &ExitError{Code: report.Status.ExitCode()}
	}
	return nil
}

// newFormatter picks the output formatter. The progress bar is only used on
// a terminal; quiet mode keeps the formatter but discards its output.
func newFormatter(cfg *config.Config, stdout io.Writer) (output.Formatter, io.Writer) {
	name := cfg.Output.Format
	if name == "human" && cfg.Output.Progress && output.IsTerminal(stdout) {
		name = "progress"
	}
	if name == "progress" && !output.IsTerminal(stdout) {
		name = "human"
	}

	formatter, ok := output.New(name)
	if !ok {
		formatter = output.NewHumanFormatter()
	}

	if cfg.Output.Quiet && name != "json" {
		return formatter, io.Discard
	}
	return formatter, stdout
}

// createLogger builds the console logger on stderr, fanned out to a
// rotating file logger when a log file is configured
func createLogger(cfg *config.Config, stderr io.Writer) (logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NewNullLogger(), nil
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	// the formatter already reports per-file progress on stdout
	consoleLevel := max(level, logging.WarnLevel)
	if globalFlags.Verbose {
		consoleLevel = level
	}
	if cfg.Output.Quiet {
		consoleLevel = logging.ErrorLevel
	}
	console := logging.NewConsoleLogger(stderr, consoleLevel)

	if cfg.Logging.File == "" {
		return console, nil
	}

	// Parse log format
	var format logging.Format
	switch cfg.Logging.Format {
	case "json":
		format = logging.FormatJSON
	default:
		format = logging.FormatText
	}

	file, err := logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       cfg.Logging.File,
		Format:     format,
		Level:      level,
		MaxSize:    10 * 1024 * 1024, // 10 MB
		MaxBackups: 5,
	})
	if err != nil {
		return nil, errors.Join(err, console.Close())
	}

	return logging.NewMultiLogger(console, file), nil
}
