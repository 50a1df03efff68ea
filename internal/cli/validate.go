package cli

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/sdejongh/replaysync/internal/platform"
	"github.com/sdejongh/replaysync/pkg/config"
	"github.com/sdejongh/replaysync/pkg/models"
)

// validateDirectory checks that the replay directory exists
func validateDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("replay directory does not exist: %s", dir)
	}
	if err != nil {
		return fmt.Errorf("failed to access replay directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("replay path is not a directory: %s", dir)
	}
	return nil
}

// loadConfig loads .env, then the configuration file or the defaults, then
// the environment overrides
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(globalFlags.EnvFile); err != nil {
		return nil, err
	}

	var cfg *config.Config
	var err error
	if globalFlags.ConfigFile != "" {
		cfg, err = config.LoadFromFile(globalFlags.ConfigFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cfg *config.Config, flags *SyncFlags) error {
	if flags.CacheFile != "" {
		cfg.Sync.CacheFile = flags.CacheFile
	}

	if len(flags.Allow) > 0 {
		cfg.Sync.AllowedOwners = flags.Allow
	}

	if flags.Parallel > 0 {
		cfg.Performance.MaxWorkers = flags.Parallel
	}

	if flags.ReadLimit != "" {
		limit, err := humanize.ParseBytes(flags.ReadLimit)
		if err != nil {
			return fmt.Errorf("invalid read limit %q: %w", flags.ReadLimit, err)
		}
		cfg.Performance.ReadLimit = int64(limit)
	}

	if len(flags.Exclude) > 0 {
		cfg.Sync.Exclude = flags.Exclude
	}

	if flags.Recursive {
		cfg.Sync.Recursive = true
	}

	if flags.Output != "" {
		cfg.Output.Format = flags.Output
	}

	if flags.LogFile != "" {
		cfg.Logging.File = flags.LogFile
	}
	if flags.LogFormat != "" {
		cfg.Logging.Format = flags.LogFormat
	}
	if flags.LogLevel != "" {
		cfg.Logging.Level = flags.LogLevel
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}

	if globalFlags.Verbose && flags.LogLevel == "" {
		cfg.Logging.Level = "debug"
	}

	return cfg.Validate()
}

// validateForRun is the configuration check done before any work: a dry
// run only reads the metadata database, a real run needs everything
func validateForRun(cfg *config.Config, dryRun bool) error {
	if !dryRun {
		return cfg.ValidateRemote()
	}
	if cfg.Metadata.DBPath == "" {
		return &models.ValidationError{Field: "metadata.db_path", Message: "is required"}
	}
	return nil
}

// createSyncOperation creates a sync operation from configuration
func createSyncOperation(cfg *config.Config, dir string, dryRun bool) (*models.SyncOperation, error) {
	cacheFile, err := platform.ExpandHome(cfg.Sync.CacheFile)
	if err != nil {
		return nil, err
	}

	workers := cfg.Performance.MaxWorkers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	operation := &models.SyncOperation{
		ID:              uuid.New().String(),
		Directory:       dir,
		CacheFile:       cacheFile,
		Bucket:          cfg.Remote.Bucket,
		AllowedOwners:   cfg.Sync.AllowedOwners,
		ExcludePatterns: cfg.Sync.Exclude,
		Recursive:       cfg.Sync.Recursive,
		DryRun:          dryRun,
		MaxWorkers:      workers,
		BufferSize:      cfg.Performance.BufferSize,
		ReadLimit:       cfg.Performance.ReadLimit,
		CreatedAt:       time.Now(),
	}

	if err := operation.Validate(); err != nil {
		return nil, err
	}

	return operation, nil
}
