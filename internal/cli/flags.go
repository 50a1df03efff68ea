package cli

import (
	"github.com/spf13/cobra"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	EnvFile    string
	Verbose    bool
	Quiet      bool
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file (default is $HOME/.config/replaysync/config.yaml)",
	)
	cmd.PersistentFlags().StringVar(
		&globalFlags.EnvFile,
		"env-file",
		".env",
		"dotenv file with S3_* and REPLAY_DB_PATH variables (ignored if missing)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Verbose,
		"verbose",
		"v",
		false,
		"verbose output",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Quiet,
		"quiet",
		"q",
		false,
		"suppress non-error output",
	)
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() *GlobalFlags {
	return &globalFlags
}

// SyncFlags holds the flags shared by the sync and check commands
type SyncFlags struct {
	CacheFile string
	Allow     []string
	Parallel  int
	ReadLimit string
	DryRun    bool
	Exclude   []string
	Recursive bool
	Output    string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

// addSyncFlags registers the flags of f on cmd. withDryRun is false for
// commands that never write.
func addSyncFlags(cmd *cobra.Command, f *SyncFlags, withDryRun bool) {
	cmd.Flags().StringVar(&f.CacheFile, "cache", "", "hash cache file (default from config: .cache)")
	cmd.Flags().StringSliceVarP(&f.Allow, "allow", "a", nil, "player names whose replays are uploaded (repeatable)")
	cmd.Flags().IntVarP(&f.Parallel, "parallel", "p", 0, "number of fingerprint workers (default: one per CPU)")
	cmd.Flags().StringVar(&f.ReadLimit, "read-limit", "", "limit fingerprint reads (e.g. \"50M\", \"1GiB\") per second")
	cmd.Flags().StringSliceVar(&f.Exclude, "exclude", nil, "glob patterns to exclude")
	cmd.Flags().BoolVarP(&f.Recursive, "recursive", "r", false, "descend into subdirectories")
	cmd.Flags().StringVarP(&f.Output, "output", "o", "", "output format: human, progress, json")
	if withDryRun {
		cmd.Flags().BoolVar(&f.DryRun, "dry-run", false, "classify only, don't upload or write records")
	}

	// Logging flags
	cmd.Flags().StringVar(&f.LogFile, "log-file", "", "also write logs to file")
	cmd.Flags().StringVar(&f.LogFormat, "log-format", "", "log file format: text, json")
	cmd.Flags().StringVar(&f.LogLevel, "log-level", "", "log level: debug, info, warn, error")
}
