package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the replaysync command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "replaysync",
		Short: "Upload osu! replays to an S3-compatible store",
		Long: `replaysync uploads a directory of osu! replays (.osr) to an
S3-compatible object store and records each upload in a metadata database.
Files are identified by the SHA-256 of their content: replays whose
fingerprint is already recorded are never uploaded twice, and fingerprints
of unchanged local files are kept in a hash cache between runs.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewSyncCommand())
	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
