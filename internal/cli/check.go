package cli

import (
	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	flags := &SyncFlags{}

	cmd := &cobra.Command{
		Use:   "check <directory>",
		Short: "Show what sync would upload (dry-run)",
		Long: `Fingerprint and classify the replays in the directory and report
which ones would be uploaded, without touching the object store or writing
metadata records. This is equivalent to sync --dry-run and needs no
object store credentials.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), args[0], flags, true)
		},
	}

	addSyncFlags(cmd, flags, false)
	return cmd
}
