package cli

import (
	"context"
	"fmt"

	"github.com/aaronromeo/trashreaper/internal/imap"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the trash folder and its message count without deleting anything",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		withFolders, err := cmd.Flags().GetBool("folders")
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		logger := newLogger(cmd, cmd.ErrOrStderr())
		status, err := imap.Inspect(ctx, imap.NewDialer(cfg, logger), withFolders)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if status.Messages == 0 {
			fmt.Fprintf(out, "Trash %q is empty\n", status.Mailbox)
		} else {
			fmt.Fprintf(out, "Trash %q holds %d messages\n", status.Mailbox, status.Messages)
		}
		if withFolders {
			fmt.Fprintln(out, "Folders:")
			for _, folder := range status.Folders {
				fmt.Fprintf(out, "- %s\n", folder)
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().String("config", "", "Path to YAML config file (or set TRASHREAPER_CONFIG)")
	statusCmd.Flags().Bool("folders", false, "Also list every folder of the account")
	statusCmd.Flags().Bool("verbose", false, "Enable verbose logging")
}
