package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:          "trashreaper",
	Short:        "trashreaper permanently empties a mailbox trash folder on a schedule",
	Version:      version,
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
}
