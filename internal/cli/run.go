package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aaronromeo/trashreaper/internal/announcer"
	"github.com/aaronromeo/trashreaper/internal/config"
	"github.com/aaronromeo/trashreaper/internal/imap"
	"github.com/aaronromeo/trashreaper/internal/reaper"
	"github.com/aaronromeo/trashreaper/internal/telemetry"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Empty the trash folder now and again every check_interval seconds",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		once, err := cmd.Flags().GetBool("once")
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), config.Summary(cfg))

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		shutdown, err := telemetry.SetupOTelSDK(ctx, version)
		if err != nil {
			return err
		}
		logger := newLogger(cmd, cmd.OutOrStdout())
		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("telemetry shutdown failed", slog.Any("error", err))
			}
		}()

		r, err := reaper.New(
			imap.NewDialer(cfg, logger),
			cfg,
			reaper.WithLogger(logger),
			reaper.WithAnnouncer(announcer.New(
				announcer.WithWebhookURL(cfg.WebhookURL),
				announcer.WithAccount(cfg.Email),
			)),
		)
		if err != nil {
			return err
		}

		if once {
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		}
		return r.RunForever(ctx)
	},
}

func init() {
	runCmd.Flags().String("config", "", "Path to YAML config file (or set TRASHREAPER_CONFIG)")
	runCmd.Flags().Bool("once", false, "Run a single cleanup cycle and exit")
	runCmd.Flags().Bool("verbose", false, "Enable verbose logging")
}
