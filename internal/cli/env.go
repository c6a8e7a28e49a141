package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aaronromeo/trashreaper/internal/config"
	"github.com/aaronromeo/trashreaper/internal/telemetry"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const configEnvVar = "TRASHREAPER_CONFIG"
const defaultConfigFile = "config.yml"
const defaultEnvFile = ".env"

func resolveConfigPath(cmd *cobra.Command) (string, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(cfgPath) == "" {
		cfgPath = os.Getenv(configEnvVar)
	}
	if strings.TrimSpace(cfgPath) == "" {
		cfgPath = defaultConfigFile
	}
	return cfgPath, nil
}

func loadEnvFile() error {
	if _, err := os.Stat(defaultEnvFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(defaultEnvFile)
}

// loadConfig resolves, loads and validates the configuration for a command.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgPath, err := resolveConfigPath(cmd)
	if err != nil {
		return config.Config{}, err
	}

	if err := loadEnvFile(); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg = config.ApplyEnv(cfg)

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
		level = slog.LevelDebug
	}
	return slog.New(telemetry.LogHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}
