package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	envEmail      = "TRASHREAPER_EMAIL"
	envPassword   = "TRASHREAPER_PASSWORD"
	envWebhookURL = "TRASHREAPER_WEBHOOK_URL"
)

const (
	DefaultBatchSize     = 25
	DefaultMaxRetries    = 3
	DefaultCheckInterval = 300
	DefaultIMAPHost      = "imap.gmail.com"
	DefaultIMAPPort      = 993

	// MaxSeconds is the largest check_interval or retry_delay that still fits
	// in a time.Duration.
	MaxSeconds = int64(math.MaxInt64 / int64(time.Second))
)

// Config holds the settings for one process run. It is read-only once loaded.
type Config struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`

	// BatchSize is the number of messages deleted and expunged per round-trip.
	BatchSize int `yaml:"batch_size"`
	// MaxRetries is the number of extra attempts per batch after the first.
	MaxRetries int `yaml:"max_retries"`
	// CheckInterval is the pause between cycles, in seconds.
	CheckInterval int `yaml:"check_interval"`
	// RetryDelay is the pause between attempts of the same batch, in seconds.
	RetryDelay int `yaml:"retry_delay"`

	IMAPHost           string `yaml:"imap_host"`
	IMAPPort           int    `yaml:"imap_port"`
	TrashMailbox       string `yaml:"trash_mailbox"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	WebhookURL         string `yaml:"webhook_url"`
}

// Default returns a Config with every optional key at its default value.
func Default() Config {
	return Config{
		BatchSize:     DefaultBatchSize,
		MaxRetries:    DefaultMaxRetries,
		CheckInterval: DefaultCheckInterval,
		IMAPHost:      DefaultIMAPHost,
		IMAPPort:      DefaultIMAPPort,
	}
}

// Load reads configuration from a YAML file. Keys missing from the file keep
// their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overrides credentials and the webhook URL from environment variables
// so secrets can stay out of the YAML file.
func ApplyEnv(cfg Config) Config {
	if value := strings.TrimSpace(os.Getenv(envEmail)); value != "" {
		cfg.Email = value
	}
	if value := os.Getenv(envPassword); strings.TrimSpace(value) != "" {
		cfg.Password = value
	}
	if value := strings.TrimSpace(os.Getenv(envWebhookURL)); value != "" {
		cfg.WebhookURL = value
	}
	return cfg
}

// Validate performs validation of the full configuration, credentials included.
func Validate(cfg Config) error {
	missing := []string{}
	if strings.TrimSpace(cfg.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(cfg.Password) == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s (set in config or %s/%s)", strings.Join(missing, ", "), envEmail, envPassword)
	}
	if strings.TrimSpace(cfg.IMAPHost) == "" {
		return errors.New("imap_host must not be empty")
	}
	if cfg.IMAPPort < 1 || cfg.IMAPPort > 65535 {
		return fmt.Errorf("imap_port must be between 1 and 65535, got %d", cfg.IMAPPort)
	}
	return ValidateLimits(cfg)
}

// ValidateLimits checks the numeric settings that drive the deletion loop.
func ValidateLimits(cfg Config) error {
	if cfg.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1, got %d", cfg.BatchSize)
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", cfg.MaxRetries)
	}
	if cfg.CheckInterval < 0 {
		return fmt.Errorf("check_interval must not be negative, got %d", cfg.CheckInterval)
	}
	if int64(cfg.CheckInterval) > MaxSeconds {
		return fmt.Errorf("check_interval must be at most %d seconds, got %d", MaxSeconds, cfg.CheckInterval)
	}
	if cfg.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must not be negative, got %d", cfg.RetryDelay)
	}
	if int64(cfg.RetryDelay) > MaxSeconds {
		return fmt.Errorf("retry_delay must be at most %d seconds, got %d", MaxSeconds, cfg.RetryDelay)
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.IMAPHost, c.IMAPPort)
}

func (c Config) Interval() time.Duration {
	return time.Duration(c.CheckInterval) * time.Second
}

func (c Config) RetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay) * time.Second
}

// ReportingEnabled returns true when a webhook URL is configured.
func (c Config) ReportingEnabled() bool {
	return strings.TrimSpace(c.WebhookURL) != ""
}

// Summary returns a concise config summary without secrets.
func Summary(cfg Config) string {
	reportingStatus := "disabled"
	if cfg.ReportingEnabled() {
		reportingStatus = "enabled"
	}
	return fmt.Sprintf(
		"Config summary\n"+
			"- account: %s\n"+
			"- server: %s\n"+
			"- trash mailbox: %s\n"+
			"- batch size: %d\n"+
			"- max retries: %d\n"+
			"- check interval: %s\n"+
			"- reporting webhook: %s",
		cfg.Email,
		cfg.Addr(),
		defaultIfEmpty(cfg.TrashMailbox, "(auto-detect)"),
		cfg.BatchSize,
		cfg.MaxRetries,
		cfg.Interval(),
		reportingStatus,
	)
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
