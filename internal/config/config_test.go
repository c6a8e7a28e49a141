package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadInvalidYAML(t *testing.T) {
	path := writeTempFile(t, "not: [valid_yaml")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for invalid YAML")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempFile(t, `
email: "user@example.com"
password: "app-password"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected config to load, got error: %v", err)
	}

	if cfg.BatchSize != 25 {
		t.Fatalf("expected default batch_size 25, got %d", cfg.BatchSize)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("expected default max_retries 3, got %d", cfg.MaxRetries)
	}
	if cfg.Interval() != 300*time.Second {
		t.Fatalf("expected default check_interval 300s, got %s", cfg.Interval())
	}
	if cfg.RetryDelayDuration() != 0 {
		t.Fatalf("expected immediate retries by default, got %s", cfg.RetryDelayDuration())
	}
	if cfg.Addr() != "imap.gmail.com:993" {
		t.Fatalf("unexpected default address %q", cfg.Addr())
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected config to validate, got error: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeTempFile(t, `
email: "user@example.com"
password: "app-password"
batch_size: 100
max_retries: 0
check_interval: 0
imap_host: "mail.example.com"
imap_port: 1993
trash_mailbox: "Deleted Items"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected config to load, got error: %v", err)
	}
	if cfg.BatchSize != 100 || cfg.MaxRetries != 0 || cfg.CheckInterval != 0 {
		t.Fatalf("unexpected limits: %+v", cfg)
	}
	if cfg.Addr() != "mail.example.com:1993" {
		t.Fatalf("unexpected address %q", cfg.Addr())
	}
	if cfg.TrashMailbox != "Deleted Items" {
		t.Fatalf("unexpected trash mailbox %q", cfg.TrashMailbox)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected zero retries and interval to validate, got: %v", err)
	}
}

func TestValidateLimits(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "zero batch size", mutate: func(c *Config) { c.BatchSize = 0 }, wantErr: "batch_size"},
		{name: "negative retries", mutate: func(c *Config) { c.MaxRetries = -1 }, wantErr: "max_retries"},
		{name: "negative interval", mutate: func(c *Config) { c.CheckInterval = -5 }, wantErr: "check_interval"},
		{name: "negative retry delay", mutate: func(c *Config) { c.RetryDelay = -1 }, wantErr: "retry_delay"},
		{name: "interval overflows duration", mutate: func(c *Config) { c.CheckInterval = 10_000_000_000 }, wantErr: "check_interval must be at most"},
		{name: "retry delay overflows duration", mutate: func(c *Config) { c.RetryDelay = 10_000_000_000 }, wantErr: "retry_delay must be at most"},
		{name: "bad port", mutate: func(c *Config) { c.IMAPPort = 0 }, wantErr: "imap_port"},
		{name: "missing password", mutate: func(c *Config) { c.Password = "" }, wantErr: "password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Email = "user@example.com"
			cfg.Password = "secret"
			tc.mutate(&cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected %s error, got: %v", tc.wantErr, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(envEmail, "env@example.com")
	t.Setenv(envPassword, "env-secret")
	t.Setenv(envWebhookURL, "https://example.com/hooks")

	cfg := ApplyEnv(Config{Email: "file@example.com", Password: "file-secret"})
	if cfg.Email != "env@example.com" {
		t.Fatalf("expected env email override, got %q", cfg.Email)
	}
	if cfg.Password != "env-secret" {
		t.Fatalf("expected env password override")
	}
	if !cfg.ReportingEnabled() {
		t.Fatalf("expected reporting to be enabled")
	}
}

func TestApplyEnvKeepsFileValuesWhenUnset(t *testing.T) {
	t.Setenv(envEmail, "")
	t.Setenv(envPassword, "")
	t.Setenv(envWebhookURL, "")

	cfg := ApplyEnv(Config{Email: "file@example.com", Password: "file-secret"})
	if cfg.Email != "file@example.com" || cfg.Password != "file-secret" {
		t.Fatalf("expected file values to be kept, got %+v", cfg)
	}
}

func TestSummaryOmitsPassword(t *testing.T) {
	cfg := Default()
	cfg.Email = "user@example.com"
	cfg.Password = "super-secret"

	summary := Summary(cfg)
	if strings.Contains(summary, "super-secret") {
		t.Fatalf("summary leaks the password: %s", summary)
	}
	if !strings.Contains(summary, "(auto-detect)") {
		t.Fatalf("expected auto-detect trash mailbox in summary: %s", summary)
	}
}

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadHugeIntervalRejected(t *testing.T) {
	path := writeTempFile(t, `
email: "user@example.com"
password: "secret"
check_interval: 10000000000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected validation error, interval would be %s", cfg.Interval())
	}

	cfg.CheckInterval = int(MaxSeconds)
	if err := Validate(cfg); err != nil {
		t.Fatalf("largest interval should validate: %v", err)
	}
	if cfg.Interval() <= 0 {
		t.Fatalf("largest interval overflowed: %s", cfg.Interval())
	}
}
