package howa_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xraph/howa"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := howa.DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*howa.Config)
	}{
		{"empty queue", func(c *howa.Config) { c.QueueName = " " }},
		{"negative ttl", func(c *howa.Config) { c.TaskTTL = -time.Second }},
		{"zero poll timeout", func(c *howa.Config) { c.PollTimeout = 0 }},
		{"no workers", func(c *howa.Config) { c.Workers = 0 }},
		{"negative draft concurrency", func(c *howa.Config) { c.DraftConcurrency = -1 }},
		{"negative rate", func(c *howa.Config) { c.DraftRateLimit = -1 }},
		{"bad log level", func(c *howa.Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := howa.DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "howa.yaml")
	content := `
queue_name: sermons
task_ttl: 30m
workers: 4
draft_concurrency: 2
log_level: debug
redis:
  addr: valkey:6379
  db: 2
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := howa.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.QueueName != "sermons" {
		t.Errorf("QueueName = %q, want %q", cfg.QueueName, "sermons")
	}
	if cfg.TaskTTL != 30*time.Minute {
		t.Errorf("TaskTTL = %v, want 30m", cfg.TaskTTL)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.Redis.Addr != "valkey:6379" || cfg.Redis.DB != 2 {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	// Keys absent from the file keep their defaults.
	if cfg.PollTimeout != 5*time.Second {
		t.Errorf("PollTimeout = %v, want default 5s", cfg.PollTimeout)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := howa.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := howa.ParseLogLevel(in)
		if err != nil {
			t.Fatalf("ParseLogLevel(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
