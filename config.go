package howa

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for the task engine, its store, and its
// worker loops.
type Config struct {
	// QueueName is the Redis list that carries task ID envelopes.
	QueueName string `yaml:"queue_name"`

	// TaskTTL is the retention window of a task record. Every write
	// refreshes it. Zero disables expiry.
	TaskTTL time.Duration `yaml:"task_ttl"`

	// PollTimeout bounds each blocking pop so worker loops can observe
	// shutdown even when the queue is idle.
	PollTimeout time.Duration `yaml:"poll_timeout"`

	// Workers is the number of worker loops started by the engine.
	Workers int `yaml:"workers"`

	// DraftConcurrency caps the number of concurrent drafting calls within
	// one task. Zero means one goroutine per material item.
	DraftConcurrency int `yaml:"draft_concurrency"`

	// DraftRateLimit is the sustained drafting calls per second across all
	// tasks of this process. Zero disables rate limiting.
	DraftRateLimit float64 `yaml:"draft_rate_limit"`

	// TaskTimeout is the maximum time a single pipeline run may take.
	// Zero leaves timeouts to the collaborators.
	TaskTimeout time.Duration `yaml:"task_timeout"`

	// ShutdownTimeout is the maximum time to wait for in-flight tasks
	// during graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// ErrorBackoff is how long a worker loop waits after its first store error
	// before popping again.
	ErrorBackoff time.Duration `yaml:"error_backoff"`

	// ErrorBackoffMax caps the pause as consecutive store errors double it.
	ErrorBackoffMax time.Duration `yaml:"error_backoff_max"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// MetricsAddr is the listen address of the worker's Prometheus
	// endpoint. Empty disables it.
	MetricsAddr string `yaml:"metrics_addr"`

	// Redis holds connection settings used by the command-line tool.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis / Valkey connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		QueueName:       "howa:queue",
		TaskTTL:         time.Hour,
		PollTimeout:     5 * time.Second,
		Workers:         1,
		ShutdownTimeout: 30 * time.Second,
		ErrorBackoff:    time.Second,
		ErrorBackoffMax: 30 * time.Second,
		LogLevel:        "info",
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.QueueName) == "" {
		errs = append(errs, errors.New("queue_name must not be empty"))
	}
	if c.TaskTTL < 0 {
		errs = append(errs, errors.New("task_ttl must not be negative"))
	}
	if c.PollTimeout <= 0 {
		errs = append(errs, errors.New("poll_timeout must be positive"))
	}
	if c.Workers < 1 {
		errs = append(errs, errors.New("workers must be at least 1"))
	}
	if c.DraftConcurrency < 0 {
		errs = append(errs, errors.New("draft_concurrency must not be negative"))
	}
	if c.DraftRateLimit < 0 {
		errs = append(errs, errors.New("draft_rate_limit must not be negative"))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("howa: invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// LoadConfig reads a YAML file on top of DefaultConfig and validates the
// result. Keys absent from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("howa: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("howa: parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ParseLogLevel maps a config log level onto slog.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q", level)
	}
}
