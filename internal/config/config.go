// Package config defines service configuration and its layered loader.
package config

import (
	"fmt"
	"net/url"
	"runtime"
	"strings"

	"github.com/okian/toolscout/internal/domain/types"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath points at the SQLite store. Empty keeps everything in memory.
	DBPath string `koanf:"db_path"`

	// QueueSize bounds the in-memory click ingestion queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of click ingestion workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many recent click ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// SubscribeURL receives quiz submissions. Empty disables the hook.
	SubscribeURL string `koanf:"subscribe_url"`

	// SubscribeTimeoutMS bounds each best-effort subscription call.
	SubscribeTimeoutMS int `koanf:"subscribe_timeout_ms"`

	// ReportSchedule is a five-field cron spec for dashboard snapshots.
	// Empty disables them.
	ReportSchedule string `koanf:"report_schedule"`

	// ReportPath receives the Markdown snapshot.
	ReportPath string `koanf:"report_path"`

	// ReportRange selects the snapshot range: all, 7d, 30d or month.
	ReportRange string `koanf:"report_range"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		DBPath:             "",
		QueueSize:          10_000,
		WorkerCount:        runtime.NumCPU(),
		DedupeSize:         100_000,
		SubscribeURL:       "",
		SubscribeTimeoutMS: 3000,
		ReportSchedule:     "",
		ReportPath:         "",
		ReportRange:        "7d",
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.SubscribeTimeoutMS <= 0:
		return fmt.Errorf("%w: subscribe_timeout_ms must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	if _, err := types.ParseRange(c.ReportRange); err != nil {
		return fmt.Errorf("%w: report_range: %w", ErrInvalidConfig, err)
	}
	if c.ReportSchedule != "" && strings.TrimSpace(c.ReportPath) == "" {
		return fmt.Errorf("%w: report_path is required with report_schedule", ErrInvalidConfig)
	}
	if c.SubscribeURL != "" {
		u, err := url.Parse(c.SubscribeURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: subscribe_url must be an absolute http(s) url", ErrInvalidConfig)
		}
	}
	return nil
}
