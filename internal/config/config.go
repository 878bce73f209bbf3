// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Store backend identifiers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the event store backend: memory or sqlite.
	Store string `koanf:"store"`

	// SQLitePath is the database file used when Store is sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// RolloverHour is the hour-of-day (0-23) at which a day begins.
	RolloverHour int `koanf:"rollover_hour"`

	// DefaultLimit is the leaderboard size when the caller omits one.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps GET /leaderboard?limit.
	MaxLimit int `koanf:"max_limit"`

	// Segments is the number of buckets in a progress bar.
	Segments int `koanf:"segments"`

	// DefaultGoal is the progress goal used when the caller omits one.
	DefaultGoal float64 `koanf:"default_goal"`

	// QueueSize bounds the in-memory ingestion queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of append workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// DigestEnabled turns the scheduled leaderboard digest on.
	DigestEnabled bool `koanf:"digest_enabled"`

	// DigestTimes lists the clock times (HH:MM, 24h) a digest runs at.
	DigestTimes []string `koanf:"digest_times"`

	// DigestGuildID scopes the digest to one community. Empty means
	// all events.
	DigestGuildID string `koanf:"digest_guild_id"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		Addr:          ":9080",
		Store:         StoreMemory,
		SQLitePath:    "tally.db",
		RolloverHour:  4,
		DefaultLimit:  10,
		MaxLimit:      100,
		Segments:      10,
		DefaultGoal:   100,
		QueueSize:     100_000,
		WorkerCount:   runtime.NumCPU() * 2,
		DedupeSize:    500_000,
		DigestEnabled: false,
		DigestTimes:   []string{"13:00", "01:00"},
	}
}
