package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tallysvc/tally/internal/domain/progress"
)

// Hour-of-day bounds for rollover validation.
const (
	minRolloverHour = 0
	maxRolloverHour = 23
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TALLY_CONFIG is set
//  3. env (prefix TALLY_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("TALLY_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: TALLY_ADDR, TALLY_ROLLOVER_HOUR, ...
	// Map env keys like TALLY_QUEUE_SIZE -> queue_size (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("TALLY_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "tally_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the service cannot run with.
func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.RolloverHour < minRolloverHour || c.RolloverHour > maxRolloverHour {
		return fmt.Errorf("%w: rollover_hour must be between 0 and 23, got %d", ErrInvalidConfig, c.RolloverHour)
	}
	if c.DefaultLimit < 1 {
		return fmt.Errorf("%w: default_limit must be positive, got %d", ErrInvalidConfig, c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("%w: max_limit must be >= default_limit", ErrInvalidConfig)
	}
	if c.Segments < 1 || c.Segments > progress.MaxSegments {
		return fmt.Errorf("%w: segments must be between 1 and %d, got %d", ErrInvalidConfig, progress.MaxSegments, c.Segments)
	}
	if c.DefaultGoal <= 0 {
		return fmt.Errorf("%w: default_goal must be greater than zero", ErrInvalidConfig)
	}
	switch c.Store {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store)
	}
	if c.Store == StoreSQLite && strings.TrimSpace(c.SQLitePath) == "" {
		return fmt.Errorf("%w: sqlite_path required for the sqlite store", ErrInvalidConfig)
	}
	return nil
}
