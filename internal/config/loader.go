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
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if PACELINE_CONFIG is set
//  3. env (prefix PACELINE_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("PACELINE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: PACELINE_DB_PATH, PACELINE_QUEUE_SIZE, ...
	// Underscores are preserved so keys match the koanf struct tags.
	envProvider := env.Provider("PACELINE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "paceline_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.ChronicTauDays <= 0 || cfg.AcuteTauDays <= 0 {
		return fmt.Errorf("%w: time constants must be positive", ErrInvalidConfig)
	}
	if cfg.OvertrainingThreshold <= cfg.UndertrainingThreshold {
		return fmt.Errorf("%w: overtraining_threshold must exceed undertraining_threshold", ErrInvalidConfig)
	}
	if cfg.BackfillToleranceDays < 0 {
		return fmt.Errorf("%w: backfill_tolerance_days must not be negative", ErrInvalidConfig)
	}
	if cfg.DailyStressCeiling <= 0 {
		return fmt.Errorf("%w: daily_stress_ceiling must be positive", ErrInvalidConfig)
	}
	return nil
}
