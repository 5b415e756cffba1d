// Package config defines engine configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DBPath points at the SQLite load-state database. Empty selects
	// the in-memory store.
	DBPath string `koanf:"db_path"`

	// MetricsAddr configures the Prometheus listen address, e.g.
	// ":9090". Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`

	// ChronicTauDays and AcuteTauDays are the exponential time
	// constants for fitness and fatigue.
	ChronicTauDays float64 `koanf:"chronic_tau_days"`
	AcuteTauDays   float64 `koanf:"acute_tau_days"`

	// OvertrainingThreshold and UndertrainingThreshold classify load
	// balance. Tunable per deployment.
	OvertrainingThreshold  float64 `koanf:"overtraining_threshold"`
	UndertrainingThreshold float64 `koanf:"undertraining_threshold"`

	// BackfillToleranceDays relaxes the strict ordering of session
	// dates. Zero is strict.
	BackfillToleranceDays int `koanf:"backfill_tolerance_days"`

	// DailyStressCeiling caps any single prescribed daily target.
	DailyStressCeiling float64 `koanf:"daily_stress_ceiling"`

	// StressScale is the stress-score scale constant.
	StressScale float64 `koanf:"stress_scale"`

	// RollingWindowSeconds is the power smoothing window.
	RollingWindowSeconds int `koanf:"rolling_window_seconds"`

	// DegradedStressPerHour credits stress for sessions with no usable
	// sensor channel.
	DegradedStressPerHour float64 `koanf:"degraded_stress_per_hour"`

	// DefaultThresholdPower and DefaultThresholdHR back-fill athlete
	// profiles that omit reference values.
	DefaultThresholdPower float64 `koanf:"default_threshold_power"`
	DefaultThresholdHR    float64 `koanf:"default_threshold_hr"`

	// WorkerCount sets the number of ingest workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the ingest job queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize caps the session-ID deduplication window.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config using defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		DBPath:                 "",
		MetricsAddr:            "",
		ChronicTauDays:         42,
		AcuteTauDays:           7,
		OvertrainingThreshold:  15,
		UndertrainingThreshold: -30,
		BackfillToleranceDays:  0,
		DailyStressCeiling:     300,
		StressScale:            100,
		RollingWindowSeconds:   30,
		DegradedStressPerHour:  30,
		DefaultThresholdPower:  250,
		DefaultThresholdHR:     170,
		WorkerCount:            runtime.NumCPU(),
		QueueSize:              1024,
		DedupeSize:             50_000,
	}
}
