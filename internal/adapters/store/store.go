// Package store defines the load-state persistence boundary. The core
// engine never opens a database itself; it reads and writes states
// through this interface only.
package store

import (
	"context"

	"paceline/internal/domain/model"
)

// Store provides read/write access to per-athlete load state.
type Store interface {
	// GetLoadState returns the current state for an athlete.
	// Returns ErrNotFound if the athlete has no recorded state.
	GetLoadState(ctx context.Context, athleteID string) (model.LoadState, error)

	// PutLoadState replaces the current state for state.AthleteID and
	// appends any new history points.
	PutLoadState(ctx context.Context, state model.LoadState) error

	// Close releases underlying resources.
	Close() error
}
