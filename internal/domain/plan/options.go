package plan

import "time"

// Option applies a configuration option to the Adapter.
type Option func(*Adapter)

// WithDailyCeiling sets the hard upper bound on a daily stress target.
func WithDailyCeiling(ceiling float64) Option {
	return func(a *Adapter) {
		if ceiling > 0 {
			a.dailyCeiling = ceiling
		}
	}
}

// WithAdjustments sets the scaling factors applied under overtraining
// and undertraining risk.
func WithAdjustments(over, under float64) Option {
	return func(a *Adapter) {
		if over > 0 && over <= 1 {
			a.overFactor = over
		}
		if under >= 1 {
			a.underFactor = under
		}
	}
}

// WithClock sets the time source used for GeneratedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// WithIDSource sets the generator for recommendation-set IDs.
func WithIDSource(newID func() string) Option {
	return func(a *Adapter) {
		if newID != nil {
			a.newID = newID
		}
	}
}
