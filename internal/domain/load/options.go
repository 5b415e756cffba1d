package load

// Option applies a configuration option to the Accumulator.
type Option func(*Accumulator)

// WithChronicTau sets the chronic (fitness) time constant in days.
func WithChronicTau(days float64) Option {
	return func(a *Accumulator) {
		if days > 0 {
			a.chronicTau = days
		}
	}
}

// WithAcuteTau sets the acute (fatigue) time constant in days.
func WithAcuteTau(days float64) Option {
	return func(a *Accumulator) {
		if days > 0 {
			a.acuteTau = days
		}
	}
}

// WithBackfillTolerance sets how many days a summary may predate the
// current AsOfDate before the update is rejected as out of order.
// Zero (the default) is strict.
func WithBackfillTolerance(days int) Option {
	return func(a *Accumulator) {
		if days >= 0 {
			a.backfillTolerance = days
		}
	}
}
