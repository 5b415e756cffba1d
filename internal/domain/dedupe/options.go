package dedupe

// Option applies a configuration option to the session deduper.
type Option func(*sessionDeduper)

// WithMaxSize caps the number of session IDs kept in memory. The oldest
// recorded IDs are forgotten first once the cap is reached. A size of
// zero or less means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *sessionDeduper) {
		d.maxSize = maxSize
	}
}
