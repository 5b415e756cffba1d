package normalize

import "time"

// Option applies a configuration option to the Summarizer.
type Option func(*Summarizer)

// WithRollingWindow sets the smoothing window for normalized power.
func WithRollingWindow(window time.Duration) Option {
	return func(s *Summarizer) {
		if window > 0 {
			s.rollingWindow = window
		}
	}
}

// WithStressScale sets the stress-score scale constant.
func WithStressScale(scale float64) Option {
	return func(s *Summarizer) {
		if scale > 0 {
			s.stressScale = scale
		}
	}
}

// WithDegradedStressPerHour sets the stress credited per hour when a
// session has neither power nor heart-rate samples.
func WithDegradedStressPerHour(perHour float64) Option {
	return func(s *Summarizer) {
		if perHour >= 0 {
			s.degradedPerHour = perHour
		}
	}
}
