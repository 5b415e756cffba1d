package service

import (
	"paceline/internal/adapters/store"
	"paceline/internal/domain/dedupe"
	"paceline/internal/domain/load"
	"paceline/internal/domain/normalize"
	"paceline/internal/domain/plan"
	"paceline/internal/domain/risk"
	"paceline/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the load-state store. Defaults to the in-memory store.
func WithStore(st store.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithDeduper sets the session deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithNormalizer sets the session normalizer.
func WithNormalizer(n normalize.Normalizer) Option {
	return func(s *Service) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithAccumulator sets the load accumulator.
func WithAccumulator(a *load.Accumulator) Option {
	return func(s *Service) {
		if a != nil {
			s.accumulator = a
		}
	}
}

// WithDetector sets the risk detector.
func WithDetector(d *risk.Detector) Option {
	return func(s *Service) {
		if d != nil {
			s.detector = d
		}
	}
}

// WithPlanner sets the plan adapter.
func WithPlanner(p *plan.Adapter) Option {
	return func(s *Service) {
		if p != nil {
			s.planner = p
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkerCount sets the number of ingest workers for UpdateAll.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the ingest job queue for UpdateAll.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize caps the session-ID deduplication window.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDefaultThresholds back-fills athlete profiles missing reference
// power or heart-rate values.
func WithDefaultThresholds(power, hr float64) Option {
	return func(s *Service) {
		if power > 0 {
			s.defaultThresholdPower = power
		}
		if hr > 0 {
			s.defaultThresholdHR = hr
		}
	}
}
