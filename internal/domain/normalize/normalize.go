// Package normalize converts raw session sensor data into canonical
// per-session summaries.
package normalize

import (
	"context"
	"math"
	"time"

	"paceline/internal/domain/model"
)

// Default normalization constants.
const (
	defaultRollingWindow    = 30 * time.Second
	defaultStressScale      = 100
	defaultDegradedPerHour  = 30
	secondsPerHour          = 3600.0
	variabilityExponent     = 4 // penalizes spiky power over steady power
	minUsableThresholdPower = 1
	minUsableThresholdHR    = 1
)

// Normalizer computes a SessionSummary from a raw Session.
type Normalizer interface {
	// Normalize derives the canonical summary for session, honoring ctx
	// for cancellation.
	Normalize(ctx context.Context, session model.Session, profile model.AthleteProfile) (model.SessionSummary, error)
}

// Summarizer implements Normalizer using a rolling-average smoothed
// power model with heart-rate and duration-only fallbacks.
type Summarizer struct {
	rollingWindow   time.Duration
	stressScale     float64
	degradedPerHour float64
}

// NewSummarizer creates a Summarizer with configuration options.
func NewSummarizer(opts ...Option) *Summarizer {
	s := &Summarizer{
		rollingWindow:   defaultRollingWindow,
		stressScale:     defaultStressScale,
		degradedPerHour: defaultDegradedPerHour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize derives a summary from the session. Sessions with a
// non-positive duration or unordered samples fail with an
// InvalidSessionError; sessions with no usable samples degrade to a
// duration-only estimate instead of failing.
func (s *Summarizer) Normalize(ctx context.Context, session model.Session, profile model.AthleteProfile) (model.SessionSummary, error) {
	select {
	case <-ctx.Done():
		return model.SessionSummary{}, ctx.Err()
	default:
	}

	if session.DurationSeconds <= 0 {
		return model.SessionSummary{}, &InvalidSessionError{
			SessionID: session.ID,
			Reason:    "duration must be positive",
		}
	}
	if !samplesOrdered(session.Samples) {
		return model.SessionSummary{}, &InvalidSessionError{
			SessionID: session.ID,
			Reason:    "samples are not time-ordered",
		}
	}

	hours := float64(session.DurationSeconds) / secondsPerHour
	summary := model.SessionSummary{
		SessionID:       session.ID,
		AthleteID:       session.AthleteID,
		Date:            model.DateOf(session.StartTime),
		DurationSeconds: session.DurationSeconds,
	}

	if np, ok := s.normalizedPower(session.Samples); ok && profile.ThresholdPower >= minUsableThresholdPower {
		summary.Basis = model.BasisPower
		summary.IntensityFactor = np / profile.ThresholdPower
	} else if hr, ok := meanHeartRate(session.Samples); ok && profile.ThresholdHR >= minUsableThresholdHR {
		summary.Basis = model.BasisHeartRate
		summary.IntensityFactor = hr / profile.ThresholdHR
	} else {
		// No usable channel: duration-only estimate, flagged so
		// downstream consumers can discount confidence.
		summary.Basis = model.BasisDuration
		summary.Degraded = true
		summary.IntensityFactor = 0
		summary.StressScore = hours * s.degradedPerHour
		return summary, nil
	}

	summary.StressScore = hours * summary.IntensityFactor * summary.IntensityFactor * s.stressScale
	return summary, nil
}

// normalizedPower computes the variability-penalized average power:
// a rolling mean over the configured window, raised to the fourth
// power, averaged, then fourth-rooted. Returns false when no power
// samples exist.
func (s *Summarizer) normalizedPower(samples []model.Sample) (float64, bool) {
	var (
		sum   float64 // rolling window running sum
		count int
		start int // index of the oldest sample inside the window
		accum float64
		n     int
	)
	for i, sample := range samples {
		if sample.PowerWatts == nil {
			continue
		}
		sum += *sample.PowerWatts
		count++
		// Drop samples that fell out of the rolling window.
		for start < i {
			old := samples[start]
			if old.PowerWatts != nil && sample.Timestamp.Sub(old.Timestamp) > s.rollingWindow {
				sum -= *old.PowerWatts
				count--
				start++
				continue
			}
			if old.PowerWatts == nil {
				start++
				continue
			}
			break
		}
		if count > 0 {
			rolled := sum / float64(count)
			accum += math.Pow(rolled, variabilityExponent)
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return math.Pow(accum/float64(n), 1.0/variabilityExponent), true
}

// meanHeartRate averages heart-rate samples. Returns false when none exist.
func meanHeartRate(samples []model.Sample) (float64, bool) {
	var sum float64
	var n int
	for _, sample := range samples {
		if sample.HeartRateBPM == nil {
			continue
		}
		sum += *sample.HeartRateBPM
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func samplesOrdered(samples []model.Sample) bool {
	for i := 1; i < len(samples); i++ {
		if samples[i].Timestamp.Before(samples[i-1].Timestamp) {
			return false
		}
	}
	return true
}
