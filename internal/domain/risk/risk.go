// Package risk classifies load balance against configurable
// overtraining/undertraining thresholds.
package risk

import (
	"context"
	"math"

	"paceline/internal/domain/model"
)

// Default thresholds on balance (chronic minus acute).
const (
	defaultOvertrainingThreshold  = 15.0
	defaultUndertrainingThreshold = -30.0
)

// Detector evaluates a load state into a risk flag. Pure and total.
type Detector struct {
	overtrainingThreshold  float64
	undertrainingThreshold float64
}

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithThresholds sets the balance thresholds. Callers may tune these
// per athlete; over must exceed under or the pair is ignored.
func WithThresholds(over, under float64) Option {
	return func(d *Detector) {
		if over > under {
			d.overtrainingThreshold = over
			d.undertrainingThreshold = under
		}
	}
}

// NewDetector creates a Detector with configuration options.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		overtrainingThreshold:  defaultOvertrainingThreshold,
		undertrainingThreshold: defaultUndertrainingThreshold,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Evaluate classifies the state's balance. Severity grows linearly with
// the distance past the crossed threshold and caps at 1. Never fails.
func (d *Detector) Evaluate(_ context.Context, state model.LoadState) model.RiskFlag {
	flag := model.RiskFlag{
		AthleteID: state.AthleteID,
		Date:      state.AsOfDate,
		Kind:      model.RiskNominal,
	}

	balance := state.Balance()
	switch {
	case balance > d.overtrainingThreshold:
		flag.Kind = model.RiskOvertraining
		flag.Severity = severity(balance-d.overtrainingThreshold, d.overtrainingThreshold)
	case balance < d.undertrainingThreshold:
		flag.Kind = model.RiskUndertraining
		flag.Severity = severity(d.undertrainingThreshold-balance, d.undertrainingThreshold)
	}
	return flag
}

// severity maps excess past a threshold onto [0,1], scaling by the
// threshold's own magnitude so tuned thresholds keep a comparable ramp.
func severity(excess, threshold float64) float64 {
	scale := math.Abs(threshold)
	if scale == 0 {
		scale = 1
	}
	return math.Min(1, excess/scale)
}
