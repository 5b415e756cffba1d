// Package load maintains rolling chronic/acute training load as an
// exponentially weighted function of daily stress.
//
// Conventions:
// - Apply is a pure function over explicit state; callers own persistence.
// - The day-by-day recurrence is an explicit loop so multi-day gaps decay
//   load auditably rather than through a closed-form jump.
package load

import (
	"context"
	"math"
	"time"

	"paceline/internal/domain/model"
)

// Default time constants, in days.
const (
	defaultChronicTau = 42.0
	defaultAcuteTau   = 7.0
)

// Accumulator applies session summaries to an athlete's load state.
type Accumulator struct {
	chronicTau        float64
	acuteTau          float64
	backfillTolerance int // days a summary may predate AsOfDate
}

// NewAccumulator creates an Accumulator with configuration options.
func NewAccumulator(opts ...Option) *Accumulator {
	a := &Accumulator{
		chronicTau: defaultChronicTau,
		acuteTau:   defaultAcuteTau,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply folds one summary into state and returns the successor state.
// The input state is never mutated; on error it is returned unchanged.
//
// Every calendar day between state.AsOfDate and the summary's date is
// stepped through the decay recurrence, with zero stress on days that
// had no session, so gaps pull both loads toward zero. A second summary
// on the current AsOfDate adds its stress through the recurrence gain
// without re-decaying the day.
func (a *Accumulator) Apply(ctx context.Context, state model.LoadState, summary model.SessionSummary) (model.LoadState, error) {
	select {
	case <-ctx.Done():
		return state, ctx.Err()
	default:
	}

	date := model.DateOf(summary.Date)
	if state.Initialized() {
		if behind := model.DaysBetween(date, state.AsOfDate); behind > a.backfillTolerance {
			return state, &OutOfOrderError{
				AthleteID:   state.AthleteID,
				SessionID:   summary.SessionID,
				SessionDate: date,
				AsOfDate:    state.AsOfDate,
			}
		}
	}

	next := state
	next.History = append([]model.LoadPoint(nil), state.History...)
	if next.AthleteID == "" {
		next.AthleteID = summary.AthleteID
	}

	chronicGain := 1 - math.Exp(-1/a.chronicTau)
	acuteGain := 1 - math.Exp(-1/a.acuteTau)

	switch {
	case !next.Initialized():
		// First ever update: a single recurrence step from zero load.
		next.AsOfDate = date
		next.ChronicLoad = summary.StressScore * chronicGain
		next.AcuteLoad = summary.StressScore * acuteGain
		next.History = append(next.History, point(next))
	case !date.After(next.AsOfDate):
		// Same-day (or tolerated backfill) stress: credit it at the
		// current date without decaying again.
		next.ChronicLoad += summary.StressScore * chronicGain
		next.AcuteLoad += summary.StressScore * acuteGain
		next.History = append(next.History, point(next))
	default:
		for day := next.AsOfDate.AddDate(0, 0, 1); !day.After(date); day = day.AddDate(0, 0, 1) {
			stress := 0.0
			if day.Equal(date) {
				stress = summary.StressScore
			}
			next.ChronicLoad += (stress - next.ChronicLoad) * chronicGain
			next.AcuteLoad += (stress - next.AcuteLoad) * acuteGain
			next.AsOfDate = day
			next.History = append(next.History, point(next))
		}
	}

	return next, nil
}

// Advance decays state forward to date with no new stress. Used to
// bring a stale state current before risk evaluation. Dates at or
// before AsOfDate return the state unchanged.
func (a *Accumulator) Advance(ctx context.Context, state model.LoadState, date time.Time) (model.LoadState, error) {
	select {
	case <-ctx.Done():
		return state, ctx.Err()
	default:
	}

	date = model.DateOf(date)
	if !state.Initialized() || !date.After(state.AsOfDate) {
		return state, nil
	}

	next := state
	next.History = append([]model.LoadPoint(nil), state.History...)
	chronicGain := 1 - math.Exp(-1/a.chronicTau)
	acuteGain := 1 - math.Exp(-1/a.acuteTau)
	for day := next.AsOfDate.AddDate(0, 0, 1); !day.After(date); day = day.AddDate(0, 0, 1) {
		next.ChronicLoad -= next.ChronicLoad * chronicGain
		next.AcuteLoad -= next.AcuteLoad * acuteGain
		next.AsOfDate = day
		next.History = append(next.History, point(next))
	}
	return next, nil
}

func point(s model.LoadState) model.LoadPoint {
	return model.LoadPoint{Date: s.AsOfDate, ChronicLoad: s.ChronicLoad, AcuteLoad: s.AcuteLoad}
}
