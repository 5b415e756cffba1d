// Package plan adapts a periodization template into daily stress
// prescriptions for the upcoming planning window.
package plan

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"paceline/internal/domain/model"
)

// Rationale tags recorded on each recommendation for explainability.
const (
	RationaleNominal        = "nominal"
	RationaleReducedOver    = "reduced_overtraining"
	RationaleIncreasedUnder = "increased_undertraining"
)

// Default adjustment factors and guard rail.
const (
	defaultOverFactor   = 0.7
	defaultUnderFactor  = 1.1
	defaultDailyCeiling = 300.0
	daysPerWeek         = 7
)

// Adapter turns load state, risk and a template into recommendations.
type Adapter struct {
	overFactor   float64
	underFactor  float64
	dailyCeiling float64
	now          func() time.Time
	newID        func() string
}

// NewAdapter creates an Adapter with configuration options.
func NewAdapter(opts ...Option) *Adapter {
	a := &Adapter{
		overFactor:   defaultOverFactor,
		underFactor:  defaultUnderFactor,
		dailyCeiling: defaultDailyCeiling,
		now:          time.Now,
		newID:        func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Adjust walks the template weeks intersecting the requested window and
// prescribes one stress target per covered day. The weekly target is
// split across the week's planned session count, then scaled down under
// overtraining risk or modestly up under undertraining risk outside
// taper/recovery weeks. Targets are clamped to [0, ceiling].
//
// Days in a partially covered window that fall outside the template are
// omitted. A window with no covered days at all fails with a
// NoTemplateCoverageError.
func (a *Adapter) Adjust(ctx context.Context, state model.LoadState, risk model.RiskFlag, template model.PlanTemplate, windowStart time.Time, windowDays int) (model.RecommendationSet, error) {
	select {
	case <-ctx.Done():
		return model.RecommendationSet{}, ctx.Err()
	default:
	}

	set := model.RecommendationSet{
		ID:          a.newID(),
		AthleteID:   state.AthleteID,
		GeneratedAt: a.now().UTC(),
	}

	start := model.DateOf(windowStart)
	templateStart := model.DateOf(template.StartDate)
	for i := 0; i < windowDays; i++ {
		day := start.AddDate(0, 0, i)
		week, ok := weekFor(template, templateStart, day)
		if !ok {
			continue
		}

		sessions := week.SessionCount
		if sessions <= 0 {
			sessions = daysPerWeek
		}
		target := week.TargetWeeklyStress / float64(sessions)

		rationale := RationaleNominal
		switch {
		case risk.Kind == model.RiskOvertraining:
			target *= a.overFactor
			rationale = RationaleReducedOver
		case risk.Kind == model.RiskUndertraining && week.Phase != model.PhaseTaper && week.Phase != model.PhaseRecovery:
			target *= a.underFactor
			rationale = RationaleIncreasedUnder
		}

		target = math.Max(0, math.Min(a.dailyCeiling, target))
		set.Window = append(set.Window, model.Recommendation{
			Date:         day,
			StressTarget: target,
			Rationale:    rationale,
		})
	}

	if len(set.Window) == 0 {
		return model.RecommendationSet{}, &NoTemplateCoverageError{
			AthleteID:   state.AthleteID,
			WindowStart: start,
			WindowDays:  windowDays,
		}
	}
	return set, nil
}

// weekFor locates the template week covering day. Week i spans the
// seven days starting at templateStart + 7i.
func weekFor(template model.PlanTemplate, templateStart, day time.Time) (model.PlanWeek, bool) {
	offset := model.DaysBetween(templateStart, day)
	if offset < 0 {
		return model.PlanWeek{}, false
	}
	index := offset / daysPerWeek
	for _, week := range template.Weeks {
		if week.Index == index {
			return week, true
		}
	}
	return model.PlanWeek{}, false
}
