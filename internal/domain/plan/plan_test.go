package plan_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"paceline/internal/domain/model"
	"paceline/internal/domain/plan"
)

var templateStart = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday

func buildTemplate() model.PlanTemplate {
	return model.PlanTemplate{
		Name:      "spring build",
		StartDate: templateStart,
		Weeks: []model.PlanWeek{
			{Index: 0, Phase: model.PhaseBase, TargetWeeklyStress: 400, SessionCount: 5},
			{Index: 1, Phase: model.PhaseBuild, TargetWeeklyStress: 500, SessionCount: 5},
			{Index: 2, Phase: model.PhaseTaper, TargetWeeklyStress: 200, SessionCount: 4},
		},
	}
}

func flag(kind model.RiskKind) model.RiskFlag {
	return model.RiskFlag{AthleteID: "ath-1", Kind: kind, Severity: 0.5}
}

func testAdapter(opts ...plan.Option) *plan.Adapter {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	base := []plan.Option{
		plan.WithClock(func() time.Time { return fixed }),
		plan.WithIDSource(func() string { return "rec-1" }),
	}
	return plan.NewAdapter(append(base, opts...)...)
}

func TestAdapter_Adjust(t *testing.T) {
	Convey("Given a three-week template and a current load state", t, func() {
		ctx := context.Background()
		state := model.LoadState{AthleteID: "ath-1", AsOfDate: templateStart, ChronicLoad: 60, AcuteLoad: 55}
		template := buildTemplate()

		Convey("When adjusting a nominal week", func() {
			adapter := testAdapter()
			set, err := adapter.Adjust(ctx, state, flag(model.RiskNominal), template, templateStart, 7)

			Convey("Then each day gets the weekly target split across sessions", func() {
				So(err, ShouldBeNil)
				So(set.ID, ShouldEqual, "rec-1")
				So(set.AthleteID, ShouldEqual, "ath-1")
				So(set.Window, ShouldHaveLength, 7)
				for _, rec := range set.Window {
					So(rec.StressTarget, ShouldAlmostEqual, 80, 1e-9) // 400 / 5
					So(rec.Rationale, ShouldEqual, plan.RationaleNominal)
				}
			})

			Convey("And the window dates are consecutive days", func() {
				So(err, ShouldBeNil)
				for i, rec := range set.Window {
					So(rec.Date.Equal(templateStart.AddDate(0, 0, i)), ShouldBeTrue)
				}
			})
		})

		Convey("When the athlete is flagged overtraining", func() {
			adapter := testAdapter()
			set, err := adapter.Adjust(ctx, state, flag(model.RiskOvertraining), template, templateStart, 7)

			Convey("Then targets are reduced and tagged", func() {
				So(err, ShouldBeNil)
				for _, rec := range set.Window {
					So(rec.StressTarget, ShouldAlmostEqual, 56, 1e-9) // 80 * 0.7
					So(rec.Rationale, ShouldEqual, plan.RationaleReducedOver)
				}
			})
		})

		Convey("When the athlete is flagged undertraining in a build week", func() {
			adapter := testAdapter()
			weekTwo := templateStart.AddDate(0, 0, 7)
			set, err := adapter.Adjust(ctx, state, flag(model.RiskUndertraining), template, weekTwo, 7)

			Convey("Then targets are modestly increased and tagged", func() {
				So(err, ShouldBeNil)
				for _, rec := range set.Window {
					So(rec.StressTarget, ShouldAlmostEqual, 110, 1e-9) // 500/5 * 1.1
					So(rec.Rationale, ShouldEqual, plan.RationaleIncreasedUnder)
				}
			})
		})

		Convey("When the athlete is flagged undertraining in a taper week", func() {
			adapter := testAdapter()
			weekThree := templateStart.AddDate(0, 0, 14)
			set, err := adapter.Adjust(ctx, state, flag(model.RiskUndertraining), template, weekThree, 7)

			Convey("Then no increase is applied", func() {
				So(err, ShouldBeNil)
				for _, rec := range set.Window {
					So(rec.StressTarget, ShouldAlmostEqual, 50, 1e-9) // 200 / 4, unscaled
					So(rec.Rationale, ShouldEqual, plan.RationaleNominal)
				}
			})
		})

		Convey("When a week concentrates its stress into one session", func() {
			adapter := testAdapter(plan.WithDailyCeiling(120))
			big := buildTemplate()
			big.Weeks[0].TargetWeeklyStress = 900
			big.Weeks[0].SessionCount = 1
			set, err := adapter.Adjust(ctx, state, flag(model.RiskNominal), big, templateStart, 7)

			Convey("Then the daily ceiling clamps the target", func() {
				So(err, ShouldBeNil)
				for _, rec := range set.Window {
					So(rec.StressTarget, ShouldEqual, 120)
				}
			})
		})

		Convey("When a week omits its session count", func() {
			adapter := testAdapter()
			sparse := buildTemplate()
			sparse.Weeks[0].SessionCount = 0
			set, err := adapter.Adjust(ctx, state, flag(model.RiskNominal), sparse, templateStart, 7)

			Convey("Then the weekly target is spread across all seven days", func() {
				So(err, ShouldBeNil)
				So(set.Window[0].StressTarget, ShouldAlmostEqual, 400.0/7, 1e-9)
			})
		})

		Convey("When the window partially overlaps the template", func() {
			adapter := testAdapter()
			before := templateStart.AddDate(0, 0, -3)
			set, err := adapter.Adjust(ctx, state, flag(model.RiskNominal), template, before, 7)

			Convey("Then only covered days are prescribed", func() {
				So(err, ShouldBeNil)
				So(set.Window, ShouldHaveLength, 4)
				So(set.Window[0].Date.Equal(templateStart), ShouldBeTrue)
			})
		})

		Convey("When the window ends before the template starts", func() {
			adapter := testAdapter()
			before := templateStart.AddDate(0, 0, -30)
			_, err := adapter.Adjust(ctx, state, flag(model.RiskNominal), template, before, 7)

			Convey("Then it fails with a coverage error", func() {
				So(errors.Is(err, plan.ErrNoTemplateCoverage), ShouldBeTrue)
				var coverage *plan.NoTemplateCoverageError
				So(errors.As(err, &coverage), ShouldBeTrue)
				So(coverage.AthleteID, ShouldEqual, "ath-1")
			})
		})

		Convey("When the window starts after the template's last week", func() {
			adapter := testAdapter()
			after := templateStart.AddDate(0, 0, 21)
			_, err := adapter.Adjust(ctx, state, flag(model.RiskNominal), template, after, 7)

			Convey("Then it fails with a coverage error", func() {
				So(errors.Is(err, plan.ErrNoTemplateCoverage), ShouldBeTrue)
			})
		})
	})
}
