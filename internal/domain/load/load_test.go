package load_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"paceline/internal/domain/load"
	"paceline/internal/domain/model"
)

func day(d int) time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func summaryOn(d int, stress float64) model.SessionSummary {
	return model.SessionSummary{
		SessionID:   "s",
		AthleteID:   "ath-1",
		Date:        day(d),
		StressScore: stress,
	}
}

func TestAccumulator_Apply(t *testing.T) {
	Convey("Given an accumulator with default time constants", t, func() {
		ctx := context.Background()
		acc := load.NewAccumulator()

		Convey("When applying the first session to an empty state", func() {
			state := model.LoadState{AthleteID: "ath-1"}
			next, err := acc.Apply(ctx, state, summaryOn(0, 100))

			Convey("Then acute load leads chronic load", func() {
				So(err, ShouldBeNil)
				So(next.AsOfDate.Equal(day(0)), ShouldBeTrue)
				So(next.AcuteLoad, ShouldBeGreaterThan, next.ChronicLoad)
				So(next.ChronicLoad, ShouldAlmostEqual, 100*(1-math.Exp(-1.0/42)), 1e-9)
				So(next.AcuteLoad, ShouldAlmostEqual, 100*(1-math.Exp(-1.0/7)), 1e-9)
				So(next.History, ShouldHaveLength, 1)
			})

			Convey("And the input state is left untouched", func() {
				So(err, ShouldBeNil)
				So(state.ChronicLoad, ShouldEqual, 0)
				So(state.AsOfDate.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When a multi-day gap separates two sessions", func() {
			state := model.LoadState{AthleteID: "ath-1"}
			state, err := acc.Apply(ctx, state, summaryOn(0, 100))
			So(err, ShouldBeNil)
			peakAcute := state.AcuteLoad

			next, err := acc.Apply(ctx, state, summaryOn(10, 0))

			Convey("Then both loads decay toward zero across the gap", func() {
				So(err, ShouldBeNil)
				So(next.AcuteLoad, ShouldBeLessThan, peakAcute)
				So(next.AcuteLoad, ShouldBeGreaterThan, 0)
				So(next.ChronicLoad, ShouldBeLessThan, state.ChronicLoad)
				So(next.ChronicLoad, ShouldBeGreaterThan, 0)
				// One history point per elapsed day.
				So(next.History, ShouldHaveLength, 11)
				So(next.AsOfDate.Equal(day(10)), ShouldBeTrue)
			})

			Convey("And each intermediate day decays strictly", func() {
				So(err, ShouldBeNil)
				for i := 1; i < len(next.History); i++ {
					So(next.History[i].AcuteLoad, ShouldBeLessThan, next.History[i-1].AcuteLoad)
				}
			})
		})

		Convey("When the same sequence is applied twice from the same start", func() {
			summaries := []model.SessionSummary{
				summaryOn(0, 80), summaryOn(2, 120), summaryOn(3, 40), summaryOn(9, 95),
			}
			run := func() model.LoadState {
				state := model.LoadState{AthleteID: "ath-1"}
				for _, s := range summaries {
					var err error
					state, err = acc.Apply(ctx, state, s)
					So(err, ShouldBeNil)
				}
				return state
			}

			first, second := run(), run()

			Convey("Then the final states are identical", func() {
				So(second.ChronicLoad, ShouldEqual, first.ChronicLoad)
				So(second.AcuteLoad, ShouldEqual, first.AcuteLoad)
				So(second.AsOfDate.Equal(first.AsOfDate), ShouldBeTrue)
				So(second.History, ShouldResemble, first.History)
			})
		})

		Convey("When a second session lands on the current date", func() {
			state := model.LoadState{AthleteID: "ath-1"}
			state, err := acc.Apply(ctx, state, summaryOn(0, 100))
			So(err, ShouldBeNil)
			before := state

			next, err := acc.Apply(ctx, state, summaryOn(0, 50))

			Convey("Then its stress is credited without another decay step", func() {
				So(err, ShouldBeNil)
				So(next.AsOfDate.Equal(day(0)), ShouldBeTrue)
				So(next.AcuteLoad, ShouldBeGreaterThan, before.AcuteLoad)
				So(next.ChronicLoad, ShouldBeGreaterThan, before.ChronicLoad)
			})
		})

		Convey("When a session predates the state's as-of date", func() {
			state := model.LoadState{AthleteID: "ath-1"}
			state, err := acc.Apply(ctx, state, summaryOn(5, 100))
			So(err, ShouldBeNil)

			next, err := acc.Apply(ctx, state, summaryOn(3, 50))

			Convey("Then it fails with an out-of-order error and the state is unchanged", func() {
				So(errors.Is(err, load.ErrOutOfOrderUpdate), ShouldBeTrue)
				var outOfOrder *load.OutOfOrderError
				So(errors.As(err, &outOfOrder), ShouldBeTrue)
				So(outOfOrder.AthleteID, ShouldEqual, "ath-1")
				So(outOfOrder.SessionDate.Equal(day(3)), ShouldBeTrue)
				So(next.ChronicLoad, ShouldEqual, state.ChronicLoad)
				So(next.AcuteLoad, ShouldEqual, state.AcuteLoad)
				So(next.AsOfDate.Equal(state.AsOfDate), ShouldBeTrue)
			})
		})

		Convey("When a backfill tolerance is configured", func() {
			tolerant := load.NewAccumulator(load.WithBackfillTolerance(3))
			state := model.LoadState{AthleteID: "ath-1"}
			state, err := tolerant.Apply(ctx, state, summaryOn(5, 100))
			So(err, ShouldBeNil)

			Convey("Then sessions inside the tolerance are accepted", func() {
				next, err := tolerant.Apply(ctx, state, summaryOn(3, 50))
				So(err, ShouldBeNil)
				So(next.AcuteLoad, ShouldBeGreaterThan, state.AcuteLoad)
			})

			Convey("And sessions beyond the tolerance are still rejected", func() {
				_, err := tolerant.Apply(ctx, state, summaryOn(1, 50))
				So(errors.Is(err, load.ErrOutOfOrderUpdate), ShouldBeTrue)
			})
		})

		Convey("When loads are accumulated over many sessions", func() {
			state := model.LoadState{AthleteID: "ath-1"}
			for i := 0; i < 30; i += 2 {
				var err error
				state, err = acc.Apply(ctx, state, summaryOn(i, 90))
				So(err, ShouldBeNil)
			}

			Convey("Then balance always equals chronic minus acute", func() {
				So(state.Balance(), ShouldAlmostEqual, state.ChronicLoad-state.AcuteLoad, 1e-12)
				So(state.ChronicLoad, ShouldBeGreaterThanOrEqualTo, 0)
				So(state.AcuteLoad, ShouldBeGreaterThanOrEqualTo, 0)
			})
		})
	})
}

func TestAccumulator_Advance(t *testing.T) {
	Convey("Given a state with accumulated load", t, func() {
		ctx := context.Background()
		acc := load.NewAccumulator()
		state := model.LoadState{AthleteID: "ath-1"}
		state, err := acc.Apply(ctx, state, summaryOn(0, 120))
		So(err, ShouldBeNil)

		Convey("When advancing ten days with no sessions", func() {
			next, err := acc.Advance(ctx, state, day(10))

			Convey("Then loads decay by the expected factor", func() {
				So(err, ShouldBeNil)
				So(next.AcuteLoad, ShouldAlmostEqual, state.AcuteLoad*math.Exp(-10.0/7), 1e-9)
				So(next.ChronicLoad, ShouldAlmostEqual, state.ChronicLoad*math.Exp(-10.0/42), 1e-9)
				So(next.AsOfDate.Equal(day(10)), ShouldBeTrue)
			})
		})

		Convey("When advancing to a date at or before the as-of date", func() {
			next, err := acc.Advance(ctx, state, day(0))

			Convey("Then the state is returned unchanged", func() {
				So(err, ShouldBeNil)
				So(next.AsOfDate.Equal(state.AsOfDate), ShouldBeTrue)
				So(next.AcuteLoad, ShouldEqual, state.AcuteLoad)
			})
		})
	})
}
