package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"paceline/internal/adapters/store"
	service "paceline/internal/app"
	"paceline/internal/domain/load"
	"paceline/internal/domain/model"
	"paceline/internal/domain/plan"
	"paceline/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func day(d int) time.Time {
	return time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

// session builds a samples-free session; the normalizer degrades it to a
// duration-only estimate, which keeps fixtures small.
func session(id string, d int, hours float64) model.Session {
	return model.Session{
		ID:              id,
		AthleteID:       "ath-1",
		StartTime:       day(d).Add(7 * time.Hour),
		DurationSeconds: int(hours * 3600),
	}
}

func coveringTemplate() model.PlanTemplate {
	tpl := model.PlanTemplate{Name: "rolling", StartDate: day(0)}
	for i := 0; i < 8; i++ {
		tpl.Weeks = append(tpl.Weeks, model.PlanWeek{
			Index:              i,
			Phase:              model.PhaseBase,
			TargetWeeklyStress: 350,
			SessionCount:       5,
		})
	}
	return tpl
}

func startService(opts ...service.Option) *service.Service {
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestServiceUpdate(t *testing.T) {
	Convey("Given a started service with an in-memory store", t, func() {
		ctx := context.Background()
		st := store.NewMemoryStore()
		svc := startService(service.WithStore(st))
		defer svc.Stop()
		template := coveringTemplate()

		Convey("When applying a first batch of sessions", func() {
			req := service.UpdateRequest{
				AthleteID: "ath-1",
				Sessions:  []model.Session{session("s-1", 0, 2), session("s-2", 2, 1)},
				Template:  template,
			}
			result, err := svc.Update(ctx, req)

			Convey("Then load state is committed and recommendations emitted", func() {
				So(err, ShouldBeNil)
				So(result.State.AsOfDate.Equal(day(2)), ShouldBeTrue)
				So(result.State.ChronicLoad, ShouldBeGreaterThan, 0)
				So(result.Diagnostics, ShouldBeEmpty)
				So(result.Recommendations.Window, ShouldHaveLength, 7)
				So(result.Recommendations.Window[0].Date.Equal(day(3)), ShouldBeTrue)

				stored, err := svc.GetState(ctx, "ath-1")
				So(err, ShouldBeNil)
				So(stored.ChronicLoad, ShouldAlmostEqual, result.State.ChronicLoad, 1e-9)
			})

			Convey("And resubmitting the same batch only yields duplicates", func() {
				So(err, ShouldBeNil)
				before := result.State

				again, err := svc.Update(ctx, req)
				So(err, ShouldBeNil)
				So(again.Diagnostics, ShouldHaveLength, 2)
				for _, diag := range again.Diagnostics {
					So(diag.Reason, ShouldContainSubstring, "duplicate")
				}
				So(again.State.ChronicLoad, ShouldAlmostEqual, before.ChronicLoad, 1e-9)
				So(again.State.AsOfDate.Equal(before.AsOfDate), ShouldBeTrue)
			})
		})

		Convey("When sessions arrive unsorted", func() {
			req := service.UpdateRequest{
				AthleteID: "ath-1",
				Sessions:  []model.Session{session("s-2", 4, 1), session("s-1", 1, 1)},
				Template:  template,
			}
			result, err := svc.Update(ctx, req)

			Convey("Then they are applied in ascending date order", func() {
				So(err, ShouldBeNil)
				So(result.State.AsOfDate.Equal(day(4)), ShouldBeTrue)
				So(result.Diagnostics, ShouldBeEmpty)
			})
		})

		Convey("When a batch contains a malformed session", func() {
			req := service.UpdateRequest{
				AthleteID: "ath-1",
				Sessions:  []model.Session{session("s-1", 0, 2), session("s-bad", 1, 0)},
				Template:  template,
			}
			result, err := svc.Update(ctx, req)

			Convey("Then the bad session is skipped with a diagnostic", func() {
				So(err, ShouldBeNil)
				So(result.Diagnostics, ShouldHaveLength, 1)
				So(result.Diagnostics[0].SessionID, ShouldEqual, "s-bad")
				So(result.State.AsOfDate.Equal(day(0)), ShouldBeTrue)
			})

			Convey("And a corrected version of it can be applied later", func() {
				So(err, ShouldBeNil)
				fixed, err := svc.Update(ctx, service.UpdateRequest{
					AthleteID: "ath-1",
					Sessions:  []model.Session{session("s-bad", 1, 1)},
					Template:  template,
				})
				So(err, ShouldBeNil)
				So(fixed.Diagnostics, ShouldBeEmpty)
				So(fixed.State.AsOfDate.Equal(day(1)), ShouldBeTrue)
			})
		})

		Convey("When a session predates the committed state", func() {
			_, err := svc.Update(ctx, service.UpdateRequest{
				AthleteID: "ath-1",
				Sessions:  []model.Session{session("s-1", 5, 1)},
				Template:  template,
			})
			So(err, ShouldBeNil)
			before, err := svc.GetState(ctx, "ath-1")
			So(err, ShouldBeNil)

			_, err = svc.Update(ctx, service.UpdateRequest{
				AthleteID: "ath-1",
				Sessions:  []model.Session{session("s-late", 3, 1), session("s-next", 6, 1)},
				Template:  template,
			})

			Convey("Then the whole batch aborts and no state is written", func() {
				So(errors.Is(err, load.ErrOutOfOrderUpdate), ShouldBeTrue)
				after, err := svc.GetState(ctx, "ath-1")
				So(err, ShouldBeNil)
				So(after.AsOfDate.Equal(before.AsOfDate), ShouldBeTrue)
				So(after.ChronicLoad, ShouldAlmostEqual, before.ChronicLoad, 1e-9)
			})

			Convey("And the aborted sessions can be resubmitted once corrected", func() {
				So(errors.Is(err, load.ErrOutOfOrderUpdate), ShouldBeTrue)
				result, err := svc.Update(ctx, service.UpdateRequest{
					AthleteID: "ath-1",
					Sessions:  []model.Session{session("s-next", 6, 1)},
					Template:  template,
				})
				So(err, ShouldBeNil)
				So(result.Diagnostics, ShouldBeEmpty)
				So(result.State.AsOfDate.Equal(day(6)), ShouldBeTrue)
			})
		})

		Convey("When the template does not cover the planning window", func() {
			farFuture := coveringTemplate()
			farFuture.StartDate = day(100)
			for i := range farFuture.Weeks {
				farFuture.Weeks[i].Index = i
			}
			result, err := svc.Update(ctx, service.UpdateRequest{
				AthleteID: "ath-1",
				Sessions:  []model.Session{session("s-1", 0, 2)},
				Template:  farFuture,
			})

			Convey("Then the plan fails but the load state is still committed", func() {
				So(errors.Is(err, plan.ErrNoTemplateCoverage), ShouldBeTrue)
				So(result.State.ChronicLoad, ShouldBeGreaterThan, 0)

				stored, err := svc.GetState(ctx, "ath-1")
				So(err, ShouldBeNil)
				So(stored.ChronicLoad, ShouldAlmostEqual, result.State.ChronicLoad, 1e-9)
			})
		})

		Convey("When an explicit planning window is requested", func() {
			result, err := svc.Update(ctx, service.UpdateRequest{
				AthleteID:   "ath-1",
				Sessions:    []model.Session{session("s-1", 0, 2)},
				Template:    template,
				WindowStart: day(10),
				WindowDays:  3,
			})

			Convey("Then the recommendations honor it", func() {
				So(err, ShouldBeNil)
				So(result.Recommendations.Window, ShouldHaveLength, 3)
				So(result.Recommendations.Window[0].Date.Equal(day(10)), ShouldBeTrue)
			})
		})

		Convey("When the athlete ID is missing", func() {
			_, err := svc.Update(ctx, service.UpdateRequest{Template: template})

			Convey("Then the request is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When no state was ever stored for an athlete", func() {
			_, err := svc.GetState(ctx, "ghost")

			Convey("Then lookup reports not found", func() {
				So(errors.Is(err, store.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestServiceUpdateAll(t *testing.T) {
	Convey("Given a started service and many athletes", t, func() {
		ctx := context.Background()
		svc := startService(service.WithWorkerCount(4))
		defer svc.Stop()
		template := coveringTemplate()

		const athletes = 12
		reqs := make([]service.UpdateRequest, 0, athletes)
		for i := 0; i < athletes; i++ {
			id := fmt.Sprintf("ath-%d", i)
			s1 := session(fmt.Sprintf("%s-s1", id), 0, 2)
			s2 := session(fmt.Sprintf("%s-s2", id), 1, 1)
			s1.AthleteID, s2.AthleteID = id, id
			reqs = append(reqs, service.UpdateRequest{
				AthleteID: id,
				Sessions:  []model.Session{s1, s2},
				Template:  template,
			})
		}

		Convey("When all athletes are updated concurrently", func() {
			results := svc.UpdateAll(ctx, reqs)

			Convey("Then every athlete gets exactly one successful result", func() {
				So(results, ShouldHaveLength, athletes)
				seen := make(map[string]bool)
				for _, r := range results {
					So(r.Err, ShouldBeNil)
					So(seen[r.AthleteID], ShouldBeFalse)
					seen[r.AthleteID] = true
					So(r.State.AsOfDate.Equal(day(1)), ShouldBeTrue)
					So(r.Recommendations.Window, ShouldHaveLength, 7)
				}
			})

			Convey("And each committed state is retrievable afterwards", func() {
				So(results, ShouldHaveLength, athletes)
				for i := 0; i < athletes; i++ {
					state, err := svc.GetState(ctx, fmt.Sprintf("ath-%d", i))
					So(err, ShouldBeNil)
					So(state.ChronicLoad, ShouldBeGreaterThan, 0)
				}
			})
		})
	})
}
