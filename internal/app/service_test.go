package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/toolscout/internal/app"
	"github.com/okian/toolscout/internal/adapters/repository"
	"github.com/okian/toolscout/internal/domain/model"
	"github.com/okian/toolscout/internal/domain/types"
	"github.com/okian/toolscout/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var fixedNow = time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func ptrF(v float64) *float64 { return &v }

func seededStore(ctx context.Context) *repository.MemoryStore {
	st := repository.NewMemoryStore()
	_ = st.SaveTool(ctx, model.Tool{ID: "t1", Slug: "a", Name: "Alpha", Category: "AI Writing"}, true)
	_ = st.SaveTool(ctx, model.Tool{ID: "t2", Slug: "b", Name: "Beta", Category: "SEO Tools", Rating: ptrF(4.8)}, true)
	_ = st.SaveTool(ctx, model.Tool{ID: "t3", Slug: "draft", Name: "Draft", Category: "SEO Writing"}, false)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = st.SavePost(ctx, model.Post{ID: "p0", Slug: "target", Category: "guides", Tags: []string{"ai", "seo"}, CreatedAt: base}, true)
	_ = st.SavePost(ctx, model.Post{ID: "p1", Slug: "same-cat", Category: "guides", CreatedAt: base.AddDate(0, 0, 1)}, true)
	_ = st.SavePost(ctx, model.Post{ID: "p2", Slug: "two-tags", Category: "news", Tags: []string{"ai", "seo"}, CreatedAt: base.AddDate(0, 0, 2)}, true)
	_ = st.SavePost(ctx, model.Post{ID: "p3", Slug: "nothing", Category: "news", CreatedAt: base.AddDate(0, 0, 3)}, true)
	_ = st.SavePost(ctx, model.Post{ID: "p4", Slug: "older", Category: "news", CreatedAt: base.AddDate(0, 0, -3)}, true)
	return st
}

func quiz() model.QuizAnswers {
	return model.QuizAnswers{
		Goal:       model.GoalContent,
		TeamSize:   model.TeamSmall,
		Budget:     model.BudgetLow,
		Experience: model.ExperienceIntermediate,
		UseCase:    model.UseCaseSEO,
		Priority:   model.PrioritySEO,
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it is not started", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(3),
			service.WithQueueSize(50),
			service.WithDedupeSize(25),
		)

		Convey("Then the options are reported", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 3)
			So(stats["queueSize"], ShouldEqual, 50)
			So(stats["dedupeSize"], ShouldEqual, 25)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(1))

		Convey("When clicks arrive before Start", func() {
			_, err := svc.RecordClick(ctx, "e1", "t1", time.Time{})

			Convey("Then they are refused", func() {
				So(errors.Is(err, model.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When it is started and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)

			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			So(svc.Stop(stopCtx), ShouldBeNil)

			Convey("Then it reports stopped and stopping again is harmless", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Stop(stopCtx), ShouldBeNil)
			})
		})
	})
}

func TestService_Recommend(t *testing.T) {
	Convey("Given a seeded service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithStore(seededStore(ctx)), service.WithClock(clock))

		Convey("When answers are complete", func() {
			res, err := svc.Recommend(ctx, quiz(), "")
			So(err, ShouldBeNil)

			Convey("Then published tools are ranked", func() {
				So(res.Recommendations, ShouldHaveLength, 2)
				So(res.Recommendations[0].Slug, ShouldEqual, "b")
				So(res.Recommendations[0].Match, ShouldEqual, 90)
				So(res.Recommendations[1].Slug, ShouldEqual, "a")
				So(res.Recommendations[1].Match, ShouldEqual, 80)
			})

			Convey("And nothing is forwarded without a subscription endpoint", func() {
				So(res.SubmissionID, ShouldBeEmpty)
			})
		})

		Convey("When an answer is missing", func() {
			a := quiz()
			a.Priority = ""
			_, err := svc.Recommend(ctx, a, "")

			Convey("Then the answers are rejected", func() {
				So(errors.Is(err, model.ErrInvalidAnswers), ShouldBeTrue)
			})
		})
	})
}

func TestService_Related(t *testing.T) {
	Convey("Given a seeded service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithStore(seededStore(ctx)))

		Convey("When asking for posts related to the target", func() {
			out, err := svc.Related(ctx, "target")
			So(err, ShouldBeNil)

			Convey("Then the best three are returned, recency breaking ties", func() {
				So(out, ShouldHaveLength, 3)
				So(out[0].Slug, ShouldEqual, "same-cat")
				So(out[0].Score, ShouldEqual, 3)
				So(out[1].Slug, ShouldEqual, "two-tags")
				So(out[1].Score, ShouldEqual, 2)
				So(out[2].Slug, ShouldEqual, "nothing")
				So(out[2].Score, ShouldEqual, 0)
			})
		})

		Convey("When the slug is unknown", func() {
			_, err := svc.Related(ctx, "missing")

			Convey("Then not found is reported", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_ClickStats(t *testing.T) {
	Convey("Given stored clicks around the fixed clock", t, func() {
		ctx := context.Background()
		st := seededStore(ctx)
		add := func(entity string, at time.Time) {
			_ = st.AppendClick(ctx, model.ClickEvent{EntityID: entity, OccurredAt: at})
		}
		add("t1", fixedNow.Add(-1*time.Hour))       // 7d, month, 30d
		add("t1", fixedNow.AddDate(0, 0, -10))      // month, 30d
		add("t1", fixedNow.AddDate(0, 0, -25))      // 30d
		add("t2", fixedNow.AddDate(0, 0, -2))       // 7d, month, 30d
		add("ghost", fixedNow.AddDate(0, -3, 0))    // all only
		svc := service.New(service.WithStore(st), service.WithClock(clock))

		Convey("When the range is 7d", func() {
			rep, err := svc.ClickStats(ctx, types.Range7d)
			So(err, ShouldBeNil)

			Convey("Then totals are gated but window counters are not", func() {
				So(rep.Range, ShouldEqual, "7d")
				t1, ok := rep.Bucket("t1")
				So(ok, ShouldBeTrue)
				So(t1, ShouldResemble, model.StatsBucket{Total: 1, Last7Days: 1, ThisMonth: 2})
				t2, _ := rep.Bucket("t2")
				So(t2, ShouldResemble, model.StatsBucket{Total: 1, Last7Days: 1, ThisMonth: 1})
				So(rep.Summary.TotalClicks, ShouldEqual, 2)
				So(rep.Summary.TopEntity, ShouldEqual, "t1")
			})

			Convey("And every published tool is listed, drafts are not", func() {
				ids := make([]string, 0, len(rep.Entities))
				for _, e := range rep.Entities {
					ids = append(ids, e.EntityID)
				}
				So(ids, ShouldResemble, []string{"t1", "t2"})
			})
		})

		Convey("When the range is 30d", func() {
			rep, err := svc.ClickStats(ctx, types.Range30d)
			So(err, ShouldBeNil)
			t1, _ := rep.Bucket("t1")
			So(t1.Total, ShouldEqual, 3)
			So(t1.ThisMonth, ShouldEqual, 2)
		})

		Convey("When the range is all", func() {
			rep, err := svc.ClickStats(ctx, types.RangeAll)
			So(err, ShouldBeNil)

			Convey("Then unknown entities follow the catalog", func() {
				So(rep.Entities, ShouldHaveLength, 3)
				So(rep.Entities[2].EntityID, ShouldEqual, "ghost")
				So(rep.Summary.TotalClicks, ShouldEqual, 5)
				So(rep.Summary.ActiveEntities, ShouldEqual, 3)
				So(rep.Summary.AverageText, ShouldEqual, "1.7")
			})
		})

		Convey("When asking for global counters", func() {
			g, err := svc.GlobalClicks(ctx)
			So(err, ShouldBeNil)
			So(g, ShouldResemble, model.GlobalCounts{Total: 5, Last7Days: 2, ThisMonth: 3})
		})
	})
}

func TestService_RecordClick(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		st := repository.NewMemoryStore()
		svc := service.New(service.WithStore(st), service.WithClock(clock), service.WithWorkerCount(2))
		So(svc.Start(ctx), ShouldBeNil)
		stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		defer func() { _ = svc.Stop(stopCtx) }()

		Convey("When a click has no entity", func() {
			_, err := svc.RecordClick(ctx, "e1", "", time.Time{})
			So(errors.Is(err, model.ErrInvalidClick), ShouldBeTrue)
		})

		Convey("When the same event id is sent twice", func() {
			first, err := svc.RecordClick(ctx, "e1", "t1", time.Time{})
			So(err, ShouldBeNil)
			second, err := svc.RecordClick(ctx, "e1", "t1", time.Time{})
			So(err, ShouldBeNil)

			Convey("Then only the first is stored", func() {
				So(first.Duplicate, ShouldBeFalse)
				So(second.Duplicate, ShouldBeTrue)
				So(svc.Stop(stopCtx), ShouldBeNil)
				evs, _ := st.ClickEvents(ctx, time.Time{})
				So(evs, ShouldHaveLength, 1)
				So(evs[0].OccurredAt.Equal(fixedNow), ShouldBeTrue)
			})
		})

		Convey("When no event id is supplied", func() {
			ack, err := svc.RecordClick(ctx, "", "t1", fixedNow.Add(-time.Minute))
			So(err, ShouldBeNil)

			Convey("Then one is generated", func() {
				So(ack.EventID, ShouldNotBeEmpty)
				So(ack.Duplicate, ShouldBeFalse)
			})
		})
	})
}
