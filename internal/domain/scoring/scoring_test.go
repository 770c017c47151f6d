package scoring_test

import (
	"fmt"
	"testing"

	"github.com/okian/toolscout/internal/domain/model"
	scoring "github.com/okian/toolscout/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

func answers(goal, useCase, experience, priority string) model.QuizAnswers {
	return model.QuizAnswers{
		Goal:       goal,
		TeamSize:   model.TeamSmall,
		Budget:     model.BudgetLow,
		Experience: experience,
		UseCase:    useCase,
		Priority:   priority,
	}
}

func TestMatcher_Scenarios(t *testing.T) {
	Convey("Given a writing tool and an SEO tool", t, func() {
		catalog := []model.Tool{
			{ID: "1", Slug: "a", Name: "Alpha", Category: "AI Writing"},
			{ID: "2", Slug: "b", Name: "Beta", Category: "SEO Tools"},
		}

		Convey("When the user wants content with an SEO use case and SEO priority", func() {
			a := answers(model.GoalContent, model.UseCaseSEO, model.ExperienceIntermediate, model.PrioritySEO)
			recs := scoring.Match(a, catalog)

			Convey("Then the SEO tool ranks above the writing tool", func() {
				So(recs, ShouldHaveLength, 2)
				So(recs[0].Slug, ShouldEqual, "b")
				So(recs[0].Match, ShouldEqual, 90) // 50 + 20 use case + 20 priority
				So(recs[1].Slug, ShouldEqual, "a")
				So(recs[1].Match, ShouldEqual, 80) // 50 + 30 goal
			})

			Convey("And reasons reference the category", func() {
				So(recs[0].Reason, ShouldContainSubstring, "SEO Tools")
				So(recs[1].Reason, ShouldContainSubstring, "AI Writing")
			})
		})

		Convey("When the priority is quality instead", func() {
			a := answers(model.GoalContent, model.UseCaseSEO, model.ExperienceIntermediate, model.PriorityQuality)
			recs := scoring.Match(a, catalog)

			Convey("Then the goal match wins", func() {
				So(recs[0].Slug, ShouldEqual, "a")
				So(recs[1].Slug, ShouldEqual, "b")
				So(recs[1].Match, ShouldEqual, 70)
			})
		})
	})
}

func TestMatcher_Rules(t *testing.T) {
	Convey("Given single tools scored in isolation", t, func() {
		Convey("Category matching is case-insensitive substring containment", func() {
			a := answers(model.GoalCode, model.UseCaseDevelopment, model.ExperienceIntermediate, model.PriorityPrice)
			So(scoring.RawScore(a, model.Tool{Category: "AI CODE assistants"}), ShouldEqual, 60)
			So(scoring.RawScore(a, model.Tool{Category: "Developer tools"}), ShouldEqual, 30)
		})

		Convey("The 'all' use case always earns a flat bonus", func() {
			a := answers(model.GoalVideo, model.UseCaseAll, model.ExperienceIntermediate, model.PriorityPrice)
			So(scoring.RawScore(a, model.Tool{Category: "Spreadsheets"}), ShouldEqual, 10)
		})

		Convey("A use case with several matching keywords counts once", func() {
			a := answers(model.GoalResearch, model.UseCaseBlog, model.ExperienceIntermediate, model.PriorityPrice)
			So(scoring.RawScore(a, model.Tool{Category: "Content Writing"}), ShouldEqual, 25)
		})

		Convey("Independent rules double count on multi-keyword categories", func() {
			a := answers(model.GoalContent, model.UseCaseSEO, model.ExperienceIntermediate, model.PrioritySEO)
			So(scoring.RawScore(a, model.Tool{Category: "SEO Writing"}), ShouldEqual, 70)
		})

		Convey("Experience depends on review counts", func() {
			adv := answers(model.GoalImage, model.UseCaseAll, model.ExperienceAdvanced, model.PriorityPrice)
			So(scoring.RawScore(adv, model.Tool{Category: "x", ReviewCount: ptrI(3001)}), ShouldEqual, 20)
			So(scoring.RawScore(adv, model.Tool{Category: "x", ReviewCount: ptrI(3000)}), ShouldEqual, 10)
			So(scoring.RawScore(adv, model.Tool{Category: "x"}), ShouldEqual, 10)

			beg := answers(model.GoalImage, model.UseCaseAll, model.ExperienceBeginner, model.PriorityPrice)
			So(scoring.RawScore(beg, model.Tool{Category: "x", ReviewCount: ptrI(999)}), ShouldEqual, 15)
			So(scoring.RawScore(beg, model.Tool{Category: "x", ReviewCount: ptrI(1000)}), ShouldEqual, 10)
			So(scoring.RawScore(beg, model.Tool{Category: "x"}), ShouldEqual, 10)
		})

		Convey("Quality priority depends on rating", func() {
			a := answers(model.GoalImage, model.UseCaseAll, model.ExperienceIntermediate, model.PriorityQuality)
			So(scoring.RawScore(a, model.Tool{Category: "x", Rating: ptrF(4.7)}), ShouldEqual, 25)
			So(scoring.RawScore(a, model.Tool{Category: "x", Rating: ptrF(4.5)}), ShouldEqual, 20)
			So(scoring.RawScore(a, model.Tool{Category: "x", Rating: ptrF(4.49)}), ShouldEqual, 10)
			So(scoring.RawScore(a, model.Tool{Category: "x"}), ShouldEqual, 10)
		})

		Convey("Speed priority favours writing and automation", func() {
			a := answers(model.GoalImage, model.UseCaseAll, model.ExperienceIntermediate, model.PrioritySpeed)
			So(scoring.RawScore(a, model.Tool{Category: "Workflow Automation"}), ShouldEqual, 20)
			So(scoring.RawScore(a, model.Tool{Category: "Chatbots"}), ShouldEqual, 10)
		})

		Convey("Unknown codes and empty categories score zero", func() {
			a := answers("unknown", "unknown", "unknown", "unknown")
			So(scoring.RawScore(a, model.Tool{Category: "AI Writing"}), ShouldEqual, 0)
			b := answers(model.GoalContent, model.UseCaseBlog, model.ExperienceIntermediate, model.PrioritySEO)
			So(scoring.RawScore(b, model.Tool{}), ShouldEqual, 0)
		})
	})
}

func TestMatcher_Ranking(t *testing.T) {
	Convey("Given a larger catalog", t, func() {
		a := answers(model.GoalContent, model.UseCaseBlog, model.ExperienceIntermediate, model.PrioritySpeed)

		Convey("When the catalog is empty", func() {
			recs := scoring.Match(a, nil)

			Convey("Then the result is empty and not nil", func() {
				So(recs, ShouldNotBeNil)
				So(recs, ShouldHaveLength, 0)
			})
		})

		Convey("When many tools match", func() {
			var catalog []model.Tool
			for i := 0; i < 6; i++ {
				catalog = append(catalog, model.Tool{Slug: fmt.Sprintf("w%d", i), Name: "W", Category: "AI Writing"})
			}
			recs := scoring.Match(a, catalog)

			Convey("Then at most three are returned, clamped and in catalog order on ties", func() {
				So(recs, ShouldHaveLength, 3)
				for i, r := range recs {
					So(r.Slug, ShouldEqual, fmt.Sprintf("w%d", i))
					So(r.Match, ShouldEqual, 95) // 50 + 30 + 25 + 10, clamped
				}
			})
		})

		Convey("When a slug is duplicated", func() {
			catalog := []model.Tool{
				{Slug: "dup", Name: "First", Category: "Writing"},
				{Slug: "other", Name: "Other", Category: "Writing"},
				{Slug: "dup", Name: "Second", Category: "Writing"},
			}
			recs := scoring.Match(a, catalog)

			Convey("Then the first occurrence wins", func() {
				So(recs, ShouldHaveLength, 2)
				So(recs[0].Name, ShouldEqual, "First")
				So(recs[1].Slug, ShouldEqual, "other")
			})
		})

		Convey("When tools score zero", func() {
			catalog := []model.Tool{
				{Slug: "none", Category: "Spreadsheets"},
				{Slug: "some", Category: "Writing"},
			}
			recs := scoring.Match(a, catalog)

			Convey("Then they are excluded", func() {
				So(recs, ShouldHaveLength, 1)
				So(recs[0].Slug, ShouldEqual, "some")
			})
		})

		Convey("When results are ordered", func() {
			catalog := []model.Tool{
				{Slug: "low", Category: "Automation"},
				{Slug: "high", Category: "Content Writing"},
				{Slug: "mid", Category: "Content"},
			}
			recs := scoring.Match(a, catalog)

			Convey("Then match is non-increasing and within bounds", func() {
				So(recs, ShouldHaveLength, 3)
				So(recs[0].Slug, ShouldEqual, "high")
				for i, r := range recs {
					So(r.Match, ShouldBeBetweenOrEqual, 50, 95)
					if i > 0 {
						So(r.Match, ShouldBeLessThanOrEqualTo, recs[i-1].Match)
					}
				}
			})
		})

		Convey("When a custom limit is configured", func() {
			m := scoring.NewMatcher(scoring.WithMaxResults(1), scoring.WithMaxResults(0))
			recs := m.Match(a, []model.Tool{{Slug: "x", Category: "Writing"}, {Slug: "y", Category: "Writing"}})

			Convey("Then it is honoured and invalid values are ignored", func() {
				So(recs, ShouldHaveLength, 1)
			})
		})
	})
}
