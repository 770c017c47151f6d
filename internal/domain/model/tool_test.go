package model_test

import (
	"errors"
	"testing"

	model "github.com/okian/toolscout/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func completeAnswers() model.QuizAnswers {
	return model.QuizAnswers{
		Goal:       model.GoalContent,
		TeamSize:   model.TeamSolo,
		Budget:     model.BudgetFree,
		Experience: model.ExperienceBeginner,
		UseCase:    model.UseCaseBlog,
		Priority:   model.PriorityQuality,
	}
}

func TestQuizAnswers_Validate(t *testing.T) {
	convey.Convey("Given quiz answers", t, func() {
		convey.Convey("When every field carries a known code", func() {
			a := completeAnswers()

			convey.Convey("Then they validate and are complete", func() {
				convey.So(a.Validate(), convey.ShouldBeNil)
				convey.So(a.Complete(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a field is missing", func() {
			a := completeAnswers()
			a.Priority = "  "

			convey.Convey("Then validation names the field", func() {
				err := a.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, model.ErrInvalidAnswers), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "missing priority")
				convey.So(a.Complete(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When a field carries an unknown code", func() {
			a := completeAnswers()
			a.Goal = "world-domination"

			convey.Convey("Then validation rejects it", func() {
				err := a.Validate()
				convey.So(errors.Is(err, model.ErrInvalidAnswers), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "unknown goal")
				convey.So(a.Complete(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When only the email is missing", func() {
			a := completeAnswers()
			a.Email = ""

			convey.Convey("Then the answers are still valid", func() {
				convey.So(a.Validate(), convey.ShouldBeNil)
			})
		})
	})
}
