package model

import (
	"fmt"
	"strings"
)

// Tool is a published catalog entry. Rating and ReviewCount are optional;
// a nil value forfeits the bonuses that depend on it.
type Tool struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
}

// Recommendation is a scored quiz result. Match is always within [50, 95].
type Recommendation struct {
	Slug   string `json:"slug"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Match  int    `json:"match"`
}

// QuizResult is the answer to a quiz submission.
type QuizResult struct {
	Recommendations []Recommendation `json:"recommendations"`
	// SubmissionID is set when the answers were forwarded to the
	// subscription endpoint.
	SubmissionID string `json:"submission_id,omitempty"`
}

// Quiz answer codes.
const (
	GoalContent      = "content"
	GoalImage        = "image"
	GoalVideo        = "video"
	GoalCode         = "code"
	GoalMarketing    = "marketing"
	GoalProductivity = "productivity"
	GoalResearch     = "research"

	TeamSolo   = "solo"
	TeamSmall  = "small"
	TeamMedium = "medium"
	TeamLarge  = "large"

	BudgetFree   = "free"
	BudgetLow    = "low"
	BudgetMedium = "medium"
	BudgetHigh   = "high"

	ExperienceBeginner     = "beginner"
	ExperienceIntermediate = "intermediate"
	ExperienceAdvanced     = "advanced"

	UseCaseBlog        = "blog"
	UseCaseSocial      = "social"
	UseCaseSEO         = "seo"
	UseCaseDesign      = "design"
	UseCaseDevelopment = "development"
	UseCaseAll         = "all"

	PriorityQuality = "quality"
	PrioritySEO     = "seo"
	PrioritySpeed   = "speed"
	PriorityPrice   = "price"
)

var answerCodes = map[string][]string{
	"goal":       {GoalContent, GoalImage, GoalVideo, GoalCode, GoalMarketing, GoalProductivity, GoalResearch},
	"team_size":  {TeamSolo, TeamSmall, TeamMedium, TeamLarge},
	"budget":     {BudgetFree, BudgetLow, BudgetMedium, BudgetHigh},
	"experience": {ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced},
	"use_case":   {UseCaseBlog, UseCaseSocial, UseCaseSEO, UseCaseDesign, UseCaseDevelopment, UseCaseAll},
	"priority":   {PriorityQuality, PrioritySEO, PrioritySpeed, PriorityPrice},
}

// QuizAnswers is the fixed-shape questionnaire. Email is only collected after
// recommendations are revealed and does not influence scoring.
type QuizAnswers struct {
	Goal       string `json:"goal"`
	TeamSize   string `json:"team_size"`
	Budget     string `json:"budget"`
	Experience string `json:"experience"`
	UseCase    string `json:"use_case"`
	Priority   string `json:"priority"`
	Email      string `json:"email,omitempty"`
}

func (a QuizAnswers) fields() [][2]string {
	return [][2]string{
		{"goal", a.Goal},
		{"team_size", a.TeamSize},
		{"budget", a.Budget},
		{"experience", a.Experience},
		{"use_case", a.UseCase},
		{"priority", a.Priority},
	}
}

// Complete reports whether all six questionnaire fields are answered.
func (a QuizAnswers) Complete() bool {
	for _, f := range a.fields() {
		if strings.TrimSpace(f[1]) == "" {
			return false
		}
	}
	return true
}

// Validate checks that every field is present and carries a known code.
func (a QuizAnswers) Validate() error {
	for _, f := range a.fields() {
		name, val := f[0], f[1]
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("%w: missing %s", ErrInvalidAnswers, name)
		}
		if !knownCode(answerCodes[name], val) {
			return fmt.Errorf("%w: unknown %s %q", ErrInvalidAnswers, name, val)
		}
	}
	return nil
}

func knownCode(codes []string, v string) bool {
	for _, c := range codes {
		if c == v {
			return true
		}
	}
	return false
}
