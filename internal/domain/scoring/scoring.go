// Package scoring matches quiz answers against the tool catalog.
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/toolscout/internal/domain/model"
	"golang.org/x/text/cases"
)

// Default matcher configuration constants.
const (
	defaultMaxResults = 3
	baseMatch         = 50
	maxMatch          = 95

	goalBonus = 30

	advancedBonus        = 10
	advancedMinReviews   = 3000
	beginnerBonus        = 5
	beginnerMaxReviews   = 1000
	qualityTopBonus      = 15
	qualityTopRating     = 4.7
	qualityGoodBonus     = 10
	qualityGoodRating    = 4.5
	seoPriorityBonus     = 20
	speedPriorityBonus   = 10
	allUseCaseFlatBonus  = 10
	seoMarker            = "seo"
	fallbackCategoryName = "AI"
)

// goalKeywords maps each goal code to the category keyword it favours.
var goalKeywords = map[string]string{
	model.GoalContent:      "writing",
	model.GoalImage:        "image",
	model.GoalVideo:        "video",
	model.GoalCode:         "code",
	model.GoalMarketing:    "marketing",
	model.GoalProductivity: "productivity",
	model.GoalResearch:     "research",
}

type useCaseRule struct {
	keywords []string // any match earns the bonus once
	bonus    int
}

var useCaseRules = map[string]useCaseRule{
	model.UseCaseBlog:        {keywords: []string{"writing", "content"}, bonus: 25},
	model.UseCaseSocial:      {keywords: []string{"social", "marketing"}, bonus: 20},
	model.UseCaseSEO:         {keywords: []string{"seo"}, bonus: 20},
	model.UseCaseDesign:      {keywords: []string{"image", "design"}, bonus: 30},
	model.UseCaseDevelopment: {keywords: []string{"code", "developer"}, bonus: 30},
}

var speedKeywords = []string{"writing", "automation"}

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithMaxResults caps the number of recommendations returned.
func WithMaxResults(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.maxResults = n
		}
	}
}

// Matcher ranks catalog tools against a questionnaire. It holds no state
// between calls and is safe for concurrent use.
type Matcher struct {
	maxResults int
}

// NewMatcher creates a matcher with configuration options.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{maxResults: defaultMaxResults}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match returns up to three recommendations using the default matcher.
func Match(answers model.QuizAnswers, catalog []model.Tool) []model.Recommendation {
	return NewMatcher().Match(answers, catalog)
}

// Match scores every tool, drops non-positive scores, keeps the first tool
// seen for each slug and returns the best matches, highest first. Ties keep
// catalog order. The result is never nil.
func (m *Matcher) Match(answers model.QuizAnswers, catalog []model.Tool) []model.Recommendation {
	// cases.Caser is stateful, so each call gets its own.
	fold := cases.Fold()

	out := make([]model.Recommendation, 0, min(len(catalog), m.maxResults))
	seen := make(map[string]struct{}, len(catalog))
	for i := range catalog {
		t := &catalog[i]
		raw := rawScore(fold, answers, t)
		if raw <= 0 {
			continue
		}
		if _, dup := seen[t.Slug]; dup {
			continue
		}
		seen[t.Slug] = struct{}{}
		out = append(out, model.Recommendation{
			Slug:   t.Slug,
			Name:   t.Name,
			Reason: reason(answers, t),
			Match:  clampMatch(raw),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Match > out[j].Match })
	if len(out) > m.maxResults {
		out = out[:m.maxResults]
	}
	return out
}

// RawScore exposes the unclamped score of a single tool.
func RawScore(answers model.QuizAnswers, t model.Tool) int {
	return rawScore(cases.Fold(), answers, &t)
}

// rawScore sums the independent rules. A category holding several keywords
// may satisfy more than one rule; each rule still counts.
func rawScore(fold cases.Caser, a model.QuizAnswers, t *model.Tool) int {
	category := fold.String(t.Category)
	score := 0

	if kw, ok := goalKeywords[a.Goal]; ok && strings.Contains(category, kw) {
		score += goalBonus
	}

	if a.UseCase == model.UseCaseAll {
		score += allUseCaseFlatBonus
	} else if rule, ok := useCaseRules[a.UseCase]; ok && containsAny(category, rule.keywords) {
		score += rule.bonus
	}

	switch a.Experience {
	case model.ExperienceAdvanced:
		if t.ReviewCount != nil && *t.ReviewCount > advancedMinReviews {
			score += advancedBonus
		}
	case model.ExperienceBeginner:
		if t.ReviewCount != nil && *t.ReviewCount < beginnerMaxReviews {
			score += beginnerBonus
		}
	}

	switch a.Priority {
	case model.PriorityQuality:
		if t.Rating != nil {
			switch {
			case *t.Rating >= qualityTopRating:
				score += qualityTopBonus
			case *t.Rating >= qualityGoodRating:
				score += qualityGoodBonus
			}
		}
	case model.PrioritySEO:
		if strings.Contains(category, seoMarker) {
			score += seoPriorityBonus
		}
	case model.PrioritySpeed:
		if containsAny(category, speedKeywords) {
			score += speedPriorityBonus
		}
	}

	return score
}

func clampMatch(raw int) int {
	return min(maxMatch, baseMatch+raw)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func reason(a model.QuizAnswers, t *model.Tool) string {
	category := strings.TrimSpace(t.Category)
	if category == "" {
		category = fallbackCategoryName
	}
	if a.Goal == "" {
		return fmt.Sprintf("A strong %s tool for your workflow", category)
	}
	return fmt.Sprintf("A strong %s tool for your %s goals", category, a.Goal)
}
