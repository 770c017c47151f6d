// Package related ranks blog posts by relevance to a target post.
package related

import (
	"sort"

	"github.com/okian/toolscout/internal/domain/model"
)

const (
	defaultLimit  = 3
	categoryBonus = 3
	tagBonus      = 1
)

// Rank returns up to three candidates ordered by score, then recency, then
// slug. The target itself is skipped by slug. There is no score threshold,
// so unrelated posts fill the remaining slots newest first.
func Rank(target model.Post, candidates []model.Post) []model.RelatedPost {
	return RankN(target, candidates, defaultLimit)
}

// RankN is Rank with an explicit limit. A non-positive limit means no limit.
func RankN(target model.Post, candidates []model.Post, limit int) []model.RelatedPost {
	targetTags := make(map[string]struct{}, len(target.Tags))
	for _, tag := range target.Tags {
		targetTags[tag] = struct{}{}
	}

	out := make([]model.RelatedPost, 0, len(candidates))
	for _, c := range candidates {
		if c.Slug == target.Slug {
			continue
		}
		out = append(out, model.RelatedPost{Post: c, Score: Score(target.Category, targetTags, c)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Slug < b.Slug
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Score is the relevance of candidate c. Category equality is exact and
// case-sensitive; each distinct shared tag adds one point.
func Score(category string, tags map[string]struct{}, c model.Post) int {
	score := 0
	if category != "" && c.Category == category {
		score += categoryBonus
	}
	counted := make(map[string]struct{}, len(c.Tags))
	for _, tag := range c.Tags {
		if _, ok := tags[tag]; !ok {
			continue
		}
		if _, dup := counted[tag]; dup {
			continue
		}
		counted[tag] = struct{}{}
		score += tagBonus
	}
	return score
}
