package model

import "time"

// Post is a published blog post as seen by the related-content ranker.
type Post struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title,omitempty"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// RelatedPost is a candidate post with its derived relevance score.
type RelatedPost struct {
	Post
	Score int `json:"relevance_score"`
}
