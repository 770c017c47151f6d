// Package repository provides the tool, post and click stores that feed the
// scoring core.
package repository

import (
	"context"
	"time"

	"github.com/okian/toolscout/internal/domain/model"
)

// CatalogProvider supplies the published tool catalog in a stable order.
type CatalogProvider interface {
	PublishedTools(ctx context.Context) ([]model.Tool, error)
}

// ContentProvider supplies published blog posts.
type ContentProvider interface {
	PublishedPosts(ctx context.Context) ([]model.Post, error)
	// PostBySlug returns ErrNotFound for unknown or unpublished slugs.
	PostBySlug(ctx context.Context, slug string) (model.Post, error)
}

// EventProvider supplies raw click events and the reference entity list.
type EventProvider interface {
	// ClickEvents returns events at or after since; the zero time means all.
	ClickEvents(ctx context.Context, since time.Time) ([]model.ClickEvent, error)
	// EntityIDs lists every published tool id, in catalog order.
	EntityIDs(ctx context.Context) ([]string, error)
}

// EventAppender persists ingested clicks.
type EventAppender interface {
	AppendClick(ctx context.Context, ev model.ClickEvent) error
}

// Writer seeds catalog and content.
type Writer interface {
	SaveTool(ctx context.Context, t model.Tool, published bool) error
	SavePost(ctx context.Context, p model.Post, published bool) error
}

// Store is the full read/write surface.
type Store interface {
	CatalogProvider
	ContentProvider
	EventProvider
	EventAppender
	Writer
	Close() error
}
