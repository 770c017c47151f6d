package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/toolscout/internal/domain/model"
)

type toolRow struct {
	tool      model.Tool
	published bool
}

type postRow struct {
	post      model.Post
	published bool
}

// MemoryStore keeps everything in process memory. Rows keep insertion order;
// saving an existing id updates it in place.
type MemoryStore struct {
	mu     sync.RWMutex
	tools  []toolRow
	posts  []postRow
	clicks []model.ClickEvent
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveTool(_ context.Context, t model.Tool, published bool) error {
	if t.ID == "" || t.Slug == "" {
		return fmt.Errorf("%w: tool needs id and slug", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tools {
		if s.tools[i].tool.ID == t.ID {
			s.tools[i] = toolRow{tool: t, published: published}
			return nil
		}
	}
	s.tools = append(s.tools, toolRow{tool: t, published: published})
	return nil
}

func (s *MemoryStore) SavePost(_ context.Context, p model.Post, published bool) error {
	if p.ID == "" || p.Slug == "" {
		return fmt.Errorf("%w: post needs id and slug", ErrInvalid)
	}
	p.Tags = slices.Clone(p.Tags)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posts {
		if s.posts[i].post.ID == p.ID {
			s.posts[i] = postRow{post: p, published: published}
			return nil
		}
	}
	s.posts = append(s.posts, postRow{post: p, published: published})
	return nil
}

func (s *MemoryStore) PublishedTools(_ context.Context) ([]model.Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Tool, 0, len(s.tools))
	for _, r := range s.tools {
		if r.published {
			out = append(out, r.tool)
		}
	}
	return out, nil
}

func (s *MemoryStore) EntityIDs(ctx context.Context) ([]string, error) {
	tools, err := s.PublishedTools(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(tools))
	for i, t := range tools {
		ids[i] = t.ID
	}
	return ids, nil
}

func (s *MemoryStore) PublishedPosts(_ context.Context) ([]model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Post, 0, len(s.posts))
	for _, r := range s.posts {
		if r.published {
			p := r.post
			p.Tags = slices.Clone(p.Tags)
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) PostBySlug(_ context.Context, slug string) (model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.posts {
		if r.published && r.post.Slug == slug {
			p := r.post
			p.Tags = slices.Clone(p.Tags)
			return p, nil
		}
	}
	return model.Post{}, fmt.Errorf("post %q: %w", slug, ErrNotFound)
}

func (s *MemoryStore) AppendClick(_ context.Context, ev model.ClickEvent) error {
	if ev.EntityID == "" {
		return fmt.Errorf("%w: click needs an entity id", ErrInvalid)
	}
	s.mu.Lock()
	s.clicks = append(s.clicks, ev)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ClickEvents(_ context.Context, since time.Time) ([]model.ClickEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if since.IsZero() {
		return slices.Clone(s.clicks), nil
	}
	out := make([]model.ClickEvent, 0, len(s.clicks))
	for _, ev := range s.clicks {
		if !ev.OccurredAt.Before(since) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
