package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/okian/toolscout/internal/domain/model"
)

// timeLayout is fixed width and always UTC so stored timestamps sort
// lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore persists the catalog, posts and clicks in a single SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the store at path. The special path ":memory:"
// gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: a single writer, and ":memory:" is per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db, path: path}
	if path != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tools (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		rating REAL,
		review_count INTEGER,
		published INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		published INTEGER NOT NULL DEFAULT 0
	);

	-- Clicks are append-only.
	CREATE TABLE IF NOT EXISTS clicks (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id TEXT NOT NULL DEFAULT '',
		entity_id TEXT NOT NULL,
		occurred_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_clicks_occurred ON clicks(occurred_at);
	CREATE INDEX IF NOT EXISTS idx_clicks_entity ON clicks(entity_id);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLiteStore) SaveTool(ctx context.Context, t model.Tool, published bool) error {
	if t.ID == "" || t.Slug == "" {
		return fmt.Errorf("%w: tool needs id and slug", ErrInvalid)
	}
	var rating sql.NullFloat64
	if t.Rating != nil {
		rating = sql.NullFloat64{Float64: *t.Rating, Valid: true}
	}
	var reviews sql.NullInt64
	if t.ReviewCount != nil {
		reviews = sql.NullInt64{Int64: int64(*t.ReviewCount), Valid: true}
	}

	// Upsert keeps the rowid, so catalog order stays insertion order.
	query := `
	INSERT INTO tools (id, slug, name, category, rating, review_count, published)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		slug = excluded.slug,
		name = excluded.name,
		category = excluded.category,
		rating = excluded.rating,
		review_count = excluded.review_count,
		published = excluded.published
	`
	if _, err := s.db.ExecContext(ctx, query, t.ID, t.Slug, t.Name, t.Category, rating, reviews, published); err != nil {
		return fmt.Errorf("save tool %s: %w", t.ID, err)
	}
	return nil
}

func (s *SQLiteStore) SavePost(ctx context.Context, p model.Post, published bool) error {
	if p.ID == "" || p.Slug == "" {
		return fmt.Errorf("%w: post needs id and slug", ErrInvalid)
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("serialize tags: %w", err)
	}

	query := `
	INSERT INTO posts (id, slug, title, category, tags, created_at, published)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		slug = excluded.slug,
		title = excluded.title,
		category = excluded.category,
		tags = excluded.tags,
		created_at = excluded.created_at,
		published = excluded.published
	`
	_, err = s.db.ExecContext(ctx, query, p.ID, p.Slug, p.Title, p.Category, string(tagsJSON), formatTime(p.CreatedAt), published)
	if err != nil {
		return fmt.Errorf("save post %s: %w", p.ID, err)
	}
	return nil
}

func (s *SQLiteStore) PublishedTools(ctx context.Context) ([]model.Tool, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, slug, name, category, rating, review_count
	FROM tools WHERE published = 1 ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query tools: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Tool
	for rows.Next() {
		var (
			t       model.Tool
			rating  sql.NullFloat64
			reviews sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name, &t.Category, &rating, &reviews); err != nil {
			return nil, fmt.Errorf("scan tool: %w", err)
		}
		if rating.Valid {
			v := rating.Float64
			t.Rating = &v
		}
		if reviews.Valid {
			v := int(reviews.Int64)
			t.ReviewCount = &v
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) EntityIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM tools WHERE published = 1 ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query tool ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tool id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const postColumns = `id, slug, title, category, tags, created_at`

func scanPost(row interface{ Scan(...any) error }) (model.Post, error) {
	var (
		p         model.Post
		tagsJSON  string
		createdAt string
	)
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Category, &tagsJSON, &createdAt); err != nil {
		return model.Post{}, err
	}
	// Bad tags or timestamps degrade to "no tags" / zero time.
	if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
		p.Tags = nil
	}
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}

func (s *SQLiteStore) PublishedPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts WHERE published = 1 ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) PostBySlug(ctx context.Context, slug string) (model.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE published = 1 AND slug = ?`, slug)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Post{}, fmt.Errorf("post %q: %w", slug, ErrNotFound)
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("query post %q: %w", slug, err)
	}
	return p, nil
}

func (s *SQLiteStore) AppendClick(ctx context.Context, ev model.ClickEvent) error {
	if ev.EntityID == "" {
		return fmt.Errorf("%w: click needs an entity id", ErrInvalid)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clicks (event_id, entity_id, occurred_at) VALUES (?, ?, ?)`,
		ev.EventID, ev.EntityID, formatTime(ev.OccurredAt))
	if err != nil {
		return fmt.Errorf("append click: %w", err)
	}
	return nil
}

// ClickEvents returns events in insertion order. Rows whose timestamp does not
// parse come back with a zero OccurredAt; they are only returned when since
// is zero.
func (s *SQLiteStore) ClickEvents(ctx context.Context, since time.Time) ([]model.ClickEvent, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if since.IsZero() {
		rows, err = s.db.QueryContext(ctx, `SELECT event_id, entity_id, occurred_at FROM clicks ORDER BY seq`)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT event_id, entity_id, occurred_at FROM clicks WHERE occurred_at >= ? ORDER BY seq`,
			formatTime(since))
	}
	if err != nil {
		return nil, fmt.Errorf("query clicks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.ClickEvent
	for rows.Next() {
		var (
			ev model.ClickEvent
			at string
		)
		if err := rows.Scan(&ev.EventID, &ev.EntityID, &at); err != nil {
			return nil, fmt.Errorf("scan click: %w", err)
		}
		ev.OccurredAt = parseTime(at)
		if !since.IsZero() && ev.OccurredAt.IsZero() {
			continue
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

var _ Store = (*SQLiteStore)(nil)
