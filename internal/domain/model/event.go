// Package model contains domain models passed between layers.
package model

import "time"

// ClickEvent is one outbound click on a directory entity (usually a tool).
// Events are append-only and never mutated after ingestion.
type ClickEvent struct {
	EventID    string    `json:"event_id"`    // idempotency key, may be empty for imported history
	EntityID   string    `json:"entity_id"`   // tool id the click belongs to
	OccurredAt time.Time `json:"occurred_at"` // zero value means unknown and is skipped by aggregation
}

// StatsBucket holds the per-entity click counters.
// Total is gated by the dashboard range, the other two are not.
type StatsBucket struct {
	Total     int `json:"total"`
	Last7Days int `json:"last_7_days"`
	ThisMonth int `json:"this_month"`
}

// EntityStats pairs an entity id with its bucket, keeping output order explicit.
type EntityStats struct {
	EntityID string      `json:"entity_id"`
	Stats    StatsBucket `json:"stats"`
}

// DashboardSummary is the roll-up shown above the per-entity table.
type DashboardSummary struct {
	TotalClicks    int     `json:"total_clicks"`
	ActiveEntities int     `json:"active_entities"`
	TopEntity      string  `json:"top_entity,omitempty"`
	Average        float64 `json:"average"`
	AverageText    string  `json:"average_text"` // Average rendered with one decimal place
}

// ClickReport is the result of one aggregation call.
type ClickReport struct {
	Range    string           `json:"range"`
	Now      time.Time        `json:"now"`
	Entities []EntityStats    `json:"entities"`
	Summary  DashboardSummary `json:"summary"`
}

// Bucket returns the stats for id and whether it is present.
func (r ClickReport) Bucket(id string) (StatsBucket, bool) {
	for _, e := range r.Entities {
		if e.EntityID == id {
			return e.Stats, true
		}
	}
	return StatsBucket{}, false
}

// ByEntity returns the buckets keyed by entity id.
func (r ClickReport) ByEntity() map[string]StatsBucket {
	out := make(map[string]StatsBucket, len(r.Entities))
	for _, e := range r.Entities {
		out[e.EntityID] = e.Stats
	}
	return out
}

// GlobalCounts is the coarse, ungrouped variant of the click dashboard.
type GlobalCounts struct {
	Total     int `json:"total"`
	Last7Days int `json:"last_7_days"`
	ThisMonth int `json:"this_month"`
}

// ClickAck reports the outcome of recording one click.
type ClickAck struct {
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}
