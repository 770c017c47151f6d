// Package clicks aggregates click events into per-entity windowed counters
// and dashboard roll-ups.
package clicks

import (
	"strconv"
	"time"

	"github.com/okian/toolscout/internal/domain/model"
	"github.com/okian/toolscout/internal/domain/types"
)

// windows holds the absolute bounds shared by every event in one call.
type windows struct {
	now        time.Time
	rng        types.Range
	last7      time.Time
	monthStart time.Time
}

func newWindows(now time.Time, r types.Range) windows {
	return windows{
		now:        now,
		rng:        r,
		last7:      types.SevenDaysBefore(now),
		monthStart: types.MonthStart(now),
	}
}

func valid(ev *model.ClickEvent) bool {
	return ev.EntityID != "" && !ev.OccurredAt.IsZero()
}

// Aggregate counts events per entity in a single pass.
//
// Total is gated by r. Last7Days and ThisMonth are always measured against
// now, whatever r is. Entities from the reference list come first, in order,
// even without events; entities only seen in events follow in first-seen
// order. Events with an empty entity id or zero timestamp are skipped.
func Aggregate(events []model.ClickEvent, now time.Time, r types.Range, entities []string) model.ClickReport {
	w := newWindows(now, r)

	out := make([]model.EntityStats, 0, len(entities))
	index := make(map[string]int, len(entities))
	slot := func(id string) *model.StatsBucket {
		i, ok := index[id]
		if !ok {
			i = len(out)
			index[id] = i
			out = append(out, model.EntityStats{EntityID: id})
		}
		return &out[i].Stats
	}
	for _, id := range entities {
		if id != "" {
			slot(id)
		}
	}

	for i := range events {
		ev := &events[i]
		if !valid(ev) {
			continue
		}
		b := slot(ev.EntityID)
		if w.rng.Contains(ev.OccurredAt, w.now) {
			b.Total++
		}
		if !ev.OccurredAt.Before(w.last7) {
			b.Last7Days++
		}
		if !ev.OccurredAt.Before(w.monthStart) {
			b.ThisMonth++
		}
	}

	return model.ClickReport{
		Range:    r.String(),
		Now:      now,
		Entities: out,
		Summary:  Summarize(out),
	}
}

// Summarize rolls buckets up for the dashboard header. The top entity is the
// first one in slice order holding the highest total.
func Summarize(stats []model.EntityStats) model.DashboardSummary {
	var s model.DashboardSummary
	best := 0
	for _, e := range stats {
		s.TotalClicks += e.Stats.Total
		if e.Stats.Total > 0 {
			s.ActiveEntities++
		}
		if e.Stats.Total > best {
			best = e.Stats.Total
			s.TopEntity = e.EntityID
		}
	}
	if s.ActiveEntities > 0 {
		s.Average = float64(s.TotalClicks) / float64(s.ActiveEntities)
	}
	s.AverageText = strconv.FormatFloat(s.Average, 'f', 1, 64)
	return s
}

// Global counts an ungrouped stream with the same window rules.
func Global(events []model.ClickEvent, now time.Time) model.GlobalCounts {
	w := newWindows(now, types.RangeAll)
	var g model.GlobalCounts
	for i := range events {
		ev := &events[i]
		if ev.OccurredAt.IsZero() {
			continue
		}
		g.Total++
		if !ev.OccurredAt.Before(w.last7) {
			g.Last7Days++
		}
		if !ev.OccurredAt.Before(w.monthStart) {
			g.ThisMonth++
		}
	}
	return g
}
