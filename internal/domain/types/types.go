// Package types contains common types used across the application
package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRange is returned by ParseRange for unknown selectors.
var ErrInvalidRange = errors.New("invalid range")

// Range is the dashboard-level selector that gates click totals.
type Range string

// Supported ranges.
const (
	RangeAll   Range = "all"
	Range7d    Range = "7d"
	Range30d   Range = "30d"
	RangeMonth Range = "month"
)

const day = 24 * time.Hour

// ParseRange converts a query value to a Range. Empty input means RangeAll.
func ParseRange(s string) (Range, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RangeAll, nil
	case RangeAll, Range7d, Range30d, RangeMonth:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q (want all, 7d, 30d or month)", ErrInvalidRange, s)
	}
}

func (r Range) String() string { return string(r) }

// Since returns the inclusive lower bound of the range relative to now.
// The zero time is returned for RangeAll and unknown values.
func (r Range) Since(now time.Time) time.Time {
	switch r {
	case Range7d:
		return SevenDaysBefore(now)
	case Range30d:
		return now.Add(-30 * day)
	case RangeMonth:
		return MonthStart(now)
	default:
		return time.Time{}
	}
}

// Contains reports whether t falls inside the range ending at now.
func (r Range) Contains(t, now time.Time) bool {
	since := r.Since(now)
	return since.IsZero() || !t.Before(since)
}

// SevenDaysBefore is the lower bound of the rolling seven day window.
func SevenDaysBefore(now time.Time) time.Time { return now.Add(-7 * day) }

// MonthStart returns midnight on the first day of now's month, in now's location.
func MonthStart(now time.Time) time.Time {
	y, m, _ := now.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
}
