// Package heatmap aggregates review history into per-day activity
// counts over a rolling window, for calendar-style rendering.
package heatmap

import (
	"time"

	"github.com/felixgeelhaar/whetstone/internal/domain"
	"github.com/felixgeelhaar/whetstone/internal/streak"
)

// DefaultWindowDays is the rolling window length, today inclusive.
const DefaultWindowDays = 365

// SessionSummary is the per-session detail carried in a day bucket.
type SessionSummary struct {
	Language  domain.Language `json:"language"`
	Score     int             `json:"score"`
	Timestamp time.Time       `json:"timestamp"`
}

// DayActivity is one calendar day's bucket.
type DayActivity struct {
	Date     string           `json:"date"` // YYYY-MM-DD
	Count    int              `json:"count"`
	Sessions []SessionSummary `json:"sessions,omitempty"`
}

// Generate buckets entries into exactly windowDays days ending today,
// oldest first. Days without sessions are present with a zero count;
// entries outside the window are dropped.
func Generate(entries []domain.Entry, now time.Time, windowDays int) []DayActivity {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	byDay := make(map[string][]SessionSummary)
	for _, e := range entries {
		day := streak.DayOf(e.Timestamp)
		byDay[day] = append(byDay[day], SessionSummary{
			Language:  e.Language,
			Score:     e.EvaluationResult.TotalScore,
			Timestamp: e.Timestamp,
		})
	}

	days := make([]DayActivity, 0, windowDays)
	for offset := windowDays - 1; offset >= 0; offset-- {
		date := streak.DayOf(now.AddDate(0, 0, -offset))
		sessions := byDay[date]
		days = append(days, DayActivity{
			Date:     date,
			Count:    len(sessions),
			Sessions: sessions,
		})
	}
	return days
}

// Level maps a day's session count to a render intensity from 0
// (none) to 4 (five or more sessions).
func Level(count int) int {
	switch {
	case count <= 0:
		return 0
	case count == 1:
		return 1
	case count == 2:
		return 2
	case count <= 4:
		return 3
	default:
		return 4
	}
}
