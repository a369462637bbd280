// Package streak tracks consecutive-day practice streaks. Days are
// compared as calendar dates in the user's local timezone, not as
// 24-hour windows, so a session at 23:59 followed by one at 00:01
// still extends the streak.
package streak

import (
	"sort"
	"time"

	"github.com/felixgeelhaar/whetstone/internal/domain"
)

// dayLayout is the canonical calendar-date form used for streak math.
const dayLayout = "2006-01-02"

// Record is the current streak state.
type Record struct {
	CurrentStreak   int    `json:"current_streak"`
	LongestStreak   int    `json:"longest_streak"`
	LastSessionDate string `json:"last_session_date,omitempty"` // YYYY-MM-DD
	TotalSessions   int    `json:"total_sessions"`
}

// DayOf reduces a timestamp to its local calendar date.
func DayOf(t time.Time) string {
	return t.Format(dayLayout)
}

// daysBetween returns the whole calendar days from a to b. Dates are
// re-parsed in UTC so the difference is an exact multiple of 24h
// regardless of DST transitions between the two days.
func daysBetween(a, b string) int {
	ta, err := time.Parse(dayLayout, a)
	if err != nil {
		return 0
	}
	tb, err := time.Parse(dayLayout, b)
	if err != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}

// Advance folds one newly completed session into the record. Another
// session on the same day only bumps the session total; the next
// calendar day extends the streak; any larger gap resets it to 1.
func Advance(rec Record, now time.Time) Record {
	today := DayOf(now)
	rec.TotalSessions++

	if rec.LastSessionDate == "" {
		rec.CurrentStreak = 1
		rec.LastSessionDate = today
		if rec.LongestStreak < 1 {
			rec.LongestStreak = 1
		}
		return rec
	}

	switch d := daysBetween(rec.LastSessionDate, today); {
	case d <= 0:
		// Same day, or clock skew moving the date backwards.
	case d == 1:
		rec.CurrentStreak++
		rec.LastSessionDate = today
	default:
		rec.CurrentStreak = 1
		rec.LastSessionDate = today
	}

	if rec.CurrentStreak > rec.LongestStreak {
		rec.LongestStreak = rec.CurrentStreak
	}
	return rec
}

// FromEntries recomputes the full record from raw history. It walks
// the distinct session days newest-first as runs of consecutive dates:
// the first run is the current streak provided it reaches today or
// yesterday, and the longest run is the longest streak ever.
//
// For any history, folding its sessions through Advance one day at a
// time yields the same record this produces.
func FromEntries(entries []domain.Entry, now time.Time) Record {
	if len(entries) == 0 {
		return Record{}
	}

	seen := make(map[string]struct{})
	for _, e := range entries {
		seen[DayOf(e.Timestamp)] = struct{}{}
	}
	days := make([]string, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	rec := Record{
		TotalSessions:   len(entries),
		LastSessionDate: days[0],
	}

	newest := 1
	for i := 1; i < len(days) && daysBetween(days[i], days[i-1]) == 1; i++ {
		newest++
	}

	run := 1
	longest := 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i], days[i-1]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	rec.LongestStreak = longest

	// The newest run counts as the current streak only if it is still
	// alive: its most recent day is today or yesterday.
	if daysBetween(days[0], DayOf(now)) <= 1 {
		rec.CurrentStreak = newest
	}
	return rec
}
