package achievement

import (
	"github.com/felixgeelhaar/whetstone/internal/domain"
	"github.com/felixgeelhaar/whetstone/internal/streak"
)

// Stats is the snapshot of progress that badge conditions evaluate
// against. Session totals come from the streak record and the lifetime
// counters, which outlive history eviction; score and level figures
// derive from retained entries.
type Stats struct {
	CurrentStreak      int
	LongestStreak      int
	TotalSessions      int
	LanguagesPracticed int
	MaxScore           int
	PerfectCount       int
	MaxLevel           domain.Level
	TopLevelClears     map[domain.Language]int
}

// BuildStats derives a stats snapshot in a single pass over history.
func BuildStats(entries []domain.Entry, rec streak.Record, counts map[domain.Language]int) Stats {
	stats := Stats{
		CurrentStreak:  rec.CurrentStreak,
		LongestStreak:  rec.LongestStreak,
		TotalSessions:  rec.TotalSessions,
		TopLevelClears: make(map[domain.Language]int),
	}

	for _, n := range counts {
		if n > 0 {
			stats.LanguagesPracticed++
		}
	}

	for _, e := range entries {
		if e.EvaluationResult.TotalScore > stats.MaxScore {
			stats.MaxScore = e.EvaluationResult.TotalScore
		}
		if e.EvaluationResult.TotalScore == domain.PerfectScore {
			stats.PerfectCount++
		}
		if e.Problem.Level > stats.MaxLevel {
			stats.MaxLevel = e.Problem.Level
		}
		if e.Problem.Level == domain.MaxLevel {
			stats.TopLevelClears[e.Language]++
		}
	}
	return stats
}
