package sqlite

import (
	"github.com/felixgeelhaar/whetstone/internal/achievement"
	"github.com/felixgeelhaar/whetstone/internal/history"
	"github.com/felixgeelhaar/whetstone/internal/streak"
)

// Compile-time checks that the SQLite stores satisfy the same
// contracts as the JSON file stores.
var (
	_ history.Store     = (*HistoryStore)(nil)
	_ streak.Store      = (*StreakStore)(nil)
	_ achievement.Store = (*AchievementStore)(nil)
)
