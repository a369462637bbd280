package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/whetstone/internal/streak"
)

const streakRowID = "default"

// StreakStore implements streak persistence backed by SQLite.
type StreakStore struct {
	db *DB
}

// NewStreakStore creates a new SQLite-backed streak store.
func NewStreakStore(db *DB) *StreakStore {
	return &StreakStore{db: db}
}

// Load returns the persisted record, or a zero record before any
// session has been completed.
func (s *StreakStore) Load() (streak.Record, error) {
	var rec streak.Record
	var lastDate sql.NullString

	err := s.db.QueryRow(`
		SELECT current_streak, longest_streak, last_session_date, total_sessions
		FROM streaks WHERE id = ?`, streakRowID,
	).Scan(&rec.CurrentStreak, &rec.LongestStreak, &lastDate, &rec.TotalSessions)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return streak.Record{}, nil
		}
		return streak.Record{}, fmt.Errorf("load streak: %w", err)
	}

	if lastDate.Valid {
		rec.LastSessionDate = lastDate.String
	}
	return rec, nil
}

// Save persists the record.
func (s *StreakStore) Save(rec streak.Record) error {
	_, err := s.db.Exec(`
		INSERT INTO streaks (id, current_streak, longest_streak, last_session_date, total_sessions)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			current_streak=excluded.current_streak,
			longest_streak=excluded.longest_streak,
			last_session_date=excluded.last_session_date,
			total_sessions=excluded.total_sessions`,
		streakRowID, rec.CurrentStreak, rec.LongestStreak,
		nullableString(rec.LastSessionDate), rec.TotalSessions,
	)
	if err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
