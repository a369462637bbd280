package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/whetstone/internal/achievement"
)

const (
	kindBadge = "badge"
	kindTitle = "title"

	settingSelectedTitle = "selected_title"
)

// AchievementStore implements achievement state persistence backed by
// SQLite.
type AchievementStore struct {
	db *DB
}

// NewAchievementStore creates a new SQLite-backed achievement store.
func NewAchievementStore(db *DB) *AchievementStore {
	return &AchievementStore{db: db}
}

// LoadBadges returns the persisted badge states.
func (s *AchievementStore) LoadBadges() ([]achievement.State, error) {
	return s.loadStates(kindBadge)
}

// LoadTitles returns the persisted title states.
func (s *AchievementStore) LoadTitles() ([]achievement.State, error) {
	return s.loadStates(kindTitle)
}

// Save persists both state lists in one transaction.
func (s *AchievementStore) Save(badges, titles []achievement.State) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	upsert, err := tx.Prepare(`
		INSERT INTO achievement_states (id, kind, unlocked, unlocked_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id, kind) DO UPDATE SET
			unlocked=excluded.unlocked,
			unlocked_at=excluded.unlocked_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer upsert.Close()

	for _, state := range badges {
		if _, err := upsert.Exec(state.ID, kindBadge, state.Unlocked, nullTime(state.UnlockedAt)); err != nil {
			return fmt.Errorf("upsert badge %s: %w", state.ID, err)
		}
	}
	for _, state := range titles {
		if _, err := upsert.Exec(state.ID, kindTitle, state.Unlocked, nullTime(state.UnlockedAt)); err != nil {
			return fmt.Errorf("upsert title %s: %w", state.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SelectedTitle returns the display title id, empty when unset.
func (s *AchievementStore) SelectedTitle() (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", settingSelectedTitle).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("load selected title: %w", err)
	}
	return value, nil
}

// SetSelectedTitle persists the display title id.
func (s *AchievementStore) SetSelectedTitle(id string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		settingSelectedTitle, id,
	)
	if err != nil {
		return fmt.Errorf("save selected title: %w", err)
	}
	return nil
}

func (s *AchievementStore) loadStates(kind string) ([]achievement.State, error) {
	rows, err := s.db.Query(
		"SELECT id, unlocked, unlocked_at FROM achievement_states WHERE kind = ?", kind)
	if err != nil {
		return nil, fmt.Errorf("query %s states: %w", kind, err)
	}
	defer rows.Close()

	var states []achievement.State
	for rows.Next() {
		var state achievement.State
		var unlockedAt sql.NullTime
		if err := rows.Scan(&state.ID, &state.Unlocked, &unlockedAt); err != nil {
			return nil, fmt.Errorf("scan %s state: %w", kind, err)
		}
		if unlockedAt.Valid {
			t := unlockedAt.Time
			state.UnlockedAt = &t
		}
		states = append(states, state)
	}
	return states, rows.Err()
}

// nullTime converts a *time.Time to sql.NullTime for storage.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
