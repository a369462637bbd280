package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/whetstone/internal/domain"
	"github.com/felixgeelhaar/whetstone/internal/history"
)

// HistoryStore implements history persistence backed by SQLite.
type HistoryStore struct {
	db *DB
}

// NewHistoryStore creates a new SQLite-backed history store.
func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Append inserts the entry, evicts the oldest rows beyond the
// per-language cap and bumps the lifetime counter, all in one
// transaction.
func (s *HistoryStore) Append(entry domain.Entry) error {
	problemJSON, err := json.Marshal(entry.Problem)
	if err != nil {
		return fmt.Errorf("marshal problem: %w", err)
	}
	evalJSON, err := json.Marshal(entry.EvaluationResult)
	if err != nil {
		return fmt.Errorf("marshal evaluation: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO history_entries (id, language, problem, user_answer, evaluation, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, string(entry.Language), string(problemJSON),
		entry.UserAnswer, string(evalJSON), entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	_, err = tx.Exec(`
		DELETE FROM history_entries
		WHERE language = ? AND id NOT IN (
			SELECT id FROM history_entries
			WHERE language = ?
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		)`,
		string(entry.Language), string(entry.Language), history.MaxEntriesPerLanguage,
	)
	if err != nil {
		return fmt.Errorf("evict overflow: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO language_counts (language, sessions) VALUES (?, 1)
		ON CONFLICT(language) DO UPDATE SET sessions = sessions + 1`,
		string(entry.Language),
	)
	if err != nil {
		return fmt.Errorf("bump counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// All returns every retained entry keyed by language, newest-first.
func (s *HistoryStore) All() (map[domain.Language][]domain.Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, language, problem, user_answer, evaluation, created_at
		FROM history_entries
		ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	all := make(map[domain.Language][]domain.Entry)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		all[entry.Language] = append(all[entry.Language], entry)
	}
	return all, rows.Err()
}

// ByLanguage returns the retained entries for one language, newest-first.
func (s *HistoryStore) ByLanguage(lang domain.Language) ([]domain.Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, language, problem, user_answer, evaluation, created_at
		FROM history_entries
		WHERE language = ?
		ORDER BY created_at DESC, rowid DESC`, string(lang))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Delete removes one entry; unknown ids are a no-op.
func (s *HistoryStore) Delete(lang domain.Language, id string) error {
	_, err := s.db.Exec(
		"DELETE FROM history_entries WHERE language = ? AND id = ?",
		string(lang), id,
	)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// TotalCounts returns the lifetime session count per language.
func (s *HistoryStore) TotalCounts() (map[domain.Language]int, error) {
	rows, err := s.db.Query("SELECT language, sessions FROM language_counts")
	if err != nil {
		return nil, fmt.Errorf("query counters: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Language]int)
	for rows.Next() {
		var lang string
		var n int
		if err := rows.Scan(&lang, &n); err != nil {
			return nil, fmt.Errorf("scan counter: %w", err)
		}
		counts[domain.Language(lang)] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (domain.Entry, error) {
	var entry domain.Entry
	var lang, problemJSON, evalJSON string

	if err := row.Scan(&entry.ID, &lang, &problemJSON, &entry.UserAnswer, &evalJSON, &entry.Timestamp); err != nil {
		return domain.Entry{}, fmt.Errorf("scan entry: %w", err)
	}

	entry.Language = domain.Language(lang)
	if err := json.Unmarshal([]byte(problemJSON), &entry.Problem); err != nil {
		return domain.Entry{}, fmt.Errorf("unmarshal problem: %w", err)
	}
	if err := json.Unmarshal([]byte(evalJSON), &entry.EvaluationResult); err != nil {
		return domain.Entry{}, fmt.Errorf("unmarshal evaluation: %w", err)
	}
	return entry, nil
}
