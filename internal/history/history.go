// Package history keeps the per-language log of completed review
// sessions. Each language partition is capped; a separate lifetime
// counter preserves long-run totals across evictions.
package history

import (
	"github.com/felixgeelhaar/whetstone/internal/domain"
)

// MaxEntriesPerLanguage caps each language partition. The oldest entry
// is evicted first (insertion order, not score or any other priority).
const MaxEntriesPerLanguage = 20

// Store is the persistence contract for review history. Both the JSON
// file store and the SQLite store implement this.
type Store interface {
	// Append inserts an entry at the head of its language partition,
	// evicts beyond MaxEntriesPerLanguage and increments the lifetime
	// counter for that language.
	Append(entry domain.Entry) error

	// All returns every retained entry, newest-first per language.
	All() (map[domain.Language][]domain.Entry, error)

	// ByLanguage returns the retained entries for one language,
	// newest-first. A language with no history yields an empty slice.
	ByLanguage(lang domain.Language) ([]domain.Entry, error)

	// Delete removes one entry by id. Deleting an unknown id is a
	// no-op. The lifetime counter is never touched by deletion:
	// removing history does not undo a completed session.
	Delete(lang domain.Language, id string) error

	// TotalCounts returns the lifetime session count per language.
	// Counts never decrease; they are not derivable from retained
	// entries once eviction has occurred.
	TotalCounts() (map[domain.Language]int, error)
}

// Flatten merges a per-language history map into a single slice.
// Ordering across languages is unspecified; callers that care about
// order sort by timestamp themselves.
func Flatten(all map[domain.Language][]domain.Entry) []domain.Entry {
	var entries []domain.Entry
	for _, lang := range domain.Languages {
		entries = append(entries, all[lang]...)
	}
	return entries
}
