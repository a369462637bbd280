package history

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/whetstone/internal/domain"
	"github.com/felixgeelhaar/whetstone/internal/storage/local"
)

const (
	collectionHistory  = "history"
	collectionCounters = "counters"
	counterID          = "languages"
)

// LocalStore implements Store backed by per-language JSON files.
type LocalStore struct {
	store *local.Store
}

// NewLocalStore creates a JSON-file-backed history store.
func NewLocalStore(basePath string) (*LocalStore, error) {
	store, err := local.NewStore(basePath)
	if err != nil {
		return nil, err
	}
	return &LocalStore{store: store}, nil
}

// Append inserts the entry at the head of its partition, truncates to
// MaxEntriesPerLanguage and increments the lifetime counter. The
// partition and the counter are two separate documents written in
// sequence; if the second write is lost the counter may lag true
// lifetime usage, which is an accepted approximation.
func (s *LocalStore) Append(entry domain.Entry) error {
	partition, err := s.partition(entry.Language)
	if err != nil {
		return err
	}

	partition = append([]domain.Entry{entry}, partition...)
	if len(partition) > MaxEntriesPerLanguage {
		partition = partition[:MaxEntriesPerLanguage]
	}

	if err := s.store.Save(collectionHistory, string(entry.Language), partition); err != nil {
		return fmt.Errorf("save partition: %w", err)
	}

	counts, err := s.TotalCounts()
	if err != nil {
		return err
	}
	counts[entry.Language]++
	if err := s.store.Save(collectionCounters, counterID, counts); err != nil {
		return fmt.Errorf("save counters: %w", err)
	}
	return nil
}

// All returns every retained entry keyed by language.
func (s *LocalStore) All() (map[domain.Language][]domain.Entry, error) {
	all := make(map[domain.Language][]domain.Entry)
	for _, lang := range domain.Languages {
		partition, err := s.partition(lang)
		if err != nil {
			return nil, err
		}
		if len(partition) > 0 {
			all[lang] = partition
		}
	}
	return all, nil
}

// ByLanguage returns the retained entries for one language.
func (s *LocalStore) ByLanguage(lang domain.Language) ([]domain.Entry, error) {
	return s.partition(lang)
}

// Delete removes one entry by id; unknown ids are a no-op.
func (s *LocalStore) Delete(lang domain.Language, id string) error {
	partition, err := s.partition(lang)
	if err != nil {
		return err
	}

	kept := partition[:0]
	for _, e := range partition {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(partition) {
		return nil
	}

	if err := s.store.Save(collectionHistory, string(lang), kept); err != nil {
		return fmt.Errorf("save partition: %w", err)
	}
	return nil
}

// TotalCounts returns the lifetime session count per language.
func (s *LocalStore) TotalCounts() (map[domain.Language]int, error) {
	counts := make(map[domain.Language]int)
	err := s.store.Load(collectionCounters, counterID, &counts)
	if err != nil && !errors.Is(err, local.ErrNotFound) {
		return nil, fmt.Errorf("load counters: %w", err)
	}
	return counts, nil
}

func (s *LocalStore) partition(lang domain.Language) ([]domain.Entry, error) {
	var partition []domain.Entry
	err := s.store.Load(collectionHistory, string(lang), &partition)
	if err != nil && !errors.Is(err, local.ErrNotFound) {
		return nil, fmt.Errorf("load partition: %w", err)
	}
	return partition, nil
}

var _ Store = (*LocalStore)(nil)
