package streak

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/whetstone/internal/storage/local"
)

const (
	collectionStreak = "streak"
	recordID         = "default"
)

// Store persists the single streak record.
type Store interface {
	Load() (Record, error)
	Save(rec Record) error
}

// LocalStore implements Store on the JSON file store.
type LocalStore struct {
	store *local.Store
}

// NewLocalStore creates a JSON-file-backed streak store.
func NewLocalStore(basePath string) (*LocalStore, error) {
	store, err := local.NewStore(basePath)
	if err != nil {
		return nil, err
	}
	return &LocalStore{store: store}, nil
}

// Load returns the persisted record, or a zero record before any
// session has been completed.
func (s *LocalStore) Load() (Record, error) {
	var rec Record
	err := s.store.Load(collectionStreak, recordID, &rec)
	if err != nil && !errors.Is(err, local.ErrNotFound) {
		return Record{}, fmt.Errorf("load streak: %w", err)
	}
	return rec, nil
}

// Save persists the record.
func (s *LocalStore) Save(rec Record) error {
	if err := s.store.Save(collectionStreak, recordID, rec); err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}

var _ Store = (*LocalStore)(nil)
