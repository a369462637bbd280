package achievement

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/whetstone/internal/storage/local"
)

const (
	collectionAchievements = "achievements"
	badgesID               = "badges"
	titlesID               = "titles"
	settingsID             = "settings"
)

// Store persists unlock states and the selected display title.
type Store interface {
	LoadBadges() ([]State, error)
	LoadTitles() ([]State, error)
	Save(badges, titles []State) error
	SelectedTitle() (string, error)
	SetSelectedTitle(id string) error
}

type settings struct {
	SelectedTitle string `json:"selected_title,omitempty"`
}

// LocalStore implements Store on the JSON file store.
type LocalStore struct {
	store *local.Store
}

// NewLocalStore creates a JSON-file-backed achievement store.
func NewLocalStore(basePath string) (*LocalStore, error) {
	store, err := local.NewStore(basePath)
	if err != nil {
		return nil, err
	}
	return &LocalStore{store: store}, nil
}

// LoadBadges returns the persisted badge states. Before the first
// evaluation there are none, which the engine treats as all-locked.
func (s *LocalStore) LoadBadges() ([]State, error) {
	return s.loadStates(badgesID)
}

// LoadTitles returns the persisted title states.
func (s *LocalStore) LoadTitles() ([]State, error) {
	return s.loadStates(titlesID)
}

// Save persists both state lists.
func (s *LocalStore) Save(badges, titles []State) error {
	if err := s.store.Save(collectionAchievements, badgesID, badges); err != nil {
		return fmt.Errorf("save badge states: %w", err)
	}
	if err := s.store.Save(collectionAchievements, titlesID, titles); err != nil {
		return fmt.Errorf("save title states: %w", err)
	}
	return nil
}

// SelectedTitle returns the display title id, empty when unset.
func (s *LocalStore) SelectedTitle() (string, error) {
	var cfg settings
	err := s.store.Load(collectionAchievements, settingsID, &cfg)
	if err != nil && !errors.Is(err, local.ErrNotFound) {
		return "", fmt.Errorf("load achievement settings: %w", err)
	}
	return cfg.SelectedTitle, nil
}

// SetSelectedTitle persists the display title id.
func (s *LocalStore) SetSelectedTitle(id string) error {
	if err := s.store.Save(collectionAchievements, settingsID, settings{SelectedTitle: id}); err != nil {
		return fmt.Errorf("save achievement settings: %w", err)
	}
	return nil
}

func (s *LocalStore) loadStates(id string) ([]State, error) {
	var states []State
	err := s.store.Load(collectionAchievements, id, &states)
	if err != nil && !errors.Is(err, local.ErrNotFound) {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	return states, nil
}

var _ Store = (*LocalStore)(nil)
