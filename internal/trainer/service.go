// Package trainer orchestrates a review session end to end:
// problem generation, answer grading, then history, streak and
// achievement bookkeeping.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/whetstone/internal/achievement"
	"github.com/felixgeelhaar/whetstone/internal/domain"
	"github.com/felixgeelhaar/whetstone/internal/heatmap"
	"github.com/felixgeelhaar/whetstone/internal/history"
	"github.com/felixgeelhaar/whetstone/internal/problem"
	"github.com/felixgeelhaar/whetstone/internal/streak"
)

var (
	ErrTitleLocked  = errors.New("title not unlocked")
	ErrTitleUnknown = errors.New("unknown title")
)

// UnlockQueue is where achievement unlock events are published.
const UnlockQueue = "whetstone.unlocks"

// Publisher publishes bookkeeping events to a message queue. It is a
// best-effort side channel; publish failures never fail a session.
type Publisher interface {
	PublishJSON(ctx context.Context, queue string, v any) error
}

// UnlockEvent is the queue payload for one new badge or title.
type UnlockEvent struct {
	Kind       string    `json:"kind"` // "badge" or "title"
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Rarity     string    `json:"rarity"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// Outcome is everything a presentation layer needs after a submission.
type Outcome struct {
	Entry     domain.Entry        `json:"entry"`
	Streak    streak.Record       `json:"streak"`
	NewBadges []achievement.Badge `json:"new_badges,omitempty"`
	NewTitles []achievement.Title `json:"new_titles,omitempty"`
}

// Service wires the session pipeline together.
type Service struct {
	generator    problem.Generator
	evaluator    problem.Evaluator
	history      history.Store
	streaks      streak.Store
	achievements achievement.Store
	engine       *achievement.Engine
	publisher    Publisher
	logger       *slog.Logger
	now          func() time.Time

	// Serializes submissions so history, streak and achievement
	// writes from overlapping sessions cannot interleave.
	mu sync.Mutex
}

// Config holds the service dependencies.
type Config struct {
	Generator    problem.Generator
	Evaluator    problem.Evaluator
	History      history.Store
	Streaks      streak.Store
	Achievements achievement.Store
	Engine       *achievement.Engine
	Publisher    Publisher // optional
	Logger       *slog.Logger
	Now          func() time.Time // optional, defaults to time.Now
}

// NewService creates a trainer service.
func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		generator:    cfg.Generator,
		evaluator:    cfg.Evaluator,
		history:      cfg.History,
		streaks:      cfg.Streaks,
		achievements: cfg.Achievements,
		engine:       cfg.Engine,
		publisher:    cfg.Publisher,
		logger:       cfg.Logger,
		now:          cfg.Now,
	}
}

// Generate produces a fresh review problem.
func (s *Service) Generate(ctx context.Context, lang domain.Language, level domain.Level) (domain.Problem, error) {
	return s.generator.Generate(ctx, lang, level)
}

// Submit grades the answer and runs all bookkeeping. Grading failures
// fail the submission; bookkeeping failures are logged and the graded
// result is still returned, so a full disk never eats a session.
func (s *Service) Submit(ctx context.Context, prob domain.Problem, userAnswer string) (Outcome, error) {
	result, err := s.evaluator.Evaluate(ctx, prob, userAnswer)
	if err != nil {
		return Outcome{}, fmt.Errorf("evaluate submission: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry := domain.NewEntry(prob.Language, prob, userAnswer, result)
	entry.Timestamp = now

	outcome := Outcome{Entry: entry}

	if err := s.history.Append(entry); err != nil {
		s.logger.Warn("history append failed", "error", err, "entry_id", entry.ID)
	}

	rec, err := s.streaks.Load()
	if err != nil {
		s.logger.Warn("streak load failed", "error", err)
	}
	rec = streak.Advance(rec, now)
	if err := s.streaks.Save(rec); err != nil {
		s.logger.Warn("streak save failed", "error", err)
	}
	outcome.Streak = rec

	newBadges, newTitles := s.applyAchievements(rec, now)
	outcome.NewBadges = newBadges
	outcome.NewTitles = newTitles
	s.publishUnlocks(ctx, newBadges, newTitles)

	return outcome, nil
}

// Streak returns the current streak record.
func (s *Service) Streak() (streak.Record, error) {
	return s.streaks.Load()
}

// RebuildStreak recomputes the streak record from raw history and
// persists it. Used after history edits or imports, where the
// incremental record may no longer match reality.
func (s *Service) RebuildStreak() (streak.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.history.All()
	if err != nil {
		return streak.Record{}, fmt.Errorf("load history: %w", err)
	}
	rec := streak.FromEntries(history.Flatten(all), s.now())
	if err := s.streaks.Save(rec); err != nil {
		return streak.Record{}, fmt.Errorf("save streak: %w", err)
	}
	return rec, nil
}

// Heatmap aggregates history into daily activity over the window.
func (s *Service) Heatmap(windowDays int) ([]heatmap.DayActivity, error) {
	all, err := s.history.All()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return heatmap.Generate(history.Flatten(all), s.now(), windowDays), nil
}

// History returns the retained entries for one language, or for all
// languages when lang is empty.
func (s *Service) History(lang domain.Language) ([]domain.Entry, error) {
	if lang != "" {
		return s.history.ByLanguage(lang)
	}
	all, err := s.history.All()
	if err != nil {
		return nil, err
	}
	entries := history.Flatten(all)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

// DeleteEntry removes one history entry. Streak and achievements are
// left untouched: deletion hides a record, it does not undo practice.
func (s *Service) DeleteEntry(lang domain.Language, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Delete(lang, id)
}

// Achievements returns the full badge and title tables joined with
// their unlock state, plus the selected display title.
func (s *Service) Achievements() ([]achievement.Badge, []achievement.Title, string, error) {
	badgeStates, err := s.achievements.LoadBadges()
	if err != nil {
		return nil, nil, "", err
	}
	titleStates, err := s.achievements.LoadTitles()
	if err != nil {
		return nil, nil, "", err
	}
	selected, err := s.achievements.SelectedTitle()
	if err != nil {
		return nil, nil, "", err
	}
	return s.engine.JoinBadges(badgeStates), s.engine.JoinTitles(titleStates), selected, nil
}

// SelectTitle sets the display title. Only unlocked titles qualify.
func (s *Service) SelectTitle(id string) error {
	if _, ok := s.engine.Registry().TitleByID(id); !ok {
		return fmt.Errorf("%w: %s", ErrTitleUnknown, id)
	}
	states, err := s.achievements.LoadTitles()
	if err != nil {
		return err
	}
	for _, state := range states {
		if state.ID == id && state.Unlocked {
			return s.achievements.SetSelectedTitle(id)
		}
	}
	return fmt.Errorf("%w: %s", ErrTitleLocked, id)
}

// applyAchievements rebuilds stats and advances unlock state. All
// errors are fail-open.
func (s *Service) applyAchievements(rec streak.Record, now time.Time) ([]achievement.Badge, []achievement.Title) {
	all, err := s.history.All()
	if err != nil {
		s.logger.Warn("history load failed during achievement check", "error", err)
		return nil, nil
	}
	counts, err := s.history.TotalCounts()
	if err != nil {
		s.logger.Warn("counter load failed during achievement check", "error", err)
		return nil, nil
	}

	priorBadges, err := s.achievements.LoadBadges()
	if err != nil {
		s.logger.Warn("badge state load failed", "error", err)
		return nil, nil
	}
	priorTitles, err := s.achievements.LoadTitles()
	if err != nil {
		s.logger.Warn("title state load failed", "error", err)
		return nil, nil
	}

	stats := achievement.BuildStats(history.Flatten(all), rec, counts)
	result := s.engine.Evaluate(stats, priorBadges, priorTitles, now)

	if err := s.achievements.Save(result.Badges, result.Titles); err != nil {
		s.logger.Warn("achievement save failed", "error", err)
	}

	var badges []achievement.Badge
	for _, id := range result.NewBadges {
		if def, ok := s.engine.Registry().BadgeByID(id); ok {
			badges = append(badges, achievement.Badge{BadgeDef: def, Unlocked: true, UnlockedAt: &now})
		}
	}
	var titles []achievement.Title
	for _, id := range result.NewTitles {
		if def, ok := s.engine.Registry().TitleByID(id); ok {
			titles = append(titles, achievement.Title{TitleDef: def, Unlocked: true, UnlockedAt: &now})
		}
	}
	return badges, titles
}

func (s *Service) publishUnlocks(ctx context.Context, badges []achievement.Badge, titles []achievement.Title) {
	if s.publisher == nil {
		return
	}
	publish := func(event UnlockEvent) {
		if err := s.publisher.PublishJSON(ctx, UnlockQueue, event); err != nil {
			s.logger.Warn("unlock publish failed", "error", err, "id", event.ID)
		}
	}
	for _, b := range badges {
		publish(UnlockEvent{Kind: "badge", ID: b.ID, Name: b.Name, Rarity: string(b.Rarity), UnlockedAt: *b.UnlockedAt})
	}
	for _, t := range titles {
		publish(UnlockEvent{Kind: "title", ID: t.ID, Name: t.Name, Rarity: string(t.Rarity), UnlockedAt: *t.UnlockedAt})
	}
}
