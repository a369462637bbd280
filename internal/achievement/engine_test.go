package achievement

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/whetstone/internal/domain"
	"github.com/felixgeelhaar/whetstone/internal/streak"
)

func findState(states []State, id string) State {
	for _, s := range states {
		if s.ID == id {
			return s
		}
	}
	return State{}
}

func TestEvaluateUnlocksMatchingBadges(t *testing.T) {
	engine := NewEngine(Default())
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	stats := Stats{CurrentStreak: 3, MaxScore: 88}
	result := engine.Evaluate(stats, nil, nil, now)

	for _, id := range []string{"streak_3", "score_70", "score_85"} {
		state := findState(result.Badges, id)
		if !state.Unlocked {
			t.Errorf("expected %s unlocked", id)
		}
		if state.UnlockedAt == nil || !state.UnlockedAt.Equal(now) {
			t.Errorf("expected %s unlocked at %v, got %v", id, now, state.UnlockedAt)
		}
	}
	if findState(result.Badges, "score_95").Unlocked {
		t.Error("expected score_95 to stay locked")
	}
	if len(result.NewBadges) != 3 {
		t.Errorf("expected 3 new badges, got %v", result.NewBadges)
	}
}

func TestEvaluateUnlockIsMonotonic(t *testing.T) {
	engine := NewEngine(Default())
	day1 := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 10)

	first := engine.Evaluate(Stats{CurrentStreak: 3}, nil, nil, day1)
	if !findState(first.Badges, "streak_3").Unlocked {
		t.Fatal("expected streak_3 unlocked on day 1")
	}

	// Streak has since reset; the badge must stay unlocked with its
	// original unlock time.
	second := engine.Evaluate(Stats{CurrentStreak: 1}, first.Badges, first.Titles, day2)
	state := findState(second.Badges, "streak_3")
	if !state.Unlocked {
		t.Error("expected streak_3 to stay unlocked after streak reset")
	}
	if state.UnlockedAt == nil || !state.UnlockedAt.Equal(day1) {
		t.Errorf("expected original unlock time %v, got %v", day1, state.UnlockedAt)
	}
	if len(second.NewBadges) != 0 {
		t.Errorf("expected no new badges on re-evaluation, got %v", second.NewBadges)
	}
}

func TestEvaluateNewcomerTitleOnAnyBadge(t *testing.T) {
	engine := NewEngine(Default())
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	result := engine.Evaluate(Stats{MaxScore: 72}, nil, nil, now)

	if !findState(result.Titles, "title_newcomer").Unlocked {
		t.Error("expected title_newcomer to unlock with the first badge")
	}
	if findState(result.Titles, "title_perfectionist").Unlocked {
		t.Error("expected title_perfectionist to stay locked without perfect_1")
	}
}

func TestEvaluateTitleRequiresAllBadges(t *testing.T) {
	engine := NewEngine(Default())
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	counts := map[domain.Language]int{
		domain.LangGo: 1, domain.LangRust: 1, domain.LangPython: 1,
		domain.LangJava: 1, domain.LangRuby: 1,
	}

	partial := engine.Evaluate(BuildStats(nil, streak.Record{TotalSessions: 100}, nil), nil, nil, now)
	if findState(partial.Titles, "title_master").Unlocked {
		t.Error("expected title_master locked with only session_100")
	}

	full := engine.Evaluate(BuildStats(nil, streak.Record{TotalSessions: 100}, counts), nil, nil, now)
	if !findState(full.Titles, "title_master").Unlocked {
		t.Error("expected title_master unlocked with session_100 and lang_5")
	}
}

func TestEvaluateStreakTitles(t *testing.T) {
	engine := NewEngine(Default())
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	result := engine.Evaluate(Stats{CurrentStreak: 7}, nil, nil, now)

	if !findState(result.Titles, "title_consistent").Unlocked {
		t.Error("expected title_consistent to follow streak_3")
	}
	if !findState(result.Titles, "title_dedicated").Unlocked {
		t.Error("expected title_dedicated to follow streak_7")
	}
}

func TestEvaluateDropsUnknownStates(t *testing.T) {
	engine := NewEngine(Default())
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	stale := []State{{ID: "badge_retired", Unlocked: true, UnlockedAt: &now}}
	result := engine.Evaluate(Stats{}, stale, nil, now)

	if s := findState(result.Badges, "badge_retired"); s.ID != "" {
		t.Errorf("expected retired badge state to be dropped, got %+v", s)
	}
	if len(result.Badges) != len(engine.Registry().Badges) {
		t.Errorf("expected one state per registry badge, got %d", len(result.Badges))
	}
}

func TestEvaluateMasterBadge(t *testing.T) {
	engine := NewEngine(Default())
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	stats := Stats{TopLevelClears: map[domain.Language]int{domain.LangGo: 10}}
	result := engine.Evaluate(stats, nil, nil, now)

	if !findState(result.Badges, "master_go").Unlocked {
		t.Error("expected master_go unlocked after 10 level-10 clears")
	}
	if findState(result.Badges, "master_rust").Unlocked {
		t.Error("expected master_rust to stay locked")
	}
}

func TestJoinBadgesWithoutStatesIsAllLocked(t *testing.T) {
	engine := NewEngine(Default())

	badges := engine.JoinBadges(nil)

	if len(badges) != len(engine.Registry().Badges) {
		t.Fatalf("expected %d badges, got %d", len(engine.Registry().Badges), len(badges))
	}
	for _, b := range badges {
		if b.Unlocked {
			t.Errorf("expected %s locked with no stored state", b.ID)
		}
	}
}

func TestRegistryMasterBadgeIDs(t *testing.T) {
	registry := Default()

	for _, id := range []string{"master_csharp", "master_cpp", "master_go", "master_typescript"} {
		if _, ok := registry.BadgeByID(id); !ok {
			t.Errorf("expected badge %s in registry", id)
		}
	}
}

func TestBuildStats(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	entries := []domain.Entry{
		{Language: domain.LangGo, Problem: domain.Problem{Level: 10}, EvaluationResult: domain.EvaluationResult{TotalScore: 100}, Timestamp: now},
		{Language: domain.LangGo, Problem: domain.Problem{Level: 10}, EvaluationResult: domain.EvaluationResult{TotalScore: 85}, Timestamp: now},
		{Language: domain.LangRust, Problem: domain.Problem{Level: 4}, EvaluationResult: domain.EvaluationResult{TotalScore: 60}, Timestamp: now},
	}
	rec := streak.Record{CurrentStreak: 2, LongestStreak: 5, TotalSessions: 40}
	counts := map[domain.Language]int{domain.LangGo: 30, domain.LangRust: 10, domain.LangPHP: 0}

	stats := BuildStats(entries, rec, counts)

	if stats.TotalSessions != 40 {
		t.Errorf("expected lifetime total 40, got %d", stats.TotalSessions)
	}
	if stats.LanguagesPracticed != 2 {
		t.Errorf("expected 2 practiced languages, got %d", stats.LanguagesPracticed)
	}
	if stats.MaxScore != 100 || stats.PerfectCount != 1 {
		t.Errorf("expected max 100 / 1 perfect, got %d/%d", stats.MaxScore, stats.PerfectCount)
	}
	if stats.MaxLevel != 10 {
		t.Errorf("expected max level 10, got %d", stats.MaxLevel)
	}
	if stats.TopLevelClears[domain.LangGo] != 2 {
		t.Errorf("expected 2 level-10 clears in Go, got %d", stats.TopLevelClears[domain.LangGo])
	}
}

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	badges, err := store.LoadBadges()
	if err != nil {
		t.Fatalf("LoadBadges() error = %v", err)
	}
	if len(badges) != 0 {
		t.Errorf("expected no states before first save, got %d", len(badges))
	}

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	wantBadges := []State{{ID: "streak_3", Unlocked: true, UnlockedAt: &now}, {ID: "streak_7"}}
	wantTitles := []State{{ID: "title_newcomer", Unlocked: true, UnlockedAt: &now}}
	if err := store.Save(wantBadges, wantTitles); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	badges, err = store.LoadBadges()
	if err != nil {
		t.Fatalf("LoadBadges() error = %v", err)
	}
	if len(badges) != 2 || !badges[0].Unlocked || badges[0].ID != "streak_3" {
		t.Errorf("unexpected badge states: %+v", badges)
	}
	if badges[0].UnlockedAt == nil || !badges[0].UnlockedAt.Equal(now) {
		t.Errorf("expected unlock time to round-trip, got %v", badges[0].UnlockedAt)
	}

	if err := store.SetSelectedTitle("title_newcomer"); err != nil {
		t.Fatalf("SetSelectedTitle() error = %v", err)
	}
	selected, err := store.SelectedTitle()
	if err != nil {
		t.Fatalf("SelectedTitle() error = %v", err)
	}
	if selected != "title_newcomer" {
		t.Errorf("expected selected title to round-trip, got %q", selected)
	}
}
