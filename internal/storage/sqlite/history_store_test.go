package sqlite

import (
	"fmt"
	"testing"
	"time"

	"github.com/felixgeelhaar/whetstone/internal/domain"
	"github.com/felixgeelhaar/whetstone/internal/history"
)

func sqliteEntry(lang domain.Language, id string, ts time.Time, score int) domain.Entry {
	return domain.Entry{
		ID:       id,
		Language: lang,
		Problem: domain.Problem{
			Language:            lang,
			Code:                "for i := 0; i <= len(xs); i++ {}",
			Level:               3,
			RequiredIssuesCount: 1,
			RequiredIssues:      []domain.Issue{{Summary: "off by one", Detail: "<= runs past the end"}},
		},
		UserAnswer:       "loop bound is wrong",
		EvaluationResult: domain.EvaluationResult{TotalScore: score},
		Timestamp:        ts,
	}
}

func TestHistoryStoreAppendAndRead(t *testing.T) {
	store := NewHistoryStore(openTestDB(t))
	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	if err := store.Append(sqliteEntry(domain.LangGo, "a", base, 80)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Append(sqliteEntry(domain.LangGo, "b", base.Add(time.Hour), 90)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	entries, err := store.ByLanguage(domain.LangGo)
	if err != nil {
		t.Fatalf("ByLanguage() error = %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "b" {
		t.Fatalf("expected newest-first [b a], got %v", entries)
	}
	if entries[0].Problem.RequiredIssues[0].Summary != "off by one" {
		t.Errorf("expected problem JSON to round-trip, got %+v", entries[0].Problem)
	}
	if entries[0].EvaluationResult.TotalScore != 90 {
		t.Errorf("expected evaluation JSON to round-trip, got %+v", entries[0].EvaluationResult)
	}
}

func TestHistoryStoreEvictsBeyondCap(t *testing.T) {
	store := NewHistoryStore(openTestDB(t))
	base := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	total := history.MaxEntriesPerLanguage + 7
	for i := 0; i < total; i++ {
		entry := sqliteEntry(domain.LangPython, fmt.Sprintf("p-%d", i), base.Add(time.Duration(i)*time.Minute), 70)
		if err := store.Append(entry); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	entries, err := store.ByLanguage(domain.LangPython)
	if err != nil {
		t.Fatalf("ByLanguage() error = %v", err)
	}
	if len(entries) != history.MaxEntriesPerLanguage {
		t.Fatalf("expected %d retained entries, got %d", history.MaxEntriesPerLanguage, len(entries))
	}
	if entries[0].ID != fmt.Sprintf("p-%d", total-1) {
		t.Errorf("expected newest entry retained, got %s", entries[0].ID)
	}

	counts, err := store.TotalCounts()
	if err != nil {
		t.Fatalf("TotalCounts() error = %v", err)
	}
	if counts[domain.LangPython] != total {
		t.Errorf("expected lifetime count %d, got %d", total, counts[domain.LangPython])
	}
}

func TestHistoryStoreDelete(t *testing.T) {
	store := NewHistoryStore(openTestDB(t))
	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	if err := store.Append(sqliteEntry(domain.LangJava, "j1", base, 60)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Delete(domain.LangJava, "j1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(domain.LangJava, "missing"); err != nil {
		t.Fatalf("Delete() of unknown id error = %v", err)
	}

	entries, err := store.ByLanguage(domain.LangJava)
	if err != nil {
		t.Fatalf("ByLanguage() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty history, got %d entries", len(entries))
	}

	counts, err := store.TotalCounts()
	if err != nil {
		t.Fatalf("TotalCounts() error = %v", err)
	}
	if counts[domain.LangJava] != 1 {
		t.Errorf("expected lifetime count untouched at 1, got %d", counts[domain.LangJava])
	}
}

func TestHistoryStoreAllGroupsByLanguage(t *testing.T) {
	store := NewHistoryStore(openTestDB(t))
	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	if err := store.Append(sqliteEntry(domain.LangGo, "g1", base, 80)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Append(sqliteEntry(domain.LangRuby, "r1", base, 70)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	all, err := store.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 2 || len(all[domain.LangGo]) != 1 || len(all[domain.LangRuby]) != 1 {
		t.Errorf("expected one entry per language, got %v", all)
	}
}
