package mcp

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/felixgeelhaar/whetstone/internal/achievement"
	"github.com/felixgeelhaar/whetstone/internal/history"
	"github.com/felixgeelhaar/whetstone/internal/problem"
	"github.com/felixgeelhaar/whetstone/internal/streak"
	"github.com/felixgeelhaar/whetstone/internal/trainer"
)

// setupTestServer creates a test MCP server over a mock trainer pipeline
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	histStore, err := history.NewLocalStore(dir)
	if err != nil {
		t.Fatalf("create history store: %v", err)
	}
	streakStore, err := streak.NewLocalStore(dir)
	if err != nil {
		t.Fatalf("create streak store: %v", err)
	}
	achStore, err := achievement.NewLocalStore(dir)
	if err != nil {
		t.Fatalf("create achievement store: %v", err)
	}

	svc := trainer.NewService(trainer.Config{
		Generator:    problem.MockGenerator{},
		Evaluator:    problem.MockEvaluator{},
		History:      histStore,
		Streaks:      streakStore,
		Achievements: achStore,
		Engine:       achievement.NewEngine(achievement.Default()),
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return NewServer(Config{Trainer: svc})
}

func TestHandleProblem(t *testing.T) {
	server := setupTestServer(t)

	out, err := server.handleProblem(context.Background(), ProblemInput{Language: "Go", Level: 5})
	if err != nil {
		t.Fatalf("handleProblem() error = %v", err)
	}
	if out.ProblemID == "" {
		t.Error("expected a problem id for later submission")
	}
	if out.Language != "Go" || out.Level != 5 {
		t.Errorf("expected requested language and level echoed, got %s/%d", out.Language, out.Level)
	}
	if out.Code == "" {
		t.Error("expected problem code")
	}
}

func TestHandleProblem_RejectsInvalid(t *testing.T) {
	server := setupTestServer(t)

	if _, err := server.handleProblem(context.Background(), ProblemInput{Language: "COBOL", Level: 5}); err == nil {
		t.Error("expected error for unsupported language")
	}
	if _, err := server.handleProblem(context.Background(), ProblemInput{Language: "Go", Level: 0}); err == nil {
		t.Error("expected error for out-of-range level")
	}
}

func TestHandleSubmit_Flow(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	prob, err := server.handleProblem(ctx, ProblemInput{Language: "Go", Level: 5})
	if err != nil {
		t.Fatalf("handleProblem() error = %v", err)
	}

	out, err := server.handleSubmit(ctx, SubmitInput{
		ProblemID: prob.ProblemID,
		Answer:    "The login query concatenates user input into SQL.",
	})
	if err != nil {
		t.Fatalf("handleSubmit() error = %v", err)
	}
	if out.TotalScore == 0 {
		t.Error("expected a graded score")
	}
	if out.CurrentStreak != 1 {
		t.Errorf("expected streak of 1 after first session, got %d", out.CurrentStreak)
	}

	// The problem ticket is consumed on submission
	if _, err := server.handleSubmit(ctx, SubmitInput{ProblemID: prob.ProblemID, Answer: "again"}); err == nil {
		t.Error("expected error when resubmitting a consumed problem")
	}
}

func TestHandleSubmit_RejectsUnknownAndEmpty(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	if _, err := server.handleSubmit(ctx, SubmitInput{ProblemID: "nope", Answer: "text"}); err == nil {
		t.Error("expected error for unknown problem id")
	}
	if _, err := server.handleSubmit(ctx, SubmitInput{ProblemID: "nope", Answer: "   "}); err == nil {
		t.Error("expected error for blank answer")
	}
}

func TestHandleHistoryAndStreak(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	prob, _ := server.handleProblem(ctx, ProblemInput{Language: "Python", Level: 3})
	if _, err := server.handleSubmit(ctx, SubmitInput{ProblemID: prob.ProblemID, Answer: "found it"}); err != nil {
		t.Fatalf("handleSubmit() error = %v", err)
	}

	hist, err := server.handleHistory(ctx, HistoryInput{Language: "Python"})
	if err != nil {
		t.Fatalf("handleHistory() error = %v", err)
	}
	if len(hist.Entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(hist.Entries))
	}
	if hist.Entries[0].Language != "Python" {
		t.Errorf("expected Python entry, got %s", hist.Entries[0].Language)
	}

	empty, err := server.handleHistory(ctx, HistoryInput{Language: "Rust"})
	if err != nil {
		t.Fatalf("handleHistory() error = %v", err)
	}
	if len(empty.Entries) != 0 {
		t.Errorf("expected no Rust entries, got %d", len(empty.Entries))
	}

	rec, err := server.handleStreak(ctx, StreakInput{})
	if err != nil {
		t.Fatalf("handleStreak() error = %v", err)
	}
	if rec.TotalSessions != 1 {
		t.Errorf("expected 1 total session, got %d", rec.TotalSessions)
	}
}

func TestHandleAchievementsAndStats(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	ach, err := server.handleAchievements(ctx, AchievementsInput{})
	if err != nil {
		t.Fatalf("handleAchievements() error = %v", err)
	}
	if len(ach.Badges) == 0 || len(ach.Titles) == 0 {
		t.Fatal("expected full badge and title tables")
	}
	for _, b := range ach.Badges {
		if b.Unlocked {
			t.Errorf("badge %s unlocked with no history", b.ID)
		}
	}

	prob, _ := server.handleProblem(ctx, ProblemInput{Language: "Go", Level: 5})
	if _, err := server.handleSubmit(ctx, SubmitInput{ProblemID: prob.ProblemID, Answer: "injection"}); err != nil {
		t.Fatalf("handleSubmit() error = %v", err)
	}

	stats, err := server.handleStats(ctx, StatsInput{})
	if err != nil {
		t.Fatalf("handleStats() error = %v", err)
	}
	if stats.Summary.Streak.TotalSessions != 1 {
		t.Errorf("expected 1 session in summary, got %d", stats.Summary.Streak.TotalSessions)
	}
	if len(stats.Summary.Languages) != 1 {
		t.Errorf("expected 1 language in summary, got %d", len(stats.Summary.Languages))
	}
}
