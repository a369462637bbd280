// Package mcp exposes the trainer as MCP tools so editor agents can
// run review sessions without talking HTTP.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/whetstone/internal/domain"
	"github.com/felixgeelhaar/whetstone/internal/trainer"
)

// Server wraps the MCP server with whetstone functionality
type Server struct {
	mcpServer *server.Server
	trainer   *trainer.Service

	// Problems handed out but not yet submitted, keyed by problem ID.
	// Lets whetstone_submit reference a problem by ID instead of
	// round-tripping the whole document through the agent.
	mu      sync.Mutex
	pending map[string]domain.Problem
}

// Config contains configuration for the MCP server
type Config struct {
	Trainer *trainer.Service
}

// NewServer creates a new MCP server for whetstone
func NewServer(cfg Config) *Server {
	s := &Server{
		trainer: cfg.Trainer,
		pending: make(map[string]domain.Problem),
	}

	s.mcpServer = server.New(server.Info{
		Name:    "whetstone",
		Version: "0.1.0",
	}, server.WithInstructions(`
Whetstone is a code review training tool. It generates buggy code
snippets, grades your review of them, and tracks streaks and
achievements over time.

Available tools:
- whetstone_problem: Generate a review problem for a language and level
- whetstone_submit: Submit a review of a generated problem for grading
- whetstone_history: List past review sessions
- whetstone_streak: Get the current practice streak
- whetstone_achievements: List badges and titles with unlock state
- whetstone_stats: Get aggregate progress statistics

Levels run from 1 (trivial) to 10 (hardest). A review should name each
planted issue, where it is, and why it matters.
`))

	s.registerTools()

	return s
}

// registerTools registers all whetstone MCP tools
func (s *Server) registerTools() {
	s.mcpServer.Tool("whetstone_problem").
		Description("Generate a code review problem for a language and difficulty level.").
		Handler(s.handleProblem)

	s.mcpServer.Tool("whetstone_submit").
		Description("Submit a review of a previously generated problem for grading.").
		Handler(s.handleSubmit)

	s.mcpServer.Tool("whetstone_history").
		Description("List past review sessions, optionally filtered by language.").
		Handler(s.handleHistory)

	s.mcpServer.Tool("whetstone_streak").
		Description("Get the current and longest practice streak.").
		Handler(s.handleStreak)

	s.mcpServer.Tool("whetstone_achievements").
		Description("List all badges and titles with their unlock state.").
		Handler(s.handleAchievements)

	s.mcpServer.Tool("whetstone_stats").
		Description("Get aggregate progress statistics across languages.").
		Handler(s.handleStats)
}

// Input/Output types for tools

type ProblemInput struct {
	Language string `json:"language" jsonschema:"description=Programming language,enum=Kotlin,enum=Swift,enum=JavaScript,enum=TypeScript,enum=Python,enum=Java,enum=C#,enum=Go,enum=Rust,enum=PHP,enum=Ruby,enum=C++"`
	Level    int    `json:"level" jsonschema:"description=Difficulty from 1 to 10"`
}

type ProblemOutput struct {
	ProblemID      string `json:"problem_id"`
	Language       string `json:"language"`
	Level          int    `json:"level"`
	Prerequisite   string `json:"prerequisite,omitempty"`
	Code           string `json:"code"`
	RequiredIssues int    `json:"required_issues"`
}

type SubmitInput struct {
	ProblemID string `json:"problem_id" jsonschema:"description=Problem ID from whetstone_problem"`
	Answer    string `json:"answer" jsonschema:"description=The review text naming each issue found"`
}

type SubmitOutput struct {
	TotalScore    int      `json:"total_score"`
	Feedback      string   `json:"feedback"`
	CurrentStreak int      `json:"current_streak"`
	NewBadges     []string `json:"new_badges,omitempty"`
	NewTitles     []string `json:"new_titles,omitempty"`
}

type HistoryInput struct {
	Language string `json:"language,omitempty" jsonschema:"description=Filter by language, empty for all"`
}

type HistoryEntry struct {
	ID        string `json:"id"`
	Language  string `json:"language"`
	Level     int    `json:"level"`
	Score     int    `json:"score"`
	Timestamp string `json:"timestamp"`
}

type HistoryOutput struct {
	Entries []HistoryEntry `json:"entries"`
}

type StreakInput struct{}

type StreakOutput struct {
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	TotalSessions int    `json:"total_sessions"`
	LastSession   string `json:"last_session,omitempty"`
}

type AchievementsInput struct{}

type AchievementItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Rarity   string `json:"rarity"`
	Unlocked bool   `json:"unlocked"`
}

type AchievementsOutput struct {
	Badges        []AchievementItem `json:"badges"`
	Titles        []AchievementItem `json:"titles"`
	SelectedTitle string            `json:"selected_title,omitempty"`
}

type StatsInput struct{}

type StatsOutput struct {
	Summary trainer.Summary `json:"summary"`
}

// Tool handlers

func (s *Server) handleProblem(ctx context.Context, input ProblemInput) (ProblemOutput, error) {
	lang := domain.Language(input.Language)
	level := domain.Level(input.Level)
	if !lang.Valid() {
		return ProblemOutput{}, fmt.Errorf("unsupported language: %s", input.Language)
	}
	if !level.Valid() {
		return ProblemOutput{}, fmt.Errorf("level must be between 1 and 10, got %d", input.Level)
	}

	prob, err := s.trainer.Generate(ctx, lang, level)
	if err != nil {
		return ProblemOutput{}, fmt.Errorf("failed to generate problem: %w", err)
	}

	id := uuid.New().String()
	s.mu.Lock()
	s.pending[id] = prob
	s.mu.Unlock()

	return ProblemOutput{
		ProblemID:      id,
		Language:       string(prob.Language),
		Level:          int(prob.Level),
		Prerequisite:   prob.Prerequisite,
		Code:           prob.Code,
		RequiredIssues: prob.RequiredIssuesCount,
	}, nil
}

func (s *Server) handleSubmit(ctx context.Context, input SubmitInput) (SubmitOutput, error) {
	if strings.TrimSpace(input.Answer) == "" {
		return SubmitOutput{}, fmt.Errorf("answer is required")
	}

	s.mu.Lock()
	prob, ok := s.pending[input.ProblemID]
	s.mu.Unlock()
	if !ok {
		return SubmitOutput{}, fmt.Errorf("unknown problem id: %s (generate one with whetstone_problem first)", input.ProblemID)
	}

	outcome, err := s.trainer.Submit(ctx, prob, input.Answer)
	if err != nil {
		return SubmitOutput{}, fmt.Errorf("failed to grade submission: %w", err)
	}

	s.mu.Lock()
	delete(s.pending, input.ProblemID)
	s.mu.Unlock()

	out := SubmitOutput{
		TotalScore:    outcome.Entry.EvaluationResult.TotalScore,
		Feedback:      outcome.Entry.EvaluationResult.OverallFeedback,
		CurrentStreak: outcome.Streak.CurrentStreak,
	}
	for _, b := range outcome.NewBadges {
		out.NewBadges = append(out.NewBadges, b.Name)
	}
	for _, t := range outcome.NewTitles {
		out.NewTitles = append(out.NewTitles, t.Name)
	}
	return out, nil
}

func (s *Server) handleHistory(ctx context.Context, input HistoryInput) (HistoryOutput, error) {
	lang := domain.Language(input.Language)
	if lang != "" && !lang.Valid() {
		return HistoryOutput{}, fmt.Errorf("unsupported language: %s", input.Language)
	}

	entries, err := s.trainer.History(lang)
	if err != nil {
		return HistoryOutput{}, fmt.Errorf("failed to load history: %w", err)
	}

	out := HistoryOutput{Entries: make([]HistoryEntry, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, HistoryEntry{
			ID:        e.ID,
			Language:  string(e.Language),
			Level:     int(e.Problem.Level),
			Score:     e.EvaluationResult.TotalScore,
			Timestamp: e.Timestamp.Format("2006-01-02 15:04"),
		})
	}
	return out, nil
}

func (s *Server) handleStreak(ctx context.Context, _ StreakInput) (StreakOutput, error) {
	rec, err := s.trainer.Streak()
	if err != nil {
		return StreakOutput{}, fmt.Errorf("failed to load streak: %w", err)
	}
	return StreakOutput{
		CurrentStreak: rec.CurrentStreak,
		LongestStreak: rec.LongestStreak,
		TotalSessions: rec.TotalSessions,
		LastSession:   rec.LastSessionDate,
	}, nil
}

func (s *Server) handleAchievements(ctx context.Context, _ AchievementsInput) (AchievementsOutput, error) {
	badges, titles, selected, err := s.trainer.Achievements()
	if err != nil {
		return AchievementsOutput{}, fmt.Errorf("failed to load achievements: %w", err)
	}

	out := AchievementsOutput{SelectedTitle: selected}
	for _, b := range badges {
		out.Badges = append(out.Badges, AchievementItem{
			ID:       b.ID,
			Name:     b.Name,
			Rarity:   string(b.Rarity),
			Unlocked: b.Unlocked,
		})
	}
	for _, t := range titles {
		out.Titles = append(out.Titles, AchievementItem{
			ID:       t.ID,
			Name:     t.Name,
			Rarity:   string(t.Rarity),
			Unlocked: t.Unlocked,
		})
	}
	return out, nil
}

func (s *Server) handleStats(ctx context.Context, _ StatsInput) (StatsOutput, error) {
	summary, err := s.trainer.Stats()
	if err != nil {
		return StatsOutput{}, fmt.Errorf("failed to build stats: %w", err)
	}
	return StatsOutput{Summary: summary}, nil
}

// ServeStdio starts the MCP server on stdio (for editor integration)
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
