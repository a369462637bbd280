// Package daemon exposes the trainer over a local HTTP API so the CLI
// and other frontends share one long-lived process and one data store.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/felixgeelhaar/whetstone/internal/achievement"
	"github.com/felixgeelhaar/whetstone/internal/config"
	"github.com/felixgeelhaar/whetstone/internal/domain"
	"github.com/felixgeelhaar/whetstone/internal/heatmap"
	"github.com/felixgeelhaar/whetstone/internal/history"
	"github.com/felixgeelhaar/whetstone/internal/llm"
	"github.com/felixgeelhaar/whetstone/internal/notify"
	"github.com/felixgeelhaar/whetstone/internal/problem"
	"github.com/felixgeelhaar/whetstone/internal/storage/sqlite"
	"github.com/felixgeelhaar/whetstone/internal/streak"
	"github.com/felixgeelhaar/whetstone/internal/trainer"
)

// Version is the daemon version reported by /v1/status
const Version = "0.1.0"

// Server represents the whetstone daemon HTTP server
type Server struct {
	cfg    *config.LocalConfig
	server *http.Server
	router *http.ServeMux

	llmRegistry *llm.Registry
	trainer     *trainer.Service
	notifyConn  *notify.Connection
	db          *sqlite.DB
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config  *config.LocalConfig
	DataDir string // Storage root, defaults to ~/.whetstone/data
}

// NewServer creates a new daemon server
func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	s := &Server{
		cfg:    cfg.Config,
		router: http.NewServeMux(),
	}

	registry := llm.NewRegistry()
	if err := s.setupLLMProviders(registry); err != nil {
		return nil, fmt.Errorf("setup llm providers: %w", err)
	}
	s.llmRegistry = registry

	dataDir := cfg.DataDir
	if dataDir == "" {
		var err error
		dataDir, err = config.DataDir()
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
	}

	histStore, streakStore, achStore, err := s.setupStorage(dataDir)
	if err != nil {
		return nil, err
	}

	generator, evaluator, err := s.setupProblemPipeline(registry)
	if err != nil {
		return nil, err
	}

	var publisher trainer.Publisher
	if cfg.Config.Notify.Enabled {
		conn, err := notify.NewConnection(cfg.Config.Notify.URL)
		if err != nil {
			slog.Warn("unlock notifications unavailable", "error", err)
		} else {
			s.notifyConn = conn
			publisher = conn
		}
	}

	s.trainer = trainer.NewService(trainer.Config{
		Generator:    generator,
		Evaluator:    evaluator,
		History:      histStore,
		Streaks:      streakStore,
		Achievements: achStore,
		Engine:       achievement.NewEngine(achievement.Default()),
		Publisher:    publisher,
	})

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Config.Daemon.Bind, cfg.Config.Daemon.Port)
	handler := recoveryMiddleware(correlationIDMiddleware(loggingMiddleware(s.router)))
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second, // LLM grading can be slow
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// setupLLMProviders initializes configured LLM providers
func (s *Server) setupLLMProviders(registry *llm.Registry) error {
	for name, providerCfg := range s.cfg.LLM.Providers {
		if !providerCfg.Enabled {
			continue
		}

		switch name {
		case "claude":
			if providerCfg.APIKey == "" {
				slog.Debug("Claude provider enabled but no API key set")
				continue
			}
			provider := llm.NewClaudeProvider(llm.ClaudeConfig{
				APIKey: providerCfg.APIKey,
				Model:  providerCfg.Model,
			})
			registry.Register("claude", provider)
			slog.Info("registered LLM provider", "name", "claude", "model", providerCfg.Model)

		case "openai":
			if providerCfg.APIKey == "" {
				slog.Debug("OpenAI provider enabled but no API key set")
				continue
			}
			provider := llm.NewOpenAIProvider(llm.OpenAIConfig{
				APIKey: providerCfg.APIKey,
				Model:  providerCfg.Model,
			})
			registry.Register("openai", provider)
			slog.Info("registered LLM provider", "name", "openai", "model", providerCfg.Model)

		case "ollama":
			provider := llm.NewOllamaProvider(llm.OllamaConfig{
				BaseURL: providerCfg.URL,
				Model:   providerCfg.Model,
			})
			registry.Register("ollama", provider)
			slog.Info("registered LLM provider", "name", "ollama", "model", providerCfg.Model)
		}
	}

	if s.cfg.LLM.DefaultProvider != "" && s.cfg.LLM.DefaultProvider != "auto" {
		if err := registry.SetDefault(s.cfg.LLM.DefaultProvider); err != nil {
			slog.Warn("configured default provider unavailable, using auto selection",
				"provider", s.cfg.LLM.DefaultProvider, "error", err)
		}
	}

	return nil
}

// setupStorage builds the persistence layer for the configured backend
func (s *Server) setupStorage(dataDir string) (history.Store, streak.Store, achievement.Store, error) {
	if s.cfg.Storage.Backend == "sqlite" {
		db, err := sqlite.Open(filepath.Join(dataDir, "whetstone.db"))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("migrate database: %w", err)
		}
		s.db = db
		return sqlite.NewHistoryStore(db), sqlite.NewStreakStore(db), sqlite.NewAchievementStore(db), nil
	}

	histStore, err := history.NewLocalStore(dataDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create history store: %w", err)
	}
	streakStore, err := streak.NewLocalStore(dataDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create streak store: %w", err)
	}
	achStore, err := achievement.NewLocalStore(dataDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create achievement store: %w", err)
	}
	return histStore, streakStore, achStore, nil
}

// setupProblemPipeline picks the generator and evaluator. Mock mode and
// a providerless registry both fall back to canned problems so the
// daemon always starts.
func (s *Server) setupProblemPipeline(registry *llm.Registry) (problem.Generator, problem.Evaluator, error) {
	if s.cfg.Training.Mock {
		return problem.MockGenerator{}, problem.MockEvaluator{}, nil
	}

	provider, err := registry.Default()
	if err != nil {
		if errors.Is(err, llm.ErrNoDefaultProvider) {
			slog.Warn("no LLM provider configured, falling back to mock problems")
			return problem.MockGenerator{}, problem.MockEvaluator{}, nil
		}
		return nil, nil, fmt.Errorf("select llm provider: %w", err)
	}

	resilient := llm.NewResilientProvider(provider, llm.DefaultResilientConfig())
	return problem.NewLLMGenerator(resilient), problem.NewLLMEvaluator(resilient), nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// Config
	s.router.HandleFunc("GET /v1/config", s.handleGetConfig)
	s.router.HandleFunc("GET /v1/config/providers", s.handleListProviders)

	// Review sessions
	s.router.HandleFunc("POST /v1/problems", s.handleGenerateProblem)
	s.router.HandleFunc("POST /v1/reviews", s.handleSubmitReview)

	// History
	s.router.HandleFunc("GET /v1/history", s.handleListHistory)
	s.router.HandleFunc("DELETE /v1/history/{language}/{id}", s.handleDeleteEntry)

	// Progress
	s.router.HandleFunc("GET /v1/streak", s.handleGetStreak)
	s.router.HandleFunc("POST /v1/streak/rebuild", s.handleRebuildStreak)
	s.router.HandleFunc("GET /v1/heatmap", s.handleGetHeatmap)
	s.router.HandleFunc("GET /v1/stats", s.handleGetStats)

	// Achievements
	s.router.HandleFunc("GET /v1/achievements", s.handleGetAchievements)
	s.router.HandleFunc("PUT /v1/achievements/title", s.handleSelectTitle)
}

// Trainer returns the underlying trainer service, for embedding the
// daemon's pipeline into other frontends.
func (s *Server) Trainer() *trainer.Service {
	return s.trainer
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting whetstone daemon",
		"addr", s.server.Addr,
		"llm_providers", s.llmRegistry.List(),
		"storage", s.cfg.Storage.Backend,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")

	if s.notifyConn != nil {
		if err := s.notifyConn.Close(); err != nil {
			slog.Warn("failed to close notify connection", "error", err)
		}
	}
	if s.db != nil {
		defer s.db.Close()
	}

	return s.server.Shutdown(ctx)
}

// Handler implementations

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":        "running",
		"version":       Version,
		"llm_providers": s.llmRegistry.List(),
		"storage":       s.cfg.Storage.Backend,
		"mock":          s.cfg.Training.Mock,
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	// Return config without secrets
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"daemon":           s.cfg.Daemon,
		"training":         s.cfg.Training,
		"storage":          s.cfg.Storage,
		"notify":           s.cfg.Notify,
		"default_provider": s.cfg.LLM.DefaultProvider,
	})
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	providers := make([]map[string]any, 0)
	for name, cfg := range s.cfg.LLM.Providers {
		providers = append(providers, map[string]any{
			"name":       name,
			"enabled":    cfg.Enabled,
			"model":      cfg.Model,
			"configured": cfg.APIKey != "" || name == "ollama",
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"default":   s.cfg.LLM.DefaultProvider,
		"providers": providers,
	})
}

func (s *Server) handleGenerateProblem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
		Level    int    `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Language == "" {
		req.Language = s.cfg.Training.DefaultLanguage
	}
	if req.Level == 0 {
		req.Level = s.cfg.Training.DefaultLevel
	}

	lang := domain.Language(req.Language)
	level := domain.Level(req.Level)
	if !lang.Valid() {
		s.jsonError(w, http.StatusBadRequest, "unsupported language", nil)
		return
	}
	if !level.Valid() {
		s.jsonError(w, http.StatusBadRequest, "level must be between 1 and 10", nil)
		return
	}

	prob, err := s.trainer.Generate(r.Context(), lang, level)
	if err != nil {
		if errors.Is(err, problem.ErrMalformedReply) {
			s.jsonError(w, http.StatusBadGateway, "provider returned an unusable problem", err)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "failed to generate problem", err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, prob)
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Problem domain.Problem `json:"problem"`
		Answer  string         `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Answer == "" {
		s.jsonError(w, http.StatusBadRequest, "answer is required", nil)
		return
	}
	if !req.Problem.Language.Valid() || req.Problem.Code == "" {
		s.jsonError(w, http.StatusBadRequest, "problem is incomplete", nil)
		return
	}

	outcome, err := s.trainer.Submit(r.Context(), req.Problem, req.Answer)
	if err != nil {
		if errors.Is(err, problem.ErrMalformedReply) {
			s.jsonError(w, http.StatusBadGateway, "provider returned an unusable evaluation", err)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "failed to grade submission", err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, outcome)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	lang := domain.Language(r.URL.Query().Get("language"))
	if lang != "" && !lang.Valid() {
		s.jsonError(w, http.StatusBadRequest, "unsupported language", nil)
		return
	}

	entries, err := s.trainer.History(lang)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to load history", err)
		return
	}
	if entries == nil {
		entries = []domain.Entry{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"entries": entries,
	})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	lang := domain.Language(r.PathValue("language"))
	id := r.PathValue("id")

	if !lang.Valid() {
		s.jsonError(w, http.StatusBadRequest, "unsupported language", nil)
		return
	}

	if err := s.trainer.DeleteEntry(lang, id); err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to delete entry", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"deleted": true,
	})
}

func (s *Server) handleGetStreak(w http.ResponseWriter, r *http.Request) {
	rec, err := s.trainer.Streak()
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to load streak", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

func (s *Server) handleRebuildStreak(w http.ResponseWriter, r *http.Request) {
	rec, err := s.trainer.RebuildStreak()
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to rebuild streak", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

func (s *Server) handleGetHeatmap(w http.ResponseWriter, r *http.Request) {
	windowDays := heatmap.DefaultWindowDays
	if s.cfg.Training.HeatmapWindowDays > 0 {
		windowDays = s.cfg.Training.HeatmapWindowDays
	}
	if raw := r.URL.Query().Get("window_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.jsonError(w, http.StatusBadRequest, "window_days must be a positive integer", err)
			return
		}
		windowDays = parsed
	}

	days, err := s.trainer.Heatmap(windowDays)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to build heatmap", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"window_days": windowDays,
		"days":        days,
	})
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	summary, err := s.trainer.Stats()
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to build stats", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, summary)
}

func (s *Server) handleGetAchievements(w http.ResponseWriter, r *http.Request) {
	badges, titles, selected, err := s.trainer.Achievements()
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to load achievements", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"badges":         badges,
		"titles":         titles,
		"selected_title": selected,
	})
}

func (s *Server) handleSelectTitle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ID == "" {
		s.jsonError(w, http.StatusBadRequest, "id is required", nil)
		return
	}

	if err := s.trainer.SelectTitle(req.ID); err != nil {
		if errors.Is(err, trainer.ErrTitleUnknown) {
			s.jsonError(w, http.StatusNotFound, "title not found", nil)
			return
		}
		if errors.Is(err, trainer.ErrTitleLocked) {
			s.jsonError(w, http.StatusConflict, "title is not unlocked", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "failed to select title", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"selected_title": req.ID,
	})
}

// Helper methods

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]any{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}
