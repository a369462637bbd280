package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/whetstone/internal/achievement"
	"github.com/felixgeelhaar/whetstone/internal/config"
	"github.com/felixgeelhaar/whetstone/internal/history"
	"github.com/felixgeelhaar/whetstone/internal/llm"
	mcpserver "github.com/felixgeelhaar/whetstone/internal/mcp"
	"github.com/felixgeelhaar/whetstone/internal/problem"
	"github.com/felixgeelhaar/whetstone/internal/streak"
	"github.com/felixgeelhaar/whetstone/internal/trainer"
)

// cmdMCP starts the MCP server on stdio for editor agents. It builds
// its own trainer over the shared data directory rather than proxying
// the daemon, so it works with the daemon stopped.
func cmdMCP() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := config.EnsureDir(); err != nil {
		return fmt.Errorf("setup whetstone directory: %w", err)
	}
	dataDir, err := config.DataDir()
	if err != nil {
		return fmt.Errorf("get data dir: %w", err)
	}

	histStore, err := history.NewLocalStore(dataDir)
	if err != nil {
		return fmt.Errorf("create history store: %w", err)
	}
	streakStore, err := streak.NewLocalStore(dataDir)
	if err != nil {
		return fmt.Errorf("create streak store: %w", err)
	}
	achStore, err := achievement.NewLocalStore(dataDir)
	if err != nil {
		return fmt.Errorf("create achievement store: %w", err)
	}

	generator, evaluator := buildProblemPipeline(cfg)

	svc := trainer.NewService(trainer.Config{
		Generator:    generator,
		Evaluator:    evaluator,
		History:      histStore,
		Streaks:      streakStore,
		Achievements: achStore,
		Engine:       achievement.NewEngine(achievement.Default()),
	})

	mcpSrv := mcpserver.NewServer(mcpserver.Config{Trainer: svc})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return mcpSrv.ServeStdio(ctx)
}

// buildProblemPipeline wires the LLM providers from config, falling
// back to mock problems when none is usable.
func buildProblemPipeline(cfg *config.LocalConfig) (problem.Generator, problem.Evaluator) {
	if cfg.Training.Mock {
		return problem.MockGenerator{}, problem.MockEvaluator{}
	}

	registry := llm.NewRegistry()
	for name, providerCfg := range cfg.LLM.Providers {
		if !providerCfg.Enabled || (providerCfg.APIKey == "" && name != "ollama") {
			continue
		}

		switch name {
		case "claude":
			registry.Register("claude", llm.NewClaudeProvider(llm.ClaudeConfig{
				APIKey: providerCfg.APIKey,
				Model:  providerCfg.Model,
			}))
		case "openai":
			registry.Register("openai", llm.NewOpenAIProvider(llm.OpenAIConfig{
				APIKey: providerCfg.APIKey,
				Model:  providerCfg.Model,
			}))
		case "ollama":
			registry.Register("ollama", llm.NewOllamaProvider(llm.OllamaConfig{
				BaseURL: providerCfg.URL,
				Model:   providerCfg.Model,
			}))
		}
	}
	if cfg.LLM.DefaultProvider != "" && cfg.LLM.DefaultProvider != "auto" {
		_ = registry.SetDefault(cfg.LLM.DefaultProvider)
	}

	provider, err := registry.Default()
	if err != nil {
		return problem.MockGenerator{}, problem.MockEvaluator{}
	}

	resilient := llm.NewResilientProvider(provider, llm.DefaultResilientConfig())
	return problem.NewLLMGenerator(resilient), problem.NewLLMEvaluator(resilient)
}
