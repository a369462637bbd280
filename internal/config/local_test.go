package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultLocalConfig(t *testing.T) {
	cfg := DefaultLocalConfig()

	if cfg.Daemon.Port != 7433 {
		t.Errorf("expected default port 7433, got %d", cfg.Daemon.Port)
	}
	if cfg.Daemon.Bind != "127.0.0.1" {
		t.Errorf("expected loopback bind, got %s", cfg.Daemon.Bind)
	}
	if cfg.LLM.DefaultProvider != "auto" {
		t.Errorf("expected auto provider selection, got %s", cfg.LLM.DefaultProvider)
	}
	for _, name := range []string{"claude", "openai", "ollama"} {
		if _, ok := cfg.LLM.Providers[name]; !ok {
			t.Errorf("expected provider %s in defaults", name)
		}
	}
	if cfg.Training.HeatmapWindowDays != 365 {
		t.Errorf("expected 365-day heatmap window, got %d", cfg.Training.HeatmapWindowDays)
	}
	if cfg.Storage.Backend != "json" {
		t.Errorf("expected json backend default, got %s", cfg.Storage.Backend)
	}
	if cfg.Notify.Enabled {
		t.Error("expected notify disabled by default")
	}
}

func TestLoadLocalConfigFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadLocalConfigFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadLocalConfigFrom() error = %v", err)
	}
	if cfg.Daemon.Port != DefaultLocalConfig().Daemon.Port {
		t.Errorf("expected defaults when config.yaml is absent, got port %d", cfg.Daemon.Port)
	}
}

func TestLoadLocalConfigFrom_MergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `daemon:
  port: 9999
training:
  default_language: Rust
  mock: true
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadLocalConfigFrom(dir)
	if err != nil {
		t.Fatalf("LoadLocalConfigFrom() error = %v", err)
	}
	if cfg.Daemon.Port != 9999 {
		t.Errorf("expected port override 9999, got %d", cfg.Daemon.Port)
	}
	if cfg.Daemon.Bind != "127.0.0.1" {
		t.Errorf("expected bind to keep its default, got %s", cfg.Daemon.Bind)
	}
	if cfg.Training.DefaultLanguage != "Rust" {
		t.Errorf("expected language override, got %s", cfg.Training.DefaultLanguage)
	}
	if !cfg.Training.Mock {
		t.Error("expected mock mode enabled")
	}
	if cfg.Training.HeatmapWindowDays != 365 {
		t.Errorf("expected window to keep its default, got %d", cfg.Training.HeatmapWindowDays)
	}
}

func TestLoadLocalConfigFrom_SecretsMergedIntoProviders(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("daemon:\n  port: 7433\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	secrets := `providers:
  claude:
    api_key: sk-test-key
  unknown:
    api_key: ignored
`
	if err := os.WriteFile(filepath.Join(dir, "secrets.yaml"), []byte(secrets), 0600); err != nil {
		t.Fatalf("write secrets: %v", err)
	}

	cfg, err := LoadLocalConfigFrom(dir)
	if err != nil {
		t.Fatalf("LoadLocalConfigFrom() error = %v", err)
	}
	if cfg.LLM.Providers["claude"].APIKey != "sk-test-key" {
		t.Errorf("expected claude API key from secrets, got %q", cfg.LLM.Providers["claude"].APIKey)
	}
}

func TestAPIKeyNeverMarshalled(t *testing.T) {
	cfg := DefaultLocalConfig()
	cfg.LLM.Providers["claude"].APIKey = "sk-secret"

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected marshalled output")
	}
	if strings.Contains(string(data), "sk-secret") {
		t.Error("API key leaked into marshalled config")
	}
}
