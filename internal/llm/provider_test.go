package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubProvider struct {
	name     string
	response *Response
	err      error
	calls    int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.response, nil
}

func TestRegistryGetAndDefault(t *testing.T) {
	registry := NewRegistry()
	claude := &stubProvider{name: "claude"}
	registry.Register("claude", claude)

	got, err := registry.Get("claude")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name() != "claude" {
		t.Errorf("expected claude, got %s", got.Name())
	}

	if _, err := registry.Get("missing"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("expected ErrProviderNotFound, got %v", err)
	}

	if err := registry.SetDefault("claude"); err != nil {
		t.Fatalf("SetDefault() error = %v", err)
	}
	def, err := registry.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if def.Name() != "claude" {
		t.Errorf("expected default claude, got %s", def.Name())
	}
}

func TestRegistryDefaultAuto(t *testing.T) {
	registry := NewRegistry()

	if _, err := registry.Default(); !errors.Is(err, ErrNoDefaultProvider) {
		t.Errorf("expected ErrNoDefaultProvider, got %v", err)
	}

	registry.Register("ollama", &stubProvider{name: "ollama"})
	def, err := registry.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if def.Name() != "ollama" {
		t.Errorf("expected auto-selected ollama, got %s", def.Name())
	}
}

func TestClaudeProviderGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}

		var req claudeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.System != "You are a reviewer" {
			t.Errorf("expected system prompt to be extracted, got %q", req.System)
		}

		json.NewEncoder(w).Encode(claudeResponse{
			Content: []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}{{Type: "text", Text: "hello"}},
			StopReason: "end_turn",
		})
	}))
	defer server.Close()

	provider := NewClaudeProvider(ClaudeConfig{APIKey: "test-key", BaseURL: server.URL})

	resp, err := provider.Generate(context.Background(), &Request{
		System:   "You are a reviewer",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "hello" {
		t.Errorf("expected content hello, got %q", resp.Content)
	}
	if resp.FinishReason != "end_turn" {
		t.Errorf("expected finish reason end_turn, got %q", resp.FinishReason)
	}
}

func TestClaudeProviderGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider := NewClaudeProvider(ClaudeConfig{APIKey: "k", BaseURL: server.URL})

	_, err := provider.Generate(context.Background(), &Request{})
	if err == nil {
		t.Fatal("expected error on non-200 response")
	}
	if !isRetryableHTTPError(err) {
		t.Errorf("expected 503 to be retryable, got %v", err)
	}
}

func TestOpenAIProviderGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]string{"role": "assistant", "content": "graded"},
				"finish_reason": "stop",
			}},
		})
	}))
	defer server.Close()

	provider := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})

	resp, err := provider.Generate(context.Background(), &Request{
		Messages: []Message{{Role: RoleUser, Content: "grade this"}},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "graded" {
		t.Errorf("expected content graded, got %q", resp.Content)
	}
}

func TestOllamaProviderGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ollamaResponse{
			Message: ollamaMessage{Role: "assistant", Content: "local answer"},
			Done:    true,
		})
	}))
	defer server.Close()

	provider := NewOllamaProvider(OllamaConfig{BaseURL: server.URL, Model: "codellama"})

	resp, err := provider.Generate(context.Background(), &Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "local answer" {
		t.Errorf("expected local answer, got %q", resp.Content)
	}
}

func TestResilientProviderPassthrough(t *testing.T) {
	stub := &stubProvider{name: "claude", response: &Response{Content: "ok"}}
	provider := NewResilientProvider(stub, ResilientConfig{})
	defer provider.Close()

	resp, err := provider.Generate(context.Background(), &Request{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "ok" || stub.calls != 1 {
		t.Errorf("expected single passthrough call, got %d calls", stub.calls)
	}
}

func TestIsRetryableHTTPError(t *testing.T) {
	if isRetryableHTTPError(errors.New("API error (status 400): bad request")) {
		t.Error("400 should not be retryable")
	}
	if !isRetryableHTTPError(errors.New("API error (status 429): slow down")) {
		t.Error("429 should be retryable")
	}
	if isRetryableHTTPError(nil) {
		t.Error("nil should not be retryable")
	}
}
