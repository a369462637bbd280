package problem

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/whetstone/internal/domain"
	"github.com/felixgeelhaar/whetstone/internal/llm"
)

type scriptedProvider struct {
	content string
	err     error
	lastReq *llm.Request
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Generate(_ context.Context, req *llm.Request) (*llm.Response, error) {
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Response{Content: p.content}, nil
}

func TestLLMGeneratorParsesReply(t *testing.T) {
	provider := &scriptedProvider{content: `Here is your exercise:
{
  "prerequisite": "payment service",
  "code": "def charge(amount): pass",
  "level": 4,
  "requiredIssuesCount": 5,
  "requiredIssues": [
    {"summary": "no validation", "detail": "amount is never checked"}
  ],
  "optionalIssues": [
    {"summary": "naming", "detail": "charge is vague"}
  ]
}`}

	gen := NewLLMGenerator(provider)
	prob, err := gen.Generate(context.Background(), domain.LangPython, 4)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if prob.Language != domain.LangPython || prob.Level != 4 {
		t.Errorf("expected Python level 4, got %s level %d", prob.Language, prob.Level)
	}
	if prob.Code != "def charge(amount): pass" {
		t.Errorf("unexpected code %q", prob.Code)
	}
	// Count disagreed with the list and must be corrected.
	if prob.RequiredIssuesCount != 1 {
		t.Errorf("expected corrected count 1, got %d", prob.RequiredIssuesCount)
	}
	if len(prob.OptionalIssues) != 1 {
		t.Errorf("expected 1 optional issue, got %d", len(prob.OptionalIssues))
	}
}

func TestLLMGeneratorRejectsInvalidInput(t *testing.T) {
	gen := NewLLMGenerator(&scriptedProvider{})

	if _, err := gen.Generate(context.Background(), "COBOL", 5); !errors.Is(err, ErrInvalidLanguage) {
		t.Errorf("expected ErrInvalidLanguage, got %v", err)
	}
	if _, err := gen.Generate(context.Background(), domain.LangGo, 11); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("expected ErrInvalidLevel, got %v", err)
	}
}

func TestLLMGeneratorMalformedReply(t *testing.T) {
	gen := NewLLMGenerator(&scriptedProvider{content: "sorry, I cannot help with that"})

	if _, err := gen.Generate(context.Background(), domain.LangGo, 5); !errors.Is(err, ErrMalformedReply) {
		t.Errorf("expected ErrMalformedReply, got %v", err)
	}
}

func TestLLMGeneratorMissingCode(t *testing.T) {
	gen := NewLLMGenerator(&scriptedProvider{content: `{"level": 5, "requiredIssues": []}`})

	if _, err := gen.Generate(context.Background(), domain.LangGo, 5); !errors.Is(err, ErrMalformedReply) {
		t.Errorf("expected ErrMalformedReply for empty problem, got %v", err)
	}
}

func TestLLMEvaluatorParsesReply(t *testing.T) {
	provider := &scriptedProvider{content: "```json\n" + `{
  "scores": [
    {"issueIndex": 0, "score": 12, "feedback": "spot on"},
    {"issueIndex": 1, "score": -2, "feedback": "missed"}
  ],
  "totalScore": 130,
  "overallFeedback": "solid review"
}` + "\n```"}

	eval := NewLLMEvaluator(provider)
	prob := domain.Problem{
		Code:           "x = eval(input())",
		RequiredIssues: []domain.Issue{{Summary: "eval on input"}, {Summary: "no error handling"}},
	}

	result, err := eval.Evaluate(context.Background(), prob, "eval is dangerous here")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if result.TotalScore != domain.PerfectScore {
		t.Errorf("expected total clamped to %d, got %d", domain.PerfectScore, result.TotalScore)
	}
	if result.Scores[0].Score != 10 || result.Scores[1].Score != 0 {
		t.Errorf("expected per-issue scores clamped to [10 0], got [%d %d]",
			result.Scores[0].Score, result.Scores[1].Score)
	}
	if result.OverallFeedback != "solid review" {
		t.Errorf("unexpected feedback %q", result.OverallFeedback)
	}
}

func TestLLMEvaluatorPromptContainsFindings(t *testing.T) {
	provider := &scriptedProvider{content: `{"scores": [], "totalScore": 0, "overallFeedback": ""}`}
	eval := NewLLMEvaluator(provider)
	prob := domain.Problem{
		Code:           "SELECT *",
		RequiredIssues: []domain.Issue{{Summary: "select star", Detail: "fetches every column"}},
	}

	if _, err := eval.Evaluate(context.Background(), prob, "looks fine"); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	content := provider.lastReq.Messages[0].Content
	for _, want := range []string{"SELECT *", "select star", "looks fine"} {
		if !strings.Contains(content, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
}

func TestMockGeneratorAndEvaluator(t *testing.T) {
	gen := MockGenerator{}
	prob, err := gen.Generate(context.Background(), domain.LangRust, 7)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if prob.Language != domain.LangRust || prob.Level != 7 {
		t.Errorf("expected requested language and level to stick, got %s/%d", prob.Language, prob.Level)
	}
	if len(prob.RequiredIssues) == 0 {
		t.Fatal("expected canned required issues")
	}

	eval := MockEvaluator{}
	result, err := eval.Evaluate(context.Background(), prob, "sql injection, md5")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.TotalScore != 70 {
		t.Errorf("expected canned total 70, got %d", result.TotalScore)
	}

	if _, err := gen.Generate(context.Background(), "Brainfuck", 5); !errors.Is(err, ErrInvalidLanguage) {
		t.Errorf("expected ErrInvalidLanguage, got %v", err)
	}
}
