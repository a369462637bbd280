package problem

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/whetstone/internal/domain"
	"github.com/felixgeelhaar/whetstone/internal/llm"
)

const generateSystemPrompt = `You are a senior engineer and tech lead at a top-tier technology company. You create code review training exercises for junior and mid-level engineers.`

const generateTemplate = `Create a code review exercise.

Language: %s
Difficulty level: %d/10

Level guide:
1-3: basic syntax errors, obvious bugs, code style violations
4-7: performance problems, missing edge cases, minor security flaws, common anti-patterns
8-10: design flaws (SOLID violations), concurrency bugs, subtle security holes, scalability problems

Requirements:
1. Write code following the idioms and best practices of the language.
2. The code should look plausible at a glance but contain real problems.
3. "requiredIssues" must contain significant defects appropriate to the level.
4. "optionalIssues" may contain readability improvements and modernization suggestions.

Output JSON only, no markdown code fences:
{
  "prerequisite": "context the code runs in, business requirements",
  "code": "the source code under review",
  "level": %d,
  "requiredIssuesCount": number of required findings,
  "requiredIssues": [
    {"summary": "short finding", "detail": "why it is a problem and how to fix it"}
  ],
  "optionalIssues": [
    {"summary": "short finding", "detail": "suggestion for better code"}
  ]
}`

const evaluateSystemPrompt = `You are a code review instructor. Grade the user's review findings strictly and give constructive feedback.`

const evaluateTemplate = `Code under review:
%s

Expected findings (required):
%s

User's review:
%s

Grading instructions:
1. Match the user's review against each expected finding.
2. Score each finding 0-10:
   - 10: identifies the core problem with a clear, correct fix and reasoning.
   - 7-9: correct finding, but the reasoning is thin.
   - 4-6: vaguely gestures at the problem without hitting the core, or the reasoning is wrong.
   - 0-3: missing or entirely off the mark.
3. Valid findings outside the expected list count in the user's favor; mention them in overallFeedback.

Output JSON only, no markdown code fences:
{
  "scores": [
    {"issueIndex": 0, "score": points, "feedback": "critique of this finding"}
  ],
  "totalScore": overall score 0-100,
  "overallFeedback": "overall feedback with advice for growth"
}`

// wire formats produced by the model.
type problemReply struct {
	Prerequisite        string      `json:"prerequisite"`
	Code                string      `json:"code"`
	Level               int         `json:"level"`
	RequiredIssuesCount int         `json:"requiredIssuesCount"`
	RequiredIssues      []issueWire `json:"requiredIssues"`
	OptionalIssues      []issueWire `json:"optionalIssues"`
}

type issueWire struct {
	Summary string `json:"summary"`
	Detail  string `json:"detail"`
}

type evaluationReply struct {
	Scores []struct {
		IssueIndex int    `json:"issueIndex"`
		Score      int    `json:"score"`
		Feedback   string `json:"feedback"`
	} `json:"scores"`
	TotalScore      int    `json:"totalScore"`
	OverallFeedback string `json:"overallFeedback"`
}

// LLMGenerator implements Generator on an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
}

// NewLLMGenerator creates an LLM-backed problem generator.
func NewLLMGenerator(provider llm.Provider) *LLMGenerator {
	return &LLMGenerator{provider: provider}
}

func (g *LLMGenerator) Generate(ctx context.Context, lang domain.Language, level domain.Level) (domain.Problem, error) {
	if !lang.Valid() {
		return domain.Problem{}, fmt.Errorf("%w: %s", ErrInvalidLanguage, lang)
	}
	if !level.Valid() {
		return domain.Problem{}, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}

	resp, err := g.provider.Generate(ctx, &llm.Request{
		System:    generateSystemPrompt,
		MaxTokens: 4000,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf(generateTemplate, lang, level, level)},
		},
	})
	if err != nil {
		return domain.Problem{}, fmt.Errorf("generate problem: %w", err)
	}

	var reply problemReply
	if err := decodeReply(resp.Content, &reply); err != nil {
		return domain.Problem{}, err
	}

	prob := domain.Problem{
		Language:            lang,
		Prerequisite:        reply.Prerequisite,
		Code:                reply.Code,
		Level:               level,
		RequiredIssuesCount: reply.RequiredIssuesCount,
		RequiredIssues:      toIssues(reply.RequiredIssues),
		OptionalIssues:      toIssues(reply.OptionalIssues),
	}
	if prob.Code == "" || len(prob.RequiredIssues) == 0 {
		return domain.Problem{}, fmt.Errorf("%w: missing code or required issues", ErrMalformedReply)
	}
	// Models sometimes miscount their own findings.
	if prob.RequiredIssuesCount != len(prob.RequiredIssues) {
		prob.RequiredIssuesCount = len(prob.RequiredIssues)
	}
	return prob, nil
}

// LLMEvaluator implements Evaluator on an LLM provider.
type LLMEvaluator struct {
	provider llm.Provider
}

// NewLLMEvaluator creates an LLM-backed review evaluator.
func NewLLMEvaluator(provider llm.Provider) *LLMEvaluator {
	return &LLMEvaluator{provider: provider}
}

func (e *LLMEvaluator) Evaluate(ctx context.Context, prob domain.Problem, userAnswer string) (domain.EvaluationResult, error) {
	resp, err := e.provider.Generate(ctx, &llm.Request{
		System:    evaluateSystemPrompt,
		MaxTokens: 3000,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf(evaluateTemplate, prob.Code, formatIssues(prob.RequiredIssues), userAnswer)},
		},
	})
	if err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("evaluate answer: %w", err)
	}

	var reply evaluationReply
	if err := decodeReply(resp.Content, &reply); err != nil {
		return domain.EvaluationResult{}, err
	}

	result := domain.EvaluationResult{
		TotalScore:      clamp(reply.TotalScore, 0, domain.PerfectScore),
		OverallFeedback: reply.OverallFeedback,
	}
	for _, s := range reply.Scores {
		result.Scores = append(result.Scores, domain.IssueScore{
			IssueIndex: s.IssueIndex,
			Score:      clamp(s.Score, 0, 10),
			Feedback:   s.Feedback,
		})
	}
	return result, nil
}

// decodeReply extracts the outermost JSON object from a model reply,
// tolerating prose or markdown fences around it.
func decodeReply(content string, v any) error {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("%w: no JSON object in reply", ErrMalformedReply)
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return nil
}

func formatIssues(issues []domain.Issue) string {
	var b strings.Builder
	for i, issue := range issues {
		fmt.Fprintf(&b, "%d. %s\n   Detail: %s\n\n", i+1, issue.Summary, issue.Detail)
	}
	return strings.TrimRight(b.String(), "\n")
}

func toIssues(wire []issueWire) []domain.Issue {
	if len(wire) == 0 {
		return nil
	}
	issues := make([]domain.Issue, 0, len(wire))
	for _, w := range wire {
		issues = append(issues, domain.Issue{Summary: w.Summary, Detail: w.Detail})
	}
	return issues
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
