package domain

import (
	"time"

	"github.com/google/uuid"
)

// Language is one of the supported review languages.
type Language string

const (
	LangKotlin     Language = "Kotlin"
	LangSwift      Language = "Swift"
	LangJavaScript Language = "JavaScript"
	LangTypeScript Language = "TypeScript"
	LangPython     Language = "Python"
	LangJava       Language = "Java"
	LangCSharp     Language = "C#"
	LangGo         Language = "Go"
	LangRust       Language = "Rust"
	LangPHP        Language = "PHP"
	LangRuby       Language = "Ruby"
	LangCPP        Language = "C++"
)

// Languages lists every supported language in display order.
var Languages = []Language{
	LangKotlin, LangSwift, LangJavaScript, LangTypeScript,
	LangPython, LangJava, LangCSharp, LangGo,
	LangRust, LangPHP, LangRuby, LangCPP,
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	for _, known := range Languages {
		if l == known {
			return true
		}
	}
	return false
}

// Level is a problem difficulty from 1 (trivial) to 10 (hardest).
type Level int

const (
	MinLevel Level = 1
	MaxLevel Level = 10
)

// Valid reports whether the level is within the supported range.
func (l Level) Valid() bool {
	return l >= MinLevel && l <= MaxLevel
}

// Issue is a single defect planted in a generated problem.
type Issue struct {
	Summary string `json:"summary"`
	Detail  string `json:"detail"`
}

// Problem is a generated code sample for review, together with the
// issues a reviewer is expected to find.
type Problem struct {
	Language            Language `json:"language"`
	Prerequisite        string   `json:"prerequisite,omitempty"`
	Code                string   `json:"code"`
	Level               Level    `json:"level"`
	RequiredIssuesCount int      `json:"required_issues_count"`
	RequiredIssues      []Issue  `json:"required_issues"`
	OptionalIssues      []Issue  `json:"optional_issues,omitempty"`
}

// IssueScore grades the reviewer's coverage of one required issue.
type IssueScore struct {
	IssueIndex int    `json:"issue_index"`
	Score      int    `json:"score"` // 0-10
	Feedback   string `json:"feedback"`
}

// PerfectScore is the maximum aggregate score for a review.
const PerfectScore = 100

// EvaluationResult is the graded outcome of a submitted review.
type EvaluationResult struct {
	Scores          []IssueScore `json:"scores"`
	TotalScore      int          `json:"total_score"` // 0-100
	OverallFeedback string       `json:"overall_feedback"`
}

// Entry is one completed review session. Entries are immutable after
// creation; they are only ever appended to or deleted from history.
type Entry struct {
	ID               string           `json:"id"`
	Language         Language         `json:"language"`
	Problem          Problem          `json:"problem"`
	UserAnswer       string           `json:"user_answer"`
	EvaluationResult EvaluationResult `json:"evaluation_result"`
	Timestamp        time.Time        `json:"timestamp"`
}

// NewEntry creates an entry for a just-evaluated review session.
func NewEntry(lang Language, problem Problem, userAnswer string, result EvaluationResult) Entry {
	return Entry{
		ID:               uuid.New().String(),
		Language:         lang,
		Problem:          problem,
		UserAnswer:       userAnswer,
		EvaluationResult: result,
		Timestamp:        time.Now(),
	}
}
