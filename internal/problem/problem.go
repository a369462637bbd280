// Package problem generates code-review exercises and grades
// submitted reviews.
package problem

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/whetstone/internal/domain"
)

var (
	ErrInvalidLanguage = errors.New("unsupported language")
	ErrInvalidLevel    = errors.New("level out of range")
	ErrMalformedReply  = errors.New("malformed model reply")
)

// Generator produces a review problem for a language and level.
type Generator interface {
	Generate(ctx context.Context, lang domain.Language, level domain.Level) (domain.Problem, error)
}

// Evaluator grades a submitted review against a problem's planted
// issues.
type Evaluator interface {
	Evaluate(ctx context.Context, prob domain.Problem, userAnswer string) (domain.EvaluationResult, error)
}
