package problem

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/whetstone/internal/domain"
)

// MockGenerator returns a canned problem without calling any model.
// Used for offline development and end-to-end testing of everything
// downstream of generation.
type MockGenerator struct{}

func (MockGenerator) Generate(_ context.Context, lang domain.Language, level domain.Level) (domain.Problem, error) {
	if !lang.Valid() {
		return domain.Problem{}, fmt.Errorf("%w: %s", ErrInvalidLanguage, lang)
	}
	if !level.Valid() {
		return domain.Problem{}, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}

	prob := mockProblem
	prob.Language = lang
	prob.Level = level
	return prob, nil
}

// MockEvaluator returns a canned evaluation without calling any model.
type MockEvaluator struct{}

func (MockEvaluator) Evaluate(_ context.Context, prob domain.Problem, _ string) (domain.EvaluationResult, error) {
	result := mockEvaluation
	if n := len(prob.RequiredIssues); n > 0 && n < len(result.Scores) {
		result.Scores = result.Scores[:n]
	}
	return result, nil
}

var mockProblem = domain.Problem{
	Prerequisite: "Login handler for a web application that authenticates users against a database.",
	Code: `function login(username, password) {
  const query = "SELECT * FROM users WHERE username = '" + username + "' AND password = '" + password + "'";
  const result = db.execute(query);

  if (result.length > 0) {
    session.user = result[0];
    return true;
  }
  return false;
}

function hashPassword(password) {
  return md5(password);
}`,
	RequiredIssuesCount: 3,
	RequiredIssues: []domain.Issue{
		{
			Summary: "SQL injection vulnerability",
			Detail:  "User input is concatenated directly into the SQL statement. Use prepared statements or parameterized queries.",
		},
		{
			Summary: "Passwords compared in plain text",
			Detail:  "Passwords are compared against the database without hashing. Hash on write and compare hash values.",
		},
		{
			Summary: "MD5 used for password hashing",
			Detail:  "MD5 is not cryptographically secure. Use bcrypt or Argon2 instead.",
		},
	},
	OptionalIssues: []domain.Issue{
		{
			Summary: "Missing error handling",
			Detail:  "Database connection and query errors are not handled.",
		},
	},
}

var mockEvaluation = domain.EvaluationResult{
	Scores: []domain.IssueScore{
		{
			IssueIndex: 0,
			Score:      9,
			Feedback:   "The SQL injection vulnerability is identified precisely, including the prepared-statement fix.",
		},
		{
			IssueIndex: 1,
			Score:      7,
			Feedback:   "The password handling problem is identified, but the concrete remediation could be more detailed.",
		},
		{
			IssueIndex: 2,
			Score:      5,
			Feedback:   "The MD5 weakness is mentioned, but no alternative algorithm is suggested.",
		},
	},
	TotalScore:      70,
	OverallFeedback: "The main security problems are broadly covered, with the SQL injection finding being particularly sharp. Pairing each finding with a concrete fix would make the review more actionable.",
}
