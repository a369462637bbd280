package trainer

import (
	"fmt"

	"github.com/felixgeelhaar/whetstone/internal/domain"
	"github.com/felixgeelhaar/whetstone/internal/streak"
)

// LanguageStats summarizes one language's progress.
type LanguageStats struct {
	Language     domain.Language `json:"language"`
	Lifetime     int             `json:"lifetime"`
	Retained     int             `json:"retained"`
	BestScore    int             `json:"best_score"`
	AverageScore float64         `json:"average_score"`
}

// Summary is the aggregate progress view.
type Summary struct {
	Streak          streak.Record   `json:"streak"`
	Languages       []LanguageStats `json:"languages"`
	BadgesUnlocked  int             `json:"badges_unlocked"`
	BadgesTotal     int             `json:"badges_total"`
	TitlesUnlocked  int             `json:"titles_unlocked"`
	TitlesTotal     int             `json:"titles_total"`
	SelectedTitle   string          `json:"selected_title,omitempty"`
}

// Stats builds the aggregate progress summary. Averages and best
// scores cover retained history only; lifetime counts cover
// everything ever practiced.
func (s *Service) Stats() (Summary, error) {
	rec, err := s.streaks.Load()
	if err != nil {
		return Summary{}, fmt.Errorf("load streak: %w", err)
	}
	all, err := s.history.All()
	if err != nil {
		return Summary{}, fmt.Errorf("load history: %w", err)
	}
	counts, err := s.history.TotalCounts()
	if err != nil {
		return Summary{}, fmt.Errorf("load counters: %w", err)
	}

	summary := Summary{Streak: rec}
	for _, lang := range domain.Languages {
		entries := all[lang]
		if len(entries) == 0 && counts[lang] == 0 {
			continue
		}
		ls := LanguageStats{
			Language: lang,
			Lifetime: counts[lang],
			Retained: len(entries),
		}
		total := 0
		for _, e := range entries {
			score := e.EvaluationResult.TotalScore
			total += score
			if score > ls.BestScore {
				ls.BestScore = score
			}
		}
		if len(entries) > 0 {
			ls.AverageScore = float64(total) / float64(len(entries))
		}
		summary.Languages = append(summary.Languages, ls)
	}

	badges, titles, selected, err := s.Achievements()
	if err != nil {
		return Summary{}, fmt.Errorf("load achievements: %w", err)
	}
	summary.BadgesTotal = len(badges)
	summary.TitlesTotal = len(titles)
	summary.SelectedTitle = selected
	for _, b := range badges {
		if b.Unlocked {
			summary.BadgesUnlocked++
		}
	}
	for _, t := range titles {
		if t.Unlocked {
			summary.TitlesUnlocked++
		}
	}
	return summary, nil
}
