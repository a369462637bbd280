package achievement

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/whetstone/internal/domain"
)

// Rarity grades how hard an achievement is to earn.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Category groups badges for presentation.
type Category string

const (
	CategoryStreak   Category = "streak"
	CategoryScore    Category = "score"
	CategoryPerfect  Category = "perfect"
	CategoryLanguage Category = "language"
	CategorySession  Category = "session"
	CategoryLevel    Category = "level"
)

// BadgeDef is a static badge definition. The Unlock predicate is pure:
// it inspects a stats snapshot and nothing else.
type BadgeDef struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Rarity      Rarity   `json:"rarity"`
	Unlock      func(Stats) bool `json:"-"`
}

// TitleDef is a static title definition. A title unlocks when every
// badge it requires is unlocked; AnyBadge titles unlock on the first
// badge of any kind instead.
type TitleDef struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Rarity         Rarity   `json:"rarity"`
	RequiredBadges []string `json:"required_badges,omitempty"`
	AnyBadge       bool     `json:"any_badge,omitempty"`
}

// Registry holds the full achievement tables. Definitions are static;
// only unlock state is ever persisted.
type Registry struct {
	Badges []BadgeDef
	Titles []TitleDef
}

// BadgeByID looks up a badge definition.
func (r *Registry) BadgeByID(id string) (BadgeDef, bool) {
	for _, def := range r.Badges {
		if def.ID == id {
			return def, true
		}
	}
	return BadgeDef{}, false
}

// TitleByID looks up a title definition.
func (r *Registry) TitleByID(id string) (TitleDef, bool) {
	for _, def := range r.Titles {
		if def.ID == id {
			return def, true
		}
	}
	return TitleDef{}, false
}

func streakBadge(days int, name string, rarity Rarity) BadgeDef {
	return BadgeDef{
		ID:          fmt.Sprintf("streak_%d", days),
		Name:        name,
		Description: fmt.Sprintf("Practice %d days in a row", days),
		Category:    CategoryStreak,
		Rarity:      rarity,
		Unlock:      func(s Stats) bool { return s.CurrentStreak >= days },
	}
}

func masterBadge(lang domain.Language) BadgeDef {
	id := strings.ToLower(string(lang))
	id = strings.NewReplacer("#", "sharp", "++", "pp").Replace(id)
	return BadgeDef{
		ID:          "master_" + id,
		Name:        fmt.Sprintf("%s Master", lang),
		Description: fmt.Sprintf("Clear level 10 in %s ten times", lang),
		Category:    CategoryLanguage,
		Rarity:      RarityEpic,
		Unlock: func(s Stats) bool {
			return s.TopLevelClears[lang] >= 10
		},
	}
}

// Default returns the built-in achievement tables.
func Default() *Registry {
	badges := []BadgeDef{
		streakBadge(3, "Getting Started", RarityCommon),
		streakBadge(7, "Week Warrior", RarityRare),
		streakBadge(14, "Fortnight Champion", RarityEpic),
		streakBadge(30, "Monthly Master", RarityLegendary),
		streakBadge(100, "Centurion", RarityLegendary),

		{
			ID: "score_70", Name: "Good Eye",
			Description: "Score 70 or higher",
			Category:    CategoryScore, Rarity: RarityCommon,
			Unlock: func(s Stats) bool { return s.MaxScore >= 70 },
		},
		{
			ID: "score_85", Name: "Sharp Reviewer",
			Description: "Score 85 or higher",
			Category:    CategoryScore, Rarity: RarityRare,
			Unlock: func(s Stats) bool { return s.MaxScore >= 85 },
		},
		{
			ID: "score_95", Name: "Eagle Eye",
			Description: "Score 95 or higher",
			Category:    CategoryScore, Rarity: RarityEpic,
			Unlock: func(s Stats) bool { return s.MaxScore >= 95 },
		},

		{
			ID: "perfect_1", Name: "First Perfect",
			Description: "Achieve your first perfect score",
			Category:    CategoryPerfect, Rarity: RarityRare,
			Unlock: func(s Stats) bool { return s.PerfectCount >= 1 },
		},
		{
			ID: "perfect_5", Name: "Perfectionist",
			Description: "Achieve 5 perfect scores",
			Category:    CategoryPerfect, Rarity: RarityEpic,
			Unlock: func(s Stats) bool { return s.PerfectCount >= 5 },
		},
		{
			ID: "perfect_10", Name: "Flawless Legend",
			Description: "Achieve 10 perfect scores",
			Category:    CategoryPerfect, Rarity: RarityLegendary,
			Unlock: func(s Stats) bool { return s.PerfectCount >= 10 },
		},

		{
			ID: "lang_3", Name: "Polyglot",
			Description: "Practice 3 languages",
			Category:    CategoryLanguage, Rarity: RarityCommon,
			Unlock: func(s Stats) bool { return s.LanguagesPracticed >= 3 },
		},
		{
			ID: "lang_5", Name: "Language Master",
			Description: "Practice 5 languages",
			Category:    CategoryLanguage, Rarity: RarityRare,
			Unlock: func(s Stats) bool { return s.LanguagesPracticed >= 5 },
		},
		{
			ID: "lang_8", Name: "Multilingual Expert",
			Description: "Practice 8 languages",
			Category:    CategoryLanguage, Rarity: RarityEpic,
			Unlock: func(s Stats) bool { return s.LanguagesPracticed >= 8 },
		},
		{
			ID: "lang_12", Name: "Universal Developer",
			Description: "Practice all 12 languages",
			Category:    CategoryLanguage, Rarity: RarityLegendary,
			Unlock: func(s Stats) bool { return s.LanguagesPracticed >= 12 },
		},

		{
			ID: "session_10", Name: "Beginner",
			Description: "Complete 10 sessions",
			Category:    CategorySession, Rarity: RarityCommon,
			Unlock: func(s Stats) bool { return s.TotalSessions >= 10 },
		},
		{
			ID: "session_50", Name: "Dedicated Learner",
			Description: "Complete 50 sessions",
			Category:    CategorySession, Rarity: RarityRare,
			Unlock: func(s Stats) bool { return s.TotalSessions >= 50 },
		},
		{
			ID: "session_100", Name: "Veteran Reviewer",
			Description: "Complete 100 sessions",
			Category:    CategorySession, Rarity: RarityEpic,
			Unlock: func(s Stats) bool { return s.TotalSessions >= 100 },
		},
		{
			ID: "session_200", Name: "Review Master",
			Description: "Complete 200 sessions",
			Category:    CategorySession, Rarity: RarityLegendary,
			Unlock: func(s Stats) bool { return s.TotalSessions >= 200 },
		},

		{
			ID: "level_5", Name: "Intermediate",
			Description: "Clear a level 5 problem",
			Category:    CategoryLevel, Rarity: RarityCommon,
			Unlock: func(s Stats) bool { return s.MaxLevel >= 5 },
		},
		{
			ID: "level_7", Name: "Advanced",
			Description: "Clear a level 7 problem",
			Category:    CategoryLevel, Rarity: RarityRare,
			Unlock: func(s Stats) bool { return s.MaxLevel >= 7 },
		},
		{
			ID: "level_9", Name: "Expert",
			Description: "Clear a level 9 problem",
			Category:    CategoryLevel, Rarity: RarityEpic,
			Unlock: func(s Stats) bool { return s.MaxLevel >= 9 },
		},
		{
			ID: "level_10", Name: "Elite Reviewer",
			Description: "Clear the hardest level 10 problem",
			Category:    CategoryLevel, Rarity: RarityLegendary,
			Unlock: func(s Stats) bool { return s.MaxLevel >= 10 },
		},
	}

	for _, lang := range domain.Languages {
		badges = append(badges, masterBadge(lang))
	}

	titles := []TitleDef{
		{
			ID: "title_newcomer", Name: "Newcomer Reviewer",
			Description: "Earn your first badge",
			Rarity:      RarityCommon, AnyBadge: true,
		},
		{
			ID: "title_perfectionist", Name: "Perfectionist",
			Description: "Achieve your first perfect score",
			Rarity:      RarityRare, RequiredBadges: []string{"perfect_1"},
		},
		{
			ID: "title_consistent", Name: "Consistency Is Power",
			Description: "Practice 3 days in a row",
			Rarity:      RarityCommon, RequiredBadges: []string{"streak_3"},
		},
		{
			ID: "title_dedicated", Name: "Devoted Learner",
			Description: "Practice 7 days in a row",
			Rarity:      RarityRare, RequiredBadges: []string{"streak_7"},
		},
		{
			ID: "title_polyglot", Name: "Multilingual",
			Description: "Practice 5 languages",
			Rarity:      RarityEpic, RequiredBadges: []string{"lang_5"},
		},
		{
			ID: "title_veteran", Name: "Veteran Reviewer",
			Description: "Complete 100 sessions",
			Rarity:      RarityEpic, RequiredBadges: []string{"session_100"},
		},
		{
			ID: "title_master", Name: "Code Review Master",
			Description: "100 sessions and 5 languages",
			Rarity:      RarityLegendary, RequiredBadges: []string{"session_100", "lang_5"},
		},
		{
			ID: "title_legend", Name: "Legendary Reviewer",
			Description: "200 sessions and all 12 languages",
			Rarity:      RarityLegendary, RequiredBadges: []string{"session_200", "lang_12"},
		},
		{
			ID: "title_flawless", Name: "Flawless Eye",
			Description: "10 perfect scores and a level 10 clear",
			Rarity:      RarityLegendary, RequiredBadges: []string{"perfect_10", "level_10"},
		},
	}

	return &Registry{Badges: badges, Titles: titles}
}
