package achievement

import (
	"time"
)

// State is the persisted unlock state of one badge or title. Only
// state is ever stored; names, descriptions and predicates live in the
// registry and are joined back in at load time.
type State struct {
	ID         string     `json:"id"`
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// Badge is a definition joined with its current state, for display.
type Badge struct {
	BadgeDef
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// Title is a definition joined with its current state, for display.
type Title struct {
	TitleDef
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// Result is the outcome of one evaluation pass.
type Result struct {
	Badges    []State
	Titles    []State
	NewBadges []string
	NewTitles []string
}

// Engine evaluates the registry against progress snapshots.
type Engine struct {
	registry *Registry
}

// NewEngine creates an engine over the given registry.
func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Registry exposes the static tables backing this engine.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Evaluate re-checks every badge and title against the stats snapshot.
// Unlocks are monotonic: a badge that was unlocked stays unlocked even
// if its condition no longer holds (a streak badge survives the streak
// resetting), and the original unlock time is preserved. Prior states
// whose id is no longer in the registry are dropped.
func (e *Engine) Evaluate(stats Stats, priorBadges, priorTitles []State, now time.Time) Result {
	var result Result

	prior := statesByID(priorBadges)
	unlockedBadges := make(map[string]bool)
	for _, def := range e.registry.Badges {
		state := advanceState(prior[def.ID], def.ID, def.Unlock(stats), now)
		if state.Unlocked {
			unlockedBadges[def.ID] = true
			if !prior[def.ID].Unlocked {
				result.NewBadges = append(result.NewBadges, def.ID)
			}
		}
		result.Badges = append(result.Badges, state)
	}

	prior = statesByID(priorTitles)
	for _, def := range e.registry.Titles {
		state := advanceState(prior[def.ID], def.ID, titleEarned(def, unlockedBadges), now)
		if state.Unlocked && !prior[def.ID].Unlocked {
			result.NewTitles = append(result.NewTitles, def.ID)
		}
		result.Titles = append(result.Titles, state)
	}

	return result
}

// JoinBadges merges persisted badge states with the registry. States
// are optional: a badge with no stored state is locked.
func (e *Engine) JoinBadges(states []State) []Badge {
	byID := statesByID(states)
	badges := make([]Badge, 0, len(e.registry.Badges))
	for _, def := range e.registry.Badges {
		state := byID[def.ID]
		badges = append(badges, Badge{BadgeDef: def, Unlocked: state.Unlocked, UnlockedAt: state.UnlockedAt})
	}
	return badges
}

// JoinTitles merges persisted title states with the registry.
func (e *Engine) JoinTitles(states []State) []Title {
	byID := statesByID(states)
	titles := make([]Title, 0, len(e.registry.Titles))
	for _, def := range e.registry.Titles {
		state := byID[def.ID]
		titles = append(titles, Title{TitleDef: def, Unlocked: state.Unlocked, UnlockedAt: state.UnlockedAt})
	}
	return titles
}

func titleEarned(def TitleDef, unlockedBadges map[string]bool) bool {
	if def.AnyBadge {
		return len(unlockedBadges) > 0
	}
	if len(def.RequiredBadges) == 0 {
		return false
	}
	for _, id := range def.RequiredBadges {
		if !unlockedBadges[id] {
			return false
		}
	}
	return true
}

func advanceState(prior State, id string, earned bool, now time.Time) State {
	if prior.Unlocked {
		return State{ID: id, Unlocked: true, UnlockedAt: prior.UnlockedAt}
	}
	if earned {
		at := now
		return State{ID: id, Unlocked: true, UnlockedAt: &at}
	}
	return State{ID: id}
}

func statesByID(states []State) map[string]State {
	byID := make(map[string]State, len(states))
	for _, s := range states {
		byID[s.ID] = s
	}
	return byID
}
