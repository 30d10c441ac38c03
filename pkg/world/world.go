// Package world defines the authored configuration a game session is
// seeded from.
package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/taleforge/engine/pkg/fuzzy"
	"github.com/taleforge/engine/pkg/state"
	"github.com/taleforge/engine/pkg/worldtime"
)

// StatSpec is a starting character stat.
type StatSpec struct {
	Name     string `yaml:"name" json:"name"`
	Value    int    `yaml:"value" json:"value"`
	MaxValue int    `yaml:"max_value" json:"max_value"`
	HasLimit bool   `yaml:"has_limit" json:"has_limit"`
}

// EntitySpec is a pre-authored world entity the player may reference
// before discovering it in play.
type EntitySpec struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Type        string `yaml:"type" json:"type"`
}

// ItemSpec is a starting inventory entry.
type ItemSpec struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Quantity    int    `yaml:"quantity" json:"quantity"`
}

// World is an authored game template, loaded from a YAML file in the
// data directory.
type World struct {
	Name       string `yaml:"name" json:"name"`
	Genre      string `yaml:"genre" json:"genre"`
	Rating     string `yaml:"rating" json:"rating"`
	Story      string `yaml:"story" json:"story"`
	StyleGuide string `yaml:"style_guide" json:"style_guide,omitempty"`

	Calendar  worldtime.Calendar  `yaml:"calendar" json:"calendar"`
	StartTime worldtime.WorldTime `yaml:"start_time" json:"start_time"`

	Fuzzy fuzzy.Config `yaml:"fuzzy" json:"fuzzy"`

	ReputationTiers []string `yaml:"reputation_tiers" json:"reputation_tiers"`
	StartReputation int      `yaml:"start_reputation" json:"start_reputation"`

	CharacterName string       `yaml:"character_name" json:"character_name"`
	Stats         []StatSpec   `yaml:"stats" json:"stats"`
	Inventory     []ItemSpec   `yaml:"inventory" json:"inventory"`
	Entities      []EntitySpec `yaml:"entities" json:"entities"`

	Opening string `yaml:"opening" json:"opening"`
}

// Load reads and validates a world file.
func Load(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read world file: %w", err)
	}

	var w World
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse world file %s: %w", path, err)
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("invalid world %s: %w", path, err)
	}
	return &w, nil
}

// Validate checks the template's own invariants.
func (w *World) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(w.ReputationTiers) != 0 && len(w.ReputationTiers) != state.ReputationTierCount {
		return fmt.Errorf("reputation_tiers must have exactly %d entries, got %d",
			state.ReputationTierCount, len(w.ReputationTiers))
	}
	for _, s := range w.Stats {
		if s.HasLimit && s.MaxValue < s.Value {
			return fmt.Errorf("stat %q: max_value below value", s.Name)
		}
	}
	return nil
}

// NewGameState seeds a fresh session from the template. Restart
// recreates the state from here.
func (w *World) NewGameState() *state.GameState {
	gs := state.NewGameState()
	gs.WorldName = w.Name
	gs.Genre = w.Genre

	cal := w.Calendar
	if cal.DaysPerMonth <= 0 || cal.MonthsPerYear <= 0 {
		cal = worldtime.DefaultCalendar()
	}
	gs.WorldTime = worldtime.Clamp(w.StartTime, cal)

	arch := worldtime.ResolveArchetype(w.Genre)
	gs.Season = worldtime.SeasonFor(gs.WorldTime.Month, arch, cal)
	gs.Weather = worldtime.WeatherFor(gs.WorldTime.Month, arch, cal, nil)

	if len(w.ReputationTiers) == state.ReputationTierCount {
		gs.ReputationTiers = append([]string(nil), w.ReputationTiers...)
		gs.Reputation = state.Reputation{
			Score: state.ClampReputation(w.StartReputation),
		}
		gs.Reputation.Tier = state.TierForScore(gs.Reputation.Score, gs.ReputationTiers)
	}

	gs.Character.Name = w.CharacterName
	for _, s := range w.Stats {
		stat := state.Stat{Name: s.Name, Value: s.Value, MaxValue: s.MaxValue, HasLimit: s.HasLimit}
		if !stat.HasLimit {
			stat.MaxValue = stat.Value
		}
		if gs.Character.Stats == nil {
			gs.Character.Stats = make(map[string]state.Stat)
		}
		gs.Character.Stats[state.Key(s.Name)] = stat
	}

	for _, item := range w.Inventory {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		if gs.Inventory == nil {
			gs.Inventory = make(map[string]state.Item)
		}
		gs.Inventory[state.Key(item.Name)] = state.Item{
			Name:        item.Name,
			Description: item.Description,
			Quantity:    qty,
		}
	}

	for _, e := range w.Entities {
		if gs.InitialEntities == nil {
			gs.InitialEntities = make(map[string]state.Entity)
		}
		gs.InitialEntities[state.Key(e.Name)] = state.Entity{
			Name:        e.Name,
			Description: e.Description,
			Type:        e.Type,
		}
	}

	if w.Opening != "" {
		gs.History = append(gs.History, state.Turn{Role: state.TurnNarration, Content: w.Opening})
	}
	return gs
}
