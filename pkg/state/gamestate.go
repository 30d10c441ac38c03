package state

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taleforge/engine/pkg/worldtime"
)

// Turn roles in the game history.
const (
	TurnAction    = "action"    // player-authored text
	TurnNarration = "narration" // narrator output, tag-stripped for display
)

// TurnMeta records what a narration turn added, so undo can trim
// exactly that much.
type TurnMeta struct {
	MemoriesAdded  int `json:"memories_added,omitempty"`
	SummariesAdded int `json:"summaries_added,omitempty"`
	MinutesPassed  int `json:"minutes_passed,omitempty"`
}

// Turn is one entry in the game history: either a player action or a
// narrator response.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	Meta    *TurnMeta `json:"meta,omitempty"`
}

// Item is an inventory entry. Quantity is always >= 1; reaching zero
// removes the record.
type Item struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity"`
}

// Status effect types.
const (
	StatusBuff   = "buff"
	StatusDebuff = "debuff"
)

// StatusEffect is a temporary condition on the player.
type StatusEffect struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"` // "buff" or "debuff"
}

// Stat is a character attribute. When HasLimit is false the stat has
// no bar semantics and MaxValue tracks Value.
type Stat struct {
	Name     string `json:"name"`
	Value    int    `json:"value"`
	MaxValue int    `json:"max_value"`
	HasLimit bool   `json:"has_limit"`
}

// Milestone is a free-text rank keyed by name ("Swordsmanship": "Adept").
type Milestone struct {
	Name string `json:"name"`
	Rank string `json:"rank"`
}

// Skill is a learned ability.
type Skill struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Character is the player's sheet.
type Character struct {
	Name       string               `json:"name,omitempty"`
	Stats      map[string]Stat      `json:"stats,omitempty"`
	Milestones map[string]Milestone `json:"milestones,omitempty"`
	Skills     map[string]Skill     `json:"skills,omitempty"`
}

// NPC is an encountered non-player character.
type NPC struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Disposition string `json:"disposition,omitempty"` // e.g. "hostile", "neutral", "friendly"
}

// Faction is a known group or organization.
type Faction struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Standing    string `json:"standing,omitempty"`
}

// Entity is a discovered world element (location, lore, creature).
type Entity struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"` // e.g. "location", "lore", "npc"
}

// Companion travels with the player.
type Companion struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Quest statuses.
const (
	QuestActive    = "active"
	QuestCompleted = "completed"
	QuestFailed    = "failed"
)

// Quest is a tracked objective.
type Quest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Reputation bounds. Score is clamped into this range.
const (
	ReputationMin = -100
	ReputationMax = 100
)

// Reputation is the player's public standing. Tier is always one of
// the five ReputationTiers labels once those exist.
type Reputation struct {
	Score int    `json:"score"`
	Tier  string `json:"tier,omitempty"`
}

// ReputationTierCount is the required number of tier labels, ordered
// from most infamous to most celebrated.
const ReputationTierCount = 5

// Dossier tracks which history entries mention an NPC but have not
// been summarized yet (fresh, by history index), and the summaries
// already produced (archived).
type Dossier struct {
	Fresh    []int    `json:"fresh,omitempty"`
	Archived []string `json:"archived,omitempty"`
}

// GameState is the root aggregate for one game session. It is
// replaced wholesale each turn; consumers never mutate a snapshot
// they did not produce.
//
// All named collections are maps keyed by Key(name), which makes
// case-insensitive uniqueness structural and deletion a removal by
// key. Records keep their display-cased Name. Names may collide
// across collections; that is allowed and meaningful.
type GameState struct {
	ID        uuid.UUID `json:"id"`
	WorldName string    `json:"world_name,omitempty"`
	Genre     string    `json:"genre,omitempty"`

	History []Turn `json:"history,omitempty"`

	WorldTime worldtime.WorldTime `json:"world_time"`
	Season    string              `json:"season,omitempty"`  // derived from WorldTime.Month
	Weather   string              `json:"weather,omitempty"` // derived from Season

	Reputation      Reputation `json:"reputation"`
	ReputationTiers []string   `json:"reputation_tiers,omitempty"`

	PlayerStatus map[string]StatusEffect `json:"player_status,omitempty"`
	Inventory    map[string]Item         `json:"inventory,omitempty"`
	Character    Character               `json:"character"`

	EncounteredNPCs     map[string]NPC       `json:"encountered_npcs,omitempty"`
	EncounteredFactions map[string]Faction   `json:"encountered_factions,omitempty"`
	DiscoveredEntities  map[string]Entity    `json:"discovered_entities,omitempty"`
	InitialEntities     map[string]Entity    `json:"initial_entities,omitempty"`
	Companions          map[string]Companion `json:"companions,omitempty"`
	Quests              map[string]Quest     `json:"quests,omitempty"`

	NPCDossiers map[string]*Dossier `json:"npc_dossiers,omitempty"`

	Memories  []string `json:"memories,omitempty"`
	Summaries []string `json:"summaries,omitempty"`

	// Suggestions are the current turn's offered actions, replaced
	// wholesale every turn.
	Suggestions []string `json:"suggestions,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Key normalizes a display name into a collection key: trimmed and
// lowercased. Collection identity is case-insensitive by contract.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewGameState creates an empty session.
func NewGameState() *GameState {
	return &GameState{
		ID:        uuid.New(),
		History:   make([]Turn, 0),
		CreatedAt: time.Now(),
	}
}

// DeepCopy returns an independent copy of the game state via a JSON
// round trip. Used before handing a snapshot to background work.
func (gs *GameState) DeepCopy() (*GameState, error) {
	data, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gamestate for copy: %w", err)
	}
	var out GameState
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gamestate copy: %w", err)
	}
	return &out, nil
}

// AppendTurnPair appends the player action and the narrator response
// as two history entries and returns their indices.
func (gs *GameState) AppendTurnPair(action, narration string, meta *TurnMeta) (actionIdx, narrationIdx int) {
	gs.History = append(gs.History, Turn{Role: TurnAction, Content: action})
	gs.History = append(gs.History, Turn{Role: TurnNarration, Content: narration, Meta: meta})
	return len(gs.History) - 2, len(gs.History) - 1
}

// UndoLastTurn removes the trailing action+narration pair and trims
// any memories and summaries that narration created. Dossier fresh
// indices pointing past the new history length are dropped too.
// Returns false when there is no complete pair to remove.
func (gs *GameState) UndoLastTurn() bool {
	n := len(gs.History)
	if n < 2 || gs.History[n-1].Role != TurnNarration || gs.History[n-2].Role != TurnAction {
		return false
	}

	if meta := gs.History[n-1].Meta; meta != nil {
		gs.Memories = trimTail(gs.Memories, meta.MemoriesAdded)
		gs.Summaries = trimTail(gs.Summaries, meta.SummariesAdded)
	}
	gs.History = gs.History[:n-2]

	limit := len(gs.History)
	for _, d := range gs.NPCDossiers {
		kept := d.Fresh[:0]
		for _, idx := range d.Fresh {
			if idx < limit {
				kept = append(kept, idx)
			}
		}
		d.Fresh = kept
	}

	gs.Suggestions = nil
	return true
}

func trimTail(list []string, n int) []string {
	if n <= 0 {
		return list
	}
	if n >= len(list) {
		return list[:0]
	}
	return list[:len(list)-n]
}

// TierForScore maps a reputation score onto the configured tier
// labels, splitting the score range into five equal brackets.
func TierForScore(score int, tiers []string) string {
	if len(tiers) != ReputationTierCount {
		return ""
	}
	span := (ReputationMax - ReputationMin + 1) / ReputationTierCount
	idx := (score - ReputationMin) / span
	if idx < 0 {
		idx = 0
	}
	if idx >= ReputationTierCount {
		idx = ReputationTierCount - 1
	}
	return tiers[idx]
}

// ClampReputation bounds a score into the allowed range.
func ClampReputation(score int) int {
	if score < ReputationMin {
		return ReputationMin
	}
	if score > ReputationMax {
		return ReputationMax
	}
	return score
}
