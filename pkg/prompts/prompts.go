package prompts

import (
	"encoding/json"
	"fmt"

	"github.com/taleforge/engine/pkg/state"
)

// BaseSystemPrompt frames the narrator role. The first verb is the
// world's narrative voice; the genre and style guide follow.
const BaseSystemPrompt = `You are the omniscient game master of a text adventure. You describe the story to the player as it unfolds, in third person. You provide narration and NPC dialogue, but you never speak for the player.

### Rules for narrative output:
- The total response must be between 1 and 4 paragraphs of prose.
- Do not break the fourth wall or acknowledge that you are an AI.
- The player controls only their character. You control all NPCs and world events.
- Move the story forward gradually; let the player explore and discover.
`

// TagInstructions teaches the model the directive mini-language. The
// engine parses these lines back out of the response; prose never
// reaches the state machine.
const TagInstructions = `### State directives
After your narration, write the line "---" and then one directive per line describing every concrete state change your narration implies. Use this exact syntax, with string values double-quoted and no trailing commas:

[STAT_CHANGE: name="Health", operation="subtract", level="medium"]
[ITEM_ADD: name="Healing Potion", quantity=2, description="Heals minor wounds"]
[ITEM_REMOVE: name="Healing Potion", quantity=1]
[STATUS_ACQUIRED: name="Poisoned", type="debuff", description="Losing health over time"]
[STATUS_REMOVED: name="Poisoned"]
[REPUTATION_CHANGED: score=-10]
[SKILL_LEARNED: name="Lockpicking", description="Open simple locks"]
[QUEST_NEW: name="The Missing Caravan", description="Find the lost merchant caravan"]
[QUEST_UPDATE: name="The Missing Caravan", status="completed"]
[NPC_NEW: name="Mera", description="A wary innkeeper", disposition="neutral"]
[NPC_UPDATE: name="Mera", disposition="friendly"]
[FACTION_UPDATE: name="Thieves Guild", standing="hostile", description="The city's criminal underworld"]
[LOCATION_DISCOVERED: name="The Sunken Library", description="A drowned archive beneath the docks"]
[LORE_DISCOVERED: name="The Severance", description="The cataclysm that split the old empire"]
[COMPANION_NEW: name="Brandt", description="A retired soldier who owes you a debt"]
[COMPANION_REMOVE: name="Brandt"]
[MEMORY_ADD: content="The player spared the bandit leader"]
[MILESTONE_UPDATE: name="Swordsmanship", rank="Adept"]
[TIME_PASS: level="short"]
[SUGGESTION: text="Ask Mera about the caravan"]

Magnitude levels are "low", "medium" or "high"; duration levels are "short", "medium" or "long". For TIME_PASS you may instead give explicit units: minutes, hours, days, months, years. Always end with exactly three SUGGESTION directives. Emit a directive only for changes your narration actually describes.`

// DurationHintFormat tells the model the player's action already
// fixed this turn's duration. The engine enforces the precedence
// regardless; the hint just keeps the narration consistent.
const DurationHintFormat = `The player's action specifies an explicit duration of about %d minutes. Your TIME_PASS directive is advisory this turn; narrate a span of that length.`

// promptState is the compact state representation embedded in the
// system prompt. Only what the narrator needs to stay consistent.
type promptState struct {
	WorldTime   string            `json:"world_time"`
	Season      string            `json:"season,omitempty"`
	Weather     string            `json:"weather,omitempty"`
	Reputation  state.Reputation  `json:"reputation"`
	Stats       []state.Stat      `json:"stats,omitempty"`
	Status      []string          `json:"status_effects,omitempty"`
	Inventory   map[string]int    `json:"inventory,omitempty"`
	Companions  []string          `json:"companions,omitempty"`
	Quests      map[string]string `json:"active_quests,omitempty"`
	KnownNPCs   []string          `json:"known_npcs,omitempty"`
	CoreMemory  []string          `json:"core_memories,omitempty"`
	LastSummary string            `json:"last_summary,omitempty"`
}

// StatePrompt renders the game state block for the system prompt.
func StatePrompt(gs *state.GameState) (string, error) {
	if gs == nil {
		return "", fmt.Errorf("gamestate is required")
	}

	ps := promptState{
		WorldTime: fmt.Sprintf("year %d, month %d, day %d, %02d:%02d",
			gs.WorldTime.Year, gs.WorldTime.Month, gs.WorldTime.Day, gs.WorldTime.Hour, gs.WorldTime.Minute),
		Season:     gs.Season,
		Weather:    gs.Weather,
		Reputation: gs.Reputation,
	}

	for _, s := range sortedValues(gs.Character.Stats) {
		ps.Stats = append(ps.Stats, s)
	}
	for _, e := range sortedValues(gs.PlayerStatus) {
		ps.Status = append(ps.Status, fmt.Sprintf("%s (%s)", e.Name, e.Type))
	}
	if len(gs.Inventory) > 0 {
		ps.Inventory = make(map[string]int, len(gs.Inventory))
		for _, item := range gs.Inventory {
			ps.Inventory[item.Name] = item.Quantity
		}
	}
	for _, c := range sortedValues(gs.Companions) {
		ps.Companions = append(ps.Companions, c.Name)
	}
	for _, q := range sortedValues(gs.Quests) {
		if q.Status == state.QuestActive {
			if ps.Quests == nil {
				ps.Quests = make(map[string]string)
			}
			ps.Quests[q.Name] = q.Description
		}
	}
	for _, npc := range sortedValues(gs.EncounteredNPCs) {
		ps.KnownNPCs = append(ps.KnownNPCs, npc.Name)
	}
	ps.CoreMemory = gs.Memories
	if len(gs.Summaries) > 0 {
		ps.LastSummary = gs.Summaries[len(gs.Summaries)-1]
	}

	data, err := json.Marshal(ps)
	if err != nil {
		return "", fmt.Errorf("failed to marshal prompt state: %w", err)
	}
	return "Game State:\n```json\n" + string(data) + "\n```", nil
}
