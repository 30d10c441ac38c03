package prompts

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taleforge/engine/pkg/chat"
	"github.com/taleforge/engine/pkg/state"
	"github.com/taleforge/engine/pkg/worldtime"
)

func promptGameState() *state.GameState {
	gs := state.NewGameState()
	gs.WorldName = "Emberfall"
	gs.Genre = "dark fantasy"
	gs.WorldTime = worldtime.WorldTime{Year: 714, Month: 10, Day: 3, Hour: 17, Minute: 30}
	gs.Season = "Deepwinter"
	gs.Weather = "snowfall"
	gs.Character.Stats = map[string]state.Stat{
		"health": {Name: "Health", Value: 40, MaxValue: 50, HasLimit: true},
	}
	gs.Inventory = map[string]state.Item{
		"rations": {Name: "Rations", Description: "Dried fish", Quantity: 3},
	}
	gs.Quests = map[string]state.Quest{
		"find the smith": {Name: "Find the Smith", Description: "Locate Maren", Status: state.QuestActive},
		"old favor":      {Name: "Old Favor", Description: "Done already", Status: state.QuestCompleted},
	}
	gs.EncounteredNPCs = map[string]state.NPC{
		"brell": {Name: "Brell", Description: "Gate guard"},
	}
	gs.Memories = []string{"The forge went cold three weeks ago"}
	gs.Summaries = []string{"first summary", "latest summary"}
	return gs
}

func TestBuild(t *testing.T) {
	gs := promptGameState()
	gs.AppendTurnPair("approach the gate", "Brell waves you through.", nil)

	messages, err := New().
		WithGameState(gs).
		WithAction("ask about Maren").
		Build()
	require.NoError(t, err)

	// System prompt, two history entries, current action.
	require.Len(t, messages, 4)

	system := messages[0]
	assert.Equal(t, chat.RoleSystem, system.Role)
	assert.Contains(t, system.Content, "World: Emberfall")
	assert.Contains(t, system.Content, "Genre: dark fantasy")
	assert.Contains(t, system.Content, "year 714, month 10, day 3, 17:30")
	assert.Contains(t, system.Content, "STAT_CHANGE")
	assert.Contains(t, system.Content, "exactly three SUGGESTION")

	// Only active quests are surfaced.
	assert.Contains(t, system.Content, "Find the Smith")
	assert.NotContains(t, system.Content, "Old Favor")

	// Only the newest summary is carried.
	assert.Contains(t, system.Content, "latest summary")
	assert.NotContains(t, system.Content, "first summary")

	assert.Equal(t, chat.RoleUser, messages[1].Role)
	assert.Equal(t, "approach the gate", messages[1].Content)
	assert.Equal(t, chat.RoleNarrator, messages[2].Role)

	last := messages[len(messages)-1]
	assert.Equal(t, chat.RoleUser, last.Role)
	assert.Equal(t, "ask about Maren", last.Content)
}

func TestBuild_RequiredFields(t *testing.T) {
	_, err := New().WithAction("look").Build()
	assert.ErrorContains(t, err, "gamestate is required")

	_, err = New().WithGameState(promptGameState()).Build()
	assert.ErrorContains(t, err, "action is required")
}

func TestBuild_StyleGuideOverride(t *testing.T) {
	messages, err := New().
		WithGameState(promptGameState()).
		WithAction("look").
		WithStyleGuide("Write in terse, hard-boiled sentences.").
		Build()
	require.NoError(t, err)

	assert.Contains(t, messages[0].Content, "overrides genre defaults")
	assert.Contains(t, messages[0].Content, "hard-boiled sentences")
}

func TestBuild_DurationHint(t *testing.T) {
	messages, err := New().
		WithGameState(promptGameState()).
		WithAction("rest for an hour").
		WithDurationHint(60).
		Build()
	require.NoError(t, err)

	assert.Contains(t, messages[0].Content, "about 60 minutes")

	// No hint means no duration section.
	messages, err = New().
		WithGameState(promptGameState()).
		WithAction("look").
		Build()
	require.NoError(t, err)
	assert.NotContains(t, messages[0].Content, "explicit duration")
}

func TestBuild_HistoryWindow(t *testing.T) {
	gs := promptGameState()
	for i := 0; i < 12; i++ {
		gs.AppendTurnPair(fmt.Sprintf("action %d", i), fmt.Sprintf("narration %d", i), nil)
	}

	messages, err := New().
		WithGameState(gs).
		WithAction("look").
		WithHistoryLimit(4).
		Build()
	require.NoError(t, err)

	// System, four windowed entries, current action.
	require.Len(t, messages, 6)
	assert.Equal(t, "action 10", messages[1].Content)
	assert.Equal(t, "narration 11", messages[4].Content)
}

func TestStatePrompt(t *testing.T) {
	gs := promptGameState()

	out, err := StatePrompt(gs)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Game State:"))
	assert.Contains(t, out, `"Rations":3`)
	assert.Contains(t, out, `"Brell"`)
	assert.Contains(t, out, "The forge went cold three weeks ago")

	_, err = StatePrompt(nil)
	assert.Error(t, err)
}
