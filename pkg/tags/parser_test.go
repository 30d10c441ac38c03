package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_ProseAndDirectives(t *testing.T) {
	raw := "The innkeeper slides a key across the counter.\n" +
		"\n" +
		"---\n" +
		"[ITEM_ADD: name=\"Brass Key\", description=\"Opens the attic room\", quantity=1]\n" +
		"[TIME_PASS: level=\"low\"]\n" +
		"[SUGGESTION: text=\"Head upstairs\"]\n"

	res := Extract(raw)

	assert.Equal(t, "The innkeeper slides a key across the counter.", res.Narration)
	require.Len(t, res.Tags, 3)
	assert.Empty(t, res.Diagnostics)

	assert.Equal(t, ItemAdd, res.Tags[0].Name)
	assert.Equal(t, "Brass Key", res.Tags[0].Str("name"))
	assert.Equal(t, "Opens the attic room", res.Tags[0].Str("description"))
	qty, ok := res.Tags[0].Int("quantity")
	assert.True(t, ok)
	assert.Equal(t, 1, qty)

	assert.Equal(t, TimePass, res.Tags[1].Name)
	assert.Equal(t, "low", res.Tags[1].Str("level"))

	assert.Equal(t, Suggestion, res.Tags[2].Name)
	assert.Equal(t, "Head upstairs", res.Tags[2].Str("text"))
}

func TestExtract_InlineDirectivesBeforeMarker(t *testing.T) {
	raw := "You drink deeply from the spring.\n" +
		"[STAT_CHANGE: name=\"Health\", operation=\"add\", amount=5]\n" +
		"The water tastes of iron."

	res := Extract(raw)

	assert.Equal(t, "You drink deeply from the spring.\nThe water tastes of iron.", res.Narration)
	require.Len(t, res.Tags, 1)
	assert.Equal(t, StatChange, res.Tags[0].Name)
}

func TestExtract_OrderPreserved(t *testing.T) {
	raw := "---\n" +
		"[QUEST_NEW: name=\"Find the Smith\", description=\"Locate Maren\"]\n" +
		"[NPC_NEW: name=\"Watchman Brell\", description=\"Nervous gate guard\"]\n" +
		"[QUEST_UPDATE: name=\"Find the Smith\", status=\"active\"]\n"

	res := Extract(raw)

	require.Len(t, res.Tags, 3)
	assert.Equal(t, []string{QuestNew, NPCNew, QuestUpdate},
		[]string{res.Tags[0].Name, res.Tags[1].Name, res.Tags[2].Name})
}

func TestExtract_UnknownTagStaysInProse(t *testing.T) {
	raw := "The sign reads [CLOSED: forever] in faded paint."

	res := Extract(raw)

	assert.Empty(t, res.Tags)
	assert.Equal(t, raw, res.Narration)
}

func TestExtract_BracketedProseUntouched(t *testing.T) {
	// Inline display markup is not a directive; it must survive.
	raw := "You meet [entity]Foreman Okafor[/entity] at the dock."

	res := Extract(raw)

	assert.Empty(t, res.Tags)
	assert.Equal(t, raw, res.Narration)
}

func TestExtract_MissingRequiredParamDropsTag(t *testing.T) {
	raw := "---\n" +
		"[STAT_CHANGE: operation=\"add\", amount=5]\n"

	res := Extract(raw)

	assert.Empty(t, res.Tags)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Reason, "name")
}

func TestExtract_MalformedParamsDropsTag(t *testing.T) {
	raw := "---\n" +
		"[ITEM_ADD: name=\"Rope\", garbage]\n"

	res := Extract(raw)

	assert.Empty(t, res.Tags)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Reason, "malformed")
}

func TestExtract_NoiseAfterMarkerDropped(t *testing.T) {
	raw := "The door creaks open.\n" +
		"---\n" +
		"[MEMORY_ADD: content=\"Entered the undercity\"]\n" +
		"I hope this narration was helpful!\n"

	res := Extract(raw)

	assert.Equal(t, "The door creaks open.", res.Narration)
	require.Len(t, res.Tags, 1)
}

func TestExtract_QuotedCommasAndEscapes(t *testing.T) {
	raw := "---\n" +
		"[MEMORY_ADD: content=\"Found the key, the map, and a letter\"]\n"

	res := Extract(raw)

	require.Len(t, res.Tags, 1)
	assert.Equal(t, "Found the key, the map, and a letter", res.Tags[0].Str("content"))
}

func TestExtract_ValueCoercion(t *testing.T) {
	raw := "---\n" +
		"[STAT_CHANGE: name=\"Health\", operation=\"subtract\", amount=12.5, critical=true]\n"

	res := Extract(raw)

	require.Len(t, res.Tags, 1)
	tag := res.Tags[0]

	n, ok := tag.Num("amount")
	assert.True(t, ok)
	assert.Equal(t, 12.5, n)

	b, ok := tag.Bool("critical")
	assert.True(t, ok)
	assert.True(t, b)
}

func TestExtract_EmptyInput(t *testing.T) {
	res := Extract("")
	assert.Empty(t, res.Narration)
	assert.Empty(t, res.Tags)
}

func TestExtract_StatusAcquiredRequiresType(t *testing.T) {
	raw := "---\n" +
		"[STATUS_ACQUIRED: name=\"Chilled\"]\n" +
		"[STATUS_ACQUIRED: name=\"Warmed\", type=\"buff\", description=\"Near the fire\"]\n"

	res := Extract(raw)

	require.Len(t, res.Tags, 1)
	assert.Equal(t, "Warmed", res.Tags[0].Str("name"))
	require.Len(t, res.Diagnostics, 1)
}

func TestRecognized(t *testing.T) {
	assert.True(t, Recognized(StatChange))
	assert.True(t, Recognized(ReputationTiersSet))
	assert.False(t, Recognized("DRAGON_SUMMON"))
	assert.False(t, Recognized(""))
}
