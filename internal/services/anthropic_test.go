package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taleforge/engine/pkg/chat"
)

func TestSplitMessages(t *testing.T) {
	system, conversation := splitMessages([]chat.Message{
		{Role: chat.RoleSystem, Content: "You are the narrator."},
		{Role: chat.RoleUser, Content: "look around"},
		{Role: chat.RoleNarrator, Content: "The square is empty."},
		{Role: chat.RoleSystem, Content: "Keep it short."},
	})

	assert.Equal(t, "You are the narrator.\n\nKeep it short.", system)
	assert.Len(t, conversation, 2)
	assert.Equal(t, chat.RoleUser, conversation[0].Role)
	assert.Equal(t, chat.RoleNarrator, conversation[1].Role)
}

func TestSplitMessages_NoSystem(t *testing.T) {
	system, conversation := splitMessages([]chat.Message{
		{Role: chat.RoleUser, Content: "look"},
	})
	assert.Empty(t, system)
	assert.Len(t, conversation, 1)
}

func TestIsPolicyMessage(t *testing.T) {
	assert.True(t, isPolicyMessage("Output blocked by content filtering policy"))
	assert.True(t, isPolicyMessage("This request violates our Usage Policy"))
	assert.True(t, isPolicyMessage("rejected by content policy"))
	assert.False(t, isPolicyMessage("rate limit exceeded"))
	assert.False(t, isPolicyMessage(""))
}
