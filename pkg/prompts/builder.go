package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/taleforge/engine/pkg/chat"
	"github.com/taleforge/engine/pkg/state"
)

const defaultHistoryLimit = 10

// Builder constructs the message array for one generation call using
// a fluent interface.
type Builder struct {
	gs           *state.GameState
	action       string
	styleGuide   string
	durationHint int
	historyLimit int
}

// New creates a prompt builder with default settings.
func New() *Builder {
	return &Builder{historyLimit: defaultHistoryLimit}
}

// WithGameState sets the state snapshot the prompt describes.
func (b *Builder) WithGameState(gs *state.GameState) *Builder {
	b.gs = gs
	return b
}

// WithAction sets the player's action for this turn.
func (b *Builder) WithAction(action string) *Builder {
	b.action = action
	return b
}

// WithStyleGuide sets an optional authored style guide. When present
// it strictly overrides the genre-derived tone defaults.
func (b *Builder) WithStyleGuide(guide string) *Builder {
	b.styleGuide = guide
	return b
}

// WithDurationHint tells the narrator the player's action already
// fixed this turn's duration, in minutes. Zero means no hint.
func (b *Builder) WithDurationHint(minutes int) *Builder {
	b.durationHint = minutes
	return b
}

// WithHistoryLimit sets the history window size.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build assembles the final message array.
func (b *Builder) Build() ([]chat.Message, error) {
	if b.gs == nil {
		return nil, fmt.Errorf("gamestate is required")
	}
	if b.action == "" {
		return nil, fmt.Errorf("action is required")
	}

	var sb strings.Builder
	sb.WriteString(BaseSystemPrompt)

	sb.WriteString("\n### Setting\n")
	if b.gs.WorldName != "" {
		sb.WriteString("World: " + b.gs.WorldName + "\n")
	}
	if b.gs.Genre != "" {
		sb.WriteString("Genre: " + b.gs.Genre + "\n")
	}
	if b.styleGuide != "" {
		// An authored style guide overrides genre tone defaults.
		sb.WriteString("\n### Style guide (overrides genre defaults)\n" + b.styleGuide + "\n")
	}

	statePrompt, err := StatePrompt(b.gs)
	if err != nil {
		return nil, fmt.Errorf("error building state prompt: %w", err)
	}
	sb.WriteString("\n" + statePrompt)

	sb.WriteString("\n\n" + TagInstructions)

	if b.durationHint > 0 {
		sb.WriteString("\n\n" + fmt.Sprintf(DurationHintFormat, b.durationHint))
	}

	messages := []chat.Message{{Role: chat.RoleSystem, Content: sb.String()}}
	messages = append(messages, b.historyWindow()...)
	messages = append(messages, chat.Message{Role: chat.RoleUser, Content: b.action})
	return messages, nil
}

// historyWindow maps the trailing history onto chat messages.
func (b *Builder) historyWindow() []chat.Message {
	history := b.gs.History
	if b.historyLimit > 0 && len(history) > b.historyLimit {
		history = history[len(history)-b.historyLimit:]
	}

	messages := make([]chat.Message, 0, len(history))
	for _, turn := range history {
		role := chat.RoleUser
		if turn.Role == state.TurnNarration {
			role = chat.RoleNarrator
		}
		messages = append(messages, chat.Message{Role: role, Content: turn.Content})
	}
	return messages
}

// sortedValues returns map values ordered by key, for stable prompt
// output.
func sortedValues[T any](m map[string]T) []T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]T, 0, len(keys))
	for _, k := range keys {
		values = append(values, m[k])
	}
	return values
}
