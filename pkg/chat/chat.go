package chat

import (
	"fmt"

	"github.com/google/uuid"
)

// TurnRequest is a player action submitted to the engine API.
type TurnRequest struct {
	GameStateID uuid.UUID `json:"gamestate_id"`
	Action      string    `json:"action"`
}

// TurnResponse is the engine's answer to a turn: the tag-stripped
// narration plus the offered follow-up actions. State changes are
// already applied and persisted by the time this is returned.
type TurnResponse struct {
	GameStateID uuid.UUID `json:"gamestate_id,omitempty"`
	Narration   string    `json:"narration,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

// Message roles for the generation boundary.
const (
	RoleUser     = "user"
	RoleNarrator = "assistant"
	RoleSystem   = "system"
)

// Message is a single message sent to or received from the narrator
// model. The shape follows the chat-completion convention shared by
// the supported providers.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (tr *TurnRequest) Validate() error {
	if tr.Action == "" {
		return fmt.Errorf("action cannot be empty")
	}
	if tr.GameStateID == uuid.Nil {
		return fmt.Errorf("gamestate_id is required")
	}
	return nil
}
