package services

import (
	"context"
	"errors"

	"github.com/taleforge/engine/pkg/chat"
)

// ErrContentPolicy marks a generation rejected by the provider's
// content policy. Handlers surface it as a distinct non-fatal notice;
// no state is mutated either way.
var ErrContentPolicy = errors.New("generation rejected by content policy")

// LLMService is the generation boundary: send context, receive
// narration plus its directive block. The engine treats the call as
// opaque.
type LLMService interface {
	// GenerateTurn produces the narrator response for one turn.
	GenerateTurn(ctx context.Context, messages []chat.Message) (string, error)

	// Summarize condenses a set of history entries into one short
	// dossier summary. Used by background compression.
	Summarize(ctx context.Context, npcName string, entries []string) (string, error)
}

// IsContentPolicyRejection reports whether err is a content-policy
// block rather than a generic failure.
func IsContentPolicyRejection(err error) bool {
	return errors.Is(err, ErrContentPolicy)
}
