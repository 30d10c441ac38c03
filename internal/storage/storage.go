package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/taleforge/engine/pkg/state"
	"github.com/taleforge/engine/pkg/world"
)

// ErrGameStateNotFound is returned by callers that require an
// existing gamestate when LoadGameState yields nil.
var ErrGameStateNotFound = errors.New("game state not found")

// SaveKind distinguishes the fire-and-forget auto-save performed
// after each reduction from an explicit player save.
type SaveKind string

const (
	SaveAuto   SaveKind = "auto"
	SaveManual SaveKind = "manual"
)

// Storage is the persistence boundary: gamestates in Redis, authored
// world templates on the filesystem.
type Storage interface {
	// Ping tests the storage connection
	Ping(ctx context.Context) error

	// Close closes the storage connection
	Close() error

	// SaveGameState persists a snapshot. Manual saves never expire;
	// auto saves carry the session TTL.
	SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState, kind SaveKind) error

	// LoadGameState retrieves a snapshot by ID.
	// Returns nil if the gamestate doesn't exist.
	LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error)

	// DeleteGameState removes a gamestate and its manual save.
	DeleteGameState(ctx context.Context, id uuid.UUID) error

	// ListWorlds maps world names to their filenames.
	ListWorlds(ctx context.Context) (map[string]string, error)

	// GetWorld loads a world template by filename.
	GetWorld(ctx context.Context, filename string) (*world.World, error)

	// GetWorldByName loads a world template by its declared name.
	GetWorldByName(ctx context.Context, name string) (*world.World, error)
}
