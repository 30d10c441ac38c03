package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/taleforge/engine/pkg/state"
	"github.com/taleforge/engine/pkg/world"
)

// MockStorage is an in-memory implementation of Storage for testing
type MockStorage struct {
	mu         sync.Mutex
	gamestates map[uuid.UUID]*state.GameState
	worlds     map[string]*world.World
	pingError  error

	// SaveKinds records the kind of each save in order, for
	// asserting manual vs auto save behavior.
	SaveKinds []SaveKind
	SaveError error
}

var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		gamestates: make(map[uuid.UUID]*state.GameState),
		worlds:     make(map[string]*world.World),
	}
}

// AddWorld registers a world template under a filename.
func (m *MockStorage) AddWorld(filename string, w *world.World) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.worlds[filename] = w
}

// SetPingError configures the mock to fail on ping
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState, kind SaveKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}
	if m.SaveError != nil {
		return m.SaveError
	}
	copied, err := gs.DeepCopy()
	if err != nil {
		return err
	}
	m.gamestates[id] = copied
	m.SaveKinds = append(m.SaveKinds, kind)
	return nil
}

func (m *MockStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gs, ok := m.gamestates[id]
	if !ok {
		return nil, nil // Return nil for not found
	}
	return gs.DeepCopy()
}

func (m *MockStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gamestates, id)
	return nil
}

func (m *MockStorage) ListWorlds(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.worlds))
	for filename, w := range m.worlds {
		out[w.Name] = filename
	}
	return out, nil
}

func (m *MockStorage) GetWorld(ctx context.Context, filename string) (*world.World, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.worlds[filename]
	if !ok {
		return nil, errors.New("world not found: " + filename)
	}
	return w, nil
}

func (m *MockStorage) GetWorldByName(ctx context.Context, name string) (*world.World, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.worlds {
		if w.Name == name {
			return w, nil
		}
	}
	return nil, errors.New("world not found: " + name)
}
