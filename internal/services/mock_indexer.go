package services

import (
	"context"
	"sync"

	"github.com/taleforge/engine/pkg/state"
)

// MockIndexer records indexed updates for tests.
type MockIndexer struct {
	IndexError error
	Indexed    [][]state.VectorUpdate

	mu sync.Mutex
}

func (m *MockIndexer) IndexUpdates(ctx context.Context, updates []state.VectorUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.IndexError != nil {
		return m.IndexError
	}
	m.Indexed = append(m.Indexed, updates)
	return nil
}

// IndexedCount returns the total number of documents indexed.
func (m *MockIndexer) IndexedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, batch := range m.Indexed {
		n += len(batch)
	}
	return n
}
