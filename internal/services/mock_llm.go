package services

import (
	"context"
	"sync"

	"github.com/taleforge/engine/pkg/chat"
)

// MockLLM is a mock implementation of LLMService for testing
type MockLLM struct {
	GenerateTurnFunc func(ctx context.Context, messages []chat.Message) (string, error)
	SummarizeFunc    func(ctx context.Context, npcName string, entries []string) (string, error)

	// Track calls for testing
	GenerateTurnCalls [][]chat.Message
	SummarizeCalls    []string // NPC names

	mu sync.Mutex // protects all fields above
}

var _ LLMService = (*MockLLM)(nil)

// NewMockLLM creates a new mock LLM service
func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

// GenerateTurn mocks narration generation
func (m *MockLLM) GenerateTurn(ctx context.Context, messages []chat.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GenerateTurnCalls = append(m.GenerateTurnCalls, messages)

	if m.GenerateTurnFunc != nil {
		return m.GenerateTurnFunc(ctx, messages)
	}
	return "Mock narration.\n---\n[SUGGESTION: text=\"Look around\"]", nil
}

// Summarize mocks dossier compression
func (m *MockLLM) Summarize(ctx context.Context, npcName string, entries []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SummarizeCalls = append(m.SummarizeCalls, npcName)

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, npcName, entries)
	}
	return "Mock summary of " + npcName + ".", nil
}
