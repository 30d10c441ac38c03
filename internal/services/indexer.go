package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/taleforge/engine/pkg/state"
)

// Indexer pushes entity documents to a vector search index so
// narration prompts can later retrieve relevant world detail.
type Indexer interface {
	// IndexUpdates upserts a batch of documents. Updates with the
	// same ID overwrite the previous document.
	IndexUpdates(ctx context.Context, updates []state.VectorUpdate) error
}

// HTTPIndexer posts update batches to an external indexing service.
type HTTPIndexer struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewHTTPIndexer creates an indexer client for the given base URL.
func NewHTTPIndexer(baseURL string, log *slog.Logger) *HTTPIndexer {
	return &HTTPIndexer{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

type indexDocument struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

type indexRequest struct {
	Documents []indexDocument `json:"documents"`
}

// IndexUpdates posts the batch to the service's /v1/documents endpoint.
func (i *HTTPIndexer) IndexUpdates(ctx context.Context, updates []state.VectorUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	docs := make([]indexDocument, 0, len(updates))
	for _, u := range updates {
		docs = append(docs, indexDocument{
			ID:      u.ID,
			Type:    u.Type,
			Content: u.Content,
		})
	}

	body, err := json.Marshal(indexRequest{Documents: docs})
	if err != nil {
		return fmt.Errorf("failed to serialize index request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+"/v1/documents", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("index service returned status %d", resp.StatusCode)
	}

	i.log.Debug("Indexed vector updates", "count", len(docs))
	return nil
}

// NoopIndexer discards updates. Used when no indexer URL is
// configured.
type NoopIndexer struct{}

func (NoopIndexer) IndexUpdates(ctx context.Context, updates []state.VectorUpdate) error {
	return nil
}
