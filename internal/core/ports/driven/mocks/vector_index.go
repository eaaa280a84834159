package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
)

// MockVectorIndex is an in-memory VectorIndex for testing. Retrieval is
// naive substring matching with a fixed score; tests that need specific
// ranking set RetrieveFn.
type MockVectorIndex struct {
	mu      sync.RWMutex
	entries []driven.IndexEntry

	// Custom behavior hooks (optional)
	AddDocumentsFn func(entries []driven.IndexEntry) error
	RetrieveFn     func(query, chatbotID string, opts driven.RetrievalOptions) ([]*domain.ScoredDocument, error)
}

// NewMockVectorIndex creates a new MockVectorIndex.
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{}
}

func (m *MockVectorIndex) AddDocuments(ctx context.Context, entries []driven.IndexEntry) error {
	if m.AddDocumentsFn != nil {
		return m.AddDocumentsFn(entries)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *MockVectorIndex) Retrieve(ctx context.Context, query, chatbotID string, opts driven.RetrievalOptions) ([]*domain.ScoredDocument, error) {
	if m.RetrieveFn != nil {
		return m.RetrieveFn(query, chatbotID, opts)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ScoredDocument
	for _, entry := range m.entries {
		if entry.Metadata.ChatbotID != chatbotID {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(entry.Content), strings.ToLower(query)) {
			continue
		}
		out = append(out, &domain.ScoredDocument{
			Content:  entry.Content,
			Metadata: entry.Metadata,
			Score:    0.9,
		})
		if opts.MaxDocuments > 0 && len(out) >= opts.MaxDocuments {
			break
		}
	}
	return out, nil
}

func (m *MockVectorIndex) HealthCheck(ctx context.Context) error {
	return nil
}

// Entries returns everything indexed so far (for test assertions).
func (m *MockVectorIndex) Entries() []driven.IndexEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]driven.IndexEntry(nil), m.entries...)
}

// Reset clears the index (useful between tests).
func (m *MockVectorIndex) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
}
