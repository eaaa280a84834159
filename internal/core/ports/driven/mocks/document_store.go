package mocks

import (
	"context"
	"sync"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
)

// MockDocumentStore is an in-memory DocumentStore for testing.
type MockDocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*domain.IndexedDocument
	byHash    map[string]*domain.IndexedDocument // key: chatbotID:hash
	byChatbot map[string][]*domain.IndexedDocument

	// Custom behavior hooks (optional)
	SaveFn         func(doc *domain.IndexedDocument) error
	ExistsByHashFn func(chatbotID, hash string) (bool, error)
}

// NewMockDocumentStore creates a new MockDocumentStore.
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		documents: make(map[string]*domain.IndexedDocument),
		byHash:    make(map[string]*domain.IndexedDocument),
		byChatbot: make(map[string][]*domain.IndexedDocument),
	}
}

func (m *MockDocumentStore) Save(ctx context.Context, doc *domain.IndexedDocument) error {
	if m.SaveFn != nil {
		return m.SaveFn(doc)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *doc
	m.documents[doc.ID] = &cp
	m.byHash[doc.ChatbotID+":"+doc.ContentHash] = &cp
	m.byChatbot[doc.ChatbotID] = append(m.byChatbot[doc.ChatbotID], &cp)
	return nil
}

func (m *MockDocumentStore) ExistsByHash(ctx context.Context, chatbotID, hash string) (bool, error) {
	if m.ExistsByHashFn != nil {
		return m.ExistsByHashFn(chatbotID, hash)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byHash[chatbotID+":"+hash]
	return ok, nil
}

func (m *MockDocumentStore) Get(ctx context.Context, id string) (*domain.IndexedDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (m *MockDocumentStore) ListByChatbot(ctx context.Context, chatbotID string, limit int) ([]*domain.IndexedDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.IndexedDocument
	for _, doc := range m.byChatbot[chatbotID] {
		cp := *doc
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Count returns the number of saved documents (for test assertions).
func (m *MockDocumentStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents)
}

// Reset clears all documents (useful between tests).
func (m *MockDocumentStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = make(map[string]*domain.IndexedDocument)
	m.byHash = make(map[string]*domain.IndexedDocument)
	m.byChatbot = make(map[string][]*domain.IndexedDocument)
}
