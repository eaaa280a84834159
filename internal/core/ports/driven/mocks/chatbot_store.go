package mocks

import (
	"context"
	"sync"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
)

// MockChatbotStore is an in-memory ChatbotStore for testing.
type MockChatbotStore struct {
	mu       sync.RWMutex
	chatbots map[string]*domain.Chatbot

	// Custom behavior hooks (optional)
	GetFn func(id string) (*domain.Chatbot, error)
}

// NewMockChatbotStore creates a new MockChatbotStore.
func NewMockChatbotStore() *MockChatbotStore {
	return &MockChatbotStore{chatbots: make(map[string]*domain.Chatbot)}
}

func (m *MockChatbotStore) Get(ctx context.Context, id string) (*domain.Chatbot, error) {
	if m.GetFn != nil {
		return m.GetFn(id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	bot, ok := m.chatbots[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *bot
	return &cp, nil
}

func (m *MockChatbotStore) Save(ctx context.Context, bot *domain.Chatbot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *bot
	m.chatbots[bot.ID] = &cp
	return nil
}

// Reset clears all chatbots (useful between tests).
func (m *MockChatbotStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatbots = make(map[string]*domain.Chatbot)
}
