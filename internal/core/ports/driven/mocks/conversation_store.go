package mocks

import (
	"context"
	"sync"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
)

// MockConversationStore is an in-memory ConversationStore for testing.
type MockConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*domain.Conversation // key: chatbotID:referenceID
	messages      map[string][]*domain.ConversationMessage

	// Custom behavior hooks (optional)
	CreateConversationFn func(conv *domain.Conversation) error
	SaveMessagesFn       func(msgs []*domain.ConversationMessage) error
}

// NewMockConversationStore creates a new MockConversationStore.
func NewMockConversationStore() *MockConversationStore {
	return &MockConversationStore{
		conversations: make(map[string]*domain.Conversation),
		messages:      make(map[string][]*domain.ConversationMessage),
	}
}

// CreateConversation stores the conversation; an existing record for the
// same reference is left untouched, matching the real store's upsert.
func (m *MockConversationStore) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	if m.CreateConversationFn != nil {
		return m.CreateConversationFn(conv)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := conv.ChatbotID + ":" + conv.ReferenceID
	if _, exists := m.conversations[key]; exists {
		return nil
	}
	cp := *conv
	m.conversations[key] = &cp
	return nil
}

func (m *MockConversationStore) GetByReference(ctx context.Context, chatbotID, referenceID string) (*domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conv, ok := m.conversations[chatbotID+":"+referenceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *conv
	return &cp, nil
}

func (m *MockConversationStore) SaveMessages(ctx context.Context, msgs []*domain.ConversationMessage) error {
	if m.SaveMessagesFn != nil {
		return m.SaveMessagesFn(msgs)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range msgs {
		cp := *msg
		m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], &cp)
	}
	return nil
}

func (m *MockConversationStore) ListMessages(ctx context.Context, conversationID string) ([]*domain.ConversationMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ConversationMessage
	for _, msg := range m.messages[conversationID] {
		cp := *msg
		out = append(out, &cp)
	}
	return out, nil
}

// Messages returns all stored messages for a conversation (for test
// assertions, no copy).
func (m *MockConversationStore) Messages(conversationID string) []*domain.ConversationMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.messages[conversationID]
}

// ConversationCount returns the number of stored conversations.
func (m *MockConversationStore) ConversationCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conversations)
}

// Reset clears all state (useful between tests).
func (m *MockConversationStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations = make(map[string]*domain.Conversation)
	m.messages = make(map[string][]*domain.ConversationMessage)
}
