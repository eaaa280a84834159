package driven

import (
	"context"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
)

// ConversationStore persists conversations and their messages.
type ConversationStore interface {
	// CreateConversation inserts a conversation bound to a client-held
	// reference id. Creating the same (chatbot, reference) pair twice is
	// a no-op, so the responder's first-message heuristic stays safe
	// against duplicate requests.
	CreateConversation(ctx context.Context, conv *domain.Conversation) error

	// GetByReference looks a conversation up by chatbot and reference id.
	// Returns domain.ErrNotFound if missing.
	GetByReference(ctx context.Context, chatbotID, referenceID string) (*domain.Conversation, error)

	// SaveMessages appends messages to a conversation. The responder calls
	// this once per turn with the (question, answer) pair.
	SaveMessages(ctx context.Context, msgs []*domain.ConversationMessage) error

	// ListMessages returns a conversation's messages, oldest first.
	ListMessages(ctx context.Context, conversationID string) ([]*domain.ConversationMessage, error)
}

// ChatbotStore reads and writes chatbot records. Full CRUD lives in the
// dashboard; this core needs lookups plus Save for provisioning in tests
// and tooling.
type ChatbotStore interface {
	// Get retrieves a chatbot by ID. Returns domain.ErrNotFound if missing.
	Get(ctx context.Context, id string) (*domain.Chatbot, error)

	// Save creates or updates a chatbot.
	Save(ctx context.Context, bot *domain.Chatbot) error
}
