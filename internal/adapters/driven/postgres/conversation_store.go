package postgres

import (
	"context"
	"database/sql"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore implements driven.ConversationStore using PostgreSQL
type ConversationStore struct {
	db *DB
}

// NewConversationStore creates a new ConversationStore
func NewConversationStore(db *DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// CreateConversation inserts a conversation. A duplicate (chatbot_id,
// reference_id) pair is a no-op: the responder may fire this twice for
// the same opening exchange.
func (s *ConversationStore) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	query := `
		INSERT INTO conversations (id, chatbot_id, reference_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chatbot_id, reference_id) DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query,
		conv.ID,
		conv.ChatbotID,
		conv.ReferenceID,
		conv.CreatedAt,
	)
	return err
}

// GetByReference looks a conversation up by chatbot and reference id
func (s *ConversationStore) GetByReference(ctx context.Context, chatbotID, referenceID string) (*domain.Conversation, error) {
	query := `
		SELECT id, chatbot_id, reference_id, created_at
		FROM conversations
		WHERE chatbot_id = $1 AND reference_id = $2
	`

	var conv domain.Conversation
	err := s.db.QueryRowContext(ctx, query, chatbotID, referenceID).Scan(
		&conv.ID,
		&conv.ChatbotID,
		&conv.ReferenceID,
		&conv.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// SaveMessages appends messages in one transaction
func (s *ConversationStore) SaveMessages(ctx context.Context, msgs []*domain.ConversationMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO conversation_messages (id, conversation_id, chatbot_id, role, content, truncated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, msg := range msgs {
		if _, err := tx.ExecContext(ctx, query,
			msg.ID,
			msg.ConversationID,
			msg.ChatbotID,
			string(msg.Role),
			msg.Content,
			msg.Truncated,
			msg.CreatedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListMessages returns a conversation's messages, oldest first
func (s *ConversationStore) ListMessages(ctx context.Context, conversationID string) ([]*domain.ConversationMessage, error) {
	query := `
		SELECT id, conversation_id, chatbot_id, role, content, truncated, created_at
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*domain.ConversationMessage
	for rows.Next() {
		var msg domain.ConversationMessage
		var role string
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.ChatbotID,
			&role,
			&msg.Content,
			&msg.Truncated,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		msg.Role = domain.MessageRole(role)
		msgs = append(msgs, &msg)
	}
	return msgs, rows.Err()
}
