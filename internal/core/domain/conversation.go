package domain

import "time"

// Conversation groups chat exchanges under one client-held reference id
// per chatbot. It is created on the first message of a new conversation
// and referenced, never mutated, afterwards.
type Conversation struct {
	ID          string    `json:"id"`
	ChatbotID   string    `json:"chatbot_id"`
	ReferenceID string    `json:"reference_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// MessageRole identifies who produced a conversation turn
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ConversationMessage is one turn of a conversation. Messages are written
// in (user question, assistant answer) pairs once an answer has been
// produced. Truncated marks an assistant answer cut short by a client
// disconnect; the tokens delivered up to that point are still persisted.
type ConversationMessage struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	ChatbotID      string      `json:"chatbot_id"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	Truncated      bool        `json:"truncated,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// ChatMessage is one turn as supplied by the chat widget.
type ChatMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// ChatRequest is one incoming chat turn: the full message history as held
// by the widget, plus the header-borne identifiers.
type ChatRequest struct {
	ChatbotID   string
	ReferenceID string
	Messages    []ChatMessage
}

// Question returns the latest (unanswered) user message, which is used as
// the live question rather than as part of the history.
func (r *ChatRequest) Question() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1].Content
}

// History returns every message before the live question.
func (r *ChatRequest) History() []ChatMessage {
	if len(r.Messages) == 0 {
		return nil
	}
	return r.Messages[:len(r.Messages)-1]
}
