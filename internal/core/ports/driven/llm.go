package driven

import (
	"context"
)

// TokenStream delivers a model reply one chunk at a time. The caller
// drains it with Recv until io.EOF and must Close it in every case, which
// cancels the underlying model call if the stream is abandoned early.
type TokenStream interface {
	// Recv returns the next chunk of the reply. io.EOF marks a clean end.
	Recv() (string, error)

	// Close releases the stream. Safe to call after Recv returned an error.
	Close() error
}

// ChatModel is the language model behind generated answers.
type ChatModel interface {
	// StreamCompletion starts a streaming completion for the assembled
	// prompt. Tokens arrive on the returned stream as the model produces
	// them; cancelling ctx cancels the model call.
	StreamCompletion(ctx context.Context, prompt string) (TokenStream, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the model service is available
	Ping(ctx context.Context) error
}

// CapabilityOracle answers plan/quota questions. It is an external policy
// service; this core only consumes the booleans.
type CapabilityOracle interface {
	// CanGenerateResponse reports whether the chatbot may produce AI
	// answers right now. When false the responder falls back to the
	// document-link search.
	CanGenerateResponse(ctx context.Context, chatbotID string) (bool, error)

	// CanIndexDocuments reports whether the organization may index n more
	// documents.
	CanIndexDocuments(ctx context.Context, organizationID string, n int) (bool, error)
}
