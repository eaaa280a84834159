package driven

import (
	"context"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
)

// DocumentStore persists indexed-document records in the relational store.
// The vector index holds the embeddings; these rows are the dedup ledger
// and the dashboard's document listing.
type DocumentStore interface {
	// Save inserts a new document record.
	Save(ctx context.Context, doc *domain.IndexedDocument) error

	// ExistsByHash reports whether a document with the given content hash
	// already exists for the chatbot. Limited to an existence probe; the
	// caller never needs the row itself.
	ExistsByHash(ctx context.Context, chatbotID, hash string) (bool, error)

	// Get retrieves a document by ID. Returns domain.ErrNotFound if missing.
	Get(ctx context.Context, id string) (*domain.IndexedDocument, error)

	// ListByChatbot returns documents for a chatbot, newest first.
	ListByChatbot(ctx context.Context, chatbotID string, limit int) ([]*domain.IndexedDocument, error)
}
