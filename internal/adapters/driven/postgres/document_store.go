package postgres

import (
	"context"
	"database/sql"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Save inserts a new document record. The (chatbot_id, content_hash)
// unique constraint backstops the dedup check against racing writers.
func (s *DocumentStore) Save(ctx context.Context, doc *domain.IndexedDocument) error {
	query := `
		INSERT INTO indexed_documents (id, chatbot_id, organization_id, url, title, content, content_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		doc.ID,
		doc.ChatbotID,
		doc.OrganizationID,
		doc.URL,
		doc.Title,
		doc.Content,
		doc.ContentHash,
		doc.CreatedAt,
	)
	return err
}

// ExistsByHash reports whether the chatbot already holds this content
func (s *DocumentStore) ExistsByHash(ctx context.Context, chatbotID, hash string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM indexed_documents WHERE chatbot_id = $1 AND content_hash = $2)`

	var exists bool
	err := s.db.QueryRowContext(ctx, query, chatbotID, hash).Scan(&exists)
	return exists, err
}

// Get retrieves a document by ID
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.IndexedDocument, error) {
	query := `
		SELECT id, chatbot_id, organization_id, url, title, content, content_hash, created_at
		FROM indexed_documents
		WHERE id = $1
	`

	var doc domain.IndexedDocument
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&doc.ID,
		&doc.ChatbotID,
		&doc.OrganizationID,
		&doc.URL,
		&doc.Title,
		&doc.Content,
		&doc.ContentHash,
		&doc.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByChatbot returns documents for a chatbot, newest first
func (s *DocumentStore) ListByChatbot(ctx context.Context, chatbotID string, limit int) ([]*domain.IndexedDocument, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, chatbot_id, organization_id, url, title, content, content_hash, created_at
		FROM indexed_documents
		WHERE chatbot_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, chatbotID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.IndexedDocument
	for rows.Next() {
		var doc domain.IndexedDocument
		if err := rows.Scan(
			&doc.ID,
			&doc.ChatbotID,
			&doc.OrganizationID,
			&doc.URL,
			&doc.Title,
			&doc.Content,
			&doc.ContentHash,
			&doc.CreatedAt,
		); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}
