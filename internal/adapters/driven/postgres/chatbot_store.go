package postgres

import (
	"context"
	"database/sql"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChatbotStore = (*ChatbotStore)(nil)

// ChatbotStore implements driven.ChatbotStore using PostgreSQL
type ChatbotStore struct {
	db *DB
}

// NewChatbotStore creates a new ChatbotStore
func NewChatbotStore(db *DB) *ChatbotStore {
	return &ChatbotStore{db: db}
}

// Get retrieves a chatbot by ID
func (s *ChatbotStore) Get(ctx context.Context, id string) (*domain.Chatbot, error) {
	query := `
		SELECT id, organization_id, name, site_name, url, description, created_at
		FROM chatbots
		WHERE id = $1
	`

	var bot domain.Chatbot
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&bot.ID,
		&bot.OrganizationID,
		&bot.Name,
		&bot.SiteName,
		&bot.URL,
		&bot.Description,
		&bot.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bot, nil
}

// Save creates or updates a chatbot
func (s *ChatbotStore) Save(ctx context.Context, bot *domain.Chatbot) error {
	query := `
		INSERT INTO chatbots (id, organization_id, name, site_name, url, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			site_name = EXCLUDED.site_name,
			url = EXCLUDED.url,
			description = EXCLUDED.description
	`

	_, err := s.db.ExecContext(ctx, query,
		bot.ID,
		bot.OrganizationID,
		bot.Name,
		bot.SiteName,
		bot.URL,
		bot.Description,
		bot.CreatedAt,
	)
	return err
}
