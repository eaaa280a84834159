package driven

import (
	"context"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
)

// IndexEntry is one document handed to the vector index for embedding
// and storage.
type IndexEntry struct {
	Content  string                  `json:"content"`
	Metadata domain.DocumentMetadata `json:"metadata"`
}

// RetrievalOptions bound what comes back from a retrieval query. The
// score threshold trades recall for prompt size: only documents scoring
// above it are kept, capped at MaxDocuments.
type RetrievalOptions struct {
	MaxDocuments   int
	ScoreThreshold float64
}

// DefaultRetrievalOptions returns the standard contextual-compression
// settings.
func DefaultRetrievalOptions() RetrievalOptions {
	return RetrievalOptions{
		MaxDocuments:   2,
		ScoreThreshold: 0.8,
	}
}

// VectorIndex is the external embedding/index service. It embeds content
// on write and performs similarity retrieval on read; this core never
// implements the index itself.
type VectorIndex interface {
	// AddDocuments embeds and stores the entries with their metadata.
	AddDocuments(ctx context.Context, entries []IndexEntry) error

	// Retrieve returns documents relevant to the query for one chatbot,
	// filtered by score threshold and capped at MaxDocuments, best first.
	Retrieve(ctx context.Context, query, chatbotID string, opts RetrievalOptions) ([]*domain.ScoredDocument, error)

	// HealthCheck verifies the index service is reachable.
	HealthCheck(ctx context.Context) error
}
