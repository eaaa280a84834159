package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// IndexedDocument is one unit of ingested website content. At most one
// document exists per (chatbot id, content hash) pair; the deduplicator
// checks the hash before the index writer creates a new one. Documents are
// immutable after creation.
type IndexedDocument struct {
	ID             string    `json:"id"`
	ChatbotID      string    `json:"chatbot_id"`
	OrganizationID string    `json:"organization_id"`
	URL            string    `json:"url"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	ContentHash    string    `json:"content_hash"`
	CreatedAt      time.Time `json:"created_at"`
}

// ExtractedPage is the output of the content extraction pipeline:
// a resolved title plus the article body as Markdown. Extraction is
// deterministic for identical HTML and host inputs, which is what makes
// the content hash usable as canonical identity.
type ExtractedPage struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Fingerprint computes the content hash used for dedup. A cryptographic
// digest is required: hash equality is treated as content identity, so
// false positives must never occur.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ScoredDocument is a retrieval result from the vector index.
type ScoredDocument struct {
	Content  string           `json:"content"`
	Metadata DocumentMetadata `json:"metadata"`
	Score    float64          `json:"score"`
}

// DocumentMetadata is the fixed metadata schema stored alongside each
// indexed document. Every field is enumerated here rather than carried as
// an untyped blob.
type DocumentMetadata struct {
	URL            string `json:"url"`
	Title          string `json:"title"`
	ChatbotID      string `json:"chatbot_id"`
	OrganizationID string `json:"organization_id"`
	ContentHash    string `json:"content_hash"`
}
