package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*Index)(nil)

// Index implements driven.VectorIndex against the embedding/index
// service's HTTP API. The service owns embedding and similarity math;
// this client only moves documents and queries across the wire.
type Index struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds index service connection configuration
type Config struct {
	// BaseURL is the index service endpoint (e.g., http://localhost:8200)
	BaseURL string

	// APIKey authenticates requests, sent as a bearer token
	APIKey string

	// Timeout for HTTP requests
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// NewIndex creates a new HTTP-backed vector index client
func NewIndex(cfg Config) *Index {
	return &Index{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type addDocumentsRequest struct {
	Documents []driven.IndexEntry `json:"documents"`
}

type queryRequest struct {
	Query          string  `json:"query"`
	ChatbotID      string  `json:"chatbot_id"`
	MaxDocuments   int     `json:"max_documents"`
	ScoreThreshold float64 `json:"score_threshold"`
}

type queryResponse struct {
	Matches []struct {
		Content  string                  `json:"content"`
		Metadata domain.DocumentMetadata `json:"metadata"`
		Score    float64                 `json:"score"`
	} `json:"matches"`
}

// AddDocuments embeds and stores the entries
func (i *Index) AddDocuments(ctx context.Context, entries []driven.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if err := i.post(ctx, "/v1/documents", addDocumentsRequest{Documents: entries}, nil); err != nil {
		return fmt.Errorf("index add documents: %w", err)
	}
	return nil
}

// Retrieve returns documents relevant to the query for one chatbot
func (i *Index) Retrieve(ctx context.Context, query, chatbotID string, opts driven.RetrievalOptions) ([]*domain.ScoredDocument, error) {
	reqBody := queryRequest{
		Query:          query,
		ChatbotID:      chatbotID,
		MaxDocuments:   opts.MaxDocuments,
		ScoreThreshold: opts.ScoreThreshold,
	}

	var resp queryResponse
	if err := i.post(ctx, "/v1/query", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}

	docs := make([]*domain.ScoredDocument, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		docs = append(docs, &domain.ScoredDocument{
			Content:  m.Content,
			Metadata: m.Metadata,
			Score:    m.Score,
		})
	}
	return docs, nil
}

// HealthCheck verifies the index service is reachable
func (i *Index) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("index health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("index unhealthy: %s", resp.Status)
	}
	return nil
}

func (i *Index) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if i.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+i.apiKey)
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s: %s", resp.Status, string(respBody))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
