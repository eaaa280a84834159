package vector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
)

func newTestIndex(t *testing.T, handler http.Handler) *Index {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := DefaultConfig(srv.URL)
	cfg.APIKey = "test-key"
	return NewIndex(cfg)
}

func TestAddDocuments(t *testing.T) {
	var got addDocumentsRequest
	var auth string
	idx := newTestIndex(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/documents", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))

	err := idx.AddDocuments(context.Background(), []driven.IndexEntry{{
		Content: "page body",
		Metadata: domain.DocumentMetadata{
			URL:       "https://example.com/a",
			Title:     "A",
			ChatbotID: "bot-1",
		},
	}})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", auth)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, "page body", got.Documents[0].Content)
	assert.Equal(t, "bot-1", got.Documents[0].Metadata.ChatbotID)
}

func TestAddDocuments_EmptyIsNoop(t *testing.T) {
	idx := newTestIndex(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	require.NoError(t, idx.AddDocuments(context.Background(), nil))
}

func TestRetrieve(t *testing.T) {
	var got queryRequest
	idx := newTestIndex(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/query", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"matches": []map[string]any{{
				"content":  "refund details",
				"score":    0.93,
				"metadata": map[string]any{"url": "https://example.com/refunds", "title": "Refunds", "chatbot_id": "bot-1"},
			}},
		})
	}))

	docs, err := idx.Retrieve(context.Background(), "refunds", "bot-1", driven.DefaultRetrievalOptions())
	require.NoError(t, err)

	assert.Equal(t, "refunds", got.Query)
	assert.Equal(t, "bot-1", got.ChatbotID)
	assert.Equal(t, 2, got.MaxDocuments)
	assert.Equal(t, 0.8, got.ScoreThreshold)

	require.Len(t, docs, 1)
	assert.Equal(t, "refund details", docs[0].Content)
	assert.Equal(t, 0.93, docs[0].Score)
	assert.Equal(t, "Refunds", docs[0].Metadata.Title)
}

func TestRetrieve_ServerError(t *testing.T) {
	idx := newTestIndex(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index exploded", http.StatusInternalServerError)
	}))

	_, err := idx.Retrieve(context.Background(), "q", "bot-1", driven.DefaultRetrievalOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index exploded")
}

func TestHealthCheck(t *testing.T) {
	healthy := true
	idx := newTestIndex(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))

	require.NoError(t, idx.HealthCheck(context.Background()))
	healthy = false
	require.Error(t, idx.HealthCheck(context.Background()))
}
