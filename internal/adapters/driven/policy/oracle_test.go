package policy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOracle(t *testing.T, handler http.HandlerFunc) *Oracle {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := DefaultConfig(srv.URL)
	cfg.APIKey = "test-key"
	return NewOracle(cfg)
}

func TestCanGenerateResponse(t *testing.T) {
	oracle := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/capabilities/generate", r.URL.Path)
		assert.Equal(t, "bot-1", r.URL.Query().Get("chatbot_id"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(capabilityResponse{Allowed: true})
	})

	ok, err := oracle.CanGenerateResponse(context.Background(), "bot-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanIndexDocuments(t *testing.T) {
	oracle := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/capabilities/index", r.URL.Path)
		assert.Equal(t, "org-1", r.URL.Query().Get("organization_id"))
		assert.Equal(t, "25", r.URL.Query().Get("count"))
		json.NewEncoder(w).Encode(capabilityResponse{Allowed: false})
	})

	ok, err := oracle.CanIndexDocuments(context.Background(), "org-1", 25)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheck_ServerError(t *testing.T) {
	oracle := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "billing down", http.StatusBadGateway)
	})

	_, err := oracle.CanGenerateResponse(context.Background(), "bot-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "billing down")
}
