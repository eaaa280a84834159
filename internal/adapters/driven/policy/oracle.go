package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CapabilityOracle = (*Oracle)(nil)

// Oracle implements driven.CapabilityOracle against the billing/policy
// service. Plan logic lives entirely on the remote side; this client
// reports its yes/no answers.
type Oracle struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds policy service connection configuration
type Config struct {
	// BaseURL is the policy service endpoint
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
		Timeout: 10 * time.Second,
	}
}

// NewOracle creates a new policy service client
func NewOracle(cfg Config) *Oracle {
	return &Oracle{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type capabilityResponse struct {
	Allowed bool `json:"allowed"`
}

// CanGenerateResponse reports whether the chatbot may produce AI answers
func (o *Oracle) CanGenerateResponse(ctx context.Context, chatbotID string) (bool, error) {
	path := "/v1/capabilities/generate?chatbot_id=" + url.QueryEscape(chatbotID)
	return o.check(ctx, path)
}

// CanIndexDocuments reports whether the organization may index n more documents
func (o *Oracle) CanIndexDocuments(ctx context.Context, organizationID string, n int) (bool, error) {
	path := "/v1/capabilities/index?organization_id=" + url.QueryEscape(organizationID) +
		"&count=" + strconv.Itoa(n)
	return o.check(ctx, path)
}

func (o *Oracle) check(ctx context.Context, path string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+path, nil)
	if err != nil {
		return false, err
	}
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("policy check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, fmt.Errorf("policy check returned %s: %s", resp.Status, string(body))
	}

	var out capabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("malformed policy response: %w", err)
	}
	return out.Allowed, nil
}
