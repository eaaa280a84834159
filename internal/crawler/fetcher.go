package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PageFetcher = (*Fetcher)(nil)

// Fetcher retrieves raw page HTML over HTTP.
type Fetcher struct {
	client         *http.Client
	userAgent      string
	maxContentSize int64
}

// FetcherConfig holds fetch limits.
type FetcherConfig struct {
	// Timeout bounds the whole request, including body read
	Timeout time.Duration

	// UserAgent is sent with every request
	UserAgent string

	// MaxContentSize caps the response body in bytes
	MaxContentSize int64

	// MaxRedirects caps redirect chains
	MaxRedirects int
}

// DefaultFetcherConfig returns sensible defaults.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Timeout:        30 * time.Second,
		UserAgent:      "sitebot-crawler/1.0",
		MaxContentSize: 5 << 20, // 5 MB
		MaxRedirects:   5,
	}
}

// NewFetcher creates a page fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (max %d)", maxRedirects)
				}
				return nil
			},
		},
		userAgent:      cfg.UserAgent,
		maxContentSize: cfg.MaxContentSize,
	}
}

// Fetch retrieves the raw response body for one URL. Network failures,
// non-2xx statuses and oversized bodies all surface as *domain.FetchError;
// there is no retry at this layer.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.FetchError{URL: url, Status: resp.StatusCode}
	}

	limited := io.LimitReader(resp.Body, f.maxContentSize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	if int64(len(body)) > f.maxContentSize {
		return "", &domain.FetchError{URL: url, Err: fmt.Errorf("content exceeds %d bytes", f.maxContentSize)}
	}

	return string(body), nil
}
