package mocks

import (
	"context"
	"sync"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
)

// MockSitemapResolver is a SitemapResolver for testing.
type MockSitemapResolver struct {
	Links []string
	Err   error

	// Custom behavior hooks (optional)
	ResolveFn func(websiteURL string) ([]string, error)
}

func (m *MockSitemapResolver) Resolve(ctx context.Context, websiteURL string) ([]string, error) {
	if m.ResolveFn != nil {
		return m.ResolveFn(websiteURL)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Links, nil
}

// MockPageFetcher serves canned HTML keyed by URL.
type MockPageFetcher struct {
	mu    sync.Mutex
	Pages map[string]string
	Err   error

	fetched []string

	// Custom behavior hooks (optional)
	FetchFn func(url string) (string, error)
}

// NewMockPageFetcher creates a fetcher serving the given pages.
func NewMockPageFetcher(pages map[string]string) *MockPageFetcher {
	if pages == nil {
		pages = make(map[string]string)
	}
	return &MockPageFetcher{Pages: pages}
}

func (m *MockPageFetcher) Fetch(ctx context.Context, url string) (string, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, url)
	m.mu.Unlock()
	if m.FetchFn != nil {
		return m.FetchFn(url)
	}
	if m.Err != nil {
		return "", m.Err
	}
	html, ok := m.Pages[url]
	if !ok {
		return "", &domain.FetchError{URL: url, Status: 404, Err: domain.ErrNotFound}
	}
	return html, nil
}

// Fetched returns every URL passed to Fetch.
func (m *MockPageFetcher) Fetched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetched...)
}

// MockContentExtractor is a ContentExtractor for testing. By default it
// echoes the HTML back as content with a fixed title.
type MockContentExtractor struct {
	// Custom behavior hooks (optional)
	ExtractFn func(html, host string) (*domain.ExtractedPage, error)
}

func (m *MockContentExtractor) Extract(html, host string) (*domain.ExtractedPage, error) {
	if m.ExtractFn != nil {
		return m.ExtractFn(html, host)
	}
	if html == "" {
		return nil, domain.ErrNoReadableContent
	}
	return &domain.ExtractedPage{Title: "Untitled", Content: html}, nil
}
