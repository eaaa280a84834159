package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
)

const sitemapXML = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/</loc></url>
  <url><loc>https://example.com/docs</loc><lastmod>2024-01-01</lastmod></url>
  <url><loc>https://example.com/pricing</loc></url>
</urlset>`

func TestSitemapURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com", "https://example.com/sitemap.xml"},
		{"https://example.com/", "https://example.com/sitemap.xml"},
		{"https://example.com/custom-map.xml", "https://example.com/custom-map.xml"},
	}

	for _, tt := range tests {
		if got := SitemapURL(tt.in); got != tt.want {
			t.Errorf("SitemapURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sitemap.xml" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(sitemapXML))
	}))
	defer srv.Close()

	resolver := NewSitemapResolver(NewFetcher(DefaultFetcherConfig()))

	links, err := resolver.Resolve(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(links) != 3 {
		t.Fatalf("expected 3 links, got %d", len(links))
	}
	if links[1] != "https://example.com/docs" {
		t.Errorf("unexpected link order: %v", links)
	}
}

func TestResolve_MissingSitemap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer srv.Close()

	resolver := NewSitemapResolver(NewFetcher(DefaultFetcherConfig()))

	_, err := resolver.Resolve(context.Background(), srv.URL)
	if !errors.Is(err, domain.ErrSitemapUnavailable) {
		t.Fatalf("expected ErrSitemapUnavailable, got %v", err)
	}
}

func TestResolve_MalformedSitemap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not xml <"))
	}))
	defer srv.Close()

	resolver := NewSitemapResolver(NewFetcher(DefaultFetcherConfig()))

	_, err := resolver.Resolve(context.Background(), srv.URL)
	if !errors.Is(err, domain.ErrSitemapUnavailable) {
		t.Fatalf("expected ErrSitemapUnavailable, got %v", err)
	}
}
