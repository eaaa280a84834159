package crawler

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SitemapResolver = (*SitemapResolver)(nil)

// SitemapResolver discovers page URLs from a website's sitemap. It does
// not follow sitemap index files or read robots.txt; a site is expected
// to expose a standard /sitemap.xml urlset.
type SitemapResolver struct {
	fetcher *Fetcher
}

// NewSitemapResolver creates a resolver that fetches sitemaps with the
// given fetcher.
func NewSitemapResolver(fetcher *Fetcher) *SitemapResolver {
	return &SitemapResolver{fetcher: fetcher}
}

// urlSet mirrors the <urlset> element of the sitemap protocol.
type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// Resolve fetches and parses the sitemap for a website URL, returning the
// listed page URLs. Any fetch or parse failure maps to
// domain.ErrSitemapUnavailable so callers can treat it as zero links
// rather than a hard crawl failure.
func (r *SitemapResolver) Resolve(ctx context.Context, websiteURL string) ([]string, error) {
	sitemapURL := SitemapURL(websiteURL)

	body, err := r.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSitemapUnavailable, err)
	}

	var set urlSet
	if err := xml.Unmarshal([]byte(body), &set); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrSitemapUnavailable, sitemapURL, err)
	}

	links := make([]string, 0, len(set.URLs))
	for _, u := range set.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			links = append(links, loc)
		}
	}

	return links, nil
}

// SitemapURL derives the sitemap location from a website URL. A URL that
// already ends in .xml is assumed to be the sitemap itself.
func SitemapURL(websiteURL string) string {
	if strings.HasSuffix(websiteURL, ".xml") {
		return websiteURL
	}
	return strings.TrimSuffix(websiteURL, "/") + "/sitemap.xml"
}
