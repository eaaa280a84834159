package driven

import (
	"context"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
)

// SitemapResolver turns a website URL into the list of candidate page
// URLs via its sitemap. Implementations return
// domain.ErrSitemapUnavailable when the sitemap cannot be fetched or
// parsed; callers treat that as zero links found. Sitemap index files and
// robots.txt discovery are deliberately unsupported, but the interface
// accommodates a more capable resolver without changing callers.
type SitemapResolver interface {
	Resolve(ctx context.Context, websiteURL string) ([]string, error)
}

// PageFetcher retrieves raw HTML for one URL. Failures surface as
// *domain.FetchError; retry policy lives at the job/queue boundary, not
// here.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ContentExtractor turns raw HTML into a clean title plus Markdown body,
// qualifying relative links against the page's origin. Pure and
// deterministic for identical inputs.
type ContentExtractor interface {
	Extract(html, host string) (*domain.ExtractedPage, error)
}
