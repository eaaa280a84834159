package driving

import (
	"context"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
)

// IngestionController processes one task-queue callback: fetch, extract,
// dedup and index every link in the batch, then roll the outcomes into
// the job's counters.
type IngestionController interface {
	// ProcessBatch runs the ingestion pipeline for one batch. retries is
	// the transport-supplied delivery attempt count; the returned
	// disposition tells the transport whether to redeliver. Per-link
	// failures are absorbed into the counters, never escalated.
	ProcessBatch(ctx context.Context, batch domain.BatchRequest, retries int) domain.BatchDisposition
}

// CrawlStarter kicks off a crawl for a chatbot: sitemap discovery, job
// creation and batch dispatch.
type CrawlStarter interface {
	// StartCrawl resolves the chatbot's sitemap, creates a job sized to
	// the discovered links and enqueues them in dispatch batches.
	StartCrawl(ctx context.Context, chatbotID string) (*domain.CrawlJob, error)
}
