package driven

import (
	"context"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
)

// JobStore persists crawl jobs.
type JobStore interface {
	// Create inserts a new job and assigns its ID.
	Create(ctx context.Context, job *domain.CrawlJob) error

	// Get retrieves a job by ID. Returns domain.ErrJobNotFound if missing.
	Get(ctx context.Context, id int64) (*domain.CrawlJob, error)

	// AdvanceCounters atomically adds processed/succeeded to the job's
	// counters and flips status to completed once tasks_completed reaches
	// tasks_count. The increment and the status transition happen in a
	// single statement so concurrent callbacks cannot lose updates.
	// Returns the job as it stands after the update.
	AdvanceCounters(ctx context.Context, id int64, processed, succeeded int) (*domain.CrawlJob, error)

	// MarkRunning transitions a pending job to running. Completed jobs are
	// never regressed.
	MarkRunning(ctx context.Context, id int64) error

	// ListByChatbot returns jobs for a chatbot, newest first.
	ListByChatbot(ctx context.Context, chatbotID string, limit int) ([]*domain.CrawlJob, error)
}
