package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/oriole-labs/sitebot-core/internal/batch"
	"github.com/oriole-labs/sitebot-core/internal/core/domain"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driving"
)

// Verify interface compliance
var _ driving.IngestionController = (*IngestionService)(nil)

// IngestionService orchestrates one crawl-batch callback.
// For each link it runs the pipeline fetch → extract → fingerprint →
// dedup-check → index-write as a single batch operation, then rolls the
// settled outcomes into the job's counters. Link-level failures are
// absorbed; only failures around the job record itself escalate to the
// delivering transport.
type IngestionService struct {
	jobs      driven.JobStore
	documents driven.DocumentStore
	index     driven.VectorIndex
	fetcher   driven.PageFetcher
	extractor driven.ContentExtractor
	logger    *slog.Logger

	concurrency int
	batchDelay  time.Duration
	maxRetries  int
}

// IngestionConfig holds dependencies for IngestionService.
type IngestionConfig struct {
	Jobs      driven.JobStore
	Documents driven.DocumentStore
	Index     driven.VectorIndex
	Fetcher   driven.PageFetcher
	Extractor driven.ContentExtractor
	Logger    *slog.Logger

	// Concurrency bounds in-flight links per batch (default 2)
	Concurrency int

	// BatchDelay is the pause between link batches (default 1s)
	BatchDelay time.Duration

	// MaxRetries is how many redeliveries are requested before giving up
	// gracefully (default 3)
	MaxRetries int
}

// NewIngestionService creates the ingestion controller.
func NewIngestionService(cfg IngestionConfig) *IngestionService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}

	delay := cfg.BatchDelay
	if delay <= 0 {
		delay = time.Second
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &IngestionService{
		jobs:        cfg.Jobs,
		documents:   cfg.Documents,
		index:       cfg.Index,
		fetcher:     cfg.Fetcher,
		extractor:   cfg.Extractor,
		logger:      logger,
		concurrency: concurrency,
		batchDelay:  delay,
		maxRetries:  maxRetries,
	}
}

// ProcessBatch handles one callback invocation. retries is the
// transport-supplied delivery attempt count; below MaxRetries a job-level
// failure asks for redelivery, at or above it the batch is acknowledged
// anyway so a poisoned message cannot storm the queue forever.
func (s *IngestionService) ProcessBatch(ctx context.Context, req domain.BatchRequest, retries int) domain.BatchDisposition {
	logger := s.logger.With("job_id", req.JobID, "chatbot_id", req.ChatbotID)

	job, err := s.jobs.Get(ctx, req.JobID)
	if err != nil {
		return s.fail(logger, retries, fmt.Errorf("load job: %w", err))
	}

	if job.Status == domain.JobStatusPending {
		if err := s.jobs.MarkRunning(ctx, job.ID); err != nil {
			logger.Warn("failed to mark job running", "error", err)
		}
	}

	logger.Info("crawling links", "links", len(req.Links))

	ops := make([]batch.Operation, len(req.Links))
	for i, link := range req.Links {
		link := link
		ops[i] = func(ctx context.Context) error {
			if err := s.processLink(ctx, job, link); err != nil {
				if errors.Is(err, domain.ErrDuplicateContent) {
					logger.Info("skipping duplicate content", "url", link)
				} else {
					logger.Warn("error crawling url", "url", link, "error", err)
				}
				return err
			}
			return nil
		}
	}

	outcomes := batch.Run(ctx, ops, s.concurrency, s.batchDelay)

	var succeeded int
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		}
	}
	failed := len(outcomes) - succeeded
	processed := succeeded + failed

	logger.Info("crawling links done", "succeeded", succeeded, "failed", failed)

	updated, err := s.jobs.AdvanceCounters(ctx, req.JobID, processed, succeeded)
	if err != nil {
		return s.fail(logger, retries, fmt.Errorf("update job counters: %w", err))
	}

	logger.Info("job updated",
		"status", updated.Status,
		"tasks_completed", updated.TasksCompleted,
		"tasks_succeeded", updated.TasksSucceeded,
		"tasks_count", updated.TasksCount,
	)

	return domain.BatchDisposition{Succeeded: succeeded, Failed: failed}
}

// processLink runs the full pipeline for one URL. A non-nil return counts
// the link as failed in the job counters; duplicates are reported via
// domain.ErrDuplicateContent so they skip indexing without creating a
// second document.
func (s *IngestionService) processLink(ctx context.Context, job *domain.CrawlJob, link string) error {
	origin, err := pageOrigin(link)
	if err != nil {
		return fmt.Errorf("invalid link %q: %w", link, err)
	}

	html, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		return err
	}

	page, err := s.extractor.Extract(html, origin)
	if err != nil {
		return fmt.Errorf("extract %s: %w", link, err)
	}

	hash := domain.Fingerprint(page.Content)

	exists, err := s.documents.ExistsByHash(ctx, job.ChatbotID, hash)
	if err != nil {
		return fmt.Errorf("dedup check: %w", err)
	}
	if exists {
		return domain.ErrDuplicateContent
	}

	entry := driven.IndexEntry{
		Content: page.Content,
		Metadata: domain.DocumentMetadata{
			URL:            link,
			Title:          page.Title,
			ChatbotID:      job.ChatbotID,
			OrganizationID: job.OrganizationID,
			ContentHash:    hash,
		},
	}
	if err := s.index.AddDocuments(ctx, []driven.IndexEntry{entry}); err != nil {
		return fmt.Errorf("index write %s: %w", link, err)
	}

	doc := &domain.IndexedDocument{
		ID:             domain.GenerateID(),
		ChatbotID:      job.ChatbotID,
		OrganizationID: job.OrganizationID,
		URL:            link,
		Title:          page.Title,
		Content:        page.Content,
		ContentHash:    hash,
		CreatedAt:      time.Now(),
	}
	if err := s.documents.Save(ctx, doc); err != nil {
		return fmt.Errorf("save document record: %w", err)
	}

	return nil
}

// fail applies the bounded retry policy for callback-level errors.
func (s *IngestionService) fail(logger *slog.Logger, retries int, err error) domain.BatchDisposition {
	if retries < s.maxRetries {
		logger.Error("batch failed, requesting redelivery", "retries", retries, "error", err)
		return domain.BatchDisposition{Retry: true}
	}

	logger.Error("batch failed after max retries, giving up", "retries", retries, "error", err)
	return domain.BatchDisposition{}
}

// pageOrigin returns scheme://host for a page URL.
func pageOrigin(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("not an absolute url")
	}
	return u.Scheme + "://" + u.Host, nil
}
