package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driving"
)

// Verify interface compliance
var _ driving.CrawlStarter = (*CrawlService)(nil)

// CrawlService starts crawls: it resolves the chatbot's sitemap, checks
// the indexing quota, creates the job and enqueues the links in dispatch
// batches. A per-chatbot lock keeps concurrent crawl requests from
// double-creating jobs.
type CrawlService struct {
	chatbots driven.ChatbotStore
	jobs     driven.JobStore
	sitemap  driven.SitemapResolver
	queue    driven.TaskQueue
	lock     driven.DistributedLock
	oracle   driven.CapabilityOracle
	logger   *slog.Logger

	dispatchSize int
	lockTTL      time.Duration
}

// CrawlConfig holds dependencies for CrawlService.
type CrawlConfig struct {
	Chatbots driven.ChatbotStore
	Jobs     driven.JobStore
	Sitemap  driven.SitemapResolver
	Queue    driven.TaskQueue
	Lock     driven.DistributedLock
	Oracle   driven.CapabilityOracle
	Logger   *slog.Logger

	// DispatchSize is how many links each queued task carries (default 10)
	DispatchSize int

	// LockTTL bounds how long the per-chatbot crawl lock is held (default 1m)
	LockTTL time.Duration
}

// NewCrawlService creates the crawl starter.
func NewCrawlService(cfg CrawlConfig) *CrawlService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dispatchSize := cfg.DispatchSize
	if dispatchSize <= 0 {
		dispatchSize = 10
	}

	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}

	return &CrawlService{
		chatbots:     cfg.Chatbots,
		jobs:         cfg.Jobs,
		sitemap:      cfg.Sitemap,
		queue:        cfg.Queue,
		lock:         cfg.Lock,
		oracle:       cfg.Oracle,
		logger:       logger,
		dispatchSize: dispatchSize,
		lockTTL:      lockTTL,
	}
}

// StartCrawl creates a crawl job for the chatbot's website and dispatches
// its sitemap links to the task queue. An unavailable sitemap yields a
// job that completes immediately with zero tasks rather than an error.
func (s *CrawlService) StartCrawl(ctx context.Context, chatbotID string) (*domain.CrawlJob, error) {
	logger := s.logger.With("chatbot_id", chatbotID)

	bot, err := s.chatbots.Get(ctx, chatbotID)
	if err != nil {
		return nil, fmt.Errorf("load chatbot: %w", err)
	}

	lockName := "crawl:" + chatbotID
	acquired, err := s.lock.Acquire(ctx, lockName, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire crawl lock: %w", err)
	}
	if !acquired {
		return nil, domain.ErrCrawlInProgress
	}
	defer func() {
		if err := s.lock.Release(ctx, lockName); err != nil {
			logger.Warn("failed to release crawl lock", "error", err)
		}
	}()

	links, err := s.sitemap.Resolve(ctx, bot.URL)
	if err != nil {
		if !errors.Is(err, domain.ErrSitemapUnavailable) {
			return nil, fmt.Errorf("resolve sitemap: %w", err)
		}
		logger.Warn("sitemap unavailable, crawl will have zero tasks", "url", bot.URL, "error", err)
		links = nil
	}

	if len(links) > 0 {
		ok, err := s.oracle.CanIndexDocuments(ctx, bot.OrganizationID, len(links))
		if err != nil {
			return nil, fmt.Errorf("check indexing quota: %w", err)
		}
		if !ok {
			return nil, domain.ErrIndexingQuotaExceeded
		}
	}

	job := domain.NewCrawlJob(bot.ID, bot.OrganizationID, len(links))
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if len(links) == 0 {
		// Nothing to dispatch; settle the job as completed right away.
		updated, err := s.jobs.AdvanceCounters(ctx, job.ID, 0, 0)
		if err != nil {
			logger.Warn("failed to settle empty job", "job_id", job.ID, "error", err)
			return job, nil
		}
		return updated, nil
	}

	for start := 0; start < len(links); start += s.dispatchSize {
		end := start + s.dispatchSize
		if end > len(links) {
			end = len(links)
		}

		task := domain.NewCrawlTask(domain.BatchRequest{
			JobID:     job.ID,
			ChatbotID: bot.ID,
			Links:     links[start:end],
		})
		if err := s.queue.Enqueue(ctx, task); err != nil {
			// Count the undispatched links as processed failures so the
			// batches already on the queue can still settle the job.
			if _, settleErr := s.jobs.AdvanceCounters(ctx, job.ID, len(links)-start, 0); settleErr != nil {
				logger.Warn("failed to settle job after enqueue error", "job_id", job.ID, "error", settleErr)
			}
			return nil, fmt.Errorf("enqueue batch: %w", err)
		}
	}

	logger.Info("crawl started", "job_id", job.ID, "links", len(links))

	return job, nil
}
