package driven

import (
	"context"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
)

// TaskQueue dispatches crawl-batch tasks from the crawl starter to the
// workers that deliver them to the ingestion controller. The queue owns
// redelivery: the attempt count it reports with each dequeued task is the
// retry count the controller's give-up policy inspects.
type TaskQueue interface {
	// Enqueue adds a task for processing.
	Enqueue(ctx context.Context, task *domain.CrawlTask) error

	// DequeueWithTimeout retrieves the next task, waiting up to timeout
	// seconds. Returns nil, nil if none became available. The returned
	// task carries its delivery attempt count.
	DequeueWithTimeout(ctx context.Context, timeout int) (*domain.CrawlTask, error)

	// Ack removes a delivered task from the queue.
	Ack(ctx context.Context, taskID string) error

	// Nack returns a delivered task to the queue for redelivery with an
	// incremented attempt count.
	Nack(ctx context.Context, taskID string, reason string) error

	// Ping checks if the queue backend is healthy.
	Ping(ctx context.Context) error

	// Close cleans up resources.
	Close() error
}
