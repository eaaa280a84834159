package driven

import (
	"context"
	"time"
)

// DistributedLock coordinates exclusive work across instances. The crawl
// starter holds a per-chatbot lock while creating a job so concurrent
// crawl requests cannot double-create.
type DistributedLock interface {
	// Acquire attempts to take the named lock for at most ttl.
	// Returns true if acquired, false if held elsewhere.
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)

	// Release frees the named lock if held by this instance. Safe to call
	// when the lock is not held or has expired.
	Release(ctx context.Context, name string) error
}

// TaskAuthenticator signs and verifies task-queue callbacks. Callbacks
// arrive from an external transport; nothing is processed before the
// signature checks out.
type TaskAuthenticator interface {
	// Sign produces a signature for a dispatched task.
	Sign(jobID int64) (string, error)

	// Verify validates a callback signature. Returns domain.ErrForbidden
	// on any failure.
	Verify(token string) error
}
