// Package batch runs independent operations in fixed-size concurrent
// batches with a delay between them. It is the ingestion path's
// concurrency primitive: bounded fan-out against the origin site and the
// embedding API, with per-item outcomes instead of fail-fast.
package batch

import (
	"context"
	"sync"
	"time"
)

// Operation is one unit of work. Its error is captured, never propagated.
type Operation func(ctx context.Context) error

// Outcome records how one operation settled.
type Outcome struct {
	Success bool
	Err     error
}

// Run executes ops in consecutive batches of size concurrency, waiting
// delay between the end of one batch and the start of the next. All
// operations within a batch run concurrently and every one settles before
// the next batch starts. The result always has exactly len(ops) entries,
// in input order; an individual failure never aborts the batch.
//
// At any instant at most concurrency operations are in flight.
func Run(ctx context.Context, ops []Operation, concurrency int, delay time.Duration) []Outcome {
	if concurrency <= 0 {
		concurrency = 1
	}

	outcomes := make([]Outcome, len(ops))

	for start := 0; start < len(ops); start += concurrency {
		end := start + concurrency
		if end > len(ops) {
			end = len(ops)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				err := ops[idx](ctx)
				outcomes[idx] = Outcome{Success: err == nil, Err: err}
			}(i)
		}
		wg.Wait()

		if end < len(ops) && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				// Remaining operations still run so the outcome count
				// stays exact; they observe the cancelled context and
				// settle as failures on their own.
			}
		}
	}

	return outcomes
}
