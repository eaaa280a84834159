package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
)

// MockJobStore is an in-memory JobStore for testing.
type MockJobStore struct {
	mu   sync.RWMutex
	jobs map[int64]*domain.CrawlJob

	// Custom behavior hooks (optional)
	CreateFn          func(job *domain.CrawlJob) error
	AdvanceCountersFn func(id int64, processed, succeeded int) (*domain.CrawlJob, error)
}

// NewMockJobStore creates a new MockJobStore.
func NewMockJobStore() *MockJobStore {
	return &MockJobStore{jobs: make(map[int64]*domain.CrawlJob)}
}

func (m *MockJobStore) Create(ctx context.Context, job *domain.CrawlJob) error {
	if m.CreateFn != nil {
		return m.CreateFn(job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if job.ID == 0 {
		job.ID = int64(len(m.jobs) + 1)
	}
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *MockJobStore) Get(ctx context.Context, id int64) (*domain.CrawlJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

// MarkRunning transitions a pending job to running; any other status is
// left untouched, matching the real store's guarded UPDATE.
func (m *MockJobStore) MarkRunning(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.Status == domain.JobStatusPending {
		job.Status = domain.JobStatusRunning
	}
	return nil
}

// AdvanceCounters applies the same completion transition the real store
// runs in SQL.
func (m *MockJobStore) AdvanceCounters(ctx context.Context, id int64, processed, succeeded int) (*domain.CrawlJob, error) {
	if m.AdvanceCountersFn != nil {
		return m.AdvanceCountersFn(id, processed, succeeded)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	job.TasksCompleted += processed
	job.TasksSucceeded += succeeded
	if job.TasksCompleted >= job.TasksCount {
		now := time.Now()
		job.CompletedAt = &now
		job.Status = domain.JobStatusCompleted
	}
	cp := *job
	return &cp, nil
}

func (m *MockJobStore) ListByChatbot(ctx context.Context, chatbotID string, limit int) ([]*domain.CrawlJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.CrawlJob
	for _, job := range m.jobs {
		if job.ChatbotID != chatbotID {
			continue
		}
		cp := *job
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Reset clears all jobs (useful between tests).
func (m *MockJobStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = make(map[int64]*domain.CrawlJob)
}
