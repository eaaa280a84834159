package mocks

import (
	"context"
	"sync"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
)

// MockTaskQueue is an in-memory TaskQueue for testing.
type MockTaskQueue struct {
	mu        sync.Mutex
	pending   []*domain.CrawlTask
	delivered map[string]*domain.CrawlTask
	acked     []string
	nacked    []string

	// Custom behavior hooks (optional)
	EnqueueFn func(task *domain.CrawlTask) error
}

// NewMockTaskQueue creates a new MockTaskQueue.
func NewMockTaskQueue() *MockTaskQueue {
	return &MockTaskQueue{delivered: make(map[string]*domain.CrawlTask)}
}

func (m *MockTaskQueue) Enqueue(ctx context.Context, task *domain.CrawlTask) error {
	if m.EnqueueFn != nil {
		return m.EnqueueFn(task)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *task
	m.pending = append(m.pending, &cp)
	return nil
}

func (m *MockTaskQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.CrawlTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return nil, nil
	}
	task := m.pending[0]
	m.pending = m.pending[1:]
	m.delivered[task.ID] = task
	return task, nil
}

func (m *MockTaskQueue) Ack(ctx context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, taskID)
	delete(m.delivered, taskID)
	return nil
}

// Nack requeues the delivered task with its attempt count bumped.
func (m *MockTaskQueue) Nack(ctx context.Context, taskID string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nacked = append(m.nacked, taskID)
	if task, ok := m.delivered[taskID]; ok {
		delete(m.delivered, taskID)
		cp := *task
		cp.Attempts++
		m.pending = append(m.pending, &cp)
	}
	return nil
}

func (m *MockTaskQueue) Ping(ctx context.Context) error {
	return nil
}

func (m *MockTaskQueue) Close() error {
	return nil
}

// Pending returns queued tasks (for test assertions).
func (m *MockTaskQueue) Pending() []*domain.CrawlTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.CrawlTask(nil), m.pending...)
}

// Acked returns the ids of acknowledged tasks.
func (m *MockTaskQueue) Acked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...)
}

// Nacked returns the ids of negatively acknowledged tasks.
func (m *MockTaskQueue) Nacked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.nacked...)
}

// Reset clears all state (useful between tests).
func (m *MockTaskQueue) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
	m.delivered = make(map[string]*domain.CrawlTask)
	m.acked = nil
	m.nacked = nil
}
