package domain

import (
	"time"

	"github.com/google/uuid"
)

// GenerateID creates a unique identifier for new entities.
func GenerateID() string {
	return uuid.NewString()
}

// JobStatus represents the current state of a crawl job
type JobStatus string

// A job is terminal once every task settled: status becomes completed
// regardless of how many links succeeded. Per-link failures live in the
// counters, not the status.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
)

// CrawlJob tracks one request to ingest a batch of site URLs into a
// chatbot's knowledge base. Counters are advanced by the ingestion
// controller after each task-queue callback and always satisfy
// 0 <= TasksSucceeded <= TasksCompleted <= TasksCount.
type CrawlJob struct {
	// ID is the unique identifier for this job
	ID int64 `json:"id"`

	// ChatbotID is the chatbot this job ingests into
	ChatbotID string `json:"chatbot_id"`

	// OrganizationID is the owning organization
	OrganizationID string `json:"organization_id"`

	// Status is the current state of the job
	Status JobStatus `json:"status"`

	// TasksCount is the total number of links scheduled for this job
	TasksCount int `json:"tasks_count"`

	// TasksCompleted is how many links have been processed, success or failure
	TasksCompleted int `json:"tasks_completed"`

	// TasksSucceeded is how many links produced a newly indexed document
	TasksSucceeded int `json:"tasks_succeeded"`

	// CreatedAt is when the crawl was requested
	CreatedAt time.Time `json:"created_at"`

	// CompletedAt is when the last task settled (nil while in progress)
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewCrawlJob creates a pending job for the given number of links.
func NewCrawlJob(chatbotID, organizationID string, tasksCount int) *CrawlJob {
	return &CrawlJob{
		ChatbotID:      chatbotID,
		OrganizationID: organizationID,
		Status:         JobStatusPending,
		TasksCount:     tasksCount,
		CreatedAt:      time.Now(),
	}
}

// IsDone reports whether every scheduled task has settled.
func (j *CrawlJob) IsDone() bool {
	return j.TasksCompleted >= j.TasksCount
}

// Remaining returns the number of tasks not yet settled.
func (j *CrawlJob) Remaining() int {
	if r := j.TasksCount - j.TasksCompleted; r > 0 {
		return r
	}
	return 0
}

// BatchRequest is the payload of one task-queue callback: a slice of the
// job's links to be fetched, extracted and indexed in a single invocation.
type BatchRequest struct {
	JobID     int64    `json:"jobId"`
	ChatbotID string   `json:"chatbotId"`
	Links     []string `json:"links"`
}

// BatchDisposition tells the delivering transport what to do with the
// callback. Retry=true asks the queue to redeliver; otherwise the message
// is acknowledged whether or not the batch fully succeeded.
type BatchDisposition struct {
	Succeeded int
	Failed    int
	Retry     bool
}

// CrawlTask is one queued batch of links for a job. Tasks are ephemeral:
// they live on the dispatch queue and inside a single callback invocation,
// never in the relational store.
type CrawlTask struct {
	ID        string       `json:"id"`
	Batch     BatchRequest `json:"batch"`
	Attempts  int          `json:"attempts"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewCrawlTask creates a dispatch task for one batch of a job's links.
func NewCrawlTask(batch BatchRequest) *CrawlTask {
	return &CrawlTask{
		ID:        GenerateID(),
		Batch:     batch,
		CreatedAt: time.Now(),
	}
}
