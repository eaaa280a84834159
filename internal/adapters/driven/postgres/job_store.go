package postgres

import (
	"context"
	"database/sql"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
	"github.com/oriole-labs/sitebot-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.JobStore = (*JobStore)(nil)

// JobStore implements driven.JobStore using PostgreSQL
type JobStore struct {
	db *DB
}

// NewJobStore creates a new JobStore
func NewJobStore(db *DB) *JobStore {
	return &JobStore{db: db}
}

// Create inserts a new job and backfills its generated ID
func (s *JobStore) Create(ctx context.Context, job *domain.CrawlJob) error {
	query := `
		INSERT INTO crawl_jobs (chatbot_id, organization_id, status, tasks_count, tasks_completed, tasks_succeeded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	return s.db.QueryRowContext(ctx, query,
		job.ChatbotID,
		job.OrganizationID,
		string(job.Status),
		job.TasksCount,
		job.TasksCompleted,
		job.TasksSucceeded,
		job.CreatedAt,
	).Scan(&job.ID)
}

// Get retrieves a job by ID
func (s *JobStore) Get(ctx context.Context, id int64) (*domain.CrawlJob, error) {
	query := `
		SELECT id, chatbot_id, organization_id, status, tasks_count, tasks_completed, tasks_succeeded, created_at, completed_at
		FROM crawl_jobs
		WHERE id = $1
	`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// AdvanceCounters adds processed/succeeded to the job's counters and
// settles the terminal status, all in one statement so concurrent
// callbacks cannot interleave a read-modify-write.
func (s *JobStore) AdvanceCounters(ctx context.Context, id int64, processed, succeeded int) (*domain.CrawlJob, error) {
	query := `
		UPDATE crawl_jobs SET
			tasks_completed = tasks_completed + $2,
			tasks_succeeded = tasks_succeeded + $3,
			status = CASE
				WHEN tasks_completed + $2 >= tasks_count THEN 'completed'
				ELSE status
			END,
			completed_at = CASE
				WHEN tasks_completed + $2 >= tasks_count THEN COALESCE(completed_at, now())
				ELSE completed_at
			END
		WHERE id = $1
		RETURNING id, chatbot_id, organization_id, status, tasks_count, tasks_completed, tasks_succeeded, created_at, completed_at
	`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id, processed, succeeded))
	if err == sql.ErrNoRows {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// MarkRunning transitions a pending job to running
func (s *JobStore) MarkRunning(ctx context.Context, id int64) error {
	query := `UPDATE crawl_jobs SET status = 'running' WHERE id = $1 AND status = 'pending'`
	_, err := s.db.ExecContext(ctx, query, id)
	return err
}

// ListByChatbot returns jobs for a chatbot, newest first
func (s *JobStore) ListByChatbot(ctx context.Context, chatbotID string, limit int) ([]*domain.CrawlJob, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, chatbot_id, organization_id, status, tasks_count, tasks_completed, tasks_succeeded, created_at, completed_at
		FROM crawl_jobs
		WHERE chatbot_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, chatbotID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.CrawlJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.CrawlJob, error) {
	var job domain.CrawlJob
	var status string
	var completedAt sql.NullTime

	err := row.Scan(
		&job.ID,
		&job.ChatbotID,
		&job.OrganizationID,
		&status,
		&job.TasksCount,
		&job.TasksCompleted,
		&job.TasksSucceeded,
		&job.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status = domain.JobStatus(status)
	job.CompletedAt = TimePtr(completedAt)
	return &job, nil
}
