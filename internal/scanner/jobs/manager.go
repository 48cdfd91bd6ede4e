package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/biznesyordam/scanner-service/internal/database"
	"github.com/biznesyordam/scanner-service/internal/queue"
	"github.com/biznesyordam/scanner-service/internal/ratelimit"
	"github.com/biznesyordam/scanner-service/internal/scanner/events"
	"github.com/biznesyordam/scanner-service/internal/scanner/pipeline"
)

// ErrBatchTooLarge is returned when a job exceeds the configured item cap.
var ErrBatchTooLarge = errors.New("batch exceeds the configured limit")

// ErrEmptyBatch is returned when a job carries no items.
var ErrEmptyBatch = errors.New("batch has no items")

// Manager runs batch pipeline jobs: items are queued in memory, a background
// worker drains them through the pipeline at a paced rate.
type Manager struct {
	db        *database.DB
	pipeline  *pipeline.Pipeline
	scans     *database.ScanRepository
	publisher *events.Publisher
	queue     queue.Queue
	limiter   ratelimit.RateLimiter
	logger    *slog.Logger
	maxBatch  int
}

func NewManager(
	db *database.DB,
	pl *pipeline.Pipeline,
	scans *database.ScanRepository,
	publisher *events.Publisher,
	q queue.Queue,
	limiter ratelimit.RateLimiter,
	maxBatch int,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		db:        db,
		pipeline:  pl,
		scans:     scans,
		publisher: publisher,
		queue:     q,
		limiter:   limiter,
		logger:    logger.With("component", "job_manager"),
		maxBatch:  maxBatch,
	}
}

// Job represents a batch processing job
type Job struct {
	ID          string     `json:"id"`
	PartnerID   string     `json:"partner_id,omitempty"`
	Status      string     `json:"status"`
	ItemsTotal  int        `json:"items_total"`
	ItemsDone   int        `json:"items_done"`
	ItemsFailed int        `json:"items_failed"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// CreateJob validates and enqueues a batch. Every item must carry a positive
// cost price; a single bad item rejects the whole batch before anything is
// queued.
func (m *Manager) CreateJob(ctx context.Context, partnerID string, items []pipeline.Request) (*Job, error) {
	if len(items) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(items) > m.maxBatch {
		return nil, fmt.Errorf("%w: %d items, max %d", ErrBatchTooLarge, len(items), m.maxBatch)
	}
	for i, item := range items {
		if item.CostPrice <= 0 {
			return nil, fmt.Errorf("item %d: %w", i, pipeline.ErrInvalidCostPrice)
		}
	}

	job := &Job{
		ID:         uuid.New().String(),
		PartnerID:  partnerID,
		Status:     "pending",
		ItemsTotal: len(items),
		CreatedAt:  time.Now(),
	}

	query := `
		INSERT INTO scan_jobs
		(id, partner_id, status, items_total, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := m.db.Exec(ctx, query,
		job.ID, job.PartnerID, job.Status, job.ItemsTotal, job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	for i, item := range items {
		item.PartnerID = partnerID
		// Image recognition is an interactive feature; batch runs are
		// identity-only.
		item.ImageBase64 = ""

		task := &queue.Task{
			ID:        uuid.New().String(),
			JobID:     job.ID,
			Request:   item,
			Priority:  len(items) - i,
			CreatedAt: time.Now(),
		}
		if err := m.queue.Push(task); err != nil {
			return nil, fmt.Errorf("failed to enqueue item %d: %w", i, err)
		}
	}

	m.logger.Info("job created", "id", job.ID, "items", job.ItemsTotal)
	return job, nil
}

// GetJob retrieves a job by ID
func (m *Manager) GetJob(ctx context.Context, jobID string) (*Job, error) {
	query := `
		SELECT id, partner_id, status, items_total, items_done, items_failed,
		       created_at, started_at, completed_at, error
		FROM scan_jobs
		WHERE id = $1
	`

	job := &Job{}
	err := m.db.QueryRow(ctx, query, jobID).Scan(
		&job.ID, &job.PartnerID, &job.Status, &job.ItemsTotal,
		&job.ItemsDone, &job.ItemsFailed,
		&job.CreatedAt, &job.StartedAt, &job.CompletedAt, &job.Error,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("job not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// ListJobs returns the most recent jobs
func (m *Manager) ListJobs(ctx context.Context) ([]*Job, error) {
	query := `
		SELECT id, partner_id, status, items_total, items_done, items_failed,
		       created_at, started_at, completed_at, error
		FROM scan_jobs
		ORDER BY created_at DESC
		LIMIT 50
	`

	rows, err := m.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job := &Job{}
		err := rows.Scan(
			&job.ID, &job.PartnerID, &job.Status, &job.ItemsTotal,
			&job.ItemsDone, &job.ItemsFailed,
			&job.CreatedAt, &job.StartedAt, &job.CompletedAt, &job.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return jobs, nil
}
