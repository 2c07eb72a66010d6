package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/leadpulse-id/outreach-service/internal/domain"
)

// BlastRepository stores broadcast jobs and their per-recipient items.
type BlastRepository struct {
	db *sqlx.DB
}

func NewBlastRepository(db *sqlx.DB) *BlastRepository {
	return &BlastRepository{db: db}
}

const blastJobColumns = `
	id, public_id, message, created_by, status, success_count, failed_count,
	total_items, started_at, finished_at, created_at, updated_at
`

// CreateJob inserts one job plus all of its items in a single transaction.
// The worker can therefore assume items never exist without their job.
func (r *BlastRepository) CreateJob(
	ctx context.Context,
	publicID, message, createdBy string,
	leadIDs []int64,
) (*domain.BlastJob, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO blast_jobs (public_id, message, created_by, status, total_items)
		VALUES (?, ?, ?, 'pending', ?)
	`, publicID, message, createdBy, len(leadIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to create blast job: %w", err)
	}

	jobID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get job id: %w", err)
	}

	for _, leadID := range leadIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO blast_items (job_id, lead_id, status) VALUES (?, ?, 'pending')
		`, jobID, leadID); err != nil {
			return nil, fmt.Errorf("failed to create blast item for lead %d: %w", leadID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit blast job: %w", err)
	}

	return r.GetJobByID(ctx, jobID)
}

func (r *BlastRepository) GetJobByID(ctx context.Context, id int64) (*domain.BlastJob, error) {
	query := `SELECT ` + blastJobColumns + ` FROM blast_jobs WHERE id = ?`

	var job domain.BlastJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get blast job: %w", err)
	}

	return &job, nil
}

func (r *BlastRepository) ListJobs(ctx context.Context, page, pageSize int) ([]domain.BlastJob, int64, error) {
	offset := (page - 1) * pageSize

	var totalCount int64
	if err := r.db.GetContext(ctx, &totalCount, "SELECT COUNT(*) FROM blast_jobs"); err != nil {
		return nil, 0, fmt.Errorf("failed to count blast jobs: %w", err)
	}

	query := `
		SELECT ` + blastJobColumns + `
		FROM blast_jobs
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	var jobs []domain.BlastJob
	if err := r.db.SelectContext(ctx, &jobs, query, pageSize, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list blast jobs: %w", err)
	}

	return jobs, totalCount, nil
}

func (r *BlastRepository) ListItems(ctx context.Context, jobID int64) ([]domain.BlastItem, error) {
	query := `
		SELECT id, job_id, lead_id, status, error, message_id, created_at
		FROM blast_items
		WHERE job_id = ?
		ORDER BY id ASC
	`

	var items []domain.BlastItem
	if err := r.db.SelectContext(ctx, &items, query, jobID); err != nil {
		return nil, fmt.Errorf("failed to list blast items: %w", err)
	}

	return items, nil
}

// NextJob returns the oldest job that still has work, or nil. Re-evaluated
// every loop iteration, so a newly submitted older-numbered job never starves.
func (r *BlastRepository) NextJob(ctx context.Context) (*domain.BlastJob, error) {
	query := `
		SELECT ` + blastJobColumns + `
		FROM blast_jobs
		WHERE status IN ('pending', 'running')
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`

	var job domain.BlastJob
	if err := r.db.GetContext(ctx, &job, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get next blast job: %w", err)
	}

	return &job, nil
}

func (r *BlastRepository) MarkJobRunning(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE blast_jobs
		SET status = 'running', started_at = ?
		WHERE id = ? AND status = 'pending'
	`

	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("failed to mark blast job running: %w", err)
	}

	return nil
}

func (r *BlastRepository) CompleteJob(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE blast_jobs
		SET status = 'done', finished_at = ?
		WHERE id = ? AND status = 'running'
	`

	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("failed to complete blast job: %w", err)
	}

	return nil
}

// NextPendingItem returns the oldest pending item of a job in insertion
// order, or nil when every item is terminal.
//
// Single-consumer contract: this is a plain read, not an atomic claim. Before
// a second worker instance may run, this must become a conditional
// PENDING -> CLAIMED{workerId, leaseExpiry} update with lease reclaim.
func (r *BlastRepository) NextPendingItem(ctx context.Context, jobID int64) (*domain.BlastItem, error) {
	query := `
		SELECT id, job_id, lead_id, status, error, message_id, created_at
		FROM blast_items
		WHERE job_id = ? AND status = 'pending'
		ORDER BY id ASC
		LIMIT 1
	`

	var item domain.BlastItem
	if err := r.db.GetContext(ctx, &item, query, jobID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get next pending item: %w", err)
	}

	return &item, nil
}

// MarkItemSent finalizes an item and bumps the job counter atomically.
func (r *BlastRepository) MarkItemSent(ctx context.Context, itemID, jobID, messageID int64) error {
	return r.finalizeItem(ctx, itemID, jobID, domain.BlastItemSent, nil, &messageID)
}

// MarkItemFailed finalizes an item with its error and bumps the job counter.
// The message id is optional because the failure may predate the audit row.
func (r *BlastRepository) MarkItemFailed(ctx context.Context, itemID, jobID int64, errMsg string, messageID *int64) error {
	return r.finalizeItem(ctx, itemID, jobID, domain.BlastItemFailed, &errMsg, messageID)
}

func (r *BlastRepository) finalizeItem(
	ctx context.Context,
	itemID, jobID int64,
	status domain.BlastItemStatus,
	errMsg *string,
	messageID *int64,
) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE blast_items
		SET status = ?, error = ?, message_id = ?
		WHERE id = ? AND status = 'pending'
	`, status, errMsg, messageID, itemID)
	if err != nil {
		return fmt.Errorf("failed to finalize blast item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	// Sent and failed are terminal; a second finalize is a bug upstream.
	if rows == 0 {
		return fmt.Errorf("blast item %d is not pending", itemID)
	}

	counter := "success_count"
	if status == domain.BlastItemFailed {
		counter = "failed_count"
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE blast_jobs SET "+counter+" = "+counter+" + 1 WHERE id = ?", jobID,
	); err != nil {
		return fmt.Errorf("failed to increment job counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit item result: %w", err)
	}

	return nil
}
