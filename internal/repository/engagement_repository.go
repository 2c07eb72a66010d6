package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/leadpulse-id/outreach-service/internal/domain"
)

// EngagementRepository owns every write to lead_engagement_states. Nothing
// else in the codebase touches status, current_step_index or last_sent_at.
type EngagementRepository struct {
	db *sqlx.DB
}

func NewEngagementRepository(db *sqlx.DB) *EngagementRepository {
	return &EngagementRepository{db: db}
}

const engagementColumns = `
	id, lead_id, status, plan_id, current_step_index, started_at, last_sent_at,
	paused_at, pause_reason, manual_paused, next_send_at, created_at, updated_at
`

func (r *EngagementRepository) GetByLeadID(ctx context.Context, leadID int64) (*domain.EngagementState, error) {
	query := `SELECT ` + engagementColumns + ` FROM lead_engagement_states WHERE lead_id = ?`

	var state domain.EngagementState
	if err := r.db.GetContext(ctx, &state, query, leadID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get engagement state: %w", err)
	}

	return &state, nil
}

// ListPaused returns every paused state, oldest pause first.
func (r *EngagementRepository) ListPaused(ctx context.Context) ([]domain.EngagementState, error) {
	query := `
		SELECT ` + engagementColumns + `
		FROM lead_engagement_states
		WHERE status = 'paused'
		ORDER BY paused_at ASC
	`

	var states []domain.EngagementState
	if err := r.db.SelectContext(ctx, &states, query); err != nil {
		return nil, fmt.Errorf("failed to list paused states: %w", err)
	}

	return states, nil
}

// ListSendCandidates returns enrolled, active states that have already sent
// at least one step, bounded to keep a tick short. Step 0 is the enrollment
// path's responsibility.
func (r *EngagementRepository) ListSendCandidates(ctx context.Context, limit int) ([]domain.EngagementState, error) {
	query := `
		SELECT ` + engagementColumns + `
		FROM lead_engagement_states
		WHERE status = 'active'
		  AND plan_id IS NOT NULL
		  AND current_step_index > 0
		ORDER BY last_sent_at ASC
		LIMIT ?
	`

	var states []domain.EngagementState
	if err := r.db.SelectContext(ctx, &states, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list send candidates: %w", err)
	}

	return states, nil
}

// Create enrolls a lead. Fails on the unique lead_id key if a state already
// exists; callers check for an existing row first to give a better error.
func (r *EngagementRepository) Create(
	ctx context.Context,
	leadID, planID int64,
	startedAt time.Time,
	nextSendAt *time.Time,
) (*domain.EngagementState, error) {
	query := `
		INSERT INTO lead_engagement_states
			(lead_id, status, plan_id, current_step_index, started_at, next_send_at)
		VALUES (?, 'active', ?, 0, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, leadID, planID, startedAt, nextSendAt); err != nil {
		return nil, fmt.Errorf("failed to create engagement state: %w", err)
	}

	return r.GetByLeadID(ctx, leadID)
}

// Pause transitions a state to paused. next_send_at is cleared because the
// invariant keeps it NULL outside active.
func (r *EngagementRepository) Pause(
	ctx context.Context,
	leadID int64,
	reason domain.PauseReason,
	manual bool,
	at time.Time,
) error {
	query := `
		UPDATE lead_engagement_states
		SET status = 'paused', pause_reason = ?, manual_paused = ?, paused_at = ?, next_send_at = NULL
		WHERE lead_id = ?
	`

	result, err := r.db.ExecContext(ctx, query, reason, manual, at, leadID)
	if err != nil {
		return fmt.Errorf("failed to pause engagement state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("no engagement state found for lead %d", leadID)
	}

	return nil
}

// Resume reactivates a paused state and clears the pause bookkeeping.
func (r *EngagementRepository) Resume(ctx context.Context, leadID int64) error {
	query := `
		UPDATE lead_engagement_states
		SET status = 'active', paused_at = NULL, pause_reason = NULL, manual_paused = 0
		WHERE lead_id = ? AND status = 'paused'
	`

	result, err := r.db.ExecContext(ctx, query, leadID)
	if err != nil {
		return fmt.Errorf("failed to resume engagement state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("no paused engagement state found for lead %d", leadID)
	}

	return nil
}

// ApplySendResult commits a successful send as one atomic unit: the outbound
// message record, the automated follow-up audit entry, and the state advance.
// A crash can therefore never leave a lead "sent but not advanced" or the
// other way around.
func (r *EngagementRepository) ApplySendResult(ctx context.Context, p domain.SendCommit) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	msgResult, err := tx.ExecContext(ctx, `
		INSERT INTO messages
			(lead_id, direction, channel, content, external_message_id, delivery_status, dedup_key, is_automated, sent_at)
		VALUES (?, 'outbound', 'whatsapp', ?, ?, 'sent', ?, 1, ?)
	`, p.LeadID, p.Content, p.ExternalMessageID, p.DedupKey, p.SentAt)
	if err != nil {
		return 0, fmt.Errorf("failed to record outbound message: %w", err)
	}

	messageID, err := msgResult.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get message id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO follow_ups (lead_id, note, is_automated, is_done, created_by)
		VALUES (?, ?, 1, 1, 'nurture')
	`, p.LeadID, p.Note); err != nil {
		return 0, fmt.Errorf("failed to record follow-up: %w", err)
	}

	status := domain.EngagementActive
	if p.SequenceComplete {
		status = domain.EngagementStopped
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE lead_engagement_states
		SET current_step_index = ?, last_sent_at = ?, status = ?, next_send_at = NULL
		WHERE lead_id = ?
	`, p.StepOrder, p.SentAt, status, p.LeadID); err != nil {
		return 0, fmt.Errorf("failed to advance engagement state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit send result: %w", err)
	}

	return messageID, nil
}
