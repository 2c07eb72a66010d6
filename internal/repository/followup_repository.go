package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// FollowUpRepository reads the staff follow-up trail. Manual follow-ups are
// engagement signals; automated ones are written by the nurture send path
// inside its own transaction, never through this repository.
type FollowUpRepository struct {
	db *sqlx.DB
}

func NewFollowUpRepository(db *sqlx.DB) *FollowUpRepository {
	return &FollowUpRepository{db: db}
}

// LatestManualAt returns the newest manual follow-up timestamp, or nil.
func (r *FollowUpRepository) LatestManualAt(ctx context.Context, leadID int64) (*time.Time, error) {
	query := `
		SELECT MAX(created_at)
		FROM follow_ups
		WHERE lead_id = ? AND is_automated = 0
	`

	var ts sql.NullTime
	if err := r.db.GetContext(ctx, &ts, query, leadID); err != nil {
		return nil, fmt.Errorf("failed to get latest manual follow-up: %w", err)
	}

	if !ts.Valid {
		return nil, nil
	}

	return &ts.Time, nil
}

// HasManualSince reports whether a manual follow-up was recorded strictly
// after the given moment. The other half of the engagement check.
func (r *FollowUpRepository) HasManualSince(ctx context.Context, leadID int64, since time.Time) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM follow_ups
		WHERE lead_id = ? AND is_automated = 0 AND created_at > ?
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, leadID, since); err != nil {
		return false, fmt.Errorf("failed to check manual follow-ups since: %w", err)
	}

	return count > 0, nil
}

// CountPendingManual counts undone manual follow-ups, a diagnostics signal.
func (r *FollowUpRepository) CountPendingManual(ctx context.Context, leadID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM follow_ups
		WHERE lead_id = ? AND is_automated = 0 AND is_done = 0
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, leadID); err != nil {
		return 0, fmt.Errorf("failed to count pending follow-ups: %w", err)
	}

	return count, nil
}
