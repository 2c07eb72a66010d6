package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/leadpulse-id/outreach-service/internal/domain"
)

// MessageRepository handles the message audit trail and the engagement-signal
// queries derived from it.
type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `
	id, lead_id, direction, channel, content, external_message_id,
	delivery_status, dedup_key, is_automated, sent_at, created_at, updated_at
`

// CreateOutboundPending inserts the audit row before the gateway call.
func (r *MessageRepository) CreateOutboundPending(
	ctx context.Context,
	leadID int64,
	content string,
	dedupKey string,
	automated bool,
) (int64, error) {
	query := `
		INSERT INTO messages (lead_id, direction, channel, content, delivery_status, dedup_key, is_automated)
		VALUES (?, 'outbound', 'whatsapp', ?, 'pending', ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, leadID, content, dedupKey, automated)
	if err != nil {
		return 0, fmt.Errorf("failed to create outbound message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return id, nil
}

func (r *MessageRepository) MarkSent(ctx context.Context, id int64, externalMessageID string, sentAt time.Time) error {
	query := `
		UPDATE messages
		SET delivery_status = 'sent', external_message_id = ?, sent_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, externalMessageID, sentAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark message as sent: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("no message found with id %d", id)
	}

	return nil
}

func (r *MessageRepository) MarkFailed(ctx context.Context, id int64) error {
	query := `
		UPDATE messages
		SET delivery_status = 'failed', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark message as failed: %w", err)
	}

	return nil
}

// LatestInboundAt returns the newest inbound timestamp for a lead, or nil.
func (r *MessageRepository) LatestInboundAt(ctx context.Context, leadID int64) (*time.Time, error) {
	query := `
		SELECT MAX(created_at)
		FROM messages
		WHERE lead_id = ? AND direction = 'inbound'
	`

	var ts sql.NullTime
	if err := r.db.GetContext(ctx, &ts, query, leadID); err != nil {
		return nil, fmt.Errorf("failed to get latest inbound: %w", err)
	}

	if !ts.Valid {
		return nil, nil
	}

	return &ts.Time, nil
}

// LatestManualOutboundAt returns the newest human-sent outbound timestamp.
func (r *MessageRepository) LatestManualOutboundAt(ctx context.Context, leadID int64) (*time.Time, error) {
	query := `
		SELECT MAX(created_at)
		FROM messages
		WHERE lead_id = ? AND direction = 'outbound' AND is_automated = 0
	`

	var ts sql.NullTime
	if err := r.db.GetContext(ctx, &ts, query, leadID); err != nil {
		return nil, fmt.Errorf("failed to get latest manual outbound: %w", err)
	}

	if !ts.Valid {
		return nil, nil
	}

	return &ts.Time, nil
}

// HasInboundSince reports whether the lead replied strictly after the given
// moment. This is half of the engagement check.
func (r *MessageRepository) HasInboundSince(ctx context.Context, leadID int64, since time.Time) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM messages
		WHERE lead_id = ? AND direction = 'inbound' AND created_at > ?
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, leadID, since); err != nil {
		return false, fmt.Errorf("failed to check inbound since: %w", err)
	}

	return count > 0, nil
}

// ListRecent returns the last n messages for a lead, newest first.
func (r *MessageRepository) ListRecent(ctx context.Context, leadID int64, n int) ([]domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE lead_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	var messages []domain.Message
	if err := r.db.SelectContext(ctx, &messages, query, leadID, n); err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}

	return messages, nil
}
