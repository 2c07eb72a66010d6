package domain

import "time"

type BlastJobStatus string

const (
	BlastJobPending BlastJobStatus = "pending"
	BlastJobRunning BlastJobStatus = "running"
	BlastJobDone    BlastJobStatus = "done"
)

type BlastItemStatus string

const (
	BlastItemPending BlastItemStatus = "pending"
	BlastItemSent    BlastItemStatus = "sent"
	BlastItemFailed  BlastItemStatus = "failed"
)

// BlastJob is one bulk broadcast: a raw template plus N items. Jobs and their
// items are created atomically and only transition status afterwards.
type BlastJob struct {
	ID           int64          `db:"id" json:"id"`
	PublicID     string         `db:"public_id" json:"publicId"`
	Message      string         `db:"message" json:"message"`
	CreatedBy    string         `db:"created_by" json:"createdBy"`
	Status       BlastJobStatus `db:"status" json:"status"`
	SuccessCount int            `db:"success_count" json:"successCount"`
	FailedCount  int            `db:"failed_count" json:"failedCount"`
	TotalItems   int            `db:"total_items" json:"totalItems"`
	StartedAt    *time.Time     `db:"started_at" json:"startedAt,omitempty"`
	FinishedAt   *time.Time     `db:"finished_at" json:"finishedAt,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

// BlastItem is one recipient of a job. Sent and failed are terminal; a failed
// recipient is only retried through a brand-new job.
type BlastItem struct {
	ID        int64           `db:"id" json:"id"`
	JobID     int64           `db:"job_id" json:"jobId"`
	LeadID    int64           `db:"lead_id" json:"leadId"`
	Status    BlastItemStatus `db:"status" json:"status"`
	Error     *string         `db:"error" json:"error,omitempty"`
	MessageID *int64          `db:"message_id" json:"messageId,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}
