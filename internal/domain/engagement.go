package domain

import "time"

type EngagementStatus string

const (
	EngagementActive  EngagementStatus = "active"
	EngagementPaused  EngagementStatus = "paused"
	EngagementStopped EngagementStatus = "stopped"
)

type PauseReason string

const (
	PauseReasonSystemRule    PauseReason = "system_rule"
	PauseReasonSalesFollowUp PauseReason = "sales_followup"
	PauseReasonManual        PauseReason = "manual"
)

// EngagementState is the authoritative per-lead nurturing record. At most one
// row per lead; a lead without a row was never enrolled. Only the nurture
// service and the manual pause/resume endpoints write it.
type EngagementState struct {
	ID               int64            `db:"id" json:"id"`
	LeadID           int64            `db:"lead_id" json:"leadId"`
	Status           EngagementStatus `db:"status" json:"status"`
	PlanID           *int64           `db:"plan_id" json:"planId,omitempty"`
	CurrentStepIndex int              `db:"current_step_index" json:"currentStepIndex"`
	StartedAt        *time.Time       `db:"started_at" json:"startedAt,omitempty"`
	LastSentAt       *time.Time       `db:"last_sent_at" json:"lastSentAt,omitempty"`
	PausedAt         *time.Time       `db:"paused_at" json:"pausedAt,omitempty"`
	PauseReason      *PauseReason     `db:"pause_reason" json:"pauseReason,omitempty"`
	ManualPaused     bool             `db:"manual_paused" json:"manualPaused"`
	NextSendAt       *time.Time       `db:"next_send_at" json:"nextSendAt,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updatedAt"`
}

// SendCommit describes one completed nurture send to be committed as a
// single atomic unit: outbound message record, automated follow-up entry and
// the state advance.
type SendCommit struct {
	LeadID            int64
	StepOrder         int
	Content           string
	ExternalMessageID string
	DedupKey          string
	Note              string
	SentAt            time.Time
	SequenceComplete  bool
}

// TickError is one lead's failure inside an otherwise successful tick.
type TickError struct {
	LeadID int64  `json:"leadId"`
	Reason string `json:"reason"`
}

// TickResult is the aggregate outcome of one nurture tick.
type TickResult struct {
	Processed int         `json:"processed"`
	SentCount int         `json:"sentCount"`
	Resumed   int         `json:"resumed"`
	Paused    int         `json:"paused"`
	Errors    []TickError `json:"errors"`
}
