package domain

import "time"

// SequencePlan is an ordered set of delay-gated message slots. Match columns
// are nullable; NULL means "any". The picker prefers the most specific match.
type SequencePlan struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	ProductID  *int64    `db:"product_id" json:"productId,omitempty"`
	SourceID   *int64    `db:"source_id" json:"sourceId,omitempty"`
	StatusCode *string   `db:"status_code" json:"statusCode,omitempty"`
	IsActive   bool      `db:"is_active" json:"isActive"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// SequenceStep orders are 1-based, contiguous and unique within a plan.
type SequenceStep struct {
	ID         int64 `db:"id" json:"id"`
	PlanID     int64 `db:"plan_id" json:"planId"`
	StepOrder  int   `db:"step_order" json:"stepOrder"`
	DelayHours int   `db:"delay_hours" json:"delayHours"`
	TemplateID int64 `db:"template_id" json:"templateId"`
}

type MessageTemplate struct {
	ID       int64   `db:"id" json:"id"`
	Title    string  `db:"title" json:"title"`
	Body     string  `db:"body" json:"body"`
	MediaURL *string `db:"media_url" json:"mediaUrl,omitempty"`
	IsActive bool    `db:"is_active" json:"isActive"`
}

// StepWithTemplate is what the send pass resolves for "the next step".
type StepWithTemplate struct {
	Step     SequenceStep
	Template *MessageTemplate
}
