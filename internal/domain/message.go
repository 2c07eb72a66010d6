package domain

import "time"

type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Message is the audit record of one inbound or attempted outbound message.
// Outbound rows are created before the gateway call and updated after, so a
// crash between the two leaves a visible pending row rather than nothing.
type Message struct {
	ID                int64            `db:"id" json:"id"`
	LeadID            int64            `db:"lead_id" json:"leadId"`
	Direction         MessageDirection `db:"direction" json:"direction"`
	Channel           string           `db:"channel" json:"channel"`
	Content           string           `db:"content" json:"content"`
	ExternalMessageID *string          `db:"external_message_id" json:"externalMessageId,omitempty"`
	DeliveryStatus    DeliveryStatus   `db:"delivery_status" json:"deliveryStatus"`
	DedupKey          *string          `db:"dedup_key" json:"dedupKey,omitempty"`
	IsAutomated       bool             `db:"is_automated" json:"isAutomated"`
	SentAt            *time.Time       `db:"sent_at" json:"sentAt,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updatedAt"`
}

// FollowUp is a staff (or automated) touch on a lead. Manual follow-ups are
// an engagement signal; automated ones are the nurture audit trail.
type FollowUp struct {
	ID          int64     `db:"id" json:"id"`
	LeadID      int64     `db:"lead_id" json:"leadId"`
	Note        string    `db:"note" json:"note"`
	IsAutomated bool      `db:"is_automated" json:"isAutomated"`
	IsDone      bool      `db:"is_done" json:"isDone"`
	CreatedBy   string    `db:"created_by" json:"createdBy"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
