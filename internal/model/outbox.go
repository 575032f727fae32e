package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Allocation lifecycle event types published through the outbox.
const (
	EventOrganProcured      = "organ.procured"
	EventOrganExpired       = "organ.expired"
	EventOrganStatusChanged = "organ.status_changed"
	EventMatchRunCompleted  = "organ.match_run_completed"
	EventAllocationCreated  = "allocation.created"
	EventAllocationAccepted = "allocation.accepted"
	EventAllocationRejected = "allocation.rejected"
	EventAllocationExpired  = "allocation.expired"
	EventSurgeryScheduled   = "surgery.scheduled"
	EventFollowUpScheduled  = "followup.scheduled"
	EventWaitlistAdded      = "waitlist.added"
	EventWaitlistRemoved    = "waitlist.removed"
	EventPriorityRecomputed = "waitlist.priority_recomputed"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       string          `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
}
