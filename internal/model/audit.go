package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog records a state transition side effect: organ status changes,
// allocation responses, surgery cascades. Written in the same transaction as
// the transition it describes.
type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id" db:"entity_id"`
	Changes    json.RawMessage `json:"changes" db:"changes"`
	Metadata   json.RawMessage `json:"metadata" db:"metadata"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

const (
	// Action types
	AuditActionCreate            = "create"
	AuditActionStatusChange      = "status_change"
	AuditActionAllocate          = "allocate"
	AuditActionRespond           = "respond"
	AuditActionExpire            = "expire"
	AuditActionScheduleSurgery   = "schedule_surgery"
	AuditActionPriorityRecompute = "priority_recompute"

	// Entity types
	AuditEntityOrgan      = "organ"
	AuditEntityDonor      = "donor"
	AuditEntityRecipient  = "recipient"
	AuditEntityWaitlist   = "waitlist_entry"
	AuditEntityAllocation = "allocation"
	AuditEntitySurgery    = "surgery"
	AuditEntityHospital   = "hospital"
)
