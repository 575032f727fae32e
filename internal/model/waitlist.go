package model

import (
	"time"

	"github.com/google/uuid"
)

type WaitlistStatus string

const (
	WaitlistStatusWaiting WaitlistStatus = "waiting"
	WaitlistStatusMatched WaitlistStatus = "matched"
	WaitlistStatusRemoved WaitlistStatus = "removed"
)

// WaitlistEntry is a recipient's standing request for one organ type.
// Unique per (recipient, organ type). PriorityScore is computed by the
// priority engine, never set by callers.
type WaitlistEntry struct {
	Base
	RecipientID   uuid.UUID      `db:"recipient_id" json:"recipient_id"`
	TypeName      string         `db:"type_name" json:"type_name"`
	PriorityScore float64        `db:"priority_score" json:"priority_score"`
	ListedAt      time.Time      `db:"listed_at" json:"listed_at"`
	Status        WaitlistStatus `db:"status" json:"status"`
	MELDScore     float64        `db:"meld_score" json:"meld_score,omitempty"`
	CPRAScore     float64        `db:"cpra_score" json:"cpra_score,omitempty"`
}

// DaysWaiting returns full days between the list date and now.
func (e *WaitlistEntry) DaysWaiting(now time.Time) int {
	return int(now.Sub(e.ListedAt).Hours() / 24)
}

type AddToWaitlistRequest struct {
	RecipientID uuid.UUID `json:"recipient_id" validate:"required"`
	TypeName    string    `json:"type_name" validate:"required"`
	MELDScore   float64   `json:"meld_score" validate:"gte=0,lte=100"`
	CPRAScore   float64   `json:"cpra_score" validate:"gte=0,lte=100"`
}

type WaitlistFilters struct {
	TypeName    string
	RecipientID uuid.UUID
	Status      WaitlistStatus
}

// WaitlistEntryDetail joins an entry with its recipient for listings.
type WaitlistEntryDetail struct {
	WaitlistEntry
	RecipientName   string          `db:"recipient_name" json:"recipient_name"`
	RecipientBlood  BloodType       `db:"recipient_blood" json:"recipient_blood"`
	RecipientStatus RecipientStatus `db:"recipient_status" json:"recipient_status"`
	UrgencyLevel    int             `db:"urgency_level" json:"urgency_level"`
}
