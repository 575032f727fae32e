package model

import (
	"time"

	"github.com/google/uuid"
)

type AllocationStatus string

const (
	AllocationStatusPending  AllocationStatus = "pending"
	AllocationStatusAccepted AllocationStatus = "accepted"
	AllocationStatusRejected AllocationStatus = "rejected"
	AllocationStatusExpired  AllocationStatus = "expired"
)

// Terminal reports whether the allocation can no longer change state.
// Every status except pending is terminal.
func (s AllocationStatus) Terminal() bool {
	return s != AllocationStatusPending
}

type AllocationDecision string

const (
	AllocationDecisionAccept AllocationDecision = "accept"
	AllocationDecisionReject AllocationDecision = "reject"
)

// Allocation is a time-bounded offer of one organ to one recipient.
// At most one pending allocation may exist per organ.
type Allocation struct {
	Base
	OrganID          uuid.UUID        `db:"organ_id" json:"organ_id"`
	RecipientID      uuid.UUID        `db:"recipient_id" json:"recipient_id"`
	AllocatedAt      time.Time        `db:"allocated_at" json:"allocated_at"`
	MatchScore       float64          `db:"match_score" json:"match_score"`
	Status           AllocationStatus `db:"status" json:"status"`
	ResponseDeadline time.Time        `db:"response_deadline" json:"response_deadline"`
	RespondedAt      *time.Time       `db:"responded_at" json:"responded_at,omitempty"`
}

// DeadlinePassed reports whether the response window has closed.
func (a *Allocation) DeadlinePassed(now time.Time) bool {
	return now.After(a.ResponseDeadline)
}

type RequestAllocationRequest struct {
	OrganID     uuid.UUID `json:"organ_id" validate:"required"`
	RecipientID uuid.UUID `json:"recipient_id" validate:"required"`
}

type RespondToAllocationRequest struct {
	Decision AllocationDecision `json:"decision" validate:"required,oneof=accept reject"`
}

type AllocationFilters struct {
	OrganID     uuid.UUID
	RecipientID uuid.UUID
	Status      AllocationStatus
}

// MatchCandidate is one scored row of a matcher pass, ordered by score
// descending with earlier list dates breaking ties.
type MatchCandidate struct {
	RecipientID    uuid.UUID `json:"recipient_id"`
	RecipientName  string    `json:"recipient_name"`
	RecipientBlood BloodType `json:"recipient_blood"`
	UrgencyLevel   int       `json:"urgency_level"`
	DaysWaiting    int       `json:"days_waiting"`
	PriorityScore  float64   `json:"priority_score"`
	MatchScore     float64   `json:"match_score"`
	ListedAt       time.Time `json:"listed_at"`
}
