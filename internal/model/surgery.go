package model

import (
	"time"

	"github.com/google/uuid"
)

type SurgeryOutcome string

const (
	SurgeryOutcomeScheduled     SurgeryOutcome = "scheduled"
	SurgeryOutcomeSuccess       SurgeryOutcome = "success"
	SurgeryOutcomeComplications SurgeryOutcome = "complications"
	SurgeryOutcomeFailure       SurgeryOutcome = "failure"
)

// Surgery consumes an accepted allocation. Creating one drives the organ and
// the recipient to transplanted and schedules the first follow-up visit.
type Surgery struct {
	Base
	HospitalID    uuid.UUID      `db:"hospital_id" json:"hospital_id"`
	OrganID       uuid.UUID      `db:"organ_id" json:"organ_id"`
	RecipientID   uuid.UUID      `db:"recipient_id" json:"recipient_id"`
	SurgeonID     uuid.UUID      `db:"surgeon_id" json:"surgeon_id"`
	ScheduledAt   time.Time      `db:"scheduled_at" json:"scheduled_at"`
	DurationHours float64        `db:"duration_hours" json:"duration_hours,omitempty"`
	Outcome       SurgeryOutcome `db:"outcome" json:"outcome"`
	Notes         string         `db:"notes" json:"notes,omitempty"`
	Complications string         `db:"complications" json:"complications,omitempty"`
}

type ScheduleSurgeryRequest struct {
	OrganID     uuid.UUID `json:"organ_id" validate:"required"`
	RecipientID uuid.UUID `json:"recipient_id" validate:"required"`
	HospitalID  uuid.UUID `json:"hospital_id" validate:"required"`
	SurgeonID   uuid.UUID `json:"surgeon_id" validate:"required"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Notes       string    `json:"notes" validate:"max=1000"`
}

// FollowUpAppointment is the first post-transplant visit, auto-created when a
// surgery is scheduled.
type FollowUpAppointment struct {
	Base
	SurgeryID       uuid.UUID  `db:"surgery_id" json:"surgery_id"`
	RecipientID     uuid.UUID  `db:"recipient_id" json:"recipient_id"`
	SurgeonID       uuid.UUID  `db:"surgeon_id" json:"surgeon_id"`
	ScheduledAt     time.Time  `db:"scheduled_at" json:"scheduled_at"`
	LabResults      string     `db:"lab_results" json:"lab_results,omitempty"`
	Notes           string     `db:"notes" json:"notes,omitempty"`
	NextAppointment *time.Time `db:"next_appointment" json:"next_appointment,omitempty"`
}
