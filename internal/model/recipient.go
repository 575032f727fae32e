package model

import (
	"time"
)

type RecipientStatus string

const (
	RecipientStatusWaiting      RecipientStatus = "waiting"
	RecipientStatusTransplanted RecipientStatus = "transplanted"
	RecipientStatusInactive     RecipientStatus = "inactive"
	RecipientStatusDeceased     RecipientStatus = "deceased"
)

// Urgency bounds for Recipient.UrgencyLevel.
const (
	MinUrgencyLevel = 1
	MaxUrgencyLevel = 5
)

type Recipient struct {
	Base
	Name             string          `db:"name" json:"name"`
	DateOfBirth      time.Time       `db:"date_of_birth" json:"date_of_birth"`
	BloodType        BloodType       `db:"blood_type" json:"blood_type"`
	PrimaryDiagnosis string          `db:"primary_diagnosis" json:"primary_diagnosis,omitempty"`
	MedicalHistory   string          `db:"medical_history" json:"medical_history,omitempty"`
	UrgencyLevel     int             `db:"urgency_level" json:"urgency_level"`
	RegistrationDate time.Time       `db:"registration_date" json:"registration_date"`
	Status           RecipientStatus `db:"status" json:"status"`
	ContactInfo      string          `db:"contact_info" json:"contact_info,omitempty"`
	Email            string          `db:"email" json:"email,omitempty"`
}

type CreateRecipientRequest struct {
	Name             string    `json:"name" validate:"required,max=100"`
	DateOfBirth      time.Time `json:"date_of_birth" validate:"required"`
	BloodType        string    `json:"blood_type" validate:"required,oneof=O- O+ A- A+ B- B+ AB- AB+"`
	PrimaryDiagnosis string    `json:"primary_diagnosis" validate:"max=255"`
	MedicalHistory   string    `json:"medical_history" validate:"max=1000"`
	UrgencyLevel     int       `json:"urgency_level" validate:"required,min=1,max=5"`
	ContactInfo      string    `json:"contact_info" validate:"max=255"`
	Email            string    `json:"email" validate:"omitempty,email"`
}

// UpdateRecipientRequest carries coordinator edits. Status transplanted is not
// accepted here; it is set only as a side effect of a completed surgery.
type UpdateRecipientRequest struct {
	UrgencyLevel *int             `json:"urgency_level" validate:"omitempty,min=1,max=5"`
	Status       *RecipientStatus `json:"status" validate:"omitempty,oneof=waiting inactive deceased"`
	ContactInfo  *string          `json:"contact_info"`
	Email        *string          `json:"email" validate:"omitempty,email"`
}

// CriticalRecipient is a reporting row for waiting recipients at high urgency.
type CriticalRecipient struct {
	RecipientID   string    `db:"recipient_id" json:"recipient_id"`
	Name          string    `db:"name" json:"name"`
	BloodType     BloodType `db:"blood_type" json:"blood_type"`
	UrgencyLevel  int       `db:"urgency_level" json:"urgency_level"`
	OrganType     string    `db:"organ_type" json:"organ_type"`
	PriorityScore float64   `db:"priority_score" json:"priority_score"`
	DaysWaiting   int       `db:"days_waiting" json:"days_waiting"`
}

// WaitTimeStats is a reporting row aggregating wait time per organ type and
// blood type.
type WaitTimeStats struct {
	OrganType      string    `db:"organ_type" json:"organ_type"`
	BloodType      BloodType `db:"blood_type" json:"blood_type"`
	AvgWaitDays    float64   `db:"avg_wait_days" json:"avg_wait_days"`
	MinWaitDays    int       `db:"min_wait_days" json:"min_wait_days"`
	MaxWaitDays    int       `db:"max_wait_days" json:"max_wait_days"`
	RecipientCount int       `db:"recipient_count" json:"recipient_count"`
}
