package model

import (
	"time"
)

type DonorKind string

const (
	DonorKindLiving   DonorKind = "living"
	DonorKindDeceased DonorKind = "deceased"
)

type DonorStatus string

const (
	DonorStatusActive     DonorStatus = "active"
	DonorStatusDeceased   DonorStatus = "deceased"
	DonorStatusIneligible DonorStatus = "ineligible"
)

type Donor struct {
	Base
	Name                 string      `db:"name" json:"name"`
	DateOfBirth          time.Time   `db:"date_of_birth" json:"date_of_birth"`
	BloodType            BloodType   `db:"blood_type" json:"blood_type"`
	Kind                 DonorKind   `db:"kind" json:"kind"`
	MedicalHistory       string      `db:"medical_history" json:"medical_history,omitempty"`
	CauseOfDeath         *string     `db:"cause_of_death" json:"cause_of_death,omitempty"`
	RegistrationDate     time.Time   `db:"registration_date" json:"registration_date"`
	MedicalClearanceDate *time.Time  `db:"medical_clearance_date" json:"medical_clearance_date,omitempty"`
	Status               DonorStatus `db:"status" json:"status"`
	ContactInfo          string      `db:"contact_info" json:"contact_info,omitempty"`
}

// EligibleForProcurement reports whether organs may be procured from this
// donor: active or deceased status with a recorded medical clearance.
func (d *Donor) EligibleForProcurement() bool {
	if d.Status != DonorStatusActive && d.Status != DonorStatusDeceased {
		return false
	}
	return d.MedicalClearanceDate != nil
}

type CreateDonorRequest struct {
	Name                 string     `json:"name" validate:"required,max=100"`
	DateOfBirth          time.Time  `json:"date_of_birth" validate:"required"`
	BloodType            string     `json:"blood_type" validate:"required,oneof=O- O+ A- A+ B- B+ AB- AB+"`
	Kind                 string     `json:"kind" validate:"required,oneof=living deceased"`
	MedicalHistory       string     `json:"medical_history" validate:"max=1000"`
	CauseOfDeath         *string    `json:"cause_of_death" validate:"required_if=Kind deceased,excluded_if=Kind living"`
	MedicalClearanceDate *time.Time `json:"medical_clearance_date"`
	ContactInfo          string     `json:"contact_info" validate:"max=255"`
}

type UpdateDonorRequest struct {
	Status         *DonorStatus `json:"status"`
	ContactInfo    *string      `json:"contact_info"`
	MedicalHistory *string      `json:"medical_history"`
}
