package model

import (
	"time"

	"github.com/google/uuid"
)

type OrganStatus string

const (
	OrganStatusAvailable    OrganStatus = "available"
	OrganStatusAllocated    OrganStatus = "allocated"
	OrganStatusTransplanted OrganStatus = "transplanted"
	OrganStatusExpired      OrganStatus = "expired"
)

// Terminal reports whether no further transition out of s is permitted.
func (s OrganStatus) Terminal() bool {
	return s == OrganStatusTransplanted || s == OrganStatusExpired
}

// OrganType is immutable reference data describing viability limits per organ.
type OrganType struct {
	Name                string `db:"name" json:"name"`
	TypicalViabilityHrs int    `db:"typical_viability_hours" json:"typical_viability_hours"`
	MaxColdIschemiaHrs  int    `db:"max_cold_ischemia_hours" json:"max_cold_ischemia_hours"`
	Description         string `db:"description" json:"description,omitempty"`
	SpecialRequirements string `db:"special_requirements" json:"special_requirements,omitempty"`
}

type Organ struct {
	Base
	TypeName     string      `db:"type_name" json:"type_name"`
	DonorID      uuid.UUID   `db:"donor_id" json:"donor_id"`
	HLAType      string      `db:"hla_type" json:"hla_type,omitempty"`
	ProcuredAt   time.Time   `db:"procured_at" json:"procured_at"`
	SizeWeightKg float64     `db:"size_weight_kg" json:"size_weight_kg,omitempty"`
	Status       OrganStatus `db:"status" json:"status"`
	DonorBlood   BloodType   `db:"donor_blood" json:"donor_blood,omitempty"`
}

type RecordProcurementRequest struct {
	DonorID      uuid.UUID `json:"donor_id" validate:"required"`
	TypeName     string    `json:"type_name" validate:"required"`
	ProcuredAt   time.Time `json:"procured_at" validate:"required"`
	HLAType      string    `json:"hla_type" validate:"max=50"`
	SizeWeightKg float64   `json:"size_weight_kg" validate:"gte=0"`
}

// ViabilityStatus classifies how much usable lifetime an organ has left.
type ViabilityStatus string

const (
	ViabilityExpired  ViabilityStatus = "expired"
	ViabilityCritical ViabilityStatus = "critical"
	ViabilityUrgent   ViabilityStatus = "urgent"
	ViabilityNormal   ViabilityStatus = "normal"
)

// ViabilityReport is the result of evaluating an organ's remaining lifetime
// at a given instant. It is recomputed on every read.
type ViabilityReport struct {
	ElapsedHours   float64         `json:"elapsed_hours"`
	RemainingHours float64         `json:"remaining_hours"`
	MaxHours       int             `json:"max_hours"`
	Percentage     float64         `json:"viability_percentage"`
	Status         ViabilityStatus `json:"viability_status"`
	EvaluatedAt    time.Time       `json:"evaluated_at"`
}

// OrganWithViability pairs an organ with its viability evaluated at read time.
type OrganWithViability struct {
	Organ     *Organ          `json:"organ"`
	Viability ViabilityReport `json:"viability"`
}
