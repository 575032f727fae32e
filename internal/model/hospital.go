package model

import (
	"time"

	"github.com/google/uuid"
)

type Hospital struct {
	Base
	Name           string `db:"name" json:"name"`
	Address        string `db:"address" json:"address,omitempty"`
	City           string `db:"city" json:"city,omitempty"`
	Phone          string `db:"phone" json:"phone,omitempty"`
	TraumaLevel    int    `db:"trauma_level" json:"trauma_level,omitempty"`
	OPOAffiliation string `db:"opo_affiliation" json:"opo_affiliation,omitempty"`
}

// HospitalCapability marks a hospital as able to transplant one organ type.
type HospitalCapability struct {
	HospitalID uuid.UUID `db:"hospital_id" json:"hospital_id"`
	TypeName   string    `db:"type_name" json:"type_name"`
}

type SurgeonSpecialization string

const (
	SpecializationTransplantSurgeon SurgeonSpecialization = "transplant_surgeon"
	SpecializationNephrologist      SurgeonSpecialization = "nephrologist"
	SpecializationCardiologist      SurgeonSpecialization = "cardiologist"
	SpecializationHepatologist      SurgeonSpecialization = "hepatologist"
)

// Surgeon is transplant medical staff affiliated with a hospital.
type Surgeon struct {
	Base
	HospitalID         uuid.UUID             `db:"hospital_id" json:"hospital_id"`
	Name               string                `db:"name" json:"name"`
	Specialization     SurgeonSpecialization `db:"specialization" json:"specialization"`
	LicenseNumber      string                `db:"license_number" json:"license_number"`
	CertificationDate  *time.Time            `db:"certification_date" json:"certification_date,omitempty"`
	CertificationLevel string                `db:"certification_level" json:"certification_level,omitempty"`
	Email              string                `db:"email" json:"email,omitempty"`
}

type CreateHospitalRequest struct {
	Name           string `json:"name" validate:"required,max=255"`
	Address        string `json:"address" validate:"max=500"`
	City           string `json:"city" validate:"max=100"`
	Phone          string `json:"phone" validate:"max=50"`
	TraumaLevel    int    `json:"trauma_level" validate:"gte=0,lte=5"`
	OPOAffiliation string `json:"opo_affiliation" validate:"max=255"`
}

type AddCapabilityRequest struct {
	TypeName string `json:"type_name" validate:"required"`
}

type CreateSurgeonRequest struct {
	Name               string     `json:"name" validate:"required,max=255"`
	Specialization     string     `json:"specialization" validate:"required,oneof=transplant_surgeon nephrologist cardiologist hepatologist"`
	LicenseNumber      string     `json:"license_number" validate:"required,max=100"`
	CertificationDate  *time.Time `json:"certification_date"`
	CertificationLevel string     `json:"certification_level" validate:"max=100"`
	Email              string     `json:"email" validate:"omitempty,email"`
}

// HospitalStats is a reporting row for transplant outcomes per hospital.
type HospitalStats struct {
	HospitalID     uuid.UUID `db:"hospital_id" json:"hospital_id"`
	HospitalName   string    `db:"hospital_name" json:"hospital_name"`
	TotalSurgeries int       `db:"total_surgeries" json:"total_surgeries"`
	Successful     int       `db:"successful" json:"successful"`
	SuccessRate    float64   `db:"success_rate" json:"success_rate"`
}
