package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/transplant-api/internal/repository"
)

type donorRepository struct {
	db *sqlx.DB
}

type recipientRepository struct {
	db *sqlx.DB
}

type organTypeRepository struct {
	db *sqlx.DB
}

type organRepository struct {
	db *sqlx.DB
}

type waitlistRepository struct {
	db *sqlx.DB
}

type allocationRepository struct {
	db *sqlx.DB
}

type surgeryRepository struct {
	db *sqlx.DB
}

type hospitalRepository struct {
	db *sqlx.DB
}

type surgeonRepository struct {
	db *sqlx.DB
}

type followUpRepository struct {
	db *sqlx.DB
}

type auditRepository struct {
	db *sqlx.DB
}

type outboxRepository struct {
	db *sqlx.DB
}

type statsRepository struct {
	db *sqlx.DB
}

func NewDonorRepository(db *sqlx.DB) repository.DonorRepository {
	return &donorRepository{db: db}
}

func NewRecipientRepository(db *sqlx.DB) repository.RecipientRepository {
	return &recipientRepository{db: db}
}

func NewOrganTypeRepository(db *sqlx.DB) repository.OrganTypeRepository {
	return &organTypeRepository{db: db}
}

func NewOrganRepository(db *sqlx.DB) repository.OrganRepository {
	return &organRepository{db: db}
}

func NewWaitlistRepository(db *sqlx.DB) repository.WaitlistRepository {
	return &waitlistRepository{db: db}
}

func NewAllocationRepository(db *sqlx.DB) repository.AllocationRepository {
	return &allocationRepository{db: db}
}

func NewSurgeryRepository(db *sqlx.DB) repository.SurgeryRepository {
	return &surgeryRepository{db: db}
}

func NewHospitalRepository(db *sqlx.DB) repository.HospitalRepository {
	return &hospitalRepository{db: db}
}

func NewSurgeonRepository(db *sqlx.DB) repository.SurgeonRepository {
	return &surgeonRepository{db: db}
}

func NewFollowUpRepository(db *sqlx.DB) repository.FollowUpRepository {
	return &followUpRepository{db: db}
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

func NewStatsRepository(db *sqlx.DB) repository.StatsRepository {
	return &statsRepository{db: db}
}
