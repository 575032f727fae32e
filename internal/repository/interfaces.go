package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
)

// TxManager runs a function inside a single database transaction. The
// transaction is carried in the context; repository methods called with that
// context join it. The whole function either commits or rolls back, which is
// what gives multi-table transitions their atomicity.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// All repository interfaces in one file
type (
	DonorRepository interface {
		Create(ctx context.Context, donor *model.Donor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Donor, error)
		Update(ctx context.Context, donor *model.Donor) error
		List(ctx context.Context, status model.DonorStatus) ([]*model.Donor, error)
	}

	RecipientRepository interface {
		Create(ctx context.Context, recipient *model.Recipient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Recipient, error)
		// GetForUpdate locks the recipient row for the life of the enclosing
		// transaction.
		GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Recipient, error)
		Update(ctx context.Context, recipient *model.Recipient) error
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.RecipientStatus) error
		List(ctx context.Context, status model.RecipientStatus) ([]*model.Recipient, error)
		ListCritical(ctx context.Context, minUrgency int) ([]*model.CriticalRecipient, error)
		WaitTimeStats(ctx context.Context) ([]*model.WaitTimeStats, error)
	}

	OrganTypeRepository interface {
		Get(ctx context.Context, name string) (*model.OrganType, error)
		List(ctx context.Context) ([]*model.OrganType, error)
	}

	OrganRepository interface {
		Create(ctx context.Context, organ *model.Organ) error
		Get(ctx context.Context, id uuid.UUID) (*model.Organ, error)
		// GetForUpdate locks the organ row, serializing allocation requests
		// for the same organ.
		GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Organ, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrganStatus) error
		ListByStatus(ctx context.Context, statuses ...model.OrganStatus) ([]*model.Organ, error)
	}

	WaitlistRepository interface {
		Create(ctx context.Context, entry *model.WaitlistEntry) error
		Get(ctx context.Context, id uuid.UUID) (*model.WaitlistEntry, error)
		GetByRecipientAndType(ctx context.Context, recipientID uuid.UUID, typeName string) (*model.WaitlistEntry, error)
		GetForUpdate(ctx context.Context, recipientID uuid.UUID, typeName string) (*model.WaitlistEntry, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.WaitlistStatus) error
		UpdatePriority(ctx context.Context, id uuid.UUID, score float64) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.WaitlistFilters) ([]*model.WaitlistEntryDetail, error)
		// ListEligibleForMatch returns waiting entries of the given organ type
		// whose recipient is still waiting.
		ListEligibleForMatch(ctx context.Context, typeName string) ([]*model.WaitlistEntryDetail, error)
		ListOpenByRecipient(ctx context.Context, recipientID uuid.UUID) ([]*model.WaitlistEntry, error)
	}

	AllocationRepository interface {
		Create(ctx context.Context, allocation *model.Allocation) error
		Get(ctx context.Context, id uuid.UUID) (*model.Allocation, error)
		GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Allocation, error)
		GetPendingByOrgan(ctx context.Context, organID uuid.UUID) (*model.Allocation, error)
		GetAcceptedByOrganAndRecipient(ctx context.Context, organID, recipientID uuid.UUID) (*model.Allocation, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AllocationStatus, respondedAt *time.Time) error
		List(ctx context.Context, filters *model.AllocationFilters) ([]*model.Allocation, error)
		// ListExpiredPending returns pending allocations whose response
		// deadline passed before now.
		ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*model.Allocation, error)
	}

	SurgeryRepository interface {
		Create(ctx context.Context, surgery *model.Surgery) error
		Get(ctx context.Context, id uuid.UUID) (*model.Surgery, error)
		List(ctx context.Context) ([]*model.Surgery, error)
		HospitalStats(ctx context.Context) ([]*model.HospitalStats, error)
	}

	HospitalRepository interface {
		Create(ctx context.Context, hospital *model.Hospital) error
		Get(ctx context.Context, id uuid.UUID) (*model.Hospital, error)
		List(ctx context.Context) ([]*model.Hospital, error)
		HasCapability(ctx context.Context, hospitalID uuid.UUID, typeName string) (bool, error)
		AddCapability(ctx context.Context, capability *model.HospitalCapability) error
	}

	SurgeonRepository interface {
		Create(ctx context.Context, surgeon *model.Surgeon) error
		Get(ctx context.Context, id uuid.UUID) (*model.Surgeon, error)
		ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*model.Surgeon, error)
	}

	FollowUpRepository interface {
		Create(ctx context.Context, appointment *model.FollowUpAppointment) error
		ListUpcoming(ctx context.Context, from time.Time) ([]*model.FollowUpAppointment, error)
		ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]*model.FollowUpAppointment, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error)
		DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}

	StatsRepository interface {
		Dashboard(ctx context.Context) (*model.DashboardStats, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
