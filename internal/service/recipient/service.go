package recipient

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
	"github.com/jwalitptl/transplant-api/internal/repository"
	"github.com/jwalitptl/transplant-api/internal/service/audit"
	"github.com/jwalitptl/transplant-api/internal/service/priority"
	"github.com/jwalitptl/transplant-api/pkg/errors"
)

// Service manages transplant candidates. Urgency changes ripple into the
// priority scores of every open waitlist entry the recipient holds.
type Service struct {
	tx        repository.TxManager
	repo      repository.RecipientRepository
	followUps repository.FollowUpRepository
	priority  *priority.Engine
	auditor   *audit.Service
}

func NewService(tx repository.TxManager, repo repository.RecipientRepository, followUps repository.FollowUpRepository, priorityEngine *priority.Engine, auditor *audit.Service) *Service {
	return &Service{
		tx:        tx,
		repo:      repo,
		followUps: followUps,
		priority:  priorityEngine,
		auditor:   auditor,
	}
}

func (s *Service) Register(ctx context.Context, req *model.CreateRecipientRequest) (*model.Recipient, error) {
	recipient := &model.Recipient{
		Base:             model.Base{ID: uuid.New()},
		Name:             req.Name,
		DateOfBirth:      req.DateOfBirth,
		BloodType:        model.BloodType(req.BloodType),
		PrimaryDiagnosis: req.PrimaryDiagnosis,
		MedicalHistory:   req.MedicalHistory,
		UrgencyLevel:     req.UrgencyLevel,
		RegistrationDate: time.Now(),
		Status:           model.RecipientStatusWaiting,
		ContactInfo:      req.ContactInfo,
		Email:            req.Email,
	}

	if err := s.repo.Create(ctx, recipient); err != nil {
		return nil, errors.NewStorageFailure(err)
	}

	_ = s.auditor.Log(ctx, model.AuditActionCreate, model.AuditEntityRecipient, recipient.ID, &audit.LogOptions{
		Changes: map[string]interface{}{"name": recipient.Name, "urgency_level": recipient.UrgencyLevel},
	})
	return recipient, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Recipient, error) {
	recipient, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("recipient", err)
		}
		return nil, errors.NewStorageFailure(err)
	}
	return recipient, nil
}

// Update applies coordinator edits. A transplanted recipient is terminal and
// cannot be edited; an urgency change recomputes every open waitlist entry in
// the same transaction.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateRecipientRequest) (*model.Recipient, error) {
	var recipient *model.Recipient

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		recipient, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			if stderrors.Is(err, sql.ErrNoRows) {
				return errors.NewNotFound("recipient", err)
			}
			return errors.NewStorageFailure(err)
		}
		if recipient.Status == model.RecipientStatusTransplanted {
			return errors.NewPrecondition(errors.ErrTerminalStateViolation, "recipient has been transplanted", map[string]interface{}{
				"recipient_id": recipient.ID,
			})
		}

		urgencyChanged := false
		if req.UrgencyLevel != nil && *req.UrgencyLevel != recipient.UrgencyLevel {
			recipient.UrgencyLevel = *req.UrgencyLevel
			urgencyChanged = true
		}
		if req.Status != nil {
			recipient.Status = *req.Status
		}
		if req.ContactInfo != nil {
			recipient.ContactInfo = *req.ContactInfo
		}
		if req.Email != nil {
			recipient.Email = *req.Email
		}

		if err := s.repo.Update(ctx, recipient); err != nil {
			return errors.NewStorageFailure(err)
		}

		if urgencyChanged {
			if err := s.priority.RecomputeAllForRecipient(ctx, recipient.ID); err != nil {
				return err
			}
		}

		return s.auditor.Log(ctx, model.AuditActionStatusChange, model.AuditEntityRecipient, recipient.ID, &audit.LogOptions{
			Changes: req,
		})
	})
	if err != nil {
		return nil, err
	}
	return recipient, nil
}

func (s *Service) List(ctx context.Context, status model.RecipientStatus) ([]*model.Recipient, error) {
	recipients, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	return recipients, nil
}

// ListCritical reports waiting recipients at or above the urgency floor,
// ordered by priority.
func (s *Service) ListCritical(ctx context.Context, minUrgency int) ([]*model.CriticalRecipient, error) {
	rows, err := s.repo.ListCritical(ctx, minUrgency)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	return rows, nil
}

// ListFollowUps returns the recipient's post-transplant appointments.
func (s *Service) ListFollowUps(ctx context.Context, recipientID uuid.UUID) ([]*model.FollowUpAppointment, error) {
	appointments, err := s.followUps.ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	return appointments, nil
}

// WaitTimeStats aggregates wait time per organ type and blood group.
func (s *Service) WaitTimeStats(ctx context.Context) ([]*model.WaitTimeStats, error) {
	rows, err := s.repo.WaitTimeStats(ctx)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	return rows, nil
}
