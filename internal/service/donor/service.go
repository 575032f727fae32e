package donor

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
	"github.com/jwalitptl/transplant-api/internal/repository"
	"github.com/jwalitptl/transplant-api/internal/service/audit"
	"github.com/jwalitptl/transplant-api/pkg/errors"
)

type Service struct {
	repo    repository.DonorRepository
	auditor *audit.Service
}

func NewService(repo repository.DonorRepository, auditor *audit.Service) *Service {
	return &Service{repo: repo, auditor: auditor}
}

func (s *Service) Register(ctx context.Context, req *model.CreateDonorRequest) (*model.Donor, error) {
	// Deceased donors carry a cause of death, living donors never do.
	switch model.DonorKind(req.Kind) {
	case model.DonorKindDeceased:
		if req.CauseOfDeath == nil || *req.CauseOfDeath == "" {
			return nil, errors.NewBadRequest("deceased donor requires a cause of death", nil)
		}
	case model.DonorKindLiving:
		if req.CauseOfDeath != nil {
			return nil, errors.NewBadRequest("living donor cannot carry a cause of death", nil)
		}
	}

	donor := &model.Donor{
		Base:                 model.Base{ID: uuid.New()},
		Name:                 req.Name,
		DateOfBirth:          req.DateOfBirth,
		BloodType:            model.BloodType(req.BloodType),
		Kind:                 model.DonorKind(req.Kind),
		MedicalHistory:       req.MedicalHistory,
		CauseOfDeath:         req.CauseOfDeath,
		RegistrationDate:     time.Now(),
		MedicalClearanceDate: req.MedicalClearanceDate,
		Status:               model.DonorStatusActive,
		ContactInfo:          req.ContactInfo,
	}
	if donor.Kind == model.DonorKindDeceased {
		donor.Status = model.DonorStatusDeceased
	}

	if err := s.repo.Create(ctx, donor); err != nil {
		return nil, errors.NewStorageFailure(err)
	}

	_ = s.auditor.Log(ctx, model.AuditActionCreate, model.AuditEntityDonor, donor.ID, &audit.LogOptions{
		Changes: map[string]interface{}{"name": donor.Name, "kind": donor.Kind},
	})
	return donor, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Donor, error) {
	donor, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("donor", err)
		}
		return nil, errors.NewStorageFailure(err)
	}
	return donor, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateDonorRequest) (*model.Donor, error) {
	donor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		donor.Status = *req.Status
	}
	if req.ContactInfo != nil {
		donor.ContactInfo = *req.ContactInfo
	}
	if req.MedicalHistory != nil {
		donor.MedicalHistory = *req.MedicalHistory
	}

	if err := s.repo.Update(ctx, donor); err != nil {
		return nil, errors.NewStorageFailure(err)
	}

	_ = s.auditor.Log(ctx, model.AuditActionStatusChange, model.AuditEntityDonor, donor.ID, &audit.LogOptions{
		Changes: req,
	})
	return donor, nil
}

func (s *Service) List(ctx context.Context, status model.DonorStatus) ([]*model.Donor, error) {
	donors, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	return donors, nil
}
