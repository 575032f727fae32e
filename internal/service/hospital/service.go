package hospital

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
	"github.com/jwalitptl/transplant-api/internal/repository"
	"github.com/jwalitptl/transplant-api/internal/service/audit"
	"github.com/jwalitptl/transplant-api/pkg/errors"
)

// Service manages transplant centers, their declared organ capabilities and
// affiliated surgeons.
type Service struct {
	hospitals  repository.HospitalRepository
	surgeons   repository.SurgeonRepository
	organTypes repository.OrganTypeRepository
	surgeries  repository.SurgeryRepository
	auditor    *audit.Service
}

func NewService(
	hospitals repository.HospitalRepository,
	surgeons repository.SurgeonRepository,
	organTypes repository.OrganTypeRepository,
	surgeries repository.SurgeryRepository,
	auditor *audit.Service,
) *Service {
	return &Service{
		hospitals:  hospitals,
		surgeons:   surgeons,
		organTypes: organTypes,
		surgeries:  surgeries,
		auditor:    auditor,
	}
}

func (s *Service) Register(ctx context.Context, req *model.CreateHospitalRequest) (*model.Hospital, error) {
	hospital := &model.Hospital{
		Base:           model.Base{ID: uuid.New()},
		Name:           req.Name,
		Address:        req.Address,
		City:           req.City,
		Phone:          req.Phone,
		TraumaLevel:    req.TraumaLevel,
		OPOAffiliation: req.OPOAffiliation,
	}
	if err := s.hospitals.Create(ctx, hospital); err != nil {
		return nil, errors.NewStorageFailure(err)
	}

	_ = s.auditor.Log(ctx, model.AuditActionCreate, model.AuditEntityHospital, hospital.ID, &audit.LogOptions{
		Changes: map[string]interface{}{"name": hospital.Name},
	})
	return hospital, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Hospital, error) {
	hospital, err := s.hospitals.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("hospital", err)
		}
		return nil, errors.NewStorageFailure(err)
	}
	return hospital, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Hospital, error) {
	hospitals, err := s.hospitals.List(ctx)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	return hospitals, nil
}

// AddCapability declares that a hospital can transplant one organ type. The
// type must exist in the catalog.
func (s *Service) AddCapability(ctx context.Context, hospitalID uuid.UUID, typeName string) error {
	if _, err := s.Get(ctx, hospitalID); err != nil {
		return err
	}
	if _, err := s.organTypes.Get(ctx, typeName); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewNotFound("organ type", err)
		}
		return errors.NewStorageFailure(err)
	}

	err := s.hospitals.AddCapability(ctx, &model.HospitalCapability{
		HospitalID: hospitalID,
		TypeName:   typeName,
	})
	if err != nil {
		return errors.NewStorageFailure(err)
	}
	return nil
}

func (s *Service) RegisterSurgeon(ctx context.Context, hospitalID uuid.UUID, req *model.CreateSurgeonRequest) (*model.Surgeon, error) {
	if _, err := s.Get(ctx, hospitalID); err != nil {
		return nil, err
	}

	surgeon := &model.Surgeon{
		Base:               model.Base{ID: uuid.New()},
		HospitalID:         hospitalID,
		Name:               req.Name,
		Specialization:     model.SurgeonSpecialization(req.Specialization),
		LicenseNumber:      req.LicenseNumber,
		CertificationDate:  req.CertificationDate,
		CertificationLevel: req.CertificationLevel,
		Email:              req.Email,
	}
	if err := s.surgeons.Create(ctx, surgeon); err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	return surgeon, nil
}

func (s *Service) ListSurgeons(ctx context.Context, hospitalID uuid.UUID) ([]*model.Surgeon, error) {
	surgeons, err := s.surgeons.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	return surgeons, nil
}

func (s *Service) ListSurgeries(ctx context.Context) ([]*model.Surgery, error) {
	surgeries, err := s.surgeries.List(ctx)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	return surgeries, nil
}

// Stats reports surgery counts and success rates per hospital.
func (s *Service) Stats(ctx context.Context) ([]*model.HospitalStats, error) {
	stats, err := s.surgeries.HospitalStats(ctx)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	return stats, nil
}
