package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
)

func (r *hospitalRepository) Create(ctx context.Context, hospital *model.Hospital) error {
	query := `
		INSERT INTO hospitals (
			id, name, address, city, phone, trauma_level, opo_affiliation,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	hospital.CreatedAt = time.Now()
	hospital.UpdatedAt = time.Now()

	_, err := ext(ctx, r.db).ExecContext(ctx, query,
		hospital.ID,
		hospital.Name,
		hospital.Address,
		hospital.City,
		hospital.Phone,
		hospital.TraumaLevel,
		hospital.OPOAffiliation,
		hospital.CreatedAt,
		hospital.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create hospital: %w", err)
	}
	return nil
}

func (r *hospitalRepository) Get(ctx context.Context, id uuid.UUID) (*model.Hospital, error) {
	query := `
		SELECT id, name, address, city, phone, trauma_level, opo_affiliation,
			   created_at, updated_at
		FROM hospitals
		WHERE id = $1
	`
	var hospital model.Hospital
	if err := ext(ctx, r.db).GetContext(ctx, &hospital, query, id); err != nil {
		return nil, fmt.Errorf("failed to get hospital: %w", err)
	}
	return &hospital, nil
}

func (r *hospitalRepository) List(ctx context.Context) ([]*model.Hospital, error) {
	query := `
		SELECT id, name, address, city, phone, trauma_level, opo_affiliation,
			   created_at, updated_at
		FROM hospitals
		ORDER BY name ASC
	`
	var hospitals []*model.Hospital
	if err := ext(ctx, r.db).SelectContext(ctx, &hospitals, query); err != nil {
		return nil, fmt.Errorf("failed to list hospitals: %w", err)
	}
	return hospitals, nil
}

func (r *hospitalRepository) HasCapability(ctx context.Context, hospitalID uuid.UUID, typeName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM hospital_capabilities
			WHERE hospital_id = $1 AND type_name = $2
		)
	`
	var capable bool
	if err := ext(ctx, r.db).GetContext(ctx, &capable, query, hospitalID, typeName); err != nil {
		return false, fmt.Errorf("failed to check hospital capability: %w", err)
	}
	return capable, nil
}

func (r *hospitalRepository) AddCapability(ctx context.Context, capability *model.HospitalCapability) error {
	query := `
		INSERT INTO hospital_capabilities (hospital_id, type_name)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	_, err := ext(ctx, r.db).ExecContext(ctx, query, capability.HospitalID, capability.TypeName)
	if err != nil {
		return fmt.Errorf("failed to add hospital capability: %w", err)
	}
	return nil
}
