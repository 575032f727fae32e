package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
)

func (r *surgeonRepository) Create(ctx context.Context, surgeon *model.Surgeon) error {
	query := `
		INSERT INTO surgeons (
			id, hospital_id, name, specialization, license_number,
			certification_date, certification_level, email,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	surgeon.CreatedAt = time.Now()
	surgeon.UpdatedAt = time.Now()

	_, err := ext(ctx, r.db).ExecContext(ctx, query,
		surgeon.ID,
		surgeon.HospitalID,
		surgeon.Name,
		surgeon.Specialization,
		surgeon.LicenseNumber,
		surgeon.CertificationDate,
		surgeon.CertificationLevel,
		surgeon.Email,
		surgeon.CreatedAt,
		surgeon.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create surgeon: %w", err)
	}
	return nil
}

func (r *surgeonRepository) Get(ctx context.Context, id uuid.UUID) (*model.Surgeon, error) {
	query := `
		SELECT id, hospital_id, name, specialization, license_number,
			   certification_date, certification_level, email,
			   created_at, updated_at
		FROM surgeons
		WHERE id = $1
	`
	var surgeon model.Surgeon
	if err := ext(ctx, r.db).GetContext(ctx, &surgeon, query, id); err != nil {
		return nil, fmt.Errorf("failed to get surgeon: %w", err)
	}
	return &surgeon, nil
}

func (r *surgeonRepository) ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*model.Surgeon, error) {
	query := `
		SELECT id, hospital_id, name, specialization, license_number,
			   certification_date, certification_level, email,
			   created_at, updated_at
		FROM surgeons
		WHERE hospital_id = $1
		ORDER BY name ASC
	`
	var surgeons []*model.Surgeon
	if err := ext(ctx, r.db).SelectContext(ctx, &surgeons, query, hospitalID); err != nil {
		return nil, fmt.Errorf("failed to list surgeons: %w", err)
	}
	return surgeons, nil
}
