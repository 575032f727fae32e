package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
)

func (r *donorRepository) Create(ctx context.Context, donor *model.Donor) error {
	query := `
		INSERT INTO donors (
			id, name, date_of_birth, blood_type, kind, medical_history,
			cause_of_death, registration_date, medical_clearance_date,
			status, contact_info, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	donor.CreatedAt = time.Now()
	donor.UpdatedAt = time.Now()

	_, err := ext(ctx, r.db).ExecContext(ctx, query,
		donor.ID,
		donor.Name,
		donor.DateOfBirth,
		donor.BloodType,
		donor.Kind,
		donor.MedicalHistory,
		donor.CauseOfDeath,
		donor.RegistrationDate,
		donor.MedicalClearanceDate,
		donor.Status,
		donor.ContactInfo,
		donor.CreatedAt,
		donor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create donor: %w", err)
	}
	return nil
}

func (r *donorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Donor, error) {
	query := `
		SELECT id, name, date_of_birth, blood_type, kind, medical_history,
			   cause_of_death, registration_date, medical_clearance_date,
			   status, contact_info, created_at, updated_at
		FROM donors
		WHERE id = $1
	`
	var donor model.Donor
	if err := ext(ctx, r.db).GetContext(ctx, &donor, query, id); err != nil {
		return nil, fmt.Errorf("failed to get donor: %w", err)
	}
	return &donor, nil
}

func (r *donorRepository) Update(ctx context.Context, donor *model.Donor) error {
	query := `
		UPDATE donors
		SET status = $1, contact_info = $2, medical_history = $3,
			medical_clearance_date = $4, updated_at = $5
		WHERE id = $6
	`
	donor.UpdatedAt = time.Now()

	result, err := ext(ctx, r.db).ExecContext(ctx, query,
		donor.Status,
		donor.ContactInfo,
		donor.MedicalHistory,
		donor.MedicalClearanceDate,
		donor.UpdatedAt,
		donor.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update donor: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("donor not found")
	}
	return nil
}

func (r *donorRepository) List(ctx context.Context, status model.DonorStatus) ([]*model.Donor, error) {
	query := `
		SELECT id, name, date_of_birth, blood_type, kind, medical_history,
			   cause_of_death, registration_date, medical_clearance_date,
			   status, contact_info, created_at, updated_at
		FROM donors
	`
	args := []interface{}{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY registration_date DESC"

	var donors []*model.Donor
	if err := ext(ctx, r.db).SelectContext(ctx, &donors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list donors: %w", err)
	}
	return donors, nil
}
