package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/transplant-api/internal/model"
)

const organColumns = `
	o.id, o.type_name, o.donor_id, o.hla_type, o.procured_at,
	o.size_weight_kg, o.status, o.created_at, o.updated_at,
	d.blood_type AS donor_blood
`

func (r *organRepository) Create(ctx context.Context, organ *model.Organ) error {
	query := `
		INSERT INTO organs (
			id, type_name, donor_id, hla_type, procured_at,
			size_weight_kg, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	organ.CreatedAt = time.Now()
	organ.UpdatedAt = time.Now()

	_, err := ext(ctx, r.db).ExecContext(ctx, query,
		organ.ID,
		organ.TypeName,
		organ.DonorID,
		organ.HLAType,
		organ.ProcuredAt,
		organ.SizeWeightKg,
		organ.Status,
		organ.CreatedAt,
		organ.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create organ: %w", err)
	}
	return nil
}

func (r *organRepository) Get(ctx context.Context, id uuid.UUID) (*model.Organ, error) {
	query := `
		SELECT ` + organColumns + `
		FROM organs o
		JOIN donors d ON d.id = o.donor_id
		WHERE o.id = $1
	`
	var organ model.Organ
	if err := ext(ctx, r.db).GetContext(ctx, &organ, query, id); err != nil {
		return nil, fmt.Errorf("failed to get organ: %w", err)
	}
	return &organ, nil
}

func (r *organRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Organ, error) {
	// Lock the organ row first, then join for the donor blood type. The lock
	// serializes concurrent allocation requests for the same organ.
	lock := `SELECT id FROM organs WHERE id = $1 FOR UPDATE`
	var locked uuid.UUID
	if err := ext(ctx, r.db).GetContext(ctx, &locked, lock, id); err != nil {
		return nil, fmt.Errorf("failed to lock organ: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *organRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrganStatus) error {
	query := `
		UPDATE organs
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := ext(ctx, r.db).ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update organ status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("organ not found")
	}
	return nil
}

func (r *organRepository) ListByStatus(ctx context.Context, statuses ...model.OrganStatus) ([]*model.Organ, error) {
	query := `
		SELECT ` + organColumns + `
		FROM organs o
		JOIN donors d ON d.id = o.donor_id
		WHERE o.status = ANY($1)
		ORDER BY o.procured_at DESC
	`
	vals := make([]string, len(statuses))
	for i, s := range statuses {
		vals[i] = string(s)
	}

	var organs []*model.Organ
	if err := ext(ctx, r.db).SelectContext(ctx, &organs, query, pq.Array(vals)); err != nil {
		return nil, fmt.Errorf("failed to list organs: %w", err)
	}
	return organs, nil
}
