package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
)

func (r *surgeryRepository) Create(ctx context.Context, surgery *model.Surgery) error {
	query := `
		INSERT INTO surgeries (
			id, hospital_id, organ_id, recipient_id, surgeon_id,
			scheduled_at, duration_hours, outcome, notes, complications,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	surgery.CreatedAt = time.Now()
	surgery.UpdatedAt = time.Now()

	_, err := ext(ctx, r.db).ExecContext(ctx, query,
		surgery.ID,
		surgery.HospitalID,
		surgery.OrganID,
		surgery.RecipientID,
		surgery.SurgeonID,
		surgery.ScheduledAt,
		surgery.DurationHours,
		surgery.Outcome,
		surgery.Notes,
		surgery.Complications,
		surgery.CreatedAt,
		surgery.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create surgery: %w", err)
	}
	return nil
}

func (r *surgeryRepository) Get(ctx context.Context, id uuid.UUID) (*model.Surgery, error) {
	query := `
		SELECT id, hospital_id, organ_id, recipient_id, surgeon_id,
			   scheduled_at, duration_hours, outcome, notes, complications,
			   created_at, updated_at
		FROM surgeries
		WHERE id = $1
	`
	var surgery model.Surgery
	if err := ext(ctx, r.db).GetContext(ctx, &surgery, query, id); err != nil {
		return nil, fmt.Errorf("failed to get surgery: %w", err)
	}
	return &surgery, nil
}

func (r *surgeryRepository) List(ctx context.Context) ([]*model.Surgery, error) {
	query := `
		SELECT id, hospital_id, organ_id, recipient_id, surgeon_id,
			   scheduled_at, duration_hours, outcome, notes, complications,
			   created_at, updated_at
		FROM surgeries
		ORDER BY scheduled_at DESC
	`
	var surgeries []*model.Surgery
	if err := ext(ctx, r.db).SelectContext(ctx, &surgeries, query); err != nil {
		return nil, fmt.Errorf("failed to list surgeries: %w", err)
	}
	return surgeries, nil
}

func (r *surgeryRepository) HospitalStats(ctx context.Context) ([]*model.HospitalStats, error) {
	query := `
		SELECT h.id AS hospital_id, h.name AS hospital_name,
			   COUNT(s.id) AS total_surgeries,
			   COUNT(s.id) FILTER (WHERE s.outcome = 'success') AS successful,
			   CASE WHEN COUNT(s.id) = 0 THEN 0
					ELSE COUNT(s.id) FILTER (WHERE s.outcome = 'success')::float / COUNT(s.id) * 100
			   END AS success_rate
		FROM hospitals h
		LEFT JOIN surgeries s ON s.hospital_id = h.id
		GROUP BY h.id, h.name
		ORDER BY success_rate DESC
	`
	var stats []*model.HospitalStats
	if err := ext(ctx, r.db).SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to compute hospital stats: %w", err)
	}
	return stats, nil
}
