package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
)

func (r *followUpRepository) Create(ctx context.Context, appointment *model.FollowUpAppointment) error {
	query := `
		INSERT INTO follow_up_appointments (
			id, surgery_id, recipient_id, surgeon_id, scheduled_at,
			lab_results, notes, next_appointment, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	_, err := ext(ctx, r.db).ExecContext(ctx, query,
		appointment.ID,
		appointment.SurgeryID,
		appointment.RecipientID,
		appointment.SurgeonID,
		appointment.ScheduledAt,
		appointment.LabResults,
		appointment.Notes,
		appointment.NextAppointment,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create follow-up appointment: %w", err)
	}
	return nil
}

func (r *followUpRepository) ListUpcoming(ctx context.Context, from time.Time) ([]*model.FollowUpAppointment, error) {
	query := `
		SELECT id, surgery_id, recipient_id, surgeon_id, scheduled_at,
			   lab_results, notes, next_appointment, created_at, updated_at
		FROM follow_up_appointments
		WHERE scheduled_at >= $1
		ORDER BY scheduled_at ASC
	`
	var appointments []*model.FollowUpAppointment
	if err := ext(ctx, r.db).SelectContext(ctx, &appointments, query, from); err != nil {
		return nil, fmt.Errorf("failed to list upcoming follow-ups: %w", err)
	}
	return appointments, nil
}

func (r *followUpRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]*model.FollowUpAppointment, error) {
	query := `
		SELECT id, surgery_id, recipient_id, surgeon_id, scheduled_at,
			   lab_results, notes, next_appointment, created_at, updated_at
		FROM follow_up_appointments
		WHERE recipient_id = $1
		ORDER BY scheduled_at DESC
	`
	var appointments []*model.FollowUpAppointment
	if err := ext(ctx, r.db).SelectContext(ctx, &appointments, query, recipientID); err != nil {
		return nil, fmt.Errorf("failed to list follow-ups: %w", err)
	}
	return appointments, nil
}
