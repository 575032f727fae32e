package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
)

const recipientColumns = `
	id, name, date_of_birth, blood_type, primary_diagnosis, medical_history,
	urgency_level, registration_date, status, contact_info, email,
	created_at, updated_at
`

func (r *recipientRepository) Create(ctx context.Context, recipient *model.Recipient) error {
	query := `
		INSERT INTO recipients (
			id, name, date_of_birth, blood_type, primary_diagnosis,
			medical_history, urgency_level, registration_date, status,
			contact_info, email, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	recipient.CreatedAt = time.Now()
	recipient.UpdatedAt = time.Now()

	_, err := ext(ctx, r.db).ExecContext(ctx, query,
		recipient.ID,
		recipient.Name,
		recipient.DateOfBirth,
		recipient.BloodType,
		recipient.PrimaryDiagnosis,
		recipient.MedicalHistory,
		recipient.UrgencyLevel,
		recipient.RegistrationDate,
		recipient.Status,
		recipient.ContactInfo,
		recipient.Email,
		recipient.CreatedAt,
		recipient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create recipient: %w", err)
	}
	return nil
}

func (r *recipientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Recipient, error) {
	query := `SELECT ` + recipientColumns + ` FROM recipients WHERE id = $1`
	var recipient model.Recipient
	if err := ext(ctx, r.db).GetContext(ctx, &recipient, query, id); err != nil {
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}
	return &recipient, nil
}

func (r *recipientRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Recipient, error) {
	query := `SELECT ` + recipientColumns + ` FROM recipients WHERE id = $1 FOR UPDATE`
	var recipient model.Recipient
	if err := ext(ctx, r.db).GetContext(ctx, &recipient, query, id); err != nil {
		return nil, fmt.Errorf("failed to lock recipient: %w", err)
	}
	return &recipient, nil
}

func (r *recipientRepository) Update(ctx context.Context, recipient *model.Recipient) error {
	query := `
		UPDATE recipients
		SET urgency_level = $1, status = $2, contact_info = $3, email = $4,
			medical_history = $5, updated_at = $6
		WHERE id = $7
	`
	recipient.UpdatedAt = time.Now()

	result, err := ext(ctx, r.db).ExecContext(ctx, query,
		recipient.UrgencyLevel,
		recipient.Status,
		recipient.ContactInfo,
		recipient.Email,
		recipient.MedicalHistory,
		recipient.UpdatedAt,
		recipient.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update recipient: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("recipient not found")
	}
	return nil
}

func (r *recipientRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.RecipientStatus) error {
	query := `
		UPDATE recipients
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := ext(ctx, r.db).ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update recipient status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("recipient not found")
	}
	return nil
}

func (r *recipientRepository) List(ctx context.Context, status model.RecipientStatus) ([]*model.Recipient, error) {
	query := `SELECT ` + recipientColumns + ` FROM recipients`
	args := []interface{}{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY urgency_level DESC, registration_date DESC"

	var recipients []*model.Recipient
	if err := ext(ctx, r.db).SelectContext(ctx, &recipients, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	return recipients, nil
}

func (r *recipientRepository) ListCritical(ctx context.Context, minUrgency int) ([]*model.CriticalRecipient, error) {
	query := `
		SELECT r.id AS recipient_id, r.name, r.blood_type, r.urgency_level,
			   w.type_name AS organ_type, w.priority_score,
			   EXTRACT(DAY FROM NOW() - w.listed_at)::int AS days_waiting
		FROM recipients r
		JOIN waitlist_entries w ON w.recipient_id = r.id
		WHERE r.status = 'waiting'
		  AND w.status = 'waiting'
		  AND r.urgency_level >= $1
		ORDER BY r.urgency_level DESC, w.priority_score DESC
	`
	var rows []*model.CriticalRecipient
	if err := ext(ctx, r.db).SelectContext(ctx, &rows, query, minUrgency); err != nil {
		return nil, fmt.Errorf("failed to list critical recipients: %w", err)
	}
	return rows, nil
}

func (r *recipientRepository) WaitTimeStats(ctx context.Context) ([]*model.WaitTimeStats, error) {
	query := `
		SELECT w.type_name AS organ_type, r.blood_type,
			   AVG(EXTRACT(DAY FROM NOW() - w.listed_at))::float AS avg_wait_days,
			   MIN(EXTRACT(DAY FROM NOW() - w.listed_at))::int AS min_wait_days,
			   MAX(EXTRACT(DAY FROM NOW() - w.listed_at))::int AS max_wait_days,
			   COUNT(*) AS recipient_count
		FROM recipients r
		JOIN waitlist_entries w ON w.recipient_id = r.id
		WHERE r.status = 'waiting' AND w.status = 'waiting'
		GROUP BY w.type_name, r.blood_type
		ORDER BY avg_wait_days DESC
	`
	var rows []*model.WaitTimeStats
	if err := ext(ctx, r.db).SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to compute wait time stats: %w", err)
	}
	return rows, nil
}
