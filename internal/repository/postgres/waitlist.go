package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
)

const waitlistColumns = `
	w.id, w.recipient_id, w.type_name, w.priority_score, w.listed_at,
	w.status, w.meld_score, w.cpra_score, w.created_at, w.updated_at
`

const waitlistDetailColumns = waitlistColumns + `,
	r.name AS recipient_name, r.blood_type AS recipient_blood,
	r.status AS recipient_status, r.urgency_level
`

func (r *waitlistRepository) Create(ctx context.Context, entry *model.WaitlistEntry) error {
	query := `
		INSERT INTO waitlist_entries (
			id, recipient_id, type_name, priority_score, listed_at,
			status, meld_score, cpra_score, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = time.Now()

	_, err := ext(ctx, r.db).ExecContext(ctx, query,
		entry.ID,
		entry.RecipientID,
		entry.TypeName,
		entry.PriorityScore,
		entry.ListedAt,
		entry.Status,
		entry.MELDScore,
		entry.CPRAScore,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create waitlist entry: %w", err)
	}
	return nil
}

func (r *waitlistRepository) Get(ctx context.Context, id uuid.UUID) (*model.WaitlistEntry, error) {
	query := `
		SELECT ` + waitlistColumns + `
		FROM waitlist_entries w
		WHERE w.id = $1
	`
	var entry model.WaitlistEntry
	if err := ext(ctx, r.db).GetContext(ctx, &entry, query, id); err != nil {
		return nil, fmt.Errorf("failed to get waitlist entry: %w", err)
	}
	return &entry, nil
}

func (r *waitlistRepository) GetByRecipientAndType(ctx context.Context, recipientID uuid.UUID, typeName string) (*model.WaitlistEntry, error) {
	query := `
		SELECT ` + waitlistColumns + `
		FROM waitlist_entries w
		WHERE w.recipient_id = $1 AND w.type_name = $2
	`
	var entry model.WaitlistEntry
	err := ext(ctx, r.db).GetContext(ctx, &entry, query, recipientID, typeName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get waitlist entry: %w", err)
	}
	return &entry, nil
}

func (r *waitlistRepository) GetForUpdate(ctx context.Context, recipientID uuid.UUID, typeName string) (*model.WaitlistEntry, error) {
	query := `
		SELECT ` + waitlistColumns + `
		FROM waitlist_entries w
		WHERE w.recipient_id = $1 AND w.type_name = $2
		FOR UPDATE
	`
	var entry model.WaitlistEntry
	err := ext(ctx, r.db).GetContext(ctx, &entry, query, recipientID, typeName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock waitlist entry: %w", err)
	}
	return &entry, nil
}

func (r *waitlistRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.WaitlistStatus) error {
	query := `
		UPDATE waitlist_entries
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := ext(ctx, r.db).ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update waitlist status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("waitlist entry not found")
	}
	return nil
}

func (r *waitlistRepository) UpdatePriority(ctx context.Context, id uuid.UUID, score float64) error {
	query := `
		UPDATE waitlist_entries
		SET priority_score = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := ext(ctx, r.db).ExecContext(ctx, query, score, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update priority score: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("waitlist entry not found")
	}
	return nil
}

func (r *waitlistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM waitlist_entries WHERE id = $1`
	result, err := ext(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete waitlist entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("waitlist entry not found")
	}
	return nil
}

func (r *waitlistRepository) List(ctx context.Context, filters *model.WaitlistFilters) ([]*model.WaitlistEntryDetail, error) {
	query := `
		SELECT ` + waitlistDetailColumns + `
		FROM waitlist_entries w
		JOIN recipients r ON r.id = w.recipient_id
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.TypeName != "" {
			query += fmt.Sprintf(" AND w.type_name = $%d", argCount)
			args = append(args, filters.TypeName)
			argCount++
		}
		if filters.RecipientID != uuid.Nil {
			query += fmt.Sprintf(" AND w.recipient_id = $%d", argCount)
			args = append(args, filters.RecipientID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND w.status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
	}

	query += " ORDER BY w.priority_score DESC, w.listed_at ASC"

	var entries []*model.WaitlistEntryDetail
	if err := ext(ctx, r.db).SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list waitlist entries: %w", err)
	}
	return entries, nil
}

func (r *waitlistRepository) ListEligibleForMatch(ctx context.Context, typeName string) ([]*model.WaitlistEntryDetail, error) {
	query := `
		SELECT ` + waitlistDetailColumns + `
		FROM waitlist_entries w
		JOIN recipients r ON r.id = w.recipient_id
		WHERE w.type_name = $1
		  AND w.status = 'waiting'
		  AND r.status = 'waiting'
		ORDER BY w.priority_score DESC, w.listed_at ASC
	`
	var entries []*model.WaitlistEntryDetail
	if err := ext(ctx, r.db).SelectContext(ctx, &entries, query, typeName); err != nil {
		return nil, fmt.Errorf("failed to list eligible waitlist entries: %w", err)
	}
	return entries, nil
}

func (r *waitlistRepository) ListOpenByRecipient(ctx context.Context, recipientID uuid.UUID) ([]*model.WaitlistEntry, error) {
	query := `
		SELECT ` + waitlistColumns + `
		FROM waitlist_entries w
		WHERE w.recipient_id = $1 AND w.status = 'waiting'
	`
	var entries []*model.WaitlistEntry
	if err := ext(ctx, r.db).SelectContext(ctx, &entries, query, recipientID); err != nil {
		return nil, fmt.Errorf("failed to list open waitlist entries: %w", err)
	}
	return entries, nil
}
