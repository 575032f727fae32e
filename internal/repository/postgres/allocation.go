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

const allocationColumns = `
	id, organ_id, recipient_id, allocated_at, match_score, status,
	response_deadline, responded_at, created_at, updated_at
`

func (r *allocationRepository) Create(ctx context.Context, allocation *model.Allocation) error {
	query := `
		INSERT INTO allocations (
			id, organ_id, recipient_id, allocated_at, match_score, status,
			response_deadline, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	allocation.CreatedAt = time.Now()
	allocation.UpdatedAt = time.Now()

	_, err := ext(ctx, r.db).ExecContext(ctx, query,
		allocation.ID,
		allocation.OrganID,
		allocation.RecipientID,
		allocation.AllocatedAt,
		allocation.MatchScore,
		allocation.Status,
		allocation.ResponseDeadline,
		allocation.CreatedAt,
		allocation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create allocation: %w", err)
	}
	return nil
}

func (r *allocationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE id = $1`
	var allocation model.Allocation
	if err := ext(ctx, r.db).GetContext(ctx, &allocation, query, id); err != nil {
		return nil, fmt.Errorf("failed to get allocation: %w", err)
	}
	return &allocation, nil
}

func (r *allocationRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE id = $1 FOR UPDATE`
	var allocation model.Allocation
	if err := ext(ctx, r.db).GetContext(ctx, &allocation, query, id); err != nil {
		return nil, fmt.Errorf("failed to lock allocation: %w", err)
	}
	return &allocation, nil
}

func (r *allocationRepository) GetPendingByOrgan(ctx context.Context, organID uuid.UUID) (*model.Allocation, error) {
	query := `
		SELECT ` + allocationColumns + `
		FROM allocations
		WHERE organ_id = $1 AND status = 'pending'
	`
	var allocation model.Allocation
	err := ext(ctx, r.db).GetContext(ctx, &allocation, query, organID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending allocation: %w", err)
	}
	return &allocation, nil
}

func (r *allocationRepository) GetAcceptedByOrganAndRecipient(ctx context.Context, organID, recipientID uuid.UUID) (*model.Allocation, error) {
	query := `
		SELECT ` + allocationColumns + `
		FROM allocations
		WHERE organ_id = $1 AND recipient_id = $2 AND status = 'accepted'
	`
	var allocation model.Allocation
	err := ext(ctx, r.db).GetContext(ctx, &allocation, query, organID, recipientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get accepted allocation: %w", err)
	}
	return &allocation, nil
}

func (r *allocationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AllocationStatus, respondedAt *time.Time) error {
	query := `
		UPDATE allocations
		SET status = $1, responded_at = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := ext(ctx, r.db).ExecContext(ctx, query, status, respondedAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update allocation status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("allocation not found")
	}
	return nil
}

func (r *allocationRepository) List(ctx context.Context, filters *model.AllocationFilters) ([]*model.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.OrganID != uuid.Nil {
			query += fmt.Sprintf(" AND organ_id = $%d", argCount)
			args = append(args, filters.OrganID)
			argCount++
		}
		if filters.RecipientID != uuid.Nil {
			query += fmt.Sprintf(" AND recipient_id = $%d", argCount)
			args = append(args, filters.RecipientID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
	}

	query += " ORDER BY allocated_at DESC"

	var allocations []*model.Allocation
	if err := ext(ctx, r.db).SelectContext(ctx, &allocations, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	return allocations, nil
}

func (r *allocationRepository) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*model.Allocation, error) {
	query := `
		SELECT ` + allocationColumns + `
		FROM allocations
		WHERE status = 'pending' AND response_deadline < $1
		ORDER BY response_deadline ASC
		LIMIT $2
	`
	var allocations []*model.Allocation
	if err := ext(ctx, r.db).SelectContext(ctx, &allocations, query, now, limit); err != nil {
		return nil, fmt.Errorf("failed to list expired pending allocations: %w", err)
	}
	return allocations, nil
}
