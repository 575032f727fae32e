package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
)

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, action, entity_type, entity_id, changes, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	log.CreatedAt = time.Now()

	_, err := ext(ctx, r.db).ExecContext(ctx, query,
		log.ID,
		log.Action,
		log.EntityType,
		log.EntityID,
		log.Changes,
		log.Metadata,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error) {
	query := `
		SELECT id, action, entity_type, entity_id, changes, metadata, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
	`
	var logs []*model.AuditLog
	if err := ext(ctx, r.db).SelectContext(ctx, &logs, query, entityType, entityID); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}

func (r *auditRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM audit_logs WHERE created_at < $1`
	result, err := ext(ctx, r.db).ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit logs: %w", err)
	}
	return result.RowsAffected()
}
