package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
	"github.com/jwalitptl/transplant-api/internal/repository"
)

// Service exposes the audit trail: every state transition in the allocation
// lifecycle lands here via the repositories, and coordinators can read the
// history per entity.
type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

type LogOptions struct {
	Changes  interface{}
	Metadata interface{}
}

// Log writes one audit entry.
func (s *Service) Log(ctx context.Context, action, entityType string, entityID uuid.UUID, opts *LogOptions) error {
	var changes, metadata json.RawMessage
	var err error

	if opts != nil {
		if opts.Changes != nil {
			changes, err = json.Marshal(opts.Changes)
			if err != nil {
				return err
			}
		}
		if opts.Metadata != nil {
			metadata, err = json.Marshal(opts.Metadata)
			if err != nil {
				return err
			}
		}
	}

	return s.repo.Create(ctx, &model.AuditLog{
		ID:         uuid.New(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    changes,
		Metadata:   metadata,
		CreatedAt:  time.Now(),
	})
}

// History returns the audit trail for one entity, newest first.
func (s *Service) History(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error) {
	return s.repo.List(ctx, entityType, entityID)
}

// Cleanup deletes entries older than the cutoff and reports how many went.
func (s *Service) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	return s.repo.DeleteBefore(ctx, before)
}
