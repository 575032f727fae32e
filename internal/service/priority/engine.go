package priority

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/config"
	"github.com/jwalitptl/transplant-api/internal/model"
	"github.com/jwalitptl/transplant-api/internal/repository"
	"github.com/jwalitptl/transplant-api/pkg/errors"
)

// Engine recomputes waitlist priority scores. Recomputation is idempotent:
// unchanged inputs always produce the same score.
type Engine struct {
	waitlist   repository.WaitlistRepository
	recipients repository.RecipientRepository
	audit      repository.AuditRepository
	policy     config.PolicyConfig
	now        func() time.Time
}

func NewEngine(waitlist repository.WaitlistRepository, recipients repository.RecipientRepository, audit repository.AuditRepository, policy config.PolicyConfig) *Engine {
	return &Engine{
		waitlist:   waitlist,
		recipients: recipients,
		audit:      audit,
		policy:     policy,
		now:        time.Now,
	}
}

// Compute returns the priority score for a recipient's waitlist entry at the
// given instant without persisting it.
func (e *Engine) Compute(recipient *model.Recipient, entry *model.WaitlistEntry, at time.Time) float64 {
	score := e.policy.PriorityUrgencyWeight * float64(recipient.UrgencyLevel)

	waitTerm := float64(entry.DaysWaiting(at)) / e.policy.WaitDaysPerPoint
	if waitTerm > e.policy.PriorityWaitCap {
		waitTerm = e.policy.PriorityWaitCap
	}
	score += waitTerm

	score += e.policy.PriorityMELDWeight * entry.MELDScore
	score += e.policy.PriorityCPRAWeight * entry.CPRAScore
	return score
}

// Recompute recalculates and stores the priority score for the recipient's
// open entry of the given organ type. Fails with NoActiveWaitlistEntry when
// the recipient holds no waiting entry for that type.
func (e *Engine) Recompute(ctx context.Context, recipientID uuid.UUID, typeName string) (float64, error) {
	entry, err := e.waitlist.GetByRecipientAndType(ctx, recipientID, typeName)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, e.noActiveEntry(recipientID, typeName)
		}
		return 0, errors.NewStorageFailure(err)
	}
	if entry.Status != model.WaitlistStatusWaiting {
		return 0, e.noActiveEntry(recipientID, typeName)
	}

	recipient, err := e.recipients.Get(ctx, recipientID)
	if err != nil {
		return 0, errors.NewStorageFailure(err)
	}

	score := e.Compute(recipient, entry, e.now())
	if err := e.waitlist.UpdatePriority(ctx, entry.ID, score); err != nil {
		return 0, errors.NewStorageFailure(err)
	}

	changes, _ := json.Marshal(map[string]interface{}{
		"old_score": entry.PriorityScore,
		"new_score": score,
	})
	_ = e.audit.Create(ctx, &model.AuditLog{
		ID:         uuid.New(),
		Action:     model.AuditActionPriorityRecompute,
		EntityType: model.AuditEntityWaitlist,
		EntityID:   entry.ID,
		Changes:    changes,
	})

	return score, nil
}

// RecomputeAllForRecipient refreshes every open entry the recipient holds.
// Called when a recipient's urgency level changes.
func (e *Engine) RecomputeAllForRecipient(ctx context.Context, recipientID uuid.UUID) error {
	entries, err := e.waitlist.ListOpenByRecipient(ctx, recipientID)
	if err != nil {
		return errors.NewStorageFailure(err)
	}
	for _, entry := range entries {
		if _, err := e.Recompute(ctx, recipientID, entry.TypeName); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) noActiveEntry(recipientID uuid.UUID, typeName string) error {
	return errors.NewPrecondition(errors.ErrNoActiveWaitlistEntry, "recipient has no waiting entry for organ type", map[string]interface{}{
		"recipient_id": recipientID,
		"type_name":    typeName,
	})
}
