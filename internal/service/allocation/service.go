package allocation

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/config"
	"github.com/jwalitptl/transplant-api/internal/model"
	"github.com/jwalitptl/transplant-api/internal/repository"
	"github.com/jwalitptl/transplant-api/internal/service/matching"
	"github.com/jwalitptl/transplant-api/internal/service/priority"
	"github.com/jwalitptl/transplant-api/internal/service/viability"
	"github.com/jwalitptl/transplant-api/pkg/errors"
	"github.com/jwalitptl/transplant-api/pkg/logger"
)

// OrganTypeSource resolves organ type reference data. Satisfied by both the
// postgres repository and the caching catalog service.
type OrganTypeSource interface {
	Get(ctx context.Context, name string) (*model.OrganType, error)
	List(ctx context.Context) ([]*model.OrganType, error)
}

// Service owns the allocation lifecycle: procurement, matching, offers,
// responses, surgery scheduling, and the waitlist transitions those imply.
// Every multi-row transition runs inside one transaction with the organ row
// locked, so concurrent requests for the same organ serialize and at most one
// wins.
type Service struct {
	tx          repository.TxManager
	organs      repository.OrganRepository
	organTypes  OrganTypeSource
	donors      repository.DonorRepository
	recipients  repository.RecipientRepository
	waitlist    repository.WaitlistRepository
	allocations repository.AllocationRepository
	surgeries   repository.SurgeryRepository
	hospitals   repository.HospitalRepository
	surgeons    repository.SurgeonRepository
	followUps   repository.FollowUpRepository
	audit       repository.AuditRepository
	outbox      repository.OutboxRepository
	matcher     *matching.Matcher
	scorer      *matching.Scorer
	priority    *priority.Engine
	policy      config.PolicyConfig
	logger      *logger.Logger

	// now is swappable in tests
	now func() time.Time
}

type Deps struct {
	Tx          repository.TxManager
	Organs      repository.OrganRepository
	OrganTypes  OrganTypeSource
	Donors      repository.DonorRepository
	Recipients  repository.RecipientRepository
	Waitlist    repository.WaitlistRepository
	Allocations repository.AllocationRepository
	Surgeries   repository.SurgeryRepository
	Hospitals   repository.HospitalRepository
	Surgeons    repository.SurgeonRepository
	FollowUps   repository.FollowUpRepository
	Audit       repository.AuditRepository
	Outbox      repository.OutboxRepository
	Matcher     *matching.Matcher
	Scorer      *matching.Scorer
	Priority    *priority.Engine
	Policy      config.PolicyConfig
	Logger      *logger.Logger
}

func NewService(deps Deps) *Service {
	return &Service{
		tx:          deps.Tx,
		organs:      deps.Organs,
		organTypes:  deps.OrganTypes,
		donors:      deps.Donors,
		recipients:  deps.Recipients,
		waitlist:    deps.Waitlist,
		allocations: deps.Allocations,
		surgeries:   deps.Surgeries,
		hospitals:   deps.Hospitals,
		surgeons:    deps.Surgeons,
		followUps:   deps.FollowUps,
		audit:       deps.Audit,
		outbox:      deps.Outbox,
		matcher:     deps.Matcher,
		scorer:      deps.Scorer,
		priority:    deps.Priority,
		policy:      deps.Policy,
		logger:      deps.Logger,
		now:         time.Now,
	}
}

// RecordOrganProcurement registers a procured organ and immediately runs a
// matcher pass over the waitlist. The candidate list is returned and the pass
// is recorded as an event; no allocation is created automatically.
func (s *Service) RecordOrganProcurement(ctx context.Context, req *model.RecordProcurementRequest) (*model.Organ, []*model.MatchCandidate, error) {
	now := s.now()
	if req.ProcuredAt.After(now) {
		return nil, nil, errors.NewPrecondition(errors.ErrInvalidDate, "procurement time cannot be in the future", map[string]interface{}{
			"procured_at": req.ProcuredAt,
		})
	}

	donor, err := s.donors.Get(ctx, req.DonorID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil, errors.NewNotFound("donor", err)
		}
		return nil, nil, errors.NewStorageFailure(err)
	}
	if !donor.EligibleForProcurement() {
		return nil, nil, errors.NewPrecondition(errors.ErrDonorNotEligible, "donor is not cleared for procurement", map[string]interface{}{
			"donor_id": donor.ID,
			"status":   donor.Status,
		})
	}

	if _, err := s.organTypes.Get(ctx, req.TypeName); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil, errors.NewNotFound("organ type", err)
		}
		return nil, nil, errors.NewStorageFailure(err)
	}

	organ := &model.Organ{
		Base:         model.Base{ID: uuid.New()},
		TypeName:     req.TypeName,
		DonorID:      req.DonorID,
		HLAType:      req.HLAType,
		ProcuredAt:   req.ProcuredAt,
		SizeWeightKg: req.SizeWeightKg,
		Status:       model.OrganStatusAvailable,
		DonorBlood:   donor.BloodType,
	}

	var candidates []*model.MatchCandidate
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.organs.Create(ctx, organ); err != nil {
			return errors.NewStorageFailure(err)
		}

		candidates, err = s.matcher.Match(ctx, organ, now)
		if err != nil {
			return err
		}

		s.writeAudit(ctx, model.AuditActionCreate, model.AuditEntityOrgan, organ.ID, map[string]interface{}{
			"type_name": organ.TypeName,
			"donor_id":  organ.DonorID,
		})
		s.emit(ctx, model.EventOrganProcured, map[string]interface{}{
			"organ_id":  organ.ID,
			"type_name": organ.TypeName,
			"donor_id":  organ.DonorID,
		})
		s.emit(ctx, model.EventMatchRunCompleted, map[string]interface{}{
			"organ_id":        organ.ID,
			"candidate_count": len(candidates),
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("organ procured", "organ_id", organ.ID, "type_name", organ.TypeName, "candidates", len(candidates))
	return organ, candidates, nil
}

// FindMatches reruns the matcher for an available organ without changing any
// state.
func (s *Service) FindMatches(ctx context.Context, organID uuid.UUID) ([]*model.MatchCandidate, error) {
	organ, err := s.getOrgan(ctx, organID)
	if err != nil {
		return nil, err
	}
	return s.matcher.Match(ctx, organ, s.now())
}

// RequestAllocation offers an available organ to one recipient. The organ row
// is locked for the duration, so when several coordinators race for the same
// organ exactly one request succeeds and the rest fail with
// DuplicatePendingAllocation or OrganUnavailable.
func (s *Service) RequestAllocation(ctx context.Context, req *model.RequestAllocationRequest) (*model.Allocation, error) {
	now := s.now()
	var allocation *model.Allocation

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		organ, err := s.organs.GetForUpdate(ctx, req.OrganID)
		if err != nil {
			if stderrors.Is(err, sql.ErrNoRows) {
				return errors.NewNotFound("organ", err)
			}
			return errors.NewStorageFailure(err)
		}
		if organ.Status != model.OrganStatusAvailable {
			return errors.NewPrecondition(errors.ErrOrganUnavailable, "organ is not available", map[string]interface{}{
				"organ_id": organ.ID,
				"status":   organ.Status,
			})
		}

		organType, err := s.organTypes.Get(ctx, organ.TypeName)
		if err != nil {
			return errors.NewStorageFailure(err)
		}
		if viability.Expired(organ, organType, now) {
			return errors.NewPrecondition(errors.ErrOrganNotEligible, "organ viability window has closed", map[string]interface{}{
				"organ_id": organ.ID,
			})
		}

		if _, err := s.allocations.GetPendingByOrgan(ctx, organ.ID); err == nil {
			return errors.NewPrecondition(errors.ErrDuplicatePendingAllocation, "organ already has a pending allocation", map[string]interface{}{
				"organ_id": organ.ID,
			})
		} else if !stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewStorageFailure(err)
		}

		recipient, err := s.recipients.Get(ctx, req.RecipientID)
		if err != nil {
			if stderrors.Is(err, sql.ErrNoRows) {
				return errors.NewNotFound("recipient", err)
			}
			return errors.NewStorageFailure(err)
		}
		if recipient.Status != model.RecipientStatusWaiting {
			return errors.NewPrecondition(errors.ErrRecipientNotEligible, "recipient is not waiting", map[string]interface{}{
				"recipient_id": recipient.ID,
				"status":       recipient.Status,
			})
		}

		entry, err := s.waitlist.GetForUpdate(ctx, req.RecipientID, organ.TypeName)
		if err != nil {
			if stderrors.Is(err, sql.ErrNoRows) {
				return errors.NewPrecondition(errors.ErrNoActiveWaitlistEntry, "recipient has no waiting entry for organ type", map[string]interface{}{
					"recipient_id": req.RecipientID,
					"type_name":    organ.TypeName,
				})
			}
			return errors.NewStorageFailure(err)
		}
		if entry.Status != model.WaitlistStatusWaiting {
			return errors.NewPrecondition(errors.ErrNoActiveWaitlistEntry, "waitlist entry is not waiting", map[string]interface{}{
				"recipient_id": req.RecipientID,
				"type_name":    organ.TypeName,
				"status":       entry.Status,
			})
		}

		detail := &model.WaitlistEntryDetail{
			WaitlistEntry:  *entry,
			RecipientName:  recipient.Name,
			RecipientBlood: recipient.BloodType,
			UrgencyLevel:   recipient.UrgencyLevel,
		}
		score, err := s.scorer.Score(organ, organType, detail, now)
		if err != nil {
			return err
		}

		allocation = &model.Allocation{
			Base:             model.Base{ID: uuid.New()},
			OrganID:          organ.ID,
			RecipientID:      recipient.ID,
			AllocatedAt:      now,
			MatchScore:       score,
			Status:           model.AllocationStatusPending,
			ResponseDeadline: now.Add(time.Duration(s.policy.ResponseDeadlineHours) * time.Hour),
		}
		if err := s.allocations.Create(ctx, allocation); err != nil {
			return errors.NewStorageFailure(err)
		}
		if err := s.organs.UpdateStatus(ctx, organ.ID, model.OrganStatusAllocated); err != nil {
			return errors.NewStorageFailure(err)
		}
		if err := s.waitlist.UpdateStatus(ctx, entry.ID, model.WaitlistStatusMatched); err != nil {
			return errors.NewStorageFailure(err)
		}

		s.writeAudit(ctx, model.AuditActionAllocate, model.AuditEntityAllocation, allocation.ID, map[string]interface{}{
			"organ_id":     organ.ID,
			"recipient_id": recipient.ID,
			"match_score":  score,
		})
		s.emit(ctx, model.EventAllocationCreated, map[string]interface{}{
			"allocation_id":     allocation.ID,
			"organ_id":          organ.ID,
			"recipient_id":      recipient.ID,
			"response_deadline": allocation.ResponseDeadline,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("allocation created", "allocation_id", allocation.ID, "organ_id", allocation.OrganID, "recipient_id", allocation.RecipientID)
	return allocation, nil
}

// RespondToAllocation records the care team's accept or reject decision. A
// response after the deadline expires the allocation instead: the organ
// returns to the pool, the waitlist entry reopens, and the caller gets
// DeadlinePassed.
func (s *Service) RespondToAllocation(ctx context.Context, allocationID uuid.UUID, decision model.AllocationDecision) (*model.Allocation, error) {
	now := s.now()
	var allocation *model.Allocation
	var deadlineErr error

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		allocation, err = s.allocations.GetForUpdate(ctx, allocationID)
		if err != nil {
			if stderrors.Is(err, sql.ErrNoRows) {
				return errors.NewNotFound("allocation", err)
			}
			return errors.NewStorageFailure(err)
		}
		if allocation.Status.Terminal() {
			return errors.NewPrecondition(errors.ErrTerminalStateViolation, "allocation already resolved", map[string]interface{}{
				"allocation_id": allocation.ID,
				"status":        allocation.Status,
			})
		}

		if allocation.DeadlinePassed(now) {
			// The expiry must commit even though the caller gets an error.
			if err := s.expirePendingAllocation(ctx, allocation, now); err != nil {
				return err
			}
			deadlineErr = errors.NewPrecondition(errors.ErrDeadlinePassed, "response deadline has passed", map[string]interface{}{
				"allocation_id":     allocation.ID,
				"response_deadline": allocation.ResponseDeadline,
			})
			return nil
		}

		switch decision {
		case model.AllocationDecisionAccept:
			// The recipient may have died or withdrawn since the offer went out.
			recipient, err := s.recipients.Get(ctx, allocation.RecipientID)
			if err != nil {
				return errors.NewStorageFailure(err)
			}
			if recipient.Status != model.RecipientStatusWaiting {
				return errors.NewPrecondition(errors.ErrRecipientNotEligible, "recipient is no longer waiting", map[string]interface{}{
					"recipient_id": recipient.ID,
					"status":       recipient.Status,
				})
			}
			if err := s.allocations.UpdateStatus(ctx, allocation.ID, model.AllocationStatusAccepted, &now); err != nil {
				return errors.NewStorageFailure(err)
			}
			allocation.Status = model.AllocationStatusAccepted
			allocation.RespondedAt = &now
			s.emit(ctx, model.EventAllocationAccepted, map[string]interface{}{
				"allocation_id": allocation.ID,
				"organ_id":      allocation.OrganID,
				"recipient_id":  allocation.RecipientID,
			})
		case model.AllocationDecisionReject:
			if err := s.allocations.UpdateStatus(ctx, allocation.ID, model.AllocationStatusRejected, &now); err != nil {
				return errors.NewStorageFailure(err)
			}
			if err := s.releaseOrgan(ctx, allocation); err != nil {
				return err
			}
			allocation.Status = model.AllocationStatusRejected
			allocation.RespondedAt = &now
			s.emit(ctx, model.EventAllocationRejected, map[string]interface{}{
				"allocation_id": allocation.ID,
				"organ_id":      allocation.OrganID,
				"recipient_id":  allocation.RecipientID,
			})
		default:
			return errors.NewBadRequest("decision must be accept or reject", nil)
		}

		s.writeAudit(ctx, model.AuditActionRespond, model.AuditEntityAllocation, allocation.ID, map[string]interface{}{
			"decision": decision,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if deadlineErr != nil {
		return nil, deadlineErr
	}
	return allocation, nil
}

// ScheduleSurgery consumes an accepted allocation. The cascade is ordered and
// atomic: surgery row, organ to transplanted, recipient to transplanted, then
// the first follow-up visit one week out.
func (s *Service) ScheduleSurgery(ctx context.Context, req *model.ScheduleSurgeryRequest) (*model.Surgery, error) {
	now := s.now()
	if req.ScheduledAt.Before(now) {
		return nil, errors.NewPrecondition(errors.ErrInvalidDate, "surgery cannot be scheduled in the past", map[string]interface{}{
			"scheduled_at": req.ScheduledAt,
		})
	}

	var surgery *model.Surgery
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		organ, err := s.organs.GetForUpdate(ctx, req.OrganID)
		if err != nil {
			if stderrors.Is(err, sql.ErrNoRows) {
				return errors.NewNotFound("organ", err)
			}
			return errors.NewStorageFailure(err)
		}
		if organ.Status != model.OrganStatusAllocated {
			return errors.NewPrecondition(errors.ErrOrganNotAllocated, "organ is not allocated", map[string]interface{}{
				"organ_id": organ.ID,
				"status":   organ.Status,
			})
		}

		allocation, err := s.allocations.GetAcceptedByOrganAndRecipient(ctx, req.OrganID, req.RecipientID)
		if err != nil {
			if stderrors.Is(err, sql.ErrNoRows) {
				return errors.NewPrecondition(errors.ErrNoAcceptedAllocation, "no accepted allocation links this organ and recipient", map[string]interface{}{
					"organ_id":     req.OrganID,
					"recipient_id": req.RecipientID,
				})
			}
			return errors.NewStorageFailure(err)
		}

		capable, err := s.hospitals.HasCapability(ctx, req.HospitalID, organ.TypeName)
		if err != nil {
			return errors.NewStorageFailure(err)
		}
		if !capable {
			return errors.NewPrecondition(errors.ErrHospitalIncapable, "hospital cannot perform this transplant type", map[string]interface{}{
				"hospital_id": req.HospitalID,
				"type_name":   organ.TypeName,
			})
		}

		surgeon, err := s.surgeons.Get(ctx, req.SurgeonID)
		if err != nil {
			if stderrors.Is(err, sql.ErrNoRows) {
				return errors.NewNotFound("surgeon", err)
			}
			return errors.NewStorageFailure(err)
		}
		if surgeon.HospitalID != req.HospitalID {
			return errors.NewPrecondition(errors.ErrSurgeonMismatch, "surgeon does not practice at this hospital", map[string]interface{}{
				"surgeon_id":  surgeon.ID,
				"hospital_id": req.HospitalID,
			})
		}

		surgery = &model.Surgery{
			Base:        model.Base{ID: uuid.New()},
			HospitalID:  req.HospitalID,
			OrganID:     req.OrganID,
			RecipientID: req.RecipientID,
			SurgeonID:   req.SurgeonID,
			ScheduledAt: req.ScheduledAt,
			Outcome:     model.SurgeryOutcomeScheduled,
			Notes:       req.Notes,
		}
		if err := s.surgeries.Create(ctx, surgery); err != nil {
			return errors.NewStorageFailure(err)
		}
		if err := s.organs.UpdateStatus(ctx, organ.ID, model.OrganStatusTransplanted); err != nil {
			return errors.NewStorageFailure(err)
		}
		if err := s.recipients.UpdateStatus(ctx, req.RecipientID, model.RecipientStatusTransplanted); err != nil {
			return errors.NewStorageFailure(err)
		}

		followUp := &model.FollowUpAppointment{
			Base:        model.Base{ID: uuid.New()},
			SurgeryID:   surgery.ID,
			RecipientID: req.RecipientID,
			SurgeonID:   req.SurgeonID,
			ScheduledAt: req.ScheduledAt.Add(7 * 24 * time.Hour),
		}
		if err := s.followUps.Create(ctx, followUp); err != nil {
			return errors.NewStorageFailure(err)
		}

		s.writeAudit(ctx, model.AuditActionScheduleSurgery, model.AuditEntitySurgery, surgery.ID, map[string]interface{}{
			"organ_id":      req.OrganID,
			"recipient_id":  req.RecipientID,
			"hospital_id":   req.HospitalID,
			"surgeon_id":    req.SurgeonID,
			"allocation_id": allocation.ID,
		})
		s.emit(ctx, model.EventSurgeryScheduled, map[string]interface{}{
			"surgery_id":   surgery.ID,
			"organ_id":     req.OrganID,
			"recipient_id": req.RecipientID,
			"scheduled_at": req.ScheduledAt,
		})
		s.emit(ctx, model.EventFollowUpScheduled, map[string]interface{}{
			"follow_up_id": followUp.ID,
			"surgery_id":   surgery.ID,
			"scheduled_at": followUp.ScheduledAt,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("surgery scheduled", "surgery_id", surgery.ID, "organ_id", surgery.OrganID, "recipient_id", surgery.RecipientID)
	return surgery, nil
}

// UpdateOrganStatus applies a manual status change. Terminal organs never
// change again, and transplanted can only be reached through surgery
// scheduling.
func (s *Service) UpdateOrganStatus(ctx context.Context, organID uuid.UUID, status model.OrganStatus) (*model.Organ, error) {
	if status == model.OrganStatusTransplanted {
		return nil, errors.NewPrecondition(errors.ErrOrganNotAllocated, "transplanted is set by surgery scheduling only", map[string]interface{}{
			"organ_id": organID,
		})
	}

	now := s.now()
	var organ *model.Organ
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		organ, err = s.organs.GetForUpdate(ctx, organID)
		if err != nil {
			if stderrors.Is(err, sql.ErrNoRows) {
				return errors.NewNotFound("organ", err)
			}
			return errors.NewStorageFailure(err)
		}
		if organ.Status.Terminal() {
			return errors.NewPrecondition(errors.ErrTerminalStateViolation, "organ is in a terminal state", map[string]interface{}{
				"organ_id": organ.ID,
				"status":   organ.Status,
			})
		}
		if organ.Status == status {
			return nil
		}

		// Any move out of allocated voids the pending offer first.
		if organ.Status == model.OrganStatusAllocated {
			pending, err := s.allocations.GetPendingByOrgan(ctx, organ.ID)
			if err == nil {
				if err := s.allocations.UpdateStatus(ctx, pending.ID, model.AllocationStatusExpired, nil); err != nil {
					return errors.NewStorageFailure(err)
				}
				if err := s.reopenWaitlistEntry(ctx, pending.RecipientID, organ.TypeName); err != nil {
					return err
				}
				s.emit(ctx, model.EventAllocationExpired, map[string]interface{}{
					"allocation_id": pending.ID,
					"organ_id":      organ.ID,
				})
			} else if !stderrors.Is(err, sql.ErrNoRows) {
				return errors.NewStorageFailure(err)
			}
		}

		from := organ.Status
		if err := s.organs.UpdateStatus(ctx, organ.ID, status); err != nil {
			return errors.NewStorageFailure(err)
		}
		organ.Status = status

		s.writeAudit(ctx, model.AuditActionStatusChange, model.AuditEntityOrgan, organ.ID, map[string]interface{}{
			"from": from,
			"to":   status,
			"at":   now,
		})
		s.emit(ctx, model.EventOrganStatusChanged, map[string]interface{}{
			"organ_id": organ.ID,
			"from":     from,
			"to":       status,
		})
		if status == model.OrganStatusExpired {
			s.emit(ctx, model.EventOrganExpired, map[string]interface{}{
				"organ_id": organ.ID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return organ, nil
}

// AddToWaitlist opens a recipient's standing request for one organ type. A
// recipient holds at most one open entry per type.
func (s *Service) AddToWaitlist(ctx context.Context, req *model.AddToWaitlistRequest) (*model.WaitlistEntry, error) {
	now := s.now()

	recipient, err := s.recipients.Get(ctx, req.RecipientID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("recipient", err)
		}
		return nil, errors.NewStorageFailure(err)
	}
	if recipient.Status != model.RecipientStatusWaiting {
		return nil, errors.NewPrecondition(errors.ErrRecipientNotEligible, "recipient is not waiting", map[string]interface{}{
			"recipient_id": recipient.ID,
			"status":       recipient.Status,
		})
	}
	if _, err := s.organTypes.Get(ctx, req.TypeName); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("organ type", err)
		}
		return nil, errors.NewStorageFailure(err)
	}

	var entry *model.WaitlistEntry
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.waitlist.GetByRecipientAndType(ctx, req.RecipientID, req.TypeName)
		if err == nil && existing.Status != model.WaitlistStatusRemoved {
			return errors.NewPrecondition(errors.ErrDuplicateWaitlistEntry, "recipient already listed for this organ type", map[string]interface{}{
				"recipient_id": req.RecipientID,
				"type_name":    req.TypeName,
			})
		}
		if err != nil && !stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewStorageFailure(err)
		}

		entry = &model.WaitlistEntry{
			Base:        model.Base{ID: uuid.New()},
			RecipientID: req.RecipientID,
			TypeName:    req.TypeName,
			ListedAt:    now,
			Status:      model.WaitlistStatusWaiting,
			MELDScore:   req.MELDScore,
			CPRAScore:   req.CPRAScore,
		}
		entry.PriorityScore = s.priority.Compute(recipient, entry, now)

		if err := s.waitlist.Create(ctx, entry); err != nil {
			return errors.NewStorageFailure(err)
		}

		s.writeAudit(ctx, model.AuditActionCreate, model.AuditEntityWaitlist, entry.ID, map[string]interface{}{
			"recipient_id":   req.RecipientID,
			"type_name":      req.TypeName,
			"priority_score": entry.PriorityScore,
		})
		s.emit(ctx, model.EventWaitlistAdded, map[string]interface{}{
			"entry_id":     entry.ID,
			"recipient_id": req.RecipientID,
			"type_name":    req.TypeName,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RemoveFromWaitlist deletes a recipient's open entry for one organ type.
// Entries tied up in a pending offer cannot be removed until the offer
// resolves.
func (s *Service) RemoveFromWaitlist(ctx context.Context, recipientID uuid.UUID, typeName string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		entry, err := s.waitlist.GetForUpdate(ctx, recipientID, typeName)
		if err != nil {
			if stderrors.Is(err, sql.ErrNoRows) {
				return errors.NewPrecondition(errors.ErrNoActiveWaitlistEntry, "recipient has no entry for organ type", map[string]interface{}{
					"recipient_id": recipientID,
					"type_name":    typeName,
				})
			}
			return errors.NewStorageFailure(err)
		}
		if entry.Status == model.WaitlistStatusMatched {
			return errors.NewPrecondition(errors.ErrDuplicatePendingAllocation, "entry has a pending offer; resolve it first", map[string]interface{}{
				"recipient_id": recipientID,
				"type_name":    typeName,
			})
		}

		if err := s.waitlist.Delete(ctx, entry.ID); err != nil {
			return errors.NewStorageFailure(err)
		}

		s.writeAudit(ctx, model.AuditActionStatusChange, model.AuditEntityWaitlist, entry.ID, map[string]interface{}{
			"removed": true,
		})
		s.emit(ctx, model.EventWaitlistRemoved, map[string]interface{}{
			"entry_id":     entry.ID,
			"recipient_id": recipientID,
			"type_name":    typeName,
		})
		return nil
	})
}

// GetAvailableOrgansWithViability lists organs still in play (available or
// allocated to a pending offer) with viability evaluated at call time.
// Allocated organs stay visible because their window keeps closing while the
// care team deliberates. Organs whose window has closed show as expired in
// the report; the sweeper owns the status transition.
func (s *Service) GetAvailableOrgansWithViability(ctx context.Context) ([]*model.OrganWithViability, error) {
	organs, err := s.organs.ListByStatus(ctx, model.OrganStatusAvailable, model.OrganStatusAllocated)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}

	now := s.now()
	out := make([]*model.OrganWithViability, 0, len(organs))
	for _, organ := range organs {
		organType, err := s.organTypes.Get(ctx, organ.TypeName)
		if err != nil {
			return nil, errors.NewStorageFailure(err)
		}
		out = append(out, &model.OrganWithViability{
			Organ:     organ,
			Viability: viability.Evaluate(organ.ProcuredAt, organType, now),
		})
	}
	return out, nil
}

// GetOrganViability evaluates one organ's viability at call time.
func (s *Service) GetOrganViability(ctx context.Context, organID uuid.UUID) (*model.OrganWithViability, error) {
	organ, err := s.getOrgan(ctx, organID)
	if err != nil {
		return nil, err
	}
	organType, err := s.organTypes.Get(ctx, organ.TypeName)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	report := viability.Evaluate(organ.ProcuredAt, organType, s.now())
	return &model.OrganWithViability{Organ: organ, Viability: report}, nil
}

func (s *Service) GetWaitlist(ctx context.Context, filters *model.WaitlistFilters) ([]*model.WaitlistEntryDetail, error) {
	entries, err := s.waitlist.List(ctx, filters)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	return entries, nil
}

func (s *Service) GetAllocations(ctx context.Context, filters *model.AllocationFilters) ([]*model.Allocation, error) {
	allocations, err := s.allocations.List(ctx, filters)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	return allocations, nil
}

func (s *Service) GetAllocation(ctx context.Context, id uuid.UUID) (*model.Allocation, error) {
	allocation, err := s.allocations.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("allocation", err)
		}
		return nil, errors.NewStorageFailure(err)
	}
	return allocation, nil
}

// ExpireOverdueAllocations voids pending allocations whose response deadline
// passed. Each expiry runs in its own transaction so one failure does not
// block the rest of the sweep.
func (s *Service) ExpireOverdueAllocations(ctx context.Context, limit int) (int, error) {
	now := s.now()
	overdue, err := s.allocations.ListExpiredPending(ctx, now, limit)
	if err != nil {
		return 0, errors.NewStorageFailure(err)
	}

	expired := 0
	for _, stale := range overdue {
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			allocation, err := s.allocations.GetForUpdate(ctx, stale.ID)
			if err != nil {
				return errors.NewStorageFailure(err)
			}
			// Re-check under lock; a response may have landed since the list.
			if allocation.Status.Terminal() || !allocation.DeadlinePassed(now) {
				return nil
			}
			return s.expirePendingAllocation(ctx, allocation, now)
		})
		if err != nil {
			s.logger.Error(err, "failed to expire allocation", "allocation_id", stale.ID)
			continue
		}
		expired++
	}
	return expired, nil
}

// ExpireNonviableOrgans marks available or allocated organs whose viability
// window has closed as expired, voiding any pending offer on the way.
func (s *Service) ExpireNonviableOrgans(ctx context.Context) (int, error) {
	now := s.now()
	organs, err := s.organs.ListByStatus(ctx, model.OrganStatusAvailable, model.OrganStatusAllocated)
	if err != nil {
		return 0, errors.NewStorageFailure(err)
	}

	expired := 0
	for _, candidate := range organs {
		organType, err := s.organTypes.Get(ctx, candidate.TypeName)
		if err != nil {
			return expired, errors.NewStorageFailure(err)
		}
		if !viability.Expired(candidate, organType, now) {
			continue
		}
		if _, err := s.UpdateOrganStatus(ctx, candidate.ID, model.OrganStatusExpired); err != nil {
			// Lost a race with a surgery or another sweep; skip.
			if errors.IsCode(err, errors.ErrTerminalStateViolation) {
				continue
			}
			s.logger.Error(err, "failed to expire organ", "organ_id", candidate.ID)
			continue
		}
		expired++
	}
	return expired, nil
}

// expirePendingAllocation voids a pending allocation under lock: the organ
// returns to available and the waitlist entry reopens.
func (s *Service) expirePendingAllocation(ctx context.Context, allocation *model.Allocation, now time.Time) error {
	if err := s.allocations.UpdateStatus(ctx, allocation.ID, model.AllocationStatusExpired, nil); err != nil {
		return errors.NewStorageFailure(err)
	}
	if err := s.releaseOrgan(ctx, allocation); err != nil {
		return err
	}
	s.writeAudit(ctx, model.AuditActionExpire, model.AuditEntityAllocation, allocation.ID, map[string]interface{}{
		"response_deadline": allocation.ResponseDeadline,
		"expired_at":        now,
	})
	s.emit(ctx, model.EventAllocationExpired, map[string]interface{}{
		"allocation_id": allocation.ID,
		"organ_id":      allocation.OrganID,
		"recipient_id":  allocation.RecipientID,
	})
	return nil
}

// releaseOrgan puts a non-terminal organ back in the pool after a rejected or
// expired offer and reopens the recipient's waitlist entry.
func (s *Service) releaseOrgan(ctx context.Context, allocation *model.Allocation) error {
	organ, err := s.organs.Get(ctx, allocation.OrganID)
	if err != nil {
		return errors.NewStorageFailure(err)
	}
	if !organ.Status.Terminal() {
		if err := s.organs.UpdateStatus(ctx, organ.ID, model.OrganStatusAvailable); err != nil {
			return errors.NewStorageFailure(err)
		}
	}
	return s.reopenWaitlistEntry(ctx, allocation.RecipientID, organ.TypeName)
}

func (s *Service) reopenWaitlistEntry(ctx context.Context, recipientID uuid.UUID, typeName string) error {
	entry, err := s.waitlist.GetByRecipientAndType(ctx, recipientID, typeName)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return errors.NewStorageFailure(err)
	}
	if entry.Status != model.WaitlistStatusMatched {
		return nil
	}
	if err := s.waitlist.UpdateStatus(ctx, entry.ID, model.WaitlistStatusWaiting); err != nil {
		return errors.NewStorageFailure(err)
	}
	return nil
}

func (s *Service) getOrgan(ctx context.Context, organID uuid.UUID) (*model.Organ, error) {
	organ, err := s.organs.Get(ctx, organID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("organ", err)
		}
		return nil, errors.NewStorageFailure(err)
	}
	return organ, nil
}

func (s *Service) writeAudit(ctx context.Context, action, entityType string, entityID uuid.UUID, changes map[string]interface{}) {
	payload, err := json.Marshal(changes)
	if err != nil {
		return
	}
	if err := s.audit.Create(ctx, &model.AuditLog{
		ID:         uuid.New(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    payload,
	}); err != nil {
		s.logger.Error(err, "failed to write audit log", "action", action, "entity_id", entityID)
	}
}

func (s *Service) emit(ctx context.Context, eventType string, payload map[string]interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := s.outbox.Create(ctx, &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   raw,
		Status:    string(model.OutboxStatusPending),
	}); err != nil {
		s.logger.Error(err, "failed to enqueue outbox event", "event_type", eventType)
	}
}
