package allocation

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/transplant-api/internal/config"
	"github.com/jwalitptl/transplant-api/internal/model"
	"github.com/jwalitptl/transplant-api/internal/service/matching"
	"github.com/jwalitptl/transplant-api/internal/service/priority"
	"github.com/jwalitptl/transplant-api/pkg/errors"
	"github.com/jwalitptl/transplant-api/pkg/logger"
)

type fixture struct {
	store *memStore
	svc   *Service
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	policy := config.DefaultPolicy()

	waitlist := &memWaitlist{store: store}
	organTypes := &memOrganTypes{store: store}
	recipients := &memRecipients{store: store}
	audit := &memAudit{store: store}

	scorer := matching.NewScorer(policy)
	f := &fixture{
		store: store,
		now:   time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	}

	f.svc = NewService(Deps{
		Tx:          &memTx{store: store},
		Organs:      &memOrgans{store: store},
		OrganTypes:  organTypes,
		Donors:      &memDonors{store: store},
		Recipients:  recipients,
		Waitlist:    waitlist,
		Allocations: &memAllocations{store: store},
		Surgeries:   &memSurgeries{store: store},
		Hospitals:   &memHospitals{store: store},
		Surgeons:    &memSurgeons{store: store},
		FollowUps:   &memFollowUps{store: store},
		Audit:       audit,
		Outbox:      &memOutbox{store: store},
		Matcher:     matching.NewMatcher(waitlist, organTypes, scorer, policy.MatchResultLimit),
		Scorer:      scorer,
		Priority:    priority.NewEngine(waitlist, recipients, audit, policy),
		Policy:      policy,
		Logger: logger.NewLogger(&logger.Config{
			Level:      logger.ErrorLevel,
			TimeFormat: time.RFC3339,
			Output:     io.Discard,
		}),
	})
	f.svc.now = func() time.Time { return f.now }

	store.organTypes["kidney"] = &model.OrganType{Name: "kidney", TypicalViabilityHrs: 36}
	store.organTypes["heart"] = &model.OrganType{Name: "heart", TypicalViabilityHrs: 12}
	return f
}

func (f *fixture) addDonor(blood model.BloodType) *model.Donor {
	cleared := f.now.Add(-48 * time.Hour)
	donor := &model.Donor{
		Base:                 model.Base{ID: uuid.New()},
		Name:                 "donor",
		BloodType:            blood,
		Kind:                 model.DonorKindDeceased,
		Status:               model.DonorStatusDeceased,
		MedicalClearanceDate: &cleared,
	}
	f.store.donors[donor.ID] = donor
	return donor
}

func (f *fixture) addRecipient(name string, blood model.BloodType, urgency int) *model.Recipient {
	recipient := &model.Recipient{
		Base:         model.Base{ID: uuid.New()},
		Name:         name,
		BloodType:    blood,
		UrgencyLevel: urgency,
		Status:       model.RecipientStatusWaiting,
	}
	f.store.recipients[recipient.ID] = recipient
	return recipient
}

func (f *fixture) addOrgan(typeName string, donor *model.Donor, procuredAgo time.Duration) *model.Organ {
	organ := &model.Organ{
		Base:       model.Base{ID: uuid.New()},
		TypeName:   typeName,
		DonorID:    donor.ID,
		ProcuredAt: f.now.Add(-procuredAgo),
		Status:     model.OrganStatusAvailable,
		DonorBlood: donor.BloodType,
	}
	f.store.organs[organ.ID] = organ
	return organ
}

func (f *fixture) addWaitlistEntry(recipient *model.Recipient, typeName string, listedAgo time.Duration) *model.WaitlistEntry {
	entry := &model.WaitlistEntry{
		Base:        model.Base{ID: uuid.New()},
		RecipientID: recipient.ID,
		TypeName:    typeName,
		ListedAt:    f.now.Add(-listedAgo),
		Status:      model.WaitlistStatusWaiting,
	}
	f.store.waitlist[entry.ID] = entry
	return entry
}

func (f *fixture) addHospitalWithSurgeon(typeName string) (*model.Hospital, *model.Surgeon) {
	hospital := &model.Hospital{Base: model.Base{ID: uuid.New()}, Name: "general"}
	f.store.hospitals[hospital.ID] = hospital
	f.store.capabilities[hospital.ID] = map[string]bool{typeName: true}
	surgeon := &model.Surgeon{
		Base:           model.Base{ID: uuid.New()},
		HospitalID:     hospital.ID,
		Name:           "surgeon",
		Specialization: model.SpecializationTransplantSurgeon,
	}
	f.store.surgeons[surgeon.ID] = surgeon
	return hospital, surgeon
}

func TestRecordOrganProcurement(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	recipient := f.addRecipient("alice", "A+", 4)
	f.addWaitlistEntry(recipient, "kidney", 60*24*time.Hour)

	organ, candidates, err := f.svc.RecordOrganProcurement(context.Background(), &model.RecordProcurementRequest{
		DonorID:    donor.ID,
		TypeName:   "kidney",
		ProcuredAt: f.now.Add(-time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrganStatusAvailable, organ.Status)
	assert.Equal(t, donor.BloodType, organ.DonorBlood)
	require.Len(t, candidates, 1)
	assert.Equal(t, recipient.ID, candidates[0].RecipientID)

	assert.True(t, f.store.hasEvent(model.EventOrganProcured))
	assert.True(t, f.store.hasEvent(model.EventMatchRunCompleted))
}

func TestRecordOrganProcurementFutureDate(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")

	_, _, err := f.svc.RecordOrganProcurement(context.Background(), &model.RecordProcurementRequest{
		DonorID:    donor.ID,
		TypeName:   "kidney",
		ProcuredAt: f.now.Add(time.Hour),
	})
	assert.True(t, errors.IsCode(err, errors.ErrInvalidDate))
}

func TestRecordOrganProcurementUnclearedDonor(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	donor.MedicalClearanceDate = nil

	_, _, err := f.svc.RecordOrganProcurement(context.Background(), &model.RecordProcurementRequest{
		DonorID:    donor.ID,
		TypeName:   "kidney",
		ProcuredAt: f.now.Add(-time.Hour),
	})
	assert.True(t, errors.IsCode(err, errors.ErrDonorNotEligible))
}

func TestRequestAllocation(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("kidney", donor, 2*time.Hour)
	recipient := f.addRecipient("alice", "A+", 4)
	entry := f.addWaitlistEntry(recipient, "kidney", 90*24*time.Hour)

	allocation, err := f.svc.RequestAllocation(context.Background(), &model.RequestAllocationRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, model.AllocationStatusPending, allocation.Status)
	assert.Equal(t, f.now.Add(24*time.Hour), allocation.ResponseDeadline)
	assert.Greater(t, allocation.MatchScore, 0.0)
	assert.Equal(t, model.OrganStatusAllocated, organ.Status)
	assert.Equal(t, model.WaitlistStatusMatched, entry.Status)
	assert.True(t, f.store.hasEvent(model.EventAllocationCreated))
}

func TestRequestAllocationOrganNotAvailable(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("kidney", donor, 2*time.Hour)
	organ.Status = model.OrganStatusAllocated
	recipient := f.addRecipient("alice", "A+", 4)
	f.addWaitlistEntry(recipient, "kidney", 24*time.Hour)

	_, err := f.svc.RequestAllocation(context.Background(), &model.RequestAllocationRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
	})
	assert.True(t, errors.IsCode(err, errors.ErrOrganUnavailable))
}

func TestRequestAllocationExpiredWindow(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("heart", donor, 13*time.Hour)
	recipient := f.addRecipient("alice", "A+", 4)
	f.addWaitlistEntry(recipient, "heart", 24*time.Hour)

	_, err := f.svc.RequestAllocation(context.Background(), &model.RequestAllocationRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
	})
	assert.True(t, errors.IsCode(err, errors.ErrOrganNotEligible))
}

func TestRequestAllocationNoWaitlistEntry(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("kidney", donor, 2*time.Hour)
	recipient := f.addRecipient("alice", "A+", 4)

	_, err := f.svc.RequestAllocation(context.Background(), &model.RequestAllocationRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
	})
	assert.True(t, errors.IsCode(err, errors.ErrNoActiveWaitlistEntry))
}

func TestRequestAllocationConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O-")
	organ := f.addOrgan("kidney", donor, 2*time.Hour)

	const racers = 8
	recipients := make([]*model.Recipient, racers)
	for i := range recipients {
		recipients[i] = f.addRecipient("r", "O-", 3)
		f.addWaitlistEntry(recipients[i], "kidney", 30*24*time.Hour)
	}

	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.svc.RequestAllocation(context.Background(), &model.RequestAllocationRequest{
				OrganID:     organ.ID,
				RecipientID: recipients[i].ID,
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.True(t, errors.IsCode(err, errors.ErrOrganUnavailable),
				"losers must see the organ as unavailable, got %v", err)
		}
	}
	assert.Equal(t, 1, winners, "exactly one request may win the organ")
	assert.Equal(t, model.OrganStatusAllocated, organ.Status)
}

func TestRespondToAllocationAccept(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("kidney", donor, 2*time.Hour)
	recipient := f.addRecipient("alice", "A+", 4)
	f.addWaitlistEntry(recipient, "kidney", 24*time.Hour)

	allocation, err := f.svc.RequestAllocation(context.Background(), &model.RequestAllocationRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
	})
	require.NoError(t, err)

	responded, err := f.svc.RespondToAllocation(context.Background(), allocation.ID, model.AllocationDecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, model.AllocationStatusAccepted, responded.Status)
	require.NotNil(t, responded.RespondedAt)
	assert.Equal(t, model.OrganStatusAllocated, organ.Status, "accepted organ stays allocated until surgery")
	assert.True(t, f.store.hasEvent(model.EventAllocationAccepted))
}

func TestRespondToAllocationReject(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("kidney", donor, 2*time.Hour)
	recipient := f.addRecipient("alice", "A+", 4)
	entry := f.addWaitlistEntry(recipient, "kidney", 24*time.Hour)

	allocation, err := f.svc.RequestAllocation(context.Background(), &model.RequestAllocationRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
	})
	require.NoError(t, err)

	responded, err := f.svc.RespondToAllocation(context.Background(), allocation.ID, model.AllocationDecisionReject)
	require.NoError(t, err)
	assert.Equal(t, model.AllocationStatusRejected, responded.Status)
	assert.Equal(t, model.OrganStatusAvailable, organ.Status, "rejected organ returns to the pool")
	assert.Equal(t, model.WaitlistStatusWaiting, entry.Status, "entry reopens after rejection")
	assert.True(t, f.store.hasEvent(model.EventAllocationRejected))
}

func TestRespondToAllocationAcceptRecipientNoLongerWaiting(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("kidney", donor, 2*time.Hour)
	recipient := f.addRecipient("alice", "A+", 4)
	f.addWaitlistEntry(recipient, "kidney", 24*time.Hour)

	allocation, err := f.svc.RequestAllocation(context.Background(), &model.RequestAllocationRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
	})
	require.NoError(t, err)

	// The recipient dies while the offer is pending
	recipient.Status = model.RecipientStatusDeceased

	_, err = f.svc.RespondToAllocation(context.Background(), allocation.ID, model.AllocationDecisionAccept)
	assert.True(t, errors.IsCode(err, errors.ErrRecipientNotEligible), "got %v", err)
	assert.Equal(t, model.AllocationStatusPending, f.store.allocations[allocation.ID].Status)
	assert.False(t, f.store.hasEvent(model.EventAllocationAccepted))
}

func TestRespondToAllocationTwiceFails(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("kidney", donor, 2*time.Hour)
	recipient := f.addRecipient("alice", "A+", 4)
	f.addWaitlistEntry(recipient, "kidney", 24*time.Hour)

	allocation, err := f.svc.RequestAllocation(context.Background(), &model.RequestAllocationRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
	})
	require.NoError(t, err)

	_, err = f.svc.RespondToAllocation(context.Background(), allocation.ID, model.AllocationDecisionAccept)
	require.NoError(t, err)

	_, err = f.svc.RespondToAllocation(context.Background(), allocation.ID, model.AllocationDecisionReject)
	assert.True(t, errors.IsCode(err, errors.ErrTerminalStateViolation))
}

func TestRespondToAllocationAfterDeadline(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("kidney", donor, 2*time.Hour)
	recipient := f.addRecipient("alice", "A+", 4)
	entry := f.addWaitlistEntry(recipient, "kidney", 24*time.Hour)

	allocation, err := f.svc.RequestAllocation(context.Background(), &model.RequestAllocationRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
	})
	require.NoError(t, err)

	f.now = f.now.Add(25 * time.Hour)

	_, err = f.svc.RespondToAllocation(context.Background(), allocation.ID, model.AllocationDecisionAccept)
	assert.True(t, errors.IsCode(err, errors.ErrDeadlinePassed))

	// The late response still expires the offer
	assert.Equal(t, model.AllocationStatusExpired, f.store.allocations[allocation.ID].Status)
	assert.Equal(t, model.OrganStatusAvailable, organ.Status)
	assert.Equal(t, model.WaitlistStatusWaiting, entry.Status)
	assert.True(t, f.store.hasEvent(model.EventAllocationExpired))
}

func TestScheduleSurgeryCascade(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("kidney", donor, 2*time.Hour)
	recipient := f.addRecipient("alice", "A+", 4)
	f.addWaitlistEntry(recipient, "kidney", 24*time.Hour)
	hospital, surgeon := f.addHospitalWithSurgeon("kidney")

	allocation, err := f.svc.RequestAllocation(context.Background(), &model.RequestAllocationRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
	})
	require.NoError(t, err)
	_, err = f.svc.RespondToAllocation(context.Background(), allocation.ID, model.AllocationDecisionAccept)
	require.NoError(t, err)

	scheduledAt := f.now.Add(48 * time.Hour)
	surgery, err := f.svc.ScheduleSurgery(context.Background(), &model.ScheduleSurgeryRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
		HospitalID:  hospital.ID,
		SurgeonID:   surgeon.ID,
		ScheduledAt: scheduledAt,
	})
	require.NoError(t, err)

	assert.Equal(t, model.SurgeryOutcomeScheduled, surgery.Outcome)
	assert.Equal(t, model.OrganStatusTransplanted, organ.Status)
	assert.Equal(t, model.RecipientStatusTransplanted, recipient.Status)

	require.Len(t, f.store.followUps, 1)
	assert.Equal(t, surgery.ID, f.store.followUps[0].SurgeryID)
	assert.Equal(t, scheduledAt.Add(7*24*time.Hour), f.store.followUps[0].ScheduledAt)

	assert.True(t, f.store.hasEvent(model.EventSurgeryScheduled))
	assert.True(t, f.store.hasEvent(model.EventFollowUpScheduled))
}

func TestScheduleSurgeryWithoutAcceptedAllocation(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("kidney", donor, 2*time.Hour)
	organ.Status = model.OrganStatusAllocated
	recipient := f.addRecipient("alice", "A+", 4)
	hospital, surgeon := f.addHospitalWithSurgeon("kidney")

	_, err := f.svc.ScheduleSurgery(context.Background(), &model.ScheduleSurgeryRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
		HospitalID:  hospital.ID,
		SurgeonID:   surgeon.ID,
		ScheduledAt: f.now.Add(24 * time.Hour),
	})
	assert.True(t, errors.IsCode(err, errors.ErrNoAcceptedAllocation))
}

func TestScheduleSurgeryHospitalIncapable(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("heart", donor, time.Hour)
	recipient := f.addRecipient("alice", "A+", 4)
	f.addWaitlistEntry(recipient, "heart", 24*time.Hour)
	hospital, surgeon := f.addHospitalWithSurgeon("kidney") // no heart program

	allocation, err := f.svc.RequestAllocation(context.Background(), &model.RequestAllocationRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
	})
	require.NoError(t, err)
	_, err = f.svc.RespondToAllocation(context.Background(), allocation.ID, model.AllocationDecisionAccept)
	require.NoError(t, err)

	_, err = f.svc.ScheduleSurgery(context.Background(), &model.ScheduleSurgeryRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
		HospitalID:  hospital.ID,
		SurgeonID:   surgeon.ID,
		ScheduledAt: f.now.Add(2 * time.Hour),
	})
	assert.True(t, errors.IsCode(err, errors.ErrHospitalIncapable))
}

func TestScheduleSurgerySurgeonMismatch(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("kidney", donor, 2*time.Hour)
	recipient := f.addRecipient("alice", "A+", 4)
	f.addWaitlistEntry(recipient, "kidney", 24*time.Hour)
	hospital, _ := f.addHospitalWithSurgeon("kidney")
	_, otherSurgeon := f.addHospitalWithSurgeon("kidney")

	allocation, err := f.svc.RequestAllocation(context.Background(), &model.RequestAllocationRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
	})
	require.NoError(t, err)
	_, err = f.svc.RespondToAllocation(context.Background(), allocation.ID, model.AllocationDecisionAccept)
	require.NoError(t, err)

	_, err = f.svc.ScheduleSurgery(context.Background(), &model.ScheduleSurgeryRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
		HospitalID:  hospital.ID,
		SurgeonID:   otherSurgeon.ID,
		ScheduledAt: f.now.Add(24 * time.Hour),
	})
	assert.True(t, errors.IsCode(err, errors.ErrSurgeonMismatch))
}

func TestScheduleSurgeryInPast(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ScheduleSurgery(context.Background(), &model.ScheduleSurgeryRequest{
		OrganID:     uuid.New(),
		RecipientID: uuid.New(),
		HospitalID:  uuid.New(),
		SurgeonID:   uuid.New(),
		ScheduledAt: f.now.Add(-time.Hour),
	})
	assert.True(t, errors.IsCode(err, errors.ErrInvalidDate))
}

func TestUpdateOrganStatusTerminalGuard(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("kidney", donor, 2*time.Hour)
	organ.Status = model.OrganStatusTransplanted

	_, err := f.svc.UpdateOrganStatus(context.Background(), organ.ID, model.OrganStatusAvailable)
	assert.True(t, errors.IsCode(err, errors.ErrTerminalStateViolation))
}

func TestUpdateOrganStatusTransplantedRejected(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("kidney", donor, 2*time.Hour)

	_, err := f.svc.UpdateOrganStatus(context.Background(), organ.ID, model.OrganStatusTransplanted)
	assert.True(t, errors.IsCode(err, errors.ErrOrganNotAllocated))
	assert.Equal(t, model.OrganStatusAvailable, organ.Status)
}

func TestUpdateOrganStatusExpireVoidsPendingOffer(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("kidney", donor, 2*time.Hour)
	recipient := f.addRecipient("alice", "A+", 4)
	entry := f.addWaitlistEntry(recipient, "kidney", 24*time.Hour)

	allocation, err := f.svc.RequestAllocation(context.Background(), &model.RequestAllocationRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateOrganStatus(context.Background(), organ.ID, model.OrganStatusExpired)
	require.NoError(t, err)
	assert.Equal(t, model.OrganStatusExpired, updated.Status)
	assert.Equal(t, model.AllocationStatusExpired, f.store.allocations[allocation.ID].Status)
	assert.Equal(t, model.WaitlistStatusWaiting, entry.Status)
	assert.True(t, f.store.hasEvent(model.EventOrganExpired))
}

func TestUpdateOrganStatusToAvailableVoidsPendingOffer(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("kidney", donor, 2*time.Hour)
	recipient := f.addRecipient("alice", "A+", 4)
	entry := f.addWaitlistEntry(recipient, "kidney", 24*time.Hour)

	allocation, err := f.svc.RequestAllocation(context.Background(), &model.RequestAllocationRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateOrganStatus(context.Background(), organ.ID, model.OrganStatusAvailable)
	require.NoError(t, err)
	assert.Equal(t, model.OrganStatusAvailable, updated.Status)
	assert.Equal(t, model.AllocationStatusExpired, f.store.allocations[allocation.ID].Status,
		"pulling an organ back to the pool must void the pending offer")
	assert.Equal(t, model.WaitlistStatusWaiting, entry.Status)
	assert.True(t, f.store.hasEvent(model.EventAllocationExpired))
}

func TestAddToWaitlist(t *testing.T) {
	f := newFixture(t)
	recipient := f.addRecipient("alice", "A+", 4)

	entry, err := f.svc.AddToWaitlist(context.Background(), &model.AddToWaitlistRequest{
		RecipientID: recipient.ID,
		TypeName:    "kidney",
		MELDScore:   20,
	})
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistStatusWaiting, entry.Status)
	assert.Equal(t, f.now, entry.ListedAt)
	assert.Greater(t, entry.PriorityScore, 0.0)
	assert.True(t, f.store.hasEvent(model.EventWaitlistAdded))
}

func TestAddToWaitlistDuplicate(t *testing.T) {
	f := newFixture(t)
	recipient := f.addRecipient("alice", "A+", 4)
	f.addWaitlistEntry(recipient, "kidney", time.Hour)

	_, err := f.svc.AddToWaitlist(context.Background(), &model.AddToWaitlistRequest{
		RecipientID: recipient.ID,
		TypeName:    "kidney",
	})
	assert.True(t, errors.IsCode(err, errors.ErrDuplicateWaitlistEntry))
}

func TestAddToWaitlistRecipientNotWaiting(t *testing.T) {
	f := newFixture(t)
	recipient := f.addRecipient("alice", "A+", 4)
	recipient.Status = model.RecipientStatusTransplanted

	_, err := f.svc.AddToWaitlist(context.Background(), &model.AddToWaitlistRequest{
		RecipientID: recipient.ID,
		TypeName:    "kidney",
	})
	assert.True(t, errors.IsCode(err, errors.ErrRecipientNotEligible))
}

func TestRemoveFromWaitlistRoundTrip(t *testing.T) {
	f := newFixture(t)
	recipient := f.addRecipient("alice", "A+", 4)

	_, err := f.svc.AddToWaitlist(context.Background(), &model.AddToWaitlistRequest{
		RecipientID: recipient.ID,
		TypeName:    "kidney",
	})
	require.NoError(t, err)

	err = f.svc.RemoveFromWaitlist(context.Background(), recipient.ID, "kidney")
	require.NoError(t, err)

	// A removed recipient can list again for the same type
	_, err = f.svc.AddToWaitlist(context.Background(), &model.AddToWaitlistRequest{
		RecipientID: recipient.ID,
		TypeName:    "kidney",
	})
	assert.NoError(t, err)
}

func TestRemoveFromWaitlistMissing(t *testing.T) {
	f := newFixture(t)
	err := f.svc.RemoveFromWaitlist(context.Background(), uuid.New(), "kidney")
	assert.True(t, errors.IsCode(err, errors.ErrNoActiveWaitlistEntry))
}

func TestRemoveFromWaitlistBlockedByPendingOffer(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("kidney", donor, 2*time.Hour)
	recipient := f.addRecipient("alice", "A+", 4)
	f.addWaitlistEntry(recipient, "kidney", 24*time.Hour)

	_, err := f.svc.RequestAllocation(context.Background(), &model.RequestAllocationRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
	})
	require.NoError(t, err)

	err = f.svc.RemoveFromWaitlist(context.Background(), recipient.ID, "kidney")
	assert.True(t, errors.IsCode(err, errors.ErrDuplicatePendingAllocation))
}

func TestExpireOverdueAllocations(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	organ := f.addOrgan("kidney", donor, 2*time.Hour)
	recipient := f.addRecipient("alice", "A+", 4)
	entry := f.addWaitlistEntry(recipient, "kidney", 24*time.Hour)

	allocation, err := f.svc.RequestAllocation(context.Background(), &model.RequestAllocationRequest{
		OrganID:     organ.ID,
		RecipientID: recipient.ID,
	})
	require.NoError(t, err)

	// Still inside the window: nothing to expire
	expired, err := f.svc.ExpireOverdueAllocations(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	f.now = f.now.Add(25 * time.Hour)
	expired, err = f.svc.ExpireOverdueAllocations(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	assert.Equal(t, model.AllocationStatusExpired, f.store.allocations[allocation.ID].Status)
	assert.Equal(t, model.OrganStatusAvailable, organ.Status)
	assert.Equal(t, model.WaitlistStatusWaiting, entry.Status)
}

func TestExpireNonviableOrgans(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	fresh := f.addOrgan("kidney", donor, 2*time.Hour)
	stale := f.addOrgan("heart", donor, 13*time.Hour)

	expired, err := f.svc.ExpireNonviableOrgans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, model.OrganStatusAvailable, fresh.Status)
	assert.Equal(t, model.OrganStatusExpired, stale.Status)
}

func TestGetAvailableOrgansWithViability(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	f.addOrgan("kidney", donor, 9*time.Hour)
	stale := f.addOrgan("heart", donor, 13*time.Hour)

	organs, err := f.svc.GetAvailableOrgansWithViability(context.Background())
	require.NoError(t, err)
	require.Len(t, organs, 2)

	for _, o := range organs {
		if o.Organ.ID == stale.ID {
			assert.Equal(t, model.ViabilityExpired, o.Viability.Status)
		} else {
			assert.Equal(t, model.ViabilityNormal, o.Viability.Status)
			assert.InDelta(t, 75.0, o.Viability.Percentage, 0.001)
		}
	}
}

func TestGetAvailableOrgansWithViabilityIncludesAllocated(t *testing.T) {
	f := newFixture(t)
	donor := f.addDonor("O+")
	available := f.addOrgan("kidney", donor, 2*time.Hour)
	allocated := f.addOrgan("kidney", donor, 3*time.Hour)
	allocated.Status = model.OrganStatusAllocated
	gone := f.addOrgan("kidney", donor, 4*time.Hour)
	gone.Status = model.OrganStatusTransplanted

	organs, err := f.svc.GetAvailableOrgansWithViability(context.Background())
	require.NoError(t, err)
	require.Len(t, organs, 2)

	ids := []uuid.UUID{organs[0].Organ.ID, organs[1].Organ.ID}
	assert.Contains(t, ids, available.ID)
	assert.Contains(t, ids, allocated.ID, "organs under a pending offer stay visible")
}
