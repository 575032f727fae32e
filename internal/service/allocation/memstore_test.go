package allocation

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/model"
)

// memStore is a shared in-memory backing store for the fake repositories. Its
// transaction manager serializes WithinTx calls with a mutex, standing in for
// the row locks the real store takes.
type memStore struct {
	mu           sync.Mutex
	donors       map[uuid.UUID]*model.Donor
	recipients   map[uuid.UUID]*model.Recipient
	organTypes   map[string]*model.OrganType
	organs       map[uuid.UUID]*model.Organ
	waitlist     map[uuid.UUID]*model.WaitlistEntry
	allocations  map[uuid.UUID]*model.Allocation
	surgeries    map[uuid.UUID]*model.Surgery
	hospitals    map[uuid.UUID]*model.Hospital
	capabilities map[uuid.UUID]map[string]bool
	surgeons     map[uuid.UUID]*model.Surgeon
	followUps    []*model.FollowUpAppointment
	audits       []*model.AuditLog
	events       []*model.OutboxEvent
}

func newMemStore() *memStore {
	return &memStore{
		donors:       make(map[uuid.UUID]*model.Donor),
		recipients:   make(map[uuid.UUID]*model.Recipient),
		organTypes:   make(map[string]*model.OrganType),
		organs:       make(map[uuid.UUID]*model.Organ),
		waitlist:     make(map[uuid.UUID]*model.WaitlistEntry),
		allocations:  make(map[uuid.UUID]*model.Allocation),
		surgeries:    make(map[uuid.UUID]*model.Surgery),
		hospitals:    make(map[uuid.UUID]*model.Hospital),
		capabilities: make(map[uuid.UUID]map[string]bool),
		surgeons:     make(map[uuid.UUID]*model.Surgeon),
	}
}

func (s *memStore) eventTypes() []string {
	var out []string
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

func (s *memStore) hasEvent(eventType string) bool {
	for _, e := range s.events {
		if e.EventType == eventType {
			return true
		}
	}
	return false
}

type memTx struct{ store *memStore }

func (t *memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return fn(ctx)
}

type memDonors struct{ store *memStore }

func (r *memDonors) Create(_ context.Context, donor *model.Donor) error {
	r.store.donors[donor.ID] = donor
	return nil
}
func (r *memDonors) Get(_ context.Context, id uuid.UUID) (*model.Donor, error) {
	donor, ok := r.store.donors[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return donor, nil
}
func (r *memDonors) Update(_ context.Context, donor *model.Donor) error {
	r.store.donors[donor.ID] = donor
	return nil
}
func (r *memDonors) List(_ context.Context, status model.DonorStatus) ([]*model.Donor, error) {
	var out []*model.Donor
	for _, d := range r.store.donors {
		if status == "" || d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}

type memRecipients struct{ store *memStore }

func (r *memRecipients) Create(_ context.Context, recipient *model.Recipient) error {
	r.store.recipients[recipient.ID] = recipient
	return nil
}
func (r *memRecipients) Get(_ context.Context, id uuid.UUID) (*model.Recipient, error) {
	recipient, ok := r.store.recipients[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return recipient, nil
}
func (r *memRecipients) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Recipient, error) {
	return r.Get(ctx, id)
}
func (r *memRecipients) Update(_ context.Context, recipient *model.Recipient) error {
	r.store.recipients[recipient.ID] = recipient
	return nil
}
func (r *memRecipients) UpdateStatus(_ context.Context, id uuid.UUID, status model.RecipientStatus) error {
	recipient, ok := r.store.recipients[id]
	if !ok {
		return sql.ErrNoRows
	}
	recipient.Status = status
	return nil
}
func (r *memRecipients) List(_ context.Context, status model.RecipientStatus) ([]*model.Recipient, error) {
	var out []*model.Recipient
	for _, rec := range r.store.recipients {
		if status == "" || rec.Status == status {
			out = append(out, rec)
		}
	}
	return out, nil
}
func (r *memRecipients) ListCritical(_ context.Context, minUrgency int) ([]*model.CriticalRecipient, error) {
	return nil, nil
}
func (r *memRecipients) WaitTimeStats(_ context.Context) ([]*model.WaitTimeStats, error) {
	return nil, nil
}

type memOrganTypes struct{ store *memStore }

func (r *memOrganTypes) Get(_ context.Context, name string) (*model.OrganType, error) {
	organType, ok := r.store.organTypes[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return organType, nil
}
func (r *memOrganTypes) List(_ context.Context) ([]*model.OrganType, error) {
	var out []*model.OrganType
	for _, ot := range r.store.organTypes {
		out = append(out, ot)
	}
	return out, nil
}

type memOrgans struct{ store *memStore }

func (r *memOrgans) Create(_ context.Context, organ *model.Organ) error {
	r.store.organs[organ.ID] = organ
	return nil
}
func (r *memOrgans) Get(_ context.Context, id uuid.UUID) (*model.Organ, error) {
	organ, ok := r.store.organs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return organ, nil
}
func (r *memOrgans) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Organ, error) {
	return r.Get(ctx, id)
}
func (r *memOrgans) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrganStatus) error {
	organ, ok := r.store.organs[id]
	if !ok {
		return sql.ErrNoRows
	}
	organ.Status = status
	return nil
}
func (r *memOrgans) ListByStatus(_ context.Context, statuses ...model.OrganStatus) ([]*model.Organ, error) {
	var out []*model.Organ
	for _, organ := range r.store.organs {
		for _, s := range statuses {
			if organ.Status == s {
				out = append(out, organ)
				break
			}
		}
	}
	return out, nil
}

type memWaitlist struct{ store *memStore }

func (r *memWaitlist) Create(_ context.Context, entry *model.WaitlistEntry) error {
	r.store.waitlist[entry.ID] = entry
	return nil
}
func (r *memWaitlist) Get(_ context.Context, id uuid.UUID) (*model.WaitlistEntry, error) {
	entry, ok := r.store.waitlist[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return entry, nil
}
func (r *memWaitlist) GetByRecipientAndType(_ context.Context, recipientID uuid.UUID, typeName string) (*model.WaitlistEntry, error) {
	for _, entry := range r.store.waitlist {
		if entry.RecipientID == recipientID && entry.TypeName == typeName {
			return entry, nil
		}
	}
	return nil, sql.ErrNoRows
}
func (r *memWaitlist) GetForUpdate(ctx context.Context, recipientID uuid.UUID, typeName string) (*model.WaitlistEntry, error) {
	return r.GetByRecipientAndType(ctx, recipientID, typeName)
}
func (r *memWaitlist) UpdateStatus(_ context.Context, id uuid.UUID, status model.WaitlistStatus) error {
	entry, ok := r.store.waitlist[id]
	if !ok {
		return sql.ErrNoRows
	}
	entry.Status = status
	return nil
}
func (r *memWaitlist) UpdatePriority(_ context.Context, id uuid.UUID, score float64) error {
	entry, ok := r.store.waitlist[id]
	if !ok {
		return sql.ErrNoRows
	}
	entry.PriorityScore = score
	return nil
}
func (r *memWaitlist) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.store.waitlist, id)
	return nil
}
func (r *memWaitlist) List(_ context.Context, filters *model.WaitlistFilters) ([]*model.WaitlistEntryDetail, error) {
	var out []*model.WaitlistEntryDetail
	for _, entry := range r.store.waitlist {
		if filters != nil {
			if filters.TypeName != "" && entry.TypeName != filters.TypeName {
				continue
			}
			if filters.RecipientID != uuid.Nil && entry.RecipientID != filters.RecipientID {
				continue
			}
			if filters.Status != "" && entry.Status != filters.Status {
				continue
			}
		}
		out = append(out, r.detail(entry))
	}
	return out, nil
}
func (r *memWaitlist) ListEligibleForMatch(_ context.Context, typeName string) ([]*model.WaitlistEntryDetail, error) {
	var out []*model.WaitlistEntryDetail
	for _, entry := range r.store.waitlist {
		if entry.TypeName != typeName || entry.Status != model.WaitlistStatusWaiting {
			continue
		}
		recipient := r.store.recipients[entry.RecipientID]
		if recipient == nil || recipient.Status != model.RecipientStatusWaiting {
			continue
		}
		out = append(out, r.detail(entry))
	}
	return out, nil
}
func (r *memWaitlist) ListOpenByRecipient(_ context.Context, recipientID uuid.UUID) ([]*model.WaitlistEntry, error) {
	var out []*model.WaitlistEntry
	for _, entry := range r.store.waitlist {
		if entry.RecipientID == recipientID && entry.Status == model.WaitlistStatusWaiting {
			out = append(out, entry)
		}
	}
	return out, nil
}
func (r *memWaitlist) detail(entry *model.WaitlistEntry) *model.WaitlistEntryDetail {
	detail := &model.WaitlistEntryDetail{WaitlistEntry: *entry}
	if recipient := r.store.recipients[entry.RecipientID]; recipient != nil {
		detail.RecipientName = recipient.Name
		detail.RecipientBlood = recipient.BloodType
		detail.RecipientStatus = recipient.Status
		detail.UrgencyLevel = recipient.UrgencyLevel
	}
	return detail
}

type memAllocations struct{ store *memStore }

func (r *memAllocations) Create(_ context.Context, allocation *model.Allocation) error {
	r.store.allocations[allocation.ID] = allocation
	return nil
}
func (r *memAllocations) Get(_ context.Context, id uuid.UUID) (*model.Allocation, error) {
	allocation, ok := r.store.allocations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return allocation, nil
}
func (r *memAllocations) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Allocation, error) {
	return r.Get(ctx, id)
}
func (r *memAllocations) GetPendingByOrgan(_ context.Context, organID uuid.UUID) (*model.Allocation, error) {
	for _, a := range r.store.allocations {
		if a.OrganID == organID && a.Status == model.AllocationStatusPending {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}
func (r *memAllocations) GetAcceptedByOrganAndRecipient(_ context.Context, organID, recipientID uuid.UUID) (*model.Allocation, error) {
	for _, a := range r.store.allocations {
		if a.OrganID == organID && a.RecipientID == recipientID && a.Status == model.AllocationStatusAccepted {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}
func (r *memAllocations) UpdateStatus(_ context.Context, id uuid.UUID, status model.AllocationStatus, respondedAt *time.Time) error {
	allocation, ok := r.store.allocations[id]
	if !ok {
		return sql.ErrNoRows
	}
	allocation.Status = status
	allocation.RespondedAt = respondedAt
	return nil
}
func (r *memAllocations) List(_ context.Context, filters *model.AllocationFilters) ([]*model.Allocation, error) {
	var out []*model.Allocation
	for _, a := range r.store.allocations {
		if filters != nil {
			if filters.OrganID != uuid.Nil && a.OrganID != filters.OrganID {
				continue
			}
			if filters.RecipientID != uuid.Nil && a.RecipientID != filters.RecipientID {
				continue
			}
			if filters.Status != "" && a.Status != filters.Status {
				continue
			}
		}
		out = append(out, a)
	}
	return out, nil
}
func (r *memAllocations) ListExpiredPending(_ context.Context, now time.Time, limit int) ([]*model.Allocation, error) {
	var out []*model.Allocation
	for _, a := range r.store.allocations {
		if a.Status == model.AllocationStatusPending && a.ResponseDeadline.Before(now) {
			out = append(out, a)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type memSurgeries struct{ store *memStore }

func (r *memSurgeries) Create(_ context.Context, surgery *model.Surgery) error {
	r.store.surgeries[surgery.ID] = surgery
	return nil
}
func (r *memSurgeries) Get(_ context.Context, id uuid.UUID) (*model.Surgery, error) {
	surgery, ok := r.store.surgeries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return surgery, nil
}
func (r *memSurgeries) List(_ context.Context) ([]*model.Surgery, error) {
	var out []*model.Surgery
	for _, s := range r.store.surgeries {
		out = append(out, s)
	}
	return out, nil
}
func (r *memSurgeries) HospitalStats(_ context.Context) ([]*model.HospitalStats, error) {
	return nil, nil
}

type memHospitals struct{ store *memStore }

func (r *memHospitals) Create(_ context.Context, hospital *model.Hospital) error {
	r.store.hospitals[hospital.ID] = hospital
	return nil
}
func (r *memHospitals) Get(_ context.Context, id uuid.UUID) (*model.Hospital, error) {
	hospital, ok := r.store.hospitals[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return hospital, nil
}
func (r *memHospitals) List(_ context.Context) ([]*model.Hospital, error) {
	var out []*model.Hospital
	for _, h := range r.store.hospitals {
		out = append(out, h)
	}
	return out, nil
}
func (r *memHospitals) HasCapability(_ context.Context, hospitalID uuid.UUID, typeName string) (bool, error) {
	return r.store.capabilities[hospitalID][typeName], nil
}
func (r *memHospitals) AddCapability(_ context.Context, capability *model.HospitalCapability) error {
	if r.store.capabilities[capability.HospitalID] == nil {
		r.store.capabilities[capability.HospitalID] = make(map[string]bool)
	}
	r.store.capabilities[capability.HospitalID][capability.TypeName] = true
	return nil
}

type memSurgeons struct{ store *memStore }

func (r *memSurgeons) Create(_ context.Context, surgeon *model.Surgeon) error {
	r.store.surgeons[surgeon.ID] = surgeon
	return nil
}
func (r *memSurgeons) Get(_ context.Context, id uuid.UUID) (*model.Surgeon, error) {
	surgeon, ok := r.store.surgeons[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return surgeon, nil
}
func (r *memSurgeons) ListByHospital(_ context.Context, hospitalID uuid.UUID) ([]*model.Surgeon, error) {
	var out []*model.Surgeon
	for _, s := range r.store.surgeons {
		if s.HospitalID == hospitalID {
			out = append(out, s)
		}
	}
	return out, nil
}

type memFollowUps struct{ store *memStore }

func (r *memFollowUps) Create(_ context.Context, appointment *model.FollowUpAppointment) error {
	r.store.followUps = append(r.store.followUps, appointment)
	return nil
}
func (r *memFollowUps) ListUpcoming(_ context.Context, from time.Time) ([]*model.FollowUpAppointment, error) {
	var out []*model.FollowUpAppointment
	for _, f := range r.store.followUps {
		if !f.ScheduledAt.Before(from) {
			out = append(out, f)
		}
	}
	return out, nil
}
func (r *memFollowUps) ListByRecipient(_ context.Context, recipientID uuid.UUID) ([]*model.FollowUpAppointment, error) {
	var out []*model.FollowUpAppointment
	for _, f := range r.store.followUps {
		if f.RecipientID == recipientID {
			out = append(out, f)
		}
	}
	return out, nil
}

type memAudit struct{ store *memStore }

func (r *memAudit) Create(_ context.Context, log *model.AuditLog) error {
	r.store.audits = append(r.store.audits, log)
	return nil
}
func (r *memAudit) List(_ context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error) {
	var out []*model.AuditLog
	for _, a := range r.store.audits {
		if a.EntityType == entityType && a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}
func (r *memAudit) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type memOutbox struct{ store *memStore }

func (r *memOutbox) Create(_ context.Context, event *model.OutboxEvent) error {
	r.store.events = append(r.store.events, event)
	return nil
}
func (r *memOutbox) GetPendingEvents(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	return nil, nil
}
func (r *memOutbox) GetPendingEventsWithLock(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	return nil, nil
}
func (r *memOutbox) UpdateStatus(_ context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	return nil
}
func (r *memOutbox) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	return 0, nil
}
