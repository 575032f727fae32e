package matching

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/transplant-api/internal/config"
	"github.com/jwalitptl/transplant-api/internal/model"
	"github.com/jwalitptl/transplant-api/pkg/errors"
)

type fakeOrganTypeRepo struct {
	types map[string]*model.OrganType
}

func (f *fakeOrganTypeRepo) Get(_ context.Context, name string) (*model.OrganType, error) {
	return f.types[name], nil
}

func (f *fakeOrganTypeRepo) List(_ context.Context) ([]*model.OrganType, error) {
	out := make([]*model.OrganType, 0, len(f.types))
	for _, ot := range f.types {
		out = append(out, ot)
	}
	return out, nil
}

type fakeWaitlistRepo struct {
	entries []*model.WaitlistEntryDetail
}

func (f *fakeWaitlistRepo) Create(context.Context, *model.WaitlistEntry) error { return nil }
func (f *fakeWaitlistRepo) Get(context.Context, uuid.UUID) (*model.WaitlistEntry, error) {
	return nil, nil
}
func (f *fakeWaitlistRepo) GetByRecipientAndType(context.Context, uuid.UUID, string) (*model.WaitlistEntry, error) {
	return nil, nil
}
func (f *fakeWaitlistRepo) GetForUpdate(context.Context, uuid.UUID, string) (*model.WaitlistEntry, error) {
	return nil, nil
}
func (f *fakeWaitlistRepo) UpdateStatus(context.Context, uuid.UUID, model.WaitlistStatus) error {
	return nil
}
func (f *fakeWaitlistRepo) UpdatePriority(context.Context, uuid.UUID, float64) error { return nil }
func (f *fakeWaitlistRepo) Delete(context.Context, uuid.UUID) error                  { return nil }
func (f *fakeWaitlistRepo) List(context.Context, *model.WaitlistFilters) ([]*model.WaitlistEntryDetail, error) {
	return f.entries, nil
}
func (f *fakeWaitlistRepo) ListEligibleForMatch(_ context.Context, typeName string) ([]*model.WaitlistEntryDetail, error) {
	var out []*model.WaitlistEntryDetail
	for _, e := range f.entries {
		if e.TypeName == typeName && e.Status == model.WaitlistStatusWaiting {
			out = append(out, e)
		}
	}
	return out, nil
}
func (f *fakeWaitlistRepo) ListOpenByRecipient(context.Context, uuid.UUID) ([]*model.WaitlistEntry, error) {
	return nil, nil
}

func matchEntry(name string, blood model.BloodType, urgency int, listedAt time.Time) *model.WaitlistEntryDetail {
	return &model.WaitlistEntryDetail{
		WaitlistEntry: model.WaitlistEntry{
			Base:     model.Base{ID: uuid.New()},
			TypeName: "kidney",
			Status:   model.WaitlistStatusWaiting,
			ListedAt: listedAt,
		},
		RecipientName:  name,
		RecipientBlood: blood,
		UrgencyLevel:   urgency,
	}
}

func newTestMatcher(entries []*model.WaitlistEntryDetail, limit int) *Matcher {
	types := &fakeOrganTypeRepo{types: map[string]*model.OrganType{
		"kidney": {Name: "kidney", TypicalViabilityHrs: 36},
	}}
	waitlist := &fakeWaitlistRepo{entries: entries}
	return NewMatcher(waitlist, types, NewScorer(config.DefaultPolicy()), limit)
}

func TestMatchRanksByScoreThenListDate(t *testing.T) {
	procured := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	organ := &model.Organ{
		Base:       model.Base{ID: uuid.New()},
		TypeName:   "kidney",
		ProcuredAt: procured,
		Status:     model.OrganStatusAvailable,
		DonorBlood: "O+",
	}

	earlier := procured.Add(-60 * 24 * time.Hour)
	later := procured.Add(-30 * 24 * time.Hour)
	entries := []*model.WaitlistEntryDetail{
		matchEntry("alice", "A+", 2, later),
		matchEntry("bob", "O+", 5, earlier),
		// carol listed an hour before alice: same whole-day wait, so the two
		// scores tie and the earlier list date decides
		matchEntry("carol", "A+", 2, later.Add(-time.Hour)),
		matchEntry("dave", "O-", 5, earlier), // Rh incompatible, skipped
	}

	matcher := newTestMatcher(entries, 10)
	candidates, err := matcher.Match(context.Background(), organ, procured.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	assert.Equal(t, "bob", candidates[0].RecipientName)
	assert.Equal(t, "carol", candidates[1].RecipientName)
	assert.Equal(t, "alice", candidates[2].RecipientName)
	assert.Equal(t, candidates[1].MatchScore, candidates[2].MatchScore)
}

func TestMatchRespectsLimit(t *testing.T) {
	procured := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	organ := &model.Organ{
		TypeName:   "kidney",
		ProcuredAt: procured,
		Status:     model.OrganStatusAvailable,
		DonorBlood: "O-",
	}

	var entries []*model.WaitlistEntryDetail
	for i := 0; i < 15; i++ {
		entries = append(entries, matchEntry("r", "O-", 3, procured.Add(-30*24*time.Hour)))
	}

	matcher := newTestMatcher(entries, 10)
	candidates, err := matcher.Match(context.Background(), organ, procured.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, candidates, 10)
}

func TestMatchEmptyWaitlist(t *testing.T) {
	procured := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	organ := &model.Organ{
		TypeName:   "kidney",
		ProcuredAt: procured,
		Status:     model.OrganStatusAvailable,
		DonorBlood: "O-",
	}

	matcher := newTestMatcher(nil, 10)
	candidates, err := matcher.Match(context.Background(), organ, procured.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, candidates, "no candidates is a valid result, not an error")
}

func TestMatchRejectsUnavailableOrExpiredOrgan(t *testing.T) {
	procured := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	matcher := newTestMatcher(nil, 10)

	allocated := &model.Organ{
		TypeName:   "kidney",
		ProcuredAt: procured,
		Status:     model.OrganStatusAllocated,
		DonorBlood: "O-",
	}
	_, err := matcher.Match(context.Background(), allocated, procured.Add(time.Hour))
	assert.True(t, errors.IsCode(err, errors.ErrOrganNotEligible))

	stale := &model.Organ{
		TypeName:   "kidney",
		ProcuredAt: procured,
		Status:     model.OrganStatusAvailable,
		DonorBlood: "O-",
	}
	_, err = matcher.Match(context.Background(), stale, procured.Add(40*time.Hour))
	assert.True(t, errors.IsCode(err, errors.ErrOrganNotEligible))
}
