package priority

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/transplant-api/internal/config"
	"github.com/jwalitptl/transplant-api/internal/model"
	"github.com/jwalitptl/transplant-api/internal/repository"
)

func testEngine() *Engine {
	return NewEngine(nil, nil, nil, config.DefaultPolicy())
}

func priorityRecipient(urgency int) *model.Recipient {
	return &model.Recipient{UrgencyLevel: urgency}
}

func priorityEntry(listedAt time.Time, meld, cpra float64) *model.WaitlistEntry {
	return &model.WaitlistEntry{
		ListedAt:  listedAt,
		MELDScore: meld,
		CPRAScore: cpra,
	}
}

func TestComputeIdempotent(t *testing.T) {
	engine := testEngine()
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	entry := priorityEntry(at.Add(-90*24*time.Hour), 22, 40)

	first := engine.Compute(priorityRecipient(3), entry, at)
	second := engine.Compute(priorityRecipient(3), entry, at)
	assert.Equal(t, first, second, "same inputs must give the same score")
}

func TestComputeStrictlyIncreasesWithUrgency(t *testing.T) {
	engine := testEngine()
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	entry := priorityEntry(at.Add(-90*24*time.Hour), 22, 40)

	low := engine.Compute(priorityRecipient(3), entry, at)
	high := engine.Compute(priorityRecipient(5), entry, at)
	assert.Greater(t, high, low)
	assert.InDelta(t, 20.0, high-low, 0.001)
}

func TestComputeWaitContributionCapped(t *testing.T) {
	engine := testEngine()
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	recipient := priorityRecipient(2)

	atCap := engine.Compute(recipient, priorityEntry(at.Add(-600*24*time.Hour), 0, 0), at)
	beyond := engine.Compute(recipient, priorityEntry(at.Add(-6000*24*time.Hour), 0, 0), at)
	assert.InDelta(t, atCap, beyond, 0.001)
}

type stubWaitlist struct {
	repository.WaitlistRepository
	entry *model.WaitlistEntry
	saved float64
}

func (s *stubWaitlist) GetByRecipientAndType(_ context.Context, _ uuid.UUID, _ string) (*model.WaitlistEntry, error) {
	return s.entry, nil
}

func (s *stubWaitlist) UpdatePriority(_ context.Context, _ uuid.UUID, score float64) error {
	s.saved = score
	return nil
}

type stubRecipients struct {
	repository.RecipientRepository
	recipient *model.Recipient
}

func (s *stubRecipients) Get(_ context.Context, _ uuid.UUID) (*model.Recipient, error) {
	return s.recipient, nil
}

type stubAudit struct{ repository.AuditRepository }

func (s *stubAudit) Create(_ context.Context, _ *model.AuditLog) error { return nil }

func TestRecomputeUsesInjectedClock(t *testing.T) {
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	entry := priorityEntry(at.Add(-90*24*time.Hour), 22, 40)
	entry.Status = model.WaitlistStatusWaiting
	recipient := priorityRecipient(3)

	waitlist := &stubWaitlist{entry: entry}
	engine := NewEngine(waitlist, &stubRecipients{recipient: recipient}, &stubAudit{}, config.DefaultPolicy())
	engine.now = func() time.Time { return at }

	score, err := engine.Recompute(context.Background(), uuid.New(), "kidney")
	require.NoError(t, err)
	assert.Equal(t, engine.Compute(recipient, entry, at), score, "recompute must score at the injected instant")
	assert.Equal(t, score, waitlist.saved)
}

func TestComputeMELDAndCPRATerms(t *testing.T) {
	engine := testEngine()
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	recipient := priorityRecipient(1)
	listed := at.Add(-30 * 24 * time.Hour)

	base := engine.Compute(recipient, priorityEntry(listed, 0, 0), at)
	withScores := engine.Compute(recipient, priorityEntry(listed, 20, 50), at)
	assert.InDelta(t, 0.5*20+0.3*50, withScores-base, 0.001)
}
