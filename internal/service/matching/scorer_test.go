package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/transplant-api/internal/config"
	"github.com/jwalitptl/transplant-api/internal/model"
	"github.com/jwalitptl/transplant-api/pkg/errors"
)

var (
	testProcured = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	testKidney   = &model.OrganType{Name: "kidney", TypicalViabilityHrs: 36}
)

func testOrgan(blood model.BloodType) *model.Organ {
	return &model.Organ{
		TypeName:   "kidney",
		ProcuredAt: testProcured,
		Status:     model.OrganStatusAvailable,
		DonorBlood: blood,
	}
}

func testEntry(blood model.BloodType, urgency, daysWaiting int) *model.WaitlistEntryDetail {
	return &model.WaitlistEntryDetail{
		WaitlistEntry: model.WaitlistEntry{
			Status:   model.WaitlistStatusWaiting,
			ListedAt: testProcured.Add(-time.Duration(daysWaiting) * 24 * time.Hour),
		},
		RecipientBlood: blood,
		UrgencyLevel:   urgency,
	}
}

func TestScoreExactVsCompatibleBlood(t *testing.T) {
	scorer := NewScorer(config.DefaultPolicy())
	organ := testOrgan("O+")
	at := testProcured.Add(time.Hour)

	exact, err := scorer.Score(organ, testKidney, testEntry("O+", 3, 30), at)
	require.NoError(t, err)

	compatible, err := scorer.Score(organ, testKidney, testEntry("A+", 3, 30), at)
	require.NoError(t, err)

	assert.Greater(t, exact, compatible, "exact blood match must outrank compatible")
	assert.InDelta(t, 10.0, exact-compatible, 0.001)
}

func TestScoreMonotonicInUrgency(t *testing.T) {
	scorer := NewScorer(config.DefaultPolicy())
	organ := testOrgan("O-")
	at := testProcured.Add(time.Hour)

	prev := -1.0
	for urgency := model.MinUrgencyLevel; urgency <= model.MaxUrgencyLevel; urgency++ {
		score, err := scorer.Score(organ, testKidney, testEntry("O-", urgency, 10), at)
		require.NoError(t, err)
		assert.Greater(t, score, prev, "score must strictly increase with urgency")
		prev = score
	}
}

func TestScoreWaitTermCapped(t *testing.T) {
	policy := config.DefaultPolicy()
	scorer := NewScorer(policy)
	organ := testOrgan("B+")
	at := testProcured.Add(time.Hour)

	atCap, err := scorer.Score(organ, testKidney, testEntry("B+", 2, 600), at)
	require.NoError(t, err)

	beyondCap, err := scorer.Score(organ, testKidney, testEntry("B+", 2, 6000), at)
	require.NoError(t, err)

	assert.InDelta(t, atCap, beyondCap, 0.001, "wait contribution stops growing at the cap")

	belowCap, err := scorer.Score(organ, testKidney, testEntry("B+", 2, 300), at)
	require.NoError(t, err)
	assert.Less(t, belowCap, atCap)
}

func TestScoreIncompatibleBlood(t *testing.T) {
	scorer := NewScorer(config.DefaultPolicy())
	at := testProcured.Add(time.Hour)

	// AB+ donors can only give to AB+ recipients
	_, err := scorer.Score(testOrgan("AB+"), testKidney, testEntry("O-", 5, 100), at)
	assert.True(t, errors.IsCode(err, errors.ErrIneligibleCandidate))

	// Rh+ organs cannot go to Rh- recipients even within ABO group
	_, err = scorer.Score(testOrgan("O+"), testKidney, testEntry("O-", 5, 100), at)
	assert.True(t, errors.IsCode(err, errors.ErrIneligibleCandidate))
}

func TestScoreExpiredOrgan(t *testing.T) {
	scorer := NewScorer(config.DefaultPolicy())
	at := testProcured.Add(40 * time.Hour)

	_, err := scorer.Score(testOrgan("O-"), testKidney, testEntry("O-", 3, 30), at)
	assert.True(t, errors.IsCode(err, errors.ErrIneligibleCandidate))
}

func TestScoreNonWaitingEntry(t *testing.T) {
	scorer := NewScorer(config.DefaultPolicy())
	at := testProcured.Add(time.Hour)

	entry := testEntry("O-", 3, 30)
	entry.Status = model.WaitlistStatusMatched
	_, err := scorer.Score(testOrgan("O-"), testKidney, entry, at)
	assert.True(t, errors.IsCode(err, errors.ErrIneligibleCandidate))
}
