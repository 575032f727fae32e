package matching

import (
	"time"

	"github.com/jwalitptl/transplant-api/internal/config"
	"github.com/jwalitptl/transplant-api/internal/model"
	"github.com/jwalitptl/transplant-api/internal/service/viability"
	"github.com/jwalitptl/transplant-api/pkg/errors"
)

// Scorer computes the match score between one organ and one waitlist
// candidate. The score is a weighted sum, monotonic in urgency, blood match
// closeness, and days waited; all weights come from policy configuration.
type Scorer struct {
	policy config.PolicyConfig
}

func NewScorer(policy config.PolicyConfig) *Scorer {
	return &Scorer{policy: policy}
}

// Score returns the match score for the organ/candidate pair evaluated at the
// given instant. It fails with IneligibleCandidate when the organ is expired,
// the entry is not waiting, or the blood groups are ABO/Rh incompatible.
func (s *Scorer) Score(organ *model.Organ, organType *model.OrganType, entry *model.WaitlistEntryDetail, at time.Time) (float64, error) {
	if viability.Expired(organ, organType, at) {
		return 0, errors.NewPrecondition(errors.ErrIneligibleCandidate, "organ viability window has closed", map[string]interface{}{
			"organ_id": organ.ID,
		})
	}
	if entry.Status != model.WaitlistStatusWaiting {
		return 0, errors.NewPrecondition(errors.ErrIneligibleCandidate, "waitlist entry is not waiting", map[string]interface{}{
			"recipient_id": entry.RecipientID,
			"status":       entry.Status,
		})
	}
	if !organ.DonorBlood.CanDonateTo(entry.RecipientBlood) {
		return 0, errors.NewPrecondition(errors.ErrIneligibleCandidate, "incompatible blood groups", map[string]interface{}{
			"donor_blood":     organ.DonorBlood,
			"recipient_blood": entry.RecipientBlood,
		})
	}

	score := s.bloodTerm(organ.DonorBlood, entry.RecipientBlood)
	score += s.waitTerm(entry.DaysWaiting(at))
	score += s.policy.UrgencyWeight * float64(entry.UrgencyLevel)
	score += s.policy.EligibilityBase
	return score, nil
}

func (s *Scorer) bloodTerm(donor, recipient model.BloodType) float64 {
	if donor == recipient {
		return s.policy.BloodExactWeight
	}
	return s.policy.BloodCompatibleWeight
}

// waitTerm grows with days waited but is capped so indefinitely long waits do
// not dominate the score.
func (s *Scorer) waitTerm(days int) float64 {
	term := float64(days) / s.policy.WaitDaysPerPoint
	if term > s.policy.WaitScoreCap {
		return s.policy.WaitScoreCap
	}
	return term
}
