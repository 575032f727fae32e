package matching

import (
	"context"
	"sort"
	"time"

	"github.com/jwalitptl/transplant-api/internal/model"
	"github.com/jwalitptl/transplant-api/internal/repository"
	"github.com/jwalitptl/transplant-api/internal/service/viability"
	"github.com/jwalitptl/transplant-api/pkg/errors"
)

// Matcher produces the ranked candidate list for one organ.
type Matcher struct {
	waitlist   repository.WaitlistRepository
	organTypes repository.OrganTypeRepository
	scorer     *Scorer
	limit      int
}

func NewMatcher(waitlist repository.WaitlistRepository, organTypes repository.OrganTypeRepository, scorer *Scorer, limit int) *Matcher {
	return &Matcher{
		waitlist:   waitlist,
		organTypes: organTypes,
		scorer:     scorer,
		limit:      limit,
	}
}

// Match scores every waiting candidate of the organ's type and returns them
// ordered by score descending, earlier list dates breaking ties, capped at
// the configured result limit. An empty list is not an error. Fails with
// OrganNotEligible when the organ is not available or its viability window
// has closed.
func (m *Matcher) Match(ctx context.Context, organ *model.Organ, at time.Time) ([]*model.MatchCandidate, error) {
	if organ.Status != model.OrganStatusAvailable {
		return nil, errors.NewPrecondition(errors.ErrOrganNotEligible, "organ is not available for matching", map[string]interface{}{
			"organ_id": organ.ID,
			"status":   organ.Status,
		})
	}

	organType, err := m.organTypes.Get(ctx, organ.TypeName)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	if viability.Expired(organ, organType, at) {
		return nil, errors.NewPrecondition(errors.ErrOrganNotEligible, "organ viability window has closed", map[string]interface{}{
			"organ_id": organ.ID,
		})
	}

	entries, err := m.waitlist.ListEligibleForMatch(ctx, organ.TypeName)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}

	candidates := make([]*model.MatchCandidate, 0, len(entries))
	for _, entry := range entries {
		score, err := m.scorer.Score(organ, organType, entry, at)
		if err != nil {
			// Ineligible candidates are skipped, not surfaced.
			if errors.IsCode(err, errors.ErrIneligibleCandidate) {
				continue
			}
			return nil, err
		}
		candidates = append(candidates, &model.MatchCandidate{
			RecipientID:    entry.RecipientID,
			RecipientName:  entry.RecipientName,
			RecipientBlood: entry.RecipientBlood,
			UrgencyLevel:   entry.UrgencyLevel,
			DaysWaiting:    entry.DaysWaiting(at),
			PriorityScore:  entry.PriorityScore,
			MatchScore:     score,
			ListedAt:       entry.ListedAt,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].MatchScore != candidates[j].MatchScore {
			return candidates[i].MatchScore > candidates[j].MatchScore
		}
		return candidates[i].ListedAt.Before(candidates[j].ListedAt)
	})

	if m.limit > 0 && len(candidates) > m.limit {
		candidates = candidates[:m.limit]
	}
	return candidates, nil
}
