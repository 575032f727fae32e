package viability

import (
	"time"

	"github.com/jwalitptl/transplant-api/internal/model"
)

// Classification thresholds in remaining hours.
const (
	criticalBelowHours = 2
	urgentBelowHours   = 6
)

// Evaluate computes the remaining usable lifetime of an organ at the given
// instant. Pure function of its inputs; callers must re-evaluate on every
// read because viability decays with wall-clock time.
func Evaluate(procuredAt time.Time, organType *model.OrganType, at time.Time) model.ViabilityReport {
	elapsed := at.Sub(procuredAt).Hours()
	maxHours := organType.TypicalViabilityHrs
	remaining := float64(maxHours) - elapsed

	var status model.ViabilityStatus
	switch {
	case remaining < 0:
		status = model.ViabilityExpired
	case remaining < criticalBelowHours:
		status = model.ViabilityCritical
	case remaining <= urgentBelowHours:
		status = model.ViabilityUrgent
	default:
		status = model.ViabilityNormal
	}

	percentage := 0.0
	if remaining > 0 && maxHours > 0 {
		percentage = remaining / float64(maxHours) * 100
	}

	return model.ViabilityReport{
		ElapsedHours:   elapsed,
		RemainingHours: remaining,
		MaxHours:       maxHours,
		Percentage:     percentage,
		Status:         status,
		EvaluatedAt:    at,
	}
}

// EvaluateOrgan is a convenience wrapper over Evaluate for a loaded organ.
func EvaluateOrgan(organ *model.Organ, organType *model.OrganType, at time.Time) model.ViabilityReport {
	return Evaluate(organ.ProcuredAt, organType, at)
}

// Expired reports whether the organ's viability window has closed at the
// given instant.
func Expired(organ *model.Organ, organType *model.OrganType, at time.Time) bool {
	return Evaluate(organ.ProcuredAt, organType, at).Status == model.ViabilityExpired
}
