package viability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/transplant-api/internal/model"
)

func TestEvaluateClassification(t *testing.T) {
	heart := &model.OrganType{Name: "heart", TypicalViabilityHrs: 12}
	procured := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		elapsed       time.Duration
		wantStatus    model.ViabilityStatus
		wantRemaining float64
	}{
		{"fresh", 1 * time.Hour, model.ViabilityNormal, 11},
		{"urgent boundary", 6 * time.Hour, model.ViabilityUrgent, 6},
		{"urgent window", 9 * time.Hour, model.ViabilityUrgent, 3},
		{"critical", 11 * time.Hour, model.ViabilityCritical, 1},
		{"expired", 13 * time.Hour, model.ViabilityExpired, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Evaluate(procured, heart, procured.Add(tt.elapsed))
			assert.Equal(t, tt.wantStatus, report.Status)
			assert.InDelta(t, tt.wantRemaining, report.RemainingHours, 0.001)
		})
	}
}

func TestEvaluatePercentage(t *testing.T) {
	kidney := &model.OrganType{Name: "kidney", TypicalViabilityHrs: 36}
	procured := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	report := Evaluate(procured, kidney, procured.Add(9*time.Hour))
	assert.InDelta(t, 75.0, report.Percentage, 0.001)

	// Percentage never goes negative once expired
	report = Evaluate(procured, kidney, procured.Add(40*time.Hour))
	assert.Equal(t, 0.0, report.Percentage)
	assert.Equal(t, model.ViabilityExpired, report.Status)
}

func TestRemainingHoursMonotonicOverTime(t *testing.T) {
	liver := &model.OrganType{Name: "liver", TypicalViabilityHrs: 24}
	procured := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	prev := Evaluate(procured, liver, procured)
	for h := 1; h <= 30; h++ {
		cur := Evaluate(procured, liver, procured.Add(time.Duration(h)*time.Hour))
		assert.LessOrEqual(t, cur.RemainingHours, prev.RemainingHours,
			"remaining hours must not increase over time")
		prev = cur
	}
}

func TestExpired(t *testing.T) {
	heart := &model.OrganType{Name: "heart", TypicalViabilityHrs: 12}
	procured := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	organ := &model.Organ{TypeName: "heart", ProcuredAt: procured}

	assert.False(t, Expired(organ, heart, procured.Add(11*time.Hour)))
	assert.True(t, Expired(organ, heart, procured.Add(13*time.Hour)))
}
