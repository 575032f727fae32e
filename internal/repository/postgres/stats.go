package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/transplant-api/internal/model"
)

func (r *statsRepository) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM donors)                                     AS total_donors,
			(SELECT COUNT(*) FROM recipients)                                 AS total_recipients,
			(SELECT COUNT(*) FROM organs)                                     AS total_organs,
			(SELECT COUNT(*) FROM hospitals)                                  AS total_hospitals,
			(SELECT COUNT(*) FROM surgeries)                                  AS total_surgeries,
			(SELECT COUNT(*) FROM organs WHERE status = 'available')          AS available_organs,
			(SELECT COUNT(*) FROM recipients WHERE status = 'waiting')        AS waiting_recipients,
			(SELECT COUNT(*) FROM allocations WHERE status = 'pending')       AS pending_allocations,
			(SELECT COUNT(*) FROM waitlist_entries WHERE status = 'waiting')  AS active_waitlist
	`
	var stats model.DashboardStats
	if err := ext(ctx, r.db).GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}
	return &stats, nil
}
