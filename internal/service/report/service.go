package report

import (
	"context"

	"github.com/jwalitptl/transplant-api/internal/model"
	"github.com/jwalitptl/transplant-api/internal/repository"
	"github.com/jwalitptl/transplant-api/pkg/errors"
)

// Service serves aggregate reporting queries.
type Service struct {
	stats repository.StatsRepository
}

func NewService(stats repository.StatsRepository) *Service {
	return &Service{stats: stats}
}

func (s *Service) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	stats, err := s.stats.Dashboard(ctx)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	return stats, nil
}
