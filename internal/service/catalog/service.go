package catalog

import (
	"context"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/transplant-api/internal/model"
	"github.com/jwalitptl/transplant-api/internal/repository"
)

const listKey = "__all__"

// Service serves the organ-type catalog. The catalog is immutable reference
// data, so entries are cached indefinitely once loaded.
type Service struct {
	repo  repository.OrganTypeRepository
	cache *cache.Cache
}

func NewService(repo repository.OrganTypeRepository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

func (s *Service) Get(ctx context.Context, name string) (*model.OrganType, error) {
	if cached, ok := s.cache.Get(name); ok {
		return cached.(*model.OrganType), nil
	}

	organType, err := s.repo.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	s.cache.Set(name, organType, cache.NoExpiration)
	return organType, nil
}

func (s *Service) List(ctx context.Context) ([]*model.OrganType, error) {
	if cached, ok := s.cache.Get(listKey); ok {
		return cached.([]*model.OrganType), nil
	}

	organTypes, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(listKey, organTypes, cache.NoExpiration)
	for _, ot := range organTypes {
		s.cache.Set(ot.Name, ot, cache.NoExpiration)
	}
	return organTypes, nil
}
