package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/transplant-api/internal/model"
)

func (r *organTypeRepository) Get(ctx context.Context, name string) (*model.OrganType, error) {
	query := `
		SELECT name, typical_viability_hours, max_cold_ischemia_hours,
			   description, special_requirements
		FROM organ_types
		WHERE name = $1
	`
	var organType model.OrganType
	if err := ext(ctx, r.db).GetContext(ctx, &organType, query, name); err != nil {
		return nil, fmt.Errorf("failed to get organ type: %w", err)
	}
	return &organType, nil
}

func (r *organTypeRepository) List(ctx context.Context) ([]*model.OrganType, error) {
	query := `
		SELECT name, typical_viability_hours, max_cold_ischemia_hours,
			   description, special_requirements
		FROM organ_types
		ORDER BY name ASC
	`
	var organTypes []*model.OrganType
	if err := ext(ctx, r.db).SelectContext(ctx, &organTypes, query); err != nil {
		return nil, fmt.Errorf("failed to list organ types: %w", err)
	}
	return organTypes, nil
}
