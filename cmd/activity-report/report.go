package main

import (
	"context"
	"fmt"
	"time"

	"github.com/project-tracker/backend/internal/models"
	"github.com/project-tracker/backend/internal/services"
)

type report struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Stats       *models.ActivityStats `json:"stats"`
	Filters     *models.FilterOptions `json:"filters,omitempty"`
}

func buildReport(
	ctx context.Context,
	query *services.ActivityQueryEngine,
	caller *models.Identity,
	days int,
	withFilters bool,
	now time.Time,
) (*report, error) {
	stats, err := query.Stats(ctx, caller, days)
	if err != nil {
		return nil, fmt.Errorf("compute stats: %w", err)
	}
	r := &report{GeneratedAt: now.UTC(), Stats: stats}
	if withFilters {
		opts, err := query.FilterOptions(ctx, caller)
		if err != nil {
			return nil, fmt.Errorf("load filter options: %w", err)
		}
		r.Filters = opts
	}
	return r, nil
}
