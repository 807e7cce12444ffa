package services

import (
	"context"
	"fmt"
	"time"

	"github.com/project-tracker/backend/internal/apperrors"
	"github.com/project-tracker/backend/internal/models"
	"github.com/project-tracker/backend/internal/rbac"
	"go.uber.org/zap"
)

type ActivityReader interface {
	Count(ctx context.Context, f models.ActivityFilter) (int, error)
	List(ctx context.Context, f models.ActivityFilter, limit, offset int) ([]models.ActivityRecord, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
	CountByActionSince(ctx context.Context, since time.Time) ([]models.ActionCount, error)
	TopActorsSince(ctx context.Context, since time.Time, limit int) ([]models.ActorCount, error)
	DistinctActionTypes(ctx context.Context) ([]string, error)
	DistinctResourceTypes(ctx context.Context) ([]string, error)
	DistinctActors(ctx context.Context) ([]models.ActorOption, error)
}

type ActivityQueryOptions struct {
	DefaultPageSize int
	MaxPageSize     int
	TopActors       int
	DefaultDays     int
}

func DefaultActivityQueryOptions() ActivityQueryOptions {
	return ActivityQueryOptions{
		DefaultPageSize: 50,
		MaxPageSize:     200,
		TopActors:       10,
		DefaultDays:     30,
	}
}

// ActivityQueryEngine serves the filtered, paginated and aggregated views of
// the audit trail. Every view requires an elevated role.
type ActivityQueryEngine struct {
	reader ActivityReader
	opts   ActivityQueryOptions
	now    func() time.Time
	log    *zap.Logger
}

func NewActivityQueryEngine(reader ActivityReader, opts ActivityQueryOptions, log *zap.Logger) *ActivityQueryEngine {
	def := DefaultActivityQueryOptions()
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = def.DefaultPageSize
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = max(def.MaxPageSize, opts.DefaultPageSize)
	}
	if opts.TopActors <= 0 {
		opts.TopActors = def.TopActors
	}
	if opts.DefaultDays <= 0 {
		opts.DefaultDays = def.DefaultDays
	}
	return &ActivityQueryEngine{
		reader: reader,
		opts:   opts,
		now:    time.Now,
		log:    log.Named("activity-query"),
	}
}

func requireElevated(caller *models.Identity) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if !rbac.IsElevated(caller.Role) {
		return fmt.Errorf("%w: the activity log requires an admin role", apperrors.ErrForbidden)
	}
	return nil
}

// Query returns one page of records matching f, newest first. Pages are
// 1-indexed; a page past the end is empty but still reports the totals.
func (e *ActivityQueryEngine) Query(ctx context.Context, caller *models.Identity, f models.ActivityFilter, page, pageSize int) (*models.ActivityPage, error) {
	if err := requireElevated(caller); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = e.opts.DefaultPageSize
	}
	if pageSize > e.opts.MaxPageSize {
		pageSize = e.opts.MaxPageSize
	}

	total, err := e.reader.Count(ctx, f)
	if err != nil {
		e.log.Error("failed to count activity", zap.Error(err))
		return nil, fmt.Errorf("count activity: %w", err)
	}

	result := &models.ActivityPage{
		Records:    []models.ActivityRecord{},
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		PageCount:  models.PageCount(total, pageSize),
	}
	if page > result.PageCount {
		return result, nil
	}

	records, err := e.reader.List(ctx, f, pageSize, (page-1)*pageSize)
	if err != nil {
		e.log.Error("failed to list activity", zap.Int("page", page), zap.Error(err))
		return nil, fmt.Errorf("list activity: %w", err)
	}
	if records != nil {
		result.Records = records
	}
	return result, nil
}

// Stats aggregates the trailing window ending now.
func (e *ActivityQueryEngine) Stats(ctx context.Context, caller *models.Identity, trailingDays int) (*models.ActivityStats, error) {
	if err := requireElevated(caller); err != nil {
		return nil, err
	}
	if trailingDays <= 0 {
		trailingDays = e.opts.DefaultDays
	}
	since := e.now().AddDate(0, 0, -trailingDays)

	recent, err := e.reader.CountSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("count recent activity: %w", err)
	}
	byAction, err := e.reader.CountByActionSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("count activity by action: %w", err)
	}
	top, err := e.reader.TopActorsSince(ctx, since, e.opts.TopActors)
	if err != nil {
		return nil, fmt.Errorf("rank active users: %w", err)
	}

	return &models.ActivityStats{
		TrailingDays:       trailingDays,
		RecentCount:        recent,
		CountsByActionType: byAction,
		TopActors:          top,
	}, nil
}

// FilterOptions lists the values that actually occur in the log.
func (e *ActivityQueryEngine) FilterOptions(ctx context.Context, caller *models.Identity) (*models.FilterOptions, error) {
	if err := requireElevated(caller); err != nil {
		return nil, err
	}
	actions, err := e.reader.DistinctActionTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("distinct action types: %w", err)
	}
	resources, err := e.reader.DistinctResourceTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("distinct resource types: %w", err)
	}
	actors, err := e.reader.DistinctActors(ctx)
	if err != nil {
		return nil, fmt.Errorf("distinct actors: %w", err)
	}
	return &models.FilterOptions{
		ActionTypes:   actions,
		ResourceTypes: resources,
		Actors:        actors,
	}, nil
}
