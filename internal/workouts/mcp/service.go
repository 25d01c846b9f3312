package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/2beens/workoutlog/internal/workouts"
	"github.com/2beens/workoutlog/internal/workouts/store"
	"github.com/2beens/workoutlog/internal/workouts/summary"
	"github.com/2beens/workoutlog/internal/workouts/timeline"
)

// WorkoutsSource provides workout snapshots (for dependency injection and testing).
// *store.Service satisfies it.
type WorkoutsSource interface {
	All(ctx context.Context) store.Result[[]workouts.Workout]
	List(ctx context.Context, params store.ListParams) store.Result[[]workouts.Workout]
}

// contextService provides the workout views used by the MCP tools.
// Used by Handler for testability.
type contextService interface {
	Timeline(ctx context.Context, year, month int) ([]timeline.MonthBucket, error)
	Summary(ctx context.Context, tf summary.Timeframe, metric summary.Metric) (summary.Card, error)
	ListWorkouts(ctx context.Context, params store.ListParams) ([]workouts.Workout, error)
}

// ContextService computes timeline and summary views over the stored workouts.
type ContextService struct {
	source  WorkoutsSource
	grouper *timeline.Grouper
	now     func() time.Time
}

func NewContextService(source WorkoutsSource, grouper *timeline.Grouper) *ContextService {
	if grouper == nil {
		grouper = timeline.NewGrouper(timeline.DefaultLocale)
	}
	return &ContextService{
		source:  source,
		grouper: grouper,
		now:     time.Now,
	}
}

// WithClock replaces the clock the summary windows are resolved against.
func (s *ContextService) WithClock(now func() time.Time) *ContextService {
	s.now = now
	return s
}

// Timeline groups the workouts of the given year/month (0 = any) into month and week buckets.
func (s *ContextService) Timeline(ctx context.Context, year, month int) ([]timeline.MonthBucket, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return s.grouper.Group(timeline.Filter(all, year, month))
}

// Summary computes one KPI card relative to now.
func (s *ContextService) Summary(ctx context.Context, tf summary.Timeframe, metric summary.Metric) (summary.Card, error) {
	now := s.now()
	window, err := summary.Window(tf, now)
	if err != nil {
		return summary.Card{}, err
	}
	if !metric.IsValid() {
		return summary.Card{}, &workouts.InvalidParameterError{Param: "metric", Value: string(metric)}
	}

	all, err := s.all(ctx)
	if err != nil {
		return summary.Card{}, err
	}
	value, err := summary.Aggregate(all, tf, metric, now)
	if err != nil {
		return summary.Card{}, err
	}

	return summary.NewCard(tf, metric, value, window), nil
}

func (s *ContextService) ListWorkouts(ctx context.Context, params store.ListParams) ([]workouts.Workout, error) {
	res := s.source.List(ctx, params)
	if !res.Success {
		return nil, errors.New(res.Error)
	}
	return res.Data, nil
}

func (s *ContextService) all(ctx context.Context) ([]workouts.Workout, error) {
	res := s.source.All(ctx)
	if !res.Success {
		return nil, errors.New(res.Error)
	}
	return res.Data, nil
}
