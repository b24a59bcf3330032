package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"finboard/internal/analytics"
	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/ports"
)

// AnalyticsService fetches records for a query, runs the engine and caches
// the report per query key until the affected project is invalidated.
type AnalyticsService struct {
	reader     ports.RecordReader
	cache      cache.Cache[analytics.Report]
	thresholds analytics.Thresholds
	group      singleflight.Group
	generation atomic.Uint64
	now        func() time.Time
}

// NewAnalyticsService builds the service. A nil cache disables caching.
func NewAnalyticsService(reader ports.RecordReader, reports cache.Cache[analytics.Report], thresholds analytics.Thresholds) *AnalyticsService {
	return &AnalyticsService{
		reader:     reader,
		cache:      reports,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Report returns the cached report for q or computes it. Concurrent misses
// on the same key share one computation. A result computed across an
// invalidation is returned to its callers but never cached. The shared
// computation ignores any one caller's cancellation.
func (s *AnalyticsService) Report(ctx context.Context, q core.RecordQuery) (analytics.Report, error) {
	key := q.Key()
	if s.cache != nil {
		if r, ok := s.cache.Get(key); ok {
			return r, nil
		}
	}

	gen := s.generation.Load()
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		r, err := s.compute(shared, q)
		if err != nil {
			return analytics.Report{}, err
		}
		if s.cache != nil && s.generation.Load() == gen {
			s.cache.Set(key, r)
		}
		return r, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return analytics.Report{}, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return analytics.Report{}, res.Err
	}
	if res.Shared {
		slog.DebugContext(ctx, "Shared in-flight report computation", "key", key)
	}
	return res.Val.(analytics.Report), nil
}

// Insights runs the insight rules over the report for q.
func (s *AnalyticsService) Insights(ctx context.Context, q core.RecordQuery) ([]analytics.Insight, error) {
	r, err := s.Report(ctx, q)
	if err != nil {
		return nil, err
	}
	return analytics.GenerateInsights(r, s.thresholds), nil
}

// Invalidate drops cached reports that can include records of project.
// Reports over all projects always include them.
func (s *AnalyticsService) Invalidate(project core.ProjectFilter) {
	if project.Scope == core.ScopeAll {
		s.InvalidateAll()
		return
	}
	s.generation.Add(1)
	if s.cache == nil {
		return
	}
	prefix := project.String() + "|"
	allPrefix := core.ProjectFilter{Scope: core.ScopeAll}.String() + "|"
	n := s.cache.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, prefix) || strings.HasPrefix(key, allPrefix)
	})
	slog.Debug("Invalidated cached reports", "project", project.String(), "removed", n)
}

func (s *AnalyticsService) InvalidateAll() {
	s.generation.Add(1)
	if s.cache != nil {
		s.cache.Clear()
	}
	slog.Debug("Invalidated all cached reports")
}

func (s *AnalyticsService) compute(ctx context.Context, q core.RecordQuery) (analytics.Report, error) {
	var (
		costs    []core.CostRecord
		expenses []core.ExpenseRecord
		budgets  []core.BudgetRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if costs, err = s.reader.ListCosts(gctx, q); err != nil {
			return fmt.Errorf("list costs: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if expenses, err = s.reader.ListExpenses(gctx, q); err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if budgets, err = s.reader.ListBudgets(gctx, q.Project); err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return analytics.Report{}, err
	}

	start := time.Now()
	r := analytics.CalculateAt(s.now(), costs, expenses, budgets)
	slog.DebugContext(ctx, "Report computed",
		"key", q.Key(),
		"costs", len(costs),
		"expenses", len(expenses),
		"budgets", len(budgets),
		"duration", time.Since(start))
	return r, nil
}
