package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"finboard/internal/analytics"
	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/memory"
)

// countingReader wraps a store and counts cost fetches. When gate is set,
// ListCosts blocks until it is closed or ctx ends.
type countingReader struct {
	*memory.Store
	calls atomic.Int32
	gate  chan struct{}
	err   error
}

func (r *countingReader) ListCosts(ctx context.Context, q core.RecordQuery) ([]core.CostRecord, error) {
	r.calls.Add(1)
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.Store.ListCosts(ctx, q)
}

func seededStore() *memory.Store {
	p1 := "p1"
	s := memory.New()
	s.Seed(
		[]core.CostRecord{
			{ID: "c1", Amount: core.Money{Cents: 10000}, Category: core.CategorySoftware, Date: core.NewDate(2025, 1, 15), ProjectID: &p1},
			{ID: "c2", Amount: core.Money{Cents: 2000}, Category: core.CategoryTravel, Date: core.NewDate(2025, 1, 20)},
		},
		[]core.ExpenseRecord{
			{ID: "e1", Amount: core.Money{Cents: 5000}, Category: core.CategorySoftware, Date: core.NewDate(2025, 1, 20), ProjectID: &p1},
		},
		[]core.BudgetRecord{
			{ID: "b1", Amount: core.Money{Cents: 20000}, Category: core.CategorySoftware, ProjectID: &p1},
		},
		nil,
	)
	return s
}

func newTestAnalytics(reader *countingReader) *AnalyticsService {
	return NewAnalyticsService(reader, cache.NewLRUCache[analytics.Report](16, time.Minute), analytics.DefaultThresholds())
}

func TestAnalyticsServiceReport(t *testing.T) {
	ctx := context.Background()
	reader := &countingReader{Store: seededStore()}
	svc := newTestAnalytics(reader)

	q := core.RecordQuery{Project: core.ParseProjectFilter("p1")}
	r, err := svc.Report(ctx, q)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if r.TotalCosts.Cents != 10000 || r.TotalExpenses.Cents != 5000 || r.BudgetUtilization != 75 {
		t.Fatalf("unexpected report: %+v", r)
	}

	if _, err := svc.Report(ctx, q); err != nil {
		t.Fatalf("report: %v", err)
	}
	if n := reader.calls.Load(); n != 1 {
		t.Fatalf("expected cached second call, got %d fetches", n)
	}

	all, err := svc.Report(ctx, core.RecordQuery{})
	if err != nil || all.TotalCosts.Cents != 12000 {
		t.Fatalf("unexpected all-projects report: %+v %v", all, err)
	}
}

func TestAnalyticsServiceInvalidate(t *testing.T) {
	ctx := context.Background()
	reader := &countingReader{Store: seededStore()}
	svc := newTestAnalytics(reader)

	p1 := core.RecordQuery{Project: core.ParseProjectFilter("p1")}
	unassigned := core.RecordQuery{Project: core.ParseProjectFilter("unassigned")}
	all := core.RecordQuery{}
	for _, q := range []core.RecordQuery{p1, unassigned, all} {
		if _, err := svc.Report(ctx, q); err != nil {
			t.Fatalf("report: %v", err)
		}
	}

	svc.Invalidate(core.ParseProjectFilter("p1"))
	before := reader.calls.Load()

	for _, q := range []core.RecordQuery{p1, unassigned, all} {
		if _, err := svc.Report(ctx, q); err != nil {
			t.Fatalf("report: %v", err)
		}
	}
	// p1 and all are recomputed, unassigned stays cached
	if got := reader.calls.Load() - before; got != 2 {
		t.Fatalf("expected 2 recomputations, got %d", got)
	}
}

func TestAnalyticsServiceSharesInFlight(t *testing.T) {
	reader := &countingReader{Store: seededStore(), gate: make(chan struct{})}
	svc := newTestAnalytics(reader)

	var wg sync.WaitGroup
	results := make([]analytics.Report, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := svc.Report(context.Background(), core.RecordQuery{})
			if err != nil {
				t.Errorf("report: %v", err)
			}
			results[i] = r
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(reader.gate)
	wg.Wait()

	if n := reader.calls.Load(); n != 1 {
		t.Fatalf("expected one shared computation, got %d", n)
	}
	for _, r := range results {
		if r.TotalCosts.Cents != 12000 {
			t.Fatalf("unexpected shared result: %+v", r)
		}
	}
}

func TestAnalyticsServiceCancelledCallerDoesNotFailOthers(t *testing.T) {
	reader := &countingReader{Store: seededStore(), gate: make(chan struct{})}
	svc := newTestAnalytics(reader)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Report(ctx, core.RecordQuery{})
		firstErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	second := make(chan error, 1)
	var got analytics.Report
	go func() {
		r, err := svc.Report(context.Background(), core.RecordQuery{})
		got = r
		second <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the cancelled caller to see context.Canceled, got %v", err)
	}

	close(reader.gate)
	if err := <-second; err != nil {
		t.Fatalf("live caller failed: %v", err)
	}
	if got.TotalCosts.Cents != 12000 {
		t.Fatalf("unexpected shared result: %+v", got)
	}
	if n := reader.calls.Load(); n != 1 {
		t.Fatalf("expected one shared computation, got %d", n)
	}
	if _, ok := svc.cache.Get(core.RecordQuery{}.Key()); !ok {
		t.Fatalf("expected the shared result to be cached")
	}
}

func TestAnalyticsServiceDropsStaleResult(t *testing.T) {
	reader := &countingReader{Store: seededStore(), gate: make(chan struct{})}
	svc := newTestAnalytics(reader)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := svc.Report(context.Background(), core.RecordQuery{}); err != nil {
			t.Errorf("report: %v", err)
		}
	}()

	time.Sleep(20 * time.Millisecond)
	svc.InvalidateAll()
	close(reader.gate)
	<-done

	if _, ok := svc.cache.Get(core.RecordQuery{}.Key()); ok {
		t.Fatalf("result computed across an invalidation must not be cached")
	}
}

func TestAnalyticsServiceFetchError(t *testing.T) {
	reader := &countingReader{Store: seededStore(), err: errors.New("disk on fire")}
	svc := newTestAnalytics(reader)

	if _, err := svc.Report(context.Background(), core.RecordQuery{}); err == nil {
		t.Fatalf("expected fetch error")
	}
	if _, ok := svc.cache.Get(core.RecordQuery{}.Key()); ok {
		t.Fatalf("failed computation must not be cached")
	}
}

func TestAnalyticsServiceInsights(t *testing.T) {
	svc := newTestAnalytics(&countingReader{Store: seededStore()})
	insights, err := svc.Insights(context.Background(), core.RecordQuery{Project: core.ParseProjectFilter("p1")})
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if len(insights) == 0 {
		t.Fatalf("expected insights for a 75%% utilized budget")
	}
}
