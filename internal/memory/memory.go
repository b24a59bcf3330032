// Package memory is an in-process record and task store, seeded from JSON
// files. It backs local development and tests.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"finboard/internal/analytics"
	"finboard/internal/core"
)

type Store struct {
	mu       sync.RWMutex
	costs    []core.CostRecord
	expenses []core.ExpenseRecord
	budgets  []core.BudgetRecord
	tasks    []core.Task
	now      func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

// Seed replaces the store contents.
func (s *Store) Seed(costs []core.CostRecord, expenses []core.ExpenseRecord, budgets []core.BudgetRecord, tasks []core.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.costs = append([]core.CostRecord(nil), costs...)
	s.expenses = append([]core.ExpenseRecord(nil), expenses...)
	s.budgets = append([]core.BudgetRecord(nil), budgets...)
	s.tasks = append([]core.Task(nil), tasks...)
}

// NewFromFiles seeds a store from costs.json, expenses.json, budgets.json
// and tasks.json in base. Missing files are skipped; records are loosely
// typed and normalized on load.
func NewFromFiles(base string) (*Store, error) {
	var (
		rawCosts    []analytics.RawCost
		rawExpenses []analytics.RawExpense
		rawBudgets  []analytics.RawBudget
		tasks       []core.Task
	)
	for name, dst := range map[string]any{
		"costs.json":    &rawCosts,
		"expenses.json": &rawExpenses,
		"budgets.json":  &rawBudgets,
		"tasks.json":    &tasks,
	} {
		if err := readJSON(filepath.Join(base, name), dst); err != nil {
			return nil, err
		}
	}

	for i := range tasks {
		if tasks[i].ID == "" {
			tasks[i].ID = uuid.NewString()
		}
	}

	s := New()
	s.Seed(
		withCostIDs(analytics.NormalizeCosts(rawCosts)),
		withExpenseIDs(analytics.NormalizeExpenses(rawExpenses)),
		withBudgetIDs(analytics.NormalizeBudgets(rawBudgets)),
		tasks,
	)
	return s, nil
}

// Ping is used by the readiness probe.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) ListCosts(_ context.Context, q core.RecordQuery) ([]core.CostRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.CostRecord
	for _, c := range s.costs {
		if q.Project.Matches(c.ProjectID) && q.InRange(c.Date) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) ListExpenses(_ context.Context, q core.RecordQuery) ([]core.ExpenseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.ExpenseRecord
	for _, e := range s.expenses {
		if q.Project.Matches(e.ProjectID) && q.InRange(e.Date) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) ListBudgets(_ context.Context, project core.ProjectFilter) ([]core.BudgetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.BudgetRecord
	for _, b := range s.budgets {
		if project.Matches(b.ProjectID) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) CreateCost(_ context.Context, c core.CostRecord) (core.CostRecord, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.costs = append(s.costs, c)
	return c, nil
}

func (s *Store) CreateExpense(_ context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *Store) CreateBudget(_ context.Context, b core.BudgetRecord) (core.BudgetRecord, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets = append(s.budgets, b)
	return b, nil
}

func (s *Store) DeleteCost(_ context.Context, id string) (core.CostRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.costs {
		if c.ID == id {
			s.costs = append(s.costs[:i:i], s.costs[i+1:]...)
			return c, nil
		}
	}
	return core.CostRecord{}, fmt.Errorf("delete cost %s: %w", id, core.ErrNotFound)
}

func (s *Store) DeleteExpense(_ context.Context, id string) (core.ExpenseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.expenses {
		if e.ID == id {
			s.expenses = append(s.expenses[:i:i], s.expenses[i+1:]...)
			return e, nil
		}
	}
	return core.ExpenseRecord{}, fmt.Errorf("delete expense %s: %w", id, core.ErrNotFound)
}

func (s *Store) DeleteBudget(_ context.Context, id string) (core.BudgetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.budgets {
		if b.ID == id {
			s.budgets = append(s.budgets[:i:i], s.budgets[i+1:]...)
			return b, nil
		}
	}
	return core.BudgetRecord{}, fmt.Errorf("delete budget %s: %w", id, core.ErrNotFound)
}

func (s *Store) ListTasks(_ context.Context, project core.ProjectFilter) ([]core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Task
	for _, t := range s.tasks {
		if project.Matches(t.ProjectID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) GetTask(_ context.Context, id string) (core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Task{}, fmt.Errorf("get task %s: %w", id, core.ErrNotFound)
}

func (s *Store) CreateTask(_ context.Context, t core.Task) (core.Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = core.StatusTodo
	}
	if t.Priority == "" {
		t.Priority = core.PriorityMedium
	}
	if err := t.Validate(); err != nil {
		return core.Task{}, fmt.Errorf("validate task: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.UpdatedAt = s.now().UTC()
	s.tasks = append(s.tasks, t)
	return t, nil
}

func (s *Store) UpdateTaskField(_ context.Context, id string, field core.TaskField, value string) (core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID != id {
			continue
		}
		updated, err := t.WithField(field, value)
		if err != nil {
			return core.Task{}, fmt.Errorf("update task %s %s: %w", id, field, err)
		}
		updated.UpdatedAt = s.now().UTC()
		s.tasks[i] = updated
		return updated, nil
	}
	return core.Task{}, fmt.Errorf("update task %s: %w", id, core.ErrNotFound)
}

func readJSON(path string, dst any) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func withCostIDs(in []core.CostRecord) []core.CostRecord {
	for i := range in {
		if in[i].ID == "" {
			in[i].ID = uuid.NewString()
		}
	}
	return in
}

func withExpenseIDs(in []core.ExpenseRecord) []core.ExpenseRecord {
	for i := range in {
		if in[i].ID == "" {
			in[i].ID = uuid.NewString()
		}
	}
	return in
}

func withBudgetIDs(in []core.BudgetRecord) []core.BudgetRecord {
	for i := range in {
		if in[i].ID == "" {
			in[i].ID = uuid.NewString()
		}
	}
	return in
}
