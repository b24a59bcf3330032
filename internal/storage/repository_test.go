package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finboard/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "finboard.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepositoryCostsFilter(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	p1 := "p1"

	seed := []core.CostRecord{
		{Amount: core.Money{Cents: 1000}, Currency: "EUR", Category: core.CategorySoftware, Date: core.NewDate(2025, 1, 10), ProjectID: &p1},
		{Amount: core.Money{Cents: 2000}, Currency: "EUR", Category: core.CategoryTravel, Date: core.NewDate(2025, 2, 10)},
		{Amount: core.Money{Cents: 3000}, Currency: "EUR", Category: core.CategoryOffice, Date: core.NewDate(2025, 3, 10), ProjectID: &p1},
	}
	for _, c := range seed {
		saved, err := repo.CreateCost(ctx, c)
		if err != nil {
			t.Fatalf("create cost: %v", err)
		}
		if saved.ID == "" {
			t.Fatalf("expected generated id")
		}
	}

	cases := []struct {
		name  string
		query core.RecordQuery
		want  int64
	}{
		{"all", core.RecordQuery{}, 6000},
		{"project", core.RecordQuery{Project: core.ParseProjectFilter("p1")}, 4000},
		{"unassigned", core.RecordQuery{Project: core.ParseProjectFilter("unassigned")}, 2000},
		{"range", core.RecordQuery{From: core.NewDate(2025, 2, 1), To: core.NewDate(2025, 3, 10)}, 5000},
		{"project and range", core.RecordQuery{Project: core.ParseProjectFilter("p1"), To: core.NewDate(2025, 2, 28)}, 1000},
		{"unknown project", core.RecordQuery{Project: core.ParseProjectFilter("nope")}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			costs, err := repo.ListCosts(ctx, tc.query)
			if err != nil {
				t.Fatalf("list costs: %v", err)
			}
			var total int64
			for _, c := range costs {
				total += c.Amount.Cents
			}
			if total != tc.want {
				t.Fatalf("got %d, want %d", total, tc.want)
			}
		})
	}
}

func TestRepositoryExpensesAndBudgets(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	p1 := "p1"

	e, err := repo.CreateExpense(ctx, core.ExpenseRecord{
		Amount: core.Money{Cents: 999}, Currency: "USD", Category: core.CategoryUtilities,
		Date: core.NewDate(2025, 4, 1), ProjectID: &p1, IsActive: false,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	got, err := repo.ListExpenses(ctx, core.RecordQuery{})
	if err != nil || len(got) != 1 {
		t.Fatalf("list expenses: %v %v", got, err)
	}
	if got[0].ID != e.ID || got[0].IsActive || got[0].Currency != "USD" || *got[0].ProjectID != "p1" {
		t.Fatalf("unexpected round trip: %+v", got[0])
	}

	if _, err := repo.CreateBudget(ctx, core.BudgetRecord{
		Amount: core.Money{Cents: 50000}, Currency: "EUR", Category: core.CategoryUtilities,
		Period: core.PeriodQuarterly, StartDate: core.NewDate(2020, 1, 1),
	}); err != nil {
		t.Fatalf("create budget: %v", err)
	}
	// budgets ignore the date range
	budgets, err := repo.ListBudgets(ctx, core.ParseProjectFilter("all"))
	if err != nil || len(budgets) != 1 || budgets[0].Period != core.PeriodQuarterly {
		t.Fatalf("list budgets: %+v %v", budgets, err)
	}
	if budgets, _ := repo.ListBudgets(ctx, core.ParseProjectFilter("p1")); len(budgets) != 0 {
		t.Fatalf("unassigned budget leaked into project filter: %+v", budgets)
	}
}

func TestRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	c, err := repo.CreateCost(ctx, core.CostRecord{Amount: core.Money{Cents: 1}, Currency: "EUR", Category: core.CategoryOther, Date: core.NewDate(2025, 1, 1)})
	if err != nil {
		t.Fatalf("create cost: %v", err)
	}
	deleted, err := repo.DeleteCost(ctx, c.ID)
	if err != nil || deleted.ID != c.ID || deleted.Amount != c.Amount {
		t.Fatalf("delete cost: %+v %v", deleted, err)
	}
	if _, err := repo.DeleteCost(ctx, c.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.DeleteBudget(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepositoryTasks(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	fixed := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	task, err := repo.CreateTask(ctx, core.Task{Title: "Renew licenses"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Status != core.StatusTodo || task.Priority != core.PriorityMedium {
		t.Fatalf("expected defaults, got %+v", task)
	}

	updated, err := repo.UpdateTaskField(ctx, task.ID, core.FieldDueDate, "2025-06-30")
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if updated.DueDate.String() != "2025-06-30" {
		t.Fatalf("unexpected due date: %v", updated.DueDate)
	}

	stored, err := repo.GetTask(ctx, task.ID)
	if err != nil || stored.DueDate.String() != "2025-06-30" || !stored.UpdatedAt.Equal(fixed) {
		t.Fatalf("unexpected stored task: %+v %v", stored, err)
	}

	if _, err := repo.UpdateTaskField(ctx, task.ID, core.FieldStatus, "archived"); !errors.Is(err, core.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := repo.GetTask(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	tasks, err := repo.ListTasks(ctx, core.ParseProjectFilter("unassigned"))
	if err != nil || len(tasks) != 1 {
		t.Fatalf("list tasks: %+v %v", tasks, err)
	}
}

func TestMigrationVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	repo.Close()

	v, dirty, err := MigrationVersion(path)
	if err != nil || dirty || v != 2 {
		t.Fatalf("unexpected version %d dirty=%v err=%v", v, dirty, err)
	}
	if err := RollbackMigrations(path, 1); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if v, _, _ := MigrationVersion(path); v != 1 {
		t.Fatalf("expected version 1 after rollback, got %d", v)
	}
}
