package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"finboard/internal/core"
)

func TestNewFromFilesSeedsAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("costs.json", `[
		{"id": "c1", "amount": "100", "category": "software", "date": "2025-01-15", "projectId": "p1"},
		{"amount": "abc", "category": "snacks", "date": "2025-01-16"}
	]`)
	mustWrite("budgets.json", `[{"id": "b1", "amount": 200, "category": "software", "period": "monthly", "projectId": "p1"}]`)
	mustWrite("tasks.json", `[{"id": "t1", "title": "Ship", "status": "todo", "priority": "high"}]`)

	s, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	ctx := context.Background()

	costs, _ := s.ListCosts(ctx, core.RecordQuery{})
	if len(costs) != 2 || costs[1].ID == "" || costs[1].Category != core.CategoryOther || !costs[1].Amount.IsZero() {
		t.Fatalf("unexpected costs: %+v", costs)
	}
	project, _ := s.ListCosts(ctx, core.RecordQuery{Project: core.ParseProjectFilter("p1")})
	if len(project) != 1 || project[0].ID != "c1" {
		t.Fatalf("unexpected project costs: %+v", project)
	}
	if expenses, _ := s.ListExpenses(ctx, core.RecordQuery{}); len(expenses) != 0 {
		t.Fatalf("missing expenses.json should seed nothing, got %+v", expenses)
	}
	if budgets, _ := s.ListBudgets(ctx, core.ParseProjectFilter("unassigned")); len(budgets) != 0 {
		t.Fatalf("project budget matched unassigned filter: %+v", budgets)
	}
	if task, err := s.GetTask(ctx, "t1"); err != nil || task.Priority != core.PriorityHigh {
		t.Fatalf("unexpected task: %+v %v", task, err)
	}
}

func TestNewFromFilesBadJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "costs.json"), []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewFromFiles(dir); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestStoreWriteAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	c, err := s.CreateCost(ctx, core.CostRecord{Amount: core.Money{Cents: 5}, Category: core.CategoryOffice})
	if err != nil || c.ID == "" {
		t.Fatalf("create: %+v %v", c, err)
	}
	if _, err := s.DeleteCost(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.DeleteCost(ctx, c.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	task, err := s.CreateTask(ctx, core.Task{Title: "Review invoices"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	updated, err := s.UpdateTaskField(ctx, task.ID, core.FieldAssignee, " sam ")
	if err != nil || updated.Assignee != "sam" {
		t.Fatalf("update: %+v %v", updated, err)
	}
	if _, err := s.UpdateTaskField(ctx, task.ID, core.FieldPriority, "whenever"); !errors.Is(err, core.ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}
