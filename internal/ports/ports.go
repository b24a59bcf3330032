package ports

import (
	"context"

	"finboard/internal/analytics"
	"finboard/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordReader is the data-fetch layer feeding the analytics engine.
	// Budgets are scoped by project only; their start date is not a range.
	RecordReader interface {
		ListCosts(ctx context.Context, q core.RecordQuery) ([]core.CostRecord, error)
		ListExpenses(ctx context.Context, q core.RecordQuery) ([]core.ExpenseRecord, error)
		ListBudgets(ctx context.Context, project core.ProjectFilter) ([]core.BudgetRecord, error)
	}

	// RecordWriter stores validated records. Create assigns the ID, Delete
	// returns the removed record or core.ErrNotFound.
	RecordWriter interface {
		CreateCost(ctx context.Context, c core.CostRecord) (core.CostRecord, error)
		CreateExpense(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error)
		CreateBudget(ctx context.Context, b core.BudgetRecord) (core.BudgetRecord, error)
		DeleteCost(ctx context.Context, id string) (core.CostRecord, error)
		DeleteExpense(ctx context.Context, id string) (core.ExpenseRecord, error)
		DeleteBudget(ctx context.Context, id string) (core.BudgetRecord, error)
	}

	RecordStore interface {
		RecordReader
		RecordWriter
	}

	TaskStore interface {
		ListTasks(ctx context.Context, project core.ProjectFilter) ([]core.Task, error)
		GetTask(ctx context.Context, id string) (core.Task, error)
		CreateTask(ctx context.Context, t core.Task) (core.Task, error)
		// UpdateTaskField persists a single field and returns the stored task.
		UpdateTaskField(ctx context.Context, id string, field core.TaskField, value string) (core.Task, error)
	}

	// ReportExporter publishes a computed report somewhere outside the app.
	ReportExporter interface {
		Export(ctx context.Context, project core.ProjectFilter, report analytics.Report) error
	}
)
