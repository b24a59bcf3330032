package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"finboard/internal/core"

	_ "modernc.org/sqlite"
)

const (
	costColumns    = "id, amount_cents, currency, category, date, project_id"
	expenseColumns = "id, amount_cents, currency, category, date, project_id, is_active"
	budgetColumns  = "id, amount_cents, currency, category, period, start_date, project_id"
	taskColumns    = "id, project_id, title, status, priority, assignee, due_date, updated_at"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

type scanner interface {
	Scan(dest ...any) error
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListCosts implements ports.RecordReader
func (r *SQLiteRepository) ListCosts(ctx context.Context, q core.RecordQuery) ([]core.CostRecord, error) {
	where, args := whereClause(q.Project, &q, "date")
	rows, err := r.db.QueryContext(ctx, "SELECT "+costColumns+" FROM costs"+where+" ORDER BY date, id", args...)
	if err != nil {
		return nil, fmt.Errorf("query costs: %w", err)
	}
	defer rows.Close()

	var out []core.CostRecord
	for rows.Next() {
		c, err := scanCost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cost: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListExpenses implements ports.RecordReader
func (r *SQLiteRepository) ListExpenses(ctx context.Context, q core.RecordQuery) ([]core.ExpenseRecord, error) {
	where, args := whereClause(q.Project, &q, "date")
	rows, err := r.db.QueryContext(ctx, "SELECT "+expenseColumns+" FROM expenses"+where+" ORDER BY date, id", args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseRecord
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListBudgets implements ports.RecordReader
func (r *SQLiteRepository) ListBudgets(ctx context.Context, project core.ProjectFilter) ([]core.BudgetRecord, error) {
	where, args := whereClause(project, nil, "")
	rows, err := r.db.QueryContext(ctx, "SELECT "+budgetColumns+" FROM budgets"+where+" ORDER BY start_date, id", args...)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []core.BudgetRecord
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateCost implements ports.RecordWriter
func (r *SQLiteRepository) CreateCost(ctx context.Context, c core.CostRecord) (core.CostRecord, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO costs ("+costColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		c.ID, c.Amount.Cents, c.Currency, string(c.Category), nullDate(c.Date), nullString(c.ProjectID))
	if err != nil {
		return core.CostRecord{}, fmt.Errorf("insert cost: %w", err)
	}

	slog.InfoContext(ctx, "Cost saved to SQLite",
		"id", c.ID,
		"amount_cents", c.Amount.Cents,
		"category", c.Category)
	return c, nil
}

// CreateExpense implements ports.RecordWriter
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.Amount.Cents, e.Currency, string(e.Category), nullDate(e.Date), nullString(e.ProjectID), e.IsActive)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)
	return e, nil
}

// CreateBudget implements ports.RecordWriter
func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.BudgetRecord) (core.BudgetRecord, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO budgets ("+budgetColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		b.ID, b.Amount.Cents, b.Currency, string(b.Category), string(b.Period), nullDate(b.StartDate), nullString(b.ProjectID))
	if err != nil {
		return core.BudgetRecord{}, fmt.Errorf("insert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved to SQLite",
		"id", b.ID,
		"amount_cents", b.Amount.Cents,
		"category", b.Category,
		"period", b.Period)
	return b, nil
}

// DeleteCost implements ports.RecordWriter
func (r *SQLiteRepository) DeleteCost(ctx context.Context, id string) (core.CostRecord, error) {
	var deleted core.CostRecord
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		c, err := scanCost(tx.QueryRowContext(ctx, "SELECT "+costColumns+" FROM costs WHERE id = ?", id))
		if err != nil {
			return notFound(err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM costs WHERE id = ?", id); err != nil {
			return err
		}
		deleted = c
		return nil
	})
	if err != nil {
		return core.CostRecord{}, fmt.Errorf("delete cost %s: %w", id, err)
	}
	return deleted, nil
}

// DeleteExpense implements ports.RecordWriter
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) (core.ExpenseRecord, error) {
	var deleted core.ExpenseRecord
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		e, err := scanExpense(tx.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id))
		if err != nil {
			return notFound(err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id); err != nil {
			return err
		}
		deleted = e
		return nil
	})
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("delete expense %s: %w", id, err)
	}
	return deleted, nil
}

// DeleteBudget implements ports.RecordWriter
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id string) (core.BudgetRecord, error) {
	var deleted core.BudgetRecord
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		b, err := scanBudget(tx.QueryRowContext(ctx, "SELECT "+budgetColumns+" FROM budgets WHERE id = ?", id))
		if err != nil {
			return notFound(err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM budgets WHERE id = ?", id); err != nil {
			return err
		}
		deleted = b
		return nil
	})
	if err != nil {
		return core.BudgetRecord{}, fmt.Errorf("delete budget %s: %w", id, err)
	}
	return deleted, nil
}

// ListTasks implements ports.TaskStore
func (r *SQLiteRepository) ListTasks(ctx context.Context, project core.ProjectFilter) ([]core.Task, error) {
	where, args := whereClause(project, nil, "")
	rows, err := r.db.QueryContext(ctx, "SELECT "+taskColumns+" FROM tasks"+where+" ORDER BY updated_at DESC, id", args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []core.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTask implements ports.TaskStore
func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (core.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id))
	if err != nil {
		return core.Task{}, fmt.Errorf("get task %s: %w", id, notFound(err))
	}
	return t, nil
}

// CreateTask implements ports.TaskStore
func (r *SQLiteRepository) CreateTask(ctx context.Context, t core.Task) (core.Task, error) {
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
	t.UpdatedAt = r.now().UTC()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO tasks ("+taskColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, nullString(t.ProjectID), t.Title, string(t.Status), string(t.Priority), t.Assignee,
		nullDate(t.DueDate), t.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return core.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// UpdateTaskField implements ports.TaskStore
func (r *SQLiteRepository) UpdateTaskField(ctx context.Context, id string, field core.TaskField, value string) (core.Task, error) {
	var updated core.Task
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		t, err := scanTask(tx.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id))
		if err != nil {
			return notFound(err)
		}
		t, err = t.WithField(field, value)
		if err != nil {
			return err
		}
		t.UpdatedAt = r.now().UTC()

		_, err = tx.ExecContext(ctx,
			"UPDATE tasks SET status = ?, priority = ?, assignee = ?, due_date = ?, updated_at = ? WHERE id = ?",
			string(t.Status), string(t.Priority), t.Assignee, nullDate(t.DueDate), t.UpdatedAt.Format(time.RFC3339Nano), id)
		if err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return core.Task{}, fmt.Errorf("update task %s %s: %w", id, field, err)
	}

	slog.InfoContext(ctx, "Task field updated",
		"id", id,
		"field", field,
		"value", value)
	return updated, nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// whereClause builds the project filter and, when q is given, the
// inclusive date range on dateCol.
func whereClause(project core.ProjectFilter, q *core.RecordQuery, dateCol string) (string, []any) {
	var conds []string
	var args []any

	switch project.Scope {
	case core.ScopeUnassigned:
		conds = append(conds, "project_id IS NULL")
	case core.ScopeProject:
		conds = append(conds, "project_id = ?")
		args = append(args, project.ID)
	}

	if q != nil {
		if !q.From.IsZero() {
			conds = append(conds, dateCol+" >= ?")
			args = append(args, q.From.String())
		}
		if !q.To.IsZero() {
			conds = append(conds, dateCol+" <= ?")
			args = append(args, q.To.String())
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanCost(s scanner) (core.CostRecord, error) {
	var (
		c             core.CostRecord
		category      string
		date, project sql.NullString
	)
	if err := s.Scan(&c.ID, &c.Amount.Cents, &c.Currency, &category, &date, &project); err != nil {
		return core.CostRecord{}, err
	}
	c.Category = core.ParseCostCategory(category)
	c.Date = fromNullDate(date)
	c.ProjectID = fromNullString(project)
	return c, nil
}

func scanExpense(s scanner) (core.ExpenseRecord, error) {
	var (
		e             core.ExpenseRecord
		category      string
		date, project sql.NullString
	)
	if err := s.Scan(&e.ID, &e.Amount.Cents, &e.Currency, &category, &date, &project, &e.IsActive); err != nil {
		return core.ExpenseRecord{}, err
	}
	e.Category = core.ParseCostCategory(category)
	e.Date = fromNullDate(date)
	e.ProjectID = fromNullString(project)
	return e, nil
}

func scanBudget(s scanner) (core.BudgetRecord, error) {
	var (
		b                core.BudgetRecord
		category, period string
		start, project   sql.NullString
	)
	if err := s.Scan(&b.ID, &b.Amount.Cents, &b.Currency, &category, &period, &start, &project); err != nil {
		return core.BudgetRecord{}, err
	}
	b.Category = core.ParseCostCategory(category)
	b.Period = core.ParseBudgetPeriod(period)
	b.StartDate = fromNullDate(start)
	b.ProjectID = fromNullString(project)
	return b, nil
}

func scanTask(s scanner) (core.Task, error) {
	var (
		t                core.Task
		status, priority string
		updatedAt        string
		project, due     sql.NullString
	)
	if err := s.Scan(&t.ID, &project, &t.Title, &status, &priority, &t.Assignee, &due, &updatedAt); err != nil {
		return core.Task{}, err
	}
	t.ProjectID = fromNullString(project)
	t.Status = core.TaskStatus(status)
	t.Priority = core.TaskPriority(priority)
	t.DueDate = fromNullDate(due)
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		t.UpdatedAt = ts
	}
	return t, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullDate(d core.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func fromNullDate(ns sql.NullString) core.Date {
	if !ns.Valid {
		return core.Date{}
	}
	return core.ParseDateLenient(ns.String)
}
