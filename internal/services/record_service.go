package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/ports"
)

// ErrInvalidRecord wraps every validation failure on the write path.
var ErrInvalidRecord = errors.New("invalid record")

// Publisher announces record changes to the export worker.
type Publisher interface {
	PublishRecordsChanged(ctx context.Context, msg *amqp.RecordsChangedMessage) error
}

// Invalidator drops cached reports for a project.
type Invalidator interface {
	Invalidate(project core.ProjectFilter)
}

// RecordService stores records, then invalidates cached reports and
// notifies the export worker. Publish failures are logged only; the record
// is already stored.
type RecordService struct {
	store     ports.RecordStore
	reports   Invalidator
	publisher Publisher
}

// NewRecordService wires the service. publisher may be nil.
func NewRecordService(store ports.RecordStore, reports Invalidator, publisher Publisher) *RecordService {
	return &RecordService{
		store:     store,
		reports:   reports,
		publisher: publisher,
	}
}

func (s *RecordService) ListCosts(ctx context.Context, q core.RecordQuery) ([]core.CostRecord, error) {
	return s.store.ListCosts(ctx, q)
}

func (s *RecordService) ListExpenses(ctx context.Context, q core.RecordQuery) ([]core.ExpenseRecord, error) {
	return s.store.ListExpenses(ctx, q)
}

func (s *RecordService) ListBudgets(ctx context.Context, project core.ProjectFilter) ([]core.BudgetRecord, error) {
	return s.store.ListBudgets(ctx, project)
}

func (s *RecordService) CreateCost(ctx context.Context, c core.CostRecord) (core.CostRecord, error) {
	if err := c.Validate(); err != nil {
		return core.CostRecord{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	saved, err := s.store.CreateCost(ctx, c)
	if err != nil {
		return core.CostRecord{}, fmt.Errorf("save cost: %w", err)
	}
	s.changed(ctx, amqp.KindCost, amqp.ActionCreated, saved.ID, saved.ProjectID)
	return saved, nil
}

func (s *RecordService) CreateExpense(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	if err := e.Validate(); err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	saved, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("save expense: %w", err)
	}
	s.changed(ctx, amqp.KindExpense, amqp.ActionCreated, saved.ID, saved.ProjectID)
	return saved, nil
}

func (s *RecordService) CreateBudget(ctx context.Context, b core.BudgetRecord) (core.BudgetRecord, error) {
	if err := b.Validate(); err != nil {
		return core.BudgetRecord{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	saved, err := s.store.CreateBudget(ctx, b)
	if err != nil {
		return core.BudgetRecord{}, fmt.Errorf("save budget: %w", err)
	}
	s.changed(ctx, amqp.KindBudget, amqp.ActionCreated, saved.ID, saved.ProjectID)
	return saved, nil
}

func (s *RecordService) DeleteCost(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteCost(ctx, id)
	if err != nil {
		return err
	}
	s.changed(ctx, amqp.KindCost, amqp.ActionDeleted, deleted.ID, deleted.ProjectID)
	return nil
}

func (s *RecordService) DeleteExpense(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteExpense(ctx, id)
	if err != nil {
		return err
	}
	s.changed(ctx, amqp.KindExpense, amqp.ActionDeleted, deleted.ID, deleted.ProjectID)
	return nil
}

func (s *RecordService) DeleteBudget(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteBudget(ctx, id)
	if err != nil {
		return err
	}
	s.changed(ctx, amqp.KindBudget, amqp.ActionDeleted, deleted.ID, deleted.ProjectID)
	return nil
}

func (s *RecordService) changed(ctx context.Context, kind amqp.RecordKind, action amqp.ChangeAction, id string, projectID *string) {
	if s.reports != nil {
		s.reports.Invalidate(core.ForProject(projectID))
	}

	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping change message", "id", id)
		return
	}
	msg := amqp.NewRecordsChangedMessage(kind, action, id, projectID)
	if err := s.publisher.PublishRecordsChanged(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish records changed message",
			"id", id,
			"kind", kind,
			"error", err)
	}
}
