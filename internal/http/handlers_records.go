package http

import (
	"context"
	"errors"
	"net/http"

	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/services"
)

// writeRecordError maps write path errors onto status codes.
func writeRecordError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var fe fieldError
	switch {
	case errors.As(err, &fe), errors.Is(err, services.ErrInvalidRecord):
		UnprocessableEntityError(err.Error()).Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError("record not found").Write(w)
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Record operation failed",
			applog.FieldOperation, op,
			applog.FieldError, err)
		InternalServerError("internal error").Write(w)
	}
}

// listRecords runs a list call for the parsed query and writes the result,
// never as JSON null.
func listRecords[T any](w http.ResponseWriter, r *http.Request, list func(context.Context, core.RecordQuery) ([]T, error)) {
	q, err := ParseRecordQuery(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	items, err := list(r.Context(), q)
	if err != nil {
		writeRecordError(w, r, applog.OpList, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	NewJSONResponse().Body(items).Write(w)
}

// createRecord decodes a body, converts it and stores the record.
func createRecord[T any](w http.ResponseWriter, r *http.Request, convert func(recordBody) (T, error), create func(context.Context, T) (T, error)) {
	var body recordBody
	if err := decodeJSON(r, &body); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	rec, err := convert(body)
	if err != nil {
		writeRecordError(w, r, applog.OpValidate, err)
		return
	}
	created, err := create(r.Context(), rec)
	if err != nil {
		writeRecordError(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

func deleteRecord(w http.ResponseWriter, r *http.Request, del func(context.Context, string) error) {
	if err := del(r.Context(), r.PathValue("id")); err != nil {
		writeRecordError(w, r, applog.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListCosts(w http.ResponseWriter, r *http.Request) {
	listRecords(w, r, s.records.ListCosts)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	listRecords(w, r, s.records.ListExpenses)
}

// Budgets are scoped by project only; from and to are still validated.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	listRecords(w, r, func(ctx context.Context, q core.RecordQuery) ([]core.BudgetRecord, error) {
		return s.records.ListBudgets(ctx, q.Project)
	})
}

func (s *Server) handleCreateCost(w http.ResponseWriter, r *http.Request) {
	createRecord(w, r, recordBody.toCost, s.records.CreateCost)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	createRecord(w, r, recordBody.toExpense, s.records.CreateExpense)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	createRecord(w, r, recordBody.toBudget, s.records.CreateBudget)
}

func (s *Server) handleDeleteCost(w http.ResponseWriter, r *http.Request) {
	deleteRecord(w, r, s.records.DeleteCost)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	deleteRecord(w, r, s.records.DeleteExpense)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	deleteRecord(w, r, s.records.DeleteBudget)
}
