package http

import (
	"errors"
	"net/http"
	"strings"

	"finboard/internal/board"
	"finboard/internal/core"
	applog "finboard/internal/log"
)

// taskView is a task with unresolved local edits applied and listed.
type taskView struct {
	core.Task
	Pending []board.PendingEdit `json:"pending,omitempty"`
}

// editResponse carries the edit outcome and, when it failed, why.
type editResponse struct {
	board.Outcome
	Error string `json:"error,omitempty"`
}

func (s *Server) view(t core.Task) taskView {
	if s.reconciler == nil {
		return taskView{Task: t}
	}
	return taskView{Task: s.reconciler.Overlay(t), Pending: s.reconciler.Pending(t.ID)}
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	project := core.ParseProjectFilter(r.URL.Query().Get("project"))
	tasks, err := s.tasks.ListTasks(r.Context(), project)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to list tasks",
			applog.FieldError, err,
			applog.FieldProject, project.String())
		InternalServerError("failed to list tasks").Write(w)
		return
	}

	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, s.view(t))
	}
	NewJSONResponse().Body(views).Write(w)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.GetTask(r.Context(), r.PathValue("id"))
	if errors.Is(err, core.ErrNotFound) {
		NotFoundError("task not found").Write(w)
		return
	}
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to read task", applog.FieldError, err)
		InternalServerError("failed to read task").Write(w)
		return
	}
	NewJSONResponse().Body(s.view(t)).Write(w)
}

// handleEditTask applies one field edit and blocks until it resolves.
// A newer edit to the same field answers 409, a store failure 502.
func (s *Server) handleEditTask(w http.ResponseWriter, r *http.Request) {
	var body taskEditBody
	if err := decodeJSON(r, &body); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	edit := board.FieldEdit{
		TaskID: r.PathValue("id"),
		Field:  core.TaskField(strings.TrimSpace(body.Field)),
		Value:  body.Value,
	}
	outcome, err := s.reconciler.Apply(r.Context(), edit)

	resp := editResponse{Outcome: outcome}
	if err != nil {
		resp.Error = err.Error()
	}

	status := http.StatusOK
	switch {
	case errors.Is(err, board.ErrInvalidEdit):
		status = http.StatusUnprocessableEntity
	case outcome.State == board.StateSuperseded:
		status = http.StatusConflict
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case outcome.State == board.StateRolledBack:
		status = http.StatusBadGateway
	case err != nil:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Task edit failed", applog.FieldError, err)
		status = http.StatusInternalServerError
	}
	NewJSONResponse().Status(status).Body(resp).Write(w)
}
