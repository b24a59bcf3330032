// Package board reconciles optimistic task-board edits with the task store.
//
// Every edit targets one (task, field) pair and moves through
// idle -> pending -> committed | rolled-back. At most one edit per pair is
// being persisted at a time. While it is in flight, the newest follow-up
// edit waits its turn and any older waiting edit is superseded without
// ever reaching the store.
package board

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/ports"
)

type State string

const (
	StateIdle       State = "idle"
	StatePending    State = "pending"
	StateCommitted  State = "committed"
	StateRolledBack State = "rolled_back"
	StateSuperseded State = "superseded"
)

// ErrInvalidEdit wraps field validation failures; such edits never leave idle.
var ErrInvalidEdit = errors.New("invalid field edit")

type FieldEdit struct {
	TaskID string         `json:"taskId"`
	Field  core.TaskField `json:"field"`
	Value  string         `json:"value"`
}

// Outcome is the final state of an edit. Task is the stored task after a
// commit, or the store's current snapshot after a rollback when it could be
// read back.
type Outcome struct {
	Edit  FieldEdit  `json:"edit"`
	State State      `json:"state"`
	Task  *core.Task `json:"task,omitempty"`
}

// PendingEdit is an edit not yet resolved. InFlight is false for the edit
// waiting behind the one being persisted.
type PendingEdit struct {
	FieldEdit
	InFlight bool `json:"inFlight"`
}

type slotKey struct {
	taskID string
	field  core.TaskField
}

type waiter struct {
	edit FieldEdit
	turn chan bool // true: go ahead, false: superseded
}

type slot struct {
	inFlight *FieldEdit
	next     *waiter
}

type Reconciler struct {
	store  ports.TaskStore
	logger *applog.Logger

	mu    sync.Mutex
	slots map[slotKey]*slot
}

func NewReconciler(store ports.TaskStore, logger *applog.Logger) *Reconciler {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Reconciler{
		store:  store,
		logger: logger.WithComponent(applog.ComponentBoard),
		slots:  make(map[slotKey]*slot),
	}
}

// Apply persists one field edit and blocks until it is resolved. A store
// failure rolls the edit back and is returned as the error.
func (r *Reconciler) Apply(ctx context.Context, edit FieldEdit) (Outcome, error) {
	if err := core.ValidateTaskField(edit.Field, edit.Value); err != nil {
		return Outcome{Edit: edit, State: StateIdle}, fmt.Errorf("%w: %w", ErrInvalidEdit, err)
	}

	key := slotKey{taskID: edit.TaskID, field: edit.Field}

	r.mu.Lock()
	s, ok := r.slots[key]
	if !ok {
		s = &slot{}
		r.slots[key] = s
	}
	if s.inFlight == nil {
		s.inFlight = &edit
		r.mu.Unlock()
	} else {
		w := &waiter{edit: edit, turn: make(chan bool, 1)}
		if s.next != nil {
			s.next.turn <- false
		}
		s.next = w
		r.mu.Unlock()

		if !r.awaitTurn(ctx, key, s, w) {
			if ctx.Err() != nil {
				return Outcome{Edit: edit, State: StateRolledBack}, ctx.Err()
			}
			r.log(ctx, edit, StateSuperseded, nil)
			return Outcome{Edit: edit, State: StateSuperseded}, nil
		}
	}

	outcome, err := r.persist(ctx, edit)
	r.release(key, s)
	return outcome, err
}

// awaitTurn reports whether w now owns the slot.
func (r *Reconciler) awaitTurn(ctx context.Context, key slotKey, s *slot, w *waiter) bool {
	select {
	case ok := <-w.turn:
		return ok
	case <-ctx.Done():
	}

	r.mu.Lock()
	if s.next == w {
		s.next = nil
		r.mu.Unlock()
		return false
	}
	r.mu.Unlock()

	// the turn was decided concurrently with cancellation; hand it on
	if ok := <-w.turn; ok {
		r.release(key, s)
	}
	return false
}

func (r *Reconciler) persist(ctx context.Context, edit FieldEdit) (Outcome, error) {
	task, err := r.store.UpdateTaskField(ctx, edit.TaskID, edit.Field, edit.Value)
	if err != nil {
		out := Outcome{Edit: edit, State: StateRolledBack}
		if current, gerr := r.store.GetTask(ctx, edit.TaskID); gerr == nil {
			out.Task = &current
		}
		r.log(ctx, edit, StateRolledBack, err)
		return out, fmt.Errorf("persist %s.%s: %w", edit.TaskID, edit.Field, err)
	}
	r.log(ctx, edit, StateCommitted, nil)
	return Outcome{Edit: edit, State: StateCommitted, Task: &task}, nil
}

// release hands the slot to the waiting edit, or frees it.
func (r *Reconciler) release(key slotKey, s *slot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.next != nil {
		w := s.next
		s.next = nil
		s.inFlight = &w.edit
		w.turn <- true
		return
	}
	s.inFlight = nil
	if r.slots[key] == s {
		delete(r.slots, key)
	}
}

// Pending lists unresolved edits for a task, ordered by field.
func (r *Reconciler) Pending(taskID string) []PendingEdit {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []PendingEdit
	for key, s := range r.slots {
		if key.taskID != taskID {
			continue
		}
		if s.inFlight != nil {
			out = append(out, PendingEdit{FieldEdit: *s.inFlight, InFlight: true})
		}
		if s.next != nil {
			out = append(out, PendingEdit{FieldEdit: s.next.edit})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].InFlight && !out[j].InFlight
	})
	return out
}

// Overlay applies unresolved local values over a snapshot read back from
// the store, newest edit winning, so a refetch does not clobber them.
func (r *Reconciler) Overlay(task core.Task) core.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, s := range r.slots {
		if key.taskID != task.ID {
			continue
		}
		var latest *FieldEdit
		switch {
		case s.next != nil:
			latest = &s.next.edit
		case s.inFlight != nil:
			latest = s.inFlight
		}
		if latest == nil {
			continue
		}
		if updated, err := task.WithField(latest.Field, latest.Value); err == nil {
			task = updated
		}
	}
	return task
}

func (r *Reconciler) log(ctx context.Context, edit FieldEdit, state State, err error) {
	fields := applog.NewFields().
		WithTaskEdit(edit.TaskID, string(edit.Field), string(state)).
		WithOperation(applog.OpUpdate)
	if err != nil {
		r.logger.WarnContext(ctx, "Task field edit rolled back", fields.WithError(err).ToSlice()...)
		return
	}
	r.logger.DebugContext(ctx, "Task field edit resolved", fields.ToSlice()...)
}
