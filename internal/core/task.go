package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusReview     TaskStatus = "review"
	StatusDone       TaskStatus = "done"

	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"

	FieldStatus   TaskField = "status"
	FieldPriority TaskField = "priority"
	FieldAssignee TaskField = "assignee"
	FieldDueDate  TaskField = "due_date"
)

type (
	TaskStatus   string
	TaskPriority string

	// TaskField names a board field that can be edited on its own.
	TaskField string

	Task struct {
		ID        string       `json:"id"`
		ProjectID *string      `json:"projectId,omitempty"`
		Title     string       `json:"title"`
		Status    TaskStatus   `json:"status"`
		Priority  TaskPriority `json:"priority"`
		Assignee  string       `json:"assignee"`
		DueDate   Date         `json:"dueDate"`
		UpdatedAt time.Time    `json:"updatedAt"`
	}
)

var (
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidPriority = errors.New("invalid task priority")
	ErrUnknownField    = errors.New("unknown task field")
	ErrEmptyTitle      = errors.New("empty task title")
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func (f TaskField) IsValid() bool {
	switch f {
	case FieldStatus, FieldPriority, FieldAssignee, FieldDueDate:
		return true
	}
	return false
}

// ValidateTaskField checks that value is acceptable for field. An empty
// value clears assignee and due date.
func ValidateTaskField(field TaskField, value string) error {
	switch field {
	case FieldStatus:
		if !TaskStatus(value).IsValid() {
			return ErrInvalidStatus
		}
	case FieldPriority:
		if !TaskPriority(value).IsValid() {
			return ErrInvalidPriority
		}
	case FieldAssignee:
		if len(value) > 200 {
			return errors.New("assignee too long (max 200 characters)")
		}
	case FieldDueDate:
		if value == "" {
			return nil
		}
		if _, err := ParseDate(value); err != nil {
			return fmt.Errorf("due date: %w", err)
		}
	default:
		return ErrUnknownField
	}
	return nil
}

// FieldValue returns the string form of a single field.
func (t Task) FieldValue(field TaskField) string {
	switch field {
	case FieldStatus:
		return string(t.Status)
	case FieldPriority:
		return string(t.Priority)
	case FieldAssignee:
		return t.Assignee
	case FieldDueDate:
		return t.DueDate.String()
	}
	return ""
}

// WithField returns a copy of t with field set to value.
func (t Task) WithField(field TaskField, value string) (Task, error) {
	if err := ValidateTaskField(field, value); err != nil {
		return t, err
	}
	switch field {
	case FieldStatus:
		t.Status = TaskStatus(value)
	case FieldPriority:
		t.Priority = TaskPriority(value)
	case FieldAssignee:
		t.Assignee = strings.TrimSpace(value)
	case FieldDueDate:
		t.DueDate = ParseDateLenient(value)
	}
	return t, nil
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if len(t.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if !t.Status.IsValid() {
		return ErrInvalidStatus
	}
	if !t.Priority.IsValid() {
		return ErrInvalidPriority
	}
	return validateProjectID(t.ProjectID)
}
