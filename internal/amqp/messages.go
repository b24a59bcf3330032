package amqp

import (
	"encoding/json"
	"time"

	"finboard/internal/core"
)

type RecordKind string

const (
	KindCost    RecordKind = "cost"
	KindExpense RecordKind = "expense"
	KindBudget  RecordKind = "budget"
)

type ChangeAction string

const (
	ActionCreated ChangeAction = "created"
	ActionDeleted ChangeAction = "deleted"
)

// RecordsChangedMessage tells the export worker that a project's records
// changed. It carries no record data; the worker recomputes from the store.
type RecordsChangedMessage struct {
	Project   string       `json:"project"`
	Kind      RecordKind   `json:"kind"`
	Action    ChangeAction `json:"action"`
	RecordID  string       `json:"recordId"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewRecordsChangedMessage addresses the message to the record's project,
// or to the unassigned bucket when it has none.
func NewRecordsChangedMessage(kind RecordKind, action ChangeAction, recordID string, projectID *string) *RecordsChangedMessage {
	project := core.UnassignedSentinel
	if projectID != nil {
		project = *projectID
	}
	return &RecordsChangedMessage{
		Project:   project,
		Kind:      kind,
		Action:    action,
		RecordID:  recordID,
		Timestamp: time.Now(),
	}
}

// Scope is the project filter whose report is affected.
func (m *RecordsChangedMessage) Scope() core.ProjectFilter {
	return core.ParseProjectFilter(m.Project)
}

func (m *RecordsChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordsChangedMessageFromJSON(data []byte) (*RecordsChangedMessage, error) {
	var msg RecordsChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
