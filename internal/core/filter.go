package core

import (
	"strings"
)

// ProjectScope selects which records a ProjectFilter lets through.
type ProjectScope int

const (
	ScopeAll ProjectScope = iota
	ScopeUnassigned
	ScopeProject
)

// UnassignedSentinel is the query value selecting records with no project.
const UnassignedSentinel = "unassigned"

type ProjectFilter struct {
	Scope ProjectScope
	ID    string
}

// ParseProjectFilter reads "", "all", "unassigned" or a project id.
func ParseProjectFilter(s string) ProjectFilter {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "all":
		return ProjectFilter{Scope: ScopeAll}
	case UnassignedSentinel:
		return ProjectFilter{Scope: ScopeUnassigned}
	}
	return ProjectFilter{Scope: ScopeProject, ID: s}
}

// ForProject returns the filter matching a record's project reference.
func ForProject(projectID *string) ProjectFilter {
	if projectID == nil {
		return ProjectFilter{Scope: ScopeUnassigned}
	}
	return ProjectFilter{Scope: ScopeProject, ID: *projectID}
}

func (f ProjectFilter) Matches(projectID *string) bool {
	switch f.Scope {
	case ScopeUnassigned:
		return projectID == nil
	case ScopeProject:
		return projectID != nil && *projectID == f.ID
	default:
		return true
	}
}

func (f ProjectFilter) String() string {
	switch f.Scope {
	case ScopeUnassigned:
		return UnassignedSentinel
	case ScopeProject:
		return "project:" + f.ID
	default:
		return "all"
	}
}

// RecordQuery scopes a fetch of cost, expense and budget records.
// Zero From/To leave that side of the range open.
type RecordQuery struct {
	Project ProjectFilter
	From    Date
	To      Date
}

// Key identifies the query for report caching.
func (q RecordQuery) Key() string {
	return q.Project.String() + "|" + q.From.String() + "|" + q.To.String()
}

// HasRange reports whether either side of the date range is set.
func (q RecordQuery) HasRange() bool {
	return !q.From.IsZero() || !q.To.IsZero()
}

// InRange reports whether d falls inside the inclusive range. Undated
// records only match an open range.
func (q RecordQuery) InRange(d Date) bool {
	if !q.HasRange() {
		return true
	}
	if d.IsZero() {
		return false
	}
	if !q.From.IsZero() && d.Before(q.From.Time) {
		return false
	}
	if !q.To.IsZero() && d.After(q.To.Time) {
		return false
	}
	return true
}
