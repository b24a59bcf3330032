// Package http provides the JSON API server and its handlers.
//
// This file parses query parameters and strictly decodes request bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"finboard/internal/core"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

var errInvalidQuery = errors.New("invalid query")

// ParseRecordQuery reads project, from and to. Missing dates leave that side
// of the range open; malformed ones are an error.
func ParseRecordQuery(query url.Values) (core.RecordQuery, error) {
	q := core.RecordQuery{Project: core.ParseProjectFilter(query.Get("project"))}

	for name, dst := range map[string]*core.Date{"from": &q.From, "to": &q.To} {
		v := strings.TrimSpace(query.Get(name))
		if v == "" {
			continue
		}
		d, err := core.ParseDate(v)
		if err != nil {
			return core.RecordQuery{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", errInvalidQuery, name)
		}
		*dst = d
	}

	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From.Time) {
		return core.RecordQuery{}, fmt.Errorf("%w: to is before from", errInvalidQuery)
	}
	return q, nil
}

// decodeJSON decodes exactly one JSON value into dst, rejecting unknown
// fields and trailing data.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("malformed JSON body: trailing data")
	}
	return nil
}

// recordBody is the shared POST body of costs, expenses and budgets.
// Amount may be a JSON number or a numeric string.
type recordBody struct {
	Amount    any     `json:"amount"`
	Currency  string  `json:"currency"`
	Category  string  `json:"category"`
	Date      string  `json:"date"`
	ProjectID *string `json:"projectId"`

	// expenses only
	IsActive *bool `json:"isActive"`

	// budgets only
	Period    string `json:"period"`
	StartDate string `json:"startDate"`
}

type fieldError struct {
	field string
	err   error
}

func (e fieldError) Error() string { return e.field + ": " + e.err.Error() }

func (e fieldError) Unwrap() error { return e.err }

func (b recordBody) amount() (core.Money, error) {
	var s string
	switch v := b.Amount.(type) {
	case json.Number:
		s = v.String()
	case string:
		s = v
	default:
		return core.Money{}, fieldError{"amount", core.ErrInvalidAmount}
	}
	m, err := core.ParseMoney(s)
	if err != nil {
		return core.Money{}, fieldError{"amount", err}
	}
	return m, nil
}

func (b recordBody) category() (core.CostCategory, error) {
	c, ok := core.LookupCostCategory(b.Category)
	if !ok {
		return "", fieldError{"category", core.ErrInvalidCategory}
	}
	return c, nil
}

func (b recordBody) currency() string {
	c := strings.ToUpper(strings.TrimSpace(b.Currency))
	if c == "" {
		return "EUR"
	}
	return c
}

func parseDateField(name, value string) (core.Date, error) {
	d, err := core.ParseDate(value)
	if err != nil {
		return core.Date{}, fieldError{name, err}
	}
	return d, nil
}

func (b recordBody) toCost() (core.CostRecord, error) {
	amount, err := b.amount()
	if err != nil {
		return core.CostRecord{}, err
	}
	category, err := b.category()
	if err != nil {
		return core.CostRecord{}, err
	}
	date, err := parseDateField("date", b.Date)
	if err != nil {
		return core.CostRecord{}, err
	}
	return core.CostRecord{Amount: amount, Currency: b.currency(), Category: category, Date: date, ProjectID: b.ProjectID}, nil
}

func (b recordBody) toExpense() (core.ExpenseRecord, error) {
	c, err := b.toCost()
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	active := true
	if b.IsActive != nil {
		active = *b.IsActive
	}
	return core.ExpenseRecord{
		Amount: c.Amount, Currency: c.Currency, Category: c.Category,
		Date: c.Date, ProjectID: c.ProjectID, IsActive: active,
	}, nil
}

func (b recordBody) toBudget() (core.BudgetRecord, error) {
	amount, err := b.amount()
	if err != nil {
		return core.BudgetRecord{}, err
	}
	category, err := b.category()
	if err != nil {
		return core.BudgetRecord{}, err
	}
	period := core.BudgetPeriod(strings.ToLower(strings.TrimSpace(b.Period)))
	if period == "" {
		period = core.PeriodMonthly
	}
	if !period.IsValid() {
		return core.BudgetRecord{}, fieldError{"period", core.ErrInvalidPeriod}
	}
	start, err := parseDateField("startDate", b.StartDate)
	if err != nil {
		return core.BudgetRecord{}, err
	}
	return core.BudgetRecord{
		Amount: amount, Currency: b.currency(), Category: category,
		Period: period, StartDate: start, ProjectID: b.ProjectID,
	}, nil
}

// taskEditBody is the PATCH body of a single task field edit.
type taskEditBody struct {
	Field string `json:"field"`
	Value string `json:"value"`
}
