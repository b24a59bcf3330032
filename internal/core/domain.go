package core

import (
	"errors"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	// CostRecord is a one-time recorded cost.
	CostRecord struct {
		ID        string       `json:"id"`
		Amount    Money        `json:"amount"`
		Currency  string       `json:"currency"`
		Category  CostCategory `json:"category"`
		Date      Date         `json:"date"`
		ProjectID *string      `json:"projectId,omitempty"`
	}

	// ExpenseRecord is a standing or recurring expense entry.
	ExpenseRecord struct {
		ID        string       `json:"id"`
		Amount    Money        `json:"amount"`
		Currency  string       `json:"currency"`
		Category  CostCategory `json:"category"`
		Date      Date         `json:"date"`
		ProjectID *string      `json:"projectId,omitempty"`
		IsActive  bool         `json:"isActive"`
	}

	// BudgetRecord is an allocated ceiling for a category.
	BudgetRecord struct {
		ID        string       `json:"id"`
		Amount    Money        `json:"amount"`
		Currency  string       `json:"currency"`
		Category  CostCategory `json:"category"`
		Period    BudgetPeriod `json:"period"`
		StartDate Date         `json:"startDate"`
		ProjectID *string      `json:"projectId,omitempty"`
	}
)

var (
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidPeriod   = errors.New("invalid budget period")
	ErrEmptyProjectID  = errors.New("empty project id")
	ErrNotFound        = errors.New("not found")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp; only the
// calendar day is kept.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

// ParseDateLenient returns the zero Date when s cannot be parsed.
func ParseDateLenient(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		return Date{}
	}
	return d
}

// MonthStart returns the first day of d's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func validateCurrency(c string) error {
	if len(c) != 3 || strings.ToUpper(c) != c {
		return ErrInvalidCurrency
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return ErrInvalidCurrency
		}
	}
	return nil
}

func validateProjectID(p *string) error {
	if p != nil && strings.TrimSpace(*p) == "" {
		return ErrEmptyProjectID
	}
	return nil
}

func (c CostRecord) Validate() error {
	if err := c.Amount.Validate(); err != nil {
		return err
	}
	if err := validateCurrency(c.Currency); err != nil {
		return err
	}
	if !c.Category.IsValid() {
		return ErrInvalidCategory
	}
	if err := c.Date.Validate(); err != nil {
		return err
	}
	return validateProjectID(c.ProjectID)
}

func (e ExpenseRecord) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := validateCurrency(e.Currency); err != nil {
		return err
	}
	if !e.Category.IsValid() {
		return ErrInvalidCategory
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return validateProjectID(e.ProjectID)
}

func (b BudgetRecord) Validate() error {
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if err := validateCurrency(b.Currency); err != nil {
		return err
	}
	if !b.Category.IsValid() {
		return ErrInvalidCategory
	}
	if !b.Period.IsValid() {
		return ErrInvalidPeriod
	}
	if err := b.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	return validateProjectID(b.ProjectID)
}
