package analytics

import (
	"strings"

	"finboard/internal/core"
)

// Raw records mirror what upstream transports hand over: amounts may be
// numbers or strings, dates and categories are free text.
type (
	RawCost struct {
		ID        string  `json:"id"`
		Amount    any     `json:"amount"`
		Currency  string  `json:"currency"`
		Category  string  `json:"category"`
		Date      string  `json:"date"`
		ProjectID *string `json:"projectId,omitempty"`
	}

	RawExpense struct {
		ID        string  `json:"id"`
		Amount    any     `json:"amount"`
		Currency  string  `json:"currency"`
		Category  string  `json:"category"`
		Date      string  `json:"date"`
		ProjectID *string `json:"projectId,omitempty"`
		IsActive  *bool   `json:"isActive,omitempty"`
	}

	RawBudget struct {
		ID        string  `json:"id"`
		Amount    any     `json:"amount"`
		Currency  string  `json:"currency"`
		Category  string  `json:"category"`
		Period    string  `json:"period"`
		StartDate string  `json:"startDate"`
		ProjectID *string `json:"projectId,omitempty"`
	}
)

// NormalizeCosts converts raw costs once, at the boundary. Unparsable
// amounts become 0, unparsable dates become the zero Date and unknown
// categories fall into "other".
func NormalizeCosts(raw []RawCost) []core.CostRecord {
	out := make([]core.CostRecord, 0, len(raw))
	for _, r := range raw {
		out = append(out, core.CostRecord{
			ID:        r.ID,
			Amount:    core.CoerceMoney(r.Amount),
			Currency:  normalizeCurrency(r.Currency),
			Category:  core.ParseCostCategory(r.Category),
			Date:      core.ParseDateLenient(r.Date),
			ProjectID: normalizeProject(r.ProjectID),
		})
	}
	return out
}

// NormalizeExpenses is NormalizeCosts for expenses. A missing isActive
// flag means active.
func NormalizeExpenses(raw []RawExpense) []core.ExpenseRecord {
	out := make([]core.ExpenseRecord, 0, len(raw))
	for _, r := range raw {
		active := true
		if r.IsActive != nil {
			active = *r.IsActive
		}
		out = append(out, core.ExpenseRecord{
			ID:        r.ID,
			Amount:    core.CoerceMoney(r.Amount),
			Currency:  normalizeCurrency(r.Currency),
			Category:  core.ParseCostCategory(r.Category),
			Date:      core.ParseDateLenient(r.Date),
			ProjectID: normalizeProject(r.ProjectID),
			IsActive:  active,
		})
	}
	return out
}

func NormalizeBudgets(raw []RawBudget) []core.BudgetRecord {
	out := make([]core.BudgetRecord, 0, len(raw))
	for _, r := range raw {
		out = append(out, core.BudgetRecord{
			ID:        r.ID,
			Amount:    core.CoerceMoney(r.Amount),
			Currency:  normalizeCurrency(r.Currency),
			Category:  core.ParseCostCategory(r.Category),
			Period:    core.ParseBudgetPeriod(r.Period),
			StartDate: core.ParseDateLenient(r.StartDate),
			ProjectID: normalizeProject(r.ProjectID),
		})
	}
	return out
}

func normalizeCurrency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return "EUR"
	}
	return c
}

// normalizeProject treats a blank project reference as unassigned.
func normalizeProject(p *string) *string {
	if p == nil {
		return nil
	}
	id := strings.TrimSpace(*p)
	if id == "" {
		return nil
	}
	return &id
}
