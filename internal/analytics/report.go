// Package analytics aggregates cost, expense and budget records into the
// financial report rendered by dashboards, insights and exports.
package analytics

import "finboard/internal/core"

// TrendMonths is the length of the rolling monthly trend window.
const TrendMonths = 6

const monthLabelLayout = "Jan 2006"

type (
	// Report is recomputed on every call; it has no identity of its own.
	Report struct {
		TotalCosts        core.Money          `json:"totalCosts"`
		TotalExpenses     core.Money          `json:"totalExpenses"`
		TotalBudgets      core.Money          `json:"totalBudgets"`
		BudgetUtilization float64             `json:"budgetUtilization"`
		BudgetVsActual    []BudgetVsActual    `json:"budgetVsActual"`
		CategoryBreakdown []CategoryBreakdown `json:"categoryBreakdown"`
		TopCategories     []TopCategory       `json:"topCategories"`
		MonthlyTrend      []MonthlyTrend      `json:"monthlyTrend"`
	}

	BudgetVsActual struct {
		Category   core.CostCategory `json:"category"`
		Budgeted   core.Money        `json:"budgeted"`
		Actual     core.Money        `json:"actual"`
		Variance   core.Money        `json:"variance"`
		Percentage float64           `json:"percentage"`
	}

	CategoryBreakdown struct {
		Category core.CostCategory `json:"category"`
		Costs    core.Money        `json:"costs"`
		Expenses core.Money        `json:"expenses"`
	}

	TopCategory struct {
		Category core.CostCategory `json:"category"`
		Total    core.Money        `json:"total"`
		Count    int               `json:"count"`
	}

	MonthlyTrend struct {
		Month    string     `json:"month"`
		Start    core.Date  `json:"start"`
		Costs    core.Money `json:"costs"`
		Expenses core.Money `json:"expenses"`
	}
)

// TotalSpend is costs plus expenses.
func (r Report) TotalSpend() core.Money {
	return r.TotalCosts.Add(r.TotalExpenses)
}

// Total is costs plus expenses for one breakdown row.
func (c CategoryBreakdown) Total() core.Money {
	return c.Costs.Add(c.Expenses)
}
