package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Calculate builds the report anchored on the current time when the
// records carry no dates. It never mutates its arguments.
func Calculate(costs []core.CostRecord, expenses []core.ExpenseRecord, budgets []core.BudgetRecord) Report {
	return CalculateAt(time.Now(), costs, expenses, budgets)
}

// CalculateAt is Calculate with an explicit clock. now is only used to
// anchor the monthly trend when no cost or expense has a valid date.
func CalculateAt(now time.Time, costs []core.CostRecord, expenses []core.ExpenseRecord, budgets []core.BudgetRecord) Report {
	report := Report{
		BudgetVsActual: []BudgetVsActual{},
		TopCategories:  []TopCategory{},
	}

	costsBy := make(map[core.CostCategory]core.Money)
	expensesBy := make(map[core.CostCategory]core.Money)
	budgetsBy := make(map[core.CostCategory]core.Money)
	counts := make(map[core.CostCategory]int)
	var latest core.Date

	for _, c := range costs {
		cat := bucket(c.Category)
		report.TotalCosts = report.TotalCosts.Add(c.Amount)
		costsBy[cat] = costsBy[cat].Add(c.Amount)
		counts[cat]++
		if c.Date.After(latest.Time) {
			latest = c.Date
		}
	}
	for _, e := range expenses {
		cat := bucket(e.Category)
		report.TotalExpenses = report.TotalExpenses.Add(e.Amount)
		expensesBy[cat] = expensesBy[cat].Add(e.Amount)
		counts[cat]++
		if e.Date.After(latest.Time) {
			latest = e.Date
		}
	}
	for _, b := range budgets {
		cat := bucket(b.Category)
		report.TotalBudgets = report.TotalBudgets.Add(b.Amount)
		budgetsBy[cat] = budgetsBy[cat].Add(b.Amount)
	}

	report.BudgetUtilization = Percentage(report.TotalSpend(), report.TotalBudgets)

	for _, cat := range core.CostCategories() {
		spent := costsBy[cat].Add(expensesBy[cat])

		report.CategoryBreakdown = append(report.CategoryBreakdown, CategoryBreakdown{
			Category: cat,
			Costs:    costsBy[cat],
			Expenses: expensesBy[cat],
		})

		if budgeted := budgetsBy[cat]; budgeted.Cents > 0 {
			report.BudgetVsActual = append(report.BudgetVsActual, BudgetVsActual{
				Category:   cat,
				Budgeted:   budgeted,
				Actual:     spent,
				Variance:   spent.Sub(budgeted),
				Percentage: Percentage(spent, budgeted),
			})
		}

		if counts[cat] > 0 {
			report.TopCategories = append(report.TopCategories, TopCategory{
				Category: cat,
				Total:    spent,
				Count:    counts[cat],
			})
		}
	}

	sort.Slice(report.BudgetVsActual, func(i, j int) bool {
		a, b := report.BudgetVsActual[i], report.BudgetVsActual[j]
		if a.Percentage != b.Percentage {
			return a.Percentage > b.Percentage
		}
		return a.Category < b.Category
	})
	sort.Slice(report.TopCategories, func(i, j int) bool {
		a, b := report.TopCategories[i], report.TopCategories[j]
		if a.Total.Cents != b.Total.Cents {
			return a.Total.Cents > b.Total.Cents
		}
		return a.Category < b.Category
	})

	anchor := latest
	if anchor.IsZero() {
		anchor = core.NewDate(now.Year(), int(now.Month()), 1)
	}
	report.MonthlyTrend = monthlyTrend(anchor, costs, expenses)

	return report
}

// Percentage returns part/whole*100, or 0 when whole is not positive.
func Percentage(part, whole core.Money) float64 {
	if whole.Cents <= 0 {
		return 0
	}
	return part.Decimal().Mul(hundred).Div(whole.Decimal()).InexactFloat64()
}

// bucket folds categories outside the closed set into "other".
func bucket(c core.CostCategory) core.CostCategory {
	if c.IsValid() {
		return c
	}
	return core.CategoryOther
}

func monthlyTrend(anchor core.Date, costs []core.CostRecord, expenses []core.ExpenseRecord) []MonthlyTrend {
	first := anchor.MonthStart().AddDate(0, -(TrendMonths - 1), 0)

	trend := make([]MonthlyTrend, TrendMonths)
	for i := range trend {
		start := first.AddDate(0, i, 0)
		trend[i] = MonthlyTrend{
			Month: start.Format(monthLabelLayout),
			Start: core.Date{Time: start},
		}
	}

	for _, c := range costs {
		if i, ok := monthIndex(first, c.Date); ok {
			trend[i].Costs = trend[i].Costs.Add(c.Amount)
		}
	}
	for _, e := range expenses {
		if i, ok := monthIndex(first, e.Date); ok {
			trend[i].Expenses = trend[i].Expenses.Add(e.Amount)
		}
	}
	return trend
}

func monthIndex(first time.Time, d core.Date) (int, bool) {
	if d.IsZero() {
		return 0, false
	}
	i := (d.Year()-first.Year())*12 + int(d.Month()) - int(first.Month())
	if i < 0 || i >= TrendMonths {
		return 0, false
	}
	return i, true
}
