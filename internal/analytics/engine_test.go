package analytics

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
	"time"

	"finboard/internal/core"
)

func money(units int64) core.Money { return core.Money{Cents: units * 100} }

func sampleRecords() ([]core.CostRecord, []core.ExpenseRecord, []core.BudgetRecord) {
	p1 := "p1"
	costs := []core.CostRecord{
		{ID: "c1", Amount: money(100), Currency: "EUR", Category: core.CategorySoftware, Date: core.NewDate(2025, 1, 15)},
		{ID: "c2", Amount: money(40), Currency: "EUR", Category: core.CategoryTravel, Date: core.NewDate(2024, 11, 3), ProjectID: &p1},
		{ID: "c3", Amount: money(40), Currency: "EUR", Category: core.CategoryHardware, Date: core.NewDate(2025, 3, 1)},
		{ID: "c4", Amount: money(5), Currency: "EUR", Category: core.CategoryOffice},
	}
	expenses := []core.ExpenseRecord{
		{ID: "e1", Amount: money(50), Currency: "EUR", Category: core.CategorySoftware, Date: core.NewDate(2025, 1, 20), IsActive: true},
		{ID: "e2", Amount: money(10), Currency: "EUR", Category: "snacks", Date: core.NewDate(2024, 6, 1)},
	}
	budgets := []core.BudgetRecord{
		{ID: "b1", Amount: money(200), Currency: "EUR", Category: core.CategorySoftware, Period: core.PeriodMonthly},
		{ID: "b2", Amount: money(20), Currency: "EUR", Category: core.CategoryTravel, Period: core.PeriodYearly},
		{ID: "b3", Amount: money(40), Currency: "EUR", Category: core.CategoryHardware, Period: core.PeriodYearly},
	}
	return costs, expenses, budgets
}

func TestCalculateSingleCategory(t *testing.T) {
	costs := []core.CostRecord{{Amount: money(100), Category: core.CategorySoftware, Date: core.NewDate(2025, 1, 15)}}
	expenses := []core.ExpenseRecord{{Amount: money(50), Category: core.CategorySoftware, Date: core.NewDate(2025, 1, 20)}}
	budgets := []core.BudgetRecord{{Amount: money(200), Category: core.CategorySoftware}}

	r := Calculate(costs, expenses, budgets)

	if r.TotalCosts != money(100) || r.TotalExpenses != money(50) || r.TotalBudgets != money(200) {
		t.Fatalf("unexpected totals: %+v", r)
	}
	if r.BudgetUtilization != 75 {
		t.Fatalf("expected utilization 75, got %v", r.BudgetUtilization)
	}
	want := []BudgetVsActual{{
		Category:   core.CategorySoftware,
		Budgeted:   money(200),
		Actual:     money(150),
		Variance:   money(-50),
		Percentage: 75,
	}}
	if !reflect.DeepEqual(r.BudgetVsActual, want) {
		t.Fatalf("unexpected budgetVsActual: %+v", r.BudgetVsActual)
	}
	if r.MonthlyTrend[5].Month != "Jan 2025" || r.MonthlyTrend[5].Costs != money(100) || r.MonthlyTrend[5].Expenses != money(50) {
		t.Fatalf("unexpected anchor month: %+v", r.MonthlyTrend[5])
	}
}

func TestCalculateEmpty(t *testing.T) {
	now := time.Date(2025, 7, 19, 15, 0, 0, 0, time.UTC)
	r := CalculateAt(now, nil, nil, nil)

	if !r.TotalCosts.IsZero() || !r.TotalExpenses.IsZero() || !r.TotalBudgets.IsZero() || r.BudgetUtilization != 0 {
		t.Fatalf("expected zero totals: %+v", r)
	}
	if len(r.BudgetVsActual) != 0 || len(r.TopCategories) != 0 {
		t.Fatalf("expected empty sequences: %+v", r)
	}
	if len(r.MonthlyTrend) != TrendMonths {
		t.Fatalf("expected %d months, got %d", TrendMonths, len(r.MonthlyTrend))
	}
	if r.MonthlyTrend[0].Month != "Feb 2025" || r.MonthlyTrend[5].Month != "Jul 2025" {
		t.Fatalf("unexpected window %q..%q", r.MonthlyTrend[0].Month, r.MonthlyTrend[5].Month)
	}
	for _, m := range r.MonthlyTrend {
		if !m.Costs.IsZero() || !m.Expenses.IsZero() {
			t.Fatalf("expected zero month, got %+v", m)
		}
	}
	for _, c := range r.CategoryBreakdown {
		if !c.Total().IsZero() {
			t.Fatalf("expected zero breakdown, got %+v", c)
		}
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["budgetVsActual"].([]any); !ok {
		t.Fatalf("budgetVsActual must encode as an array, got %s", b)
	}
	if _, ok := decoded["topCategories"].([]any); !ok {
		t.Fatalf("topCategories must encode as an array, got %s", b)
	}
}

func TestCalculateUnparsableAmount(t *testing.T) {
	costs := NormalizeCosts([]RawCost{
		{ID: "bad", Amount: "abc", Category: "software", Date: "2025-01-01"},
		{ID: "ok", Amount: "12.50", Category: "software", Date: "2025-01-02"},
	})
	r := Calculate(costs, nil, nil)
	if r.TotalCosts.Cents != 1250 {
		t.Fatalf("expected 12.50 total, got %s", r.TotalCosts)
	}
	if math.IsNaN(r.BudgetUtilization) || math.IsInf(r.BudgetUtilization, 0) {
		t.Fatalf("non-finite utilization")
	}
	if _, err := json.Marshal(r); err != nil {
		t.Fatalf("report must always encode: %v", err)
	}
}

func TestCalculateLargeAmountsStayNonNegative(t *testing.T) {
	costs := NormalizeCosts([]RawCost{
		{ID: "a", Amount: "50000000000000000", Category: "software", Date: "2025-01-01"},
		{ID: "b", Amount: "50000000000000000", Category: "software", Date: "2025-01-02"},
		{ID: "c", Amount: "900000000000", Category: "software", Date: "2025-01-03"},
		{ID: "d", Amount: "900000000000", Category: "software", Date: "2025-01-04"},
	})
	r := Calculate(costs, nil, nil)
	if r.TotalCosts.Cents != 180000000000000 {
		t.Fatalf("expected 1800000000000.00 total, got %s", r.TotalCosts)
	}
	for _, row := range r.CategoryBreakdown {
		if row.Costs.Cents < 0 {
			t.Fatalf("negative breakdown row %+v", row)
		}
	}
}

func TestCalculatePure(t *testing.T) {
	costs, expenses, budgets := sampleRecords()
	c0, e0, b0 := sampleRecords()
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	first := CalculateAt(now, costs, expenses, budgets)
	second := CalculateAt(now, costs, expenses, budgets)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reports differ between identical calls")
	}
	if !reflect.DeepEqual(costs, c0) || !reflect.DeepEqual(expenses, e0) || !reflect.DeepEqual(budgets, b0) {
		t.Fatalf("inputs were modified")
	}
}

func TestCalculateZeroBudget(t *testing.T) {
	costs, expenses, _ := sampleRecords()
	for _, budgets := range [][]core.BudgetRecord{
		nil,
		{{Amount: core.Money{}, Category: core.CategorySoftware}},
	} {
		r := Calculate(costs, expenses, budgets)
		if r.BudgetUtilization != 0 {
			t.Fatalf("expected 0 utilization, got %v", r.BudgetUtilization)
		}
		if len(r.BudgetVsActual) != 0 {
			t.Fatalf("expected no budget rows, got %+v", r.BudgetVsActual)
		}
	}
	if Percentage(money(10), core.Money{}) != 0 || Percentage(money(10), money(-5)) != 0 {
		t.Fatalf("percentage must clamp non-positive denominators to 0")
	}
}

func TestCalculateConservation(t *testing.T) {
	costs, expenses, budgets := sampleRecords()
	r := Calculate(costs, expenses, budgets)

	var sumCosts, sumExpenses core.Money
	for _, c := range r.CategoryBreakdown {
		sumCosts = sumCosts.Add(c.Costs)
		sumExpenses = sumExpenses.Add(c.Expenses)
	}
	if sumCosts != r.TotalCosts || sumExpenses != r.TotalExpenses {
		t.Fatalf("breakdown %s/%s does not match totals %s/%s", sumCosts, sumExpenses, r.TotalCosts, r.TotalExpenses)
	}
	if len(r.CategoryBreakdown) != len(core.CostCategories()) {
		t.Fatalf("breakdown must cover every category")
	}
	// unknown "snacks" expense lands in other
	last := r.CategoryBreakdown[len(r.CategoryBreakdown)-1]
	if last.Category != core.CategoryOther || last.Expenses != money(10) {
		t.Fatalf("unexpected other bucket: %+v", last)
	}
}

func TestCalculateBudgetVsActualOrder(t *testing.T) {
	costs, expenses, budgets := sampleRecords()
	r := Calculate(costs, expenses, budgets)

	// travel 40/20 = 200%, hardware 40/40 = 100%, software 150/200 = 75%
	want := []core.CostCategory{core.CategoryTravel, core.CategoryHardware, core.CategorySoftware}
	if len(r.BudgetVsActual) != len(want) {
		t.Fatalf("unexpected rows: %+v", r.BudgetVsActual)
	}
	for i, row := range r.BudgetVsActual {
		if row.Category != want[i] {
			t.Fatalf("row %d: got %s, want %s", i, row.Category, want[i])
		}
	}
	if r.BudgetVsActual[0].Variance != money(20) || r.BudgetVsActual[0].Percentage != 200 {
		t.Fatalf("unexpected travel row: %+v", r.BudgetVsActual[0])
	}

	tied := Calculate(
		[]core.CostRecord{
			{Amount: money(10), Category: core.CategoryTravel},
			{Amount: money(10), Category: core.CategoryHardware},
		},
		nil,
		[]core.BudgetRecord{
			{Amount: money(20), Category: core.CategoryTravel},
			{Amount: money(20), Category: core.CategoryHardware},
		},
	)
	if tied.BudgetVsActual[0].Category != core.CategoryHardware {
		t.Fatalf("ties must break by category name: %+v", tied.BudgetVsActual)
	}
}

func TestCalculateTopCategories(t *testing.T) {
	costs, expenses, budgets := sampleRecords()
	r := Calculate(costs, expenses, budgets)

	for i := 1; i < len(r.TopCategories); i++ {
		prev, cur := r.TopCategories[i-1], r.TopCategories[i]
		if prev.Total.Cents < cur.Total.Cents {
			t.Fatalf("not sorted by total: %+v", r.TopCategories)
		}
		if prev.Total == cur.Total && prev.Category > cur.Category {
			t.Fatalf("tie not broken by name: %+v", r.TopCategories)
		}
	}
	top := r.TopCategories[0]
	if top.Category != core.CategorySoftware || top.Total != money(150) || top.Count != 2 {
		t.Fatalf("unexpected top category: %+v", top)
	}
	// hardware and travel both total 40; hardware sorts first
	if r.TopCategories[1].Category != core.CategoryHardware || r.TopCategories[2].Category != core.CategoryTravel {
		t.Fatalf("unexpected tie order: %+v", r.TopCategories)
	}
}

func TestCalculateMonthlyTrend(t *testing.T) {
	costs, expenses, budgets := sampleRecords()
	r := Calculate(costs, expenses, budgets)

	if len(r.MonthlyTrend) != TrendMonths {
		t.Fatalf("expected %d months, got %d", TrendMonths, len(r.MonthlyTrend))
	}
	wantLabels := []string{"Oct 2024", "Nov 2024", "Dec 2024", "Jan 2025", "Feb 2025", "Mar 2025"}
	for i, m := range r.MonthlyTrend {
		if m.Month != wantLabels[i] {
			t.Fatalf("month %d: got %q, want %q", i, m.Month, wantLabels[i])
		}
		if i > 0 && !m.Start.After(r.MonthlyTrend[i-1].Start.Time) {
			t.Fatalf("months not strictly increasing at %d", i)
		}
	}
	if r.MonthlyTrend[1].Costs != money(40) {
		t.Fatalf("expected Nov travel cost, got %+v", r.MonthlyTrend[1])
	}
	if r.MonthlyTrend[3].Costs != money(100) || r.MonthlyTrend[3].Expenses != money(50) {
		t.Fatalf("unexpected Jan bucket: %+v", r.MonthlyTrend[3])
	}
	if r.MonthlyTrend[5].Costs != money(40) {
		t.Fatalf("unexpected Mar bucket: %+v", r.MonthlyTrend[5])
	}
	// the undated office cost still counts in totals
	if r.TotalCosts != money(185) {
		t.Fatalf("undated record dropped from totals: %s", r.TotalCosts)
	}
}

func TestCalculateTrendYearBoundary(t *testing.T) {
	costs := []core.CostRecord{{Amount: money(1), Category: core.CategoryOther, Date: core.NewDate(2025, 2, 28)}}
	r := Calculate(costs, nil, nil)
	if r.MonthlyTrend[0].Month != "Sep 2024" || r.MonthlyTrend[5].Month != "Feb 2025" {
		t.Fatalf("unexpected window %q..%q", r.MonthlyTrend[0].Month, r.MonthlyTrend[5].Month)
	}
}
