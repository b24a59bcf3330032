package analytics

import (
	"encoding/json"
	"testing"

	"finboard/internal/core"
)

func TestNormalizeFromJSON(t *testing.T) {
	payload := `{
		"costs": [
			{"id": "c1", "amount": "19,99", "currency": "eur", "category": "Software", "date": "2025-01-15", "projectId": "p1"},
			{"id": "c2", "amount": 5, "category": "snacks", "date": "not a date", "projectId": " "}
		],
		"expenses": [
			{"id": "e1", "amount": 3.5, "category": "travel", "date": "2025-01-02T10:00:00Z"},
			{"id": "e2", "amount": "x", "category": "travel", "date": "2025-01-03", "isActive": false}
		],
		"budgets": [
			{"id": "b1", "amount": "100", "category": "travel", "period": "quarterly", "startDate": "2025-01-01"}
		]
	}`
	var raw struct {
		Costs    []RawCost    `json:"costs"`
		Expenses []RawExpense `json:"expenses"`
		Budgets  []RawBudget  `json:"budgets"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	costs := NormalizeCosts(raw.Costs)
	if costs[0].Amount.Cents != 1999 || costs[0].Currency != "EUR" || costs[0].Category != core.CategorySoftware {
		t.Fatalf("unexpected first cost: %+v", costs[0])
	}
	if costs[0].ProjectID == nil || *costs[0].ProjectID != "p1" {
		t.Fatalf("expected project p1, got %v", costs[0].ProjectID)
	}
	if costs[1].Category != core.CategoryOther || !costs[1].Date.IsZero() || costs[1].ProjectID != nil {
		t.Fatalf("unexpected second cost: %+v", costs[1])
	}

	expenses := NormalizeExpenses(raw.Expenses)
	if !expenses[0].IsActive || expenses[1].IsActive {
		t.Fatalf("unexpected active flags: %+v", expenses)
	}
	if expenses[0].Amount.Cents != 350 || !expenses[0].Date.Equal(core.NewDate(2025, 1, 2).Time) {
		t.Fatalf("unexpected first expense: %+v", expenses[0])
	}
	if !expenses[1].Amount.IsZero() {
		t.Fatalf("garbage amount should coerce to zero")
	}

	budgets := NormalizeBudgets(raw.Budgets)
	if budgets[0].Period != core.PeriodQuarterly || budgets[0].Amount.Cents != 10000 {
		t.Fatalf("unexpected budget: %+v", budgets[0])
	}
}
