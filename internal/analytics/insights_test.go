package analytics

import (
	"strings"
	"testing"

	"finboard/internal/core"
)

func TestGenerateInsightsOverBudget(t *testing.T) {
	costs, expenses, budgets := sampleRecords()
	// total spend 245 against 260 budget is caution; travel row is over
	r := Calculate(costs, expenses, budgets)
	got := GenerateInsights(r, DefaultThresholds())

	if len(got) == 0 || got[0].Severity != SeverityWarning {
		t.Fatalf("expected a warning first, got %+v", got)
	}
	if got[0].Category == nil || *got[0].Category != core.CategoryTravel {
		t.Fatalf("expected travel warning, got %+v", got[0])
	}
	if !strings.Contains(got[0].Message, "exceeds budget by 100.0%") {
		t.Fatalf("unexpected message %q", got[0].Message)
	}
	var caution bool
	for _, in := range got {
		if in.Severity == SeverityCaution {
			caution = true
		}
	}
	if !caution {
		t.Fatalf("expected utilization caution, got %+v", got)
	}
}

func TestGenerateInsightsThresholds(t *testing.T) {
	cases := []struct {
		name     string
		spend    int64
		budget   int64
		severity Severity
	}{
		{"over", 150, 100, SeverityWarning},
		{"caution", 90, 100, SeverityCaution},
		{"exactly full", 100, 100, SeverityCaution},
		{"middle", 60, 100, ""},
		{"healthy", 20, 100, SeverityHealthy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Report{
				TotalCosts:        money(tc.spend),
				TotalBudgets:      money(tc.budget),
				BudgetUtilization: Percentage(money(tc.spend), money(tc.budget)),
			}
			got := GenerateInsights(r, DefaultThresholds())
			if tc.severity == "" {
				if len(got) != 0 {
					t.Fatalf("expected no insight, got %+v", got)
				}
				return
			}
			if len(got) != 1 || got[0].Severity != tc.severity {
				t.Fatalf("expected %s, got %+v", tc.severity, got)
			}
		})
	}
}

func TestGenerateInsightsConcentration(t *testing.T) {
	r := Calculate([]core.CostRecord{
		{Amount: money(90), Category: core.CategoryPersonnel},
		{Amount: money(10), Category: core.CategoryOffice},
	}, nil, nil)
	got := GenerateInsights(r, DefaultThresholds())

	var found bool
	for _, in := range got {
		if in.Category != nil && *in.Category == core.CategoryPersonnel && in.Severity == SeverityInfo {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected personnel concentration insight, got %+v", got)
	}

	if got := GenerateInsights(Calculate(nil, nil, nil), DefaultThresholds()); len(got) != 0 {
		t.Fatalf("empty report should produce no insights, got %+v", got)
	}
}
