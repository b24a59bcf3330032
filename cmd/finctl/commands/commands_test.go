package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleExport = `{
  "costs": [
    {"id": "c1", "amount": "100", "category": "Software", "date": "2025-01-10", "projectId": "p1"},
    {"id": "c2", "amount": 50.5, "category": "snacks", "date": "2025-01-11"}
  ],
  "expenses": [
    {"id": "e1", "amount": 20, "category": "software", "date": "2025-01-12", "projectId": "p1"}
  ],
  "budgets": [
    {"id": "b1", "amount": 100, "category": "software", "period": "monthly", "startDate": "2025-01-01", "projectId": "p1"}
  ]
}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeExport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.json")
	if err := os.WriteFile(path, []byte(sampleExport), 0o644); err != nil {
		t.Fatalf("write export: %v", err)
	}
	return path
}

func TestReportFromFile(t *testing.T) {
	out, err := run(t, "report", "--file", writeExport(t), "--project", "p1")
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	var report struct {
		TotalCosts        json.Number `json:"totalCosts"`
		TotalExpenses     json.Number `json:"totalExpenses"`
		BudgetUtilization float64     `json:"budgetUtilization"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if report.TotalCosts.String() != "100.00" || report.TotalExpenses.String() != "20.00" {
		t.Fatalf("unexpected totals %+v", report)
	}
	if report.BudgetUtilization != 120 {
		t.Fatalf("budgetUtilization = %v", report.BudgetUtilization)
	}
}

func TestReportUnknownCategoryBucketedAsOther(t *testing.T) {
	out, err := run(t, "report", "--file", writeExport(t), "--project", "unassigned")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	var report struct {
		TopCategories []struct {
			Category string `json:"category"`
			Count    int    `json:"count"`
		} `json:"topCategories"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(report.TopCategories) != 1 || report.TopCategories[0].Category != "other" || report.TopCategories[0].Count != 1 {
		t.Fatalf("expected the unknown category in other, got %+v", report.TopCategories)
	}
}

func TestInsightsFromFile(t *testing.T) {
	out, err := run(t, "insights", "--file", writeExport(t), "--project", "p1")
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	var insights []map[string]any
	if err := json.Unmarshal([]byte(out), &insights); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(insights) == 0 {
		t.Fatalf("expected an over-budget insight")
	}
}

func TestReportRejectsBadDate(t *testing.T) {
	if _, err := run(t, "report", "--file", writeExport(t), "--from", "2025-02-31"); err == nil {
		t.Fatalf("expected an error for an impossible date")
	}
	if _, err := run(t, "report", "--file", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestMigrateLifecycle(t *testing.T) {
	db := filepath.Join(t.TempDir(), "finboard.db")

	out, err := run(t, "--db", db, "migrate", "up")
	if err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	if strings.TrimSpace(out) != "schema version 2" {
		t.Fatalf("after up: %q", out)
	}

	out, err = run(t, "--db", db, "migrate", "down")
	if err != nil {
		t.Fatalf("migrate down: %v", err)
	}
	if strings.TrimSpace(out) != "schema version 1" {
		t.Fatalf("after down: %q", out)
	}

	if _, err := run(t, "--db", db, "migrate", "down", "zero"); err == nil {
		t.Fatalf("expected an error for a bad step count")
	}
}
