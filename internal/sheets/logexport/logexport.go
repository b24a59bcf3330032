// Package logexport is the report exporter used when no spreadsheet is
// configured: it logs a one-line summary per export.
package logexport

import (
	"context"

	"finboard/internal/analytics"
	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/ports"
)

var _ ports.ReportExporter = (*Exporter)(nil)

type Exporter struct {
	logger *applog.Logger
}

func New(logger *applog.Logger) *Exporter {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Exporter{logger: logger.WithComponent(applog.ComponentSheets)}
}

func (e *Exporter) Export(ctx context.Context, project core.ProjectFilter, report analytics.Report) error {
	args := []any{
		applog.FieldProject, project.String(),
		applog.FieldOperation, applog.OpExport,
		"total_costs", report.TotalCosts.String(),
		"total_expenses", report.TotalExpenses.String(),
		"total_budgets", report.TotalBudgets.String(),
		"budget_utilization", report.BudgetUtilization,
	}
	if len(report.TopCategories) > 0 {
		args = append(args, "top_category", string(report.TopCategories[0].Category))
	}
	e.logger.InfoContext(ctx, "Report exported", args...)
	return nil
}
