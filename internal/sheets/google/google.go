// Package google exports computed reports to a Google Sheets spreadsheet,
// one tab per project scope.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finboard/internal/analytics"
	"finboard/internal/core"
	"finboard/internal/ports"
)

// clearRange covers every column the report layout writes to.
const clearRange = "A:F"

var _ ports.ReportExporter = (*Client)(nil)

type Config struct {
	SpreadsheetID   string
	SheetPrefix     string
	CredentialsFile string
	CredentialsJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	prefix        string
	logger        *slog.Logger
	now           func() time.Time
}

// New creates a Sheets client authenticated with service account
// credentials, inline JSON taking precedence over the file.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsFile != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetPrefix, logger), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, prefix string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		prefix:        strings.TrimSpace(prefix),
		logger:        logger,
		now:           time.Now,
	}
}

// Export replaces the project's tab with the rendered report, creating the
// tab on first use.
func (c *Client) Export(ctx context.Context, project core.ProjectFilter, report analytics.Report) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	title := SheetName(c.prefix, project)
	if err := c.ensureSheet(ctx, title); err != nil {
		return err
	}

	quoted := quoteSheet(title)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, quoted+"!"+clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", title, err)
	}

	rows := reportRows(project, report, c.now())
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, quoted+"!A1", &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheet %s: %w", title, err)
	}

	c.logger.InfoContext(ctx, "Exported report to Google Sheets",
		"sheet", title,
		"rows", len(rows),
		"project", project.String())
	return nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	c.logger.InfoContext(ctx, "Created report sheet", "sheet", title)
	return nil
}

// SheetName returns "<prefix> <project>", where project is "all",
// "unassigned" or the project ID.
func SheetName(prefix string, project core.ProjectFilter) string {
	label := project.String()
	if project.Scope == core.ScopeProject {
		label = project.ID
	}
	if prefix == "" {
		return label
	}
	return prefix + " " + label
}

// quoteSheet quotes a sheet title for A1 notation.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// reportRows lays the report out as stacked sections separated by a blank
// row. Amounts are written as numbers in currency units.
func reportRows(project core.ProjectFilter, r analytics.Report, exportedAt time.Time) [][]any {
	rows := [][]any{
		{"Report", project.String()},
		{"Exported at", exportedAt.UTC().Format(time.RFC3339)},
		{},
		{"Summary"},
		{"Total costs", r.TotalCosts.Units()},
		{"Total expenses", r.TotalExpenses.Units()},
		{"Total budgets", r.TotalBudgets.Units()},
		{"Budget utilization %", round2(r.BudgetUtilization)},
		{},
		{"Budget vs actual"},
		{"Category", "Budgeted", "Actual", "Variance", "Percentage"},
	}
	for _, b := range r.BudgetVsActual {
		rows = append(rows, []any{string(b.Category), b.Budgeted.Units(), b.Actual.Units(), b.Variance.Units(), round2(b.Percentage)})
	}

	rows = append(rows, []any{}, []any{"Category breakdown"}, []any{"Category", "Costs", "Expenses", "Total"})
	for _, c := range r.CategoryBreakdown {
		rows = append(rows, []any{string(c.Category), c.Costs.Units(), c.Expenses.Units(), c.Total().Units()})
	}

	rows = append(rows, []any{}, []any{"Top categories"}, []any{"Category", "Total", "Count"})
	for _, t := range r.TopCategories {
		rows = append(rows, []any{string(t.Category), t.Total.Units(), t.Count})
	}

	rows = append(rows, []any{}, []any{"Monthly trend"}, []any{"Month", "Costs", "Expenses"})
	for _, m := range r.MonthlyTrend {
		rows = append(rows, []any{m.Month, m.Costs.Units(), m.Expenses.Units()})
	}
	return rows
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
