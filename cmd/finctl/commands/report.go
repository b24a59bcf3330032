package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"finboard/internal/analytics"
	"finboard/internal/core"
	"finboard/internal/memory"
	"finboard/internal/ports"
	"finboard/internal/services"
	"finboard/internal/storage"
)

type queryOptions struct {
	project string
	from    string
	to      string
	file    string
}

func (q *queryOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&q.project, "project", "", `Project scope: a project ID, "unassigned" or empty for all`)
	cmd.Flags().StringVar(&q.from, "from", "", "Inclusive start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&q.to, "to", "", "Inclusive end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&q.file, "file", "", "Read records from a JSON export instead of the database")
}

func (q *queryOptions) query() (core.RecordQuery, error) {
	rq := core.RecordQuery{Project: core.ParseProjectFilter(q.project)}
	if q.from != "" {
		d, err := core.ParseDate(q.from)
		if err != nil {
			return core.RecordQuery{}, fmt.Errorf("--from: %w", err)
		}
		rq.From = d
	}
	if q.to != "" {
		d, err := core.ParseDate(q.to)
		if err != nil {
			return core.RecordQuery{}, fmt.Errorf("--to: %w", err)
		}
		rq.To = d
	}
	return rq, nil
}

// recordFile is the JSON export layout accepted by --file. Records go
// through the lenient ingest path, like any upstream feed.
type recordFile struct {
	Costs    []analytics.RawCost    `json:"costs"`
	Expenses []analytics.RawExpense `json:"expenses"`
	Budgets  []analytics.RawBudget  `json:"budgets"`
}

func loadRecordFile(path string) (*memory.Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f recordFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	store := memory.New()
	store.Seed(
		analytics.NormalizeCosts(f.Costs),
		analytics.NormalizeExpenses(f.Expenses),
		analytics.NormalizeBudgets(f.Budgets),
		nil,
	)
	return store, nil
}

// openReader returns the record source and a function releasing it.
func openReader(opts *globalOptions, q *queryOptions) (ports.RecordReader, func(), error) {
	if q.file != "" {
		store, err := loadRecordFile(q.file)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
	repo, err := storage.NewSQLiteRepository(opts.dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database %s: %w", opts.dbPath, err)
	}
	return repo, func() { repo.Close() }, nil
}

// analyticsFor builds an uncached analytics service over the chosen source.
func analyticsFor(cmd *cobra.Command, opts *globalOptions, q *queryOptions) (*services.AnalyticsService, core.RecordQuery, func(), error) {
	slog.SetDefault(opts.logger(cmd.ErrOrStderr()))

	rq, err := q.query()
	if err != nil {
		return nil, core.RecordQuery{}, nil, err
	}
	reader, closeFn, err := openReader(opts, q)
	if err != nil {
		return nil, core.RecordQuery{}, nil, err
	}
	return services.NewAnalyticsService(reader, nil, analytics.DefaultThresholds()), rq, closeFn, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newReportCmd(opts *globalOptions) *cobra.Command {
	q := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compute the analytics report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, rq, closeFn, err := analyticsFor(cmd, opts, q)
			if err != nil {
				return err
			}
			defer closeFn()

			report, err := svc.Report(cmd.Context(), rq)
			if err != nil {
				return err
			}
			return writeJSON(cmd, report)
		},
	}
	q.bind(cmd)
	return cmd
}

func newInsightsCmd(opts *globalOptions) *cobra.Command {
	q := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "List insights for the report, most severe first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, rq, closeFn, err := analyticsFor(cmd, opts, q)
			if err != nil {
				return err
			}
			defer closeFn()

			insights, err := svc.Insights(cmd.Context(), rq)
			if err != nil {
				return err
			}
			if insights == nil {
				insights = []analytics.Insight{}
			}
			return writeJSON(cmd, insights)
		},
	}
	q.bind(cmd)
	return cmd
}
