package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/ports"
)

// ExportProcessorConfig holds configuration for the export processor
type ExportProcessorConfig struct {
	// Interval between full re-exports of Scopes, a backup for lost
	// messages. Zero disables the loop.
	Interval time.Duration

	// Scopes exported on every interval (default: all projects).
	Scopes []core.ProjectFilter
}

func DefaultExportProcessorConfig() ExportProcessorConfig {
	return ExportProcessorConfig{
		Interval: 15 * time.Minute,
		Scopes:   []core.ProjectFilter{{Scope: core.ScopeAll}},
	}
}

// ExportProcessor recomputes reports for changed projects and hands them to
// a ReportExporter.
type ExportProcessor struct {
	reports  *AnalyticsService
	exporter ports.ReportExporter
	config   ExportProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewExportProcessor(reports *AnalyticsService, exporter ports.ReportExporter, config ExportProcessorConfig) *ExportProcessor {
	return &ExportProcessor{
		reports:  reports,
		exporter: exporter,
		config:   config,
	}
}

// HandleRecordsChanged exports the changed project and the all-projects
// report. An error requeues the message.
func (p *ExportProcessor) HandleRecordsChanged(ctx context.Context, msg *amqp.RecordsChangedMessage) error {
	scope := msg.Scope()
	p.reports.Invalidate(scope)

	scopes := []core.ProjectFilter{scope}
	if scope.Scope != core.ScopeAll {
		scopes = append(scopes, core.ProjectFilter{Scope: core.ScopeAll})
	}
	for _, s := range scopes {
		if err := p.Export(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Export computes the unbounded report for project and exports it.
func (p *ExportProcessor) Export(ctx context.Context, project core.ProjectFilter) error {
	report, err := p.reports.Report(ctx, core.RecordQuery{Project: project})
	if err != nil {
		return fmt.Errorf("compute report %s: %w", project, err)
	}
	if err := p.exporter.Export(ctx, project, report); err != nil {
		return fmt.Errorf("export report %s: %w", project, err)
	}
	slog.InfoContext(ctx, "Report exported",
		"project", project.String(),
		"total_costs", report.TotalCosts.String(),
		"total_expenses", report.TotalExpenses.String())
	return nil
}

// Start runs the periodic re-export loop. Returns an error if already running.
func (p *ExportProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("export processor is already running")
	}
	if p.config.Interval <= 0 {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Export processor started", "interval", p.config.Interval)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *ExportProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.stopCh)
	done := p.doneCh
	p.mu.Unlock()

	select {
	case <-done:
		slog.InfoContext(ctx, "Export processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export processor stop timed out")
		return ctx.Err()
	}
}

func (p *ExportProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ExportProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.exportAll(ctx)
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.exportAll(ctx)
		}
	}
}

func (p *ExportProcessor) exportAll(ctx context.Context) {
	scopes := p.config.Scopes
	if len(scopes) == 0 {
		scopes = []core.ProjectFilter{{Scope: core.ScopeAll}}
	}
	for _, s := range scopes {
		p.reports.Invalidate(s)
		if err := p.Export(ctx, s); err != nil {
			slog.ErrorContext(ctx, "Periodic export failed", "project", s.String(), "error", err)
		}
	}
}
