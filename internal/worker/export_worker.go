package worker

import (
	"context"
	"errors"
	"fmt"

	"salaryreport/internal/amqp"
	"salaryreport/internal/core"
	applog "salaryreport/internal/log"
	"salaryreport/internal/store"
)

// ReportExporter writes a stored report to an external destination.
type ReportExporter interface {
	ExportReport(ctx context.Context, rec core.StoredReport) (ref string, err error)
}

// ExportWorker copies newly created reports to the export destination.
type ExportWorker struct {
	reports  store.ReportReader
	exporter ReportExporter
}

func NewExportWorker(reports store.ReportReader, exporter ReportExporter) *ExportWorker {
	return &ExportWorker{reports: reports, exporter: exporter}
}

// HandleReportCreated loads the report named by msg and exports it.
// A report that does not exist is logged and skipped: retrying cannot help.
func (w *ExportWorker) HandleReportCreated(ctx context.Context, msg *amqp.ReportCreatedMessage) error {
	rec, err := w.reports.GetByID(ctx, msg.ReportID)
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrInvalidID) {
		applog.FromContext(ctx).WarnContext(ctx, "Skipping export of unknown report",
			applog.FieldReportID, msg.ReportID,
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load report %s: %w", msg.ReportID, err)
	}

	ref, err := w.exporter.ExportReport(ctx, rec)
	if err != nil {
		return fmt.Errorf("export report: %w", err)
	}

	applog.FromContext(ctx).InfoContext(ctx, "Exported report",
		applog.FieldReportID, rec.ID,
		applog.FieldOperation, applog.OpExport,
		"sheets_ref", ref,
		"created_at", rec.CreatedAt)
	return nil
}

// Run consumes report events until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, consumer *amqp.Client) error {
	return consumer.ConsumeReportCreated(ctx, w.HandleReportCreated)
}
