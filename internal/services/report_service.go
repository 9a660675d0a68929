package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salaryreport/internal/chart"
	"salaryreport/internal/core"
	"salaryreport/internal/log"
	"salaryreport/internal/store"
)

// DefaultStoreTimeout bounds every store call made by ReportService.
const DefaultStoreTimeout = 5 * time.Second

type (
	ChartRenderer interface {
		Render(report core.SalaryReport) chart.Result
	}

	// ReportPublisher announces stored reports to downstream consumers.
	ReportPublisher interface {
		PublishReportCreated(ctx context.Context, rec core.StoredReport) error
	}
)

// ReportService runs the report flow: calculate, render, persist, announce.
type ReportService struct {
	store     store.ReportStore
	renderer  ChartRenderer
	publisher ReportPublisher
	timeout   time.Duration
}

// NewReportService wires the flow. publisher may be nil when no broker is configured.
func NewReportService(st store.ReportStore, renderer ChartRenderer, publisher ReportPublisher, timeout time.Duration) *ReportService {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &ReportService{
		store:     st,
		renderer:  renderer,
		publisher: publisher,
		timeout:   timeout,
	}
}

// Compute calculates a report and attaches its chart without persisting it.
// A chart failure never fails the call; it is reported in ChartError.
func (s *ReportService) Compute(ctx context.Context, in core.SalaryInput) (core.SalaryReport, error) {
	report, err := core.Calculate(in)
	if err != nil {
		return core.SalaryReport{}, err
	}

	res := s.renderer.Render(report)
	if res.OK() {
		report.Chart = res.Base64()
		return report, nil
	}

	cause := res.Err
	if cause == nil {
		cause = &core.RenderError{Cause: errors.New("renderer returned no image")}
	}
	report.ChartError = cause.Error()
	log.FromContext(ctx).WarnContext(ctx, "Chart rendering failed, returning report without chart",
		log.FieldOperation, log.OpRender,
		log.FieldError, cause)
	return report, nil
}

// Generate computes, stores and announces a report.
func (s *ReportService) Generate(ctx context.Context, in core.SalaryInput, sourceAddress string) (core.StoredReport, error) {
	report, err := s.Compute(ctx, in)
	if err != nil {
		return core.StoredReport{}, err
	}

	rec, err := withTimeout(ctx, s.timeout, "insert", func(ctx context.Context) (core.StoredReport, error) {
		return s.store.Insert(ctx, report, in, sourceAddress)
	})
	if err != nil {
		return core.StoredReport{}, err
	}

	log.NewStructuredLogger(log.FromContext(ctx)).LogReportCreated(ctx, rec.ID,
		rec.TotalIncome, rec.TotalExpenses, rec.NetSavings, rec.SavingsPercentage, rec.HasChart())

	if s.publisher != nil {
		if err := s.publisher.PublishReportCreated(ctx, rec); err != nil {
			// The report is stored; export catches up later.
			log.FromContext(ctx).ErrorContext(ctx, "Failed to publish report created message",
				log.FieldReportID, rec.ID, log.FieldError, err)
		}
	}

	return rec, nil
}

func (s *ReportService) List(ctx context.Context, limit int) ([]core.StoredReport, error) {
	return withTimeout(ctx, s.timeout, "list", func(ctx context.Context) ([]core.StoredReport, error) {
		return s.store.ListRecent(ctx, limit)
	})
}

func (s *ReportService) Get(ctx context.Context, id string) (core.StoredReport, error) {
	if _, err := core.ParseReportID(id); err != nil {
		return core.StoredReport{}, err
	}
	return withTimeout(ctx, s.timeout, "get", func(ctx context.Context) (core.StoredReport, error) {
		return s.store.GetByID(ctx, id)
	})
}

func (s *ReportService) Ping(ctx context.Context) error {
	_, err := withTimeout(ctx, s.timeout, "ping", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.store.Ping(ctx)
	})
	return err
}

// Close releases the store.
func (s *ReportService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close report store: %w", err)
	}
	return nil
}

// withTimeout runs a store call under the service deadline and maps its
// failure onto the store error kinds.
func withTimeout[T any](ctx context.Context, timeout time.Duration, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, core.StorageFailure(op, err)
	}
	return v, nil
}
