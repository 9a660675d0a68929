// Package store defines the report persistence port and its decorators.
package store

import (
	"context"

	"salaryreport/internal/core"
)

type (
	// ReportWriter persists a computed report. Implementations assign a fresh
	// id and a UTC creation timestamp, and the record becomes visible atomically.
	ReportWriter interface {
		Insert(ctx context.Context, report core.SalaryReport, input core.SalaryInput, sourceAddress string) (core.StoredReport, error)
	}

	// ReportReader retrieves stored reports.
	ReportReader interface {
		// ListRecent returns up to core.ClampLimit(limit) reports, newest first.
		ListRecent(ctx context.Context, limit int) ([]core.StoredReport, error)
		// GetByID fails with core.ErrInvalidID for a malformed id and
		// core.ErrNotFound for an unknown one.
		GetByID(ctx context.Context, id string) (core.StoredReport, error)
	}

	// ReportStore is the full append-only report store.
	ReportStore interface {
		ReportWriter
		ReportReader
		Ping(ctx context.Context) error
		Close() error
	}
)
