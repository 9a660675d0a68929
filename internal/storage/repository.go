package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"salaryreport/internal/core"

	_ "modernc.org/sqlite"
)

const reportColumns = `id, created_at, basic_salary, incentives, spends, recharge, grocery,
	total_income, total_expenses, net_savings, savings_percentage, chart, chart_error, source_address`

// SQLiteRepository stores reports in a single SQLite file.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite would otherwise answer SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return core.StorageFailure("ping", err)
	}
	return nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, report core.SalaryReport, input core.SalaryInput, sourceAddress string) (core.StoredReport, error) {
	rec := core.StoredReport{
		ID:            core.NewReportID(),
		CreatedAt:     r.now().UTC(),
		SalaryReport:  report,
		Input:         input,
		SourceAddress: sourceAddress,
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO reports (`+reportColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.UnixNano(),
		input.BasicSalary, input.Incentives, input.Spends, input.Recharge, input.Grocery,
		report.TotalIncome, report.TotalExpenses, report.NetSavings, report.SavingsPercentage,
		report.Chart, report.ChartError, sourceAddress,
	)
	if err != nil {
		return core.StoredReport{}, core.StorageFailure("insert", err)
	}

	slog.DebugContext(ctx, "Report saved to SQLite",
		"id", rec.ID,
		"total_income", report.TotalIncome,
		"net_savings", report.NetSavings)

	return rec, nil
}

func (r *SQLiteRepository) ListRecent(ctx context.Context, limit int) ([]core.StoredReport, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+reportColumns+` FROM reports
		ORDER BY created_at DESC, seq DESC LIMIT ?`, core.ClampLimit(limit))
	if err != nil {
		return nil, core.StorageFailure("list", err)
	}
	defer rows.Close()

	out := []core.StoredReport{}
	for rows.Next() {
		rec, err := scanReport(rows)
		if err != nil {
			return nil, core.StorageFailure("list", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StorageFailure("list", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (core.StoredReport, error) {
	key, err := core.CanonicalReportID(id)
	if err != nil {
		return core.StoredReport{}, err
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, key)
	rec, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.StoredReport{}, core.NotFound(key)
	}
	if err != nil {
		return core.StoredReport{}, core.StorageFailure("get", err)
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(s scanner) (core.StoredReport, error) {
	var (
		rec       core.StoredReport
		createdAt int64
	)
	err := s.Scan(
		&rec.ID, &createdAt,
		&rec.Input.BasicSalary, &rec.Input.Incentives, &rec.Input.Spends, &rec.Input.Recharge, &rec.Input.Grocery,
		&rec.TotalIncome, &rec.TotalExpenses, &rec.NetSavings, &rec.SavingsPercentage,
		&rec.Chart, &rec.ChartError, &rec.SourceAddress,
	)
	if err != nil {
		return core.StoredReport{}, err
	}
	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	return rec, nil
}
