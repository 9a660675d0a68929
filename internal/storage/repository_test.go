package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"salaryreport/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "reports.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestInsertAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	in := core.SalaryInput{BasicSalary: 5000, Incentives: 500, Spends: 1000, Recharge: 200, Grocery: 300}
	rep, err := core.Calculate(in)
	if err != nil {
		t.Fatal(err)
	}
	rep.Chart = "iVBORw0KGgo="

	rec, err := repo.Insert(ctx, rep, in, "192.168.1.10")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != rec {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, rec)
	}
	if got.SavingsPercentage != rep.SavingsPercentage {
		t.Fatalf("percentage changed in storage: %v", got.SavingsPercentage)
	}
}

func TestGetByIDErrors(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "123"); !errors.Is(err, core.ErrInvalidID) {
		t.Fatalf("expected invalid id, got %v", err)
	}
	if _, err := repo.GetByID(ctx, core.NewReportID()); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListRecentOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	stamps := []time.Time{base, base.Add(time.Minute), base.Add(time.Minute)}
	i := 0
	repo.now = func() time.Time {
		ts := stamps[i]
		i++
		return ts
	}

	var ids []string
	for n := 0; n < len(stamps); n++ {
		rec, err := repo.Insert(ctx, core.SalaryReport{TotalIncome: float64(n + 1)}, core.SalaryInput{}, "")
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, rec.ID)
	}

	got, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != ids[2] || got[1].ID != ids[1] {
		t.Fatalf("expected [R3 R2], got %+v", got)
	}
	if !got[0].CreatedAt.Equal(stamps[2]) {
		t.Fatalf("created_at = %v, want %v", got[0].CreatedAt, stamps[2])
	}
}

func TestListRecentEmpty(t *testing.T) {
	repo := newTestRepo(t)
	got, err := repo.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestClosedRepositoryReportsStorageError(t *testing.T) {
	repo := newTestRepo(t)
	repo.Close()

	_, err := repo.Insert(context.Background(), core.SalaryReport{TotalIncome: 1}, core.SalaryInput{}, "")
	if !errors.Is(err, core.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if err := repo.Ping(context.Background()); !errors.Is(err, core.ErrStorage) {
		t.Fatalf("expected storage error from ping, got %v", err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	for i := 0; i < 2; i++ {
		if err := RunMigrations(path); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	version, dirty, err := SchemaVersion(path)
	if err != nil {
		t.Fatal(err)
	}
	if version != 1 || dirty {
		t.Fatalf("version=%d dirty=%v", version, dirty)
	}
}
