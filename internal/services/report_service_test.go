package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"salaryreport/internal/chart"
	"salaryreport/internal/core"
	"salaryreport/internal/store/memory"
)

var sampleInput = core.SalaryInput{BasicSalary: 5000, Incentives: 500, Spends: 1000, Recharge: 200, Grocery: 300}

type stubRenderer struct {
	result chart.Result
	calls  int
}

func (r *stubRenderer) Render(core.SalaryReport) chart.Result {
	r.calls++
	return r.result
}

type failingRenderer struct{}

func (failingRenderer) Render(core.SalaryReport) chart.Result {
	return chart.Result{Err: &core.RenderError{Cause: errors.New("corrupt intermediate state")}}
}

type recordingPublisher struct {
	published []string
	err       error
}

func (p *recordingPublisher) PublishReportCreated(_ context.Context, rec core.StoredReport) error {
	p.published = append(p.published, rec.ID)
	return p.err
}

// slowStore blocks every call until the context is done.
type slowStore struct{ *memory.Store }

func (slowStore) Insert(ctx context.Context, _ core.SalaryReport, _ core.SalaryInput, _ string) (core.StoredReport, error) {
	<-ctx.Done()
	return core.StoredReport{}, ctx.Err()
}

func (slowStore) ListRecent(ctx context.Context, _ int) ([]core.StoredReport, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type brokenStore struct{ *memory.Store }

func (brokenStore) Insert(context.Context, core.SalaryReport, core.SalaryInput, string) (core.StoredReport, error) {
	return core.StoredReport{}, errors.New("database is locked")
}

func (brokenStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestGenerateStoresAndPublishes(t *testing.T) {
	st := memory.New()
	renderer := &stubRenderer{result: chart.Result{Data: []byte("png")}}
	pub := &recordingPublisher{}
	svc := NewReportService(st, renderer, pub, time.Second)
	ctx := context.Background()

	rec, err := svc.Generate(ctx, sampleInput, "10.1.2.3")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rec.TotalIncome != 5500 || rec.TotalExpenses != 1500 || rec.NetSavings != 4000 {
		t.Fatalf("unexpected totals %+v", rec.SalaryReport)
	}
	if rec.Chart != "cG5n" || rec.ChartError != "" {
		t.Fatalf("chart = %q, chart_error = %q", rec.Chart, rec.ChartError)
	}
	if rec.Input != sampleInput || rec.SourceAddress != "10.1.2.3" {
		t.Fatalf("metadata not kept: %+v", rec)
	}
	if len(pub.published) != 1 || pub.published[0] != rec.ID {
		t.Fatalf("published %v, want [%s]", pub.published, rec.ID)
	}

	got, err := svc.Get(ctx, rec.ID)
	if err != nil || got != rec {
		t.Fatalf("get returned %+v, %v", got, err)
	}
	list, err := svc.List(ctx, 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("list returned %d reports, %v", len(list), err)
	}
}

func TestGenerateAbsorbsRenderFailure(t *testing.T) {
	st := memory.New()
	svc := NewReportService(st, failingRenderer{}, nil, time.Second)

	rec, err := svc.Generate(context.Background(), sampleInput, "")
	if err != nil {
		t.Fatalf("render failure must not fail the flow: %v", err)
	}
	if rec.HasChart() {
		t.Fatal("no chart expected")
	}
	if !strings.Contains(rec.ChartError, "corrupt intermediate state") {
		t.Fatalf("chart_error = %q", rec.ChartError)
	}
	if rec.SavingsPercentage < 72.72 || rec.SavingsPercentage > 72.73 {
		t.Fatalf("savings percentage = %v", rec.SavingsPercentage)
	}
	if st.Len() != 1 {
		t.Fatal("report should still be stored")
	}
}

func TestComputeWithEmptyRenderResult(t *testing.T) {
	svc := NewReportService(memory.New(), &stubRenderer{}, nil, time.Second)
	rep, err := svc.Compute(context.Background(), sampleInput)
	if err != nil {
		t.Fatal(err)
	}
	if rep.HasChart() || rep.ChartError == "" {
		t.Fatalf("empty render result should surface as chart_error, got %+v", rep)
	}
}

func TestGenerateValidationSkipsSideEffects(t *testing.T) {
	st := memory.New()
	renderer := &stubRenderer{result: chart.Result{Data: []byte("png")}}
	pub := &recordingPublisher{}
	svc := NewReportService(st, renderer, pub, time.Second)

	_, err := svc.Generate(context.Background(), core.SalaryInput{Spends: 10}, "")
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if renderer.calls != 0 || st.Len() != 0 || len(pub.published) != 0 {
		t.Fatal("invalid input must not render, store or publish")
	}
}

func TestGeneratePublishFailureIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("circuit breaker is open")}
	svc := NewReportService(memory.New(), &stubRenderer{result: chart.Result{Data: []byte("x")}}, pub, time.Second)

	if _, err := svc.Generate(context.Background(), sampleInput, ""); err != nil {
		t.Fatalf("publish failure leaked: %v", err)
	}
}

func TestStoreFailuresSurfaceAsStorageErrors(t *testing.T) {
	ctx := context.Background()
	renderer := &stubRenderer{result: chart.Result{Data: []byte("x")}}

	broken := NewReportService(brokenStore{memory.New()}, renderer, nil, time.Second)
	if _, err := broken.Generate(ctx, sampleInput, ""); !errors.Is(err, core.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if err := broken.Ping(ctx); !errors.Is(err, core.ErrStorage) {
		t.Fatalf("expected storage error from ping, got %v", err)
	}

	slow := NewReportService(slowStore{memory.New()}, renderer, nil, 20*time.Millisecond)
	_, err := slow.Generate(ctx, sampleInput, "")
	if !errors.Is(err, core.ErrStorage) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected storage timeout, got %v", err)
	}
	if _, err := slow.List(ctx, 5); !errors.Is(err, core.ErrStorage) {
		t.Fatalf("expected storage timeout from list, got %v", err)
	}
}

func TestGetErrorKinds(t *testing.T) {
	svc := NewReportService(memory.New(), &stubRenderer{}, nil, time.Second)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "nope"); !errors.Is(err, core.ErrInvalidID) || errors.Is(err, core.ErrStorage) {
		t.Fatalf("expected bare invalid id, got %v", err)
	}
	if _, err := svc.Get(ctx, core.NewReportID()); !errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrStorage) {
		t.Fatalf("expected bare not found, got %v", err)
	}
}

func TestNewReportServiceDefaultsTimeout(t *testing.T) {
	svc := NewReportService(memory.New(), &stubRenderer{}, nil, 0)
	if svc.timeout != DefaultStoreTimeout {
		t.Fatalf("timeout = %v", svc.timeout)
	}
	if err := svc.Close(); err != nil {
		t.Fatal(err)
	}
}
