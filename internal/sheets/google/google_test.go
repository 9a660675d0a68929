package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"

	"salaryreport/internal/core"
)

type fakeSheets struct {
	mu       sync.Mutex
	appended [][]any
	header   []any
	hasRows  bool
	fail     bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		http.Error(w, `{"error":{"code":503,"message":"backend unavailable"}}`, http.StatusServiceUnavailable)
		return
	}

	var body struct {
		Values [][]any `json:"values"`
	}
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.appended = append(f.appended, body.Values...)
		fmt.Fprintf(w, `{"updates":{"updatedRange":"'2024 Reports'!A%d:L%d"}}`, len(f.appended)+1, len(f.appended)+1)
	case r.Method == http.MethodGet:
		if f.hasRows {
			fmt.Fprint(w, `{"values":[["created_at"]]}`)
			return
		}
		fmt.Fprint(w, `{}`)
	case r.Method == http.MethodPut:
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.header = body.Values[0]
		f.hasRows = true
		fmt.Fprint(w, `{}`)
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{
		SpreadsheetID: "sheet-id",
		SheetName:     "2024 Reports",
		Options: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithoutAuthentication(),
			goption.WithHTTPClient(srv.Client()),
		},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func sampleRecord() core.StoredReport {
	return core.StoredReport{
		ID:        "65a1b2c3d4e5f60718293a4b",
		CreatedAt: time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC),
		SalaryReport: core.SalaryReport{
			TotalIncome: 5500, TotalExpenses: 1500, NetSavings: 4000, SavingsPercentage: 72.72727272727273,
			Chart: "not exported",
		},
		Input:         core.SalaryInput{BasicSalary: 5000, Incentives: 500, Spends: 1000, Recharge: 200, Grocery: 300},
		SourceAddress: "198.51.100.7",
	}
}

func TestReportRowMatchesHeader(t *testing.T) {
	row := ReportRow(sampleRecord())
	if len(row) != len(Header) {
		t.Fatalf("row has %d cells, header has %d", len(row), len(Header))
	}
	if row[0] != "2024-06-01T08:30:00Z" || row[1] != "65a1b2c3d4e5f60718293a4b" {
		t.Fatalf("unexpected leading cells %v", row[:2])
	}
	if row[7] != 5500.0 || row[9] != 4000.0 || row[11] != "198.51.100.7" {
		t.Fatalf("unexpected row %v", row)
	}
}

func TestExportReportAppendsRow(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	ref, err := c.ExportReport(context.Background(), sampleRecord())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if ref != "'2024 Reports'!A2:L2" {
		t.Fatalf("ref = %q", ref)
	}
	if len(fake.appended) != 1 {
		t.Fatalf("appended %d rows", len(fake.appended))
	}
	got := fake.appended[0]
	if got[1] != "65a1b2c3d4e5f60718293a4b" || got[2] != 5000.0 {
		t.Fatalf("unexpected row sent: %v", got)
	}
}

func TestExportReportError(t *testing.T) {
	c := newTestClient(t, &fakeSheets{fail: true})
	_, err := c.ExportReport(context.Background(), sampleRecord())
	if err == nil || !strings.Contains(err.Error(), "65a1b2c3d4e5f60718293a4b") {
		t.Fatalf("expected error naming the report, got %v", err)
	}
}

func TestEnsureHeader(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	ctx := context.Background()

	if err := c.EnsureHeader(ctx); err != nil {
		t.Fatalf("ensure header: %v", err)
	}
	if len(fake.header) != len(Header) || fake.header[0] != "created_at" {
		t.Fatalf("header = %v", fake.header)
	}

	fake.header = nil
	if err := c.EnsureHeader(ctx); err != nil {
		t.Fatal(err)
	}
	if fake.header != nil {
		t.Fatal("existing header must not be rewritten")
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	if _, err := loadCredentials(Config{}); err == nil {
		t.Fatal("expected missing credentials error")
	}

	got, err := loadCredentials(Config{CredentialsJSON: `{"type":"service_account"}`})
	if err != nil || string(got) != `{"type":"service_account"}` {
		t.Fatalf("inline json: %q, %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"from":"file"}`), 0600); err != nil {
		t.Fatal(err)
	}
	got, err = loadCredentials(Config{CredentialsFile: path})
	if err != nil || string(got) != `{"from":"file"}` {
		t.Fatalf("file: %q, %v", got, err)
	}

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)
	if _, err := loadCredentials(Config{}); err != nil {
		t.Fatalf("fallback: %v", err)
	}

	if _, err := loadCredentials(Config{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Fatal("expected read error")
	}
}

func TestYearPrefixedName(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"Reports", "2025 Reports"},
		{"2024 Reports", "2024 Reports"},
		{"  Reports ", "2025 Reports"},
		{"", ""},
		{"12345", "2025 12345"},
	}
	for _, tc := range cases {
		if got := yearPrefixedName(tc.base, 2025); got != tc.want {
			t.Errorf("yearPrefixedName(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}
