package trace

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "salaryreport/internal/log"
)

func TestMiddlewareLogsAndPropagatesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{
		Component: applog.ComponentHTTP,
		Handler:   slog.NewJSONHandler(&buf, nil),
	})
	m := NewMiddleware(logger, func(*http.Request) string { return "203.0.113.7" })

	var seenID string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		applog.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/x", nil))

	if !strings.HasPrefix(seenID, "req_") {
		t.Fatalf("request id = %q", seenID)
	}
	if got := rec.Header().Get(RequestIDHeader); got != seenID {
		t.Errorf("response header id = %q, want %q", got, seenID)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected start, handler and end lines, got %d:\n%s", len(lines), buf.String())
	}
	var handlerLine, endLine map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &handlerLine); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[2]), &endLine); err != nil {
		t.Fatal(err)
	}
	if handlerLine[applog.FieldRequestID] != seenID {
		t.Errorf("handler log lacks request id: %v", handlerLine)
	}
	if endLine["level"] != "WARN" || endLine[applog.FieldStatusCode] != float64(404) {
		t.Errorf("unexpected completion line: %v", endLine)
	}
	if endLine[applog.FieldClientIP] != "203.0.113.7" {
		t.Errorf("client ip missing: %v", endLine)
	}

	if got := m.GetMetrics().TotalRequests; got != 1 {
		t.Errorf("TotalRequests = %d, want 1", got)
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
