package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	applog "salaryreport/internal/log"
)

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	in, err := ParseCalculateRequest(w, r)
	if err != nil {
		if errors.Is(err, errMalformedBody) {
			ErrorResponse(http.StatusBadRequest, KindValidation, err.Error()).Write(w)
			return
		}
		writeError(w, r, applog.OpParse, err)
		return
	}

	clientIP := s.securityDetector.ExtractClientIP(r)
	rec, err := s.reports.Generate(r.Context(), in, clientIP)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}

	s.reportsCreated.Add(1)
	NewJSONResponse(rec).Write(w)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit, err := ParseLimit(r)
	if err != nil {
		ErrorResponse(http.StatusBadRequest, KindValidation, err.Error()).Write(w)
		return
	}

	reports, err := s.reports.List(r.Context(), limit)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	NewJSONResponse(reports).Write(w)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rec, err := s.reports.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse(rec).Write(w)
}

// handleTestDBConnection reports whether the store answers a ping.
func (s *Server) handleTestDBConnection(w http.ResponseWriter, r *http.Request) {
	if err := s.reports.Ping(r.Context()); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Store connection test failed",
			applog.FieldOperation, applog.OpPing, applog.FieldError, err)
		NewJSONResponse(map[string]any{
			"status":     "error",
			"connection": false,
			"error":      err.Error(),
			"kind":       KindStorage,
		}).Status(http.StatusInternalServerError).Write(w)
		return
	}
	NewJSONResponse(map[string]any{"status": "success", "connection": true}).Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	}).Write(w)
}

// handleReady reports ready only when the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if err := s.reports.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewJSONResponse(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Status(httpStatus).Write(w)
}

// handleMetrics writes counters in the Prometheus text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	w.WriteHeader(http.StatusOK)

	counter := func(name, help string, v any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %v\n\n", name, help, name, name, v)
	}
	gauge := func(name, help string, v any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %v\n\n", name, help, name, name, v)
	}

	counter("http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests)
	gauge("http_response_time_avg_microseconds", "Average response time", traceMetrics.AverageResponseTime)
	counter("reports_created_total", "Total number of reports created", s.reportsCreated.Load())
	counter("rate_limit_hits_total", "Total requests rejected by the rate limiter", rateLimitMetrics.TotalHits)
	gauge("active_rate_limit_clients", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	counter("suspicious_requests_total", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	counter("invalid_client_ip_total", "Forwarded client addresses that failed to parse", securityMetrics.InvalidIPAttempts)

	if s.cacheStats != nil {
		stats := s.cacheStats()
		counter("report_cache_hits_total", "Report cache hits", stats.Hits)
		counter("report_cache_misses_total", "Report cache misses", stats.Misses)
		counter("report_cache_evictions_total", "Report cache evictions", stats.Evictions)
		gauge("report_cache_entries", "Current report cache entries", stats.Size)
	}

	gauge("uptime_seconds", "Application uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.started).Seconds()))
}
