// Package http exposes the report service as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"salaryreport/internal/cache"
	"salaryreport/internal/core"
	applog "salaryreport/internal/log"
	"salaryreport/internal/middleware/ratelimit"
	"salaryreport/internal/middleware/security"
	"salaryreport/internal/middleware/trace"
)

// ReportService is the part of services.ReportService the API needs.
type ReportService interface {
	Generate(ctx context.Context, in core.SalaryInput, sourceAddress string) (core.StoredReport, error)
	List(ctx context.Context, limit int) ([]core.StoredReport, error)
	Get(ctx context.Context, id string) (core.StoredReport, error)
	Ping(ctx context.Context) error
}

// Options configures the middleware around the API routes.
type Options struct {
	Logger             *applog.Logger
	AllowedOrigins     []string
	TrustedProxies     []string
	RateLimitPerMinute int
	// CacheStats reports the report cache counters on /metrics; optional.
	CacheStats func() cache.Stats
}

type Server struct {
	http.Server
	reports ReportService
	logger  *applog.Logger

	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware
	cacheStats       func() cache.Stats

	reportsCreated atomic.Int64
	started        time.Time
	shutdownOnce   sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, reports ReportService, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentHTTP})
	}

	detector, err := security.NewDetector(opts.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		reports:          reports,
		logger:           logger,
		securityDetector: detector,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		cacheStats:       opts.CacheStats,
		started:          time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/calculate", s.handleCalculate)
	mux.HandleFunc("GET /api/reports", s.handleListReports)
	mux.HandleFunc("GET /api/reports/{id}", s.handleGetReport)
	mux.HandleFunc("GET /api/test-db-connection", s.handleTestDBConnection)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	limit := s.rateLimiter.Middleware(detector.ExtractClientIP, handleRateLimited, http.MethodPost)
	cors := security.NewCORS(opts.AllowedOrigins)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var h http.Handler = mux
	h = limit(h)
	h = detector.Middleware(h)
	h = cors.Middleware(h)
	h = headers.Middleware(h)
	h = s.traceMiddleware.Middleware(h)
	s.Handler = h

	return s, nil
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded")
	ErrorResponse(http.StatusTooManyRequests, KindRateLimit, "Rate limit exceeded. Please try again later.").Write(w)
}
