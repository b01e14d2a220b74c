package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"dicipfinance/internal/cache"
	"dicipfinance/internal/insights"
	applog "dicipfinance/internal/log"
	"dicipfinance/internal/middleware/ratelimit"
	"dicipfinance/internal/middleware/security"
	"dicipfinance/internal/middleware/trace"
	"dicipfinance/internal/report"
	"dicipfinance/internal/services"
)

// Options tune the server; zero values fall back to defaults.
type Options struct {
	Currency     string
	CacheTTL     time.Duration
	CacheSize    int
	RateLimitRPM int
	Logger       *applog.Logger
	// Ready checks the storage connections for /readyz.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server
	ledger   *services.Ledger
	insights *insights.Service
	currency string
	ready    func(ctx context.Context) error

	// dashboards caches overviews per mode and period. Keys carry the
	// ledger generation, so a value computed before a change is never served after it.
	dashboards *cache.LRUCache[dashboardResponse]
	generation atomic.Uint64

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	stopBackground context.CancelFunc
	shutdownOnce   sync.Once
}

// NewServer wires routes and middleware around the ledger and starts the
// cache and rate limiter cleanup loops, stopped by Shutdown.
func NewServer(addr string, ledger *services.Ledger, ai *insights.Service, opts Options) *Server {
	if opts.Currency == "" {
		opts.Currency = report.DefaultCurrency
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 100
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if ai == nil {
		ai = insights.NewService(nil, 0)
	}

	detector := security.NewDetector()
	s := &Server{
		ledger:     ledger,
		insights:   ai,
		currency:   opts.Currency,
		ready:      opts.Ready,
		dashboards: cache.NewLRUCache[dashboardResponse](opts.CacheSize, opts.CacheTTL),
		limiter:    ratelimit.New(opts.RateLimitRPM),
		detector:   detector,
		tracer:     trace.NewMiddleware(opts.Logger, detector.ExtractClientIP),
	}
	ledger.OnChange(s.invalidateDashboards)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.limiter.Writes(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldRequestID, trace.GetRequestID(r.Context()),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "demasiadas solicitudes, intente de nuevo más tarde").Write(w)
	})(handler)
	handler = security.Headers(handler)
	handler = detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Insight endpoints wait on the model.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopBackground = cancel
	go cache.NewManager(s.dashboards).Run(ctx, 10*time.Minute)
	go s.limiter.Run(ctx)

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/mode", s.handleGetMode)
	mux.HandleFunc("PUT /api/mode", s.handleSetMode)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("GET /api/categories/{id}", s.handleGetCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgetGoals)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudgetGoal)
	mux.HandleFunc("GET /api/budgets/progress", s.handleBudgetProgress)
	mux.HandleFunc("GET /api/budgets/{id}", s.handleGetBudgetGoal)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleUpdateBudgetGoal)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudgetGoal)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/dashboard/chart.png", s.handleSpendingChart)
	mux.HandleFunc("POST /api/insights", s.handleDashboardInsights)
	mux.HandleFunc("POST /api/insights/summary", s.handleSpendingSummary)
	mux.HandleFunc("POST /api/insights/tips", s.handleBudgetTips)

	mux.HandleFunc("GET /api/reports", s.handleReport)
	mux.HandleFunc("GET /api/reports/export.xlsx", s.handleReportExport)
}

// Shutdown stops the background loops and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.stopBackground()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) invalidateDashboards() {
	s.generation.Add(1)
	s.dashboards.Purge()
}

func (s *Server) dashboardKey(mode string, p report.Period) string {
	return fmt.Sprintf("%d:%s:%s", s.generation.Load(), mode, p.String())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once the ledger has loaded its lists and the
// storage connections answer.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ledger.Snapshot().Source == "" {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
		return
	}
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

type metricsResponse struct {
	Requests  trace.Metrics             `json:"requests"`
	RateLimit ratelimit.Stats           `json:"rateLimit"`
	Security  security.DetectionMetrics `json:"security"`
	Cache     cache.Stats               `json:"cache"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(metricsResponse{
		Requests:  s.tracer.GetMetrics(),
		RateLimit: s.limiter.Stats(),
		Security:  s.detector.GetMetrics(),
		Cache:     s.dashboards.Stats(),
	}).Write(w)
}
