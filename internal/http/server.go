package http

import (
	"context"
	"net/http"
	"time"

	"finboard/internal/analytics"
	"finboard/internal/board"
	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/middleware/ratelimit"
	"finboard/internal/middleware/security"
	"finboard/internal/middleware/trace"
	"finboard/internal/ports"
)

// AnalyticsService computes cached reports and insights.
type AnalyticsService interface {
	Report(ctx context.Context, q core.RecordQuery) (analytics.Report, error)
	Insights(ctx context.Context, q core.RecordQuery) ([]analytics.Insight, error)
}

// RecordService is the validated write path for records.
type RecordService interface {
	ListCosts(ctx context.Context, q core.RecordQuery) ([]core.CostRecord, error)
	ListExpenses(ctx context.Context, q core.RecordQuery) ([]core.ExpenseRecord, error)
	ListBudgets(ctx context.Context, project core.ProjectFilter) ([]core.BudgetRecord, error)
	CreateCost(ctx context.Context, c core.CostRecord) (core.CostRecord, error)
	CreateExpense(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error)
	CreateBudget(ctx context.Context, b core.BudgetRecord) (core.BudgetRecord, error)
	DeleteCost(ctx context.Context, id string) error
	DeleteExpense(ctx context.Context, id string) error
	DeleteBudget(ctx context.Context, id string) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Analytics  AnalyticsService
	Records    RecordService
	Tasks      ports.TaskStore
	Reconciler *board.Reconciler
	Ready      Pinger
	Logger     *applog.Logger
	RateLimit  ratelimit.Config
}

type Server struct {
	http.Server

	analytics  AnalyticsService
	records    RecordService
	tasks      ports.TaskStore
	reconciler *board.Reconciler
	ready      Pinger
	logger     *applog.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
}

// NewServer wires routes and the middleware chain:
// trace, security headers, suspicious request logging, rate limit.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	rlCfg := deps.RateLimit
	if rlCfg.RequestsPerMinute <= 0 {
		rlCfg = ratelimit.DefaultConfig()
	}

	s := &Server{
		analytics:  deps.Analytics,
		records:    deps.Records,
		tasks:      deps.Tasks,
		reconciler: deps.Reconciler,
		ready:      deps.Ready,
		logger:     logger,
		limiter:    ratelimit.NewLimiter(rlCfg),
		detector:   security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /api/insights", s.handleInsights)

	mux.HandleFunc("GET /api/costs", s.handleListCosts)
	mux.HandleFunc("POST /api/costs", s.handleCreateCost)
	mux.HandleFunc("DELETE /api/costs/{id}", s.handleDeleteCost)
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.handleEditTask)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})(h)
	h = s.suspiciousRequests(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// suspiciousRequests logs requests matching known probe patterns. They are
// still served; routing rejects what it does not know.
func (s *Server) suspiciousRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldPath, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the rate limiter cleanup and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	s.logger.InfoContext(ctx, "HTTP server shutting down",
		"requests_served", s.tracer.TotalRequests(),
		"suspicious_requests", s.detector.SuspiciousCount())
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "store unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}
