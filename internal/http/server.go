// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pennywise/internal/auth"
	"pennywise/internal/cache"
	"pennywise/internal/config"
	"pennywise/internal/insights"
	"pennywise/internal/ledger"
	"pennywise/internal/log"
	"pennywise/internal/middleware/ratelimit"
	"pennywise/internal/middleware/security"
	"pennywise/internal/middleware/trace"
	"pennywise/internal/offline"
)

const (
	defaultViewTTL = 5 * time.Minute
	requestTimeout = 10 * time.Second
	ctxUserKey     = "user_id"
)

// Options are the transport settings of the server.
type Options struct {
	Addr           string
	CORSOrigins    []string
	RateLimitRPM   int
	ViewTTL        time.Duration
	TrustedProxies []string
}

// Deps are the collaborators the handlers call into. Views may be nil, in
// which case dashboard responses are cached in process.
type Deps struct {
	Sessions *ledger.Manager
	Views    cache.Store
	Goals    *offline.GoalStore
	Catalog  config.Catalog
	Insights *insights.Engine
	Verifier *auth.Verifier
	// Checks are run by /readyz; a non-nil error marks the service not ready.
	Checks map[string]func(context.Context) error
	Logger *log.Logger
}

type Server struct {
	http.Server

	sessions *ledger.Manager
	views    cache.Store
	viewTTL  time.Duration
	goals    *offline.GoalStore
	catalog  config.Catalog
	engine   *insights.Engine
	verifier *auth.Verifier
	checks   map[string]func(context.Context) error
	logger   *log.Logger

	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector

	started      time.Time
	now          func() time.Time
	shutdownOnce sync.Once
}

// NewServer wires middleware and routes, returning a ready-to-run server.
func NewServer(opts Options, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	views := deps.Views
	if views == nil {
		views = cache.NewLocalStore(500, defaultViewTTL)
	}
	viewTTL := opts.ViewTTL
	if viewTTL <= 0 {
		viewTTL = defaultViewTTL
	}
	engine := deps.Insights
	if engine == nil {
		engine = insights.NewEngine(insights.Config{})
	}
	catalog := deps.Catalog
	if len(catalog.Expense) == 0 && len(catalog.Income) == 0 {
		catalog = config.DefaultCatalog()
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err.Error())
		}
	}

	s := &Server{
		sessions: deps.Sessions,
		views:    views,
		viewTTL:  viewTTL,
		goals:    deps.Goals,
		catalog:  catalog,
		engine:   engine,
		verifier: deps.Verifier,
		checks:   deps.Checks,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitRPM}),
		detector: detector,
		started:  time.Now(),
		now:      time.Now,
	}
	s.tracer = trace.NewMiddleware(logger, detector.ClientIP)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.tracer.Handler())
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.detector.Handler(s.logger))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/healthz", s.handleHealth)
	r.GET("/readyz", s.handleReady)

	api := r.Group("/api", s.requireUser(), s.limiter.Handler(s.logger, s.rateLimitKey), withTimeout(requestTimeout))
	{
		api.GET("/state", s.handleGetState)
		api.POST("/state/reload", s.handleReload)
		api.DELETE("/state/error", s.handleDismissError)

		api.GET("/transactions", s.handleListTransactions)
		api.POST("/transactions", s.handleCreateTransaction)
		api.GET("/transactions/:id", s.handleGetTransaction)
		api.PUT("/transactions/:id", s.handleUpdateTransaction)
		api.DELETE("/transactions/:id", s.handleDeleteTransaction)

		api.GET("/balances", s.handleGetBalances)
		api.PUT("/balances", s.handleSetBalances)

		api.GET("/limits", s.handleListLimits)
		api.PUT("/limits", s.handleReplaceLimits)
		api.POST("/limits", s.handleUpsertLimit)
		api.PUT("/limits/:month", s.handleSetMonthLimits)
		api.DELETE("/limits/:month/:category", s.handleDeleteLimit)
		api.POST("/limits/:month/copy-previous", s.handleCopyPreviousLimits)

		api.GET("/summary/daily", s.handleDailySummary)
		api.GET("/summary/monthly", s.handleMonthlySummary)
		api.GET("/summary/yearly", s.handleYearlySummary)
		api.GET("/trends", s.handleTrends)
		api.GET("/trends/savings", s.handleSavingsTrends)
		api.GET("/insights", s.handleInsights)
		api.GET("/export", s.handleExport)

		api.GET("/goals", s.handleListGoals)
		api.POST("/goals", s.handleCreateGoal)
		api.PUT("/goals/:id", s.handleUpdateGoal)
		api.DELETE("/goals/:id", s.handleDeleteGoal)
		api.POST("/goals/:id/contribute", s.handleContributeGoal)

		api.GET("/categories", s.handleCategories)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", trace.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", trace.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

// requireUser authenticates the bearer token and scopes the request context
// to its subject.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.verifier == nil {
			abortError(c, http.StatusUnauthorized, auth.ErrNotAuthenticated.Error())
			return
		}
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortError(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, err := s.verifier.Verify(token)
		if err != nil {
			s.requestLogger(c).WarnContext(c.Request.Context(), "Rejected token",
				log.FieldError, err.Error(),
				log.FieldClientIP, s.detector.ClientIP(c))
			abortError(c, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
			return
		}
		c.Set(ctxUserKey, userID)
		c.Request = c.Request.WithContext(auth.WithUser(c.Request.Context(), userID))
		c.Next()
	}
}

// rateLimitKey buckets authenticated callers by user, others by address.
func (s *Server) rateLimitKey(c *gin.Context) string {
	if id := c.GetString(ctxUserKey); id != "" {
		return "user:" + id
	}
	return "ip:" + s.detector.ClientIP(c)
}

func withTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// requestLogger carries the request id attached by the trace middleware.
func (s *Server) requestLogger(c *gin.Context) *log.Logger {
	l := log.FromContext(c.Request.Context(), s.logger).WithComponent(log.ComponentHTTP)
	if uid := c.GetString(ctxUserKey); uid != "" {
		l = l.With(log.FieldUserID, uid)
	}
	return l
}

// session returns the caller's loaded ledger session, writing an error
// response and returning false when it cannot be loaded.
func (s *Server) session(c *gin.Context) (*ledger.Session, bool) {
	sess, err := s.sessions.Session(c.Request.Context(), c.GetString(ctxUserKey))
	if err != nil {
		s.respondError(c, nil, ledger.MsgLoadFailed, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
		s.logger.WarnContext(ctx, "Readiness check failed", "checks", checks)
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}

// Shutdown stops background work and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
