package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ascvd-risk-server/internal/cache"
	"github.com/ascvd-risk-server/internal/domain"
	"github.com/ascvd-risk-server/internal/metrics"
	"github.com/ascvd-risk-server/internal/middleware"
	"github.com/ascvd-risk-server/internal/report"
	"github.com/ascvd-risk-server/internal/service"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	logger        *logrus.Logger
	calculator    *service.CalculatorService
	assembler     *report.Assembler
	reportCache   cache.ReportCache
	metrics       *metrics.Metrics
	gatherer      prometheus.Gatherer
	rateLimiter   *middleware.RateLimiter
	healthChecks  map[string]HealthCheck
	version       string
	router        *gin.Engine
	server        *http.Server
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithReportCache caches rendered reports
func WithReportCache(c cache.ReportCache) ServerOption {
	return func(s *Server) {
		s.reportCache = c
	}
}

// WithMetrics records report renders and exposes gatherer on /metrics
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.metrics = m
		if gatherer != nil {
			s.gatherer = gatherer
		}
	}
}

// WithHealthCheck adds a dependency probe to /health
func WithHealthCheck(name string, check HealthCheck) ServerOption {
	return func(s *Server) {
		s.healthChecks[name] = check
	}
}

// WithVersion sets the version reported by /health
func WithVersion(version string) ServerOption {
	return func(s *Server) {
		s.version = version
	}
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, calculator *service.CalculatorService, logger *logrus.Logger, opts ...ServerOption) *Server {
	cfg := configManager.GetConfig()

	s := &Server{
		configManager: configManager,
		logger:        logger,
		calculator:    calculator,
		assembler:     report.NewAssembler(cfg.Report),
		gatherer:      prometheus.DefaultGatherer,
		healthChecks:  make(map[string]HealthCheck),
		version:       "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.AuditLogger(logger))
	if cfg.RateLimit.Enabled {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit)
		router.Use(s.rateLimiter.Middleware())
	}
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))

	s.router = router
	s.setupRoutes()

	return s
}

// Handler returns the HTTP handler serving all routes
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	if s.rateLimiter != nil {
		go s.rateLimiter.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logrus.Fields{
			"addr": addr,
			"tls":  cfg.TLSEnabled,
		}).Info("HTTP server listening")

		var err error
		if cfg.TLSEnabled {
			err = s.server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/assessments", s.handleCreateAssessment)
		v1.GET("/assessments", s.handleListAssessments)
		v1.GET("/assessments/:id", s.handleGetAssessment)
		v1.DELETE("/assessments/:id", s.handleDeleteAssessment)
		v1.GET("/assessments/:id/report", s.handleReport)
		v1.GET("/assessments/:id/report.pdf", s.handlePDFReport)
		v1.GET("/assessments/:id/chart", s.handleChart)
		v1.POST("/classify", s.handleClassify)
	}
}

// handleHealth reports service status and dependency probes
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	checks := make(map[string]string, len(s.healthChecks))
	for name, check := range s.healthChecks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	c.JSON(code, gin.H{
		"status":      status,
		"timestamp":   time.Now().UTC(),
		"version":     s.version,
		"persistence": s.calculator.HasRepository(),
		"checks":      checks,
	})
}
