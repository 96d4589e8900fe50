// Package http is the gin adapter that exposes the back-office services as
// JSON endpoints, page shells and the job progress WebSocket.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/estr/backoffice/internal/application/port"
	"github.com/estr/backoffice/internal/application/service"
	"github.com/estr/backoffice/internal/datatable"
	"github.com/estr/backoffice/internal/jobprogress"
	"github.com/estr/backoffice/internal/metrics"
	"github.com/estr/backoffice/internal/session"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Mode         string
	Version      string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		Mode:         gin.ReleaseMode,
		Version:      "dev",
	}
}

// Dependencies are the services and components behind the routes
type Dependencies struct {
	Auth       port.AuthAPI
	Cases      service.CaseService
	Parameters service.ParameterService
	Jobs       service.JobService
	Reports    service.ReportService
	Journal    service.JournalService
	Sessions   *session.Manager
	Tracker    *jobprogress.Tracker
	Hub        *jobprogress.Hub
	// Metrics is optional; /metrics is not served without it
	Metrics *metrics.Collector
	// Health is optional; without it /health only reports liveness
	Health HealthProbe
	Limits datatable.Limits
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	deps       Dependencies
	logger     Logger
}

// NewServer creates a new HTTP server with the given dependencies
func NewServer(config ServerConfig, deps Dependencies, logger Logger) *Server {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	if deps.Limits.DefaultPageSize <= 0 {
		deps.Limits.DefaultPageSize = datatable.DefaultPageSize
	}

	server := &Server{
		config: config,
		router: gin.New(),
		deps:   deps,
		logger: logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(loggingMiddleware(s.deps.Sessions, s.logger))
	if s.deps.Metrics != nil {
		s.router.Use(s.deps.Metrics.GinMiddleware())
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.deps, s.config.Version, s.logger)

	s.router.GET("/health", h.HealthCheck)
	s.router.StaticFS("/static", staticFiles())
	if s.deps.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}

	guarded := s.router.Group("/")
	guarded.Use(s.deps.Sessions.Guard())

	guarded.GET(session.SignInPath, h.SignInPage)
	guarded.POST(session.SignInPath, h.SignIn)
	guarded.POST("/signout", h.SignOut)
	guarded.GET("/", h.Home)
	guarded.GET("/app/:screen", h.AppPage)
	guarded.GET("/ws/job-progress", h.JobProgressSocket)

	api := guarded.Group("/api")
	{
		api.GET("/me", h.Me)

		// Cases
		api.GET("/cases/:track", h.ListCases)
		api.GET("/cases/:track/:id/form", h.CaseForm)
		api.POST("/cases/:track/:id/actions/:action", h.SubmitCaseAction)
		api.POST("/cases/:track/bulk/:action", h.SubmitBulkAction)

		// Parameters
		api.GET("/parameters/red-flag", h.ListRedFlagParameters)
		api.GET("/parameters/red-flag/:indicator", h.RedFlagParameterForm)
		api.PUT("/parameters/red-flag/:indicator", h.SaveRedFlagParameter)
		api.GET("/parameters/transaction-code", h.TransactionCodeForm)
		api.PUT("/parameters/transaction-code", h.SaveTransactionCode)
		api.GET("/parameters/pending", h.ListPendingParameters)
		api.POST("/parameters/:id/authorize", h.AuthorizeParameter)

		// Jobs
		api.GET("/jobs", h.KnownJobs)
		api.POST("/jobs/:name/trigger", h.TriggerJob)
		api.GET("/jobs/logs", h.JobLogs)
		api.GET("/jobs/progress", h.JobProgress)

		// Reports
		api.GET("/reports", h.ListReports)
		api.GET("/reports/export", h.ExportReports)

		// Journal
		api.GET("/journal", h.ListJournal)
		api.GET("/journal/:subject/:id", h.SubjectHistory)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
