package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/estr/backoffice/internal/application/dispatcher"
	"github.com/estr/backoffice/internal/application/port"
	"github.com/estr/backoffice/internal/application/service"
	"github.com/estr/backoffice/internal/datatable"
	"github.com/estr/backoffice/internal/infrastructure/external/estrapi"
	"github.com/estr/backoffice/internal/infrastructure/worker"
	httpserver "github.com/estr/backoffice/internal/interfaces/http"
	"github.com/estr/backoffice/internal/metrics"
	"github.com/estr/backoffice/internal/session"
	"go.uber.org/zap"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	database *DatabaseBundle

	// Infrastructure - External
	coreAPI *estrapi.Client
	storage port.ExportArchive

	// Observability
	metrics *metrics.Collector

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle
	sessions   *session.Manager
	progress   *ProgressBundle

	// Workers
	workers *worker.WorkerManager

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components and begins processing.
// Components are initialized in dependency order:
// 1. Journal database and repositories
// 2. Metrics collector and core API client
// 3. Export archive storage
// 4. Event dispatcher and job progress
// 5. Application services and sessions
// 6. Workers
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	// Step 1: Initialize database and repositories
	db, err := ProvideDatabase(c.ctx, &c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.database = db
	c.logger.Info("Database initialized", zap.String("path", c.config.Database.Path))

	// Step 2: Initialize metrics and external clients
	c.metrics = metrics.NewCollector()
	if c.coreAPI, err = ProvideCoreAPI(&c.config.CoreAPI, c.metrics, c.logger); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize core API client: %w", err)
	}
	c.logger.Info("Core API client initialized", zap.String("base_url", c.config.CoreAPI.BaseURL))

	// Step 3: Initialize storage
	c.storage = ProvideStorage(&c.config.Export, c.logger)
	if c.storage != nil {
		c.logger.Info("Export archive enabled", zap.String("dir", c.config.Export.ArchiveDir))
	}

	// Step 4: Initialize dispatcher and job progress
	c.dispatcher = ProvideDispatcher(c.metrics, c.logger)
	c.progress = ProvideJobProgress(&c.config.JobProgress, c.dispatcher, c.metrics, c.logger)
	c.logger.Info("Dispatcher initialized")

	// Step 5: Initialize application services
	c.services, err = ProvideServices(&ServiceDeps{
		API:       c.coreAPI,
		Database:  c.database,
		Storage:   c.storage,
		Publisher: c.dispatcher,
		Observer:  c.metrics,
		Config:    c.config,
		Logger:    c.logger,
	})
	if err != nil {
		c.dispatcher.Close()
		c.closeDatabase()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.sessions = session.NewManager(session.Config{
		Secret:       c.config.Session.Secret,
		Issuer:       c.config.Session.Issuer,
		TTL:          c.config.Session.TTL,
		SecureCookie: c.config.Session.SecureCookie,
		CookieDomain: c.config.Session.CookieDomain,
	})
	c.logger.Info("Services initialized")

	// Step 6: Initialize and start workers
	c.workers = ProvideWorkers(&WorkerDeps{
		Progress:  c.progress,
		Jobs:      c.services.Jobs,
		Scheduler: &c.config.Scheduler,
		CoreAPI:   &c.config.CoreAPI,
		Logger:    c.logger,
	})
	if err := c.workers.StartAll(c.ctx); err != nil {
		// A failed worker is reported by Health; the console stays usable
		c.logger.Error("Some workers failed to start", zap.Error(err))
	}
	c.logger.Info("Workers started", zap.Int("count", c.workers.GetWorkerCount()))

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Swap(true) {
		return nil
	}

	c.logger.Info("Closing container")
	var errs []error

	if c.cancel != nil {
		c.cancel()
	}

	// Step 1: Stop workers (reverse of step 6)
	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			errs = append(errs, fmt.Errorf("workers: %w", err))
		}
	}

	// Step 2: Services and sessions don't need explicit cleanup (reverse of step 5)

	// Step 3: Disconnect browsers and close dispatcher (reverse of step 4)
	if c.progress != nil {
		c.progress.Hub.Close()
	}
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("dispatcher: %w", err))
		}
	}

	// Step 4: Storage and the core API client hold no resources (reverse of steps 3 and 2)

	// Step 5: Close database (reverse of step 1)
	if err := c.closeDatabase(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("close errors: %v", errs)
	}

	c.logger.Info("Container closed successfully")
	return nil
}

func (c *Container) closeDatabase() error {
	if c.database == nil || c.database.DB == nil {
		return nil
	}
	err := c.database.DB.Close()
	c.database = nil
	return err
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health probes every component. Only the database and worker checks can
// fail; the progress stream is reported for information.
func (c *Container) Health(ctx context.Context) map[string]httpserver.ComponentHealth {
	c.mu.RLock()
	defer c.mu.RUnlock()

	report := map[string]httpserver.ComponentHealth{
		"database":   c.databaseHealth(ctx),
		"workers":    c.workerHealth(),
		"dispatcher": up(c.dispatcher != nil),
	}
	if c.progress != nil && c.progress.Client != nil {
		msg := "connected"
		if !c.progress.Client.Connected() {
			msg = "reconnecting"
		}
		report["job_progress"] = httpserver.ComponentHealth{Healthy: true, Message: msg}
	}
	return report
}

func up(ok bool) httpserver.ComponentHealth {
	if !ok {
		return httpserver.ComponentHealth{Message: "not initialized"}
	}
	return httpserver.ComponentHealth{Healthy: true}
}

func (c *Container) databaseHealth(ctx context.Context) httpserver.ComponentHealth {
	if c.database == nil {
		return up(false)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.database.DB.Ping(ctx); err != nil {
		return httpserver.ComponentHealth{Message: err.Error()}
	}
	return up(true)
}

func (c *Container) workerHealth() httpserver.ComponentHealth {
	if c.workers == nil {
		return up(false)
	}
	for _, st := range c.workers.Status() {
		if st.Error != "" {
			return httpserver.ComponentHealth{Message: fmt.Sprintf("%s: %s", st.Name, st.Error)}
		}
	}
	return httpserver.ComponentHealth{Healthy: true, Message: fmt.Sprintf("%d running", c.workers.GetWorkerCount())}
}

// HTTPDependencies assembles what the HTTP server needs.
func (c *Container) HTTPDependencies() httpserver.Dependencies {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return httpserver.Dependencies{
		Auth:       c.coreAPI,
		Cases:      c.services.Cases,
		Parameters: c.services.Parameters,
		Jobs:       c.services.Jobs,
		Reports:    c.services.Reports,
		Journal:    c.services.Journal,
		Sessions:   c.sessions,
		Tracker:    c.progress.Tracker,
		Hub:        c.progress.Hub,
		Metrics:    c.metrics,
		Health:     c.Health,
		Limits: datatable.Limits{
			DefaultPageSize: c.config.DataTable.DefaultPageSize,
			MaxPageSize:     c.config.DataTable.MaxPageSize,
		},
	}
}

// HTTPServerConfig returns the HTTP server settings.
func (c *Container) HTTPServerConfig() httpserver.ServerConfig {
	s := c.config.Server
	return httpserver.ServerConfig{
		Host:         s.Host,
		Port:         s.Port,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		Mode:         s.Mode,
		Version:      s.Version,
	}
}

// Getters

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Services returns the application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Progress returns the job progress components.
func (c *Container) Progress() *ProgressBundle {
	return c.progress
}

// Metrics returns the metrics collector.
func (c *Container) Metrics() *metrics.Collector {
	return c.metrics
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.WorkerManager {
	return c.workers
}

// Logger returns the logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the configuration.
func (c *Container) Config() *Config {
	return c.config
}

// ServiceLogger adapts zap to the key-value Logger used by services and the HTTP server.
func ServiceLogger(logger *zap.Logger) service.Logger {
	return kvLogger{logger: logger}
}

// kvLogger adapts zap to the Info/Error key-value loggers that services,
// the dispatcher and the HTTP layer accept.
type kvLogger struct {
	logger *zap.Logger
}

func (l kvLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (l kvLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields pairs up keys and values. A non-string key drops its
// pair; a trailing key without a value is kept under "_dangling".
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2+1)
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.Any("_dangling", keysAndValues[i]))
			break
		}
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr && key == "error" {
			fields = append(fields, zap.Error(err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
