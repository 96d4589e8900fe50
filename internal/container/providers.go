package container

import (
	"context"
	"fmt"

	"github.com/estr/backoffice/internal/application/dispatcher"
	"github.com/estr/backoffice/internal/application/port"
	"github.com/estr/backoffice/internal/application/service"
	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/estr/backoffice/internal/domain/event"
	"github.com/estr/backoffice/internal/domain/workflow"
	"github.com/estr/backoffice/internal/infrastructure/external/estrapi"
	"github.com/estr/backoffice/internal/infrastructure/persistence/migrations"
	"github.com/estr/backoffice/internal/infrastructure/persistence/repository"
	"github.com/estr/backoffice/internal/infrastructure/persistence/sqlite"
	"github.com/estr/backoffice/internal/infrastructure/storage"
	"github.com/estr/backoffice/internal/infrastructure/worker"
	"github.com/estr/backoffice/internal/jobprogress"
	"github.com/estr/backoffice/internal/metrics"
	"github.com/estr/backoffice/pkg/database"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.TxManager
	Journal        port.JournalRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Cases      service.CaseService
	Parameters service.ParameterService
	Jobs       service.JobService
	Reports    service.ReportService
	Journal    service.JournalService
}

// ProgressBundle holds the job progress tracker, browser hub and upstream client.
type ProgressBundle struct {
	Tracker *jobprogress.Tracker
	Hub     *jobprogress.Hub
	// Client is nil when the upstream stream is disabled
	Client *jobprogress.Client
}

// ProvideDatabase opens the journal database and applies pending migrations.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	applied, err := database.NewMigrator(db, logger).RunMigrations(ctx, migrations.FS)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Journal migrations applied", zap.Int("count", applied))

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewTxManager(db.DB, logger),
		Journal:        repository.NewJournalRepository(db.DB, logger),
	}, nil
}

// ProvideCoreAPI creates the core API client reporting calls to the collector.
func ProvideCoreAPI(cfg *CoreAPIConfig, collector *metrics.Collector, logger *zap.Logger) (*estrapi.Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("core API base URL is required")
	}
	var opts []estrapi.Option
	if collector != nil {
		opts = append(opts, estrapi.WithObserver(collector.ObserveCoreCall))
	}
	return estrapi.NewClient(cfg.BaseURL, cfg.Timeout, logger, opts...), nil
}

// ProvideStorage creates the export archive, or nil when archiving is off.
func ProvideStorage(cfg *ExportConfig, logger *zap.Logger) port.ExportArchive {
	if cfg == nil || !cfg.Archive {
		return nil
	}
	return storage.NewDiskArchive(cfg.ArchiveDir, logger)
}

// ProvideDispatcher creates the event dispatcher and subscribes the metrics
// handler to every event type.
func ProvideDispatcher(collector *metrics.Collector, logger *zap.Logger) dispatcher.Dispatcher {
	d := dispatcher.NewDispatcher(dispatcher.WithLogger(kvLogger{logger: logger}))
	if collector != nil {
		d.SubscribeMany([]event.Type{
			event.TypeCaseTransitioned,
			event.TypeParameterSaved,
			event.TypeParameterAuthorized,
			event.TypeJobTriggered,
			event.TypeJobProgress,
		}, "metrics", collector.EventHandler())
	}
	return d
}

// ServiceDeps groups what the application services need.
type ServiceDeps struct {
	API       *estrapi.Client
	Database  *DatabaseBundle
	Storage   port.ExportArchive
	Publisher service.Publisher
	Observer  service.ActionObserver
	Config    *Config
	Logger    *zap.Logger
}

// ProvideServices creates every application service.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.API == nil || deps.Database == nil || deps.Config == nil {
		return nil, fmt.Errorf("API client, database and config are required")
	}

	logger := kvLogger{logger: deps.Logger}
	journal := deps.Database.Journal

	return &ServiceBundle{
		Cases: service.NewCaseService(deps.API, workflow.NewPolicy(), journal,
			deps.Database.TransactionMgr, deps.Publisher, deps.Observer, logger),
		Parameters: service.NewParameterService(deps.API, journal, deps.Publisher, deps.Observer, logger),
		Jobs:       service.NewJobService(deps.API, deps.Config.KnownJobs, journal, deps.Publisher, deps.Observer, logger),
		Reports: service.NewReportService(deps.API, deps.Storage, service.ReportConfig{
			BankName:     deps.Config.Export.BankName,
			MaxRows:      deps.Config.Export.MaxRows,
			MaxRangeDays: deps.Config.Export.MaxRangeDays,
			Archive:      deps.Config.Export.Archive,
		}, journal, deps.Observer, logger),
		Journal: service.NewJournalService(journal, logger),
	}, nil
}

// ProvideJobProgress creates the tracker and hub, and the upstream client
// when enabled. Snapshots travel as job.progress events to the hub and the
// metrics gauges.
func ProvideJobProgress(cfg *JobProgressConfig, d dispatcher.Dispatcher, collector *metrics.Collector, logger *zap.Logger) *ProgressBundle {
	tracker := jobprogress.NewTracker()
	hub := jobprogress.NewHub(tracker, logger)

	d.SubscribeNamed(event.TypeJobProgress, "progress-hub", hub.EventHandler())
	if collector != nil {
		d.SubscribeNamed(event.TypeJobProgress, "progress-gauges", jobprogress.SnapshotHandler(collector.ObserveProgress))
	}

	bundle := &ProgressBundle{Tracker: tracker, Hub: hub}
	if cfg != nil && cfg.Enabled {
		bundle.Client = jobprogress.NewClient(jobprogress.ClientConfig{
			URL:            cfg.URL,
			ReconnectDelay: cfg.ReconnectDelay,
		}, tracker, jobprogress.Publish(d, logger), logger)
	}
	return bundle
}

// WorkerDeps groups what the background workers need.
type WorkerDeps struct {
	Progress  *ProgressBundle
	Jobs      service.JobService
	Scheduler *SchedulerConfig
	CoreAPI   *CoreAPIConfig
	Logger    *zap.Logger
}

// ProvideWorkers registers the progress client and the job scheduler.
func ProvideWorkers(deps *WorkerDeps) *worker.WorkerManager {
	m := worker.NewWorkerManager(deps.Logger)

	if deps.Progress != nil && deps.Progress.Client != nil {
		m.Register(deps.Progress.Client)
	}

	if deps.Scheduler != nil && deps.Scheduler.Enabled && len(deps.Scheduler.Jobs) > 0 {
		schedules := make([]worker.Schedule, 0, len(deps.Scheduler.Jobs))
		for _, j := range deps.Scheduler.Jobs {
			schedules = append(schedules, worker.Schedule{JobName: j.Name, Spec: j.Schedule})
		}
		actor := &entity.Profile{
			UserID: deps.CoreAPI.SystemUser,
			Name:   "Scheduler",
			Role:   string(workflow.RoleAdmin),
		}
		m.Register(worker.NewScheduler(deps.Jobs, schedules, actor, deps.Logger))
	}

	return m
}
