// Package container wires the back-office components together and manages
// their startup and shutdown order.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	Database    DatabaseConfig
	CoreAPI     CoreAPIConfig
	Session     SessionConfig
	JobProgress JobProgressConfig
	Scheduler   SchedulerConfig
	Export      ExportConfig
	DataTable   DataTableConfig
	Server      ServerConfig

	// KnownJobs are the detection jobs users may trigger
	KnownJobs []string
}

// DatabaseConfig holds journal database settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// CoreAPIConfig holds core API client settings.
type CoreAPIConfig struct {
	BaseURL string
	Timeout time.Duration

	// SystemUser acts for scheduled job triggers
	SystemUser string
}

// SessionConfig holds session token and cookie settings.
type SessionConfig struct {
	Secret       string
	Issuer       string
	TTL          time.Duration
	SecureCookie bool
	CookieDomain string
}

// JobProgressConfig holds the upstream progress stream settings.
type JobProgressConfig struct {
	Enabled        bool
	URL            string
	ReconnectDelay time.Duration
}

// ScheduledJob is one cron entry
type ScheduledJob struct {
	Name     string
	Schedule string
}

// SchedulerConfig holds scheduled detection jobs.
type SchedulerConfig struct {
	Enabled bool
	Jobs    []ScheduledJob
}

// ExportConfig holds report export settings.
type ExportConfig struct {
	// ArchiveDir receives a copy of every export when Archive is set
	ArchiveDir   string
	Archive      bool
	BankName     string
	MaxRows      int
	MaxRangeDays int
}

// DataTableConfig holds list page size limits.
type DataTableConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Mode         string
	Version      string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/estr.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		CoreAPI: CoreAPIConfig{
			Timeout:    30 * time.Second,
			SystemUser: "estr_scheduler",
		},
		Session: SessionConfig{
			Issuer: "estr-backoffice",
			TTL:    8 * time.Hour,
		},
		JobProgress: JobProgressConfig{
			ReconnectDelay: 10 * time.Second,
		},
		Export: ExportConfig{
			ArchiveDir:   "exports",
			BankName:     "Bank",
			MaxRows:      50000,
			MaxRangeDays: 366,
		},
		DataTable: DataTableConfig{
			DefaultPageSize: 10,
			MaxPageSize:     100,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			Mode:         "release",
			Version:      "dev",
		},
		KnownJobs: []string{"PASSBY", "MTM", "DOR", "BIFAST"},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.CoreAPI.BaseURL == "" {
		return fmt.Errorf("core_api.base_url is required")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("session.secret is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.JobProgress.Enabled && c.JobProgress.URL == "" {
		return fmt.Errorf("job_progress.url is required")
	}
	if c.Scheduler.Enabled && c.CoreAPI.SystemUser == "" {
		return fmt.Errorf("core_api.system_user is required for the scheduler")
	}
	if c.Export.Archive && c.Export.ArchiveDir == "" {
		return fmt.Errorf("export.archive_dir is required when archiving")
	}
	return nil
}
