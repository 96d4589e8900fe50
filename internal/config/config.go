package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	CoreAPI     CoreAPIConfig     `mapstructure:"core_api"`
	Session     SessionConfig     `mapstructure:"session"`
	JobProgress JobProgressConfig `mapstructure:"job_progress"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Export      ExportConfig      `mapstructure:"export"`
	Jobs        JobsConfig        `mapstructure:"jobs"`
	DataTable   DataTableConfig   `mapstructure:"data_table"`
	Logger      LoggerConfig      `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Mode         string        `mapstructure:"mode"`
}

// DatabaseConfig holds the local journal database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// CoreAPIConfig points at the remote eSTR core REST API
type CoreAPIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// SystemUser is sent as the actor for scheduler-triggered jobs
	SystemUser string `mapstructure:"system_user"`
}

// SessionConfig holds session cookie and token settings
type SessionConfig struct {
	Secret       string        `mapstructure:"secret"`
	Issuer       string        `mapstructure:"issuer"`
	TTL          time.Duration `mapstructure:"ttl"`
	SecureCookie bool          `mapstructure:"secure_cookie"`
	CookieDomain string        `mapstructure:"cookie_domain"`
}

// JobProgressConfig controls the upstream job progress stream
type JobProgressConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	URL            string        `mapstructure:"url"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
}

// SchedulerConfig lists detection jobs triggered on a cron schedule
type SchedulerConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Jobs    []ScheduleJob `mapstructure:"jobs"`
}

// ScheduleJob is one cron entry
type ScheduleJob struct {
	Name     string `mapstructure:"name"`
	Schedule string `mapstructure:"schedule"`
}

// ExportConfig holds export settings
type ExportConfig struct {
	ArchiveDir   string `mapstructure:"archive_dir"`
	Archive      bool   `mapstructure:"archive"`
	BankName     string `mapstructure:"bank_name"`
	MaxRows      int    `mapstructure:"max_rows"`
	MaxRangeDays int    `mapstructure:"max_range_days"`
}

// JobsConfig lists the detection jobs the core API accepts
type JobsConfig struct {
	Known []string `mapstructure:"known"`
}

// DataTableConfig holds list defaults shared by every screen
type DataTableConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
// A missing config file is not an error; defaults and environment apply.
func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.mode", "release")

	// Database defaults
	v.SetDefault("database.path", "data/estr.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Core API defaults
	v.SetDefault("core_api.timeout", 30*time.Second)
	v.SetDefault("core_api.system_user", "estr_scheduler")

	// Session defaults
	v.SetDefault("session.issuer", "estr-backoffice")
	v.SetDefault("session.ttl", 8*time.Hour)
	v.SetDefault("session.secure_cookie", false)

	// Job progress defaults
	v.SetDefault("job_progress.enabled", true)
	v.SetDefault("job_progress.reconnect_delay", 10*time.Second)

	// Export defaults
	v.SetDefault("export.archive_dir", "exports")
	v.SetDefault("export.archive", false)
	v.SetDefault("export.bank_name", "Bank")
	v.SetDefault("export.max_rows", 50000)
	v.SetDefault("export.max_range_days", 366)

	// Detection jobs
	v.SetDefault("jobs.known", []string{"PASSBY", "MTM", "DOR", "BIFAST"})

	// Data table defaults
	v.SetDefault("data_table.default_page_size", 10)
	v.SetDefault("data_table.max_page_size", 100)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("core_api.base_url", "ESTR_CORE_API_URL")
	_ = v.BindEnv("job_progress.url", "ESTR_JOB_PROGRESS_URL")
	_ = v.BindEnv("session.secret", "ESTR_SESSION_SECRET")
	_ = v.BindEnv("database.path", "ESTR_DB_PATH")
	_ = v.BindEnv("logger.level", "ESTR_LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.CoreAPI.BaseURL == "" {
		return fmt.Errorf("core_api.base_url is required")
	}
	if len(c.Session.Secret) < 16 {
		return fmt.Errorf("session.secret must be at least 16 characters")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}
	if c.DataTable.DefaultPageSize <= 0 || c.DataTable.MaxPageSize < c.DataTable.DefaultPageSize {
		return fmt.Errorf("data_table page sizes are inconsistent")
	}
	if c.JobProgress.Enabled {
		if c.JobProgress.URL == "" {
			return fmt.Errorf("job_progress.url is required when job progress is enabled")
		}
		if c.JobProgress.ReconnectDelay <= 0 {
			return fmt.Errorf("job_progress.reconnect_delay must be positive")
		}
	}
	if c.Scheduler.Enabled {
		for _, job := range c.Scheduler.Jobs {
			if job.Name == "" || job.Schedule == "" {
				return fmt.Errorf("scheduler jobs need a name and a schedule")
			}
			if !c.Jobs.IsKnown(job.Name) {
				return fmt.Errorf("scheduler job %q is not in jobs.known", job.Name)
			}
		}
	}
	return nil
}

// IsKnown reports whether name is one of the configured detection jobs
func (j JobsConfig) IsKnown(name string) bool {
	for _, known := range j.Known {
		if known == name {
			return true
		}
	}
	return false
}
