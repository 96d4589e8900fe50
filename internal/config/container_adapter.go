package config

import (
	"github.com/estr/backoffice/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	jobs := make([]container.ScheduledJob, 0, len(c.Scheduler.Jobs))
	for _, j := range c.Scheduler.Jobs {
		jobs = append(jobs, container.ScheduledJob{Name: j.Name, Schedule: j.Schedule})
	}

	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		CoreAPI: container.CoreAPIConfig{
			BaseURL:    c.CoreAPI.BaseURL,
			Timeout:    c.CoreAPI.Timeout,
			SystemUser: c.CoreAPI.SystemUser,
		},
		Session: container.SessionConfig{
			Secret:       c.Session.Secret,
			Issuer:       c.Session.Issuer,
			TTL:          c.Session.TTL,
			SecureCookie: c.Session.SecureCookie,
			CookieDomain: c.Session.CookieDomain,
		},
		JobProgress: container.JobProgressConfig{
			Enabled:        c.JobProgress.Enabled,
			URL:            c.JobProgress.URL,
			ReconnectDelay: c.JobProgress.ReconnectDelay,
		},
		Scheduler: container.SchedulerConfig{
			Enabled: c.Scheduler.Enabled,
			Jobs:    jobs,
		},
		Export: container.ExportConfig{
			ArchiveDir:   c.Export.ArchiveDir,
			Archive:      c.Export.Archive,
			BankName:     c.Export.BankName,
			MaxRows:      c.Export.MaxRows,
			MaxRangeDays: c.Export.MaxRangeDays,
		},
		DataTable: container.DataTableConfig{
			DefaultPageSize: c.DataTable.DefaultPageSize,
			MaxPageSize:     c.DataTable.MaxPageSize,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
			Mode:         c.Server.Mode,
		},
		KnownJobs: c.Jobs.Known,
	}
}
