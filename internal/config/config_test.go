package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalYAML = `
core_api:
  base_url: http://core.local/api
session:
  secret: 0123456789abcdef0123
job_progress:
  enabled: false
`

func validConfig() *Config {
	return &Config{
		Server:      ServerConfig{Port: 8080},
		CoreAPI:     CoreAPIConfig{BaseURL: "http://core.local/api"},
		Session:     SessionConfig{Secret: "0123456789abcdef"},
		JobProgress: JobProgressConfig{Enabled: true, URL: "ws://core.local/ws", ReconnectDelay: 10 * time.Second},
		Jobs:        JobsConfig{Known: []string{"PASSBY", "DOR"}},
		DataTable:   DataTableConfig{DefaultPageSize: 10, MaxPageSize: 100},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "data/estr.db", cfg.Database.Path)
	assert.Equal(t, 8*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "estr_scheduler", cfg.CoreAPI.SystemUser)
	assert.Equal(t, 10*time.Second, cfg.JobProgress.ReconnectDelay)
	assert.Equal(t, []string{"PASSBY", "MTM", "DOR", "BIFAST"}, cfg.Jobs.Known)
	assert.Equal(t, 10, cfg.DataTable.DefaultPageSize)
	assert.Equal(t, 100, cfg.DataTable.MaxPageSize)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.False(t, cfg.JobProgress.Enabled)
}

func TestLoad_FileValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: 9090
  write_timeout: 2m
core_api:
  base_url: http://core.local/api
  timeout: 5s
session:
  secret: 0123456789abcdef0123
job_progress:
  enabled: true
  url: ws://core.local/ws/job-progress
jobs:
  known: [PASSBY, DOR]
scheduler:
  enabled: true
  jobs:
    - name: DOR
      schedule: "0 3 * * *"
`))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, 5*time.Second, cfg.CoreAPI.Timeout)
	assert.Equal(t, "ws://core.local/ws/job-progress", cfg.JobProgress.URL)
	require.Len(t, cfg.Scheduler.Jobs, 1)
	assert.Equal(t, ScheduleJob{Name: "DOR", Schedule: "0 3 * * *"}, cfg.Scheduler.Jobs[0])
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ESTR_SESSION_SECRET", "from-env-secret-0123456789")
	t.Setenv("ESTR_DB_PATH", "/var/lib/estr/journal.db")

	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "from-env-secret-0123456789", cfg.Session.Secret)
	assert.Equal(t, "/var/lib/estr/journal.db", cfg.Database.Path)
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("ESTR_CORE_API_URL", "http://core.env/api")
	t.Setenv("ESTR_SESSION_SECRET", "from-env-secret-0123456789")
	t.Setenv("ESTR_JOB_PROGRESS_URL", "ws://core.env/ws")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://core.env/api", cfg.CoreAPI.BaseURL)
	assert.True(t, cfg.JobProgress.Enabled)
	assert.Equal(t, "ws://core.env/ws", cfg.JobProgress.URL)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, `
core_api:
  base_url: http://core.local/api
session:
  secret: short
job_progress:
  enabled: false
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.secret")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no base url", mutate: func(c *Config) { c.CoreAPI.BaseURL = "" }, wantErr: "core_api.base_url"},
		{name: "short secret", mutate: func(c *Config) { c.Session.Secret = "abc" }, wantErr: "session.secret"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{
			name:    "max page below default",
			mutate:  func(c *Config) { c.DataTable.MaxPageSize = 5 },
			wantErr: "data_table",
		},
		{name: "progress without url", mutate: func(c *Config) { c.JobProgress.URL = "" }, wantErr: "job_progress.url"},
		{
			name:    "progress without delay",
			mutate:  func(c *Config) { c.JobProgress.ReconnectDelay = 0 },
			wantErr: "reconnect_delay",
		},
		{
			name: "scheduler with unknown job",
			mutate: func(c *Config) {
				c.Scheduler = SchedulerConfig{Enabled: true, Jobs: []ScheduleJob{{Name: "MTM", Schedule: "@daily"}}}
			},
			wantErr: `"MTM"`,
		},
		{
			name: "scheduler job without schedule",
			mutate: func(c *Config) {
				c.Scheduler = SchedulerConfig{Enabled: true, Jobs: []ScheduleJob{{Name: "DOR"}}}
			},
			wantErr: "name and a schedule",
		},
		{
			name: "disabled scheduler is not checked",
			mutate: func(c *Config) {
				c.Scheduler = SchedulerConfig{Jobs: []ScheduleJob{{Name: "MTM"}}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToContainerConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{Path: "journal.db", MaxOpenConns: 4}
	cfg.CoreAPI.SystemUser = "sys"
	cfg.Scheduler = SchedulerConfig{Enabled: true, Jobs: []ScheduleJob{{Name: "DOR", Schedule: "@daily"}}}
	cfg.Export = ExportConfig{Archive: true, ArchiveDir: "exports", BankName: "Bank Contoh", MaxRows: 10}

	cc := cfg.ToContainerConfig()
	require.NoError(t, cc.Validate())

	assert.Equal(t, "journal.db", cc.Database.Path)
	assert.Equal(t, 4, cc.Database.MaxOpenConns)
	assert.Equal(t, "sys", cc.CoreAPI.SystemUser)
	assert.Equal(t, "ws://core.local/ws", cc.JobProgress.URL)
	require.Len(t, cc.Scheduler.Jobs, 1)
	assert.Equal(t, "DOR", cc.Scheduler.Jobs[0].Name)
	assert.Equal(t, "@daily", cc.Scheduler.Jobs[0].Schedule)
	assert.Equal(t, "Bank Contoh", cc.Export.BankName)
	assert.Equal(t, []string{"PASSBY", "DOR"}, cc.KnownJobs)
	assert.Equal(t, 100, cc.DataTable.MaxPageSize)
}
