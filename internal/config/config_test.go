package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "data", cfg.Database.DataDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 8, cfg.Scheduler.StartHour)
	assert.Equal(t, 22, cfg.Scheduler.EndHour)
	assert.Equal(t, 10<<20, cfg.Extract.MaxDocumentBytes)
	assert.Error(t, cfg.RequireToken())
}

func TestLoad_Env(t *testing.T) {
	chdirTemp(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_USER_IDS", "1,42")
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DB_DSN", "postgres://u:p@localhost/grevocab?sslmode=disable")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("ENABLE_SCHEDULER", "false")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.NoError(t, cfg.RequireToken())
	assert.Equal(t, []int64{1, 42}, cfg.Telegram.AdminUserIDs)
	assert.True(t, cfg.IsAdmin(42))
	assert.False(t, cfg.IsAdmin(7))
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.False(t, cfg.Scheduler.Enabled)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\n"), 0o644))
	// godotenv exports into the process environment; t.Setenv restores it
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_YAML(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  type: sqlite
  data_dir: /var/lib/grevocab
scheduler:
  start_hour: 9
  end_hour: 20
`), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "/var/lib/grevocab", cfg.Database.DataDir)
	assert.Equal(t, 9, cfg.Scheduler.StartHour)
	assert.Equal(t, 20, cfg.Scheduler.EndHour)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database:  DatabaseConfig{Type: "sqlite"},
			Log:       LogConfig{Format: "json"},
			Scheduler: SchedulerConfig{StartHour: 8, EndHour: 22, Timezone: "UTC"},
			Extract:   ExtractConfig{MaxDocumentBytes: 1},
			Telegram:  TelegramConfig{UpdateTimeout: 60},
		}
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "unknown db", modify: func(c *Config) { c.Database.Type = "mysql" }},
		{name: "postgres without dsn", modify: func(c *Config) { c.Database.Type = "postgres" }},
		{name: "bad log format", modify: func(c *Config) { c.Log.Format = "xml" }},
		{name: "hour out of range", modify: func(c *Config) { c.Scheduler.EndHour = 24 }},
		{name: "start after end", modify: func(c *Config) { c.Scheduler.StartHour = 23 }},
		{name: "bad timezone", modify: func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }},
		{name: "zero document limit", modify: func(c *Config) { c.Extract.MaxDocumentBytes = 0 }},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(&c)
			assert.Error(t, c.Validate())
		})
	}
}
