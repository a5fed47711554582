package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigDefaults(t *testing.T) {
	t.Setenv("VISITLOG_ENV", Test)
	t.Setenv("VISITLOG_STORAGE_PATH", "")
	t.Setenv("RENDER", "")
	Reset()
	t.Cleanup(Reset)

	cfg := GetConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "visitlog", cfg.AppName)
	assert.Equal(t, "1000", cfg.GetPort())
	assert.True(t, cfg.IsTest())
	assert.Equal(t, "analytics.db", cfg.DatabaseFile)
	assert.Equal(t, MaxRecentVisits, cfg.GetRecentVisitsLimit())
	assert.Equal(t, 0, cfg.BackupIntervalSeconds)
	assert.Equal(t, 1, cfg.GetMaxOpenConns())
	assert.Equal(t, 1, cfg.GetMaxIdleConns())
}

func TestGetConfigFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VISITLOG_ENV", Production)
	t.Setenv("VISITLOG_STORAGE_PATH", dir)
	t.Setenv("VISITLOG_DATABASE_FILE", "visits.db")
	t.Setenv("VISITLOG_APP_PORT", "8080")
	t.Setenv("VISITLOG_RECENT_VISITS_LIMIT", "50")
	Reset()
	t.Cleanup(Reset)

	cfg := GetConfig()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.GetPort())
	assert.Equal(t, filepath.Join(dir, "visits.db"), cfg.DatabaseName)
	assert.Equal(t, dir, cfg.GetBackupDirectory())
	assert.Equal(t, 50, cfg.GetRecentVisitsLimit())
	assert.Equal(t, 10, cfg.GetMaxOpenConns())
	assert.Equal(t, 5, cfg.GetMaxIdleConns())
}

func TestGetRecentVisitsLimitClamps(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero falls back to max", 0, MaxRecentVisits},
		{"negative falls back to max", -5, MaxRecentVisits},
		{"above max is clamped", 5000, MaxRecentVisits},
		{"inside range is kept", 25, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{RecentVisitsLimit: tt.limit}
			assert.Equal(t, tt.want, c.GetRecentVisitsLimit())
		})
	}
}

func TestBackupDirectoryOverride(t *testing.T) {
	c := &Config{DatabasePath: "storage", DatabaseFile: "analytics.db", BackupDirectory: "/var/backups"}
	assert.Equal(t, "/var/backups", c.GetBackupDirectory())

	c = &Config{DatabasePath: "storage", DatabaseFile: "analytics.db"}
	assert.Equal(t, "storage", c.GetBackupDirectory())
	assert.Equal(t, filepath.Join("storage", "analytics.db"), c.GetDatabasePath())
}

func TestValidate(t *testing.T) {
	assert.Error(t, (&Config{Environment: "staging", DatabaseFile: "a.db"}).validate())
	assert.Error(t, (&Config{Environment: Test}).validate())
	assert.Error(t, (&Config{Environment: Test, DatabaseFile: "a.db", BackupIntervalSeconds: -1}).validate())
	assert.NoError(t, (&Config{Environment: Test, DatabaseFile: "a.db"}).validate())
}
