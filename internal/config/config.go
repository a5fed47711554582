// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// MaxRecentVisits is the hard ceiling for the recent visits listing.
const MaxRecentVisits = 1000

// renderDataDir is used instead of the working directory when running on Render with a disk.
const renderDataDir = "/data"

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	PrivateKey  string   `mapstructure:"privatekey"`

	// File paths
	DatabasePath    string `mapstructure:"storagepath"`
	DatabaseFile    string `mapstructure:"databasefile"`
	DatabaseName    string `mapstructure:"-"` // Derived from other settings
	BackupDirectory string `mapstructure:"backupdir"`
	GeoDBPath       string `mapstructure:"geodbpath"`
	PublicDirectory string `mapstructure:"publicdir"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseMaxOpenConns int `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int `mapstructure:"dbmaxidleconns"`

	// Reporting and ingestion settings
	RecentVisitsLimit  int `mapstructure:"recentvisitslimit"`
	RateLimitPerMinute int `mapstructure:"ratelimitperminute"`

	// Job scheduling settings
	BackupIntervalSeconds int `mapstructure:"backupintervalseconds"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		// A missing .env file is fine, the process environment still applies.
		_ = godotenv.Load()

		v := viper.New()

		v.SetDefault("appname", "visitlog")
		v.SetDefault("appport", "1000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("privatekey", "88888888888888888888888888888888")
		v.SetDefault("storagepath", defaultStoragePath())
		v.SetDefault("databasefile", "analytics.db")
		v.SetDefault("backupdir", "")
		v.SetDefault("geodbpath", "")
		v.SetDefault("publicdir", "web")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("recentvisitslimit", MaxRecentVisits)
		v.SetDefault("ratelimitperminute", 120)
		v.SetDefault("backupintervalseconds", 0)

		v.BindEnv("appname", "VISITLOG_APP_NAME")
		v.BindEnv("appport", "VISITLOG_APP_PORT")
		v.BindEnv("environment", "VISITLOG_ENV")
		v.BindEnv("loglevel", "VISITLOG_LOG_LEVEL")
		v.BindEnv("privatekey", "VISITLOG_PRIVATE_KEY")
		v.BindEnv("storagepath", "VISITLOG_STORAGE_PATH")
		v.BindEnv("databasefile", "VISITLOG_DATABASE_FILE")
		v.BindEnv("backupdir", "VISITLOG_BACKUP_DIR")
		v.BindEnv("geodbpath", "VISITLOG_GEO_DB_PATH")
		v.BindEnv("publicdir", "VISITLOG_PUBLIC_DIR")
		v.BindEnv("logsdir", "VISITLOG_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "VISITLOG_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "VISITLOG_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "VISITLOG_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbmaxopenconns", "VISITLOG_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "VISITLOG_DB_MAX_IDLE_CONNS")
		v.BindEnv("recentvisitslimit", "VISITLOG_RECENT_VISITS_LIMIT")
		v.BindEnv("ratelimitperminute", "VISITLOG_RATE_LIMIT_PER_MINUTE")
		v.BindEnv("backupintervalseconds", "VISITLOG_BACKUP_INTERVAL_SECONDS")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		cfg.DatabaseName = cfg.GetDatabasePath()
	})
	return cfg
}

// defaultStoragePath picks the persistent disk on Render, the working directory elsewhere.
func defaultStoragePath() string {
	if os.Getenv("RENDER") == "" {
		return "."
	}
	if info, err := os.Stat(renderDataDir); err == nil && info.IsDir() {
		return renderDataDir
	}
	return "."
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	if c.DatabaseFile == "" {
		return fmt.Errorf("database file name is required")
	}

	if c.BackupIntervalSeconds < 0 {
		return fmt.Errorf("invalid backup interval: %d", c.BackupIntervalSeconds)
	}

	return nil
}

// GetDatabasePath returns the full path of the SQLite file
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath, c.DatabaseFile)
	}
	return c.DatabaseName
}

// GetBackupDirectory returns where backup copies are written.
// Backups sit next to the database file unless a directory is configured.
func (c *Config) GetBackupDirectory() string {
	if c.BackupDirectory != "" {
		return c.BackupDirectory
	}
	return filepath.Dir(c.GetDatabasePath())
}

// GetRecentVisitsLimit returns the configured listing size clamped to 1..MaxRecentVisits.
func (c *Config) GetRecentVisitsLimit() int {
	if c.RecentVisitsLimit <= 0 || c.RecentVisitsLimit > MaxRecentVisits {
		return MaxRecentVisits
	}
	return c.RecentVisitsLimit
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetPort returns the HTTP server port (implements cartridge.Config interface).
func (c *Config) GetPort() string {
	return c.AppPort
}

// GetPublicDirectory returns the path to public/static assets (implements cartridge.Config interface).
func (c *Config) GetPublicDirectory() string {
	return c.PublicDirectory
}

// GetAssetsPrefix returns the URL prefix for static assets (implements cartridge.Config interface).
func (c *Config) GetAssetsPrefix() string {
	return "/"
}

// GetAppName returns the application name (implements cartridge.FactoryConfig interface).
func (c *Config) GetAppName() string {
	return c.AppName
}

// DatabaseDSN returns the database connection string (implements cartridge.FactoryConfig interface).
func (c *Config) DatabaseDSN() string {
	return c.GetDatabasePath()
}

// GetSessionSecret returns the session encryption key (implements cartridge.FactoryConfig interface).
func (c *Config) GetSessionSecret() string {
	return c.PrivateKey
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1
// - Development/Production: 10 (dashboard polling reads alongside beacon writes)
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 5
}

// GetLogLevel returns the log level as a string (implements cartridge.LogConfigProvider).
func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

// GetLogDirectory returns the logs directory (implements cartridge.LogConfigProvider).
func (c *Config) GetLogDirectory() string {
	return c.LogsDirectory
}

// GetLogMaxSizeMB returns the max log file size in MB (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxSizeMB() int {
	return c.LogsMaxSizeInMb
}

// GetLogMaxBackups returns the max number of log backups (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxBackups() int {
	return c.LogsMaxBackups
}

// GetLogMaxAgeDays returns the max age in days for log files (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxAgeDays() int {
	return c.LogsMaxAgeInDays
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
